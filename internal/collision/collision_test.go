package collision

import "testing"

func TestFindEventsDetectsHitWithinRadius(t *testing.T) {
	gatherers := []Gatherer{
		{ID: 1, Start: Point2D{X: 0, Y: 0}, End: Point2D{X: 10, Y: 0}, Width: 0.3},
	}
	items := []Item{
		{ID: 100, Position: Point2D{X: 5, Y: 0}, Width: 0},
	}

	events := FindEvents(gatherers, items)
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].GathererID != 1 || events[0].ItemID != 100 {
		t.Errorf("event = %+v, want gatherer 1 / item 100", events[0])
	}
	if events[0].Time < 0.49 || events[0].Time > 0.51 {
		t.Errorf("Time = %v, want ~0.5", events[0].Time)
	}
}

func TestFindEventsMissesOutOfRadius(t *testing.T) {
	gatherers := []Gatherer{
		{ID: 1, Start: Point2D{X: 0, Y: 0}, End: Point2D{X: 10, Y: 0}, Width: 0.1},
	}
	items := []Item{
		{ID: 1, Position: Point2D{X: 5, Y: 5}, Width: 0},
	}
	if events := FindEvents(gatherers, items); len(events) != 0 {
		t.Errorf("len(events) = %d, want 0", len(events))
	}
}

func TestFindEventsSkipsStationaryGatherers(t *testing.T) {
	gatherers := []Gatherer{
		{ID: 1, Start: Point2D{X: 5, Y: 5}, End: Point2D{X: 5, Y: 5}, Width: 10},
	}
	items := []Item{
		{ID: 1, Position: Point2D{X: 5, Y: 5}, Width: 10},
	}
	if events := FindEvents(gatherers, items); len(events) != 0 {
		t.Errorf("stationary gatherer produced %d events, want 0", len(events))
	}
}

func TestFindEventsOrderedByTimeThenItemThenGatherer(t *testing.T) {
	gatherers := []Gatherer{
		{ID: 2, Start: Point2D{X: 0, Y: 0}, End: Point2D{X: 10, Y: 0}, Width: 1},
		{ID: 1, Start: Point2D{X: 0, Y: 0}, End: Point2D{X: 10, Y: 0}, Width: 1},
	}
	items := []Item{
		{ID: 10, Position: Point2D{X: 9, Y: 0}, Width: 0},
		{ID: 5, Position: Point2D{X: 1, Y: 0}, Width: 0},
		{ID: 6, Position: Point2D{X: 1, Y: 0}, Width: 0},
	}

	events := FindEvents(gatherers, items)
	if len(events) != 6 {
		t.Fatalf("len(events) = %d, want 6", len(events))
	}
	for i := 1; i < len(events); i++ {
		a, b := events[i-1], events[i]
		if a.Time > b.Time {
			t.Fatalf("events not sorted by time at %d: %+v then %+v", i, a, b)
		}
		if a.Time == b.Time && a.ItemID > b.ItemID {
			t.Fatalf("events with equal time not sorted by item id at %d: %+v then %+v", i, a, b)
		}
		if a.Time == b.Time && a.ItemID == b.ItemID && a.GathererID > b.GathererID {
			t.Fatalf("events with equal time and item not sorted by gatherer id at %d: %+v then %+v", i, a, b)
		}
	}
}

func TestDistance(t *testing.T) {
	d := Distance(Point2D{X: 0, Y: 0}, Point2D{X: 3, Y: 4})
	if d != 5 {
		t.Errorf("Distance = %v, want 5", d)
	}
}
