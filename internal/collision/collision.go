// Package collision implements the pure gather/collision detector (C3).
package collision

import (
	"math"
	"sort"
)

// Point2D is a planar point used by gatherers and items.
type Point2D struct {
	X, Y float64
}

// Gatherer is a moving object: it travels from Start to End this tick and
// has a pickup radius of Width.
type Gatherer struct {
	ID    int
	Start Point2D
	End   Point2D
	Width float64
}

// Item is a static target with a pickup radius of Width.
type Item struct {
	ID       int
	Position Point2D
	Width    float64
}

// Event is one gatherer-item collision, with the parametric hit time.
type Event struct {
	GathererID int
	ItemID     int
	SqDistance float64
	Time       float64 // in [0,1], fraction of the gatherer's motion segment
}

// FindEvents returns every collision between gatherers and items, sorted by
// Time ascending, ties broken by ItemID then GathererID (§4.3). Gatherers
// whose Start equals End contribute no events (no motion this tick).
func FindEvents(gatherers []Gatherer, items []Item) []Event {
	var events []Event

	for _, g := range gatherers {
		dx := g.End.X - g.Start.X
		dy := g.End.Y - g.Start.Y
		if dx == 0 && dy == 0 {
			continue
		}
		segLenSq := dx*dx + dy*dy

		for _, it := range items {
			px := it.Position.X - g.Start.X
			py := it.Position.Y - g.Start.Y

			t := (px*dx + py*dy) / segLenSq
			if t < 0 {
				t = 0
			}
			if t > 1 {
				t = 1
			}

			closestX := g.Start.X + t*dx
			closestY := g.Start.Y + t*dy

			sqDist := sqDistance(it.Position.X, it.Position.Y, closestX, closestY)
			minDist := g.Width + it.Width
			if sqDist <= minDist*minDist {
				events = append(events, Event{
					GathererID: g.ID,
					ItemID:     it.ID,
					SqDistance: sqDist,
					Time:       t,
				})
			}
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		if a.ItemID != b.ItemID {
			return a.ItemID < b.ItemID
		}
		return a.GathererID < b.GathererID
	})

	return events
}

func sqDistance(x1, y1, x2, y2 float64) float64 {
	dx := x1 - x2
	dy := y1 - y2
	return dx*dx + dy*dy
}

// Distance is exposed for tests that want the linear distance rather than
// the squared one used internally.
func Distance(a, b Point2D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
