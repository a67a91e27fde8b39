package session

import (
	"testing"

	"github.com/dogwalk/server/internal/mapcatalog"
)

func testMap() *mapcatalog.Map {
	return &mapcatalog.Map{
		ID:          "m1",
		DogSpeed:    2,
		BagCapacity: 3,
		Roads: []mapcatalog.Road{
			{Start: mapcatalog.Point{X: 0, Y: 0}, End: mapcatalog.Point{X: 10, Y: 0}, Orientation: mapcatalog.Horizontal},
		},
		LootTypes: []mapcatalog.LootType{{Value: 10}, {Value: 20}},
	}
}

func TestNextDogIDMonotonicAndUnique(t *testing.T) {
	a := NextDogID()
	b := NextDogID()
	if b != a+1 {
		t.Errorf("NextDogID sequence = %d, %d; want consecutive", a, b)
	}
}

func TestSetDirectionSetsCanonicalVelocity(t *testing.T) {
	d := &Dog{}
	d.SetDirection(Right, 4)
	if d.Velocity != (Velocity{Vx: 4, Vy: 0}) {
		t.Errorf("velocity after Right = %+v, want {4 0}", d.Velocity)
	}
	if !d.MovedThisTick {
		t.Error("MovedThisTick = false after a direction command, want true")
	}

	d.SetDirection(None, 4)
	if d.Velocity != (Velocity{}) {
		t.Errorf("velocity after stop = %+v, want zero", d.Velocity)
	}
}

func TestAddItemAccruesScoreAndBag(t *testing.T) {
	d := &Dog{}
	d.AddItem(1, 0, 10)
	d.AddItem(2, 1, 20)
	if d.ItemsCount() != 2 {
		t.Errorf("ItemsCount = %d, want 2", d.ItemsCount())
	}
	if d.Score != 30 {
		t.Errorf("Score = %d, want 30", d.Score)
	}

	d.EmptyBag()
	if d.ItemsCount() != 0 {
		t.Errorf("ItemsCount after EmptyBag = %d, want 0", d.ItemsCount())
	}
	if d.Score != 30 {
		t.Errorf("Score after EmptyBag = %d, want unchanged 30", d.Score)
	}
}

func TestAddDogNonRandomSpawnsAtFirstRoadStart(t *testing.T) {
	s := New(testMap())
	dog := &Dog{ID: NextDogID()}
	s.AddDog(dog, false)

	if dog.Position != (Point{X: 0, Y: 0}) {
		t.Errorf("non-random spawn position = %+v, want {0 0}", dog.Position)
	}
	if s.DogsCount() != 1 {
		t.Errorf("DogsCount = %d, want 1", s.DogsCount())
	}
}

func TestAddDogRandomSpawnsOnARoad(t *testing.T) {
	s := New(testMap())
	dog := &Dog{ID: NextDogID()}
	s.AddDog(dog, true)

	if dog.Position.Y != 0 {
		t.Errorf("random spawn on horizontal road: Y = %v, want 0", dog.Position.Y)
	}
	if dog.Position.X < 0 || dog.Position.X > 10 {
		t.Errorf("random spawn X = %v, want within [0,10]", dog.Position.X)
	}
}

func TestDeleteDogRemovesByID(t *testing.T) {
	s := New(testMap())
	d1 := &Dog{ID: NextDogID()}
	d2 := &Dog{ID: NextDogID()}
	s.AddDog(d1, false)
	s.AddDog(d2, false)

	s.DeleteDog(d1.ID)
	if s.DogsCount() != 1 {
		t.Fatalf("DogsCount after delete = %d, want 1", s.DogsCount())
	}
	if s.Dogs[0].ID != d2.ID {
		t.Errorf("remaining dog = %d, want %d", s.Dogs[0].ID, d2.ID)
	}

	// Deleting an absent id is a no-op.
	s.DeleteDog(9999)
	if s.DogsCount() != 1 {
		t.Errorf("DogsCount after no-op delete = %d, want 1", s.DogsCount())
	}
}

func TestAddLootAndRemoveLoot(t *testing.T) {
	s := New(testMap())
	s.AddLoot()
	s.AddLoot()
	if s.LootCount() != 2 {
		t.Fatalf("LootCount = %d, want 2", s.LootCount())
	}

	firstID := s.Loot[0].ID
	s.RemoveLoot(firstID)
	if s.LootCount() != 1 {
		t.Errorf("LootCount after remove = %d, want 1", s.LootCount())
	}
	if s.Loot[0].ID == firstID {
		t.Error("removed loot id still present")
	}
}
