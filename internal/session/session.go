// Package session implements the live per-map game state (C4): dogs,
// lost objects, id allocation and random spawn-point selection.
package session

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
	"sync/atomic"

	"github.com/dogwalk/server/internal/mapcatalog"
)

var (
	nextDogID     int64
	nextSessionID int64
)

// NextDogID hands out the next process-global, never-reused dog id.
func NextDogID() int64 { return atomic.AddInt64(&nextDogID, 1) - 1 }

// NextSessionID hands out the next process-global session id.
func NextSessionID() int64 { return atomic.AddInt64(&nextSessionID, 1) - 1 }

// Direction is one of the four cardinal directions, or "" for stopped.
type Direction string

const (
	Left  Direction = "L"
	Right Direction = "R"
	Up    Direction = "U"
	Down  Direction = "D"
	None  Direction = ""
)

// Point is a double-precision planar coordinate.
type Point struct {
	X, Y float64
}

// Velocity is a planar velocity in units/second.
type Velocity struct {
	Vx, Vy float64
}

// BagItem is one piece of loot a dog is carrying.
type BagItem struct {
	LootID    int64
	TypeIndex int
}

// Dog is a player's avatar on a map.
type Dog struct {
	ID            int64
	Name          string
	Position      Point
	Velocity      Velocity
	Direction     Direction
	Bag           []BagItem
	Score         int
	PlayTime      float64
	StopTime      float64
	MovedThisTick bool
	Retired       bool
}

// ItemsCount mirrors spec invariant items_count == |bag|.
func (d *Dog) ItemsCount() int { return len(d.Bag) }

// SetDirection sets direction and the canonical velocity for that
// direction at the given map speed. "" stops the dog.
func (d *Dog) SetDirection(dir Direction, speed float64) {
	d.Direction = dir
	switch dir {
	case Left:
		d.Velocity = Velocity{Vx: -speed, Vy: 0}
	case Right:
		d.Velocity = Velocity{Vx: speed, Vy: 0}
	case Up:
		d.Velocity = Velocity{Vx: 0, Vy: -speed}
	case Down:
		d.Velocity = Velocity{Vx: 0, Vy: speed}
	default:
		d.Velocity = Velocity{Vx: 0, Vy: 0}
	}
	if dir != None {
		d.MovedThisTick = true
	}
}

// AddItem appends a pickup to the bag and accrues its score.
func (d *Dog) AddItem(lootID int64, typeIndex, score int) {
	d.Bag = append(d.Bag, BagItem{LootID: lootID, TypeIndex: typeIndex})
	d.Score += score
}

// EmptyBag deposits everything (score already accrued on pickup).
func (d *Dog) EmptyBag() {
	d.Bag = d.Bag[:0]
}

// LostObject is a pickup lying on a road.
type LostObject struct {
	ID        int64
	Position  Point
	TypeIndex int
}

// Session holds the live state for one map: its dogs and lost objects.
type Session struct {
	ID         int64
	Map        *mapcatalog.Map
	Dogs       []*Dog
	Loot       []*LostObject
	nextLootID int64
	rng        *mrand.Rand
}

// New creates a session for the given map.
func New(m *mapcatalog.Map) *Session {
	return &Session{
		ID:  NextSessionID(),
		Map: m,
		rng: mrand.New(mrand.NewSource(seed())),
	}
}

func seed() int64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 1
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

// DogsCount returns the number of live dogs.
func (s *Session) DogsCount() int { return len(s.Dogs) }

// LootCount returns the number of lost objects currently on the map.
func (s *Session) LootCount() int { return len(s.Loot) }

// randomCoordinate picks a uniformly random point on a uniformly random
// road, rounded to one decimal along the varying axis (§4.4).
func (s *Session) randomCoordinate() Point {
	roads := s.Map.Roads
	road := roads[s.rng.Intn(len(roads))]

	if road.Orientation == mapcatalog.Horizontal {
		x := roundTenth(randRange(s.rng, road.MinX(), road.MaxX()))
		return Point{X: x, Y: road.MinY()}
	}
	y := roundTenth(randRange(s.rng, road.MinY(), road.MaxY()))
	return Point{X: road.MinX(), Y: y}
}

func randRange(r *mrand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + r.Float64()*(hi-lo)
}

func roundTenth(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}

// AddDog places a dog on the session, at a random road point if randomize
// is true, otherwise at the start of the first road (§4.4).
func (s *Session) AddDog(dog *Dog, randomize bool) {
	if randomize {
		dog.Position = s.randomCoordinate()
	} else {
		start := s.Map.Roads[0].Start
		dog.Position = Point{X: float64(start.X), Y: float64(start.Y)}
	}
	s.Dogs = append(s.Dogs, dog)
}

// DeleteDog removes a dog from the session by id, if present.
func (s *Session) DeleteDog(dogID int64) {
	for i, d := range s.Dogs {
		if d.ID == dogID {
			s.Dogs = append(s.Dogs[:i], s.Dogs[i+1:]...)
			return
		}
	}
}

// AddLoot spawns one lost object of a uniformly random type at a
// uniformly random road point.
func (s *Session) AddLoot() {
	typeIndex := s.rng.Intn(len(s.Map.LootTypes))
	coord := s.randomCoordinate()

	obj := &LostObject{ID: s.nextLootID, Position: coord, TypeIndex: typeIndex}
	s.nextLootID++
	s.Loot = append(s.Loot, obj)
}

// RemoveLoot deletes a lost object by id, if present.
func (s *Session) RemoveLoot(lootID int64) {
	for i, o := range s.Loot {
		if o.ID == lootID {
			s.Loot = append(s.Loot[:i], s.Loot[i+1:]...)
			return
		}
	}
}
