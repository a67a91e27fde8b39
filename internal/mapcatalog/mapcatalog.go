// Package mapcatalog loads and serves the immutable map configuration.
package mapcatalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

const (
	defaultDogSpeed      = 1.0
	defaultBagCapacity   = 3
	defaultRetirementSec = 60.0
	roadWidth            = 0.4
)

// Orientation of a road segment.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

// Point is an integer map coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Road is an axis-aligned segment. Start and End are kept in config order
// (End may lie before Start on its axis); MinX/MaxX/MinY/MaxY give the
// ordered bounds.
type Road struct {
	Start       Point
	End         Point
	Orientation Orientation
}

// MinX, MaxX, MinY, MaxY return the road's bounding coordinates.
func (r Road) MinX() float64 { return float64(min(r.Start.X, r.End.X)) }
func (r Road) MaxX() float64 { return float64(max(r.Start.X, r.End.X)) }
func (r Road) MinY() float64 { return float64(min(r.Start.Y, r.End.Y)) }
func (r Road) MaxY() float64 { return float64(max(r.Start.Y, r.End.Y)) }

// Contains reports whether (x,y) lies within the road's rectangle expanded
// by roadWidth on every side.
func (r Road) Contains(x, y float64) bool {
	return r.MinX()-roadWidth <= x && x <= r.MaxX()+roadWidth &&
		r.MinY()-roadWidth <= y && y <= r.MaxY()+roadWidth
}

// Building is a visual-only obstacle; the simulator never collides with it.
type Building struct {
	Position Point
	Width    int
	Height   int
}

// Office is a base where dogs deposit their bag.
type Office struct {
	ID      string
	X, Y    int
	OffsetX int
	OffsetY int
}

// LootType describes one kind of pickup and its score value.
type LootType struct {
	Raw   json.RawMessage // full original JSON, echoed back verbatim by GET /maps/{id}
	Value int
}

// Map is the immutable, parsed configuration for one map.
type Map struct {
	ID          string
	Name        string
	Roads       []Road
	Buildings   []Building
	Offices     []Office
	LootTypes   []LootType
	DogSpeed    float64
	BagCapacity int
	RawConfig   json.RawMessage // full map object as loaded, for GET /maps/{id}
}

// ScoreOf returns the score awarded for loot type index i.
func (m *Map) ScoreOf(typeIndex int) int {
	if typeIndex < 0 || typeIndex >= len(m.LootTypes) {
		return 0
	}
	return m.LootTypes[typeIndex].Value
}

// Catalog is the read-only, process-lifetime set of loaded maps.
type Catalog struct {
	maps     []*Map
	byID     map[string]*Map
	RetirementTime  float64
	LootPeriodSecs  float64
	LootProbability float64
}

type rawRoad struct {
	X0 int  `json:"x0"`
	Y0 int  `json:"y0"`
	X1 *int `json:"x1,omitempty"`
	Y1 *int `json:"y1,omitempty"`
}

type rawOffice struct {
	ID      string `json:"id"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	OffsetX int    `json:"offsetX"`
	OffsetY int    `json:"offsetY"`
}

type rawLootType struct {
	Value int `json:"value"`
}

type rawMap struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	DogSpeed    *float64          `json:"dogSpeed,omitempty"`
	BagCapacity *int              `json:"bagCapacity,omitempty"`
	Roads       []rawRoad         `json:"roads"`
	Buildings   json.RawMessage   `json:"buildings,omitempty"`
	Offices     []rawOffice       `json:"offices"`
	LootTypes   []json.RawMessage `json:"lootTypes"`
}

type rawLootGeneratorConfig struct {
	Period      float64 `json:"period"`
	Probability float64 `json:"probability"`
}

type rawConfig struct {
	DefaultDogSpeed     *float64               `json:"defaultDogSpeed,omitempty"`
	DefaultBagCapacity  *int                   `json:"defaultBagCapacity,omitempty"`
	DogRetirementTime   *float64               `json:"dogRetirementTime,omitempty"`
	LootGeneratorConfig rawLootGeneratorConfig `json:"lootGeneratorConfig"`
	Maps                []json.RawMessage      `json:"maps"`
}

// Load parses a map-configuration JSON file from path once at startup.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mapcatalog: read config: %w", err)
	}

	var cfg rawConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("mapcatalog: parse config: %w", err)
	}

	dogSpeed := defaultDogSpeed
	if cfg.DefaultDogSpeed != nil {
		dogSpeed = *cfg.DefaultDogSpeed
	}
	bagCapacity := defaultBagCapacity
	if cfg.DefaultBagCapacity != nil {
		bagCapacity = *cfg.DefaultBagCapacity
	}
	retirement := defaultRetirementSec
	if cfg.DogRetirementTime != nil {
		retirement = *cfg.DogRetirementTime
	}

	cat := &Catalog{
		byID:            make(map[string]*Map),
		RetirementTime:  retirement,
		LootPeriodSecs:  cfg.LootGeneratorConfig.Period,
		LootProbability: cfg.LootGeneratorConfig.Probability,
	}

	for _, rawMapMsg := range cfg.Maps {
		var rm rawMap
		if err := json.Unmarshal(rawMapMsg, &rm); err != nil {
			return nil, fmt.Errorf("mapcatalog: parse map: %w", err)
		}
		m, err := buildMap(rm, dogSpeed, bagCapacity)
		if err != nil {
			return nil, err
		}
		m.RawConfig = rawMapMsg
		if _, exists := cat.byID[m.ID]; exists {
			return nil, fmt.Errorf("mapcatalog: duplicate map id %q", m.ID)
		}
		cat.maps = append(cat.maps, m)
		cat.byID[m.ID] = m
	}

	return cat, nil
}

func buildMap(rm rawMap, defaultSpeed float64, defaultBag int) (*Map, error) {
	m := &Map{
		ID:          rm.ID,
		Name:        rm.Name,
		DogSpeed:    defaultSpeed,
		BagCapacity: defaultBag,
	}
	if rm.DogSpeed != nil {
		m.DogSpeed = *rm.DogSpeed
	}
	if rm.BagCapacity != nil {
		m.BagCapacity = *rm.BagCapacity
	}

	for _, rr := range rm.Roads {
		road := Road{Start: Point{X: rr.X0, Y: rr.Y0}}
		switch {
		case rr.X1 != nil:
			road.End = Point{X: *rr.X1, Y: rr.Y0}
			road.Orientation = Horizontal
		case rr.Y1 != nil:
			road.End = Point{X: rr.X0, Y: *rr.Y1}
			road.Orientation = Vertical
		default:
			return nil, fmt.Errorf("mapcatalog: road in map %q has neither x1 nor y1", rm.ID)
		}
		m.Roads = append(m.Roads, road)
	}
	// Determinism: sort so clamp evaluation order does not depend on file order (§9).
	sort.SliceStable(m.Roads, func(i, j int) bool {
		a, b := m.Roads[i], m.Roads[j]
		if a.MinX() != b.MinX() {
			return a.MinX() < b.MinX()
		}
		if a.MinY() != b.MinY() {
			return a.MinY() < b.MinY()
		}
		return a.Orientation < b.Orientation
	})

	for _, ro := range rm.Offices {
		m.Offices = append(m.Offices, Office{
			ID: ro.ID, X: ro.X, Y: ro.Y, OffsetX: ro.OffsetX, OffsetY: ro.OffsetY,
		})
	}

	for _, raw := range rm.LootTypes {
		var lt rawLootType
		if err := json.Unmarshal(raw, &lt); err != nil {
			return nil, fmt.Errorf("mapcatalog: parse lootType in map %q: %w", rm.ID, err)
		}
		m.LootTypes = append(m.LootTypes, LootType{Raw: raw, Value: lt.Value})
	}

	return m, nil
}

// FindMap looks up a map by id.
func (c *Catalog) FindMap(id string) (*Map, bool) {
	m, ok := c.byID[id]
	return m, ok
}

// ListMaps returns all maps in load order.
func (c *Catalog) ListMaps() []*Map {
	return c.maps
}
