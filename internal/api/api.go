// Package api implements the Command API (C9): the eight operations the
// HTTP transport exposes, with the exact validation and error semantics
// from §7. It knows nothing about HTTP — handlers translate apierr.Code
// into status codes and JSON envelopes.
package api

import (
	"context"
	"sort"
	"time"

	"github.com/dogwalk/server/internal/apierr"
	"github.com/dogwalk/server/internal/leaderboard"
	"github.com/dogwalk/server/internal/mapcatalog"
	"github.com/dogwalk/server/internal/players"
	"github.com/dogwalk/server/internal/scheduler"
	"github.com/dogwalk/server/internal/session"
	"github.com/dogwalk/server/internal/simulate"
)

// API is the single entry point the HTTP layer calls into.
type API struct {
	Catalog *mapcatalog.Catalog
	Game    *simulate.Game
	Board   *leaderboard.Store
	Sched   *scheduler.Scheduler
}

// JoinResult is the Join response shape.
type JoinResult struct {
	AuthToken string `json:"authToken"`
	PlayerID  int64  `json:"playerId"`
}

// Join validates the request and delegates to the simulator.
func (a *API) Join(ctx context.Context, name, mapID string) (JoinResult, error) {
	if name == "" {
		return JoinResult{}, apierr.New(apierr.InvalidArgument, "userName must not be empty")
	}
	if mapID == "" {
		return JoinResult{}, apierr.New(apierr.InvalidArgument, "mapId must not be empty")
	}

	joined, err := a.Game.Join(ctx, mapID, name)
	if err != nil {
		return JoinResult{}, translate(err)
	}
	return JoinResult{AuthToken: string(joined.Token), PlayerID: joined.DogID}, nil
}

// PlayerInfo is one entry of ListPlayers.
type PlayerInfo struct {
	Name string `json:"name"`
}

// ListPlayers returns every dog on the caller's session keyed by dog id.
func (a *API) ListPlayers(ctx context.Context, tok players.Token) (map[int64]PlayerInfo, error) {
	_, sess, err := a.Game.Resolve(ctx, tok)
	if err != nil {
		return nil, translate(err)
	}

	out := make(map[int64]PlayerInfo, len(sess.Dogs))
	for _, d := range sess.Dogs {
		out[d.ID] = PlayerInfo{Name: d.Name}
	}
	return out, nil
}

// BagEntry mirrors one item in a dog's bag.
type BagEntry struct {
	ID   int64 `json:"id"`
	Type int   `json:"type"`
}

// PlayerState is one dog's full state for GetState.
type PlayerState struct {
	Position [2]float64 `json:"pos"`
	Speed    [2]float64 `json:"speed"`
	Dir      string     `json:"dir"`
	Bag      []BagEntry `json:"bag"`
	Score    int        `json:"score"`
}

// LootState is one lost object's state for GetState.
type LootState struct {
	Type int        `json:"type"`
	Pos  [2]float64 `json:"pos"`
}

// StateResult is the GetState response shape.
type StateResult struct {
	Players     map[int64]PlayerState `json:"players"`
	LostObjects map[int64]LootState   `json:"lostObjects"`
}

// GetState snapshots the caller's session.
func (a *API) GetState(ctx context.Context, tok players.Token) (StateResult, error) {
	_, sess, err := a.Game.Resolve(ctx, tok)
	if err != nil {
		return StateResult{}, translate(err)
	}

	out := StateResult{
		Players:     make(map[int64]PlayerState, len(sess.Dogs)),
		LostObjects: make(map[int64]LootState, len(sess.Loot)),
	}
	for _, d := range sess.Dogs {
		bag := make([]BagEntry, 0, len(d.Bag))
		for _, item := range d.Bag {
			bag = append(bag, BagEntry{ID: item.LootID, Type: item.TypeIndex})
		}
		out.Players[d.ID] = PlayerState{
			Position: [2]float64{d.Position.X, d.Position.Y},
			Speed:    [2]float64{d.Velocity.Vx, d.Velocity.Vy},
			Dir:      string(d.Direction),
			Bag:      bag,
			Score:    d.Score,
		}
	}
	for _, o := range sess.Loot {
		out.LostObjects[o.ID] = LootState{
			Type: o.TypeIndex,
			Pos:  [2]float64{o.Position.X, o.Position.Y},
		}
	}
	return out, nil
}

// validDirections is the set of accepted "move" values, "" included to
// mean "stop" (§4.9).
var validDirections = map[string]session.Direction{
	"L": session.Left, "R": session.Right, "U": session.Up, "D": session.Down, "": session.None,
}

// Move validates the requested direction and applies it.
func (a *API) Move(ctx context.Context, tok players.Token, dir string) error {
	d, ok := validDirections[dir]
	if !ok {
		return apierr.New(apierr.InvalidArgument, "move must be one of L, R, U, D, or empty")
	}

	if _, _, err := a.Game.Resolve(ctx, tok); err != nil {
		return translate(err)
	}
	return a.Game.SetDirection(ctx, tok, d)
}

// Tick runs one manual simulation step. Rejected with badRequest when the
// scheduler is running in auto mode (§6.2).
func (a *API) Tick(ctx context.Context, deltaMs int) error {
	if a.Sched != nil && a.Sched.Auto() {
		return apierr.New(apierr.BadRequest, "tick is disabled while the server auto-ticks")
	}
	if deltaMs < 0 {
		return apierr.New(apierr.InvalidArgument, "timeDelta must not be negative")
	}
	return a.Game.Tick(ctx, time.Duration(deltaMs)*time.Millisecond)
}

// RecordEntry is one row of the Records response.
type RecordEntry struct {
	Name     string  `json:"name"`
	Score    int     `json:"score"`
	PlayTime float64 `json:"playTime"`
}

// Records returns the all-time leaderboard page.
func (a *API) Records(ctx context.Context, start, maxItems int) ([]RecordEntry, error) {
	if maxItems > leaderboard.MaxItems() {
		return nil, apierr.New(apierr.BadRequest, "maxItems exceeds the allowed maximum")
	}

	rows, err := a.Board.List(ctx, start, maxItems)
	if err != nil {
		return nil, err
	}

	out := make([]RecordEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, RecordEntry{Name: r.Name, Score: r.Score, PlayTime: r.PlayTime})
	}
	return out, nil
}

// MapSummary is one entry of ListMaps.
type MapSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListMaps returns every configured map's id and name.
func (a *API) ListMaps() []MapSummary {
	maps := a.Catalog.ListMaps()
	out := make([]MapSummary, 0, len(maps))
	for _, m := range maps {
		out = append(out, MapSummary{ID: m.ID, Name: m.Name})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetMap returns a single map's raw configuration, for echoing back.
func (a *API) GetMap(id string) (*mapcatalog.Map, error) {
	m, ok := a.Catalog.FindMap(id)
	if !ok {
		return nil, apierr.New(apierr.MapNotFound, "map not found")
	}
	return m, nil
}

// translate maps internal errors onto the client-facing vocabulary,
// defaulting to an opaque badRequest when the error carries no code
// (internal errors never leak detail, §7).
func translate(err error) error {
	if apiErr, ok := err.(*apierr.Error); ok {
		return apiErr
	}
	return apierr.New(apierr.BadRequest, "request could not be completed")
}
