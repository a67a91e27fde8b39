package simulate

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dogwalk/server/internal/collision"
	"github.com/dogwalk/server/internal/lootgen"
	"github.com/dogwalk/server/internal/mapcatalog"
	"github.com/dogwalk/server/internal/metrics"
	"github.com/dogwalk/server/internal/players"
	"github.com/dogwalk/server/internal/session"
)

const officeWidth = 0.25
const dogWidth = 0.3
const lootWidth = 0.0

// RetirementSink is notified, on the strand, whenever a dog accrues enough
// continuous stop time to retire (§4.6 step 2). Implementations persist
// the result; see internal/leaderboard for the Postgres-backed one.
type RetirementSink interface {
	Retire(ctx context.Context, name string, score int, playTime float64) error
}

// Game owns the whole mutable world: the map catalog, one session per map
// (created lazily on first join), and the player/token registry. Every
// mutation happens on its Strand, so Game itself needs no locks.
type Game struct {
	catalog  *mapcatalog.Catalog
	strand   *Strand
	sink     RetirementSink
	randomSp bool

	sessions map[string]*session.Session
	lootGens map[string]*lootgen.Generator
	registry *players.Registry
}

// NewGame wires a catalog and retirement sink into a running world. If
// randomizeSpawn is true, new dogs spawn at a random road point; otherwise
// they all start at the first road's start point (matches the original's
// --randomize-spawn-points flag, §4.4).
func NewGame(catalog *mapcatalog.Catalog, sink RetirementSink, randomizeSpawn bool) *Game {
	return &Game{
		catalog:  catalog,
		strand:   NewStrand(),
		sink:     sink,
		randomSp: randomizeSpawn,
		sessions: make(map[string]*session.Session),
		lootGens: make(map[string]*lootgen.Generator),
		registry: players.New(),
	}
}

// Close stops the strand goroutine.
func (g *Game) Close() { g.strand.Close() }

// Joined is the result of a successful join.
type Joined struct {
	Token   players.Token
	DogID   int64
	Session *session.Session
}

// Join creates (or reuses) the session for mapID, spawns a new dog named
// name, and mints a bearer token for it. Runs on the strand.
func (g *Game) Join(ctx context.Context, mapID, name string) (Joined, error) {
	var out Joined
	var joinErr error

	err := g.strand.Submit(ctx, func() {
		m, ok := g.catalog.FindMap(mapID)
		if !ok {
			joinErr = ErrMapNotFound
			return
		}

		sess, ok := g.sessions[mapID]
		if !ok {
			sess = session.New(m)
			g.sessions[mapID] = sess
			g.lootGens[mapID] = lootgen.New(
				time.Duration(g.catalog.LootPeriodSecs*float64(time.Second)),
				g.catalog.LootProbability,
			)
		}

		dog := &session.Dog{ID: session.NextDogID(), Name: name}
		sess.AddDog(dog, g.randomSp)

		tok, err := g.registry.Add(players.Player{SessionID: sess.ID, DogID: dog.ID})
		if err != nil {
			joinErr = err
			sess.DeleteDog(dog.ID)
			return
		}

		out = Joined{Token: tok, DogID: dog.ID, Session: sess}
	})
	if err != nil {
		return Joined{}, err
	}
	return out, joinErr
}

// Resolve looks up the player and its owning session for a token. Runs on
// the strand so the returned pointers are safe to read for the duration
// of the caller's own strand-submitted work, but callers that only need a
// snapshot should copy what they need before returning.
func (g *Game) Resolve(ctx context.Context, tok players.Token) (players.Player, *session.Session, error) {
	var p players.Player
	var sess *session.Session
	var resolveErr error

	err := g.strand.Submit(ctx, func() {
		found, ok := g.registry.Find(tok)
		if !ok {
			resolveErr = ErrUnknownToken
			return
		}
		p = found
		for _, s := range g.sessions {
			if s.ID == p.SessionID {
				sess = s
				break
			}
		}
		if sess == nil {
			resolveErr = ErrUnknownToken
		}
	})
	if err != nil {
		return players.Player{}, nil, err
	}
	return p, sess, resolveErr
}

// SetDirection changes a dog's heading, on the strand.
func (g *Game) SetDirection(ctx context.Context, tok players.Token, dir session.Direction) error {
	return g.strand.Submit(ctx, func() {
		p, ok := g.registry.Find(tok)
		if !ok {
			return
		}
		sess := g.sessionByID(p.SessionID)
		if sess == nil {
			return
		}
		for _, d := range sess.Dogs {
			if d.ID == p.DogID {
				d.SetDirection(dir, sess.Map.DogSpeed)
				return
			}
		}
	})
}

func (g *Game) sessionByID(id int64) *session.Session {
	for _, s := range g.sessions {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Sessions returns every live session, for read-only reporting (state
// dumps, player listings). Safe to call off-strand: callers must not
// mutate the returned sessions.
func (g *Game) Sessions(ctx context.Context) ([]*session.Session, error) {
	var out []*session.Session
	err := g.strand.Submit(ctx, func() {
		for _, s := range g.sessions {
			out = append(out, s)
		}
	})
	return out, err
}

// Tick advances every live session by delta, running each session's
// update independently via errgroup (sessions never touch each other's
// state) but the whole call is itself one strand job, so it never
// interleaves with a Join/Move/Resolve (§5).
func (g *Game) Tick(ctx context.Context, delta time.Duration) error {
	return g.strand.Submit(ctx, func() {
		start := time.Now()
		grp, _ := errgroup.WithContext(ctx)
		for mapID, sess := range g.sessions {
			sess := sess
			gen := g.lootGens[mapID]
			grp.Go(func() error {
				g.tickSession(ctx, sess, gen, delta)
				return nil
			})
		}
		_ = grp.Wait()

		var dogs, loot int
		for _, sess := range g.sessions {
			dogs += sess.DogsCount()
			loot += sess.LootCount()
		}
		metrics.ActiveSessions.Set(float64(len(g.sessions)))
		metrics.ActiveDogs.Set(float64(dogs))
		metrics.LootOnMap.Set(float64(loot))
		metrics.TickDuration.Observe(time.Since(start).Seconds())
	})
}

// tickSession runs the four-step per-tick pipeline from §4.6: move dogs
// (clamped to roads), check retirement, spawn loot, resolve collisions
// (pickup / deposit).
func (g *Game) tickSession(ctx context.Context, sess *session.Session, gen *lootgen.Generator, delta time.Duration) {
	gatherers := make([]collision.Gatherer, 0, len(sess.Dogs))

	var retiring []*session.Dog
	for _, dog := range sess.Dogs {
		start := dog.Position
		moveDog(dog, sess.Map, delta)
		gatherers = append(gatherers, collision.Gatherer{
			ID:    int(dog.ID),
			Start: collision.Point2D{X: start.X, Y: start.Y},
			End:   collision.Point2D{X: dog.Position.X, Y: dog.Position.Y},
			Width: dogWidth,
		})

		if checkRetirement(dog, delta, g.catalog.RetirementTime) {
			retiring = append(retiring, dog)
		}
	}

	for _, dog := range retiring {
		g.retireDog(ctx, sess, dog)
	}

	if gen != nil {
		n := gen.Generate(delta, sess.LootCount(), sess.DogsCount())
		for i := 0; i < n; i++ {
			sess.AddLoot()
		}
	}

	resolveCollisions(sess, gatherers)
}

// moveDog implements the original CalcNewPos algorithm: the dog's
// unclamped next position is computed from its velocity, then clamped
// against every road within road-width tolerance, widening the allowed
// range road by road (a dog on an intersection may move along either
// road). If the dog doesn't move at all, its velocity is zeroed, exactly
// matching the "bump into a wall" behavior of the original engine.
func moveDog(dog *session.Dog, m *mapcatalog.Map, delta time.Duration) {
	const roadWidth = 0.4
	dt := delta.Seconds()

	curX, curY := dog.Position.X, dog.Position.Y
	wantX := curX + dog.Velocity.Vx*dt
	wantY := curY + dog.Velocity.Vy*dt

	newX, newY := curX, curY

	for _, road := range m.Roads {
		minX, maxX := road.MinX(), road.MaxX()
		minY, maxY := road.MinY(), road.MaxY()

		if !((minX-roadWidth) <= curX && (maxX+roadWidth) >= curX &&
			(minY-roadWidth) <= curY && (maxY+roadWidth) >= curY) {
			continue
		}

		switch {
		case dog.Velocity.Vx > 0:
			limit := maxX + roadWidth
			if road.Orientation != mapcatalog.Horizontal {
				limit = minX + roadWidth
			}
			candidate := wantX
			if candidate > limit {
				candidate = limit
			}
			if candidate > newX {
				newX = candidate
			}
		case dog.Velocity.Vx < 0:
			limit := minX - roadWidth
			candidate := wantX
			if candidate < limit {
				candidate = limit
			}
			if candidate < newX {
				newX = candidate
			}
		case dog.Velocity.Vy > 0:
			limit := minY + roadWidth
			if road.Orientation != mapcatalog.Horizontal {
				limit = maxY + roadWidth
			}
			candidate := wantY
			if candidate > limit {
				candidate = limit
			}
			if candidate > newY {
				newY = candidate
			}
		case dog.Velocity.Vy < 0:
			limit := minY - roadWidth
			candidate := wantY
			if candidate < limit {
				candidate = limit
			}
			if candidate < newY {
				newY = candidate
			}
		}
	}

	if newX == curX && newY == curY {
		dog.Velocity = session.Velocity{}
	}
	dog.Position = session.Point{X: newX, Y: newY}
}

// checkRetirement mirrors Dog::AddPlayTime / CheckPlayerDisconnect: play
// time always accrues; stop time accrues only while the dog has zero
// velocity and received no L/R/U/D direction command this tick (a stop
// command does not count as one), and resets otherwise. It reports whether the dog has now
// accumulated enough stop time to retire.
func checkRetirement(dog *session.Dog, delta time.Duration, retirementSec float64) bool {
	dt := delta.Seconds()
	dog.PlayTime += dt

	stationary := !dog.MovedThisTick && dog.Velocity.Vx == 0 && dog.Velocity.Vy == 0
	if stationary {
		dog.StopTime += dt
	} else {
		dog.StopTime = 0
	}
	dog.MovedThisTick = false

	return dog.StopTime >= retirementSec
}

// retireDog persists the dog's result, then removes it from the session
// and revokes its token. If persistence fails the dog is left exactly as
// it was so the next tick retries (§7 durability ordering).
func (g *Game) retireDog(ctx context.Context, sess *session.Session, dog *session.Dog) {
	if g.sink != nil {
		if err := g.sink.Retire(ctx, dog.Name, dog.Score, dog.PlayTime); err != nil {
			return
		}
	}
	sess.DeleteDog(dog.ID)
	g.registry.RevokeByDogID(dog.ID)
	metrics.PlayersRetired.Inc()
}

// resolveCollisions builds the item list (lost objects width 0, offices
// width 0.25), finds gather events in time order, picks up each lost
// object at most once, and empties the bag on every office event. Loot is
// told from offices by "is_lost_item = item_id < |LostObjects|" (the
// original's `item_id < events.size()` was a bug; this fixes it, per §9).
func resolveCollisions(sess *session.Session, gatherers []collision.Gatherer) {
	if len(gatherers) == 0 {
		return
	}

	lootCount := len(sess.Loot)
	items := make([]collision.Item, 0, lootCount+len(sess.Map.Offices))
	for i, obj := range sess.Loot {
		items = append(items, collision.Item{ID: i, Position: collision.Point2D{X: obj.Position.X, Y: obj.Position.Y}, Width: lootWidth})
	}
	for i, off := range sess.Map.Offices {
		items = append(items, collision.Item{ID: lootCount + i, Position: collision.Point2D{X: float64(off.X), Y: float64(off.Y)}, Width: officeWidth})
	}

	events := collision.FindEvents(gatherers, items)

	dogByID := make(map[int64]*session.Dog, len(sess.Dogs))
	for _, d := range sess.Dogs {
		dogByID[int64(d.ID)] = d
	}

	used := make(map[int]bool)
	var pickedUp []int64 // loot ids to remove from the session, in order

	for _, ev := range events {
		dog := dogByID[int64(ev.GathererID)]
		if dog == nil {
			continue
		}

		isLostItem := ev.ItemID < lootCount
		if isLostItem {
			if used[ev.ItemID] || dog.ItemsCount() >= sess.Map.BagCapacity {
				continue
			}
			obj := sess.Loot[ev.ItemID]
			dog.AddItem(obj.ID, obj.TypeIndex, sess.Map.ScoreOf(obj.TypeIndex))
			used[ev.ItemID] = true
			pickedUp = append(pickedUp, obj.ID)
			continue
		}

		dog.EmptyBag()
	}

	for _, id := range pickedUp {
		sess.RemoveLoot(id)
	}
}
