// Package game runs the simulation: it owns the private world state, fires queued events once
// per tick and publishes an independent snapshot after every completed tick.
package game

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"

	"lanewars.io/internal/sim/enemyai"
	"lanewars.io/internal/sim/events"
	"lanewars.io/internal/sim/lanemap"
	"lanewars.io/internal/sim/physics"
	"lanewars.io/internal/sim/queries"
	"lanewars.io/internal/sim/state"
	"lanewars.io/internal/sim/tuning"
)

var (
	ErrInvalidLane   = errors.New("invalid lane")
	ErrNoResources   = errors.New("no resources")
	ErrBaseDestroyed = errors.New("base destroyed")
	ErrGameOver      = errors.New("game over")
)

type Game struct {
	cfg   tuning.Tuning
	field lanemap.Map
	col   Collaborators
	log   *log.Logger
	rng   *rand.Rand
	ai    enemyai.Policy
	phys  physics.Resolver

	difficulty state.Difficulty

	priv     *state.GameState
	privIx   *queries.Index
	pending  []events.Event
	commands []Command

	pub   *state.GameState
	pubIx *queries.Index
}

func New(cfg tuning.Tuning, col Collaborators, logger *log.Logger) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("game: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	field := lanemap.New(cfg)
	g := &Game{
		cfg:        cfg,
		field:      field,
		col:        col.withDefaults(),
		log:        logger,
		rng:        rand.New(rand.NewSource(cfg.Seed)),
		ai:         enemyai.New(cfg.EnemyAI),
		phys:       physics.New(field, cfg.Soldier.Radius, cfg.BarrierPadding),
		difficulty: state.Easy,
		privIx:     queries.New(cfg.Lanes, cfg.Turret.Health),
	}
	g.priv = state.New(g.difficulty, cfg.StartingResources)
	g.publish()
	return g, nil
}

func (g *Game) Tuning() tuning.Tuning { return g.cfg }
func (g *Game) Map() lanemap.Map      { return g.field }

// SetDifficulty applies to the next StartNewGame.
func (g *Game) SetDifficulty(d state.Difficulty) { g.difficulty = d }

// StartNewGame resets to a fresh world at the stored difficulty, lays out the map and
// announces the start.
func (g *Game) StartNewGame() {
	g.LoadFromStateAndSync(state.New(g.difficulty, g.cfg.StartingResources))
	g.PushEvents(g.field.SpawnEvents())
	g.PushEvent(events.GameStart())
	g.ProcessEventsAndSync()
}

// LoadFromState replaces the private state wholesale, drops pending events and commands,
// then runs one tick. The caller must not keep using s.
func (g *Game) LoadFromState(s *state.GameState) {
	g.reset(s)
	g.ProcessEvents()
}

func (g *Game) LoadFromStateAndSync(s *state.GameState) {
	g.reset(s)
	g.ProcessEventsAndSync()
}

func (g *Game) reset(s *state.GameState) {
	if s == nil {
		s = state.New(g.difficulty, g.cfg.StartingResources)
	}
	s.SyncNextID()
	g.priv = s
	g.pending = nil
	g.commands = nil
	g.privIx.RebuildLookups(g.priv)
}

func (g *Game) PushEvent(e events.Event) { g.pending = append(g.pending, e) }

func (g *Game) PushEvents(es []events.Event) { g.pending = append(g.pending, es...) }

// Pending reports how many events are queued.
func (g *Game) Pending() int { return len(g.pending) }

// ProcessEvents runs one tick without the behaviour/command phase.
func (g *Game) ProcessEvents() { g.tick(false) }

// ProcessEventsAndSync runs one full tick: events, unit commands, behaviours.
func (g *Game) ProcessEventsAndSync() { g.tick(true) }

// State returns the last published snapshot. Callers may mutate it freely; the simulation
// never reads it back.
func (g *Game) State() *state.GameState { return g.pub }

// Queries returns the index built over State().
func (g *Game) Queries() *queries.Index { return g.pubIx }

func (g *Game) tick(sync bool) {
	dt := g.cfg.TickSeconds()

	due := g.pending
	g.pending = nil
	var kept []events.Event
	for _, e := range due {
		if e.FireDelay <= 0 {
			g.fireEvent(e)
			continue
		}
		e.FireDelay -= dt
		kept = append(kept, e)
	}
	// Anything pushed while firing waits for the next tick, behind the retained events.
	g.pending = append(kept, g.pending...)

	if sync {
		g.privIx.RebuildLookups(g.priv)
		g.applyCommands()
		g.runBehaviours(dt)
	}

	g.privIx.RebuildLookups(g.priv)
	g.phys.Resolve(g.privIx)
	g.privIx.RecomputeMetrics()

	g.priv.Tick++
	g.publish()
}

func (g *Game) publish() {
	g.pub = g.priv.Clone()
	ix := queries.New(g.cfg.Lanes, g.cfg.Turret.Health)
	ix.RebuildLookups(g.pub)
	g.pubIx = ix
}

// RequestPurchase queues a soldier for the player in lane if the player can afford it and
// still holds a base there.
func (g *Game) RequestPurchase(lane int) error {
	if lane < 0 || lane >= g.cfg.Lanes {
		return fmt.Errorf("lane %d: %w", lane, ErrInvalidLane)
	}
	if g.priv.Winner != state.SideNeutral {
		return ErrGameOver
	}
	if g.priv.PlayerResources <= 0 {
		return ErrNoResources
	}
	if g.privIx.LaneMetrics(state.LaneKey(lane)).PlayerBaseHealthPercentage <= 0 {
		return fmt.Errorf("lane %d: %w", lane, ErrBaseDestroyed)
	}
	g.PushEvent(events.Purchase(state.SidePlayer, lane))
	return nil
}

// radialSpread is a uniform random point in the unit disc.
func (g *Game) radialSpread() state.Vec2 {
	angle := g.rng.Float64() * 360
	return state.FromAngle(angle).Scale(math.Sqrt(g.rng.Float64()))
}
