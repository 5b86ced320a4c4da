package game

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"lanewars.io/internal/persistence/snapshot"
	"lanewars.io/internal/sim/metrics"
	"lanewars.io/internal/sim/state"
	"lanewars.io/internal/sim/tuning"
)

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// TickLoggers writes each entry to every logger in order.
type TickLoggers []TickLogger

func (ls TickLoggers) WriteTick(e TickLogEntry) error {
	var errs []error
	for _, l := range ls {
		if l == nil {
			continue
		}
		if err := l.WriteTick(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type TickLogEntry struct {
	MatchID   string             `json:"match_id,omitempty"`
	Tick      uint64             `json:"tick"`
	Purchases []RecordedPurchase `json:"purchases,omitempty"`
	Commands  []Command          `json:"commands,omitempty"`
	Winner    state.Side         `json:"winner"`
	Digest    string             `json:"digest"`
}

type RecordedPurchase struct {
	Lane  int    `json:"lane"`
	Error string `json:"error,omitempty"`
}

// Frame is what observers receive after each tick. State is a private copy per frame.
type Frame struct {
	MatchID string                `json:"match_id"`
	Tick    uint64                `json:"tick"`
	State   *state.GameState      `json:"state"`
	Lanes   []metrics.LaneMetrics `json:"lanes"`
	Game    metrics.GameMetrics   `json:"game"`
	Digest  string                `json:"digest"`
}

type RunnerConfig struct {
	MatchID string

	// Optional sinks (may be nil). Snapshot writing should be off-thread.
	TickLogger         TickLogger
	SnapshotSink       chan<- snapshot.SnapshotV1
	SnapshotEveryTicks int

	Logger *log.Logger
}

type purchaseReq struct {
	lane int
	resp chan error
}

// Runner drives a Game at its tick rate. It is the only goroutine that touches the Game;
// everything else talks to it through channels.
type Runner struct {
	g   *Game
	cfg RunnerConfig
	log *log.Logger

	purchase chan purchaseReq
	commands chan Command
	stop     chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	subs    map[int]chan Frame
	nextSub int

	tickPurchases []RecordedPurchase
	tickCommands  []Command

	difficulty state.Difficulty
}

func NewRunner(g *Game, cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Runner{
		g:        g,
		cfg:      cfg,
		log:      logger,
		purchase: make(chan purchaseReq, 64),
		commands: make(chan Command, 256),
		stop:     make(chan struct{}),
		subs:     map[int]chan Frame{},

		difficulty: g.State().Difficulty,
	}
}

func (r *Runner) MatchID() string { return r.cfg.MatchID }

// Tuning is fixed for the life of the game, so it is safe to read from any goroutine.
func (r *Runner) Tuning() tuning.Tuning { return r.g.cfg }

// Difficulty is the difficulty the game had when the runner was built.
func (r *Runner) Difficulty() state.Difficulty { return r.difficulty }

func (r *Runner) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(r.g.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.stop:
			return nil
		case req := <-r.purchase:
			err := r.g.RequestPurchase(req.lane)
			rec := RecordedPurchase{Lane: req.lane}
			if err != nil {
				rec.Error = err.Error()
			}
			r.tickPurchases = append(r.tickPurchases, rec)
			req.resp <- err
		case cmd := <-r.commands:
			r.g.SubmitCommand(cmd)
			r.tickCommands = append(r.tickCommands, cmd)
		case <-ticker.C:
			r.Step()
		}
	}
}

func (r *Runner) Stop() { r.stopOnce.Do(func() { close(r.stop) }) }

// Step advances one synced tick and fans the result out. Run calls it on every tick; replays
// and tests call it directly.
func (r *Runner) Step() Frame {
	r.g.ProcessEventsAndSync()

	pub := r.g.State()
	ix := r.g.Queries()
	digest := StateDigest(pub)

	if r.cfg.TickLogger != nil {
		entry := TickLogEntry{
			MatchID:   r.cfg.MatchID,
			Tick:      pub.Tick,
			Purchases: r.tickPurchases,
			Commands:  r.tickCommands,
			Winner:    pub.Winner,
			Digest:    digest,
		}
		if err := r.cfg.TickLogger.WriteTick(entry); err != nil {
			r.log.Printf("tick log: %v", err)
		}
	}
	r.tickPurchases = nil
	r.tickCommands = nil

	if r.cfg.SnapshotSink != nil && r.cfg.SnapshotEveryTicks > 0 && pub.Tick%uint64(r.cfg.SnapshotEveryTicks) == 0 {
		snap := snapshot.New(r.cfg.MatchID, r.g.cfg, pub.Clone())
		select {
		case r.cfg.SnapshotSink <- snap:
		default:
			r.log.Printf("snapshot sink full; dropping tick=%d", pub.Tick)
		}
	}

	frame := Frame{
		MatchID: r.cfg.MatchID,
		Tick:    pub.Tick,
		State:   pub,
		Lanes:   ix.AllLaneMetrics(),
		Game:    ix.GameMetrics(),
		Digest:  digest,
	}

	r.mu.Lock()
	for _, ch := range r.subs {
		f := frame
		f.State = pub.Clone()
		sendLatest(ch, f)
	}
	r.mu.Unlock()
	return frame
}

// Purchase asks the loop to buy a soldier in lane for the player and waits for the verdict.
func (r *Runner) Purchase(ctx context.Context, lane int) error {
	req := purchaseReq{lane: lane, resp: make(chan error, 1)}
	select {
	case r.purchase <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.resp:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) Submit(ctx context.Context, cmd Command) error {
	select {
	case r.commands <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns a channel that always holds the most recent frame. Slow readers skip
// frames rather than stall the loop.
func (r *Runner) Subscribe() (<-chan Frame, func()) {
	ch := make(chan Frame, 1)
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch
	r.mu.Unlock()
	return ch, func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

func sendLatest(ch chan Frame, f Frame) {
	select {
	case ch <- f:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- f:
	default:
	}
}
