package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"lanewars.io/internal/persistence/snapshot"
	"lanewars.io/internal/sim/state"
	"lanewars.io/internal/sim/tuning"
)

type memTickLog struct{ entries []TickLogEntry }

func (m *memTickLog) WriteTick(e TickLogEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func TestRunner_StepFansOut(t *testing.T) {
	g, _ := newTestGame(t)
	g.StartNewGame()

	tl := &memTickLog{}
	sink := make(chan snapshot.SnapshotV1, 4)
	r := NewRunner(g, RunnerConfig{MatchID: "m1", TickLogger: tl, SnapshotSink: sink, SnapshotEveryTicks: 2})
	frames, cancel := r.Subscribe()
	defer cancel()

	var last Frame
	for i := 0; i < 4; i++ {
		last = r.Step()
	}
	if len(tl.entries) != 4 || tl.entries[3].Digest != last.Digest || tl.entries[0].MatchID != "m1" {
		t.Fatalf("tick log: %+v", tl.entries)
	}
	if len(sink) != 2 {
		t.Fatalf("snapshots: %d", len(sink))
	}
	snap := <-sink
	if snap.Header.MatchID != "m1" || snap.Header.Tick%2 != 0 || snap.State == nil {
		t.Fatalf("snapshot: %+v", snap.Header)
	}

	f := <-frames
	if f.Tick != last.Tick || f.Digest != last.Digest || len(f.Lanes) != 3 {
		t.Fatalf("frame: tick=%d lanes=%d", f.Tick, len(f.Lanes))
	}
	if f.State == g.State() {
		t.Fatalf("subscriber frame shares the published state")
	}
	if StateDigest(f.State) != last.Digest {
		t.Fatalf("frame state digest mismatch")
	}
}

func TestRunner_RunHandlesPurchases(t *testing.T) {
	cfg := tuning.Defaults()
	cfg.TickRateHz = 200
	g, err := New(cfg, Collaborators{}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	g.StartNewGame()
	tl := &memTickLog{}
	r := NewRunner(g, RunnerConfig{TickLogger: tl})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	if err := r.Purchase(ctx, 0); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if err := r.Purchase(ctx, 9); !errors.Is(err, ErrInvalidLane) {
		t.Fatalf("bad lane: %v", err)
	}
	if err := r.Submit(ctx, ApplyDamage("nobody", 1)); err != nil {
		t.Fatalf("submit: %v", err)
	}

	frames, unsub := r.Subscribe()
	defer unsub()
	deadline := time.After(3 * time.Second)
	for {
		var f Frame
		select {
		case f = <-frames:
		case <-deadline:
			t.Fatalf("no player soldier appeared")
		}
		var found bool
		for _, u := range f.State.Soldiers {
			if u.Side == state.SidePlayer && u.LaneKey == "0" {
				found = true
			}
		}
		if found {
			break
		}
	}

	r.Stop()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}

	var purchases int
	for _, e := range tl.entries {
		purchases += len(e.Purchases)
	}
	if purchases != 2 {
		t.Fatalf("journaled purchases: %d", purchases)
	}
}

func TestSendLatest_KeepsNewest(t *testing.T) {
	ch := make(chan Frame, 1)
	sendLatest(ch, Frame{Tick: 1})
	sendLatest(ch, Frame{Tick: 2})
	if f := <-ch; f.Tick != 2 {
		t.Fatalf("tick: %d", f.Tick)
	}
}

type failingTickLog struct{ calls int }

func (f *failingTickLog) WriteTick(TickLogEntry) error {
	f.calls++
	return errors.New("disk full")
}

func TestTickLoggers_WritesAllAndJoinsErrors(t *testing.T) {
	a, b := &memTickLog{}, &failingTickLog{}
	ls := TickLoggers{a, nil, b}
	if err := ls.WriteTick(TickLogEntry{Tick: 7}); err == nil {
		t.Fatalf("expected joined error")
	}
	if len(a.entries) != 1 || a.entries[0].Tick != 7 || b.calls != 1 {
		t.Fatalf("fan out: a=%d b=%d", len(a.entries), b.calls)
	}
	if err := (TickLoggers{a}).WriteTick(TickLogEntry{Tick: 8}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
