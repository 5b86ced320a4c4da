package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"lanewars.io/internal/sim/game"
	"lanewars.io/internal/sim/state"
)

// latestFrame keeps the newest published frame for the HTTP handlers.
type latestFrame struct {
	mu sync.Mutex
	f  game.Frame
	ok bool
}

func (l *latestFrame) Set(f game.Frame) {
	l.mu.Lock()
	l.f, l.ok = f, true
	l.mu.Unlock()
}

func (l *latestFrame) Get() (game.Frame, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f, l.ok
}

type frameRecorder interface {
	RecordFrame(f game.Frame)
	EndMatch(matchID string, tick uint64, winner string)
}

// recordFrames drains the runner feed until ctx ends or the channel closes. Lane metrics go to
// rec every `every` frames, and the first frame with a winner ends the match and is passed to
// onEnd.
func recordFrames(ctx context.Context, frames <-chan game.Frame, latest *latestFrame, rec frameRecorder, every int, onEnd func(game.Frame), logger *log.Logger) {
	if every <= 0 {
		every = 1
	}
	var n int
	var ended bool
	for {
		var f game.Frame
		var ok bool
		select {
		case <-ctx.Done():
			return
		case f, ok = <-frames:
			if !ok {
				return
			}
		}
		latest.Set(f)
		if rec != nil && n%every == 0 {
			rec.RecordFrame(f)
		}
		n++
		if ended || f.State == nil || f.State.Winner == state.SideNeutral {
			continue
		}
		ended = true
		logger.Printf("match=%s ended tick=%d winner=%s", f.MatchID, f.Tick, f.State.Winner)
		if rec != nil {
			rec.RecordFrame(f)
			rec.EndMatch(f.MatchID, f.Tick, f.State.Winner.String())
		}
		if onEnd != nil {
			onEnd(f)
		}
	}
}

func writeMetrics(w io.Writer, f game.Frame) {
	fmt.Fprintf(w, "# HELP lanewars_tick Current simulation tick.\n")
	fmt.Fprintf(w, "# TYPE lanewars_tick gauge\n")
	fmt.Fprintf(w, "lanewars_tick{match=%q} %d\n", f.MatchID, f.Tick)

	if f.State != nil {
		s := f.State
		fmt.Fprintf(w, "# HELP lanewars_resources Money held by each side.\n")
		fmt.Fprintf(w, "# TYPE lanewars_resources gauge\n")
		fmt.Fprintf(w, "lanewars_resources{match=%q,side=%q} %d\n", f.MatchID, "PLAYER", s.PlayerResources)
		fmt.Fprintf(w, "lanewars_resources{match=%q,side=%q} %d\n", f.MatchID, "ENEMY", s.EnemyResources)

		fmt.Fprintf(w, "# HELP lanewars_units Live units by type.\n")
		fmt.Fprintf(w, "# TYPE lanewars_units gauge\n")
		fmt.Fprintf(w, "lanewars_units{match=%q,type=%q} %d\n", f.MatchID, "SOLDIER", len(s.Soldiers))
		fmt.Fprintf(w, "lanewars_units{match=%q,type=%q} %d\n", f.MatchID, "TURRET", len(s.Turrets))
		fmt.Fprintf(w, "lanewars_units{match=%q,type=%q} %d\n", f.MatchID, "CONTROL_POINT", len(s.ControlPoints))
	}

	fmt.Fprintf(w, "# HELP lanewars_lane_units Soldiers per lane and side.\n")
	fmt.Fprintf(w, "# TYPE lanewars_lane_units gauge\n")
	for lane, m := range f.Lanes {
		fmt.Fprintf(w, "lanewars_lane_units{match=%q,lane=\"%d\",side=%q} %d\n", f.MatchID, lane, "PLAYER", m.PlayerUnits)
		fmt.Fprintf(w, "lanewars_lane_units{match=%q,lane=\"%d\",side=%q} %d\n", f.MatchID, lane, "ENEMY", m.EnemyUnits)
	}
	fmt.Fprintf(w, "# HELP lanewars_base_health Base health fraction (0..1).\n")
	fmt.Fprintf(w, "# TYPE lanewars_base_health gauge\n")
	for lane, m := range f.Lanes {
		fmt.Fprintf(w, "lanewars_base_health{match=%q,lane=\"%d\",side=%q} %.6f\n", f.MatchID, lane, "PLAYER", m.PlayerBaseHealthPercentage)
		fmt.Fprintf(w, "lanewars_base_health{match=%q,lane=\"%d\",side=%q} %.6f\n", f.MatchID, lane, "ENEMY", m.EnemyBaseHealthPercentage)
	}
	fmt.Fprintf(w, "# HELP lanewars_income Income per production cycle.\n")
	fmt.Fprintf(w, "# TYPE lanewars_income gauge\n")
	fmt.Fprintf(w, "lanewars_income{match=%q,side=%q} %d\n", f.MatchID, "PLAYER", f.Game.PlayerIncome)
	fmt.Fprintf(w, "lanewars_income{match=%q,side=%q} %d\n", f.MatchID, "ENEMY", f.Game.EnemyIncome)
}

func latestSnapshot(dir string) string {
	dir = filepath.Join(dir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		tick, err := strconv.ParseUint(strings.TrimSuffix(name, ".snap.zst"), 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}
