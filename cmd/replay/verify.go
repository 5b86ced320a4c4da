package main

import (
	"fmt"

	"lanewars.io/internal/persistence/snapshot"
	"lanewars.io/internal/sim/game"
)

// stepSnapshot loads snap into g and reports the digest after each of n further ticks. The
// loading tick itself is the first line.
func stepSnapshot(g *game.Game, snap snapshot.SnapshotV1, n int) []string {
	g.LoadFromStateAndSync(snap.State.Clone())
	out := []string{fmt.Sprintf("tick=%d digest=%s", g.State().Tick, game.StateDigest(g.State()))}
	for i := 0; i < n; i++ {
		g.ProcessEventsAndSync()
		out = append(out, fmt.Sprintf("tick=%d digest=%s", g.State().Tick, game.StateDigest(g.State())))
	}
	return out
}

// verifyJournal starts a fresh game on g and replays each journaled tick: recorded purchases
// and commands are re-applied, then the tick is stepped and its digest compared.
func verifyJournal(g *game.Game, entries []game.TickLogEntry, toTick uint64) (int, error) {
	g.StartNewGame()
	var checked int
	for _, e := range entries {
		if toTick != 0 && e.Tick > toTick {
			break
		}
		for _, p := range e.Purchases {
			err := g.RequestPurchase(p.Lane)
			got := ""
			if err != nil {
				got = err.Error()
			}
			if got != p.Error {
				return checked, fmt.Errorf("tick %d: purchase lane %d: got error %q want %q", e.Tick, p.Lane, got, p.Error)
			}
		}
		for _, c := range e.Commands {
			g.SubmitCommand(c)
		}
		g.ProcessEventsAndSync()

		tick := g.State().Tick
		if tick != e.Tick {
			return checked, fmt.Errorf("tick mismatch: stepped=%d entry=%d", tick, e.Tick)
		}
		if got := game.StateDigest(g.State()); got != e.Digest {
			return checked, fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, got, e.Digest)
		}
		if e.Winner != g.State().Winner {
			return checked, fmt.Errorf("winner mismatch at tick %d: got=%s want=%s", tick, g.State().Winner, e.Winner)
		}
		checked++
	}
	return checked, nil
}
