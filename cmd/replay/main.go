package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	persistlog "lanewars.io/internal/persistence/log"
	"lanewars.io/internal/persistence/snapshot"
	"lanewars.io/internal/sim/game"
	"lanewars.io/internal/sim/state"
	"lanewars.io/internal/sim/tuning"
)

func main() {
	var (
		snapPath   = flag.String("snapshot", "", "path to .snap.zst to load and step (optional)")
		steps      = flag.Int("steps", 10, "ticks to step after loading -snapshot")
		ticksDir   = flag.String("ticks", "", "journal dir containing ticks-*.jsonl.zst; verifies a match from its start (optional)")
		tuningPath = flag.String("tuning", "", "tuning.yaml used by the match (default: built-in defaults)")
		difficulty = flag.String("difficulty", "EASY", "difficulty the match was started with")
		toTick     = flag.Uint64("to_tick", 0, "stop verifying after tick (inclusive, optional)")
	)
	flag.Parse()

	if *snapPath == "" && *ticksDir == "" {
		fmt.Fprintln(os.Stderr, "need -snapshot or -ticks")
		os.Exit(2)
	}

	tune := tuning.Defaults()
	if *tuningPath != "" {
		t, err := tuning.Load(*tuningPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
		tune = t
	}

	if *snapPath != "" {
		snap, err := snapshot.ReadSnapshot(*snapPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read snapshot:", err)
			os.Exit(1)
		}
		s := snap.State
		fmt.Printf("snapshot v%d match=%s tick=%d seed=%d lanes=%d soldiers=%d turrets=%d control_points=%d winner=%s\n",
			snap.Header.Version, snap.Header.MatchID, snap.Header.Tick, snap.Seed, snap.Lanes,
			len(s.Soldiers), len(s.Turrets), len(s.ControlPoints), s.Winner)

		g, err := game.New(snap.Config(tune), game.Collaborators{}, nil)
		if err != nil {
			fmt.Fprintln(os.Stderr, "game:", err)
			os.Exit(1)
		}
		g.SetDifficulty(s.Difficulty)
		for _, line := range stepSnapshot(g, snap, *steps) {
			fmt.Println(line)
		}
	}

	if *ticksDir == "" {
		return
	}

	diff, err := state.ParseDifficulty(strings.ToUpper(*difficulty))
	if err != nil {
		fmt.Fprintln(os.Stderr, "difficulty:", err)
		os.Exit(2)
	}
	files, err := listTickFiles(*ticksDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list ticks:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no tick files found in", *ticksDir)
		os.Exit(1)
	}
	var entries []game.TickLogEntry
	for _, path := range files {
		es, err := persistlog.ReadTicks(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read ticks:", err)
			os.Exit(1)
		}
		entries = append(entries, es...)
	}

	g, err := game.New(tune, game.Collaborators{}, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "game:", err)
		os.Exit(1)
	}
	g.SetDifficulty(diff)
	checked, err := verifyJournal(g, entries, *toTick)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: checked=%d ticks\n", checked)
}

func listTickFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "ticks-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}
