package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"lanewars.io/internal/audio"
	"lanewars.io/internal/hud"
	"lanewars.io/internal/protocol"
	"lanewars.io/internal/sim/game"
	"lanewars.io/internal/sim/state"
	"lanewars.io/internal/sim/tuning"
)

func main() {
	var (
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: built-in defaults)")
		difficulty = flag.String("difficulty", "EASY", "VERY_EASY, EASY, MEDIUM or HARD")
		seed       = flag.Int64("seed", 0, "rng seed (0: time based)")
		mute       = flag.Bool("mute", false, "disable audio")
		volume     = flag.Float64("volume", 0.4, "effect volume 0..1")
		logPath    = flag.String("log", "", "write logs to this file (default: discarded)")
	)
	flag.Parse()

	var out io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintln(os.Stderr, "open log:", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	logger := log.New(out, "[tui] ", log.LstdFlags|log.Lmicroseconds)

	tune := tuning.Defaults()
	if *tuningPath != "" {
		t, err := tuning.Load(*tuningPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
		tune = t
	}
	tune.Seed = *seed
	if tune.Seed == 0 {
		tune.Seed = time.Now().UnixNano()
	}
	diff, err := state.ParseDifficulty(strings.ToUpper(*difficulty))
	if err != nil {
		fmt.Fprintln(os.Stderr, "difficulty:", err)
		os.Exit(2)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintln(os.Stderr, "screen:", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "screen init:", err)
		os.Exit(1)
	}
	defer screen.Fini()

	display := hud.New(screen, tune)
	col := game.Collaborators{Messenger: display, Scenes: display}
	if !*mute {
		player := audio.NewPlayer(audio.DefaultSampleRate, *volume)
		if err := player.Start(); err != nil {
			logger.Printf("audio disabled: %v", err)
		} else {
			defer player.Close()
			col.Sounds = player
		}
	}

	g, err := game.New(tune, col, logger)
	if err != nil {
		screen.Fini()
		fmt.Fprintln(os.Stderr, "game:", err)
		os.Exit(1)
	}
	g.SetDifficulty(diff)
	g.StartNewGame()

	runner := game.NewRunner(g, game.RunnerConfig{Logger: logger})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	frames, unsubscribe := runner.Subscribe()
	defer unsubscribe()

	evCh := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(evCh)
				return
			}
			evCh <- ev
		}
	}()

	for {
		select {
		case f := <-frames:
			display.Draw(f)
		case ev, ok := <-evCh:
			if !ok {
				cancel()
				<-done
				return
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
			case *tcell.EventKey:
				act := hud.EventAction(ev, tune.Lanes)
				if act.Quit {
					cancel()
					<-done
					return
				}
				if act.Purchase {
					go purchase(ctx, runner, display, act.Lane, logger)
				}
			}
		case err := <-done:
			if err != nil && err != context.Canceled {
				logger.Printf("run: %v", err)
			}
			return
		}
	}
}

func purchase(ctx context.Context, r *game.Runner, display *hud.HUD, lane int, logger *log.Logger) {
	if err := r.Purchase(ctx, lane); err != nil {
		logger.Printf("purchase lane %d: %v (%s)", lane, err, protocol.CodeFor(err))
		display.ShowMessage(fmt.Sprintf("lane %d: %v", lane+1, err), game.MessageInfo)
	}
}
