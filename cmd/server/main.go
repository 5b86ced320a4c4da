package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"lanewars.io/internal/persistence/archive"
	"lanewars.io/internal/persistence/indexdb"
	persistlog "lanewars.io/internal/persistence/log"
	"lanewars.io/internal/persistence/snapshot"
	"lanewars.io/internal/sim/game"
	"lanewars.io/internal/sim/state"
	"lanewars.io/internal/sim/tuning"
	"lanewars.io/internal/transport/observer"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "http listen address")
		dataDir      = flag.String("data", "./data", "runtime data directory")
		tuningPath   = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml (defaults are used if missing)")
		difficulty   = flag.String("difficulty", "EASY", "VERY_EASY, EASY, MEDIUM or HARD")
		seed         = flag.Int64("seed", 0, "rng seed override (0 keeps the tuning value)")
		matchID      = flag.String("match", "", "match id (default: random uuid)")
		disableDB    = flag.Bool("disable_db", false, "disable the sqlite read model")
		metricsEvery = flag.Int("metrics_every", 10, "record lane metrics every N published ticks")

		snapPath   = flag.String("snapshot", "", "path to snapshot to resume from (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", false, "resume the latest snapshot of -match if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", *tuningPath)
		tune = tuning.Defaults()
	}
	if *seed != 0 {
		tune.Seed = *seed
	}
	diff, err := state.ParseDifficulty(strings.ToUpper(strings.TrimSpace(*difficulty)))
	if err != nil {
		logger.Fatalf("difficulty: %v", err)
	}

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest && *matchID != "" {
		snapshotToLoad = latestSnapshot(matchDir(*dataDir, *matchID))
	}
	var resume *snapshot.SnapshotV1
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if *matchID != "" && snap.Header.MatchID != "" && snap.Header.MatchID != *matchID {
			logger.Fatalf("snapshot match id mismatch: flag=%s snap=%s", *matchID, snap.Header.MatchID)
		}
		if *matchID == "" {
			*matchID = snap.Header.MatchID
		}
		tune = snap.Config(tune)
		resume = &snap
	}

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	// Optional read model (does not affect sim determinism).
	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(*dataDir, "index", "lanewars.sqlite"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		id, err := idx.BeginMatch(ctx, indexdb.MatchInfo{MatchID: *matchID, Difficulty: diff.String(), Tuning: tune})
		if err != nil {
			logger.Fatalf("index begin match: %v", err)
		}
		*matchID = id
	}
	if *matchID == "" {
		*matchID = indexdb.NewMatchID()
	}
	dir := matchDir(*dataDir, *matchID)
	_ = os.MkdirAll(dir, 0o755)

	col := game.Collaborators{Messenger: logMessenger{logger}, Scenes: logScenes{logger}}
	g, err := game.New(tune, col, logger)
	if err != nil {
		logger.Fatalf("game: %v", err)
	}
	g.SetDifficulty(diff)
	if resume != nil {
		g.LoadFromStateAndSync(resume.State)
		logger.Printf("resumed match=%s from snapshot=%s tick=%d", *matchID, filepath.Base(snapshotToLoad), g.State().Tick)
	} else {
		g.StartNewGame()
		logger.Printf("new match=%s difficulty=%s seed=%d lanes=%d", *matchID, diff, tune.Seed, tune.Lanes)
	}

	journal := persistlog.NewTickLogger(dir)
	defer journal.Close()

	snapCh := make(chan snapshot.SnapshotV1, 2)
	var writer sync.WaitGroup
	writer.Add(1)
	go func() {
		defer writer.Done()
		var archived bool
		for snap := range snapCh {
			path := snapshot.Path(filepath.Join(dir, "snapshots"), snap.Header.Tick)
			if err := snapshot.WriteSnapshot(path, snap); err != nil {
				logger.Printf("snapshot write: %v", err)
				continue
			}
			idx.RecordSnapshot(path, snap)
			if archived {
				continue
			}
			dst, ok, err := archive.ArchiveMatchSnapshot(dir, path, snap)
			if err != nil {
				logger.Printf("archive match snapshot: %v", err)
			} else if ok {
				archived = true
				logger.Printf("archived final snapshot %s", dst)
			}
		}
	}()

	loggers := game.TickLoggers{journal}
	if idx != nil {
		loggers = append(loggers, idx)
	}
	runner := game.NewRunner(g, game.RunnerConfig{
		MatchID:            *matchID,
		TickLogger:         loggers,
		SnapshotSink:       snapCh,
		SnapshotEveryTicks: tune.SnapshotEveryTick,
		Logger:             logger,
	})

	var rec frameRecorder
	if idx != nil {
		rec = idx
	}
	// The final frame's state is a private copy, so it can go straight to the writer.
	onEnd := func(f game.Frame) {
		snapCh <- snapshot.New(f.MatchID, tune, f.State)
	}
	latest := &latestFrame{}
	frames, unsubscribe := runner.Subscribe()
	var recorder sync.WaitGroup
	recorder.Add(1)
	go func() {
		defer recorder.Done()
		recordFrames(ctx, frames, latest, rec, *metricsEvery, onEnd, logger)
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		f, ok := latest.Get()
		if !ok {
			return
		}
		writeMetrics(rw, f)
	})
	mux.HandleFunc("/v1/state", func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		f, ok := latest.Get()
		if !ok {
			rw.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(f)
	})
	mux.HandleFunc("/v1/observer", observer.NewServer(runner, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	runDone := make(chan error, 1)
	go func() { runDone <- runner.Run(ctx) }()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Printf("http: %v", err)
		cancel()
	}

	if err := <-runDone; err != nil && err != context.Canceled {
		logger.Printf("run: %v", err)
	}
	unsubscribe()
	recorder.Wait()
	close(snapCh)
	writer.Wait()
	logger.Printf("stopped match=%s", *matchID)
}

func matchDir(dataDir, id string) string { return filepath.Join(dataDir, "matches", id) }

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(ch)
	}()
	return ctx, cancel
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

type logMessenger struct{ log *log.Logger }

func (m logMessenger) ShowMessage(text string, kind game.MessageKind) {
	m.log.Printf("message %s: %s", kind, text)
}

type logScenes struct{ log *log.Logger }

func (s logScenes) LoadScene(target string) { s.log.Printf("scene -> %s", target) }
