package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"lanewars.io/internal/persistence/snapshot"
	"lanewars.io/internal/sim/game"
	"lanewars.io/internal/sim/tuning"
)

// SQLiteIndex is a queryable read model of matches. The JSONL journal stays the source of
// truth; writes here are queued and dropped if the writer falls behind.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqFrame
	reqSnapshot
	reqEnd
)

type req struct {
	kind reqKind

	tick     game.TickLogEntry
	frame    game.Frame
	snapshot snapshotRow
	end      endRow
}

type snapshotRow struct {
	MatchID       string
	Tick          uint64
	Path          string
	Soldiers      int
	Turrets       int
	ControlPoints int
}

type endRow struct {
	MatchID string
	Tick    uint64
	Winner  string
	EndedAt string
}

// MatchInfo describes a match when it starts.
type MatchInfo struct {
	MatchID    string
	Difficulty string
	Tuning     tuning.Tuning
}

// NewMatchID returns a fresh random match id.
func NewMatchID() string { return uuid.NewString() }

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 16384),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS matches (
			match_id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			difficulty TEXT NOT NULL,
			lanes INTEGER NOT NULL,
			tick_rate_hz INTEGER NOT NULL,
			tuning_digest TEXT NOT NULL,
			tuning_json TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_tick INTEGER,
			winner TEXT,
			ended_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			match_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			digest TEXT NOT NULL,
			purchases INTEGER NOT NULL,
			commands INTEGER NOT NULL,
			winner TEXT NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (match_id, tick)
		);`,
		`CREATE TABLE IF NOT EXISTS lane_metrics (
			match_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			lane INTEGER NOT NULL,
			uncontrolled_points INTEGER NOT NULL,
			enemy_controlled_points INTEGER NOT NULL,
			player_controlled_points INTEGER NOT NULL,
			player_units INTEGER NOT NULL,
			enemy_units INTEGER NOT NULL,
			enemy_base_health REAL NOT NULL,
			player_base_health REAL NOT NULL,
			PRIMARY KEY (match_id, tick, lane)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_lane_metrics_lane ON lane_metrics(match_id, lane, tick);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			match_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			path TEXT NOT NULL,
			soldiers INTEGER NOT NULL,
			turrets INTEGER NOT NULL,
			control_points INTEGER NOT NULL,
			PRIMARY KEY (match_id, tick)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// Dropped reports how many writes were discarded because the queue was full.
func (s *SQLiteIndex) Dropped() uint64 { return s.dropped.Load() }

func (s *SQLiteIndex) enqueue(r req) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- r:
	default:
		s.dropped.Add(1)
	}
}

// BeginMatch records the match row synchronously and returns its id, generating one when
// info.MatchID is empty.
func (s *SQLiteIndex) BeginMatch(ctx context.Context, info MatchInfo) (string, error) {
	id := info.MatchID
	if id == "" {
		id = NewMatchID()
	}
	b, err := json.Marshal(info.Tuning)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return "", err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO matches(match_id,seed,difficulty,lanes,tick_rate_hz,tuning_digest,tuning_json,started_at) VALUES(?,?,?,?,?,?,?,?)`,
		id,
		info.Tuning.Seed,
		info.Difficulty,
		info.Tuning.Lanes,
		info.Tuning.TickRateHz,
		hex.EncodeToString(sum[:]),
		string(b),
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("indexdb: begin match: %w", err)
	}
	return id, nil
}

func (s *SQLiteIndex) WriteTick(entry game.TickLogEntry) error {
	s.enqueue(req{kind: reqTick, tick: entry})
	return nil
}

// RecordFrame stores the per-lane metrics carried by a published frame.
func (s *SQLiteIndex) RecordFrame(f game.Frame) {
	s.enqueue(req{kind: reqFrame, frame: f})
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	r := snapshotRow{
		MatchID: snap.Header.MatchID,
		Tick:    snap.Header.Tick,
		Path:    path,
	}
	if snap.State != nil {
		r.Soldiers = len(snap.State.Soldiers)
		r.Turrets = len(snap.State.Turrets)
		r.ControlPoints = len(snap.State.ControlPoints)
	}
	s.enqueue(req{kind: reqSnapshot, snapshot: r})
}

// EndMatch marks the match finished at tick with the given winner.
func (s *SQLiteIndex) EndMatch(matchID string, tick uint64, winner string) {
	s.enqueue(req{kind: reqEnd, end: endRow{
		MatchID: matchID,
		Tick:    tick,
		Winner:  winner,
		EndedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}})
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(match_id,tick,digest,purchases,commands,winner,raw_json) VALUES(?,?,?,?,?,?,?)`)
	insertLane, _ := s.db.Prepare(`INSERT OR REPLACE INTO lane_metrics(match_id,tick,lane,uncontrolled_points,enemy_controlled_points,player_controlled_points,player_units,enemy_units,enemy_base_health,player_base_health) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(match_id,tick,path,soldiers,turrets,control_points) VALUES(?,?,?,?,?,?)`)
	updateEnd, _ := s.db.Prepare(`UPDATE matches SET ended_tick=?, winner=?, ended_at=? WHERE match_id=?`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, insertLane, insertSnapshot, updateEnd} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			b, _ := json.Marshal(r.tick)
			if insertTick == nil {
				break
			}
			if _, err := tx.Stmt(insertTick).Exec(
				r.tick.MatchID,
				int64(r.tick.Tick),
				r.tick.Digest,
				len(r.tick.Purchases),
				len(r.tick.Commands),
				r.tick.Winner.String(),
				string(b),
			); err != nil {
				rollback()
				continue
			}
			opCount++

		case reqFrame:
			if insertLane == nil {
				break
			}
			for lane, m := range r.frame.Lanes {
				if _, err := tx.Stmt(insertLane).Exec(
					r.frame.MatchID,
					int64(r.frame.Tick),
					lane,
					m.UncontrolledPoints,
					m.EnemyControlledPoints,
					m.PlayerControlledPoints,
					m.PlayerUnits,
					m.EnemyUnits,
					m.EnemyBaseHealthPercentage,
					m.PlayerBaseHealthPercentage,
				); err != nil {
					rollback()
					break
				}
				opCount++
			}

		case reqSnapshot:
			sn := r.snapshot
			if insertSnapshot == nil {
				break
			}
			if _, err := tx.Stmt(insertSnapshot).Exec(
				sn.MatchID,
				int64(sn.Tick),
				sn.Path,
				sn.Soldiers,
				sn.Turrets,
				sn.ControlPoints,
			); err != nil {
				rollback()
				continue
			}
			opCount++

		case reqEnd:
			e := r.end
			if updateEnd == nil {
				break
			}
			if _, err := tx.Stmt(updateEnd).Exec(int64(e.Tick), e.Winner, e.EndedAt, e.MatchID); err != nil {
				rollback()
				continue
			}
			opCount++
		}
		flushIfNeeded()
	}

	commit()
}
