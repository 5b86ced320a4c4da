package snapshot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"lanewars.io/internal/sim/state"
	"lanewars.io/internal/sim/tuning"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	MatchID string `json:"match_id"`
	Tick    uint64 `json:"tick"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed     int64 `json:"seed"`
	TickRate int   `json:"tick_rate_hz"`
	Lanes    int   `json:"lanes"`

	// Full tuning in effect when the snapshot was taken (captured for deterministic replay).
	Tuning *tuning.Tuning `json:"tuning,omitempty"`

	State *state.GameState `json:"state"`
}

// New captures s. The snapshot keeps s, so pass a copy.
func New(matchID string, cfg tuning.Tuning, s *state.GameState) SnapshotV1 {
	t := cfg
	return SnapshotV1{
		Header:   Header{Version: Version, MatchID: matchID, Tick: s.Tick},
		Seed:     cfg.Seed,
		TickRate: cfg.TickRateHz,
		Lanes:    cfg.Lanes,
		Tuning:   &t,
		State:    s,
	}
}

// Path is where a snapshot for tick lives under dir.
func Path(dir string, tick uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%d.snap.zst", tick))
}

// WriteSnapshot stores a JSON header line followed by the JSON body, zstd-compressed.
func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		enc.Close()
		return err
	}
	if err := json.NewEncoder(bw).Encode(&snap); err != nil {
		enc.Close()
		return fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	hb, err := br.ReadBytes('\n')
	if err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	var h Header
	if err := json.Unmarshal(hb, &h); err != nil {
		return snap, fmt.Errorf("decode header: %w", err)
	}
	if h.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", h.Version)
	}

	if err := json.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("json decode: %w", err)
	}
	if snap.State == nil {
		return snap, fmt.Errorf("snapshot %s has no state", path)
	}
	return snap, nil
}

// Config returns the tuning to resume with: the captured tuning when present, otherwise
// base with the snapshot's seed, tick rate and lane count.
func (s SnapshotV1) Config(base tuning.Tuning) tuning.Tuning {
	if s.Tuning != nil {
		return *s.Tuning
	}
	base.Seed = s.Seed
	if s.TickRate > 0 {
		base.TickRateHz = s.TickRate
	}
	if s.Lanes > 0 {
		base.Lanes = s.Lanes
	}
	return base
}
