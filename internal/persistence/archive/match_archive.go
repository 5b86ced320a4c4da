package archive

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"lanewars.io/internal/persistence/snapshot"
	"lanewars.io/internal/sim/state"
)

type MatchArchiveMeta struct {
	MatchID    string `json:"match_id"`
	EndTick    uint64 `json:"end_tick"`
	Winner     string `json:"winner"`
	Difficulty string `json:"difficulty"`
	Seed       int64  `json:"seed"`
	Snapshot   string `json:"snapshot"`
	CreatedAt  string `json:"created_at"`
}

// ArchiveMatchSnapshot copies a match-end snapshot into `matchDir/archive/`. It returns
// (archivedPath, archived=true) only when the snapshot has a winner.
func ArchiveMatchSnapshot(matchDir, snapshotPath string, snap snapshot.SnapshotV1) (archivedPath string, archived bool, err error) {
	if snap.State == nil || snap.State.Winner == state.SideNeutral {
		return "", false, nil
	}

	archiveDir := filepath.Join(matchDir, "archive")
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", false, err
	}

	dst := filepath.Join(archiveDir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return "", false, err
	}

	meta := MatchArchiveMeta{
		MatchID:    snap.Header.MatchID,
		EndTick:    snap.Header.Tick,
		Winner:     snap.State.Winner.String(),
		Difficulty: snap.State.Difficulty.String(),
		Seed:       snap.Seed,
		Snapshot:   filepath.Base(dst),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339Nano),
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644)
	}
	return dst, true, nil
}

// ReadMeta loads the meta.json written next to an archived snapshot.
func ReadMeta(matchDir string) (MatchArchiveMeta, error) {
	var m MatchArchiveMeta
	b, err := os.ReadFile(filepath.Join(matchDir, "archive", "meta.json"))
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(b, &m)
	return m, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
