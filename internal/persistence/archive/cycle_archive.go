package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"zion.world/internal/persistence/snapshot"
)

type CycleArchiveMeta struct {
	Cycle           int    `json:"cycle"`
	EndTick         uint64 `json:"end_tick"`
	Snapshot        string `json:"snapshot"`
	CreatedAt       string `json:"created_at"`
	ResetEveryTicks uint64 `json:"reset_every_ticks"`
}

// ArchiveCycleSnapshot copies a cycle-end snapshot into
// `worldDir/archives/cycle_<NNN>/`. The world exports a snapshot right
// before each scheduled reset clears the map; that snapshot lands on a
// reset-cadence multiple and is the one worth keeping. Returns
// archived=false for every other snapshot.
func ArchiveCycleSnapshot(worldDir, snapshotPath string, snap snapshot.SnapshotV1) (cycle int, archivedPath string, archived bool, err error) {
	if snap.ResetEveryTicks == 0 {
		return 0, "", false, nil
	}
	if snap.Header.Tick == 0 || snap.Header.Tick%snap.ResetEveryTicks != 0 {
		return 0, "", false, nil
	}
	cycle = int(snap.Header.Tick / snap.ResetEveryTicks)

	archiveDir := filepath.Join(worldDir, "archives", fmt.Sprintf("cycle_%03d", cycle))
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return 0, "", false, err
	}

	dst := filepath.Join(archiveDir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return 0, "", false, err
	}

	meta := CycleArchiveMeta{
		Cycle:           cycle,
		EndTick:         snap.Header.Tick,
		Snapshot:        filepath.Base(dst),
		CreatedAt:       time.Now().UTC().Format(time.RFC3339Nano),
		ResetEveryTicks: snap.ResetEveryTicks,
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644)
	}

	return cycle, dst, true, nil
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
