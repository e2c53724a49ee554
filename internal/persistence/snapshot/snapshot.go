package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
}

// SnapshotV1 is the full resumable state of one world: the territory
// map, every war (active and settled), guild treasuries and player
// memberships. Operational parameters are captured so a resume runs
// under the same rules the snapshot was taken under.
type SnapshotV1 struct {
	Header Header `json:"header"`

	TickRate    int    `json:"tick_rate_hz"`
	NoticeTicks uint64 `json:"notice_ticks"`
	WarTax      int    `json:"war_tax"`

	// Reset cadence, captured so archive tooling can spot cycle-end
	// snapshots. Zero when scheduled resets are disabled.
	ResetEveryTicks uint64 `json:"reset_every_ticks,omitempty"`

	TerritoriesDigest string `json:"territories_digest"`

	Territories []TerritoryV1 `json:"territories"`
	Wars        []WarV1       `json:"wars"`
	WarHistory  []WarV1       `json:"war_history"`

	Treasuries  map[string]int    `json:"treasuries"`
	Memberships map[string]string `json:"memberships,omitempty"`

	Counters CountersV1 `json:"counters"`
}

type CountersV1 struct {
	NextWar uint64 `json:"next_war"`
}

type TerritoryV1 struct {
	ID            string `json:"id"`
	OwnerID       string `json:"owner_id,omitempty"`
	ClaimedAtTick uint64 `json:"claimed_at_tick,omitempty"`
	TaxCollected  int    `json:"tax_collected,omitempty"`
	DefenseLevel  int    `json:"defense_level,omitempty"`

	Fortifications []FortificationV1 `json:"fortifications,omitempty"`
}

type FortificationV1 struct {
	Level   int    `json:"level"`
	GuildID string `json:"guild_id"`
	Tick    uint64 `json:"tick"`
	Cost    int    `json:"cost"`
}

type WarV1 struct {
	ID             uint64   `json:"id"`
	AttackerID     string   `json:"attacker_id"`
	DefenderID     string   `json:"defender_id"`
	TerritoryID    string   `json:"territory_id"`
	DeclaredAtTick uint64   `json:"declared_at_tick"`
	BattleTick     uint64   `json:"battle_tick"`
	Status         string   `json:"status"`
	AttackerForce  float64  `json:"attacker_force"`
	DefenderForce  float64  `json:"defender_force"`
	Attackers      []string `json:"attackers,omitempty"`
	Defenders      []string `json:"defenders,omitempty"`
	Result         string   `json:"result,omitempty"`
	Loot           int      `json:"loot,omitempty"`
	Transferred    bool     `json:"transferred,omitempty"`
	EndedAtTick    uint64   `json:"ended_at_tick,omitempty"`
}

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
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
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

	// Read header line (ignore it for now, gob also contains header).
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}
