package world

import (
	"zion.world/internal/sim/world/feature/territory"
	"zion.world/internal/sim/world/feature/warfare"
)

// TerritoryState is the mutable half of a territory; the immutable half
// lives in the catalog. One state exists per catalog definition, always.
type TerritoryState struct {
	ID             string
	OwnerID        string // guild id, "" = unowned
	ClaimedAtTick  uint64
	TaxCollected   int // monotonic; reset only by the world cycle reset
	DefenseLevel   int // 0..MaxDefenseLevel
	Fortifications []Fortification
}

// Fortification is one entry in a territory's upgrade log.
type Fortification struct {
	Level   int    `json:"level"`
	GuildID string `json:"guild_id"`
	Tick    uint64 `json:"tick"`
	Cost    int    `json:"cost"`
}

// War is a time-boxed conflict between two guilds over one territory.
// Once terminal it moves to the history list and is never mutated again.
type War struct {
	ID             uint64
	AttackerID     string
	DefenderID     string
	TerritoryID    string
	DeclaredAtTick uint64
	BattleTick     uint64 // DeclaredAtTick + notice period
	Status         warfare.Status

	AttackerForce float64
	DefenderForce float64

	Attackers map[string]bool // player ids
	Defenders map[string]bool

	Result      warfare.Result // "" until resolved
	Loot        int
	Transferred bool
	EndedAtTick uint64
}

func maxDefenseLevel() int { return territory.MaxDefenseLevel }
