package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PlayerID        string `json:"player_id"`
	PlayerName      string `json:"player_name,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	PlayerID        string         `json:"player_id"`
	GuildID         string         `json:"guild_id,omitempty"`
	WorldParams     WorldParams    `json:"world_params"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type WorldParams struct {
	WorldID         string `json:"world_id"`
	TickRateHz      int    `json:"tick_rate_hz"`
	WarNoticeTicks  uint64 `json:"war_notice_ticks"`
	WarTax          int    `json:"war_tax"`
	OwnershipCap    int    `json:"ownership_cap"`
	MaxDefenseLevel int    `json:"max_defense_level"`
}

type CatalogDigests struct {
	TerritoriesDigest string `json:"territories_digest"`
	TerritoryCount    int    `json:"territory_count"`
}

// ACT (client -> server). One command per message; the ref id is echoed
// back on the matching result event.
type ActMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	Action          string `json:"action"`

	TerritoryID  string  `json:"territory_id,omitempty"`
	WarID        uint64  `json:"war_id,omitempty"`
	DefenderID   string  `json:"defender_id,omitempty"`
	Side         string  `json:"side,omitempty"`
	Points       float64 `json:"points,omitempty"`
	ExpectedCost int     `json:"expected_cost,omitempty"`
	Zone         string  `json:"zone,omitempty"`
	GuildID      string  `json:"guild_id,omitempty"`
}

// Actions accepted in ActMsg.Action.
const (
	ActClaimTerritory   = "CLAIM_TERRITORY"
	ActAbandonTerritory = "ABANDON_TERRITORY"
	ActUpgradeDefense   = "UPGRADE_DEFENSE"
	ActDeclareWar       = "DECLARE_WAR"
	ActCancelWar        = "CANCEL_WAR"
	ActJoinBattle       = "JOIN_BATTLE"
	ActContributeEffort = "CONTRIBUTE_EFFORT"
	ActGetTerritory     = "GET_TERRITORY"
	ActGetZone          = "GET_ZONE"
	ActGetMap           = "GET_MAP"
	ActGetGuildPower    = "GET_GUILD_POWER"
	ActGetWars          = "GET_WARS"
	ActGetWar           = "GET_WAR"
	ActGetWarHistory    = "GET_WAR_HISTORY"
)

// Event is a server -> client push. Shape depends on "type"; every result
// event carries t (tick), ref (ActMsg.ID), ok, and code/message on failure.
type Event map[string]interface{}

// EVENT (server -> client)
type EventMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Tick            uint64  `json:"tick"`
	Events          []Event `json:"events"`
}
