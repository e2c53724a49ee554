package world

import (
	"sort"

	"zion.world/internal/sim/catalogs"
	"zion.world/internal/sim/world/feature/territory"
	"zion.world/internal/sim/world/feature/warfare"
)

// TerritoryInfo merges a catalog definition with its mutable state for
// display.
type TerritoryInfo struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Zone    string            `json:"zone"`
	Value   int               `json:"value"`
	TaxRate float64           `json:"tax_rate"`
	Bonus   catalogs.BonusDef `json:"bonus"`

	ClaimCost int `json:"claim_cost"`

	OwnerID        string          `json:"owner_id,omitempty"`
	ClaimedAtTick  uint64          `json:"claimed_at_tick,omitempty"`
	DefenseLevel   int             `json:"defense_level"`
	TaxCollected   int             `json:"tax_collected"`
	Fortifications []Fortification `json:"fortifications,omitempty"`
}

// WarView is a read-only copy of a war; rosters come out as sorted
// slices so callers cannot reach the live maps.
type WarView struct {
	ID             uint64         `json:"id"`
	AttackerID     string         `json:"attacker_id"`
	DefenderID     string         `json:"defender_id"`
	TerritoryID    string         `json:"territory_id"`
	DeclaredAtTick uint64         `json:"declared_at_tick"`
	BattleTick     uint64         `json:"battle_tick"`
	Status         warfare.Status `json:"status"`
	AttackerForce  float64        `json:"attacker_force"`
	DefenderForce  float64        `json:"defender_force"`
	Attackers      []string       `json:"attackers"`
	Defenders      []string       `json:"defenders"`
	Result         warfare.Result `json:"result,omitempty"`
	Loot           int            `json:"loot,omitempty"`
	Transferred    bool           `json:"transferred,omitempty"`
	EndedAtTick    uint64         `json:"ended_at_tick,omitempty"`
}

type GuildPower struct {
	GuildID      string `json:"guild_id"`
	Territories  int    `json:"territories"`
	TotalDefense int    `json:"total_defense"`
	Treasury     int    `json:"treasury"`
	Power        int    `json:"power"`
}

type WarRecord struct {
	GuildID string `json:"guild_id"`
	Wins    int    `json:"wins"`
	Losses  int    `json:"losses"`
	Draws   int    `json:"draws"`
}

func (w *World) territoryInfo(id string) TerritoryInfo {
	def := w.catalogs.Territories.ByID[id]
	ts := w.territories[id]
	forts := make([]Fortification, len(ts.Fortifications))
	copy(forts, ts.Fortifications)
	return TerritoryInfo{
		ID:             def.ID,
		Name:           def.Name,
		Zone:           def.Zone,
		Value:          def.Value,
		TaxRate:        def.TaxRate,
		Bonus:          def.Bonus,
		ClaimCost:      territory.ClaimCost(def.Value),
		OwnerID:        ts.OwnerID,
		ClaimedAtTick:  ts.ClaimedAtTick,
		DefenseLevel:   ts.DefenseLevel,
		TaxCollected:   ts.TaxCollected,
		Fortifications: forts,
	}
}

func (w *World) Territory(id string) (TerritoryInfo, bool) {
	if _, ok := w.territoryDef(id); !ok {
		return TerritoryInfo{}, false
	}
	return w.territoryInfo(id), true
}

func (w *World) TerritoriesByZone(zone string) []TerritoryInfo {
	ids := w.catalogs.Territories.Zones[zone]
	out := make([]TerritoryInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, w.territoryInfo(id))
	}
	return out
}

func (w *World) GuildTerritories(guildID string) []TerritoryInfo {
	var out []TerritoryInfo
	if guildID == "" {
		return out
	}
	for _, id := range w.catalogs.Territories.IDs {
		if w.territories[id].OwnerID == guildID {
			out = append(out, w.territoryInfo(id))
		}
	}
	return out
}

// FullMap returns every territory, catalog order (sorted by id).
func (w *World) FullMap() []TerritoryInfo {
	out := make([]TerritoryInfo, 0, len(w.catalogs.Territories.IDs))
	for _, id := range w.catalogs.Territories.IDs {
		out = append(out, w.territoryInfo(id))
	}
	return out
}

func warView(war *War) WarView {
	attackers := make([]string, 0, len(war.Attackers))
	for id := range war.Attackers {
		attackers = append(attackers, id)
	}
	sort.Strings(attackers)
	defenders := make([]string, 0, len(war.Defenders))
	for id := range war.Defenders {
		defenders = append(defenders, id)
	}
	sort.Strings(defenders)
	return WarView{
		ID:             war.ID,
		AttackerID:     war.AttackerID,
		DefenderID:     war.DefenderID,
		TerritoryID:    war.TerritoryID,
		DeclaredAtTick: war.DeclaredAtTick,
		BattleTick:     war.BattleTick,
		Status:         war.Status,
		AttackerForce:  war.AttackerForce,
		DefenderForce:  war.DefenderForce,
		Attackers:      attackers,
		Defenders:      defenders,
		Result:         war.Result,
		Loot:           war.Loot,
		Transferred:    war.Transferred,
		EndedAtTick:    war.EndedAtTick,
	}
}

// ActiveWars returns every non-terminal war, ordered by id.
func (w *World) ActiveWars() []WarView {
	ids := make([]uint64, 0, len(w.wars))
	for id := range w.wars {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]WarView, 0, len(ids))
	for _, id := range ids {
		out = append(out, warView(w.wars[id]))
	}
	return out
}

// WarByID looks up a war in the active set, then in history.
func (w *World) WarByID(id uint64) (WarView, bool) {
	if war := w.wars[id]; war != nil {
		return warView(war), true
	}
	if war := w.warInHistory(id); war != nil {
		return warView(war), true
	}
	return WarView{}, false
}

// WarHistoryByGuild returns the guild's terminal wars in the order they
// ended.
func (w *World) WarHistoryByGuild(guildID string) []WarView {
	var out []WarView
	for _, war := range w.warHistory {
		if war.AttackerID == guildID || war.DefenderID == guildID {
			out = append(out, warView(war))
		}
	}
	return out
}

// GuildWarRecord tallies resolved wars only; cancelled wars count for
// nobody.
func (w *World) GuildWarRecord(guildID string) WarRecord {
	rec := WarRecord{GuildID: guildID}
	for _, war := range w.warHistory {
		if war.Status != warfare.StatusResolved {
			continue
		}
		switch {
		case war.AttackerID == guildID:
			switch war.Result {
			case warfare.ResultAttackerWins:
				rec.Wins++
			case warfare.ResultDefenderWins:
				rec.Losses++
			case warfare.ResultDraw:
				rec.Draws++
			}
		case war.DefenderID == guildID:
			switch war.Result {
			case warfare.ResultAttackerWins:
				rec.Losses++
			case warfare.ResultDefenderWins:
				rec.Wins++
			case warfare.ResultDraw:
				rec.Draws++
			}
		}
	}
	return rec
}

// GuildPowerScore: territories weigh 100 each, defense levels 20 each,
// and every 10 treasury one point.
func (w *World) GuildPowerScore(guildID string) GuildPower {
	p := GuildPower{GuildID: guildID}
	for _, id := range w.catalogs.Territories.IDs {
		ts := w.territories[id]
		if ts.OwnerID == guildID {
			p.Territories++
			p.TotalDefense += ts.DefenseLevel
		}
	}
	p.Treasury = w.ledger.Balance(guildID)
	p.Power = p.Territories*100 + p.Treasury/10 + p.TotalDefense*20
	return p
}
