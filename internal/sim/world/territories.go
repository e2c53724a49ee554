package world

import (
	"fmt"
	"sort"

	"zion.world/internal/protocol"
	"zion.world/internal/sim/catalogs"
	"zion.world/internal/sim/world/feature/territory"
	"zion.world/internal/sim/world/feature/warfare"
)

func (w *World) territoryDef(id string) (catalogs.TerritoryDef, bool) {
	def, ok := w.catalogs.Territories.ByID[id]
	return def, ok
}

// ownedCount scans all territory states; the map is small (16) and the
// scan keeps the cap check trivially consistent with the actual state.
func (w *World) ownedCount(guildID string) int {
	n := 0
	for _, id := range w.catalogs.Territories.IDs {
		if w.territories[id].OwnerID == guildID {
			n++
		}
	}
	return n
}

// Claim takes an unowned territory for a guild, debiting the claim cost.
func (w *World) Claim(guildID, territoryID string, tick uint64) ClaimResult {
	if guildID == "" {
		return ClaimResult{OpResult: opFail(protocol.ErrBadRequest, "missing guild id")}
	}
	def, ok := w.territoryDef(territoryID)
	if !ok {
		return ClaimResult{OpResult: opFail(protocol.ErrNotFound, fmt.Sprintf("unknown territory: %s", territoryID))}
	}
	ts := w.territories[territoryID]
	if ts.OwnerID != "" {
		return ClaimResult{OpResult: opFail(protocol.ErrAlreadyOwned, fmt.Sprintf("territory already owned by %s", ts.OwnerID))}
	}
	limit := w.catalogs.Territories.OwnershipCap
	if w.ownedCount(guildID) >= limit {
		return ClaimResult{OpResult: opFail(protocol.ErrLimitExceeded, fmt.Sprintf("guild already holds %d territories", limit))}
	}
	cost := territory.ClaimCost(def.Value)
	if w.ledger.Balance(guildID) < cost {
		return ClaimResult{OpResult: opFail(protocol.ErrNoFunds, fmt.Sprintf("claim costs %d", cost))}
	}

	w.ledger.Debit(guildID, cost)
	ts.OwnerID = guildID
	ts.ClaimedAtTick = tick
	ts.DefenseLevel = 0
	ts.Fortifications = nil

	w.auditEvent(tick, guildID, "CLAIM_TERRITORY", territoryID, 0, map[string]any{"cost": cost})
	return ClaimResult{OpResult: opOK(), TerritoryID: territoryID, Cost: cost}
}

// Abandon releases an owned territory, refunding half the claim cost.
// The territory becomes immediately claimable by any guild. Blocked
// while a war is active on the territory, so a defender cannot walk
// away from a declared conquest.
func (w *World) Abandon(guildID, territoryID string, tick uint64) AbandonResult {
	def, ok := w.territoryDef(territoryID)
	if !ok {
		return AbandonResult{OpResult: opFail(protocol.ErrNotFound, fmt.Sprintf("unknown territory: %s", territoryID))}
	}
	ts := w.territories[territoryID]
	if ts.OwnerID == "" || ts.OwnerID != guildID {
		return AbandonResult{OpResult: opFail(protocol.ErrNoPermission, "territory not owned by this guild")}
	}
	if war := w.activeWarOnTerritory(territoryID); war != nil {
		return AbandonResult{OpResult: opFail(protocol.ErrInvalidState, fmt.Sprintf("war %d is active on this territory", war.ID))}
	}

	refund := territory.AbandonRefund(territory.ClaimCost(def.Value))
	w.ledger.Credit(guildID, refund)
	ts.OwnerID = ""
	ts.ClaimedAtTick = 0
	ts.DefenseLevel = 0
	ts.Fortifications = nil

	w.auditEvent(tick, guildID, "ABANDON_TERRITORY", territoryID, 0, map[string]any{"refund": refund})
	return AbandonResult{OpResult: opOK(), TerritoryID: territoryID, Refund: refund}
}

// UpgradeDefense raises the fortification level by one. expectedCost is
// an optional guard (pass 0 to skip): callers that displayed a price to
// the player can refuse a stale one.
func (w *World) UpgradeDefense(guildID, territoryID string, expectedCost int, tick uint64) UpgradeResult {
	if _, ok := w.territoryDef(territoryID); !ok {
		return UpgradeResult{OpResult: opFail(protocol.ErrNotFound, fmt.Sprintf("unknown territory: %s", territoryID))}
	}
	ts := w.territories[territoryID]
	if ts.OwnerID == "" || ts.OwnerID != guildID {
		return UpgradeResult{OpResult: opFail(protocol.ErrNoPermission, "territory not owned by this guild")}
	}
	if ts.DefenseLevel >= territory.MaxDefenseLevel {
		return UpgradeResult{OpResult: opFail(protocol.ErrInvalidState, fmt.Sprintf("defense already at level %d", territory.MaxDefenseLevel))}
	}
	cost := territory.UpgradeCost(ts.DefenseLevel)
	if expectedCost != 0 && expectedCost != cost {
		return UpgradeResult{OpResult: opFail(protocol.ErrBadRequest, fmt.Sprintf("upgrade costs %d, not %d", cost, expectedCost))}
	}
	if w.ledger.Balance(guildID) < cost {
		return UpgradeResult{OpResult: opFail(protocol.ErrNoFunds, fmt.Sprintf("upgrade costs %d", cost))}
	}

	w.ledger.Debit(guildID, cost)
	ts.DefenseLevel++
	ts.Fortifications = append(ts.Fortifications, Fortification{
		Level:   ts.DefenseLevel,
		GuildID: guildID,
		Tick:    tick,
		Cost:    cost,
	})

	w.auditEvent(tick, guildID, "UPGRADE_DEFENSE", territoryID, 0, map[string]any{"level": ts.DefenseLevel, "cost": cost})
	return UpgradeResult{OpResult: opOK(), TerritoryID: territoryID, NewLevel: ts.DefenseLevel, Cost: cost}
}

// CollectTax routes a gross commerce amount through a territory: the
// owner is credited their cut. Unknown or unowned territories absorb the
// call as a zero no-op; commerce must never fail because of the map.
func (w *World) CollectTax(territoryID string, gross int, tick uint64) TaxResult {
	def, ok := w.territoryDef(territoryID)
	if !ok || gross <= 0 {
		return TaxResult{}
	}
	ts := w.territories[territoryID]
	if ts.OwnerID == "" {
		return TaxResult{}
	}

	cut := territory.TaxCut(gross, def.TaxRate)
	if cut > 0 {
		w.ledger.Credit(ts.OwnerID, cut)
		ts.TaxCollected += cut
		w.auditEvent(tick, ts.OwnerID, "COLLECT_TAX", territoryID, 0, map[string]any{"gross": gross, "tax": cut})
	}
	return TaxResult{OwnerID: ts.OwnerID, Tax: cut}
}

// ResetCycle is the periodic world reset: every owner is paid a quarter
// of their claim cost back, all ownership, defense and tax counters are
// cleared, and every non-terminal war is force-cancelled into history.
// It runs to completion inside one operation, so no caller ever observes
// a half-reset world.
func (w *World) ResetCycle(tick uint64) ResetResult {
	res := ResetResult{OpResult: opOK()}

	for _, id := range w.catalogs.Territories.IDs {
		ts := w.territories[id]
		if ts.OwnerID != "" {
			def := w.catalogs.Territories.ByID[id]
			refund := territory.ResetRefund(territory.ClaimCost(def.Value))
			w.ledger.Credit(ts.OwnerID, refund)
			res.RefundsPaid += refund
			res.TerritoriesCleared++
		}
		ts.OwnerID = ""
		ts.ClaimedAtTick = 0
		ts.TaxCollected = 0
		ts.DefenseLevel = 0
		ts.Fortifications = nil
	}

	ids := make([]uint64, 0, len(w.wars))
	for id := range w.wars {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		war := w.wars[id]
		war.Status = warfare.StatusCancelled
		war.EndedAtTick = tick
		w.retireWar(war)
		res.WarsCancelled++
	}

	w.auditEvent(tick, "WORLD", "RESET_CYCLE", "", 0, map[string]any{
		"territories_cleared": res.TerritoriesCleared,
		"refunds_paid":        res.RefundsPaid,
		"wars_cancelled":      res.WarsCancelled,
	})
	return res
}
