package world

import (
	"fmt"
	"sort"

	"zion.world/internal/protocol"
	"zion.world/internal/sim/world/feature/warfare"
)

// activeWarOnTerritory enforces the one-non-terminal-war-per-territory
// invariant.
func (w *World) activeWarOnTerritory(territoryID string) *War {
	for _, war := range w.wars {
		if war.TerritoryID == territoryID {
			return war
		}
	}
	return nil
}

// attackingWarCount counts the wars a guild is currently prosecuting.
// Each one reserves a slot under the ownership cap so a won battle can
// never push the guild past it.
func (w *World) attackingWarCount(guildID string) int {
	n := 0
	for _, war := range w.wars {
		if war.AttackerID == guildID {
			n++
		}
	}
	return n
}

// warInHistory is only consulted to distinguish "settled" from "never
// existed" in failure messages.
func (w *World) warInHistory(warID uint64) *War {
	for _, war := range w.warHistory {
		if war.ID == warID {
			return war
		}
	}
	return nil
}

// retireWar moves a terminal war out of the active set. History is
// append-only; nothing mutates a war after this point.
func (w *World) retireWar(war *War) {
	delete(w.wars, war.ID)
	w.warHistory = append(w.warHistory, war)
	w.recordWar(war)
}

// DeclareWar opens a war against the guild currently holding a
// territory. The war tax is non-refundable, whatever happens later.
func (w *World) DeclareWar(attackerID, defenderID, territoryID string, tick uint64) DeclareResult {
	if attackerID == "" || defenderID == "" {
		return DeclareResult{OpResult: opFail(protocol.ErrBadRequest, "missing guild id")}
	}
	if attackerID == defenderID {
		return DeclareResult{OpResult: opFail(protocol.ErrBadRequest, "cannot declare war on yourself")}
	}
	if _, ok := w.territoryDef(territoryID); !ok {
		return DeclareResult{OpResult: opFail(protocol.ErrNotFound, fmt.Sprintf("unknown territory: %s", territoryID))}
	}
	ts := w.territories[territoryID]
	if ts.OwnerID == "" {
		return DeclareResult{OpResult: opFail(protocol.ErrBadRequest, "territory is unclaimed; claim it instead")}
	}
	if ts.OwnerID != defenderID {
		return DeclareResult{OpResult: opFail(protocol.ErrBadRequest, fmt.Sprintf("territory is owned by %s, not %s", ts.OwnerID, defenderID))}
	}
	if existing := w.activeWarOnTerritory(territoryID); existing != nil {
		return DeclareResult{OpResult: opFail(protocol.ErrInvalidState, fmt.Sprintf("war %d already active on this territory", existing.ID))}
	}
	limit := w.catalogs.Territories.OwnershipCap
	if w.ownedCount(attackerID)+w.attackingWarCount(attackerID) >= limit {
		return DeclareResult{OpResult: opFail(protocol.ErrLimitExceeded, fmt.Sprintf("conquest would push the guild past %d territories", limit))}
	}
	if w.ledger.Balance(attackerID) < w.cfg.WarTax {
		return DeclareResult{OpResult: opFail(protocol.ErrNoFunds, fmt.Sprintf("war tax is %d", w.cfg.WarTax))}
	}

	w.ledger.Debit(attackerID, w.cfg.WarTax)
	war := &War{
		ID:             w.nextWarNum.Add(1),
		AttackerID:     attackerID,
		DefenderID:     defenderID,
		TerritoryID:    territoryID,
		DeclaredAtTick: tick,
		BattleTick:     tick + w.cfg.NoticeTicks,
		Status:         warfare.StatusDeclared,
		Attackers:      map[string]bool{},
		Defenders:      map[string]bool{},
	}
	w.wars[war.ID] = war

	w.auditEvent(tick, attackerID, "DECLARE_WAR", territoryID, war.ID, map[string]any{
		"defender":    defenderID,
		"battle_tick": war.BattleTick,
		"war_tax":     w.cfg.WarTax,
	})
	return DeclareResult{OpResult: opOK(), WarID: war.ID, BattleTick: war.BattleTick}
}

// CancelWar lets the attacker call off a war that has not armed yet.
// The war tax stays spent.
func (w *World) CancelWar(callerGuildID string, warID uint64, tick uint64) CancelResult {
	war := w.wars[warID]
	if war == nil {
		if w.warInHistory(warID) != nil {
			return CancelResult{OpResult: opFail(protocol.ErrInvalidState, "war already settled")}
		}
		return CancelResult{OpResult: opFail(protocol.ErrNotFound, fmt.Sprintf("unknown war: %d", warID))}
	}
	if war.AttackerID != callerGuildID {
		return CancelResult{OpResult: opFail(protocol.ErrNoPermission, "only the attacker may cancel")}
	}
	if !warfare.CanCancel(war.Status) {
		return CancelResult{OpResult: opFail(protocol.ErrInvalidState, fmt.Sprintf("war is %s", war.Status))}
	}

	war.Status = warfare.StatusCancelled
	war.EndedAtTick = tick
	w.retireWar(war)

	w.auditEvent(tick, callerGuildID, "CANCEL_WAR", war.TerritoryID, war.ID, nil)
	return CancelResult{OpResult: opOK(), WarID: warID}
}

// JoinBattle puts a player on a war roster. Joining requires membership
// in the side's guild and closes once the battle starts.
func (w *World) JoinBattle(playerID string, warID uint64, sideRaw string, tick uint64) JoinBattleResult {
	side, ok := warfare.ParseSide(sideRaw)
	if !ok {
		return JoinBattleResult{OpResult: opFail(protocol.ErrBadRequest, fmt.Sprintf("bad side: %q", sideRaw))}
	}
	war := w.wars[warID]
	if war == nil {
		if w.warInHistory(warID) != nil {
			return JoinBattleResult{OpResult: opFail(protocol.ErrInvalidState, "war already settled")}
		}
		return JoinBattleResult{OpResult: opFail(protocol.ErrNotFound, fmt.Sprintf("unknown war: %d", warID))}
	}
	if !warfare.CanJoin(war.Status) {
		return JoinBattleResult{OpResult: opFail(protocol.ErrInvalidState, fmt.Sprintf("war is %s", war.Status))}
	}
	guild := w.members.GuildOf(playerID)
	if guild == "" {
		return JoinBattleResult{OpResult: opFail(protocol.ErrNoPermission, "player is not in a guild")}
	}
	sideGuild := war.AttackerID
	if side == warfare.SideDefender {
		sideGuild = war.DefenderID
	}
	if guild != sideGuild {
		return JoinBattleResult{OpResult: opFail(protocol.ErrNoPermission, fmt.Sprintf("player is in %s, not %s", guild, sideGuild))}
	}
	if war.Attackers[playerID] || war.Defenders[playerID] {
		return JoinBattleResult{OpResult: opFail(protocol.ErrInvalidState, "player already joined this war")}
	}

	if side == warfare.SideAttacker {
		war.Attackers[playerID] = true
	} else {
		war.Defenders[playerID] = true
	}

	w.auditEvent(tick, playerID, "JOIN_BATTLE", war.TerritoryID, war.ID, map[string]any{"side": string(side)})
	return JoinBattleResult{OpResult: opOK(), WarID: warID, Side: side}
}

// ContributeWarEffort accumulates force for one side. Roster membership
// wins; otherwise the side is inferred from guild membership, so effort
// does not require a formal join (see DESIGN.md on this asymmetry).
func (w *World) ContributeWarEffort(playerID string, warID uint64, points float64, tick uint64) ContributeResult {
	if !(points > 0) {
		return ContributeResult{OpResult: opFail(protocol.ErrBadRequest, "points must be positive")}
	}
	war := w.wars[warID]
	if war == nil {
		if w.warInHistory(warID) != nil {
			return ContributeResult{OpResult: opFail(protocol.ErrInvalidState, "war already settled")}
		}
		return ContributeResult{OpResult: opFail(protocol.ErrNotFound, fmt.Sprintf("unknown war: %d", warID))}
	}
	if !warfare.CanContribute(war.Status) {
		return ContributeResult{OpResult: opFail(protocol.ErrInvalidState, fmt.Sprintf("war is %s", war.Status))}
	}

	var side warfare.Side
	switch {
	case war.Attackers[playerID]:
		side = warfare.SideAttacker
	case war.Defenders[playerID]:
		side = warfare.SideDefender
	default:
		switch w.members.GuildOf(playerID) {
		case war.AttackerID:
			side = warfare.SideAttacker
		case war.DefenderID:
			side = warfare.SideDefender
		default:
			return ContributeResult{OpResult: opFail(protocol.ErrNoPermission, "player belongs to neither side")}
		}
	}

	var newForce float64
	if side == warfare.SideAttacker {
		war.AttackerForce += points
		newForce = war.AttackerForce
	} else {
		war.DefenderForce += points
		newForce = war.DefenderForce
	}

	w.auditEvent(tick, playerID, "CONTRIBUTE_EFFORT", war.TerritoryID, war.ID, map[string]any{
		"side":   string(side),
		"points": points,
	})
	return ContributeResult{OpResult: opOK(), WarID: warID, Side: side, NewForce: newForce}
}

// tickWars flips declared wars to BATTLE_READY once their battle tick
// arrives. The returned slice is ordered by war id for determinism.
func (w *World) tickWars(nowTick uint64) []*War {
	if len(w.wars) == 0 {
		return nil
	}
	ids := make([]uint64, 0, len(w.wars))
	for id := range w.wars {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var armed []*War
	for _, id := range ids {
		war := w.wars[id]
		if warfare.ShouldArm(war.Status, nowTick, war.BattleTick) {
			war.Status = warfare.StatusBattleReady
			armed = append(armed, war)
			w.auditEvent(nowTick, "WORLD", "WAR_ARMED", war.TerritoryID, war.ID, nil)
		}
	}
	return armed
}
