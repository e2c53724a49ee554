package world

import (
	"fmt"

	"zion.world/internal/protocol"
	"zion.world/internal/sim/world/feature/warfare"
)

// ResolveBattle finalizes a war. The outcome is a pure function of the
// war state, the territory's defense level, the defender's treasury and
// the seed: replaying with the same seed must reproduce the same winner
// and the same loot. Pass seed 0 to fall back to the declaration tick.
func (w *World) ResolveBattle(warID uint64, seed int64) ResolveResult {
	war := w.wars[warID]
	if war == nil {
		if w.warInHistory(warID) != nil {
			return ResolveResult{OpResult: opFail(protocol.ErrInvalidState, "war already settled")}
		}
		return ResolveResult{OpResult: opFail(protocol.ErrNotFound, fmt.Sprintf("unknown war: %d", warID))}
	}

	war.Status = warfare.StatusInBattle

	ts := w.territories[war.TerritoryID]
	out := warfare.Decide(warfare.BattleInput{
		AttackerForce: war.AttackerForce,
		DefenderForce: war.DefenderForce,
		DefenseLevel:  ts.DefenseLevel,
		Seed:          warfare.EffectiveSeed(seed, war.DeclaredAtTick),
	}, w.tiebreak)

	res := ResolveResult{
		OpResult:          opOK(),
		WarID:             warID,
		Result:            out.Result,
		Roll:              out.Roll,
		EffectiveAttacker: out.EffectiveAttacker,
		EffectiveDefender: out.EffectiveDefender,
	}

	if out.Result == warfare.ResultAttackerWins {
		loot := warfare.Loot(w.ledger.Balance(war.DefenderID))
		if loot > 0 {
			w.ledger.Debit(war.DefenderID, loot)
			w.ledger.Credit(war.AttackerID, loot)
		}
		ts.OwnerID = war.AttackerID
		ts.ClaimedAtTick = war.BattleTick
		ts.DefenseLevel = 0
		ts.Fortifications = nil

		res.Transferred = true
		res.Loot = loot
	}

	now := w.tick.Load()
	war.Status = warfare.StatusResolved
	war.Result = out.Result
	war.Loot = res.Loot
	war.Transferred = res.Transferred
	war.EndedAtTick = now
	w.retireWar(war)

	w.auditEvent(now, "WORLD", "RESOLVE_BATTLE", war.TerritoryID, war.ID, map[string]any{
		"result":      string(out.Result),
		"loot":        res.Loot,
		"transferred": res.Transferred,
	})
	return res
}
