package world

import (
	"encoding/json"

	"zion.world/internal/protocol"
)

// applyAct translates one protocol command into a core operation. The
// acting guild is always the player's own; clients never pick a guild to
// act as.
func (w *World) applyAct(playerID string, act protocol.ActMsg, nowTick uint64) []protocol.Event {
	guild := w.members.GuildOf(playerID)

	switch act.Action {
	case protocol.ActClaimTerritory:
		res := w.Claim(guild, act.TerritoryID, nowTick)
		ev := actionResult(nowTick, act.ID, res.OK, res.Code, res.Message)
		if res.OK {
			ev["territory_id"] = res.TerritoryID
			ev["cost"] = res.Cost
		}
		return []protocol.Event{ev}

	case protocol.ActAbandonTerritory:
		res := w.Abandon(guild, act.TerritoryID, nowTick)
		ev := actionResult(nowTick, act.ID, res.OK, res.Code, res.Message)
		if res.OK {
			ev["territory_id"] = res.TerritoryID
			ev["refund"] = res.Refund
		}
		return []protocol.Event{ev}

	case protocol.ActUpgradeDefense:
		res := w.UpgradeDefense(guild, act.TerritoryID, act.ExpectedCost, nowTick)
		ev := actionResult(nowTick, act.ID, res.OK, res.Code, res.Message)
		if res.OK {
			ev["territory_id"] = res.TerritoryID
			ev["defense_level"] = res.NewLevel
			ev["cost"] = res.Cost
		}
		return []protocol.Event{ev}

	case protocol.ActDeclareWar:
		res := w.DeclareWar(guild, act.DefenderID, act.TerritoryID, nowTick)
		ev := actionResult(nowTick, act.ID, res.OK, res.Code, res.Message)
		if res.OK {
			ev["war_id"] = res.WarID
			ev["battle_tick"] = res.BattleTick
			if war := w.wars[res.WarID]; war != nil {
				w.broadcast(nowTick, warEvent(nowTick, "DECLARED", war))
			}
		}
		return []protocol.Event{ev}

	case protocol.ActCancelWar:
		res := w.CancelWar(guild, act.WarID, nowTick)
		ev := actionResult(nowTick, act.ID, res.OK, res.Code, res.Message)
		if res.OK {
			ev["war_id"] = res.WarID
		}
		return []protocol.Event{ev}

	case protocol.ActJoinBattle:
		res := w.JoinBattle(playerID, act.WarID, act.Side, nowTick)
		ev := actionResult(nowTick, act.ID, res.OK, res.Code, res.Message)
		if res.OK {
			ev["war_id"] = res.WarID
			ev["side"] = string(res.Side)
		}
		return []protocol.Event{ev}

	case protocol.ActContributeEffort:
		res := w.ContributeWarEffort(playerID, act.WarID, act.Points, nowTick)
		ev := actionResult(nowTick, act.ID, res.OK, res.Code, res.Message)
		if res.OK {
			ev["war_id"] = res.WarID
			ev["side"] = string(res.Side)
			ev["force"] = res.NewForce
		}
		return []protocol.Event{ev}

	case protocol.ActGetTerritory:
		info, ok := w.Territory(act.TerritoryID)
		if !ok {
			return []protocol.Event{actionResult(nowTick, act.ID, false, protocol.ErrNotFound, "unknown territory")}
		}
		ev := actionResult(nowTick, act.ID, true, "", "")
		ev["territory"] = info
		return []protocol.Event{ev}

	case protocol.ActGetZone:
		ev := actionResult(nowTick, act.ID, true, "", "")
		ev["territories"] = w.TerritoriesByZone(act.Zone)
		return []protocol.Event{ev}

	case protocol.ActGetMap:
		ev := actionResult(nowTick, act.ID, true, "", "")
		ev["territories"] = w.FullMap()
		return []protocol.Event{ev}

	case protocol.ActGetGuildPower:
		target := act.GuildID
		if target == "" {
			target = guild
		}
		ev := actionResult(nowTick, act.ID, true, "", "")
		ev["power"] = w.GuildPowerScore(target)
		ev["record"] = w.GuildWarRecord(target)
		return []protocol.Event{ev}

	case protocol.ActGetWars:
		ev := actionResult(nowTick, act.ID, true, "", "")
		ev["wars"] = w.ActiveWars()
		return []protocol.Event{ev}

	case protocol.ActGetWar:
		view, ok := w.WarByID(act.WarID)
		if !ok {
			return []protocol.Event{actionResult(nowTick, act.ID, false, protocol.ErrNotFound, "unknown war")}
		}
		ev := actionResult(nowTick, act.ID, true, "", "")
		ev["war"] = view
		return []protocol.Event{ev}

	case protocol.ActGetWarHistory:
		target := act.GuildID
		if target == "" {
			target = guild
		}
		ev := actionResult(nowTick, act.ID, true, "", "")
		ev["wars"] = w.WarHistoryByGuild(target)
		return []protocol.Event{ev}
	}

	return []protocol.Event{actionResult(nowTick, act.ID, false, protocol.ErrBadRequest, "unknown action")}
}

func actionResult(tick uint64, ref string, ok bool, code string, message string) protocol.Event {
	e := protocol.Event{
		"t":    tick,
		"type": "ACTION_RESULT",
		"ref":  ref,
		"ok":   ok,
	}
	if code != "" {
		e["code"] = code
	}
	if message != "" {
		e["message"] = message
	}
	return e
}

func warEvent(tick uint64, kind string, war *War) protocol.Event {
	return protocol.Event{
		"t":            tick,
		"type":         "WAR",
		"kind":         kind,
		"war_id":       war.ID,
		"territory_id": war.TerritoryID,
		"attacker_id":  war.AttackerID,
		"defender_id":  war.DefenderID,
		"battle_tick":  war.BattleTick,
		"status":       string(war.Status),
	}
}

func (w *World) broadcastResolved(tick uint64, war *War, res ResolveResult) {
	ev := warEvent(tick, "RESOLVED", war)
	ev["result"] = string(res.Result)
	ev["loot"] = res.Loot
	ev["transferred"] = res.Transferred
	w.broadcast(tick, ev)
}

func encodeEventMsg(tick uint64, events []protocol.Event) []byte {
	b, _ := json.Marshal(protocol.EventMsg{
		Type:            protocol.TypeEvent,
		ProtocolVersion: protocol.Version,
		Tick:            tick,
		Events:          events,
	})
	return b
}
