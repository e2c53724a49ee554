package world

import (
	"encoding/json"
	"testing"

	"zion.world/internal/protocol"
)

func TestApplyActClaim(t *testing.T) {
	w, ledger, members := newTestWorld(t)
	members.SetGuild("alice", "g1")
	ledger.Credit("g1", 500)

	events := w.applyAct("alice", protocol.ActMsg{
		ID:          "req-1",
		Action:      protocol.ActClaimTerritory,
		TerritoryID: "nexus_plaza",
	}, 5)
	if len(events) != 1 {
		t.Fatalf("got %d events", len(events))
	}
	ev := events[0]
	if ev["type"] != "ACTION_RESULT" || ev["ref"] != "req-1" || ev["ok"] != true {
		t.Fatalf("result event: %+v", ev)
	}
	if ev["cost"] != 500 {
		t.Fatalf("cost field: %+v", ev["cost"])
	}
	if _, present := ev["code"]; present {
		t.Fatalf("success carried an error code")
	}
}

func TestApplyActFailureCarriesCode(t *testing.T) {
	w, _, members := newTestWorld(t)
	members.SetGuild("alice", "g1")

	events := w.applyAct("alice", protocol.ActMsg{
		ID:          "req-2",
		Action:      protocol.ActClaimTerritory,
		TerritoryID: "nexus_plaza",
	}, 5)
	ev := events[0]
	if ev["ok"] != false || ev["code"] != protocol.ErrNoFunds {
		t.Fatalf("result event: %+v", ev)
	}
	if ev["message"] == "" {
		t.Fatalf("failure without message")
	}
}

func TestApplyActGuildlessPlayer(t *testing.T) {
	w, _, _ := newTestWorld(t)

	events := w.applyAct("drifter", protocol.ActMsg{
		ID:          "req-3",
		Action:      protocol.ActClaimTerritory,
		TerritoryID: "nexus_plaza",
	}, 5)
	if ev := events[0]; ev["ok"] != false || ev["code"] != protocol.ErrBadRequest {
		t.Fatalf("guildless claim: %+v", ev)
	}
}

func TestApplyActQueries(t *testing.T) {
	w, ledger, members := newTestWorld(t)
	members.SetGuild("alice", "g1")
	mustClaim(t, w, ledger, "g1", "nexus_plaza", 1)

	events := w.applyAct("alice", protocol.ActMsg{ID: "q1", Action: protocol.ActGetMap}, 2)
	if territories, ok := events[0]["territories"].([]TerritoryInfo); !ok || len(territories) != 16 {
		t.Fatalf("GET_MAP event: %+v", events[0])
	}

	events = w.applyAct("alice", protocol.ActMsg{ID: "q2", Action: protocol.ActGetTerritory, TerritoryID: "nowhere"}, 2)
	if ev := events[0]; ev["ok"] != false || ev["code"] != protocol.ErrNotFound {
		t.Fatalf("GET_TERRITORY on unknown id: %+v", ev)
	}

	// GET_GUILD_POWER defaults to the caller's own guild.
	events = w.applyAct("alice", protocol.ActMsg{ID: "q3", Action: protocol.ActGetGuildPower}, 2)
	power, ok := events[0]["power"].(GuildPower)
	if !ok || power.GuildID != "g1" || power.Territories != 1 {
		t.Fatalf("GET_GUILD_POWER event: %+v", events[0])
	}

	events = w.applyAct("alice", protocol.ActMsg{ID: "q4", Action: "DANCE"}, 2)
	if ev := events[0]; ev["ok"] != false || ev["code"] != protocol.ErrBadRequest {
		t.Fatalf("unknown action: %+v", ev)
	}
}

func TestEncodeEventMsg(t *testing.T) {
	b := encodeEventMsg(7, []protocol.Event{{"type": "ACTION_RESULT", "ok": true}})

	var msg protocol.EventMsg
	if err := json.Unmarshal(b, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != protocol.TypeEvent || msg.ProtocolVersion != protocol.Version || msg.Tick != 7 {
		t.Fatalf("envelope: %+v", msg)
	}
	if len(msg.Events) != 1 || msg.Events[0]["ok"] != true {
		t.Fatalf("events: %+v", msg.Events)
	}
}
