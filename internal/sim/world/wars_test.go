package world

import (
	"math"
	"testing"

	"zion.world/internal/protocol"
	"zion.world/internal/sim/world/feature/warfare"
)

func TestDeclareWar(t *testing.T) {
	w, ledger, _ := newTestWorld(t)
	mustClaim(t, w, ledger, "g2", "gardens_terrace", 1)
	ledger.Credit("g1", 500)

	res := w.DeclareWar("g1", "g2", "gardens_terrace", 100)
	if !res.OK {
		t.Fatalf("declare: %s %s", res.Code, res.Message)
	}
	if res.BattleTick != 800 {
		t.Fatalf("battle tick = %d, want 800", res.BattleTick)
	}
	if got := ledger.Balance("g1"); got != 300 {
		t.Fatalf("war tax not debited: balance %d", got)
	}
	war := w.wars[res.WarID]
	if war == nil || war.Status != warfare.StatusDeclared {
		t.Fatalf("war state: %+v", war)
	}

	// One non-terminal war per territory.
	ledger.Credit("g3", 500)
	if res := w.DeclareWar("g3", "g2", "gardens_terrace", 101); res.OK || res.Code != protocol.ErrInvalidState {
		t.Fatalf("second declaration: got %+v", res.OpResult)
	}
}

func TestDeclareWarGuards(t *testing.T) {
	w, ledger, _ := newTestWorld(t)
	mustClaim(t, w, ledger, "g2", "gardens_terrace", 1)
	ledger.Credit("g1", 1000)
	ledger.Credit("g2", 1000)

	if res := w.DeclareWar("", "g2", "gardens_terrace", 2); res.OK || res.Code != protocol.ErrBadRequest {
		t.Fatalf("empty attacker: %+v", res.OpResult)
	}
	if res := w.DeclareWar("g2", "g2", "gardens_terrace", 2); res.OK || res.Code != protocol.ErrBadRequest {
		t.Fatalf("self war: %+v", res.OpResult)
	}
	if res := w.DeclareWar("g1", "g2", "atlantis", 2); res.OK || res.Code != protocol.ErrNotFound {
		t.Fatalf("unknown territory: %+v", res.OpResult)
	}
	if res := w.DeclareWar("g1", "g2", "wilds_frontier", 2); res.OK || res.Code != protocol.ErrBadRequest {
		t.Fatalf("unclaimed territory: %+v", res.OpResult)
	}
	if res := w.DeclareWar("g1", "g3", "gardens_terrace", 2); res.OK || res.Code != protocol.ErrBadRequest {
		t.Fatalf("wrong defender: %+v", res.OpResult)
	}
	if res := w.DeclareWar("g4", "g2", "gardens_terrace", 2); res.OK || res.Code != protocol.ErrNoFunds {
		t.Fatalf("broke attacker: %+v", res.OpResult)
	}
}

func TestDeclareWarOwnershipCap(t *testing.T) {
	w, ledger, _ := newTestWorld(t)
	mustClaim(t, w, ledger, "g1", "nexus_plaza", 1)
	mustClaim(t, w, ledger, "g1", "agora_market", 1)
	mustClaim(t, w, ledger, "g1", "wilds_frontier", 1)
	mustClaim(t, w, ledger, "g2", "gardens_terrace", 1)
	ledger.Credit("g1", 1000)

	// A guild at the cap cannot open a conquest; winning it would hand
	// them a fourth territory.
	before := ledger.Balance("g1")
	if res := w.DeclareWar("g1", "g2", "gardens_terrace", 10); res.OK || res.Code != protocol.ErrLimitExceeded {
		t.Fatalf("declare at cap: %+v", res.OpResult)
	}
	if got := ledger.Balance("g1"); got != before {
		t.Fatalf("war tax moved on rejected declaration: %d", got)
	}

	// Abandoning a holding frees a conquest slot.
	if res := w.Abandon("g1", "wilds_frontier", 11); !res.OK {
		t.Fatalf("abandon: %s", res.Code)
	}
	dec := w.DeclareWar("g1", "g2", "gardens_terrace", 12)
	if !dec.OK {
		t.Fatalf("declare after abandon: %s %s", dec.Code, dec.Message)
	}

	// The allowed conquest never exceeds the cap either.
	w.tickWars(dec.BattleTick)
	if res := w.ResolveBattle(dec.WarID, 42); !res.OK {
		t.Fatalf("resolve: %s", res.Code)
	}
	if n := w.ownedCount("g1"); n > 3 {
		t.Fatalf("guild owns %d territories after conquest", n)
	}
}

func TestDeclareWarCountsPendingConquests(t *testing.T) {
	w, ledger, _ := newTestWorld(t)
	mustClaim(t, w, ledger, "g1", "nexus_plaza", 1)
	mustClaim(t, w, ledger, "g1", "agora_market", 1)
	mustClaim(t, w, ledger, "g2", "gardens_terrace", 1)
	mustClaim(t, w, ledger, "g2", "wilds_haven", 1)
	ledger.Credit("g1", 1000)

	if res := w.DeclareWar("g1", "g2", "gardens_terrace", 10); !res.OK {
		t.Fatalf("first declaration: %s %s", res.Code, res.Message)
	}
	// Two held plus one pending conquest fills the cap.
	if res := w.DeclareWar("g1", "g2", "wilds_haven", 11); res.OK || res.Code != protocol.ErrLimitExceeded {
		t.Fatalf("second declaration: %+v", res.OpResult)
	}
}

func TestCancelWar(t *testing.T) {
	w, ledger, _ := newTestWorld(t)
	mustClaim(t, w, ledger, "g2", "gardens_terrace", 1)
	ledger.Credit("g1", 500)

	dec := w.DeclareWar("g1", "g2", "gardens_terrace", 10)
	if !dec.OK {
		t.Fatalf("declare: %s", dec.Code)
	}

	if res := w.CancelWar("g2", dec.WarID, 11); res.OK || res.Code != protocol.ErrNoPermission {
		t.Fatalf("defender cancelling: %+v", res.OpResult)
	}

	taxedBalance := ledger.Balance("g1")
	if res := w.CancelWar("g1", dec.WarID, 12); !res.OK {
		t.Fatalf("cancel: %s %s", res.Code, res.Message)
	}
	if got := ledger.Balance("g1"); got != taxedBalance {
		t.Fatalf("cancel refunded the war tax: %d", got)
	}
	if len(w.wars) != 0 || len(w.warHistory) != 1 {
		t.Fatalf("war not retired: %d active, %d history", len(w.wars), len(w.warHistory))
	}
	if w.warHistory[0].Status != warfare.StatusCancelled {
		t.Fatalf("history status = %s", w.warHistory[0].Status)
	}

	if res := w.CancelWar("g1", dec.WarID, 13); res.OK || res.Code != protocol.ErrInvalidState {
		t.Fatalf("cancelling a settled war: %+v", res.OpResult)
	}

	// The territory is free for a new declaration once the war is terminal.
	ledger.Credit("g1", 500)
	if res := w.DeclareWar("g1", "g2", "gardens_terrace", 14); !res.OK {
		t.Fatalf("redeclare after cancel: %s %s", res.Code, res.Message)
	}
}

func TestCancelAfterArmedFails(t *testing.T) {
	w, ledger, _ := newTestWorld(t)
	mustClaim(t, w, ledger, "g2", "gardens_terrace", 1)
	ledger.Credit("g1", 500)
	dec := w.DeclareWar("g1", "g2", "gardens_terrace", 10)

	if armed := w.tickWars(dec.BattleTick - 1); len(armed) != 0 {
		t.Fatalf("war armed before its battle tick")
	}
	armed := w.tickWars(dec.BattleTick)
	if len(armed) != 1 || armed[0].Status != warfare.StatusBattleReady {
		t.Fatalf("war did not arm at battle tick: %+v", armed)
	}

	if res := w.CancelWar("g1", dec.WarID, dec.BattleTick+1); res.OK || res.Code != protocol.ErrInvalidState {
		t.Fatalf("cancel after arming: %+v", res.OpResult)
	}
}

func TestJoinBattle(t *testing.T) {
	w, ledger, members := newTestWorld(t)
	mustClaim(t, w, ledger, "g2", "gardens_terrace", 1)
	ledger.Credit("g1", 500)
	dec := w.DeclareWar("g1", "g2", "gardens_terrace", 10)

	members.SetGuild("alice", "g1")
	members.SetGuild("bob", "g2")
	members.SetGuild("mallory", "g3")

	if res := w.JoinBattle("alice", dec.WarID, "north", 11); res.OK || res.Code != protocol.ErrBadRequest {
		t.Fatalf("bad side: %+v", res.OpResult)
	}
	if res := w.JoinBattle("nobody", dec.WarID, "attacker", 11); res.OK || res.Code != protocol.ErrNoPermission {
		t.Fatalf("guildless player: %+v", res.OpResult)
	}
	if res := w.JoinBattle("mallory", dec.WarID, "attacker", 11); res.OK || res.Code != protocol.ErrNoPermission {
		t.Fatalf("third-party guild: %+v", res.OpResult)
	}
	if res := w.JoinBattle("alice", dec.WarID, "defender", 11); res.OK || res.Code != protocol.ErrNoPermission {
		t.Fatalf("attacker joining defense: %+v", res.OpResult)
	}

	if res := w.JoinBattle("alice", dec.WarID, "attacker", 11); !res.OK || res.Side != warfare.SideAttacker {
		t.Fatalf("join attacker: %+v", res)
	}
	if res := w.JoinBattle("alice", dec.WarID, "attacker", 12); res.OK || res.Code != protocol.ErrInvalidState {
		t.Fatalf("double join: %+v", res.OpResult)
	}
	if res := w.JoinBattle("bob", dec.WarID, "defender", 12); !res.OK || res.Side != warfare.SideDefender {
		t.Fatalf("join defender: %+v", res)
	}

	// Joining stays open while the war is merely armed.
	w.tickWars(dec.BattleTick)
	members.SetGuild("carol", "g2")
	if res := w.JoinBattle("carol", dec.WarID, "DEFENDER", dec.BattleTick); !res.OK {
		t.Fatalf("join after arming: %s %s", res.Code, res.Message)
	}
}

func TestContributeEffort(t *testing.T) {
	w, ledger, members := newTestWorld(t)
	mustClaim(t, w, ledger, "g2", "gardens_terrace", 1)
	ledger.Credit("g1", 500)
	dec := w.DeclareWar("g1", "g2", "gardens_terrace", 10)

	members.SetGuild("alice", "g1")
	members.SetGuild("bob", "g2")
	members.SetGuild("mallory", "g3")

	if res := w.ContributeWarEffort("alice", dec.WarID, 0, 11); res.OK || res.Code != protocol.ErrBadRequest {
		t.Fatalf("zero points: %+v", res.OpResult)
	}
	if res := w.ContributeWarEffort("alice", dec.WarID, -5, 11); res.OK || res.Code != protocol.ErrBadRequest {
		t.Fatalf("negative points: %+v", res.OpResult)
	}
	if res := w.ContributeWarEffort("alice", dec.WarID, math.NaN(), 11); res.OK || res.Code != protocol.ErrBadRequest {
		t.Fatalf("NaN points: %+v", res.OpResult)
	}
	if res := w.ContributeWarEffort("mallory", dec.WarID, 10, 11); res.OK || res.Code != protocol.ErrNoPermission {
		t.Fatalf("outsider contribution: %+v", res.OpResult)
	}

	// Guild membership alone is enough; joining the roster is optional.
	res := w.ContributeWarEffort("alice", dec.WarID, 40, 12)
	if !res.OK || res.Side != warfare.SideAttacker || res.NewForce != 40 {
		t.Fatalf("attacker contribution: %+v", res)
	}
	res = w.ContributeWarEffort("bob", dec.WarID, 25.5, 12)
	if !res.OK || res.Side != warfare.SideDefender || res.NewForce != 25.5 {
		t.Fatalf("defender contribution: %+v", res)
	}
	res = w.ContributeWarEffort("alice", dec.WarID, 10, 13)
	if !res.OK || res.NewForce != 50 {
		t.Fatalf("force accumulation: %+v", res)
	}

	war := w.wars[dec.WarID]
	if war.AttackerForce != 50 || war.DefenderForce != 25.5 {
		t.Fatalf("forces = %v / %v", war.AttackerForce, war.DefenderForce)
	}
}
