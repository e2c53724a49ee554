package world

import (
	"path/filepath"
	"testing"

	"zion.world/internal/persistence/snapshot"
	"zion.world/internal/sim/world/feature/warfare"
)

func TestSnapshotRoundTrip(t *testing.T) {
	w, ledger, members := newTestWorld(t)
	mustClaim(t, w, ledger, "g1", "nexus_plaza", 5)
	mustClaim(t, w, ledger, "g2", "gardens_terrace", 6)
	ledger.Credit("g1", 900)
	w.UpgradeDefense("g1", "nexus_plaza", 0, 7)
	members.SetGuild("alice", "g1")
	members.SetGuild("bob", "g2")

	dec := w.DeclareWar("g1", "g2", "gardens_terrace", 10)
	w.JoinBattle("alice", dec.WarID, "attacker", 11)
	w.ContributeWarEffort("alice", dec.WarID, 77.5, 12)
	w.CollectTax("nexus_plaza", 200, 13)

	w.tick.Store(13)
	snap := w.ExportSnapshot(13)
	if snap.Header.Tick != 13 || snap.Header.WorldID != "test-world" {
		t.Fatalf("snapshot header: %+v", snap.Header)
	}
	if len(snap.Territories) != 16 || len(snap.Wars) != 1 {
		t.Fatalf("snapshot sizes: %d territories, %d wars", len(snap.Territories), len(snap.Wars))
	}

	path := filepath.Join(t.TempDir(), "world.snap.zst")
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	loaded, err := snapshot.ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}

	w2, ledger2, members2 := newTestWorld(t)
	w2.RestoreSnapshot(loaded)

	if w2.CurrentTick() != 13 {
		t.Fatalf("restored tick = %d", w2.CurrentTick())
	}
	ts := w2.territories["nexus_plaza"]
	if ts.OwnerID != "g1" || ts.DefenseLevel != 1 || ts.TaxCollected != 30 {
		t.Fatalf("restored territory: %+v", ts)
	}
	if len(ts.Fortifications) != 1 || ts.Fortifications[0].Cost != 200 {
		t.Fatalf("restored fortifications: %+v", ts.Fortifications)
	}

	war := w2.wars[dec.WarID]
	if war == nil {
		t.Fatalf("war lost in round trip")
	}
	if war.Status != warfare.StatusDeclared || war.AttackerForce != 77.5 || !war.Attackers["alice"] {
		t.Fatalf("restored war: %+v", war)
	}

	if got := ledger2.Balance("g1"); got != ledger.Balance("g1") {
		t.Fatalf("restored treasury = %d, want %d", got, ledger.Balance("g1"))
	}
	if members2.GuildOf("bob") != "g2" {
		t.Fatalf("restored membership lost bob")
	}

	// War id counter resumes past the snapshot.
	ledger2.Credit("g2", 200)
	dec2 := w2.DeclareWar("g2", "g1", "nexus_plaza", 14)
	if !dec2.OK || dec2.WarID != dec.WarID+1 {
		t.Fatalf("war counter after restore: %+v", dec2)
	}
}
