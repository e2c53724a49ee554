package world

import (
	"testing"

	"zion.world/internal/sim/catalogs"
	"zion.world/internal/sim/economy"
)

func newTestWorld(t *testing.T) (*World, *economy.MemoryLedger, *economy.MemoryDirectory) {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	ledger := economy.NewMemoryLedger()
	members := economy.NewMemoryDirectory()
	w := New(WorldConfig{ID: "test-world"}, cats, ledger, members)
	return w, ledger, members
}

// mustClaim funds the guild just enough and claims, failing the test on
// any rejection.
func mustClaim(t *testing.T, w *World, ledger *economy.MemoryLedger, guildID, territoryID string, tick uint64) {
	t.Helper()
	def, ok := w.territoryDef(territoryID)
	if !ok {
		t.Fatalf("no such territory in catalog: %s", territoryID)
	}
	ledger.Credit(guildID, def.Value*100)
	res := w.Claim(guildID, territoryID, tick)
	if !res.OK {
		t.Fatalf("claim %s for %s: %s %s", territoryID, guildID, res.Code, res.Message)
	}
}
