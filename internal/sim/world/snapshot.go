package world

import (
	"sort"

	"zion.world/internal/persistence/snapshot"
	"zion.world/internal/sim/world/feature/warfare"
)

// BalanceSource is implemented by ledgers that can dump and reload every
// treasury at once. The in-memory ledger does; a ledger that cannot is
// simply left out of snapshots.
type BalanceSource interface {
	Balances() map[string]int
	Restore(map[string]int)
}

// MemberSource is the membership analogue of BalanceSource.
type MemberSource interface {
	Members() map[string]string
	Restore(map[string]string)
}

// ExportSnapshot copies the whole world into a SnapshotV1. Must run on
// the world loop goroutine.
func (w *World) ExportSnapshot(nowTick uint64) snapshot.SnapshotV1 {
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: 1,
			WorldID: w.cfg.ID,
			Tick:    nowTick,
		},
		TickRate:          w.cfg.TickRateHz,
		NoticeTicks:       w.cfg.NoticeTicks,
		WarTax:            w.cfg.WarTax,
		ResetEveryTicks:   w.cfg.ResetEveryTicks,
		TerritoriesDigest: w.catalogs.Territories.Digest,
		Counters:          snapshot.CountersV1{NextWar: w.nextWarNum.Load()},
	}

	for _, id := range w.catalogs.Territories.IDs {
		ts := w.territories[id]
		tv := snapshot.TerritoryV1{
			ID:            ts.ID,
			OwnerID:       ts.OwnerID,
			ClaimedAtTick: ts.ClaimedAtTick,
			TaxCollected:  ts.TaxCollected,
			DefenseLevel:  ts.DefenseLevel,
		}
		for _, f := range ts.Fortifications {
			tv.Fortifications = append(tv.Fortifications, snapshot.FortificationV1{
				Level:   f.Level,
				GuildID: f.GuildID,
				Tick:    f.Tick,
				Cost:    f.Cost,
			})
		}
		snap.Territories = append(snap.Territories, tv)
	}

	warIDs := make([]uint64, 0, len(w.wars))
	for id := range w.wars {
		warIDs = append(warIDs, id)
	}
	sort.Slice(warIDs, func(i, j int) bool { return warIDs[i] < warIDs[j] })
	for _, id := range warIDs {
		snap.Wars = append(snap.Wars, warToV1(w.wars[id]))
	}
	for _, war := range w.warHistory {
		snap.WarHistory = append(snap.WarHistory, warToV1(war))
	}

	if src, ok := w.ledger.(BalanceSource); ok {
		snap.Treasuries = src.Balances()
	}
	if src, ok := w.members.(MemberSource); ok {
		snap.Memberships = src.Members()
	}
	return snap
}

// RestoreSnapshot loads a snapshot into a freshly built world. Territory
// ids absent from the current catalog are dropped; the map definition is
// authoritative, the snapshot only carries state.
func (w *World) RestoreSnapshot(snap snapshot.SnapshotV1) {
	w.tick.Store(snap.Header.Tick)
	w.nextWarNum.Store(snap.Counters.NextWar)

	for _, tv := range snap.Territories {
		ts := w.territories[tv.ID]
		if ts == nil {
			continue
		}
		ts.OwnerID = tv.OwnerID
		ts.ClaimedAtTick = tv.ClaimedAtTick
		ts.TaxCollected = tv.TaxCollected
		ts.DefenseLevel = tv.DefenseLevel
		ts.Fortifications = nil
		for _, f := range tv.Fortifications {
			ts.Fortifications = append(ts.Fortifications, Fortification{
				Level:   f.Level,
				GuildID: f.GuildID,
				Tick:    f.Tick,
				Cost:    f.Cost,
			})
		}
	}

	w.wars = make(map[uint64]*War, len(snap.Wars))
	for _, wv := range snap.Wars {
		war := warFromV1(wv)
		w.wars[war.ID] = war
	}
	w.warHistory = w.warHistory[:0]
	for _, wv := range snap.WarHistory {
		w.warHistory = append(w.warHistory, warFromV1(wv))
	}

	if snap.Treasuries != nil {
		if src, ok := w.ledger.(BalanceSource); ok {
			src.Restore(snap.Treasuries)
		}
	}
	if snap.Memberships != nil {
		if src, ok := w.members.(MemberSource); ok {
			src.Restore(snap.Memberships)
		}
	}
}

func warToV1(war *War) snapshot.WarV1 {
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
	return snapshot.WarV1{
		ID:             war.ID,
		AttackerID:     war.AttackerID,
		DefenderID:     war.DefenderID,
		TerritoryID:    war.TerritoryID,
		DeclaredAtTick: war.DeclaredAtTick,
		BattleTick:     war.BattleTick,
		Status:         string(war.Status),
		AttackerForce:  war.AttackerForce,
		DefenderForce:  war.DefenderForce,
		Attackers:      attackers,
		Defenders:      defenders,
		Result:         string(war.Result),
		Loot:           war.Loot,
		Transferred:    war.Transferred,
		EndedAtTick:    war.EndedAtTick,
	}
}

func warFromV1(wv snapshot.WarV1) *War {
	war := &War{
		ID:             wv.ID,
		AttackerID:     wv.AttackerID,
		DefenderID:     wv.DefenderID,
		TerritoryID:    wv.TerritoryID,
		DeclaredAtTick: wv.DeclaredAtTick,
		BattleTick:     wv.BattleTick,
		Status:         warfare.Status(wv.Status),
		AttackerForce:  wv.AttackerForce,
		DefenderForce:  wv.DefenderForce,
		Attackers:      map[string]bool{},
		Defenders:      map[string]bool{},
		Result:         warfare.Result(wv.Result),
		Loot:           wv.Loot,
		Transferred:    wv.Transferred,
		EndedAtTick:    wv.EndedAtTick,
	}
	for _, id := range wv.Attackers {
		war.Attackers[id] = true
	}
	for _, id := range wv.Defenders {
		war.Defenders[id] = true
	}
	return war
}
