// Package economy holds the externally-owned collaborator state the
// warfare core consumes: guild treasuries and player->guild membership.
// The world package defines the narrow interfaces it needs; these are the
// in-memory implementations used by the server and tests.
package economy

import "sync"

type MemoryLedger struct {
	mu       sync.RWMutex
	balances map[string]int
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: map[string]int{}}
}

func (l *MemoryLedger) Balance(guildID string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[guildID]
}

// Debit subtracts from a guild balance. Callers verify sufficiency first;
// the ledger itself does not reject overdrafts.
func (l *MemoryLedger) Debit(guildID string, amount int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[guildID] -= amount
}

func (l *MemoryLedger) Credit(guildID string, amount int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[guildID] += amount
}

// Balances returns a copy for snapshots.
func (l *MemoryLedger) Balances() map[string]int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]int, len(l.balances))
	for k, v := range l.balances {
		out[k] = v
	}
	return out
}

func (l *MemoryLedger) Restore(balances map[string]int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances = make(map[string]int, len(balances))
	for k, v := range balances {
		l.balances[k] = v
	}
}
