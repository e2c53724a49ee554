package economy

import "sync"

type MemoryDirectory struct {
	mu      sync.RWMutex
	guildOf map[string]string
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{guildOf: map[string]string{}}
}

// GuildOf returns the player's guild id, or "" when unaffiliated.
func (d *MemoryDirectory) GuildOf(playerID string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.guildOf[playerID]
}

func (d *MemoryDirectory) SetGuild(playerID, guildID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if guildID == "" {
		delete(d.guildOf, playerID)
		return
	}
	d.guildOf[playerID] = guildID
}

// Members returns a copy for snapshots.
func (d *MemoryDirectory) Members() map[string]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]string, len(d.guildOf))
	for k, v := range d.guildOf {
		out[k] = v
	}
	return out
}

func (d *MemoryDirectory) Restore(members map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.guildOf = make(map[string]string, len(members))
	for k, v := range members {
		d.guildOf[k] = v
	}
}
