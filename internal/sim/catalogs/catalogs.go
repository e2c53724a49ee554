package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

type Catalogs struct {
	Territories TerritoryCatalog
}

// TerritoryCatalog is the immutable list of claimable territory nodes.
// Every world holds exactly one state entry per definition.
type TerritoryCatalog struct {
	ByID   map[string]TerritoryDef
	IDs    []string            // sorted, for deterministic iteration
	Zones  map[string][]string // zone -> sorted territory ids
	Digest string

	// Catalog-wide ownership cap: max territories one guild may hold.
	OwnershipCap int
}

type TerritoryDef struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Zone    string   `json:"zone"`
	Value   int      `json:"value"` // 1..5, drives cost/tax/loot scale
	TaxRate float64  `json:"tax_rate"`
	Bonus   BonusDef `json:"bonus"`
}

type BonusDef struct {
	Type      string  `json:"type"`
	Magnitude float64 `json:"magnitude"`
}

type territoriesFile struct {
	OwnershipCap int            `json:"ownership_cap"`
	Territories  []TerritoryDef `json:"territories"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadTerritories(filepath.Join(configDir, "territories.json"), &c.Territories); err != nil {
		return nil, err
	}
	return &c, nil
}

func loadTerritories(path string, out *TerritoryCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var f territoriesFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("territories.json: %w", err)
	}
	if f.OwnershipCap <= 0 {
		return fmt.Errorf("territories.json: ownership_cap must be positive")
	}
	out.OwnershipCap = f.OwnershipCap

	out.ByID = map[string]TerritoryDef{}
	out.Zones = map[string][]string{}
	for _, d := range f.Territories {
		if d.ID == "" {
			return fmt.Errorf("territories.json: empty id")
		}
		if d.Zone == "" {
			return fmt.Errorf("territories.json: %s: empty zone", d.ID)
		}
		if d.Value < 1 || d.Value > 5 {
			return fmt.Errorf("territories.json: %s: value out of range: %d", d.ID, d.Value)
		}
		if d.TaxRate < 0 || d.TaxRate > 1 {
			return fmt.Errorf("territories.json: %s: tax_rate out of range: %v", d.ID, d.TaxRate)
		}
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("territories.json: duplicate id: %s", d.ID)
		}
		out.ByID[d.ID] = d
		out.Zones[d.Zone] = append(out.Zones[d.Zone], d.ID)
	}

	ids := make([]string, 0, len(out.ByID))
	for id := range out.ByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out.IDs = ids
	for z := range out.Zones {
		sort.Strings(out.Zones[z])
	}
	return nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
