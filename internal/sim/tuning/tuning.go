package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz         int `yaml:"tick_rate_hz"`
	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`

	Warfare  Warfare  `yaml:"warfare"`
	Economy  Economy  `yaml:"economy"`
	Schedule Schedule `yaml:"schedule"`
}

type Warfare struct {
	NoticeTicks uint64 `yaml:"notice_ticks"`
	WarTax      int    `yaml:"war_tax"`
}

type Economy struct {
	// Gross commerce generated per territory value point each commerce pulse.
	CommerceGrossPerValue int `yaml:"commerce_gross_per_value"`
}

type Schedule struct {
	CommerceEveryTicks uint64 `yaml:"commerce_every_ticks"`
	ResetEveryTicks    uint64 `yaml:"reset_every_ticks"` // 0 disables scheduled resets
}

// Defaults mirror configs/tuning.yaml; used when resuming from a
// snapshot without a tuning file on disk.
func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:    "1.0",
		TickRateHz:         5,
		SnapshotEveryTicks: 3000,
		Warfare:            Warfare{NoticeTicks: 700, WarTax: 200},
		Economy:            Economy{CommerceGrossPerValue: 50},
		Schedule:           Schedule{CommerceEveryTicks: 600},
	}
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
