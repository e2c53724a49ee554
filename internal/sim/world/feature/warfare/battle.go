package warfare

import "math"

const (
	NoticeTicks uint64 = 700
	WarTax             = 200

	BaseDefenseBonus     = 0.20
	DefenseBonusPerLevel = 0.05

	LootRate = 0.10

	tiebreakEpsilon = 0.001
)

// DefenseBonus is the home-field advantage multiplier for a defense level.
// Uncapped here; the registry caps the level itself.
func DefenseBonus(defenseLevel int) float64 {
	return BaseDefenseBonus + float64(defenseLevel)*DefenseBonusPerLevel
}

// Tiebreak derives a value in [0,1) from a seed. It must be a pure
// function of the seed: identical seeds replay to identical battles.
type Tiebreak func(seed int64) float64

// LCGTiebreak is the default tiebreak: one step of the classic
// (9301, 49297, 233280) linear-congruential generator.
func LCGTiebreak(seed int64) float64 {
	if seed < 0 {
		seed = -seed
	}
	return float64((seed*9301+49297)%233280) / 233280.0
}

// EffectiveSeed picks the battle seed: explicit seed, else the declaration
// tick, else 1.
func EffectiveSeed(seed int64, declaredAtTick uint64) int64 {
	if seed != 0 {
		return seed
	}
	if declaredAtTick != 0 {
		return int64(declaredAtTick)
	}
	return 1
}

type BattleInput struct {
	AttackerForce float64
	DefenderForce float64
	DefenseLevel  int
	Seed          int64
}

type BattleOutcome struct {
	Result            Result
	Roll              float64
	EffectiveAttacker float64
	EffectiveDefender float64
}

// Decide computes a battle outcome. The defender's raw force is scaled by
// the home-field bonus; both sides then receive a seed-derived nudge that
// makes exact ties vanishingly rare while keeping the result reproducible.
func Decide(in BattleInput, tiebreak Tiebreak) BattleOutcome {
	if tiebreak == nil {
		tiebreak = LCGTiebreak
	}
	roll := tiebreak(in.Seed)

	atk := in.AttackerForce + roll*tiebreakEpsilon
	def := in.DefenderForce*(1+DefenseBonus(in.DefenseLevel)) + (1-roll)*tiebreakEpsilon

	out := BattleOutcome{
		Roll:              roll,
		EffectiveAttacker: atk,
		EffectiveDefender: def,
	}
	switch {
	case atk > def:
		out.Result = ResultAttackerWins
	case def > atk:
		out.Result = ResultDefenderWins
	default:
		out.Result = ResultDraw
	}
	return out
}

// Loot is the share of the loser's treasury taken by the winner.
func Loot(defenderTreasury int) int {
	return int(math.Floor(float64(defenderTreasury) * LootRate))
}
