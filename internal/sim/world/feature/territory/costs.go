package territory

import "math"

const (
	ClaimCostPerValue  = 100
	DefenseCostPerStep = 200
	MaxDefenseLevel    = 5

	abandonRefundRate = 0.50
	resetRefundRate   = 0.25
)

// ClaimCost for a territory of the given catalog value (1..5).
func ClaimCost(value int) int {
	return value * ClaimCostPerValue
}

// AbandonRefund: half of the original claim cost, rounded down.
func AbandonRefund(claimCost int) int {
	return int(math.Floor(float64(claimCost) * abandonRefundRate))
}

// ResetRefund: a quarter of the original claim cost, rounded down. Paid
// when the world cycle reset expropriates an owned territory.
func ResetRefund(claimCost int) int {
	return int(math.Floor(float64(claimCost) * resetRefundRate))
}

// UpgradeCost to go from the current defense level to the next one.
func UpgradeCost(currentLevel int) int {
	return (currentLevel + 1) * DefenseCostPerStep
}

// TaxCut is the owner's share of a gross commerce amount, rounded down.
func TaxCut(gross int, taxRate float64) int {
	return int(math.Floor(float64(gross) * taxRate))
}
