package world

import "zion.world/internal/sim/world/feature/warfare"

// OpResult is the uniform result header for every mutating operation.
// Business-rule failures are values, not errors: Code carries a protocol
// E_* code and Message a human-readable reason. State is untouched on
// failure.
type OpResult struct {
	OK      bool
	Code    string
	Message string
}

func opOK() OpResult { return OpResult{OK: true} }

func opFail(code, message string) OpResult {
	return OpResult{Code: code, Message: message}
}

type ClaimResult struct {
	OpResult
	TerritoryID string
	Cost        int
}

type AbandonResult struct {
	OpResult
	TerritoryID string
	Refund      int
}

type UpgradeResult struct {
	OpResult
	TerritoryID string
	NewLevel    int
	Cost        int
}

// TaxResult never fails: collecting tax on an unknown or unowned
// territory is a zero no-op.
type TaxResult struct {
	OwnerID string
	Tax     int
}

type ResetResult struct {
	OpResult
	TerritoriesCleared int
	RefundsPaid        int
	WarsCancelled      int
}

type DeclareResult struct {
	OpResult
	WarID      uint64
	BattleTick uint64
}

type CancelResult struct {
	OpResult
	WarID uint64
}

type JoinBattleResult struct {
	OpResult
	WarID uint64
	Side  warfare.Side
}

type ContributeResult struct {
	OpResult
	WarID    uint64
	Side     warfare.Side
	NewForce float64
}

type ResolveResult struct {
	OpResult
	WarID             uint64
	Result            warfare.Result
	Transferred       bool
	Loot              int
	Roll              float64
	EffectiveAttacker float64
	EffectiveDefender float64
}
