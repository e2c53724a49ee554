package warfare

type Status string

const (
	StatusDeclared    Status = "DECLARED"
	StatusBattleReady Status = "BATTLE_READY"
	StatusInBattle    Status = "IN_BATTLE"
	StatusResolved    Status = "RESOLVED"
	StatusCancelled   Status = "CANCELLED"
)

// Terminal reports whether a war can never change again.
func Terminal(s Status) bool {
	return s == StatusResolved || s == StatusCancelled
}

type Result string

const (
	ResultAttackerWins Result = "ATTACKER_WINS"
	ResultDefenderWins Result = "DEFENDER_WINS"
	ResultDraw         Result = "DRAW"
)

type Side string

const (
	SideAttacker Side = "ATTACKER"
	SideDefender Side = "DEFENDER"
)

func ParseSide(s string) (Side, bool) {
	switch s {
	case "ATTACKER", "attacker":
		return SideAttacker, true
	case "DEFENDER", "defender":
		return SideDefender, true
	}
	return "", false
}

// CanJoin: rosters close once the battle starts.
func CanJoin(s Status) bool {
	return s == StatusDeclared || s == StatusBattleReady
}

// CanContribute: effort accumulates until the war is terminal.
func CanContribute(s Status) bool {
	return s == StatusDeclared || s == StatusBattleReady || s == StatusInBattle
}

// CanCancel: only a freshly declared war may be called off.
func CanCancel(s Status) bool {
	return s == StatusDeclared
}

// ShouldArm reports whether a declared war has reached its battle tick and
// must flip to BATTLE_READY. The scheduler owns the clock, not the war.
func ShouldArm(s Status, nowTick, battleTick uint64) bool {
	return s == StatusDeclared && nowTick >= battleTick
}
