package diet

import "math"

// CalorieStatus classifies a day's net intake against its target.
type CalorieStatus string

const (
	StatusDeficit  CalorieStatus = "DEFICIT"
	StatusSurplus  CalorieStatus = "SURPLUS"
	StatusOnTarget CalorieStatus = "ON_TARGET"
	StatusNoTarget CalorieStatus = "NO_TARGET"
)

func (s CalorieStatus) Valid() bool {
	switch s {
	case StatusDeficit, StatusSurplus, StatusOnTarget, StatusNoTarget:
		return true
	}
	return false
}

// Label is the human-readable status name.
func (s CalorieStatus) Label() string {
	switch s {
	case StatusDeficit:
		return "Deficit"
	case StatusSurplus:
		return "Surplus"
	case StatusOnTarget:
		return "On Target"
	}
	return "No Target"
}

// TargetSource says which ledger field supplied the effective target.
type TargetSource string

const (
	TargetManual   TargetSource = "manual"
	TargetGoal     TargetSource = "goal"
	TargetBaseline TargetSource = "baseline"
	TargetNone     TargetSource = "none"
)

// ResolveCalorieTarget picks the effective target for a day: the manual
// override, then the goal target, then the daily need snapshot.
func ResolveCalorieTarget(log DailyLog) (*int, TargetSource) {
	switch {
	case log.ManualCalorieTarget != nil:
		return log.ManualCalorieTarget, TargetManual
	case log.GoalCalorieTarget != nil:
		return log.GoalCalorieTarget, TargetGoal
	case log.DailyNeedCalories != nil:
		return log.DailyNeedCalories, TargetBaseline
	}
	return nil, TargetNone
}

// DetermineCalorieStatus compares net calories with the resolved target.
// Differences under 1 kcal count as on target.
func DetermineCalorieStatus(log DailyLog) CalorieStatus {
	target, _ := ResolveCalorieTarget(log)
	if target == nil || *target == 0 {
		return StatusNoTarget
	}
	delta := log.NetCalories - float64(*target)
	if math.Abs(delta) < 1 {
		return StatusOnTarget
	}
	if delta > 0 {
		return StatusSurplus
	}
	return StatusDeficit
}
