package diet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveCalorieTarget(t *testing.T) {
	cases := []struct {
		name   string
		log    DailyLog
		want   *int
		source TargetSource
	}{
		{"manual wins", DailyLog{ManualCalorieTarget: ptr(1800), GoalCalorieTarget: ptr(2000), DailyNeedCalories: ptr(2500)}, ptr(1800), TargetManual},
		{"goal", DailyLog{GoalCalorieTarget: ptr(2000), DailyNeedCalories: ptr(2500)}, ptr(2000), TargetGoal},
		{"baseline", DailyLog{DailyNeedCalories: ptr(2500)}, ptr(2500), TargetBaseline},
		{"none", DailyLog{}, nil, TargetNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, source := ResolveCalorieTarget(tc.log)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.source, source)
		})
	}
}

func TestDetermineCalorieStatus(t *testing.T) {
	cases := []struct {
		name string
		log  DailyLog
		want CalorieStatus
	}{
		{"no target", DailyLog{NetCalories: 1500}, StatusNoTarget},
		{"zero target", DailyLog{NetCalories: 1500, GoalCalorieTarget: ptr(0)}, StatusNoTarget},
		{"deficit", DailyLog{NetCalories: 1500, GoalCalorieTarget: ptr(2000)}, StatusDeficit},
		{"surplus", DailyLog{NetCalories: 2100, GoalCalorieTarget: ptr(2000)}, StatusSurplus},
		{"on target", DailyLog{NetCalories: 2000.5, GoalCalorieTarget: ptr(2000)}, StatusOnTarget},
		{"exactly one over", DailyLog{NetCalories: 2001, GoalCalorieTarget: ptr(2000)}, StatusSurplus},
		{"manual overrides goal", DailyLog{NetCalories: 1900, GoalCalorieTarget: ptr(2000), ManualCalorieTarget: ptr(1800)}, StatusSurplus},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetermineCalorieStatus(tc.log))
		})
	}
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "On Target", StatusOnTarget.Label())
	assert.Equal(t, "No Target", CalorieStatus("").Label())
	assert.False(t, CalorieStatus("MAYBE").Valid())
}

func TestWeightDelta(t *testing.T) {
	assert.Nil(t, weightDelta(nil, ptr(80.0)))
	assert.Equal(t, -0.6, *weightDelta(ptr(79.4), ptr(80.0)))
}
