package diet

import (
	"math"

	"github.com/shopspring/decimal"
)

// activityMultipliers maps activity levels to their TDEE multiplier. This is
// the single source of truth for valid activity levels.
var activityMultipliers = map[ActivityLevel]float64{
	ActivityNotVeryActive: 1.2,
	ActivityLightlyActive: 1.375,
	ActivityActive:        1.55,
	ActivityVeryActive:    1.725,
}

// Goal calorie targets are clamped into this range (kcal/day).
const (
	MinGoalCalories = 1000
	MaxGoalCalories = 6000
)

// goalAdjustments is the fixed daily surplus/deficit per fitness goal.
var goalAdjustments = map[FitnessGoal]int{
	GoalLoseWeight:     -500,
	GoalGainWeight:     300,
	GoalMaintainWeight: 0,
}

// EstimateBMR computes basal metabolic rate via Mifflin-St Jeor.
// Returns ok=false when gender is nil or unrecognised.
func EstimateBMR(weightKg, heightCm float64, ageYears int, gender *Gender) (float64, bool) {
	if gender == nil {
		return 0, false
	}
	bmr := 10*weightKg + 6.25*heightCm - 5*float64(ageYears)
	switch *gender {
	case GenderMale:
		bmr += 5
	case GenderFemale:
		bmr -= 161
	default:
		return 0, false
	}
	return bmr, true
}

// EstimateTDEE multiplies the Mifflin-St Jeor BMR by the activity factor and
// rounds to the nearest kcal. Returns ok=false (not an error) when gender or
// activity level is missing or unrecognised; callers fall back to a cached
// baseline.
func EstimateTDEE(weightKg, heightCm float64, ageYears int, gender *Gender, activity *ActivityLevel) (int, bool) {
	bmr, ok := EstimateBMR(weightKg, heightCm, ageYears, gender)
	if !ok || activity == nil {
		return 0, false
	}
	mult, found := activityMultipliers[*activity]
	if !found {
		return 0, false
	}
	return int(math.Round(bmr * mult)), true
}

// ComputeGoalCalorieTarget applies the goal adjustment to a baseline and
// clamps the result into [MinGoalCalories, MaxGoalCalories]. Returns ok=false
// when the baseline is nil or zero, or the goal is nil or unrecognised.
func ComputeGoalCalorieTarget(baseline *int, goal *FitnessGoal) (int, bool) {
	if baseline == nil || *baseline == 0 || goal == nil {
		return 0, false
	}
	adj, found := goalAdjustments[*goal]
	if !found {
		return 0, false
	}
	target := *baseline + adj
	target = max(MinGoalCalories, min(MaxGoalCalories, target))
	return target, true
}

// ComputeBMI returns weight / height_m², rounded to two decimals. A
// non-positive height yields 0.
func ComputeBMI(weightKg, heightCm float64) float64 {
	if heightCm <= 0 {
		return 0
	}
	m := heightCm / 100
	return math.Round(weightKg/(m*m)*100) / 100
}

// LineTotal is food calories × portion, computed in decimal so that sums of
// line totals stay exact.
func LineTotal(calories, portion float64) float64 {
	return decimal.NewFromFloat(calories).Mul(decimal.NewFromFloat(portion)).InexactFloat64()
}

// SumCalories sums TotalCal over items.
func SumCalories(items []MealFood) float64 {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(decimal.NewFromFloat(it.TotalCal))
	}
	return total.InexactFloat64()
}

// SumMealCalories sums every line item of every meal.
func SumMealCalories(meals []Meal) float64 {
	total := decimal.Zero
	for _, m := range meals {
		for _, it := range m.Items {
			total = total.Add(decimal.NewFromFloat(it.TotalCal))
		}
	}
	return total.InexactFloat64()
}

// netCalories is caloriesIn − caloriesOut.
func netCalories(in, out float64) float64 {
	return decimal.NewFromFloat(in).Sub(decimal.NewFromFloat(out)).InexactFloat64()
}

func optionalInt(v int, ok bool) *int {
	if !ok {
		return nil
	}
	return &v
}
