package diet

import "time"

// Gender drives the sex constant in the Mifflin-St Jeor equation.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

func (g Gender) Valid() bool { return g == GenderMale || g == GenderFemale }

// ActivityLevel selects the TDEE multiplier; see activityMultipliers.
type ActivityLevel string

const (
	ActivityNotVeryActive ActivityLevel = "NOT_VERY_ACTIVE"
	ActivityLightlyActive ActivityLevel = "LIGHTLY_ACTIVE"
	ActivityActive        ActivityLevel = "ACTIVE"
	ActivityVeryActive    ActivityLevel = "VERY_ACTIVE"
)

func (a ActivityLevel) Valid() bool {
	_, ok := activityMultipliers[a]
	return ok
}

type FitnessGoal string

const (
	GoalLoseWeight     FitnessGoal = "LOSE_WEIGHT"
	GoalGainWeight     FitnessGoal = "GAIN_WEIGHT"
	GoalMaintainWeight FitnessGoal = "MAINTAIN_WEIGHT"
)

func (g FitnessGoal) Valid() bool {
	switch g {
	case GoalLoseWeight, GoalGainWeight, GoalMaintainWeight:
		return true
	}
	return false
}

// RequiresTargetWeight reports whether the goal needs a target weight to be meaningful.
func (g FitnessGoal) RequiresTargetWeight() bool {
	return g == GoalLoseWeight || g == GoalGainWeight
}

type MealType string

const (
	MealBreakfast MealType = "BREAKFAST"
	MealLunch     MealType = "LUNCH"
	MealDinner    MealType = "DINNER"
	MealSnack     MealType = "SNACK"
)

func (t MealType) Valid() bool {
	switch t {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

/* ─── Entities ───────────────────────────────────────────────────────── */

// User is the personalization root. Nullable profile fields use pointers so a
// freshly registered account without gender or activity level still loads.
// LastCalculatedTdee and LastGoalCalories are the fallback baselines used
// whenever a fresh estimate cannot be made.
type User struct {
	ID                 int            `json:"id"                   db:"id"`
	Username           string         `json:"username"             db:"username"`
	Email              string         `json:"email"                db:"email"`
	Name               string         `json:"name"                 db:"name"`
	Password           string         `json:"-"                    db:"password"`
	Age                int            `json:"age"                  db:"age"`
	Gender             *Gender        `json:"gender"               db:"gender"`
	BodyWeight         float64        `json:"body_weight"          db:"body_weight"`
	Height             float64        `json:"height"               db:"height"`
	FitnessGoal        *FitnessGoal   `json:"fitness_goal"         db:"fitness_goal"`
	ActivityLevel      *ActivityLevel `json:"activity_level"       db:"activity_level"`
	TargetWeight       *float64       `json:"target_weight"        db:"target_weight"`
	LastCalculatedTdee *int           `json:"last_calculated_tdee" db:"last_calculated_tdee"`
	LastGoalCalories   *int           `json:"last_goal_calories"   db:"last_goal_calories"`
	CreatedAt          time.Time      `json:"created_at"           db:"created_at"`
}

// Food is a nutrition record. CreatedBy is nil for shared catalog entries and
// set to the owner's id for personal entries.
type Food struct {
	ID        int       `json:"id"         db:"id"`
	Name      string    `json:"name"       db:"name"`
	Calories  float64   `json:"calories"   db:"calories"`
	Protein   float64   `json:"protein"    db:"protein"`
	Carbs     float64   `json:"carbs"      db:"carbs"`
	Fat       float64   `json:"fat"        db:"fat"`
	Serving   string    `json:"serving"    db:"serving"`
	CreatedBy *int      `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IsCatalog reports whether f is a shared, read-only catalog entry.
func (f Food) IsCatalog() bool { return f.CreatedBy == nil }

// OwnedBy reports whether userID may edit or delete f.
func (f Food) OwnedBy(userID int) bool { return f.CreatedBy != nil && *f.CreatedBy == userID }

// DailyLog is the per-user, per-day ledger. CaloriesIn is always the sum of
// TotalCal over every MealFood under Meals.
type DailyLog struct {
	ID                  int         `json:"id"                    db:"id"`
	UserID              int         `json:"user_id"               db:"user_id"`
	Date                CalendarDay `json:"date"                  db:"date"`
	CaloriesIn          float64     `json:"calories_in"           db:"calories_in"`
	CaloriesOut         float64     `json:"calories_out"          db:"calories_out"`
	NetCalories         float64     `json:"net_calories"          db:"net_calories"`
	DailyNeedCalories   *int        `json:"daily_need_calories"   db:"daily_need_calories"`
	GoalCalorieTarget   *int        `json:"goal_calorie_target"   db:"goal_calorie_target"`
	ManualCalorieTarget *int        `json:"manual_calorie_target" db:"manual_calorie_target"`
	CurrentWeight       *float64    `json:"current_weight"        db:"current_weight"`
	TargetWeight        *float64    `json:"target_weight"         db:"target_weight"`
	LastRecalculatedAt  *time.Time  `json:"last_recalculated_at"  db:"last_recalculated_at"`
	CreatedAt           time.Time   `json:"created_at"            db:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"            db:"updated_at"`

	// Meals is populated by reads that include associations; never scanned.
	Meals []Meal `json:"meals,omitempty" db:"-"`
}

type Meal struct {
	ID         int        `json:"id"           db:"id"`
	DailyLogID int        `json:"daily_log_id" db:"daily_log_id"`
	Type       MealType   `json:"type"         db:"type"`
	CreatedAt  time.Time  `json:"created_at"   db:"created_at"`
	Items      []MealFood `json:"items"        db:"-"`
}

// TotalCalories sums the line items of m.
func (m Meal) TotalCalories() float64 { return SumCalories(m.Items) }

// MealFood is a meal line item. The *Snapshot fields are copied from the Food
// when the meal is logged and are never rewritten afterwards. FoodID becomes
// nil when the source food is deleted; Food is the live record when it still
// exists.
type MealFood struct {
	ID               int       `json:"id"                 db:"id"`
	MealID           int       `json:"meal_id"            db:"meal_id"`
	FoodID           *int      `json:"food_id"            db:"food_id"`
	Portion          float64   `json:"portion"            db:"portion"`
	TotalCal         float64   `json:"total_cal"          db:"total_cal"`
	CaloriesSnapshot float64   `json:"calories_snapshot"  db:"calories_snapshot"`
	ProteinSnapshot  float64   `json:"protein_snapshot"   db:"protein_snapshot"`
	FatSnapshot      float64   `json:"fat_snapshot"       db:"fat_snapshot"`
	CarbsSnapshot    float64   `json:"carbs_snapshot"     db:"carbs_snapshot"`
	ServingSnapshot  string    `json:"serving_snapshot"   db:"serving_snapshot"`
	FoodNameSnapshot string    `json:"food_name_snapshot" db:"food_name_snapshot"`
	CreatedAt        time.Time `json:"created_at"         db:"created_at"`
	Food             *Food     `json:"food,omitempty"     db:"-"`
}

// WeightLog is one weigh-in per user per day.
type WeightLog struct {
	ID        int         `json:"id"         db:"id"`
	UserID    int         `json:"user_id"    db:"user_id"`
	LoggedAt  CalendarDay `json:"logged_at"  db:"logged_at"`
	Weight    float64     `json:"weight"     db:"weight"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

// firstPresent returns the first non-nil value. Callers list candidates in
// precedence order: fresh computation, cached baseline.
func firstPresent[T any](vals ...*T) *T {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func ptr[T any](v T) *T { return &v }
