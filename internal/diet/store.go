package diet

import (
	"context"
	"time"
)

// Page is an offset/limit window. Limit <= 0 means no limit.
type Page struct {
	Offset int
	Limit  int
}

// PageOf converts a 1-based page number and size into a Page.
func PageOf(page, size int) Page {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		return Page{}
	}
	return Page{Offset: (page - 1) * size, Limit: size}
}

type FoodScope string

const (
	ScopeAll      FoodScope = "all"
	ScopeCatalog  FoodScope = "catalog"
	ScopePersonal FoodScope = "personal"
)

func (s FoodScope) Valid() bool {
	return s == ScopeAll || s == ScopeCatalog || s == ScopePersonal
}

// FoodQuery filters the foods visible to a user. Search is a case-insensitive
// substring match on name.
type FoodQuery struct {
	Search string
	Scope  FoodScope
	Page   Page
}

type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// LogQuery filters a user's ledgers. From and To are inclusive when set.
type LogQuery struct {
	From  *CalendarDay
	To    *CalendarDay
	Order SortOrder
	Page  Page
}

// LogPatch holds ledger fields to overwrite on an upsert. Nil fields keep
// their stored value on update and take the seed's value on insert.
type LogPatch struct {
	DailyNeedCalories   *int
	GoalCalorieTarget   *int
	ManualCalorieTarget *int
	CurrentWeight       *float64
	TargetWeight        *float64
}

// MealOwner identifies the ledger a meal belongs to.
type MealOwner struct {
	MealID     int
	DailyLogID int
	UserID     int
	Date       CalendarDay
}

// UserBaselines are the cached derived values written back onto a user.
// Nil fields are left untouched.
type UserBaselines struct {
	LastCalculatedTdee *int
	LastGoalCalories   *int
}

// ProfileFields is the full set of user-editable profile values.
type ProfileFields struct {
	Name          string
	Age           int
	Gender        *Gender
	BodyWeight    float64
	Height        float64
	FitnessGoal   *FitnessGoal
	ActivityLevel *ActivityLevel
	TargetWeight  *float64
}

type UserStore interface {
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	CreateUser(ctx context.Context, u User) (User, error)
	UpdateUserProfile(ctx context.Context, id int, p ProfileFields, b UserBaselines) (User, error)
	UpdateUserGoal(ctx context.Context, id int, goal *FitnessGoal, targetWeight *float64, b UserBaselines) (User, error)
	UpdateUserBaselines(ctx context.Context, id int, b UserBaselines) error
	SetUserBodyWeight(ctx context.Context, id int, weight float64) error
}

type FoodStore interface {
	ListFoods(ctx context.Context, userID int, q FoodQuery) ([]Food, error)
	CountFoods(ctx context.Context, userID int, q FoodQuery) (int, error)
	GetFood(ctx context.Context, id int) (Food, error)
	GetFoodsByIDs(ctx context.Context, ids []int) ([]Food, error)
	FindCatalogFood(ctx context.Context, name string) (Food, error)
	CreateFood(ctx context.Context, f Food) (Food, error)
	UpdateFood(ctx context.Context, f Food) (Food, error)
	DeleteFood(ctx context.Context, id int) error
}

type LedgerStore interface {
	GetDailyLog(ctx context.Context, userID int, day CalendarDay) (DailyLog, error)
	GetDailyLogByID(ctx context.Context, userID, id int) (DailyLog, error)
	// CreateDailyLogIfAbsent inserts seed unless a row for (seed.UserID,
	// seed.Date) exists, and returns whichever row is stored. It must be
	// atomic on the (user_id, date) unique key.
	CreateDailyLogIfAbsent(ctx context.Context, seed DailyLog) (DailyLog, error)
	// UpsertDailyLog inserts seed overlaid with patch, or applies patch to the
	// existing row for (seed.UserID, seed.Date).
	UpsertDailyLog(ctx context.Context, seed DailyLog, patch LogPatch) (DailyLog, error)
	// LockDailyLog reads the ledger row and, where the backend supports it,
	// holds a row lock until the surrounding transaction ends.
	LockDailyLog(ctx context.Context, userID int, day CalendarDay) (DailyLog, error)
	SaveDailyLogTotals(ctx context.Context, id int, caloriesIn, netCalories float64, at time.Time) (DailyLog, error)
	ListDailyLogs(ctx context.Context, userID int, q LogQuery) ([]DailyLog, error)
	CountDailyLogs(ctx context.Context, userID int, q LogQuery) (int, error)
}

type MealStore interface {
	// ListMeals returns the meals of the given ledgers ordered by creation
	// time, each with its line items and live foods attached.
	ListMeals(ctx context.Context, dailyLogIDs []int) ([]Meal, error)
	GetMealOwner(ctx context.Context, mealID int) (MealOwner, error)
	CreateMeal(ctx context.Context, dailyLogID int, t MealType, items []MealFood) (Meal, error)
	UpdateMealType(ctx context.Context, mealID int, t MealType) error
	DeleteMealFoods(ctx context.Context, mealID int) error
	CreateMealFoods(ctx context.Context, mealID int, items []MealFood) error
	DeleteMeal(ctx context.Context, mealID int) error
}

type WeightStore interface {
	UpsertWeightLog(ctx context.Context, userID int, day CalendarDay, weight float64) (WeightLog, error)
	ListWeightLogs(ctx context.Context, userID int, from, to CalendarDay) ([]WeightLog, error)
}

// Store is the persistence contract of the diet services. InTx runs fn with a
// Store bound to a single transaction; nested calls reuse the outer one.
type Store interface {
	UserStore
	FoodStore
	LedgerStore
	MealStore
	WeightStore
	InTx(ctx context.Context, fn func(Store) error) error
}
