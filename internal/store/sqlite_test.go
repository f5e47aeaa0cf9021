package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lyleguay/fitlog/internal/diet"
)

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	ctx := context.Background()
	db, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "test.db"), zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Migrate(ctx)
	require.NoError(t, err)
	return db
}

func mustDay(t *testing.T, s string) diet.CalendarDay {
	t.Helper()
	d, err := diet.ParseDay(s)
	require.NoError(t, err)
	return d
}

func createUser(t *testing.T, db *SQLite, username string) diet.User {
	t.Helper()
	u, err := db.CreateUser(context.Background(), diet.User{Username: username, Password: "hash", BodyWeight: 80, Height: 180, Age: 30})
	require.NoError(t, err)
	return u
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ran, err := db.Migrate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ran)
}

func TestDescriptionFromFilename(t *testing.T) {
	assert.Equal(t, "initial schema", descriptionFromFilename("2026-09-01-001-initial-schema.sql"))
	assert.Equal(t, "notes", descriptionFromFilename("notes.sql"))
}

func TestBind(t *testing.T) {
	bound, err := bind("SELECT @a, @b, @a", args{"a": 1, "b": 2, "unused": 3})
	require.NoError(t, err)
	assert.Len(t, bound, 2)

	_, err = bind("SELECT @missing", args{})
	assert.Error(t, err)
}

func TestUserRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	g := diet.GenderFemale
	goal := diet.GoalLoseWeight
	u, err := db.CreateUser(ctx, diet.User{Username: "ana", Password: "hash", Gender: &g, FitnessGoal: &goal})
	require.NoError(t, err)

	got, err := db.GetUserByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	require.NotNil(t, got.Gender)
	assert.Equal(t, diet.GenderFemale, *got.Gender)
	assert.Nil(t, got.ActivityLevel)

	_, err = db.GetUser(ctx, 999)
	assert.ErrorIs(t, err, diet.ErrNotFound)

	// Nil baselines keep the stored values.
	require.NoError(t, db.UpdateUserBaselines(ctx, u.ID, diet.UserBaselines{LastCalculatedTdee: ptr(2000)}))
	require.NoError(t, db.UpdateUserBaselines(ctx, u.ID, diet.UserBaselines{LastGoalCalories: ptr(1500)}))
	got, err = db.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2000, *got.LastCalculatedTdee)
	assert.Equal(t, 1500, *got.LastGoalCalories)
}

func TestListFoodsScopeAndOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createUser(t, db, "u1")
	other := createUser(t, db, "u2")

	for _, f := range []diet.Food{
		{Name: "banana", Calories: 105, Serving: "1 medium"},
		{Name: "Apple", Calories: 95, Serving: "1 medium"},
		{Name: "My 100% shake", Calories: 300, Serving: "1 cup", CreatedBy: &u.ID},
		{Name: "Other shake", Calories: 250, Serving: "1 cup", CreatedBy: &other.ID},
	} {
		_, err := db.CreateFood(ctx, f)
		require.NoError(t, err)
	}

	all, err := db.ListFoods(ctx, u.ID, diet.FoodQuery{Scope: diet.ScopeAll})
	require.NoError(t, err)
	names := make([]string, len(all))
	for i, f := range all {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"Apple", "banana", "My 100% shake"}, names)

	personal, err := db.ListFoods(ctx, u.ID, diet.FoodQuery{Scope: diet.ScopePersonal})
	require.NoError(t, err)
	require.Len(t, personal, 1)
	assert.Equal(t, "My 100% shake", personal[0].Name)

	// % is matched literally.
	found, err := db.ListFoods(ctx, u.ID, diet.FoodQuery{Search: "100%"})
	require.NoError(t, err)
	assert.Len(t, found, 1)
	none, err := db.ListFoods(ctx, u.ID, diet.FoodQuery{Search: "%"})
	require.NoError(t, err)
	assert.Len(t, none, 1)

	n, err := db.CountFoods(ctx, u.ID, diet.FoodQuery{Scope: diet.ScopeCatalog})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	page, err := db.ListFoods(ctx, u.ID, diet.FoodQuery{Page: diet.PageOf(2, 2)})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "My 100% shake", page[0].Name)
}

func TestCreateDailyLogIfAbsentKeepsFirstRow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createUser(t, db, "u1")
	day := mustDay(t, "2026-03-01")

	first, err := db.CreateDailyLogIfAbsent(ctx, diet.DailyLog{UserID: u.ID, Date: day, DailyNeedCalories: ptr(2000)})
	require.NoError(t, err)
	second, err := db.CreateDailyLogIfAbsent(ctx, diet.DailyLog{UserID: u.ID, Date: day, DailyNeedCalories: ptr(2500)})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2000, *second.DailyNeedCalories)
	assert.True(t, second.Date.Equal(day))
}

func TestUpsertDailyLogPatchesOnlyGivenFields(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createUser(t, db, "u1")
	day := mustDay(t, "2026-03-01")

	inserted, err := db.UpsertDailyLog(ctx,
		diet.DailyLog{UserID: u.ID, Date: day, DailyNeedCalories: ptr(2000), GoalCalorieTarget: ptr(1500)},
		diet.LogPatch{ManualCalorieTarget: ptr(1800)})
	require.NoError(t, err)
	assert.Equal(t, 2000, *inserted.DailyNeedCalories)
	assert.Equal(t, 1800, *inserted.ManualCalorieTarget)

	updated, err := db.UpsertDailyLog(ctx,
		diet.DailyLog{UserID: u.ID, Date: day, DailyNeedCalories: ptr(9999)},
		diet.LogPatch{CurrentWeight: ptr(79.5)})
	require.NoError(t, err)
	assert.Equal(t, inserted.ID, updated.ID)
	assert.Equal(t, 2000, *updated.DailyNeedCalories)
	assert.Equal(t, 1500, *updated.GoalCalorieTarget)
	assert.Equal(t, 1800, *updated.ManualCalorieTarget)
	assert.Equal(t, 79.5, *updated.CurrentWeight)
}

func TestListDailyLogsRangeAndOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createUser(t, db, "u1")
	for _, s := range []string{"2026-03-01", "2026-03-03", "2026-03-02", "2026-03-05"} {
		_, err := db.CreateDailyLogIfAbsent(ctx, diet.DailyLog{UserID: u.ID, Date: mustDay(t, s)})
		require.NoError(t, err)
	}
	from, to := mustDay(t, "2026-03-02"), mustDay(t, "2026-03-05")

	desc, err := db.ListDailyLogs(ctx, u.ID, diet.LogQuery{From: &from, To: &to, Order: diet.OrderDesc})
	require.NoError(t, err)
	require.Len(t, desc, 3)
	assert.Equal(t, "2026-03-05", desc[0].Date.String())
	assert.Equal(t, "2026-03-02", desc[2].Date.String())

	asc, err := db.ListDailyLogs(ctx, u.ID, diet.LogQuery{Order: diet.OrderAsc, Page: diet.Page{Limit: 2}})
	require.NoError(t, err)
	require.Len(t, asc, 2)
	assert.Equal(t, "2026-03-01", asc[0].Date.String())

	n, err := db.CountDailyLogs(ctx, u.ID, diet.LogQuery{From: &from})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestMealsSurviveFoodDeletion(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createUser(t, db, "u1")
	food, err := db.CreateFood(ctx, diet.Food{Name: "Toast", Calories: 80, Serving: "1 slice", CreatedBy: &u.ID})
	require.NoError(t, err)
	log, err := db.CreateDailyLogIfAbsent(ctx, diet.DailyLog{UserID: u.ID, Date: mustDay(t, "2026-03-01")})
	require.NoError(t, err)

	meal, err := db.CreateMeal(ctx, log.ID, diet.MealBreakfast, []diet.MealFood{{
		FoodID: &food.ID, Portion: 2, TotalCal: 160, CaloriesSnapshot: 80,
		ServingSnapshot: "1 slice", FoodNameSnapshot: "Toast",
	}})
	require.NoError(t, err)

	owner, err := db.GetMealOwner(ctx, meal.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, owner.UserID)
	assert.Equal(t, log.ID, owner.DailyLogID)

	require.NoError(t, db.DeleteFood(ctx, food.ID))

	meals, err := db.ListMeals(ctx, []int{log.ID})
	require.NoError(t, err)
	require.Len(t, meals, 1)
	require.Len(t, meals[0].Items, 1)
	item := meals[0].Items[0]
	assert.Nil(t, item.FoodID)
	assert.Nil(t, item.Food)
	assert.Equal(t, "Toast", item.FoodNameSnapshot)
	assert.Equal(t, 160.0, item.TotalCal)

	require.NoError(t, db.DeleteMeal(ctx, meal.ID))
	assert.ErrorIs(t, db.DeleteMeal(ctx, meal.ID), diet.ErrNotFound)
}

func TestUpsertWeightLogOnePerDay(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createUser(t, db, "u1")
	day := mustDay(t, "2026-03-01")

	a, err := db.UpsertWeightLog(ctx, u.ID, day, 80)
	require.NoError(t, err)
	b, err := db.UpsertWeightLog(ctx, u.ID, day, 79.4)
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, 79.4, b.Weight)

	_, err = db.UpsertWeightLog(ctx, u.ID, day.AddDays(1), 79)
	require.NoError(t, err)
	logs, err := db.ListWeightLogs(ctx, u.ID, day, day.AddDays(7))
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, 79.4, logs[0].Weight)
}

func TestInTxRollsBack(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	boom := assert.AnError
	err := db.InTx(ctx, func(tx diet.Store) error {
		if _, err := tx.CreateUser(ctx, diet.User{Username: "ghost", Password: "x"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	_, err = db.GetUserByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, diet.ErrNotFound)
}

func TestSaveDailyLogTotals(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createUser(t, db, "u1")
	log, err := db.CreateDailyLogIfAbsent(ctx, diet.DailyLog{UserID: u.ID, Date: mustDay(t, "2026-03-01")})
	require.NoError(t, err)
	assert.Nil(t, log.LastRecalculatedAt)

	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	saved, err := db.SaveDailyLogTotals(ctx, log.ID, 640, 640, at)
	require.NoError(t, err)
	assert.Equal(t, 640.0, saved.CaloriesIn)
	require.NotNil(t, saved.LastRecalculatedAt)
	assert.True(t, saved.LastRecalculatedAt.Equal(at))
}

func ptr[T any](v T) *T { return &v }
