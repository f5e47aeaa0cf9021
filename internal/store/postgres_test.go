package store

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lyleguay/fitlog/internal/diet"
)

// newPostgresDB connects to DB_URL and migrates it. Tests create their own
// uniquely named users, so they can share one database.
func newPostgresDB(t *testing.T) *Postgres {
	t.Helper()
	url := os.Getenv("DB_URL")
	if url == "" {
		t.Skip("DB_URL not set")
	}
	ctx := context.Background()
	db, err := OpenPostgres(ctx, url, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Migrate(ctx)
	require.NoError(t, err)
	return db
}

func createPostgresUser(t *testing.T, db *Postgres) diet.User {
	t.Helper()
	male, active := diet.GenderMale, diet.ActivityActive
	u, err := db.CreateUser(context.Background(), diet.User{
		Username: "pg-" + uuid.NewString(), Password: "hash",
		BodyWeight: 70, Height: 175, Age: 30, Gender: &male, ActivityLevel: &active,
	})
	require.NoError(t, err)
	return u
}

func TestPostgresUserRoundTrip(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()
	u := createPostgresUser(t, db)

	got, err := db.GetUserByUsername(ctx, u.Username)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	require.NotNil(t, got.Gender)
	assert.Equal(t, diet.GenderMale, *got.Gender)
	assert.Nil(t, got.FitnessGoal)

	require.NoError(t, db.UpdateUserBaselines(ctx, u.ID, diet.UserBaselines{LastCalculatedTdee: ptr(2556)}))
	got, err = db.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2556, *got.LastCalculatedTdee)
	assert.Nil(t, got.LastGoalCalories)

	_, err = db.GetUser(ctx, -1)
	assert.ErrorIs(t, err, diet.ErrNotFound)
}

func TestPostgresDailyLogDates(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()
	u := createPostgresUser(t, db)
	day := mustDay(t, "2026-03-01")

	log, err := db.CreateDailyLogIfAbsent(ctx, diet.DailyLog{UserID: u.ID, Date: day, GoalCalorieTarget: ptr(2056)})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", log.Date.String())

	again, err := db.CreateDailyLogIfAbsent(ctx, diet.DailyLog{UserID: u.ID, Date: day, GoalCalorieTarget: ptr(1)})
	require.NoError(t, err)
	assert.Equal(t, log.ID, again.ID)
	assert.Equal(t, 2056, *again.GoalCalorieTarget)

	patched, err := db.UpsertDailyLog(ctx, diet.DailyLog{UserID: u.ID, Date: day}, diet.LogPatch{ManualCalorieTarget: ptr(1800)})
	require.NoError(t, err)
	assert.Equal(t, log.ID, patched.ID)
	assert.Equal(t, 2056, *patched.GoalCalorieTarget)
	assert.Equal(t, 1800, *patched.ManualCalorieTarget)

	from, to := mustDay(t, "2026-02-28"), mustDay(t, "2026-03-01")
	logs, err := db.ListDailyLogs(ctx, u.ID, diet.LogQuery{From: &from, To: &to, Order: diet.OrderAsc})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	n, err := db.CountDailyLogs(ctx, u.ID, diet.LogQuery{From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPostgresCreateDailyLogIfAbsentConcurrent(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()
	u := createPostgresUser(t, db)
	day := mustDay(t, "2026-03-02")

	ids := make([]int, 8)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			log, err := db.CreateDailyLogIfAbsent(ctx, diet.DailyLog{UserID: u.ID, Date: day})
			assert.NoError(t, err)
			ids[i] = log.ID
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestPostgresLockDailyLogSerializes(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()
	u := createPostgresUser(t, db)
	day := mustDay(t, "2026-03-03")
	log, err := db.CreateDailyLogIfAbsent(ctx, diet.DailyLog{UserID: u.ID, Date: day})
	require.NoError(t, err)

	locked := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- db.InTx(ctx, func(tx diet.Store) error {
			if _, err := tx.LockDailyLog(ctx, u.ID, day); err != nil {
				return err
			}
			close(locked)
			time.Sleep(200 * time.Millisecond)
			_, err := tx.SaveDailyLogTotals(ctx, log.ID, 100, 100, time.Now().UTC())
			return err
		})
	}()

	<-locked
	var seen float64
	err = db.InTx(ctx, func(tx diet.Store) error {
		l, err := tx.LockDailyLog(ctx, u.ID, day)
		seen = l.CaloriesIn
		return err
	})
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.Equal(t, 100.0, seen, "second lock waits for the first transaction")
}

func TestPostgresMealsSurviveFoodDeletion(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()
	u := createPostgresUser(t, db)
	food, err := db.CreateFood(ctx, diet.Food{Name: "Toast", Calories: 80, Serving: "1 slice", CreatedBy: &u.ID})
	require.NoError(t, err)
	log, err := db.CreateDailyLogIfAbsent(ctx, diet.DailyLog{UserID: u.ID, Date: mustDay(t, "2026-03-04")})
	require.NoError(t, err)

	meal, err := db.CreateMeal(ctx, log.ID, diet.MealBreakfast, []diet.MealFood{{
		FoodID: &food.ID, Portion: 2, TotalCal: 160, CaloriesSnapshot: 80,
		ServingSnapshot: "1 slice", FoodNameSnapshot: "Toast",
	}})
	require.NoError(t, err)

	owner, err := db.GetMealOwner(ctx, meal.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, owner.UserID)
	assert.Equal(t, "2026-03-04", owner.Date.String())

	require.NoError(t, db.DeleteFood(ctx, food.ID))
	meals, err := db.ListMeals(ctx, []int{log.ID})
	require.NoError(t, err)
	require.Len(t, meals, 1)
	require.Len(t, meals[0].Items, 1)
	assert.Nil(t, meals[0].Items[0].FoodID)
	assert.Equal(t, "Toast", meals[0].Items[0].FoodNameSnapshot)
	assert.Equal(t, 160.0, meals[0].Items[0].TotalCal)

	require.NoError(t, db.DeleteMeal(ctx, meal.ID))
	assert.ErrorIs(t, db.DeleteMeal(ctx, meal.ID), diet.ErrNotFound)
}

func TestPostgresUpsertWeightLog(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()
	u := createPostgresUser(t, db)
	day := mustDay(t, "2026-03-05")

	first, err := db.UpsertWeightLog(ctx, u.ID, day, 70.2)
	require.NoError(t, err)
	second, err := db.UpsertWeightLog(ctx, u.ID, day, 69.8)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	logs, err := db.ListWeightLogs(ctx, u.ID, day, day)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 69.8, logs[0].Weight)
	assert.Equal(t, "2026-03-05", logs[0].LoggedAt.String())
}
