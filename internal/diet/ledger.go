package diet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DietService owns the daily ledger: lazy per-day creation seeded from the
// user's profile, recomputation of totals from meal line items, and goal
// updates. It holds no per-request state.
type DietService struct {
	store Store
	foods *FoodService
	log   *zap.SugaredLogger
	now   func() time.Time
}

func NewDietService(store Store, foods *FoodService, log *zap.SugaredLogger) *DietService {
	return &DietService{store: store, foods: foods, log: log, now: time.Now}
}

// SetClock replaces the service's time source. Used by tests and by the
// check-in flow to pin "today".
func (s *DietService) SetClock(now func() time.Time) { s.now = now }

// Today is the current calendar day in UTC.
func (s *DietService) Today() CalendarDay { return Day(s.now()) }

// dayOrToday treats the zero CalendarDay as "today".
func (s *DietService) dayOrToday(day CalendarDay) CalendarDay {
	if day.IsZero() {
		return s.Today()
	}
	return day
}

/* ─── Baselines ───────────────────────────────────────────────────────── */

// freshTDEE estimates the user's TDEE from their current profile, or nil when
// gender or activity level is not set.
func freshTDEE(u User) *int {
	return optionalInt(EstimateTDEE(u.BodyWeight, u.Height, u.Age, u.Gender, u.ActivityLevel))
}

// baselines resolves the values used to seed a ledger for u.
type baselines struct {
	freshTdee    *int // nil when it could not be estimated
	computedGoal *int // nil when no goal target could be derived
	dailyNeed    *int // fresh TDEE, else cached
	goalCalories *int // computed goal, else cached
}

func resolveBaselines(u User, goal *FitnessGoal) baselines {
	var b baselines
	b.freshTdee = freshTDEE(u)
	b.dailyNeed = firstPresent(b.freshTdee, u.LastCalculatedTdee)
	b.computedGoal = optionalInt(ComputeGoalCalorieTarget(b.dailyNeed, goal))
	b.goalCalories = firstPresent(b.computedGoal, u.LastGoalCalories)
	return b
}

func getUser(ctx context.Context, store UserStore, userID int) (User, error) {
	u, err := store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, notFound("user not found")
		}
		return User{}, fmt.Errorf("get user %d: %w", userID, err)
	}
	return u, nil
}

/* ─── Get-or-create ───────────────────────────────────────────────────── */

// GetOrCreateDailyLog returns the ledger for (userID, day), creating it from
// the user's profile on first access. Safe to call concurrently: creation is
// an insert-if-absent on the (user_id, date) key, so racing callers converge
// on one row. The returned ledger has no meals attached.
func (s *DietService) GetOrCreateDailyLog(ctx context.Context, userID int, day CalendarDay) (DailyLog, error) {
	day = s.dayOrToday(day)
	var log DailyLog
	err := s.store.InTx(ctx, func(tx Store) error {
		var err error
		log, err = s.ensureDailyLog(ctx, tx, userID, day)
		return err
	})
	return log, err
}

func (s *DietService) ensureDailyLog(ctx context.Context, tx Store, userID int, day CalendarDay) (DailyLog, error) {
	log, err := tx.GetDailyLog(ctx, userID, day)
	if err == nil {
		return log, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return DailyLog{}, fmt.Errorf("get daily log: %w", err)
	}

	user, err := getUser(ctx, tx, userID)
	if err != nil {
		return DailyLog{}, err
	}
	b := resolveBaselines(user, user.FitnessGoal)
	seed := DailyLog{
		UserID:            userID,
		Date:              day,
		DailyNeedCalories: b.dailyNeed,
		GoalCalorieTarget: b.goalCalories,
		TargetWeight:      user.TargetWeight,
	}
	if user.BodyWeight > 0 {
		seed.CurrentWeight = &user.BodyWeight
	}
	log, err = tx.CreateDailyLogIfAbsent(ctx, seed)
	if err != nil {
		return DailyLog{}, fmt.Errorf("create daily log: %w", err)
	}

	// Write-through: fresh values become the user's fallback baselines.
	if b.freshTdee != nil || b.computedGoal != nil {
		err := tx.UpdateUserBaselines(ctx, userID, UserBaselines{
			LastCalculatedTdee: b.freshTdee,
			LastGoalCalories:   b.computedGoal,
		})
		if err != nil {
			return DailyLog{}, fmt.Errorf("update user baselines: %w", err)
		}
	}
	s.log.Debugw("daily log ready", "user_id", userID, "date", day.String(), "daily_log_id", log.ID)
	return log, nil
}

/* ─── Reads ───────────────────────────────────────────────────────────── */

// attachMeals loads the meals of every log in one query and attaches them.
func attachMeals(ctx context.Context, store MealStore, logs []DailyLog) error {
	if len(logs) == 0 {
		return nil
	}
	ids := make([]int, len(logs))
	for i, l := range logs {
		ids[i] = l.ID
	}
	meals, err := store.ListMeals(ctx, ids)
	if err != nil {
		return fmt.Errorf("list meals: %w", err)
	}
	byLog := make(map[int][]Meal, len(logs))
	for _, m := range meals {
		byLog[m.DailyLogID] = append(byLog[m.DailyLogID], m)
	}
	for i := range logs {
		logs[i].Meals = byLog[logs[i].ID]
		if logs[i].Meals == nil {
			logs[i].Meals = []Meal{}
		}
	}
	return nil
}

// GetDailyLog is get-or-create with meals attached, ordered by creation time.
// A zero day means today.
func (s *DietService) GetDailyLog(ctx context.Context, userID int, day CalendarDay) (DailyLog, error) {
	log, err := s.GetOrCreateDailyLog(ctx, userID, day)
	if err != nil {
		return DailyLog{}, err
	}
	logs := []DailyLog{log}
	if err := attachMeals(ctx, s.store, logs); err != nil {
		return DailyLog{}, err
	}
	return logs[0], nil
}

// GetDailyLogByID returns one of the user's ledgers with meals. Another
// user's ledger is reported as not found.
func (s *DietService) GetDailyLogByID(ctx context.Context, userID, logID int) (DailyLog, error) {
	log, err := s.store.GetDailyLogByID(ctx, userID, logID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return DailyLog{}, notFound("daily log not found")
		}
		return DailyLog{}, fmt.Errorf("get daily log %d: %w", logID, err)
	}
	logs := []DailyLog{log}
	if err := attachMeals(ctx, s.store, logs); err != nil {
		return DailyLog{}, err
	}
	return logs[0], nil
}

func normalizeLogQuery(q LogQuery) LogQuery {
	if q.Order != OrderAsc {
		q.Order = OrderDesc
	}
	return q
}

// ListDailyLogs returns the user's ledgers, newest first unless q.Order is
// asc. The date range is inclusive on both ends.
func (s *DietService) ListDailyLogs(ctx context.Context, userID int, q LogQuery, includeMeals bool) ([]DailyLog, error) {
	logs, err := s.store.ListDailyLogs(ctx, userID, normalizeLogQuery(q))
	if err != nil {
		return nil, fmt.Errorf("list daily logs: %w", err)
	}
	if includeMeals {
		if err := attachMeals(ctx, s.store, logs); err != nil {
			return nil, err
		}
	}
	return logs, nil
}

func (s *DietService) CountDailyLogs(ctx context.Context, userID int, q LogQuery) (int, error) {
	n, err := s.store.CountDailyLogs(ctx, userID, normalizeLogQuery(q))
	if err != nil {
		return 0, fmt.Errorf("count daily logs: %w", err)
	}
	return n, nil
}

// Day windows accepted by History and the progress views.
const (
	DefaultHistoryDays = 30
	MaxHistoryDays     = 365
)

func clampDays(days int) int {
	if days < 1 {
		return DefaultHistoryDays
	}
	return min(days, MaxHistoryDays)
}

// lastDays is the inclusive window of the last n days ending today.
func (s *DietService) lastDays(n int) (CalendarDay, CalendarDay) {
	today := s.Today()
	return today.AddDays(-(n - 1)), today
}

// History returns the ledgers of the last days days (today included), newest
// first, with meals.
func (s *DietService) History(ctx context.Context, userID, days int) ([]DailyLog, error) {
	from, to := s.lastDays(clampDays(days))
	return s.ListDailyLogs(ctx, userID, LogQuery{From: &from, To: &to, Order: OrderDesc}, true)
}

/* ─── Recalculation ───────────────────────────────────────────────────── */

// RecalculateCalories re-sums caloriesIn from the stored line items of the
// ledger for (userID, day). It never creates a ledger: nil, nil means there
// is none for that day.
func (s *DietService) RecalculateCalories(ctx context.Context, userID int, day CalendarDay) (*DailyLog, error) {
	day = s.dayOrToday(day)
	var log *DailyLog
	err := s.store.InTx(ctx, func(tx Store) error {
		var err error
		log, err = s.recalculate(ctx, tx, userID, day)
		return err
	})
	if err != nil {
		return nil, err
	}
	return log, nil
}

// recalculate must run inside a transaction. The ledger row is locked before
// the meal set is read so concurrent mutations of the same day serialize.
func (s *DietService) recalculate(ctx context.Context, tx Store, userID int, day CalendarDay) (*DailyLog, error) {
	log, err := tx.LockDailyLog(ctx, userID, day)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock daily log: %w", err)
	}
	meals, err := tx.ListMeals(ctx, []int{log.ID})
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	caloriesIn := SumMealCalories(meals)
	updated, err := tx.SaveDailyLogTotals(ctx, log.ID, caloriesIn, netCalories(caloriesIn, log.CaloriesOut), s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("save daily log totals: %w", err)
	}
	if meals == nil {
		meals = []Meal{}
	}
	updated.Meals = meals
	return &updated, nil
}

/* ─── Goal ────────────────────────────────────────────────────────────── */

// GoalInput changes the user's goal settings. Nil fields are left as they are.
type GoalInput struct {
	FitnessGoal         *FitnessGoal
	TargetWeight        *float64
	ManualCalorieTarget *int
}

func (in GoalInput) validate() error {
	if in.FitnessGoal != nil && !in.FitnessGoal.Valid() {
		return invalidInput("invalid fitness goal")
	}
	if in.TargetWeight != nil && *in.TargetWeight <= 0 {
		return invalidInput("target weight must be greater than 0")
	}
	if in.ManualCalorieTarget != nil && *in.ManualCalorieTarget <= 0 {
		return invalidInput("manual calorie target must be greater than 0")
	}
	return nil
}

// UpdateGoal recomputes TDEE and goal calories for the (possibly new) goal,
// persists them on the user, and mirrors the targets onto today's ledger.
// A ledger row is only created when the input carries a manual target or a
// target weight; a goal-only change just refreshes today's row if it exists.
func (s *DietService) UpdateGoal(ctx context.Context, userID int, in GoalInput) (User, error) {
	if err := in.validate(); err != nil {
		return User{}, err
	}
	today := s.Today()
	var updated User
	err := s.store.InTx(ctx, func(tx Store) error {
		user, err := getUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		goal := firstPresent(in.FitnessGoal, user.FitnessGoal)
		targetWeight := firstPresent(in.TargetWeight, user.TargetWeight)
		b := resolveBaselines(user, goal)

		updated, err = tx.UpdateUserGoal(ctx, userID, goal, targetWeight, UserBaselines{
			LastCalculatedTdee: b.dailyNeed,
			LastGoalCalories:   b.goalCalories,
		})
		if err != nil {
			return fmt.Errorf("update user goal: %w", err)
		}

		patch := LogPatch{
			DailyNeedCalories:   b.dailyNeed,
			GoalCalorieTarget:   b.goalCalories,
			ManualCalorieTarget: in.ManualCalorieTarget,
			TargetWeight:        targetWeight,
		}
		if in.ManualCalorieTarget == nil && in.TargetWeight == nil {
			// Refresh today's ledger only if it already exists.
			_, err := tx.GetDailyLog(ctx, userID, today)
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("get daily log: %w", err)
			}
		}
		seed := DailyLog{
			UserID:              userID,
			Date:                today,
			DailyNeedCalories:   b.dailyNeed,
			GoalCalorieTarget:   b.goalCalories,
			ManualCalorieTarget: in.ManualCalorieTarget,
			TargetWeight:        targetWeight,
		}
		_, err = tx.UpsertDailyLog(ctx, seed, patch)
		if err != nil {
			return fmt.Errorf("upsert daily log: %w", err)
		}
		return nil
	})
	if err != nil {
		return User{}, err
	}
	s.log.Infow("goal updated", "user_id", userID, "goal_calories", updated.LastGoalCalories)
	return updated, nil
}
