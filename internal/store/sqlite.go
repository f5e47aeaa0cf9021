package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/lyleguay/fitlog/internal/diet"
)

// sqlQuerier is satisfied by both *sql.DB and *sql.Tx.
type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLite implements diet.Store over an embedded database file. The pool is
// capped at one connection, so transactions are serialized and LockDailyLog
// needs no explicit lock.
type SQLite struct {
	db   *sql.DB
	q    sqlQuerier
	inTx bool
	log  *zap.SugaredLogger
	now  func() time.Time
}

var _ diet.Store = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the database at path with WAL and
// foreign keys enabled.
func OpenSQLite(ctx context.Context, path string, log *zap.SugaredLogger) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	log.Infow("sqlite database ready", "path", path)
	return &SQLite{db: db, q: db, log: log, now: time.Now}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// InTx runs fn in a transaction; nested calls join the outer one.
func (s *SQLite) InTx(ctx context.Context, fn func(diet.Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.log.Warnw("rollback failed", "error", rbErr)
			}
		}
	}()
	if err = fn(&SQLite{db: s.db, q: tx, inTx: true, log: s.log, now: s.now}); err != nil {
		return err
	}
	return tx.Commit()
}

/* ─── Database helpers ────────────────────────────────────────────────── */

var paramPattern = regexp.MustCompile(`@([A-Za-z_][A-Za-z0-9_]*)`)

// bind turns the @name parameters used by query into sql.Named values.
// Only parameters that appear in the statement are bound.
func bind(query string, a args) ([]any, error) {
	seen := map[string]bool{}
	var out []any
	for _, m := range paramPattern.FindAllStringSubmatch(query, -1) {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		v, ok := a[name]
		if !ok {
			return nil, fmt.Errorf("missing sql parameter %q", name)
		}
		out = append(out, sql.Named(name, v))
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func sqliteOne[T any](ctx context.Context, s *SQLite, query string, a args, scan func(rowScanner) (T, error)) (T, error) {
	var zero T
	bound, err := bind(query, a)
	if err != nil {
		return zero, err
	}
	result, err := scan(s.q.QueryRowContext(ctx, query, bound...))
	if errors.Is(err, sql.ErrNoRows) {
		return zero, diet.ErrNotFound
	}
	if err != nil {
		s.log.Errorw("[sqliteOne] query error", "error", err)
		return zero, err
	}
	return result, nil
}

func sqliteMany[T any](ctx context.Context, s *SQLite, query string, a args, scan func(rowScanner) (T, error)) ([]T, error) {
	bound, err := bind(query, a)
	if err != nil {
		return nil, err
	}
	rows, err := s.q.QueryContext(ctx, query, bound...)
	if err != nil {
		s.log.Errorw("[sqliteMany] query error", "error", err)
		return nil, err
	}
	defer rows.Close()
	results := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			s.log.Errorw("[sqliteMany] scan error", "error", err)
			return nil, err
		}
		results = append(results, v)
	}
	return results, rows.Err()
}

func (s *SQLite) exec(ctx context.Context, query string, a args) (int64, error) {
	bound, err := bind(query, a)
	if err != nil {
		return 0, err
	}
	res, err := s.q.ExecContext(ctx, query, bound...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLite) execOne(ctx context.Context, query string, a args) error {
	n, err := s.exec(ctx, query, a)
	if err != nil {
		return err
	}
	if n == 0 {
		return diet.ErrNotFound
	}
	return nil
}

func (s *SQLite) count(ctx context.Context, query string, a args) (int, error) {
	return sqliteOne(ctx, s, query, a, func(r rowScanner) (int, error) {
		var n int
		err := r.Scan(&n)
		return n, err
	})
}

func (s *SQLite) stamp(a args) args {
	a["now"] = s.now().UTC()
	return a
}

/* ─── Row scanners ────────────────────────────────────────────────────── */

func scanUser(r rowScanner) (diet.User, error) {
	var u diet.User
	err := r.Scan(&u.ID, &u.Username, &u.Email, &u.Name, &u.Password, &u.Age, &u.Gender, &u.BodyWeight,
		&u.Height, &u.FitnessGoal, &u.ActivityLevel, &u.TargetWeight, &u.LastCalculatedTdee,
		&u.LastGoalCalories, &u.CreatedAt)
	return u, err
}

func scanFood(r rowScanner) (diet.Food, error) {
	var f diet.Food
	err := r.Scan(&f.ID, &f.Name, &f.Calories, &f.Protein, &f.Carbs, &f.Fat, &f.Serving, &f.CreatedBy, &f.CreatedAt)
	return f, err
}

func scanDailyLog(r rowScanner) (diet.DailyLog, error) {
	var l diet.DailyLog
	err := r.Scan(&l.ID, &l.UserID, &l.Date, &l.CaloriesIn, &l.CaloriesOut, &l.NetCalories,
		&l.DailyNeedCalories, &l.GoalCalorieTarget, &l.ManualCalorieTarget,
		&l.CurrentWeight, &l.TargetWeight, &l.LastRecalculatedAt, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func scanMeal(r rowScanner) (diet.Meal, error) {
	var m diet.Meal
	err := r.Scan(&m.ID, &m.DailyLogID, &m.Type, &m.CreatedAt)
	return m, err
}

func scanMealFood(r rowScanner) (diet.MealFood, error) {
	var it diet.MealFood
	err := r.Scan(&it.ID, &it.MealID, &it.FoodID, &it.Portion, &it.TotalCal, &it.CaloriesSnapshot,
		&it.ProteinSnapshot, &it.FatSnapshot, &it.CarbsSnapshot, &it.ServingSnapshot,
		&it.FoodNameSnapshot, &it.CreatedAt)
	return it, err
}

func scanWeightLog(r rowScanner) (diet.WeightLog, error) {
	var w diet.WeightLog
	err := r.Scan(&w.ID, &w.UserID, &w.LoggedAt, &w.Weight, &w.CreatedAt)
	return w, err
}

func scanMealOwner(r rowScanner) (diet.MealOwner, error) {
	var o diet.MealOwner
	err := r.Scan(&o.MealID, &o.DailyLogID, &o.UserID, &o.Date)
	return o, err
}

/* ─── Users ───────────────────────────────────────────────────────────── */

func (s *SQLite) GetUser(ctx context.Context, id int) (diet.User, error) {
	return sqliteOne(ctx, s, sqlGetUser, args{"id": id}, scanUser)
}

func (s *SQLite) GetUserByUsername(ctx context.Context, username string) (diet.User, error) {
	return sqliteOne(ctx, s, sqlGetUserByUsername, args{"username": username}, scanUser)
}

func (s *SQLite) CreateUser(ctx context.Context, u diet.User) (diet.User, error) {
	return sqliteOne(ctx, s, sqlCreateUser, s.stamp(createUserArgs(u)), scanUser)
}

func (s *SQLite) UpdateUserProfile(ctx context.Context, id int, p diet.ProfileFields, b diet.UserBaselines) (diet.User, error) {
	return sqliteOne(ctx, s, sqlUpdateUserProfile, profileArgs(id, p, b), scanUser)
}

func (s *SQLite) UpdateUserGoal(ctx context.Context, id int, goal *diet.FitnessGoal, targetWeight *float64, b diet.UserBaselines) (diet.User, error) {
	return sqliteOne(ctx, s, sqlUpdateUserGoal, goalArgs(id, goal, targetWeight, b), scanUser)
}

func (s *SQLite) UpdateUserBaselines(ctx context.Context, id int, b diet.UserBaselines) error {
	return s.execOne(ctx, sqlUpdateUserBaselines, args{"id": id, "tdee": b.LastCalculatedTdee, "goalCalories": b.LastGoalCalories})
}

func (s *SQLite) SetUserBodyWeight(ctx context.Context, id int, weight float64) error {
	return s.execOne(ctx, sqlSetUserBodyWeight, args{"id": id, "weight": weight})
}

/* ─── Foods ───────────────────────────────────────────────────────────── */

func (s *SQLite) ListFoods(ctx context.Context, userID int, q diet.FoodQuery) ([]diet.Food, error) {
	query, a := listFoodsSQL(userID, q)
	return sqliteMany(ctx, s, query, a, scanFood)
}

func (s *SQLite) CountFoods(ctx context.Context, userID int, q diet.FoodQuery) (int, error) {
	query, a := countFoodsSQL(userID, q)
	return s.count(ctx, query, a)
}

func (s *SQLite) GetFood(ctx context.Context, id int) (diet.Food, error) {
	return sqliteOne(ctx, s, sqlGetFood, args{"id": id}, scanFood)
}

func (s *SQLite) GetFoodsByIDs(ctx context.Context, ids []int) ([]diet.Food, error) {
	if len(ids) == 0 {
		return []diet.Food{}, nil
	}
	query, a := foodsByIDsSQL(ids)
	return sqliteMany(ctx, s, query, a, scanFood)
}

func (s *SQLite) FindCatalogFood(ctx context.Context, name string) (diet.Food, error) {
	return sqliteOne(ctx, s, sqlFindCatalogFood, args{"name": name}, scanFood)
}

func (s *SQLite) CreateFood(ctx context.Context, f diet.Food) (diet.Food, error) {
	return sqliteOne(ctx, s, sqlCreateFood, s.stamp(foodArgs(f)), scanFood)
}

func (s *SQLite) UpdateFood(ctx context.Context, f diet.Food) (diet.Food, error) {
	return sqliteOne(ctx, s, sqlUpdateFood, foodArgs(f), scanFood)
}

func (s *SQLite) DeleteFood(ctx context.Context, id int) error {
	return s.execOne(ctx, sqlDeleteFood, args{"id": id})
}

/* ─── Daily logs ──────────────────────────────────────────────────────── */

func (s *SQLite) GetDailyLog(ctx context.Context, userID int, day diet.CalendarDay) (diet.DailyLog, error) {
	return sqliteOne(ctx, s, sqlGetDailyLog, args{"userID": userID, "date": day}, scanDailyLog)
}

func (s *SQLite) GetDailyLogByID(ctx context.Context, userID, id int) (diet.DailyLog, error) {
	return sqliteOne(ctx, s, sqlGetDailyLogByID, args{"userID": userID, "id": id}, scanDailyLog)
}

func (s *SQLite) CreateDailyLogIfAbsent(ctx context.Context, seed diet.DailyLog) (diet.DailyLog, error) {
	log, err := sqliteOne(ctx, s, sqlInsertDailyLogIfAbsent, s.stamp(seedArgs(seed)), scanDailyLog)
	if errors.Is(err, diet.ErrNotFound) {
		return s.GetDailyLog(ctx, seed.UserID, seed.Date)
	}
	return log, err
}

func (s *SQLite) UpsertDailyLog(ctx context.Context, seed diet.DailyLog, patch diet.LogPatch) (diet.DailyLog, error) {
	return sqliteOne(ctx, s, sqlUpsertDailyLog, s.stamp(upsertArgs(seed, patch)), scanDailyLog)
}

// LockDailyLog is a plain read: the single connection already serializes
// transactions.
func (s *SQLite) LockDailyLog(ctx context.Context, userID int, day diet.CalendarDay) (diet.DailyLog, error) {
	return s.GetDailyLog(ctx, userID, day)
}

func (s *SQLite) SaveDailyLogTotals(ctx context.Context, id int, caloriesIn, netCalories float64, at time.Time) (diet.DailyLog, error) {
	return sqliteOne(ctx, s, sqlSaveDailyLogTotals, args{
		"id": id, "caloriesIn": caloriesIn, "netCalories": netCalories, "at": at,
	}, scanDailyLog)
}

func (s *SQLite) ListDailyLogs(ctx context.Context, userID int, q diet.LogQuery) ([]diet.DailyLog, error) {
	query, a := listDailyLogsSQL(userID, q)
	return sqliteMany(ctx, s, query, a, scanDailyLog)
}

func (s *SQLite) CountDailyLogs(ctx context.Context, userID int, q diet.LogQuery) (int, error) {
	query, a := countDailyLogsSQL(userID, q)
	return s.count(ctx, query, a)
}

/* ─── Meals ───────────────────────────────────────────────────────────── */

func (s *SQLite) ListMeals(ctx context.Context, dailyLogIDs []int) ([]diet.Meal, error) {
	if len(dailyLogIDs) == 0 {
		return []diet.Meal{}, nil
	}
	query, a := mealsByLogSQL(dailyLogIDs)
	meals, err := sqliteMany(ctx, s, query, a, scanMeal)
	if err != nil || len(meals) == 0 {
		return meals, err
	}
	query, a = mealFoodsByMealSQL(mealIDs(meals))
	items, err := sqliteMany(ctx, s, query, a, scanMealFood)
	if err != nil {
		return nil, err
	}
	foods, err := s.GetFoodsByIDs(ctx, itemFoodIDs(items))
	if err != nil {
		return nil, err
	}
	return assembleMeals(meals, items, foods), nil
}

func (s *SQLite) GetMealOwner(ctx context.Context, mealID int) (diet.MealOwner, error) {
	return sqliteOne(ctx, s, sqlGetMealOwner, args{"id": mealID}, scanMealOwner)
}

func (s *SQLite) CreateMeal(ctx context.Context, dailyLogID int, t diet.MealType, items []diet.MealFood) (diet.Meal, error) {
	meal, err := sqliteOne(ctx, s, sqlInsertMeal, s.stamp(args{"dailyLogID": dailyLogID, "type": t}), scanMeal)
	if err != nil {
		return diet.Meal{}, err
	}
	if err := s.CreateMealFoods(ctx, meal.ID, items); err != nil {
		return diet.Meal{}, err
	}
	meal.Items = items
	return meal, nil
}

func (s *SQLite) UpdateMealType(ctx context.Context, mealID int, t diet.MealType) error {
	return s.execOne(ctx, sqlUpdateMealType, args{"id": mealID, "type": t})
}

func (s *SQLite) DeleteMealFoods(ctx context.Context, mealID int) error {
	_, err := s.exec(ctx, sqlDeleteMealFoods, args{"mealID": mealID})
	return err
}

func (s *SQLite) CreateMealFoods(ctx context.Context, mealID int, items []diet.MealFood) error {
	for _, it := range items {
		if _, err := s.exec(ctx, sqlInsertMealFood, s.stamp(mealFoodArgs(mealID, it))); err != nil {
			return fmt.Errorf("insert meal food: %w", err)
		}
	}
	return nil
}

func (s *SQLite) DeleteMeal(ctx context.Context, mealID int) error {
	return s.execOne(ctx, sqlDeleteMeal, args{"id": mealID})
}

/* ─── Weight logs ─────────────────────────────────────────────────────── */

func (s *SQLite) UpsertWeightLog(ctx context.Context, userID int, day diet.CalendarDay, weight float64) (diet.WeightLog, error) {
	return sqliteOne(ctx, s, sqlUpsertWeightLog, s.stamp(args{
		"userID": userID, "loggedAt": day, "weight": weight,
	}), scanWeightLog)
}

func (s *SQLite) ListWeightLogs(ctx context.Context, userID int, from, to diet.CalendarDay) ([]diet.WeightLog, error) {
	return sqliteMany(ctx, s, sqlListWeightLogs, args{"userID": userID, "from": from, "to": to}, scanWeightLog)
}
