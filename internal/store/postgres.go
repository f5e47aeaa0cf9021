package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/lyleguay/fitlog/internal/diet"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Postgres implements diet.Store over a pgx pool. A Postgres returned to an
// InTx callback is bound to that transaction.
type Postgres struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
	log  *zap.SugaredLogger
	now  func() time.Time
}

var _ diet.Store = (*Postgres)(nil)

// OpenPostgres creates a connection pool. We use a pool (not a single conn)
// because serverless Postgres hosts close idle connections after a few
// minutes.
func OpenPostgres(ctx context.Context, url string, log *zap.SugaredLogger) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}
	// Use simple query protocol to avoid "cached plan must not change result type"
	// errors from server-side prepared statement caches after schema changes.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Infow("postgres pool ready", "max_conns", config.MaxConns)
	return &Postgres{pool: pool, q: pool, log: log, now: time.Now}, nil
}

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}

func (s *Postgres) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// InTx runs fn in a transaction; nested calls join the outer one.
func (s *Postgres) InTx(ctx context.Context, fn func(diet.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&Postgres{pool: s.pool, q: tx, inTx: true, log: s.log, now: s.now})
	})
}

/* ─── Database helpers ────────────────────────────────────────────────── */

// queryOne runs a query and scans the first row into T using RowToStructByName.
// No rows is reported as diet.ErrNotFound; other failures are logged for
// debugging (e.g. struct/column mismatches).
func queryOne[T any](ctx context.Context, q querier, log *zap.SugaredLogger, sql string, a args) (T, error) {
	var zero T
	rows, err := q.Query(ctx, sql, pgx.NamedArgs(a))
	if err != nil {
		log.Errorw("[queryOne] query error", "error", err)
		return zero, err
	}
	result, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if errors.Is(err, pgx.ErrNoRows) {
		return zero, diet.ErrNotFound
	}
	if err != nil {
		log.Errorw("[queryOne] scan error", "error", err)
	}
	return result, err
}

// queryMany runs a query and scans all rows into []T using RowToStructByName.
// An empty result is an empty, non-nil slice.
func queryMany[T any](ctx context.Context, q querier, log *zap.SugaredLogger, sql string, a args) ([]T, error) {
	rows, err := q.Query(ctx, sql, pgx.NamedArgs(a))
	if err != nil {
		log.Errorw("[queryMany] query error", "error", err)
		return nil, err
	}
	results, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		log.Errorw("[queryMany] scan error", "error", err)
		return nil, err
	}
	if results == nil {
		results = []T{}
	}
	return results, nil
}

func (s *Postgres) count(ctx context.Context, sql string, a args) (int, error) {
	var n int
	if err := s.q.QueryRow(ctx, sql, pgx.NamedArgs(a)).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// execOne runs a statement that must affect exactly one row.
func (s *Postgres) execOne(ctx context.Context, sql string, a args) error {
	tag, err := s.q.Exec(ctx, sql, pgx.NamedArgs(a))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return diet.ErrNotFound
	}
	return nil
}

func (s *Postgres) stamp(a args) args {
	a["now"] = s.now().UTC()
	return a
}

/* ─── Users ───────────────────────────────────────────────────────────── */

func (s *Postgres) GetUser(ctx context.Context, id int) (diet.User, error) {
	return queryOne[diet.User](ctx, s.q, s.log, sqlGetUser, args{"id": id})
}

func (s *Postgres) GetUserByUsername(ctx context.Context, username string) (diet.User, error) {
	return queryOne[diet.User](ctx, s.q, s.log, sqlGetUserByUsername, args{"username": username})
}

func (s *Postgres) CreateUser(ctx context.Context, u diet.User) (diet.User, error) {
	return queryOne[diet.User](ctx, s.q, s.log, sqlCreateUser, s.stamp(createUserArgs(u)))
}

func (s *Postgres) UpdateUserProfile(ctx context.Context, id int, p diet.ProfileFields, b diet.UserBaselines) (diet.User, error) {
	return queryOne[diet.User](ctx, s.q, s.log, sqlUpdateUserProfile, profileArgs(id, p, b))
}

func (s *Postgres) UpdateUserGoal(ctx context.Context, id int, goal *diet.FitnessGoal, targetWeight *float64, b diet.UserBaselines) (diet.User, error) {
	return queryOne[diet.User](ctx, s.q, s.log, sqlUpdateUserGoal, goalArgs(id, goal, targetWeight, b))
}

func (s *Postgres) UpdateUserBaselines(ctx context.Context, id int, b diet.UserBaselines) error {
	return s.execOne(ctx, sqlUpdateUserBaselines, args{"id": id, "tdee": b.LastCalculatedTdee, "goalCalories": b.LastGoalCalories})
}

func (s *Postgres) SetUserBodyWeight(ctx context.Context, id int, weight float64) error {
	return s.execOne(ctx, sqlSetUserBodyWeight, args{"id": id, "weight": weight})
}

/* ─── Foods ───────────────────────────────────────────────────────────── */

func (s *Postgres) ListFoods(ctx context.Context, userID int, q diet.FoodQuery) ([]diet.Food, error) {
	sql, a := listFoodsSQL(userID, q)
	return queryMany[diet.Food](ctx, s.q, s.log, sql, a)
}

func (s *Postgres) CountFoods(ctx context.Context, userID int, q diet.FoodQuery) (int, error) {
	sql, a := countFoodsSQL(userID, q)
	return s.count(ctx, sql, a)
}

func (s *Postgres) GetFood(ctx context.Context, id int) (diet.Food, error) {
	return queryOne[diet.Food](ctx, s.q, s.log, sqlGetFood, args{"id": id})
}

func (s *Postgres) GetFoodsByIDs(ctx context.Context, ids []int) ([]diet.Food, error) {
	if len(ids) == 0 {
		return []diet.Food{}, nil
	}
	sql, a := foodsByIDsSQL(ids)
	return queryMany[diet.Food](ctx, s.q, s.log, sql, a)
}

func (s *Postgres) FindCatalogFood(ctx context.Context, name string) (diet.Food, error) {
	return queryOne[diet.Food](ctx, s.q, s.log, sqlFindCatalogFood, args{"name": name})
}

func (s *Postgres) CreateFood(ctx context.Context, f diet.Food) (diet.Food, error) {
	return queryOne[diet.Food](ctx, s.q, s.log, sqlCreateFood, s.stamp(foodArgs(f)))
}

func (s *Postgres) UpdateFood(ctx context.Context, f diet.Food) (diet.Food, error) {
	return queryOne[diet.Food](ctx, s.q, s.log, sqlUpdateFood, foodArgs(f))
}

func (s *Postgres) DeleteFood(ctx context.Context, id int) error {
	return s.execOne(ctx, sqlDeleteFood, args{"id": id})
}

/* ─── Daily logs ──────────────────────────────────────────────────────── */

func (s *Postgres) GetDailyLog(ctx context.Context, userID int, day diet.CalendarDay) (diet.DailyLog, error) {
	return queryOne[diet.DailyLog](ctx, s.q, s.log, sqlGetDailyLog, args{"userID": userID, "date": day})
}

func (s *Postgres) GetDailyLogByID(ctx context.Context, userID, id int) (diet.DailyLog, error) {
	return queryOne[diet.DailyLog](ctx, s.q, s.log, sqlGetDailyLogByID, args{"userID": userID, "id": id})
}

// CreateDailyLogIfAbsent relies on ON CONFLICT DO NOTHING: a concurrent
// insert of the same (user_id, date) blocks on the unique index until the
// other transaction commits, then returns no row and we read the winner's.
func (s *Postgres) CreateDailyLogIfAbsent(ctx context.Context, seed diet.DailyLog) (diet.DailyLog, error) {
	log, err := queryOne[diet.DailyLog](ctx, s.q, s.log, sqlInsertDailyLogIfAbsent, s.stamp(seedArgs(seed)))
	if errors.Is(err, diet.ErrNotFound) {
		return s.GetDailyLog(ctx, seed.UserID, seed.Date)
	}
	return log, err
}

func (s *Postgres) UpsertDailyLog(ctx context.Context, seed diet.DailyLog, patch diet.LogPatch) (diet.DailyLog, error) {
	return queryOne[diet.DailyLog](ctx, s.q, s.log, sqlUpsertDailyLog, s.stamp(upsertArgs(seed, patch)))
}

// LockDailyLog takes a row lock held until the transaction ends, so meal
// mutations and recomputes of one ledger run one at a time.
func (s *Postgres) LockDailyLog(ctx context.Context, userID int, day diet.CalendarDay) (diet.DailyLog, error) {
	return queryOne[diet.DailyLog](ctx, s.q, s.log, sqlGetDailyLog+` FOR UPDATE`, args{"userID": userID, "date": day})
}

func (s *Postgres) SaveDailyLogTotals(ctx context.Context, id int, caloriesIn, netCalories float64, at time.Time) (diet.DailyLog, error) {
	return queryOne[diet.DailyLog](ctx, s.q, s.log, sqlSaveDailyLogTotals, args{
		"id": id, "caloriesIn": caloriesIn, "netCalories": netCalories, "at": at,
	})
}

func (s *Postgres) ListDailyLogs(ctx context.Context, userID int, q diet.LogQuery) ([]diet.DailyLog, error) {
	sql, a := listDailyLogsSQL(userID, q)
	return queryMany[diet.DailyLog](ctx, s.q, s.log, sql, a)
}

func (s *Postgres) CountDailyLogs(ctx context.Context, userID int, q diet.LogQuery) (int, error) {
	sql, a := countDailyLogsSQL(userID, q)
	return s.count(ctx, sql, a)
}

/* ─── Meals ───────────────────────────────────────────────────────────── */

func (s *Postgres) ListMeals(ctx context.Context, dailyLogIDs []int) ([]diet.Meal, error) {
	if len(dailyLogIDs) == 0 {
		return []diet.Meal{}, nil
	}
	sql, a := mealsByLogSQL(dailyLogIDs)
	meals, err := queryMany[diet.Meal](ctx, s.q, s.log, sql, a)
	if err != nil || len(meals) == 0 {
		return meals, err
	}
	sql, a = mealFoodsByMealSQL(mealIDs(meals))
	items, err := queryMany[diet.MealFood](ctx, s.q, s.log, sql, a)
	if err != nil {
		return nil, err
	}
	foods, err := s.GetFoodsByIDs(ctx, itemFoodIDs(items))
	if err != nil {
		return nil, err
	}
	return assembleMeals(meals, items, foods), nil
}

func (s *Postgres) GetMealOwner(ctx context.Context, mealID int) (diet.MealOwner, error) {
	var o diet.MealOwner
	err := s.q.QueryRow(ctx, sqlGetMealOwner, pgx.NamedArgs{"id": mealID}).
		Scan(&o.MealID, &o.DailyLogID, &o.UserID, &o.Date)
	if errors.Is(err, pgx.ErrNoRows) {
		return o, diet.ErrNotFound
	}
	return o, err
}

func (s *Postgres) CreateMeal(ctx context.Context, dailyLogID int, t diet.MealType, items []diet.MealFood) (diet.Meal, error) {
	meal, err := queryOne[diet.Meal](ctx, s.q, s.log, sqlInsertMeal, s.stamp(args{"dailyLogID": dailyLogID, "type": t}))
	if err != nil {
		return diet.Meal{}, err
	}
	if err := s.CreateMealFoods(ctx, meal.ID, items); err != nil {
		return diet.Meal{}, err
	}
	meal.Items = items
	return meal, nil
}

func (s *Postgres) UpdateMealType(ctx context.Context, mealID int, t diet.MealType) error {
	return s.execOne(ctx, sqlUpdateMealType, args{"id": mealID, "type": t})
}

func (s *Postgres) DeleteMealFoods(ctx context.Context, mealID int) error {
	_, err := s.q.Exec(ctx, sqlDeleteMealFoods, pgx.NamedArgs{"mealID": mealID})
	return err
}

// CreateMealFoods inserts the line items in one batch round trip.
func (s *Postgres) CreateMealFoods(ctx context.Context, mealID int, items []diet.MealFood) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(sqlInsertMealFood, pgx.NamedArgs(s.stamp(mealFoodArgs(mealID, it))))
	}
	return s.q.SendBatch(ctx, batch).Close()
}

func (s *Postgres) DeleteMeal(ctx context.Context, mealID int) error {
	return s.execOne(ctx, sqlDeleteMeal, args{"id": mealID})
}

/* ─── Weight logs ─────────────────────────────────────────────────────── */

func (s *Postgres) UpsertWeightLog(ctx context.Context, userID int, day diet.CalendarDay, weight float64) (diet.WeightLog, error) {
	return queryOne[diet.WeightLog](ctx, s.q, s.log, sqlUpsertWeightLog, s.stamp(args{
		"userID": userID, "loggedAt": day, "weight": weight,
	}))
}

func (s *Postgres) ListWeightLogs(ctx context.Context, userID int, from, to diet.CalendarDay) ([]diet.WeightLog, error) {
	return queryMany[diet.WeightLog](ctx, s.q, s.log, sqlListWeightLogs, args{"userID": userID, "from": from, "to": to})
}
