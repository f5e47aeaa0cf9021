package store

import (
	"fmt"
	"strings"

	"github.com/lyleguay/fitlog/internal/diet"
)

// Both backends bind @name parameters: pgx rewrites them from pgx.NamedArgs
// and SQLite binds them natively from sql.Named. Statements in this file are
// shared; dialect-specific ones live next to each store.
type args map[string]any

const (
	userColumns = `id, username, email, name, password, age, gender, body_weight, height,
		fitness_goal, activity_level, target_weight, last_calculated_tdee, last_goal_calories, created_at`

	foodColumns = `id, name, calories, protein, carbs, fat, serving, created_by, created_at`

	dailyLogColumns = `id, user_id, date, calories_in, calories_out, net_calories,
		daily_need_calories, goal_calorie_target, manual_calorie_target,
		current_weight, target_weight, last_recalculated_at, created_at, updated_at`

	mealColumns = `id, daily_log_id, type, created_at`

	mealFoodColumns = `id, meal_id, food_id, portion, total_cal, calories_snapshot, protein_snapshot,
		fat_snapshot, carbs_snapshot, serving_snapshot, food_name_snapshot, created_at`

	weightLogColumns = `id, user_id, logged_at, weight, created_at`
)

/* ─── Users ───────────────────────────────────────────────────────────── */

const (
	sqlGetUser           = `SELECT ` + userColumns + ` FROM users WHERE id = @id`
	sqlGetUserByUsername = `SELECT ` + userColumns + ` FROM users WHERE username = @username`

	sqlCreateUser = `INSERT INTO users
			(username, email, name, password, age, gender, body_weight, height,
			 fitness_goal, activity_level, target_weight, created_at)
		VALUES (@username, @email, @name, @password, @age, @gender, @bodyWeight, @height,
			@fitnessGoal, @activityLevel, @targetWeight, @now)
		RETURNING ` + userColumns

	sqlUpdateUserProfile = `UPDATE users SET
			name = @name, age = @age, gender = @gender, body_weight = @bodyWeight, height = @height,
			fitness_goal = @fitnessGoal, activity_level = @activityLevel, target_weight = @targetWeight,
			last_calculated_tdee = COALESCE(@tdee, last_calculated_tdee),
			last_goal_calories = COALESCE(@goalCalories, last_goal_calories)
		WHERE id = @id
		RETURNING ` + userColumns

	sqlUpdateUserGoal = `UPDATE users SET
			fitness_goal = @fitnessGoal, target_weight = @targetWeight,
			last_calculated_tdee = COALESCE(@tdee, last_calculated_tdee),
			last_goal_calories = COALESCE(@goalCalories, last_goal_calories)
		WHERE id = @id
		RETURNING ` + userColumns

	sqlUpdateUserBaselines = `UPDATE users SET
			last_calculated_tdee = COALESCE(@tdee, last_calculated_tdee),
			last_goal_calories = COALESCE(@goalCalories, last_goal_calories)
		WHERE id = @id`

	sqlSetUserBodyWeight = `UPDATE users SET body_weight = @weight WHERE id = @id`
)

func createUserArgs(u diet.User) args {
	return args{
		"username":      u.Username,
		"email":         u.Email,
		"name":          u.Name,
		"password":      u.Password,
		"age":           u.Age,
		"gender":        u.Gender,
		"bodyWeight":    u.BodyWeight,
		"height":        u.Height,
		"fitnessGoal":   u.FitnessGoal,
		"activityLevel": u.ActivityLevel,
		"targetWeight":  u.TargetWeight,
	}
}

func profileArgs(id int, p diet.ProfileFields, b diet.UserBaselines) args {
	return args{
		"id":            id,
		"name":          p.Name,
		"age":           p.Age,
		"gender":        p.Gender,
		"bodyWeight":    p.BodyWeight,
		"height":        p.Height,
		"fitnessGoal":   p.FitnessGoal,
		"activityLevel": p.ActivityLevel,
		"targetWeight":  p.TargetWeight,
		"tdee":          b.LastCalculatedTdee,
		"goalCalories":  b.LastGoalCalories,
	}
}

func goalArgs(id int, goal *diet.FitnessGoal, targetWeight *float64, b diet.UserBaselines) args {
	return args{
		"id":           id,
		"fitnessGoal":  goal,
		"targetWeight": targetWeight,
		"tdee":         b.LastCalculatedTdee,
		"goalCalories": b.LastGoalCalories,
	}
}

/* ─── Foods ───────────────────────────────────────────────────────────── */

const (
	sqlGetFood         = `SELECT ` + foodColumns + ` FROM foods WHERE id = @id`
	sqlFindCatalogFood = `SELECT ` + foodColumns + ` FROM foods
		WHERE created_by IS NULL AND LOWER(name) = LOWER(@name)
		ORDER BY id LIMIT 1`
	sqlCreateFood = `INSERT INTO foods (name, calories, protein, carbs, fat, serving, created_by, created_at)
		VALUES (@name, @calories, @protein, @carbs, @fat, @serving, @createdBy, @now)
		RETURNING ` + foodColumns
	sqlUpdateFood = `UPDATE foods SET
			name = @name, calories = @calories, protein = @protein, carbs = @carbs, fat = @fat, serving = @serving
		WHERE id = @id
		RETURNING ` + foodColumns
	sqlDeleteFood = `DELETE FROM foods WHERE id = @id`
)

func foodArgs(f diet.Food) args {
	return args{
		"id":        f.ID,
		"name":      f.Name,
		"calories":  f.Calories,
		"protein":   f.Protein,
		"carbs":     f.Carbs,
		"fat":       f.Fat,
		"serving":   f.Serving,
		"createdBy": f.CreatedBy,
	}
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// foodFilter builds the WHERE clause for the foods visible to userID.
func foodFilter(userID int, q diet.FoodQuery) (string, args) {
	a := args{"userID": userID}
	var where string
	switch q.Scope {
	case diet.ScopeCatalog:
		where = `created_by IS NULL`
	case diet.ScopePersonal:
		where = `created_by = @userID`
	default:
		where = `(created_by IS NULL OR created_by = @userID)`
	}
	if q.Search != "" {
		where += ` AND LOWER(name) LIKE @search ESCAPE '\'`
		a["search"] = "%" + escapeLike(strings.ToLower(q.Search)) + "%"
	}
	return where, a
}

func listFoodsSQL(userID int, q diet.FoodQuery) (string, args) {
	where, a := foodFilter(userID, q)
	sql := `SELECT ` + foodColumns + ` FROM foods WHERE ` + where +
		` ORDER BY (created_by IS NOT NULL), LOWER(name), id` + pageClause(q.Page, a)
	return sql, a
}

func countFoodsSQL(userID int, q diet.FoodQuery) (string, args) {
	where, a := foodFilter(userID, q)
	return `SELECT COUNT(*) FROM foods WHERE ` + where, a
}

// inList expands ids into named parameters for an IN clause and adds them to a.
func inList(prefix string, ids []int, a args) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		name := fmt.Sprintf("%s%d", prefix, i)
		a[name] = id
		names[i] = "@" + name
	}
	return "(" + strings.Join(names, ", ") + ")"
}

func foodsByIDsSQL(ids []int) (string, args) {
	a := args{}
	return `SELECT ` + foodColumns + ` FROM foods WHERE id IN ` + inList("id", ids, a) + ` ORDER BY id`, a
}

func pageClause(p diet.Page, a args) string {
	if p.Limit <= 0 {
		return ""
	}
	a["limit"] = p.Limit
	a["offset"] = max(p.Offset, 0)
	return ` LIMIT @limit OFFSET @offset`
}

/* ─── Daily logs ──────────────────────────────────────────────────────── */

const (
	sqlGetDailyLog     = `SELECT ` + dailyLogColumns + ` FROM daily_logs WHERE user_id = @userID AND date = @date`
	sqlGetDailyLogByID = `SELECT ` + dailyLogColumns + ` FROM daily_logs WHERE id = @id AND user_id = @userID`

	sqlInsertDailyLogIfAbsent = `INSERT INTO daily_logs
			(user_id, date, daily_need_calories, goal_calorie_target, manual_calorie_target,
			 current_weight, target_weight, created_at, updated_at)
		VALUES (@userID, @date, @dailyNeed, @goalTarget, @manualTarget, @currentWeight, @targetWeight, @now, @now)
		ON CONFLICT (user_id, date) DO NOTHING
		RETURNING ` + dailyLogColumns

	sqlUpsertDailyLog = `INSERT INTO daily_logs
			(user_id, date, daily_need_calories, goal_calorie_target, manual_calorie_target,
			 current_weight, target_weight, created_at, updated_at)
		VALUES (@userID, @date, @dailyNeed, @goalTarget, @manualTarget, @currentWeight, @targetWeight, @now, @now)
		ON CONFLICT (user_id, date) DO UPDATE SET
			daily_need_calories = COALESCE(@patchDailyNeed, daily_logs.daily_need_calories),
			goal_calorie_target = COALESCE(@patchGoalTarget, daily_logs.goal_calorie_target),
			manual_calorie_target = COALESCE(@patchManualTarget, daily_logs.manual_calorie_target),
			current_weight = COALESCE(@patchCurrentWeight, daily_logs.current_weight),
			target_weight = COALESCE(@patchTargetWeight, daily_logs.target_weight),
			updated_at = @now
		RETURNING ` + dailyLogColumns

	sqlSaveDailyLogTotals = `UPDATE daily_logs SET
			calories_in = @caloriesIn, net_calories = @netCalories,
			last_recalculated_at = @at, updated_at = @at
		WHERE id = @id
		RETURNING ` + dailyLogColumns
)

func seedArgs(seed diet.DailyLog) args {
	return args{
		"userID":        seed.UserID,
		"date":          seed.Date,
		"dailyNeed":     seed.DailyNeedCalories,
		"goalTarget":    seed.GoalCalorieTarget,
		"manualTarget":  seed.ManualCalorieTarget,
		"currentWeight": seed.CurrentWeight,
		"targetWeight":  seed.TargetWeight,
	}
}

// upsertArgs fills nil patch fields from the seed so an insert carries the
// patched values too.
func upsertArgs(seed diet.DailyLog, p diet.LogPatch) args {
	if p.DailyNeedCalories != nil {
		seed.DailyNeedCalories = p.DailyNeedCalories
	}
	if p.GoalCalorieTarget != nil {
		seed.GoalCalorieTarget = p.GoalCalorieTarget
	}
	if p.ManualCalorieTarget != nil {
		seed.ManualCalorieTarget = p.ManualCalorieTarget
	}
	if p.CurrentWeight != nil {
		seed.CurrentWeight = p.CurrentWeight
	}
	if p.TargetWeight != nil {
		seed.TargetWeight = p.TargetWeight
	}
	a := seedArgs(seed)
	a["patchDailyNeed"] = p.DailyNeedCalories
	a["patchGoalTarget"] = p.GoalCalorieTarget
	a["patchManualTarget"] = p.ManualCalorieTarget
	a["patchCurrentWeight"] = p.CurrentWeight
	a["patchTargetWeight"] = p.TargetWeight
	return a
}

func logFilter(userID int, q diet.LogQuery) (string, args) {
	a := args{"userID": userID}
	where := `user_id = @userID`
	if q.From != nil {
		where += ` AND date >= @from`
		a["from"] = *q.From
	}
	if q.To != nil {
		where += ` AND date <= @to`
		a["to"] = *q.To
	}
	return where, a
}

func listDailyLogsSQL(userID int, q diet.LogQuery) (string, args) {
	where, a := logFilter(userID, q)
	order := "DESC"
	if q.Order == diet.OrderAsc {
		order = "ASC"
	}
	return `SELECT ` + dailyLogColumns + ` FROM daily_logs WHERE ` + where +
		` ORDER BY date ` + order + pageClause(q.Page, a), a
}

func countDailyLogsSQL(userID int, q diet.LogQuery) (string, args) {
	where, a := logFilter(userID, q)
	return `SELECT COUNT(*) FROM daily_logs WHERE ` + where, a
}

/* ─── Meals ───────────────────────────────────────────────────────────── */

const (
	sqlGetMealOwner = `SELECT m.id, m.daily_log_id, l.user_id, l.date
		FROM meals m JOIN daily_logs l ON l.id = m.daily_log_id
		WHERE m.id = @id`
	sqlInsertMeal = `INSERT INTO meals (daily_log_id, type, created_at)
		VALUES (@dailyLogID, @type, @now)
		RETURNING ` + mealColumns
	sqlUpdateMealType  = `UPDATE meals SET type = @type WHERE id = @id`
	sqlDeleteMealFoods = `DELETE FROM meal_foods WHERE meal_id = @mealID`
	sqlDeleteMeal      = `DELETE FROM meals WHERE id = @id`
	sqlInsertMealFood  = `INSERT INTO meal_foods
			(meal_id, food_id, portion, total_cal, calories_snapshot, protein_snapshot,
			 fat_snapshot, carbs_snapshot, serving_snapshot, food_name_snapshot, created_at)
		VALUES (@mealID, @foodID, @portion, @totalCal, @caloriesSnapshot, @proteinSnapshot,
			@fatSnapshot, @carbsSnapshot, @servingSnapshot, @foodNameSnapshot, @now)`
)

func mealFoodArgs(mealID int, it diet.MealFood) args {
	return args{
		"mealID":           mealID,
		"foodID":           it.FoodID,
		"portion":          it.Portion,
		"totalCal":         it.TotalCal,
		"caloriesSnapshot": it.CaloriesSnapshot,
		"proteinSnapshot":  it.ProteinSnapshot,
		"fatSnapshot":      it.FatSnapshot,
		"carbsSnapshot":    it.CarbsSnapshot,
		"servingSnapshot":  it.ServingSnapshot,
		"foodNameSnapshot": it.FoodNameSnapshot,
	}
}

func mealsByLogSQL(logIDs []int) (string, args) {
	a := args{}
	return `SELECT ` + mealColumns + ` FROM meals WHERE daily_log_id IN ` + inList("log", logIDs, a) +
		` ORDER BY created_at, id`, a
}

func mealFoodsByMealSQL(mealIDs []int) (string, args) {
	a := args{}
	return `SELECT ` + mealFoodColumns + ` FROM meal_foods WHERE meal_id IN ` + inList("meal", mealIDs, a) +
		` ORDER BY created_at, id`, a
}

// assembleMeals attaches line items to their meals and live foods to their
// line items. Items whose food was deleted keep Food nil and rely on their
// snapshot.
func assembleMeals(meals []diet.Meal, items []diet.MealFood, foods []diet.Food) []diet.Meal {
	foodByID := make(map[int]*diet.Food, len(foods))
	for i := range foods {
		foodByID[foods[i].ID] = &foods[i]
	}
	itemsByMeal := make(map[int][]diet.MealFood, len(meals))
	for _, it := range items {
		if it.FoodID != nil {
			it.Food = foodByID[*it.FoodID]
		}
		itemsByMeal[it.MealID] = append(itemsByMeal[it.MealID], it)
	}
	for i := range meals {
		meals[i].Items = itemsByMeal[meals[i].ID]
		if meals[i].Items == nil {
			meals[i].Items = []diet.MealFood{}
		}
	}
	return meals
}

func mealIDs(meals []diet.Meal) []int {
	ids := make([]int, len(meals))
	for i, m := range meals {
		ids[i] = m.ID
	}
	return ids
}

func itemFoodIDs(items []diet.MealFood) []int {
	seen := map[int]bool{}
	var ids []int
	for _, it := range items {
		if it.FoodID != nil && !seen[*it.FoodID] {
			seen[*it.FoodID] = true
			ids = append(ids, *it.FoodID)
		}
	}
	return ids
}

/* ─── Weight logs ─────────────────────────────────────────────────────── */

const (
	sqlUpsertWeightLog = `INSERT INTO weight_logs (user_id, logged_at, weight, created_at)
		VALUES (@userID, @loggedAt, @weight, @now)
		ON CONFLICT (user_id, logged_at) DO UPDATE SET weight = EXCLUDED.weight
		RETURNING ` + weightLogColumns
	sqlListWeightLogs = `SELECT ` + weightLogColumns + ` FROM weight_logs
		WHERE user_id = @userID AND logged_at >= @from AND logged_at <= @to
		ORDER BY logged_at`
)
