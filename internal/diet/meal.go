package diet

import (
	"context"
	"errors"
	"fmt"
)

// MealItemInput is one food-portion pair of a meal.
type MealItemInput struct {
	FoodID  int
	Portion float64
}

// MealInput describes a meal to add or the replacement contents of an
// existing meal. Date is ignored on update; a zero Date means today.
type MealInput struct {
	Type  MealType
	Items []MealItemInput
	Date  CalendarDay
}

func (in MealInput) validate() error {
	if !in.Type.Valid() {
		return invalidInput("invalid meal type")
	}
	if len(in.Items) == 0 {
		return invalidInput("meal items cannot be empty")
	}
	for _, it := range in.Items {
		if it.Portion < 0 {
			return invalidInput("portion must not be negative")
		}
	}
	return nil
}

// resolveItems batch-loads the referenced foods and builds line items with
// frozen nutrition snapshots. Any unknown food id is an invalid reference.
func (s *DietService) resolveItems(ctx context.Context, items []MealItemInput) ([]MealFood, error) {
	ids := make([]int, 0, len(items))
	seen := make(map[int]bool, len(items))
	for _, it := range items {
		if !seen[it.FoodID] {
			seen[it.FoodID] = true
			ids = append(ids, it.FoodID)
		}
	}
	foods, err := s.foods.GetFoodsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(foods) != len(ids) {
		return nil, invalidReference("invalid food reference")
	}
	byID := make(map[int]Food, len(foods))
	for _, f := range foods {
		byID[f.ID] = f
	}

	out := make([]MealFood, len(items))
	for i, it := range items {
		out[i] = snapshotItem(byID[it.FoodID], it.Portion)
	}
	return out, nil
}

// snapshotItem copies the food's nutrition into a new line item. The
// snapshot is never rewritten afterwards.
func snapshotItem(f Food, portion float64) MealFood {
	id := f.ID
	return MealFood{
		FoodID:           &id,
		Portion:          portion,
		TotalCal:         LineTotal(f.Calories, portion),
		CaloriesSnapshot: f.Calories,
		ProteinSnapshot:  f.Protein,
		FatSnapshot:      f.Fat,
		CarbsSnapshot:    f.Carbs,
		ServingSnapshot:  f.Serving,
		FoodNameSnapshot: f.Name,
	}
}

// AddMeal logs a meal on the ledger for in.Date (today when zero), creating
// the ledger if needed, and returns the recalculated ledger with meals.
func (s *DietService) AddMeal(ctx context.Context, userID int, in MealInput) (DailyLog, error) {
	if err := in.validate(); err != nil {
		return DailyLog{}, err
	}
	day := s.dayOrToday(in.Date)
	items, err := s.resolveItems(ctx, in.Items)
	if err != nil {
		return DailyLog{}, err
	}

	var result *DailyLog
	err = s.store.InTx(ctx, func(tx Store) error {
		log, err := s.ensureDailyLog(ctx, tx, userID, day)
		if err != nil {
			return err
		}
		if _, err := tx.LockDailyLog(ctx, userID, day); err != nil {
			return fmt.Errorf("lock daily log: %w", err)
		}
		if _, err := tx.CreateMeal(ctx, log.ID, in.Type, items); err != nil {
			return fmt.Errorf("create meal: %w", err)
		}
		result, err = s.recalculate(ctx, tx, userID, day)
		return err
	})
	if err != nil {
		return DailyLog{}, err
	}
	s.log.Infow("meal added", "user_id", userID, "date", day.String(), "items", len(items))
	return *result, nil
}

// mealOwnedBy loads the meal's ledger and folds ownership failures into
// not found.
func mealOwnedBy(ctx context.Context, store MealStore, userID, mealID int) (MealOwner, error) {
	owner, err := store.GetMealOwner(ctx, mealID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return MealOwner{}, fmt.Errorf("get meal %d: %w", mealID, err)
	}
	if err != nil || owner.UserID != userID {
		return MealOwner{}, notFound("meal not found")
	}
	return owner, nil
}

// mealGone reports a meal removed after the ownership check as not found.
func mealGone(err error, op string) error {
	if errors.Is(err, ErrNotFound) {
		return notFound("meal not found")
	}
	return fmt.Errorf("%s: %w", op, err)
}

// UpdateMeal replaces the meal's type and every line item atomically, then
// recalculates the ledger of the meal's original day.
func (s *DietService) UpdateMeal(ctx context.Context, userID, mealID int, in MealInput) (DailyLog, error) {
	if err := in.validate(); err != nil {
		return DailyLog{}, err
	}
	owner, err := mealOwnedBy(ctx, s.store, userID, mealID)
	if err != nil {
		return DailyLog{}, err
	}
	items, err := s.resolveItems(ctx, in.Items)
	if err != nil {
		return DailyLog{}, err
	}

	var result *DailyLog
	err = s.store.InTx(ctx, func(tx Store) error {
		if _, err := tx.LockDailyLog(ctx, userID, owner.Date); err != nil {
			return fmt.Errorf("lock daily log: %w", err)
		}
		if err := tx.UpdateMealType(ctx, mealID, in.Type); err != nil {
			return mealGone(err, "update meal type")
		}
		if err := tx.DeleteMealFoods(ctx, mealID); err != nil {
			return fmt.Errorf("delete meal foods: %w", err)
		}
		if err := tx.CreateMealFoods(ctx, mealID, items); err != nil {
			return fmt.Errorf("create meal foods: %w", err)
		}
		var err error
		result, err = s.recalculate(ctx, tx, userID, owner.Date)
		return err
	})
	if err != nil {
		return DailyLog{}, err
	}
	s.log.Infow("meal updated", "user_id", userID, "meal_id", mealID, "items", len(items))
	return *result, nil
}

// DeleteMeal removes the meal and its line items and returns the
// recalculated ledger of its day.
func (s *DietService) DeleteMeal(ctx context.Context, userID, mealID int) (*DailyLog, error) {
	owner, err := mealOwnedBy(ctx, s.store, userID, mealID)
	if err != nil {
		return nil, err
	}
	var result *DailyLog
	err = s.store.InTx(ctx, func(tx Store) error {
		if _, err := tx.LockDailyLog(ctx, userID, owner.Date); err != nil {
			return fmt.Errorf("lock daily log: %w", err)
		}
		if err := tx.DeleteMealFoods(ctx, mealID); err != nil {
			return fmt.Errorf("delete meal foods: %w", err)
		}
		if err := tx.DeleteMeal(ctx, mealID); err != nil {
			return mealGone(err, "delete meal")
		}
		var err error
		result, err = s.recalculate(ctx, tx, userID, owner.Date)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Infow("meal deleted", "user_id", userID, "meal_id", mealID)
	return result, nil
}
