package diet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const defaultServing = "1 serving"

// FoodInput is the payload for creating or updating a personal food.
// Omitted macros default to 0 and an empty serving to "1 serving".
type FoodInput struct {
	Name     string
	Calories float64
	Protein  *float64
	Carbs    *float64
	Fat      *float64
	Serving  string
}

func (in FoodInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalidInput("food name is required")
	}
	if in.Calories <= 0 {
		return invalidInput("calories must be greater than 0")
	}
	for _, v := range []*float64{in.Protein, in.Carbs, in.Fat} {
		if v != nil && *v < 0 {
			return invalidInput("macros must not be negative")
		}
	}
	return nil
}

func (in FoodInput) apply(f *Food) {
	f.Name = strings.TrimSpace(in.Name)
	f.Calories = in.Calories
	f.Protein = valueOr(in.Protein, 0)
	f.Carbs = valueOr(in.Carbs, 0)
	f.Fat = valueOr(in.Fat, 0)
	f.Serving = strings.TrimSpace(in.Serving)
	if f.Serving == "" {
		f.Serving = defaultServing
	}
}

// FoodService manages the shared catalog and users' personal foods.
type FoodService struct {
	store FoodStore
	log   *zap.SugaredLogger
}

func NewFoodService(store FoodStore, log *zap.SugaredLogger) *FoodService {
	return &FoodService{store: store, log: log}
}

func normalizeFoodQuery(q FoodQuery) FoodQuery {
	if !q.Scope.Valid() {
		q.Scope = ScopeAll
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// ListFoods returns the catalog plus the user's personal foods (depending on
// scope), catalog entries first, then alphabetically.
func (s *FoodService) ListFoods(ctx context.Context, userID int, q FoodQuery) ([]Food, error) {
	foods, err := s.store.ListFoods(ctx, userID, normalizeFoodQuery(q))
	if err != nil {
		return nil, fmt.Errorf("list foods: %w", err)
	}
	return foods, nil
}

func (s *FoodService) CountFoods(ctx context.Context, userID int, q FoodQuery) (int, error) {
	n, err := s.store.CountFoods(ctx, userID, normalizeFoodQuery(q))
	if err != nil {
		return 0, fmt.Errorf("count foods: %w", err)
	}
	return n, nil
}

// GetFood returns a food the user can see: a catalog entry or one of their own.
func (s *FoodService) GetFood(ctx context.Context, userID, foodID int) (Food, error) {
	f, err := s.store.GetFood(ctx, foodID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Food{}, notFound("food not found")
		}
		return Food{}, fmt.Errorf("get food %d: %w", foodID, err)
	}
	if !f.IsCatalog() && !f.OwnedBy(userID) {
		return Food{}, notFound("food not found")
	}
	return f, nil
}

// CreatePersonalFood always records userID as the owner.
func (s *FoodService) CreatePersonalFood(ctx context.Context, userID int, in FoodInput) (Food, error) {
	if err := in.validate(); err != nil {
		return Food{}, err
	}
	f := Food{CreatedBy: &userID}
	in.apply(&f)
	created, err := s.store.CreateFood(ctx, f)
	if err != nil {
		return Food{}, fmt.Errorf("create food: %w", err)
	}
	s.log.Infow("personal food created", "user_id", userID, "food_id", created.ID)
	return created, nil
}

// ownedFood loads foodID and checks userID owns it. Catalog entries never
// pass since they have no owner.
func (s *FoodService) ownedFood(ctx context.Context, userID, foodID int, verb string) (Food, error) {
	f, err := s.store.GetFood(ctx, foodID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Food{}, fmt.Errorf("get food %d: %w", foodID, err)
	}
	if err != nil || !f.OwnedBy(userID) {
		return Food{}, notFound("you can only " + verb + " your personal foods")
	}
	return f, nil
}

func (s *FoodService) UpdateFood(ctx context.Context, userID, foodID int, in FoodInput) (Food, error) {
	if err := in.validate(); err != nil {
		return Food{}, err
	}
	f, err := s.ownedFood(ctx, userID, foodID, "update")
	if err != nil {
		return Food{}, err
	}
	in.apply(&f)
	updated, err := s.store.UpdateFood(ctx, f)
	if err != nil {
		return Food{}, fmt.Errorf("update food %d: %w", foodID, err)
	}
	return updated, nil
}

// DeleteFood removes a personal food. Meal line items that referenced it keep
// their snapshots; only their food reference is cleared.
func (s *FoodService) DeleteFood(ctx context.Context, userID, foodID int) error {
	if _, err := s.ownedFood(ctx, userID, foodID, "delete"); err != nil {
		return err
	}
	if err := s.store.DeleteFood(ctx, foodID); err != nil {
		return fmt.Errorf("delete food %d: %w", foodID, err)
	}
	s.log.Infow("personal food deleted", "user_id", userID, "food_id", foodID)
	return nil
}

// GetFoodsByIDs batch-resolves foods for meal logging. The result may be
// shorter than ids; callers treat that as an invalid reference.
func (s *FoodService) GetFoodsByIDs(ctx context.Context, ids []int) ([]Food, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	foods, err := s.store.GetFoodsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get foods by ids: %w", err)
	}
	return foods, nil
}

// DefaultCatalog is the shared food catalog seeded on new installations.
var DefaultCatalog = []FoodInput{
	{Name: "Brown Rice (cooked)", Calories: 216, Protein: ptr(5.0), Carbs: ptr(45.0), Fat: ptr(2.0), Serving: "1 cup (195g)"},
	{Name: "Chicken Breast (grilled)", Calories: 165, Protein: ptr(31.0), Carbs: ptr(0.0), Fat: ptr(3.6), Serving: "100g"},
	{Name: "Boiled Egg", Calories: 78, Protein: ptr(6.0), Carbs: ptr(1.0), Fat: ptr(5.0), Serving: "1 egg"},
	{Name: "Banana", Calories: 105, Protein: ptr(1.3), Carbs: ptr(27.0), Fat: ptr(0.3), Serving: "1 medium fruit"},
	{Name: "Oatmeal", Calories: 150, Protein: ptr(5.0), Carbs: ptr(27.0), Fat: ptr(3.0), Serving: "1/2 cup dry"},
	{Name: "Greek Yogurt (plain)", Calories: 100, Protein: ptr(17.0), Carbs: ptr(6.0), Fat: ptr(0.7), Serving: "170g"},
}

// SeedCatalog inserts every DefaultCatalog entry not already present in the
// catalog by name, and returns how many were added.
func (s *FoodService) SeedCatalog(ctx context.Context) (int, error) {
	added := 0
	for _, in := range DefaultCatalog {
		_, err := s.store.FindCatalogFood(ctx, in.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return added, fmt.Errorf("find catalog food %q: %w", in.Name, err)
		}
		var f Food
		in.apply(&f)
		if _, err := s.store.CreateFood(ctx, f); err != nil {
			return added, fmt.Errorf("seed %q: %w", in.Name, err)
		}
		added++
	}
	return added, nil
}

func valueOr[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}
