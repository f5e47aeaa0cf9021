package main

import (
	"github.com/lyleguay/fitlog/internal/diet"
)

/* ─── Request bodies ─────────────────────────────────────────────────── */

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type mealItemRequest struct {
	FoodID  int     `json:"food_id" binding:"required,gt=0"`
	Portion float64 `json:"portion" binding:"gte=0"`
}

// mealRequest is the body of POST and PUT /api/diet/meals. Type and item
// count are checked by the diet service so its messages reach the client.
type mealRequest struct {
	Type  diet.MealType     `json:"type"`
	Items []mealItemRequest `json:"items" binding:"dive"`
	Date  string            `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

func (r mealRequest) input() (diet.MealInput, error) {
	day, err := dayOrZero(r.Date)
	if err != nil {
		return diet.MealInput{}, err
	}
	items := make([]diet.MealItemInput, len(r.Items))
	for i, it := range r.Items {
		items[i] = diet.MealItemInput{FoodID: it.FoodID, Portion: it.Portion}
	}
	return diet.MealInput{Type: r.Type, Items: items, Date: day}, nil
}

type foodRequest struct {
	Name     string   `json:"name" binding:"required,max=200"`
	Calories float64  `json:"calories" binding:"required,gt=0"`
	Protein  *float64 `json:"protein" binding:"omitempty,gte=0"`
	Carbs    *float64 `json:"carbs" binding:"omitempty,gte=0"`
	Fat      *float64 `json:"fat" binding:"omitempty,gte=0"`
	Serving  string   `json:"serving" binding:"max=100"`
}

func (r foodRequest) input() diet.FoodInput {
	return diet.FoodInput{
		Name:     r.Name,
		Calories: r.Calories,
		Protein:  r.Protein,
		Carbs:    r.Carbs,
		Fat:      r.Fat,
		Serving:  r.Serving,
	}
}

type goalRequest struct {
	FitnessGoal         *diet.FitnessGoal `json:"fitness_goal" binding:"omitempty,enum"`
	TargetWeight        *float64          `json:"target_weight" binding:"omitempty,gt=0"`
	ManualCalorieTarget *int              `json:"manual_calorie_target" binding:"omitempty,min=800,max=6000"`
}

func (r goalRequest) input() diet.GoalInput {
	return diet.GoalInput{
		FitnessGoal:         r.FitnessGoal,
		TargetWeight:        r.TargetWeight,
		ManualCalorieTarget: r.ManualCalorieTarget,
	}
}

type checkInRequest struct {
	Weight float64 `json:"weight" binding:"required,gt=0"`
	goalRequest
}

type profileRequest struct {
	Name          string             `json:"name" binding:"required,max=100"`
	Age           int                `json:"age" binding:"required,gt=0,lt=150"`
	Gender        diet.Gender        `json:"gender" binding:"required,enum"`
	BodyWeight    float64            `json:"body_weight" binding:"required,gt=0"`
	Height        float64            `json:"height" binding:"required,gt=0"`
	FitnessGoal   diet.FitnessGoal   `json:"fitness_goal" binding:"required,enum"`
	ActivityLevel diet.ActivityLevel `json:"activity_level" binding:"required,enum"`
	TargetWeight  *float64           `json:"target_weight" binding:"omitempty,gt=0"`
}

func (r profileRequest) input() diet.ProfileInput {
	return diet.ProfileInput{
		Name:          r.Name,
		Age:           r.Age,
		Gender:        r.Gender,
		BodyWeight:    r.BodyWeight,
		Height:        r.Height,
		FitnessGoal:   r.FitnessGoal,
		ActivityLevel: r.ActivityLevel,
		TargetWeight:  r.TargetWeight,
	}
}

type weightRequest struct {
	Weight float64 `json:"weight" binding:"required,gt=0,lt=1000"`
	Date   string  `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

/* ─── Query strings ──────────────────────────────────────────────────── */

type dayQuery struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

type daysQuery struct {
	Days int `form:"days" binding:"omitempty,min=1,max=365"`
}

type logListQuery struct {
	Start        string         `form:"start" binding:"omitempty,datetime=2006-01-02"`
	End          string         `form:"end" binding:"omitempty,datetime=2006-01-02"`
	Order        diet.SortOrder `form:"order" binding:"omitempty,oneof=asc desc"`
	Page         int            `form:"page" binding:"omitempty,min=1"`
	PageSize     int            `form:"page_size" binding:"omitempty,min=1,max=100"`
	IncludeMeals bool           `form:"include_meals"`
}

type insightsQuery struct {
	Range  int                `form:"range" binding:"omitempty,oneof=7 14 30"`
	Start  string             `form:"start" binding:"omitempty,datetime=2006-01-02"`
	End    string             `form:"end" binding:"omitempty,datetime=2006-01-02"`
	Status diet.CalorieStatus `form:"status"`
	Page   int                `form:"page" binding:"omitempty,min=1"`
}

type foodListQuery struct {
	Search   string         `form:"search" binding:"max=100"`
	Scope    diet.FoodScope `form:"scope" binding:"omitempty,oneof=all catalog personal"`
	Page     int            `form:"page" binding:"omitempty,min=1"`
	PageSize int            `form:"page_size" binding:"omitempty,min=1,max=100"`
}

const defaultPageSize = 20
