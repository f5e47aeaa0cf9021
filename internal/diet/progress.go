package diet

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
)

// ProgressService handles weight tracking and profile changes that shift the
// user's energy baselines.
type ProgressService struct {
	store Store
	diet  *DietService
	log   *zap.SugaredLogger
}

func NewProgressService(store Store, diet *DietService, log *zap.SugaredLogger) *ProgressService {
	return &ProgressService{store: store, diet: diet, log: log}
}

/* ─── Weight ──────────────────────────────────────────────────────────── */

// LogWeight records a weigh-in for day (today when zero). In one transaction
// it upserts the weight log, mirrors the weight onto that day's ledger
// (creating a minimal row if needed), and makes it the user's body weight.
func (s *ProgressService) LogWeight(ctx context.Context, userID int, weight float64, day CalendarDay) (WeightLog, error) {
	if weight <= 0 {
		return WeightLog{}, invalidInput("weight must be greater than 0")
	}
	day = s.diet.dayOrToday(day)
	var entry WeightLog
	err := s.store.InTx(ctx, func(tx Store) error {
		if _, err := getUser(ctx, tx, userID); err != nil {
			return err
		}
		var err error
		entry, err = tx.UpsertWeightLog(ctx, userID, day, weight)
		if err != nil {
			return fmt.Errorf("upsert weight log: %w", err)
		}
		seed := DailyLog{UserID: userID, Date: day, CurrentWeight: &weight}
		if _, err := tx.UpsertDailyLog(ctx, seed, LogPatch{CurrentWeight: &weight}); err != nil {
			return fmt.Errorf("upsert daily log: %w", err)
		}
		if err := tx.SetUserBodyWeight(ctx, userID, weight); err != nil {
			return fmt.Errorf("set body weight: %w", err)
		}
		return nil
	})
	if err != nil {
		return WeightLog{}, err
	}
	s.log.Infow("weight logged", "user_id", userID, "date", day.String(), "weight", weight)
	return entry, nil
}

// WeightProgress returns the weigh-ins of the last days days, oldest first.
func (s *ProgressService) WeightProgress(ctx context.Context, userID, days int) ([]WeightLog, error) {
	from, to := s.diet.lastDays(clampDays(days))
	logs, err := s.store.ListWeightLogs(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list weight logs: %w", err)
	}
	return logs, nil
}

// TrendPoint is one day of the calorie trend.
type TrendPoint struct {
	Date        CalendarDay   `json:"date"`
	CaloriesIn  float64       `json:"calories_in"`
	CaloriesOut float64       `json:"calories_out"`
	NetCalories float64       `json:"net_calories"`
	Target      *int          `json:"target"`
	Status      CalorieStatus `json:"status"`
	Weight      *float64      `json:"weight"`
}

func trendPoint(l DailyLog) TrendPoint {
	target, _ := ResolveCalorieTarget(l)
	return TrendPoint{
		Date:        l.Date,
		CaloriesIn:  l.CaloriesIn,
		CaloriesOut: l.CaloriesOut,
		NetCalories: l.NetCalories,
		Target:      target,
		Status:      DetermineCalorieStatus(l),
		Weight:      l.CurrentWeight,
	}
}

// CalorieTrend returns one point per existing ledger in the last days days,
// oldest first. Days without a ledger are absent.
func (s *ProgressService) CalorieTrend(ctx context.Context, userID, days int) ([]TrendPoint, error) {
	from, to := s.diet.lastDays(clampDays(days))
	logs, err := s.diet.ListDailyLogs(ctx, userID, LogQuery{From: &from, To: &to, Order: OrderAsc}, false)
	if err != nil {
		return nil, err
	}
	points := make([]TrendPoint, len(logs))
	for i, l := range logs {
		points[i] = trendPoint(l)
	}
	return points, nil
}

// CheckInInput is a daily check-in: today's weight plus optional goal changes.
type CheckInInput struct {
	Weight float64
	GoalInput
}

// DailyCheckIn logs today's weight, then applies the goal changes.
func (s *ProgressService) DailyCheckIn(ctx context.Context, userID int, in CheckInInput) (User, error) {
	if err := in.GoalInput.validate(); err != nil {
		return User{}, err
	}
	if _, err := s.LogWeight(ctx, userID, in.Weight, s.diet.Today()); err != nil {
		return User{}, err
	}
	return s.diet.UpdateGoal(ctx, userID, in.GoalInput)
}

/* ─── Profile ─────────────────────────────────────────────────────────── */

// ProfileInput is a full profile update.
type ProfileInput struct {
	Name          string
	Age           int
	Gender        Gender
	BodyWeight    float64
	Height        float64
	FitnessGoal   FitnessGoal
	ActivityLevel ActivityLevel
	TargetWeight  *float64
}

func (in ProfileInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return invalidInput("name is required")
	case in.Age <= 0:
		return invalidInput("age must be greater than 0")
	case !in.Gender.Valid():
		return invalidInput("please select a gender")
	case in.BodyWeight <= 0:
		return invalidInput("body weight must be greater than 0")
	case in.Height <= 0:
		return invalidInput("height must be greater than 0")
	case !in.FitnessGoal.Valid():
		return invalidInput("please select a fitness goal")
	case !in.ActivityLevel.Valid():
		return invalidInput("please select an activity level")
	}
	if in.FitnessGoal.RequiresTargetWeight() && in.TargetWeight == nil {
		return invalidInput("target weight is required for your selected goal")
	}
	if in.TargetWeight != nil {
		if in.FitnessGoal == GoalLoseWeight && *in.TargetWeight >= in.BodyWeight {
			return invalidInput("target weight must be lower than your current weight for a lose goal")
		}
		if in.FitnessGoal == GoalGainWeight && *in.TargetWeight <= in.BodyWeight {
			return invalidInput("target weight must be higher than your current weight for a gain goal")
		}
	}
	return nil
}

// UpdateProfile saves the profile, recomputes the TDEE and goal baselines
// from it, and syncs today's ledger with the new snapshot.
func (s *ProgressService) UpdateProfile(ctx context.Context, userID int, in ProfileInput) (User, error) {
	if err := in.validate(); err != nil {
		return User{}, err
	}
	targetWeight := in.TargetWeight
	if in.FitnessGoal == GoalMaintainWeight {
		targetWeight = &in.BodyWeight
	}
	fields := ProfileFields{
		Name:          strings.TrimSpace(in.Name),
		Age:           in.Age,
		Gender:        &in.Gender,
		BodyWeight:    in.BodyWeight,
		Height:        in.Height,
		FitnessGoal:   &in.FitnessGoal,
		ActivityLevel: &in.ActivityLevel,
		TargetWeight:  targetWeight,
	}
	today := s.diet.Today()

	var updated User
	err := s.store.InTx(ctx, func(tx Store) error {
		existing, err := getUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		// Baselines are resolved against the new profile values.
		next := existing
		next.Age, next.Gender, next.BodyWeight, next.Height = fields.Age, fields.Gender, fields.BodyWeight, fields.Height
		next.FitnessGoal, next.ActivityLevel, next.TargetWeight = fields.FitnessGoal, fields.ActivityLevel, fields.TargetWeight
		b := resolveBaselines(next, next.FitnessGoal)

		updated, err = tx.UpdateUserProfile(ctx, userID, fields, UserBaselines{
			LastCalculatedTdee: b.dailyNeed,
			LastGoalCalories:   b.goalCalories,
		})
		if err != nil {
			return fmt.Errorf("update user profile: %w", err)
		}
		seed := DailyLog{
			UserID:            userID,
			Date:              today,
			DailyNeedCalories: b.dailyNeed,
			GoalCalorieTarget: b.goalCalories,
			CurrentWeight:     &fields.BodyWeight,
			TargetWeight:      targetWeight,
		}
		_, err = tx.UpsertDailyLog(ctx, seed, LogPatch{
			DailyNeedCalories: b.dailyNeed,
			GoalCalorieTarget: b.goalCalories,
			CurrentWeight:     &fields.BodyWeight,
			TargetWeight:      targetWeight,
		})
		if err != nil {
			return fmt.Errorf("upsert daily log: %w", err)
		}
		return nil
	})
	if err != nil {
		return User{}, err
	}
	s.log.Infow("profile updated", "user_id", userID, "tdee", updated.LastCalculatedTdee)
	return updated, nil
}

// ProfileStatus lists the profile fields a user still has to fill in before
// personalized targets can be computed.
type ProfileStatus struct {
	MissingFields []string `json:"missing_fields"`
	Complete      bool     `json:"complete"`
	BMI           float64  `json:"bmi"`
}

func GetProfileStatus(u User) ProfileStatus {
	missing := []string{}
	if u.Age <= 0 {
		missing = append(missing, "age")
	}
	if u.Gender == nil {
		missing = append(missing, "gender")
	}
	if u.BodyWeight <= 0 {
		missing = append(missing, "body_weight")
	}
	if u.Height <= 0 {
		missing = append(missing, "height")
	}
	if u.FitnessGoal == nil {
		missing = append(missing, "fitness_goal")
	}
	if u.ActivityLevel == nil {
		missing = append(missing, "activity_level")
	}
	if u.FitnessGoal != nil && u.FitnessGoal.RequiresTargetWeight() && u.TargetWeight == nil {
		missing = append(missing, "target_weight")
	}
	return ProfileStatus{
		MissingFields: missing,
		Complete:      len(missing) == 0,
		BMI:           ComputeBMI(u.BodyWeight, u.Height),
	}
}

// weightDelta rounds latest − previous to one decimal.
func weightDelta(latest, previous *float64) *float64 {
	if latest == nil || previous == nil {
		return nil
	}
	d := math.Round((*latest-*previous)*10) / 10
	return &d
}
