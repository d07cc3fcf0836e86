package model

import (
	"fmt"
	"strings"
	"time"
)

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnacks    MealType = "snacks"
)

// MealTypes lists meal categories in display order.
var MealTypes = []MealType{MealBreakfast, MealLunch, MealDinner, MealSnacks}

func ParseMealType(s string) (MealType, error) {
	m := MealType(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case MealBreakfast, MealLunch, MealDinner, MealSnacks:
		return m, nil
	default:
		return "", fmt.Errorf("%w: meal %q (use breakfast, lunch, dinner, snacks)", ErrInvalid, s)
	}
}

// FoodEntry is immutable once created; edits are delete + recreate.
type FoodEntry struct {
	ID         string    `json:"id" validate:"required"`
	Name       string    `json:"name" validate:"required"`
	Calories   int       `json:"calories" validate:"gte=0"`
	FatG       float64   `json:"fat_g" validate:"gte=0"`
	CarbsG     float64   `json:"carbs_g" validate:"gte=0"`
	ProteinG   float64   `json:"protein_g" validate:"gte=0"`
	SugarG     float64   `json:"sugar_g" validate:"gte=0"`
	ConsumedAt time.Time `json:"consumed_at" validate:"required"`
	Meal       MealType  `json:"meal" validate:"oneof=breakfast lunch dinner snacks"`
}

type WeightSample struct {
	ID         string    `json:"id" validate:"required"`
	WeightKg   float64   `json:"weight_kg" validate:"gt=0"`
	MeasuredAt time.Time `json:"measured_at" validate:"required"`
}

// ExerciseDayRecord is keyed by Day; writes are upserts.
type ExerciseDayRecord struct {
	Day            string    `json:"day" validate:"required,dayid"`
	ActiveCalories int       `json:"active_calories" validate:"gte=0"`
	BasalCalories  int       `json:"basal_calories" validate:"gte=0"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (r ExerciseDayRecord) IsZero() bool {
	return r.ActiveCalories == 0 && r.BasalCalories == 0
}

type BudgetRecord struct {
	EffectiveDate string `json:"effective_date" validate:"required,dayid"`
	Calories      int    `json:"calories" validate:"gt=0"`
}

// MealAllocation overrides the default share of the day's budget for one meal.
// Exactly one of Percent or Calories is set.
type MealAllocation struct {
	Meal     MealType `json:"meal" yaml:"meal" validate:"oneof=breakfast lunch dinner snacks"`
	Percent  *float64 `json:"percent,omitempty" yaml:"percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	Calories *int     `json:"calories,omitempty" yaml:"calories,omitempty" validate:"omitempty,gte=0"`
}

type WeekStart string

const (
	WeekStartMonday WeekStart = "monday"
	WeekStartSunday WeekStart = "sunday"
)

func (w WeekStart) Weekday() time.Weekday {
	if w == WeekStartSunday {
		return time.Sunday
	}
	return time.Monday
}

func ParseWeekStart(s string) (WeekStart, error) {
	w := WeekStart(strings.ToLower(strings.TrimSpace(s)))
	switch w {
	case "":
		return WeekStartMonday, nil
	case WeekStartMonday, WeekStartSunday:
		return w, nil
	default:
		return "", fmt.Errorf("%w: week start %q (use monday or sunday)", ErrInvalid, s)
	}
}

const DefaultBudget = 2000

type Profile struct {
	UserID            string           `json:"user_id" validate:"required"`
	DefaultBudget     int              `json:"default_budget" validate:"gt=0"`
	HealthConnectedAt *time.Time       `json:"health_connected_at,omitempty"`
	WeekStart         WeekStart        `json:"week_start" validate:"oneof=monday sunday"`
	MealAllocations   []MealAllocation `json:"meal_allocations,omitempty" validate:"dive"`
}

func DefaultProfile(userID string) Profile {
	return Profile{
		UserID:        userID,
		DefaultBudget: DefaultBudget,
		WeekStart:     WeekStartMonday,
	}
}

type SampleKind string

const (
	SampleActive SampleKind = "active"
	SampleBasal  SampleKind = "basal"
)

// RawExerciseSample is an energy reading as returned by the health-data source.
type RawExerciseSample struct {
	Kind  SampleKind `json:"kind" yaml:"kind"`
	Value float64    `json:"value" yaml:"value"`
	At    time.Time  `json:"timestamp" yaml:"timestamp"`
}

type RawWeightSample struct {
	WeightKg float64   `json:"kg" yaml:"kg"`
	At       time.Time `json:"timestamp" yaml:"timestamp"`
}
