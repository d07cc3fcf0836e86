package model

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DayLayout is the format of a day identifier.
const DayLayout = "2006-01-02"

// ErrInvalid marks malformed input rejected at construction time.
var ErrInvalid = errors.New("invalid input")

// ErrNotFound is returned when deleting or reading a record that does not exist.
var ErrNotFound = errors.New("not found")

var (
	validate *validator.Validate
	once     sync.Once
)

func validatorInstance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("dayid", func(fl validator.FieldLevel) bool {
			_, err := time.Parse(DayLayout, fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// Validate checks struct tags and wraps any failure in ErrInvalid.
func Validate(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be > %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "dayid":
		return fmt.Sprintf("%s %q is not a YYYY-MM-DD date", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

type FoodEntryInput struct {
	Name       string
	Calories   int
	FatG       float64
	CarbsG     float64
	ProteinG   float64
	SugarG     float64
	ConsumedAt time.Time
	Meal       string
}

func NewFoodEntry(in FoodEntryInput) (FoodEntry, error) {
	meal, err := ParseMealType(in.Meal)
	if err != nil {
		return FoodEntry{}, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return FoodEntry{}, fmt.Errorf("generate entry id: %w", err)
	}
	if in.ConsumedAt.IsZero() {
		in.ConsumedAt = time.Now()
	}
	e := FoodEntry{
		ID:         id.String(),
		Name:       strings.TrimSpace(in.Name),
		Calories:   in.Calories,
		FatG:       in.FatG,
		CarbsG:     in.CarbsG,
		ProteinG:   in.ProteinG,
		SugarG:     in.SugarG,
		ConsumedAt: in.ConsumedAt,
		Meal:       meal,
	}
	if err := Validate(e); err != nil {
		return FoodEntry{}, err
	}
	return e, nil
}

func NewWeightSample(weightKg float64, at time.Time) (WeightSample, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return WeightSample{}, fmt.Errorf("generate weight id: %w", err)
	}
	if at.IsZero() {
		at = time.Now()
	}
	s := WeightSample{ID: id.String(), WeightKg: weightKg, MeasuredAt: at}
	if err := Validate(s); err != nil {
		return WeightSample{}, err
	}
	return s, nil
}

func NewBudgetRecord(effectiveDate string, calories int) (BudgetRecord, error) {
	r := BudgetRecord{EffectiveDate: strings.TrimSpace(effectiveDate), Calories: calories}
	if err := Validate(r); err != nil {
		return BudgetRecord{}, err
	}
	return r, nil
}

func NewExerciseDayRecord(day string, active, basal int, updatedAt time.Time) (ExerciseDayRecord, error) {
	r := ExerciseDayRecord{Day: day, ActiveCalories: active, BasalCalories: basal, UpdatedAt: updatedAt}
	if err := Validate(r); err != nil {
		return ExerciseDayRecord{}, err
	}
	return r, nil
}

// ValidateAllocation additionally requires exactly one of Percent or Calories.
func ValidateAllocation(a MealAllocation) error {
	if err := Validate(a); err != nil {
		return err
	}
	if (a.Percent == nil) == (a.Calories == nil) {
		return fmt.Errorf("%w: allocation for %s needs exactly one of percent or calories", ErrInvalid, a.Meal)
	}
	return nil
}

func ValidateProfile(p Profile) error {
	if err := Validate(p); err != nil {
		return err
	}
	for _, a := range p.MealAllocations {
		if err := ValidateAllocation(a); err != nil {
			return err
		}
	}
	return nil
}
