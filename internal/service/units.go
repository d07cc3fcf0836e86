package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/saadjs/kcal-sync/internal/model"
)

const (
	gramsPerOunce = 28.3495
	lbPerKg       = 2.20462
)

func GramsToOunces(g float64) float64 { return g / gramsPerOunce }

func OuncesToGrams(oz float64) float64 { return oz * gramsPerOunce }

func KgToLb(kg float64) float64 { return kg * lbPerKg }

func LbToKg(lb float64) float64 { return lb / lbPerKg }

func DayID(t time.Time) string {
	y, m, d := t.Date()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
}

func ParseDayID(day string) (time.Time, error) {
	t, err := time.ParseInLocation(model.DayLayout, strings.TrimSpace(day), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q (expected YYYY-MM-DD)", model.ErrInvalid, day)
	}
	return t, nil
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddDays shifts by calendar days, so DST changes do not move the day.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

type massUnit struct {
	toGrams float64
}

var massUnits = map[string]massUnit{
	"g":   {toGrams: 1},
	"kg":  {toGrams: 1000},
	"oz":  {toGrams: gramsPerOunce},
	"lb":  {toGrams: 1000 / lbPerKg},
	"lbs": {toGrams: 1000 / lbPerKg},
}

func ConvertMass(value float64, from, to string) (float64, error) {
	f, ok := massUnits[strings.ToLower(strings.TrimSpace(from))]
	if !ok {
		return 0, fmt.Errorf("%w: unsupported unit %q", model.ErrInvalid, from)
	}
	t, ok := massUnits[strings.ToLower(strings.TrimSpace(to))]
	if !ok {
		return 0, fmt.Errorf("%w: unsupported unit %q", model.ErrInvalid, to)
	}
	return value * f.toGrams / t.toGrams, nil
}

func WeightToKg(value float64, unit string) (float64, error) {
	if value <= 0 {
		return 0, fmt.Errorf("%w: weight must be > 0", model.ErrInvalid)
	}
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "", "kg":
		return value, nil
	case "lb", "lbs":
		return LbToKg(value), nil
	default:
		return 0, fmt.Errorf("%w: invalid weight unit %q (use kg or lb)", model.ErrInvalid, unit)
	}
}

func WeightFromKg(kg float64, unit string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "", "kg":
		return kg, nil
	case "lb", "lbs":
		return KgToLb(kg), nil
	default:
		return 0, fmt.Errorf("%w: invalid weight unit %q (use kg or lb)", model.ErrInvalid, unit)
	}
}
