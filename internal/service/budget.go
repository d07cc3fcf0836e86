package service

import (
	"math"
	"sort"
	"time"

	"github.com/saadjs/kcal-sync/internal/model"
)

var DefaultMealPercents = map[model.MealType]float64{
	model.MealBreakfast: 25,
	model.MealLunch:     30,
	model.MealDinner:    30,
	model.MealSnacks:    15,
}

type BudgetTimeline struct {
	records  []model.BudgetRecord
	fallback int
}

// NewBudgetTimeline sorts history by effective date, newest first. When two
// records share an effective date the one inserted last wins.
func NewBudgetTimeline(history []model.BudgetRecord, fallback int) *BudgetTimeline {
	lastByDate := make(map[string]int, len(history))
	for i, r := range history {
		lastByDate[r.EffectiveDate] = i
	}
	records := make([]model.BudgetRecord, 0, len(lastByDate))
	for i, r := range history {
		if lastByDate[r.EffectiveDate] == i {
			records = append(records, r)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].EffectiveDate > records[j].EffectiveDate
	})
	return &BudgetTimeline{records: records, fallback: fallback}
}

func (t *BudgetTimeline) Fallback() int { return t.fallback }

func (t *BudgetTimeline) Records() []model.BudgetRecord {
	out := make([]model.BudgetRecord, len(t.records))
	copy(out, t.records)
	return out
}

func (t *BudgetTimeline) ActiveBudget(date time.Time) int {
	return t.ActiveBudgetForDay(DayID(date))
}

func (t *BudgetTimeline) ActiveBudgetForDay(day string) int {
	for _, r := range t.records {
		if r.EffectiveDate <= day {
			return r.Calories
		}
	}
	return t.fallback
}

func ActiveBudget(history []model.BudgetRecord, date time.Time, fallback int) int {
	return NewBudgetTimeline(history, fallback).ActiveBudget(date)
}

func MealAllocation(allocations []model.MealAllocation, meal model.MealType, dayBudget int) int {
	for _, a := range allocations {
		if a.Meal != meal {
			continue
		}
		if a.Calories != nil {
			return *a.Calories
		}
		if a.Percent != nil {
			return percentOf(dayBudget, *a.Percent)
		}
	}
	return percentOf(dayBudget, DefaultMealPercents[meal])
}

func percentOf(total int, pct float64) int {
	return roundHalfUp(float64(total) * pct / 100)
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
