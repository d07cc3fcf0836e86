package service

import (
	"sort"
	"time"

	"github.com/saadjs/kcal-sync/internal/model"
)

type DayLedger struct {
	Day      string                   `json:"day"`
	Entries  []model.FoodEntry        `json:"entries"`
	Calories int                      `json:"calories"`
	FatG     float64                  `json:"fat_g"`
	CarbsG   float64                  `json:"carbs_g"`
	ProteinG float64                  `json:"protein_g"`
	SugarG   float64                  `json:"sugar_g"`
	Exercise *model.ExerciseDayRecord `json:"exercise,omitempty"`
	Weight   *model.WeightSample      `json:"weight,omitempty"`
	Budget   int                      `json:"budget"`
}

func (l DayLedger) HasEntries() bool { return len(l.Entries) > 0 }

// Successful reports whether the day counts toward a streak: at least one
// entry and food calories within the day's budget.
func (l DayLedger) Successful() bool {
	return l.HasEntries() && l.Calories <= l.Budget
}

func (l DayLedger) Remaining() int {
	active := 0
	if l.Exercise != nil {
		active = l.Exercise.ActiveCalories
	}
	return l.Budget + active - l.Calories
}

func (l DayLedger) MealCalories(meal model.MealType) int {
	total := 0
	for _, e := range l.Entries {
		if e.Meal == meal {
			total += e.Calories
		}
	}
	return total
}

func BuildLedger(day string, entries []model.FoodEntry, exercise *model.ExerciseDayRecord, weight *model.WeightSample, timeline *BudgetTimeline) DayLedger {
	l := DayLedger{Day: day, Entries: make([]model.FoodEntry, 0)}
	for _, e := range entries {
		if DayID(e.ConsumedAt) != day {
			continue
		}
		l.Entries = append(l.Entries, e)
		l.Calories += e.Calories
		l.FatG += e.FatG
		l.CarbsG += e.CarbsG
		l.ProteinG += e.ProteinG
		l.SugarG += e.SugarG
	}
	if exercise != nil && exercise.Day == day {
		ex := *exercise
		l.Exercise = &ex
	}
	if weight != nil && DayID(weight.MeasuredAt) == day {
		w := *weight
		l.Weight = &w
	}
	l.Budget = timeline.ActiveBudgetForDay(day)
	return l
}

type Snapshot struct {
	Profile  model.Profile
	Timeline *BudgetTimeline

	entriesByDay  map[string][]model.FoodEntry
	exerciseByDay map[string]model.ExerciseDayRecord
	weightByDay   map[string]model.WeightSample
	weights       []model.WeightSample
	firstEntryDay string
}

func NewSnapshot(profile model.Profile, entries []model.FoodEntry, budgets []model.BudgetRecord, exercise map[string]model.ExerciseDayRecord, weights []model.WeightSample) *Snapshot {
	s := &Snapshot{
		Profile:       profile,
		Timeline:      NewBudgetTimeline(budgets, profile.DefaultBudget),
		entriesByDay:  make(map[string][]model.FoodEntry),
		exerciseByDay: make(map[string]model.ExerciseDayRecord, len(exercise)),
		weightByDay:   make(map[string]model.WeightSample),
	}
	for _, e := range entries {
		day := DayID(e.ConsumedAt)
		s.entriesByDay[day] = append(s.entriesByDay[day], e)
		if s.firstEntryDay == "" || day < s.firstEntryDay {
			s.firstEntryDay = day
		}
	}
	for day, rec := range exercise {
		s.exerciseByDay[day] = rec
	}

	s.weights = make([]model.WeightSample, len(weights))
	copy(s.weights, weights)
	sort.SliceStable(s.weights, func(i, j int) bool {
		return s.weights[i].MeasuredAt.Before(s.weights[j].MeasuredAt)
	})
	// ascending order, so the latest sample of a day wins
	for _, w := range s.weights {
		s.weightByDay[DayID(w.MeasuredAt)] = w
	}
	return s
}

func (s *Snapshot) FirstEntryDay() string { return s.firstEntryDay }

func (s *Snapshot) Ledger(day string) DayLedger {
	var ex *model.ExerciseDayRecord
	if rec, ok := s.exerciseByDay[day]; ok {
		ex = &rec
	}
	var w *model.WeightSample
	if sample, ok := s.weightByDay[day]; ok {
		w = &sample
	}
	return BuildLedger(day, s.entriesByDay[day], ex, w, s.Timeline)
}

func (s *Snapshot) LedgerAt(t time.Time) DayLedger {
	return s.Ledger(DayID(t))
}

func (s *Snapshot) Range(from, to time.Time) []DayLedger {
	from = StartOfDay(from)
	to = StartOfDay(to)
	out := make([]DayLedger, 0)
	for d := from; !d.After(to); d = AddDays(d, 1) {
		out = append(out, s.Ledger(DayID(d)))
	}
	return out
}

func (s *Snapshot) Weights() []model.WeightSample {
	out := make([]model.WeightSample, len(s.weights))
	copy(out, s.weights)
	return out
}
