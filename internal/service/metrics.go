package service

import (
	"time"

	"github.com/saadjs/kcal-sync/internal/model"
)

const DaysPerWeek = 7

func WeekStartFor(anchor time.Time, start time.Weekday) time.Time {
	offset := (int(anchor.Weekday()) - int(start) + DaysPerWeek) % DaysPerWeek
	return AddDays(StartOfDay(anchor), -offset)
}

type WeekWindow struct {
	Start time.Time              `json:"start"`
	Days  [DaysPerWeek]DayLedger `json:"days"`
}

func (s *Snapshot) Week(anchor time.Time) WeekWindow {
	start := WeekStartFor(anchor, s.Profile.WeekStart.Weekday())
	w := WeekWindow{Start: start}
	for i := range w.Days {
		w.Days[i] = s.Ledger(DayID(AddDays(start, i)))
	}
	return w
}

func (w WeekWindow) CalorieSeries() [DaysPerWeek]int {
	var out [DaysPerWeek]int
	for i, d := range w.Days {
		out[i] = d.Calories
	}
	return out
}

type MacroSeries struct {
	FatG     [DaysPerWeek]float64 `json:"fat_g"`
	CarbsG   [DaysPerWeek]float64 `json:"carbs_g"`
	ProteinG [DaysPerWeek]float64 `json:"protein_g"`
}

func (w WeekWindow) MacroSeries() MacroSeries {
	var out MacroSeries
	for i, d := range w.Days {
		out.FatG[i] = d.FatG
		out.CarbsG[i] = d.CarbsG
		out.ProteinG[i] = d.ProteinG
	}
	return out
}

type MacroShare struct {
	FatPct     float64 `json:"fat_pct"`
	CarbsPct   float64 `json:"carbs_pct"`
	ProteinPct float64 `json:"protein_pct"`
}

func (w WeekWindow) MacroShare() MacroShare {
	var fat, carbs, protein float64
	for _, d := range w.Days {
		fat += d.FatG
		carbs += d.CarbsG
		protein += d.ProteinG
	}
	total := fat + carbs + protein
	if total <= 0 {
		return MacroShare{}
	}
	return MacroShare{
		FatPct:     fat / total * 100,
		CarbsPct:   carbs / total * 100,
		ProteinPct: protein / total * 100,
	}
}

type WeekSummary struct {
	Start             string  `json:"start"`
	TotalCalories     int     `json:"total_calories"`
	TotalBudget       int     `json:"total_budget"`
	DaysWithEntries   int     `json:"days_with_entries"`
	SuccessfulDays    int     `json:"successful_days"`
	AvgCaloriesPerDay float64 `json:"avg_calories_per_day"`
	ActiveCalories    int     `json:"active_calories"`
	BasalCalories     int     `json:"basal_calories"`
}

func (w WeekWindow) Summary() WeekSummary {
	out := WeekSummary{Start: DayID(w.Start)}
	for _, d := range w.Days {
		out.TotalCalories += d.Calories
		out.TotalBudget += d.Budget
		if d.HasEntries() {
			out.DaysWithEntries++
		}
		if d.Successful() {
			out.SuccessfulDays++
		}
		if d.Exercise != nil {
			out.ActiveCalories += d.Exercise.ActiveCalories
			out.BasalCalories += d.Exercise.BasalCalories
		}
	}
	if out.DaysWithEntries > 0 {
		out.AvgCaloriesPerDay = float64(out.TotalCalories) / float64(out.DaysWithEntries)
	}
	return out
}

func (w WeekWindow) Perfect() bool {
	for _, d := range w.Days {
		if !d.Successful() {
			return false
		}
	}
	return true
}

// CurrentStreak counts consecutive successful days ending today. An
// unsuccessful or empty today yields zero.
func (s *Snapshot) CurrentStreak(today time.Time) int {
	streak := 0
	for d := StartOfDay(today); ; d = AddDays(d, -1) {
		if !s.Ledger(DayID(d)).Successful() {
			return streak
		}
		streak++
	}
}

func (s *Snapshot) LongestStreak(today time.Time) int {
	if s.firstEntryDay == "" {
		return 0
	}
	first, err := ParseDayID(s.firstEntryDay)
	if err != nil {
		return 0
	}
	longest, run := 0, 0
	for d := first; DayID(d) <= DayID(today); d = AddDays(d, 1) {
		if !s.Ledger(DayID(d)).Successful() {
			run = 0
			continue
		}
		run++
		if run > longest {
			longest = run
		}
	}
	return longest
}

// PerfectWeeks counts complete weeks, from the week of the first entry, in
// which every day is successful. A week is complete once its last day is
// before now; the week in progress never counts.
func (s *Snapshot) PerfectWeeks(now time.Time) int {
	if s.firstEntryDay == "" {
		return 0
	}
	first, err := ParseDayID(s.firstEntryDay)
	if err != nil {
		return 0
	}
	today := DayID(now)
	count := 0
	for start := WeekStartFor(first, s.Profile.WeekStart.Weekday()); DayID(AddDays(start, DaysPerWeek-1)) < today; start = AddDays(start, DaysPerWeek) {
		if s.Week(start).Perfect() {
			count++
		}
	}
	return count
}

type TrendDirection string

const (
	TrendNone    TrendDirection = "none"
	TrendLosing  TrendDirection = "losing"
	TrendGaining TrendDirection = "gaining"
)

type WeightTrend struct {
	Available bool           `json:"available"`
	Direction TrendDirection `json:"direction"`
	Points    int            `json:"points"`
	Slope     float64        `json:"slope_kg_per_day"`
	Intercept float64        `json:"intercept_kg"`
}

func (t WeightTrend) At(offset int) float64 {
	return t.Intercept + t.Slope*float64(offset)
}

func (w WeekWindow) WeightTrend() WeightTrend {
	xs := make([]float64, 0, DaysPerWeek)
	ys := make([]float64, 0, DaysPerWeek)
	for i, d := range w.Days {
		if d.Weight == nil {
			continue
		}
		xs = append(xs, float64(i))
		ys = append(ys, d.Weight.WeightKg)
	}
	return fitWeightTrend(xs, ys)
}

func fitWeightTrend(xs, ys []float64) WeightTrend {
	n := len(xs)
	out := WeightTrend{Direction: TrendNone, Points: n}
	if n < 2 {
		return out
	}
	var sumX, sumY, sumXY, sumX2 float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumX2 += xs[i] * xs[i]
	}
	fn := float64(n)
	denom := fn*sumX2 - sumX*sumX
	if denom == 0 {
		return out
	}
	out.Available = true
	out.Slope = (fn*sumXY - sumX*sumY) / denom
	out.Intercept = (sumY - out.Slope*sumX) / fn
	if out.Slope > 0 {
		out.Direction = TrendGaining
	} else {
		out.Direction = TrendLosing
	}
	return out
}

const DefaultWeightChangeDays = 30

type WeightChange struct {
	Available bool                `json:"available"`
	Days      int                 `json:"days"`
	DeltaKg   float64             `json:"delta_kg"`
	Latest    *model.WeightSample `json:"latest,omitempty"`
	Baseline  *model.WeightSample `json:"baseline,omitempty"`
}

// WeightChange is the latest weight minus the most recent weight recorded
// strictly before now minus days.
func (s *Snapshot) WeightChange(now time.Time, days int) WeightChange {
	if days <= 0 {
		days = DefaultWeightChangeDays
	}
	out := WeightChange{Days: days}
	if len(s.weights) == 0 {
		return out
	}
	cutoff := now.AddDate(0, 0, -days)
	latest := s.weights[len(s.weights)-1]
	baselineIdx := -1
	for i := len(s.weights) - 1; i >= 0; i-- {
		if s.weights[i].MeasuredAt.Before(cutoff) {
			baselineIdx = i
			break
		}
	}
	if baselineIdx < 0 || baselineIdx == len(s.weights)-1 {
		return out
	}
	baseline := s.weights[baselineIdx]
	out.Available = true
	out.DeltaKg = latest.WeightKg - baseline.WeightKg
	out.Latest = &latest
	out.Baseline = &baseline
	return out
}
