package service_test

import (
	"testing"

	"github.com/saadjs/kcal-sync/internal/model"
	"github.com/saadjs/kcal-sync/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotWith(entries []model.FoodEntry, weights []model.WeightSample) *service.Snapshot {
	return service.NewSnapshot(model.DefaultProfile("u1"), entries, nil, nil, weights)
}

func TestCurrentStreak(t *testing.T) {
	t.Parallel()
	entries := []model.FoodEntry{
		entryOn("2024-03-10", 1500, model.MealLunch),
		entryOn("2024-03-09", 1800, model.MealLunch),
		entryOn("2024-03-08", 2000, model.MealLunch),
	}
	today := at("2024-03-10", 20)

	assert.Equal(t, 3, snapshotWith(entries, nil).CurrentStreak(today))

	over := append(entries, entryOn("2024-03-10", 900, model.MealDinner))
	assert.Equal(t, 0, snapshotWith(over, nil).CurrentStreak(today))
}

func TestCurrentStreakEmptyTodayIsZero(t *testing.T) {
	t.Parallel()
	entries := []model.FoodEntry{entryOn("2024-03-09", 1500, model.MealLunch)}
	assert.Equal(t, 0, snapshotWith(entries, nil).CurrentStreak(at("2024-03-10", 8)))
}

func TestLongestStreak(t *testing.T) {
	t.Parallel()
	entries := []model.FoodEntry{
		entryOn("2024-03-01", 1500, model.MealLunch),
		entryOn("2024-03-02", 1500, model.MealLunch),
		entryOn("2024-03-03", 1500, model.MealLunch),
		entryOn("2024-03-05", 1500, model.MealLunch),
		entryOn("2024-03-06", 1500, model.MealLunch),
	}
	snap := snapshotWith(entries, nil)
	today := at("2024-03-06", 21)

	assert.Equal(t, 3, snap.LongestStreak(today))
	assert.Equal(t, 2, snap.CurrentStreak(today))
	assert.Equal(t, 0, snapshotWith(nil, nil).LongestStreak(today))
}

func fullWeek(start string, calories int) []model.FoodEntry {
	out := make([]model.FoodEntry, 0, service.DaysPerWeek)
	for i := 0; i < service.DaysPerWeek; i++ {
		out = append(out, entryOn(service.DayID(service.AddDays(day(start), i)), calories, model.MealLunch))
	}
	return out
}

func TestPerfectWeeks(t *testing.T) {
	t.Parallel()
	// 2024-03-04 is a Monday.
	perfect := fullWeek("2024-03-04", 1900)
	assert.Equal(t, 1, snapshotWith(perfect, nil).PerfectWeeks(at("2024-03-11", 9)))

	gap := make([]model.FoodEntry, 0)
	for _, e := range perfect {
		if service.DayID(e.ConsumedAt) != "2024-03-07" {
			gap = append(gap, e)
		}
	}
	assert.Equal(t, 0, snapshotWith(gap, nil).PerfectWeeks(at("2024-03-11", 9)))
}

func TestPerfectWeeksSkipsWeekInProgress(t *testing.T) {
	t.Parallel()
	perfect := fullWeek("2024-03-04", 1900)
	assert.Equal(t, 0, snapshotWith(perfect, nil).PerfectWeeks(at("2024-03-10", 22)))
}

func TestPerfectWeeksCountsAllCompleteWeeks(t *testing.T) {
	t.Parallel()
	entries := fullWeek("2024-02-19", 1500)
	entries = append(entries, fullWeek("2024-02-26", 2600)...)
	entries = append(entries, fullWeek("2024-03-04", 1500)...)

	assert.Equal(t, 2, snapshotWith(entries, nil).PerfectWeeks(at("2024-03-12", 9)))
}

func TestPerfectWeeksHonoursSundayStart(t *testing.T) {
	t.Parallel()
	profile := model.DefaultProfile("u1")
	profile.WeekStart = model.WeekStartSunday
	// 2024-03-03 is a Sunday.
	snap := service.NewSnapshot(profile, fullWeek("2024-03-03", 1500), nil, nil, nil)

	assert.Equal(t, 1, snap.PerfectWeeks(at("2024-03-10", 9)))
	assert.Equal(t, "2024-03-03", service.DayID(snap.Week(day("2024-03-06")).Start))
}

func TestPerfectWeeksUsesResolvedBudget(t *testing.T) {
	t.Parallel()
	budgets := []model.BudgetRecord{{EffectiveDate: "2024-03-07", Calories: 1400}}
	snap := service.NewSnapshot(model.DefaultProfile("u1"), fullWeek("2024-03-04", 1500), budgets, nil, nil)

	assert.Equal(t, 0, snap.PerfectWeeks(at("2024-03-11", 9)))
}

func TestWeightTrendDownwardLine(t *testing.T) {
	t.Parallel()
	weights := []model.WeightSample{
		weightOn("2024-03-04", 7, 80.0),
		weightOn("2024-03-06", 7, 79.5),
		weightOn("2024-03-08", 7, 79.0),
	}
	week := snapshotWith(nil, weights).Week(day("2024-03-06"))
	trend := week.WeightTrend()

	require.True(t, trend.Available)
	assert.Equal(t, service.TrendLosing, trend.Direction)
	assert.Equal(t, 3, trend.Points)
	assert.InDelta(t, -0.25, trend.Slope, 1e-9)

	var ssr float64
	for _, p := range []struct {
		offset int
		kg     float64
	}{{0, 80.0}, {2, 79.5}, {4, 79.0}} {
		r := trend.At(p.offset) - p.kg
		ssr += r * r
	}
	assert.InDelta(t, 0, ssr, 1e-12)
}

func TestWeightTrendNeedsTwoPoints(t *testing.T) {
	t.Parallel()
	week := snapshotWith(nil, []model.WeightSample{weightOn("2024-03-05", 7, 80)}).Week(day("2024-03-05"))
	trend := week.WeightTrend()
	assert.False(t, trend.Available)
	assert.Equal(t, service.TrendNone, trend.Direction)
}

func TestWeightTrendGaining(t *testing.T) {
	t.Parallel()
	week := snapshotWith(nil, []model.WeightSample{
		weightOn("2024-03-04", 7, 80),
		weightOn("2024-03-10", 7, 81),
	}).Week(day("2024-03-04"))
	assert.Equal(t, service.TrendGaining, week.WeightTrend().Direction)
}

func TestWeekSeriesAndSummary(t *testing.T) {
	t.Parallel()
	monday := entryOn("2024-03-04", 1000, model.MealLunch)
	monday.FatG, monday.CarbsG, monday.ProteinG = 20, 50, 30
	wednesday := entryOn("2024-03-06", 2500, model.MealDinner)
	ex := map[string]model.ExerciseDayRecord{
		"2024-03-04": {Day: "2024-03-04", ActiveCalories: 200, BasalCalories: 1500},
	}
	snap := service.NewSnapshot(model.DefaultProfile("u1"), []model.FoodEntry{monday, wednesday}, nil, ex, nil)
	week := snap.Week(day("2024-03-07"))

	cal := week.CalorieSeries()
	assert.Equal(t, 1000, cal[0])
	assert.Equal(t, 2500, cal[2])
	assert.Equal(t, 0, cal[6])

	macros := week.MacroSeries()
	assert.InDelta(t, 30.0, macros.ProteinG[0], 1e-9)

	share := week.MacroShare()
	assert.InDelta(t, 20.0, share.FatPct, 1e-9)
	assert.InDelta(t, 50.0, share.CarbsPct, 1e-9)
	assert.InDelta(t, 30.0, share.ProteinPct, 1e-9)

	sum := week.Summary()
	assert.Equal(t, "2024-03-04", sum.Start)
	assert.Equal(t, 3500, sum.TotalCalories)
	assert.Equal(t, 7*model.DefaultBudget, sum.TotalBudget)
	assert.Equal(t, 2, sum.DaysWithEntries)
	assert.Equal(t, 1, sum.SuccessfulDays)
	assert.InDelta(t, 1750.0, sum.AvgCaloriesPerDay, 1e-9)
	assert.Equal(t, 200, sum.ActiveCalories)
	assert.False(t, week.Perfect())
}

func TestMacroShareWithoutMacrosIsZero(t *testing.T) {
	t.Parallel()
	week := snapshotWith([]model.FoodEntry{entryOn("2024-03-04", 500, model.MealLunch)}, nil).Week(day("2024-03-04"))
	assert.Equal(t, service.MacroShare{}, week.MacroShare())
}

func TestWeightChange(t *testing.T) {
	t.Parallel()
	snap := snapshotWith(nil, []model.WeightSample{
		weightOn("2024-02-01", 7, 82.0),
		weightOn("2024-02-20", 7, 81.0),
		weightOn("2024-03-09", 7, 80.0),
	})
	now := at("2024-03-10", 12)

	wc := snap.WeightChange(now, 30)
	require.True(t, wc.Available)
	assert.InDelta(t, -2.0, wc.DeltaKg, 1e-9)
	assert.Equal(t, "2024-02-01", service.DayID(wc.Baseline.MeasuredAt))

	wc = snap.WeightChange(now, 0)
	assert.Equal(t, service.DefaultWeightChangeDays, wc.Days)

	assert.False(t, snap.WeightChange(now, 60).Available)
}

func TestWeightChangeUnavailableWhenBaselineIsLatest(t *testing.T) {
	t.Parallel()
	snap := snapshotWith(nil, []model.WeightSample{weightOn("2024-01-01", 7, 82.0)})
	assert.False(t, snap.WeightChange(at("2024-03-10", 12), 30).Available)
	assert.False(t, snapshotWith(nil, nil).WeightChange(at("2024-03-10", 12), 30).Available)
}
