package kcal

import (
	"context"
	"fmt"
	"io"

	"github.com/saadjs/kcal-sync/internal/model"
	"github.com/saadjs/kcal-sync/internal/service"
	"github.com/spf13/cobra"
)

type dashboard struct {
	Day           service.DayLedger        `json:"day"`
	Remaining     int                      `json:"remaining"`
	Successful    bool                     `json:"successful"`
	MealBudgets   map[string]int           `json:"meal_budgets"`
	Week          service.WeekSummary      `json:"week"`
	WeekCalories  [service.DaysPerWeek]int `json:"week_calories"`
	MacroShare    service.MacroShare       `json:"macro_share"`
	CurrentStreak int                      `json:"current_streak"`
	LongestStreak int                      `json:"longest_streak"`
	PerfectWeeks  int                      `json:"perfect_weeks"`
	WeightTrend   service.WeightTrend      `json:"weight_trend"`
	WeightChange  service.WeightChange     `json:"weight_change"`
}

var (
	dashboardDate string
	dashboardDays int
	dashboardUnit string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the day ledger, weekly metrics, streaks and weight trend",
	RunE: func(cmd *cobra.Command, args []string) error {
		anchor, err := parseDayOrToday(dashboardDate)
		if err != nil {
			return err
		}
		if _, err := service.WeightFromKg(1, dashboardUnit); err != nil {
			return err
		}
		return withEnv(cmd, func(ctx context.Context, env *cmdEnv) error {
			snap, err := env.orchestrator(nil).Snapshot(ctx, env.user)
			if err != nil {
				return err
			}
			days := env.cfg.Sync.TrendDays
			if cmd.Flags().Changed("days") {
				days = dashboardDays
			}
			now := timeNow()
			ledger := snap.LedgerAt(anchor)
			week := snap.Week(anchor)
			d := dashboard{
				Day:           ledger,
				Remaining:     ledger.Remaining(),
				Successful:    ledger.Successful(),
				MealBudgets:   make(map[string]int, len(model.MealTypes)),
				Week:          week.Summary(),
				WeekCalories:  week.CalorieSeries(),
				MacroShare:    week.MacroShare(),
				CurrentStreak: snap.CurrentStreak(now),
				LongestStreak: snap.LongestStreak(now),
				PerfectWeeks:  snap.PerfectWeeks(now),
				WeightTrend:   week.WeightTrend(),
				WeightChange:  snap.WeightChange(now, days),
			}
			for _, m := range model.MealTypes {
				d.MealBudgets[string(m)] = service.MealAllocation(snap.Profile.MealAllocations, m, ledger.Budget)
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), d)
			}
			printDashboard(cmd.OutOrStdout(), d, dashboardUnit)
			return nil
		})
	},
}

func printDashboard(out io.Writer, d dashboard, unit string) {
	l := d.Day
	fmt.Fprintf(out, "Date: %s\n", l.Day)
	fmt.Fprintf(out, "Budget: %d kcal\n", l.Budget)
	fmt.Fprintf(out, "Food: %d kcal | P %.1fg | C %.1fg | F %.1fg | S %.1fg\n", l.Calories, l.ProteinG, l.CarbsG, l.FatG, l.SugarG)
	if l.Exercise != nil {
		fmt.Fprintf(out, "Exercise: active %d kcal | basal %d kcal\n", l.Exercise.ActiveCalories, l.Exercise.BasalCalories)
	} else {
		fmt.Fprintln(out, "Exercise: none")
	}
	fmt.Fprintf(out, "Remaining: %d kcal\n", d.Remaining)
	if l.HasEntries() {
		status := "over budget"
		if d.Successful {
			status = "within budget"
		}
		fmt.Fprintf(out, "Status: %s\n", status)
	}
	fmt.Fprintln(out, "MEAL\tKCAL\tBUDGET")
	for _, m := range model.MealTypes {
		fmt.Fprintf(out, "%s\t%d\t%d\n", m, l.MealCalories(m), d.MealBudgets[string(m)])
	}

	fmt.Fprintf(out, "Week from %s: %d/%d kcal, %d day(s) logged, %d within budget\n", d.Week.Start, d.Week.TotalCalories, d.Week.TotalBudget, d.Week.DaysWithEntries, d.Week.SuccessfulDays)
	fmt.Fprintf(out, "Week calories: %v\n", d.WeekCalories)
	fmt.Fprintf(out, "Macro share: P %.0f%% | C %.0f%% | F %.0f%%\n", d.MacroShare.ProteinPct, d.MacroShare.CarbsPct, d.MacroShare.FatPct)
	fmt.Fprintf(out, "Streak: %d day(s) (longest %d)\n", d.CurrentStreak, d.LongestStreak)
	fmt.Fprintf(out, "Perfect weeks: %d\n", d.PerfectWeeks)

	if d.WeightTrend.Available {
		slope, _ := service.WeightFromKg(d.WeightTrend.Slope, unit)
		fmt.Fprintf(out, "Weight trend: %s (%.2f %s/day over %d point(s))\n", d.WeightTrend.Direction, slope, unit, d.WeightTrend.Points)
	} else {
		fmt.Fprintln(out, "Weight trend: not enough data")
	}
	if d.WeightChange.Available {
		delta, _ := service.WeightFromKg(d.WeightChange.DeltaKg, unit)
		fmt.Fprintf(out, "Weight change (%d days): %+.2f %s\n", d.WeightChange.Days, delta, unit)
	} else {
		fmt.Fprintf(out, "Weight change (%d days): not enough data\n", d.WeightChange.Days)
	}
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().StringVar(&dashboardDate, "date", "", "Day YYYY-MM-DD (default today)")
	dashboardCmd.Flags().IntVar(&dashboardDays, "days", service.DefaultWeightChangeDays, "Weight change look-back in days")
	dashboardCmd.Flags().StringVar(&dashboardUnit, "unit", "kg", "Weight unit (kg|lb)")
}
