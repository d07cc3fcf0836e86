package kcal

import (
	"context"
	"fmt"

	"github.com/saadjs/kcal-sync/internal/model"
	"github.com/saadjs/kcal-sync/internal/service"
	"github.com/spf13/cobra"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Manage the dated calorie budget history",
}

var (
	budgetCalories int
	budgetDate     string
)

var budgetSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the daily budget from an effective date",
	RunE: func(cmd *cobra.Command, args []string) error {
		date := budgetDate
		if date == "" {
			date = service.DayID(service.StartOfDay(timeNow()))
		}
		rec, err := model.NewBudgetRecord(date, budgetCalories)
		if err != nil {
			return err
		}
		return withEnv(cmd, func(ctx context.Context, env *cmdEnv) error {
			if err := env.store.UpsertBudgetRecords(ctx, env.user, []model.BudgetRecord{rec}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set budget %d kcal effective %s\n", rec.Calories, rec.EffectiveDate)
			return nil
		})
	},
}

var budgetCurrentDate string

var budgetCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the budget active on a day",
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := parseDayOrToday(budgetCurrentDate)
		if err != nil {
			return err
		}
		return withEnv(cmd, func(ctx context.Context, env *cmdEnv) error {
			profile, err := env.store.LoadProfile(ctx, env.user)
			if err != nil {
				return err
			}
			history, err := env.store.LoadBudgetHistory(ctx, env.user)
			if err != nil {
				return err
			}
			active := service.ActiveBudget(history, day, profile.DefaultBudget)
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"day": service.DayID(day), "calories": active})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d kcal\n", service.DayID(day), active)
			return nil
		})
	},
}

var budgetHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show budget history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(ctx context.Context, env *cmdEnv) error {
			history, err := env.store.LoadBudgetHistory(ctx, env.user)
			if err != nil {
				return err
			}
			records := service.NewBudgetTimeline(history, model.DefaultBudget).Records()
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), records)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "EFFECTIVE\tKCAL")
			for _, r := range records {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", r.EffectiveDate, r.Calories)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(budgetCmd)
	budgetCmd.AddCommand(budgetSetCmd, budgetCurrentCmd, budgetHistoryCmd)

	budgetSetCmd.Flags().IntVar(&budgetCalories, "calories", 0, "Daily calorie budget")
	budgetSetCmd.Flags().StringVar(&budgetDate, "effective-date", "", "Effective date YYYY-MM-DD (default today)")
	_ = budgetSetCmd.MarkFlagRequired("calories")

	budgetCurrentCmd.Flags().StringVar(&budgetCurrentDate, "date", "", "Day YYYY-MM-DD (default today)")
}
