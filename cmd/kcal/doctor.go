package kcal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/saadjs/kcal-sync/internal/config"
	"github.com/saadjs/kcal-sync/internal/db"
	"github.com/saadjs/kcal-sync/internal/model"
	"github.com/saadjs/kcal-sync/internal/service"
	"github.com/spf13/cobra"
)

type doctorReport struct {
	SchemaVersion   int `json:"schema_version,omitempty"`
	InvalidEntries  int `json:"invalid_entries"`
	InvalidWeights  int `json:"invalid_weights"`
	InvalidBudgets  int `json:"invalid_budgets"`
	DuplicateBudget int `json:"duplicate_budget_dates"`
	MultiWeightDays int `json:"days_with_several_weights"`
}

func (r doctorReport) problems() int {
	return r.InvalidEntries + r.InvalidWeights + r.InvalidBudgets + r.DuplicateBudget
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run data integrity checks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(ctx context.Context, env *cmdEnv) error {
			var report doctorReport
			if env.cfg.Store == config.StoreSQLite {
				if err := withDB(env.cfg.DBPath, func(sqldb *sql.DB) error {
					v, err := db.SchemaVersion(sqldb)
					report.SchemaVersion = v
					return err
				}); err != nil {
					return err
				}
			}
			if err := checkStore(ctx, env, &report); err != nil {
				return err
			}
			if jsonOutput {
				if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				if report.SchemaVersion > 0 {
					fmt.Fprintf(out, "Schema version: %d\n", report.SchemaVersion)
				}
				fmt.Fprintf(out, "Invalid entries: %d\n", report.InvalidEntries)
				fmt.Fprintf(out, "Invalid weights: %d\n", report.InvalidWeights)
				fmt.Fprintf(out, "Invalid budgets: %d\n", report.InvalidBudgets)
				fmt.Fprintf(out, "Duplicate budget dates: %d\n", report.DuplicateBudget)
				fmt.Fprintf(out, "Days with several weights: %d\n", report.MultiWeightDays)
			}
			if report.problems() > 0 {
				return fmt.Errorf("doctor found integrity issues")
			}
			return nil
		})
	},
}

func checkStore(ctx context.Context, env *cmdEnv, report *doctorReport) error {
	entries, err := env.store.LoadFoodEntries(ctx, env.user)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if model.Validate(e) != nil {
			report.InvalidEntries++
		}
	}

	weights, err := env.store.LoadWeightSamples(ctx, env.user)
	if err != nil {
		return err
	}
	perDay := make(map[string]int, len(weights))
	for _, w := range weights {
		if model.Validate(w) != nil {
			report.InvalidWeights++
		}
		perDay[service.DayID(w.MeasuredAt)]++
	}
	for _, n := range perDay {
		if n > 1 {
			report.MultiWeightDays++
		}
	}

	budgets, err := env.store.LoadBudgetHistory(ctx, env.user)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(budgets))
	for _, b := range budgets {
		if model.Validate(b) != nil {
			report.InvalidBudgets++
		}
		if seen[b.EffectiveDate] {
			report.DuplicateBudget++
		}
		seen[b.EffectiveDate] = true
	}
	return nil
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
