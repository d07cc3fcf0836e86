package kcal

import (
	"context"
	"fmt"
	"strings"

	"github.com/saadjs/kcal-sync/internal/model"
	"github.com/saadjs/kcal-sync/internal/service"
	"github.com/spf13/cobra"
)

var weightCmd = &cobra.Command{
	Use:   "weight",
	Short: "Manage body-weight samples",
}

var (
	weightValue float64
	weightUnit  string
	weightDate  string
	weightTime  string
)

var weightAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record the weight of a day, replacing any sample already on that day",
	RunE: func(cmd *cobra.Command, args []string) error {
		measuredAt, err := parseDateTimeOrNow(weightDate, weightTime)
		if err != nil {
			return err
		}
		kg, err := service.WeightToKg(weightValue, weightUnit)
		if err != nil {
			return err
		}
		sample, err := model.NewWeightSample(kg, measuredAt)
		if err != nil {
			return err
		}
		return withEnv(cmd, func(ctx context.Context, env *cmdEnv) error {
			existing, err := env.store.LoadWeightSamples(ctx, env.user)
			if err != nil {
				return err
			}
			day := service.DayID(measuredAt)
			replaced := 0
			for _, w := range existing {
				if service.DayID(w.MeasuredAt) != day {
					continue
				}
				if replaced == 0 {
					sample.ID = w.ID
				} else if err := env.store.DeleteWeightSample(ctx, env.user, w.ID); err != nil {
					return err
				}
				replaced++
			}
			if err := env.store.UpsertWeightSamples(ctx, env.user, []model.WeightSample{sample}); err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), sample)
			}
			verb := "Added"
			if replaced > 0 {
				verb = "Replaced"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s weight %s for %s (%.2f kg)\n", verb, sample.ID, day, sample.WeightKg)
			return nil
		})
	},
}

var (
	weightListFrom string
	weightListTo   string
	weightListUnit string
)

var weightListCmd = &cobra.Command{
	Use:   "list",
	Short: "List weight samples",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, d := range []string{weightListFrom, weightListTo} {
			if d == "" {
				continue
			}
			if _, err := service.ParseDayID(d); err != nil {
				return err
			}
		}
		unit := strings.ToLower(strings.TrimSpace(weightListUnit))
		if _, err := service.WeightFromKg(1, unit); err != nil {
			return err
		}
		return withEnv(cmd, func(ctx context.Context, env *cmdEnv) error {
			samples, err := env.store.LoadWeightSamples(ctx, env.user)
			if err != nil {
				return err
			}
			out := make([]model.WeightSample, 0, len(samples))
			for _, w := range samples {
				day := service.DayID(w.MeasuredAt)
				if (weightListFrom != "" && day < weightListFrom) || (weightListTo != "" && day > weightListTo) {
					continue
				}
				out = append(out, w)
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ID\tDATE\tWEIGHT(%s)\n", unit)
			for _, w := range out {
				v, _ := service.WeightFromKg(w.WeightKg, unit)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%.2f\n", w.ID, w.MeasuredAt.Local().Format("2006-01-02 15:04"), v)
			}
			return nil
		})
	},
}

var weightDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a weight sample",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := strings.TrimSpace(args[0])
		return withEnv(cmd, func(ctx context.Context, env *cmdEnv) error {
			if err := env.store.DeleteWeightSample(ctx, env.user, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted weight %s\n", id)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(weightCmd)
	weightCmd.AddCommand(weightAddCmd, weightListCmd, weightDeleteCmd)

	weightAddCmd.Flags().Float64Var(&weightValue, "weight", 0, "Weight value")
	weightAddCmd.Flags().StringVar(&weightUnit, "unit", "kg", "Weight unit (kg|lb)")
	weightAddCmd.Flags().StringVar(&weightDate, "date", "", "Date YYYY-MM-DD (default now)")
	weightAddCmd.Flags().StringVar(&weightTime, "time", "", "Time HH:MM (requires --date)")
	_ = weightAddCmd.MarkFlagRequired("weight")

	weightListCmd.Flags().StringVar(&weightListFrom, "from", "", "From day YYYY-MM-DD")
	weightListCmd.Flags().StringVar(&weightListTo, "to", "", "To day YYYY-MM-DD")
	weightListCmd.Flags().StringVar(&weightListUnit, "unit", "kg", "Output unit (kg|lb)")
}
