package kcal

import (
	"context"
	"fmt"
	"strings"

	"github.com/saadjs/kcal-sync/internal/model"
	"github.com/saadjs/kcal-sync/internal/service"
	"github.com/spf13/cobra"
)

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Manage food entries",
}

var (
	entryName     string
	entryCalories int
	entryProtein  float64
	entryCarbs    float64
	entryFat      float64
	entrySugar    float64
	entryMeal     string
	entryDate     string
	entryTime     string
)

var entryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a food entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		consumed, err := parseDateTimeOrNow(entryDate, entryTime)
		if err != nil {
			return err
		}
		e, err := model.NewFoodEntry(model.FoodEntryInput{
			Name:       entryName,
			Calories:   entryCalories,
			FatG:       entryFat,
			CarbsG:     entryCarbs,
			ProteinG:   entryProtein,
			SugarG:     entrySugar,
			ConsumedAt: consumed,
			Meal:       entryMeal,
		})
		if err != nil {
			return err
		}
		return withEnv(cmd, func(ctx context.Context, env *cmdEnv) error {
			if err := env.store.UpsertFoodEntries(ctx, env.user, []model.FoodEntry{e}); err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), e)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added entry %s\n", e.ID)
			return nil
		})
	},
}

var (
	listDate     string
	listFromDate string
	listToDate   string
	listMeal     string
)

var entryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List food entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listDate != "" && (listFromDate != "" || listToDate != "") {
			return fmt.Errorf("use either --date or --from/--to")
		}
		from, to := listFromDate, listToDate
		if listDate != "" {
			from, to = listDate, listDate
		}
		for _, d := range []string{from, to} {
			if d == "" {
				continue
			}
			if _, err := service.ParseDayID(d); err != nil {
				return err
			}
		}
		var meal model.MealType
		if strings.TrimSpace(listMeal) != "" {
			m, err := model.ParseMealType(listMeal)
			if err != nil {
				return err
			}
			meal = m
		}
		return withEnv(cmd, func(ctx context.Context, env *cmdEnv) error {
			entries, err := env.store.LoadFoodEntries(ctx, env.user)
			if err != nil {
				return err
			}
			out := make([]model.FoodEntry, 0, len(entries))
			for _, e := range entries {
				day := service.DayID(e.ConsumedAt)
				if (from != "" && day < from) || (to != "" && day > to) {
					continue
				}
				if meal != "" && e.Meal != meal {
					continue
				}
				out = append(out, e)
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tDATE\tMEAL\tNAME\tKCAL\tP\tC\tF\tS")
			for _, e := range out {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%d\t%.1f\t%.1f\t%.1f\t%.1f\n", e.ID, e.ConsumedAt.Local().Format("2006-01-02 15:04"), e.Meal, e.Name, e.Calories, e.ProteinG, e.CarbsG, e.FatG, e.SugarG)
			}
			return nil
		})
	},
}

var entryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a food entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := strings.TrimSpace(args[0])
		return withEnv(cmd, func(ctx context.Context, env *cmdEnv) error {
			if err := env.store.DeleteFoodEntry(ctx, env.user, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry %s\n", id)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(entryCmd)
	entryCmd.AddCommand(entryAddCmd, entryListCmd, entryDeleteCmd)

	entryAddCmd.Flags().StringVar(&entryName, "name", "", "Food name")
	entryAddCmd.Flags().IntVar(&entryCalories, "calories", 0, "Calories")
	entryAddCmd.Flags().Float64Var(&entryProtein, "protein", 0, "Protein grams")
	entryAddCmd.Flags().Float64Var(&entryCarbs, "carbs", 0, "Carbs grams")
	entryAddCmd.Flags().Float64Var(&entryFat, "fat", 0, "Fat grams")
	entryAddCmd.Flags().Float64Var(&entrySugar, "sugar", 0, "Sugar grams")
	entryAddCmd.Flags().StringVar(&entryMeal, "meal", "", "Meal (breakfast|lunch|dinner|snacks)")
	entryAddCmd.Flags().StringVar(&entryDate, "date", "", "Date YYYY-MM-DD (default now)")
	entryAddCmd.Flags().StringVar(&entryTime, "time", "", "Time HH:MM (requires --date)")
	_ = entryAddCmd.MarkFlagRequired("name")
	_ = entryAddCmd.MarkFlagRequired("calories")
	_ = entryAddCmd.MarkFlagRequired("meal")

	entryListCmd.Flags().StringVar(&listDate, "date", "", "Filter by day YYYY-MM-DD")
	entryListCmd.Flags().StringVar(&listFromDate, "from", "", "Filter from day YYYY-MM-DD")
	entryListCmd.Flags().StringVar(&listToDate, "to", "", "Filter to day YYYY-MM-DD")
	entryListCmd.Flags().StringVar(&listMeal, "meal", "", "Filter by meal")
}
