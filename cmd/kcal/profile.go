package kcal

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/saadjs/kcal-sync/internal/model"
	"github.com/saadjs/kcal-sync/internal/service"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or change the user profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(ctx context.Context, env *cmdEnv) error {
			p, err := env.store.LoadProfile(ctx, env.user)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), p)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "User: %s\n", p.UserID)
			fmt.Fprintf(out, "Default budget: %d kcal\n", p.DefaultBudget)
			fmt.Fprintf(out, "Week starts: %s\n", p.WeekStart)
			if p.HealthConnectedAt != nil {
				fmt.Fprintf(out, "Health connected: %s\n", service.DayID(p.HealthConnectedAt.Local()))
			} else {
				fmt.Fprintln(out, "Health connected: no")
			}
			fmt.Fprintln(out, "MEAL\tSHARE")
			for _, m := range model.MealTypes {
				fmt.Fprintf(out, "%s\t%s\n", m, describeAllocation(p.MealAllocations, m))
			}
			return nil
		})
	},
}

var (
	profileBudget    int
	profileWeekStart string
	profileConnected string
	profileMeals     []string
	profileResetMeal bool
)

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change profile settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(ctx context.Context, env *cmdEnv) error {
			p, err := env.store.LoadProfile(ctx, env.user)
			if err != nil {
				return err
			}
			updates := 0
			if cmd.Flags().Changed("default-budget") {
				p.DefaultBudget = profileBudget
				updates++
			}
			if cmd.Flags().Changed("week-start") {
				ws, err := model.ParseWeekStart(profileWeekStart)
				if err != nil {
					return err
				}
				p.WeekStart = ws
				updates++
			}
			if cmd.Flags().Changed("health-connected") {
				if strings.EqualFold(strings.TrimSpace(profileConnected), "none") {
					p.HealthConnectedAt = nil
				} else {
					t, err := service.ParseDayID(profileConnected)
					if err != nil {
						return err
					}
					p.HealthConnectedAt = &t
				}
				updates++
			}
			if profileResetMeal {
				p.MealAllocations = nil
				updates++
			}
			for _, spec := range profileMeals {
				a, err := parseAllocation(spec)
				if err != nil {
					return err
				}
				p.MealAllocations = setAllocation(p.MealAllocations, a)
				updates++
			}
			if updates == 0 {
				return fmt.Errorf("set at least one flag")
			}
			if err := env.store.SaveProfile(ctx, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d profile setting(s)\n", updates)
			return nil
		})
	},
}

// parseAllocation reads "meal=30%" as a percentage or "meal=600" as calories.
func parseAllocation(spec string) (model.MealAllocation, error) {
	name, value, ok := strings.Cut(spec, "=")
	if !ok {
		return model.MealAllocation{}, fmt.Errorf("%w: meal allocation %q (use meal=30%% or meal=600)", model.ErrInvalid, spec)
	}
	meal, err := model.ParseMealType(name)
	if err != nil {
		return model.MealAllocation{}, err
	}
	value = strings.TrimSpace(value)
	a := model.MealAllocation{Meal: meal}
	if pct, isPct := strings.CutSuffix(value, "%"); isPct {
		v, err := strconv.ParseFloat(pct, 64)
		if err != nil {
			return model.MealAllocation{}, fmt.Errorf("%w: meal percent %q", model.ErrInvalid, value)
		}
		a.Percent = &v
	} else {
		v, err := strconv.Atoi(value)
		if err != nil {
			return model.MealAllocation{}, fmt.Errorf("%w: meal calories %q", model.ErrInvalid, value)
		}
		a.Calories = &v
	}
	if err := model.ValidateAllocation(a); err != nil {
		return model.MealAllocation{}, err
	}
	return a, nil
}

func setAllocation(list []model.MealAllocation, a model.MealAllocation) []model.MealAllocation {
	for i := range list {
		if list[i].Meal == a.Meal {
			list[i] = a
			return list
		}
	}
	return append(list, a)
}

func describeAllocation(list []model.MealAllocation, meal model.MealType) string {
	for _, a := range list {
		if a.Meal != meal {
			continue
		}
		if a.Percent != nil {
			return fmt.Sprintf("%.0f%%", *a.Percent)
		}
		if a.Calories != nil {
			return fmt.Sprintf("%d kcal", *a.Calories)
		}
	}
	return fmt.Sprintf("%.0f%% (default)", service.DefaultMealPercents[meal])
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileShowCmd, profileSetCmd)

	profileSetCmd.Flags().IntVar(&profileBudget, "default-budget", model.DefaultBudget, "Budget used before any budget record applies")
	profileSetCmd.Flags().StringVar(&profileWeekStart, "week-start", "", "First day of the week (monday|sunday)")
	profileSetCmd.Flags().StringVar(&profileConnected, "health-connected", "", "Day health data was connected YYYY-MM-DD, or none")
	profileSetCmd.Flags().StringArrayVar(&profileMeals, "meal", nil, "Meal allocation, e.g. breakfast=25% or dinner=700 (repeatable)")
	profileSetCmd.Flags().BoolVar(&profileResetMeal, "reset-meals", false, "Drop all meal allocations before applying --meal")
}
