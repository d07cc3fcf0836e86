package kcal

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dbPath     string
	configPath string
	userID     string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:           "kcal",
	Short:         "kcal keeps a calorie ledger in sync with your health data",
	Long:          "kcal is a calorie ledger that merges food entries, a dated budget history and synced exercise and weight data into daily and weekly views.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database (overrides db_path)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "User id (overrides user)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of text")
}
