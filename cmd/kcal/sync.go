package kcal

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var syncFile string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull exercise and weight data from the health source into the ledger",
	Long: "sync runs one reconciliation pass. Exercise days inside the refresh window are rewritten, " +
		"older stored days are kept, and a day's weight is only written when the day has none.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(ctx context.Context, env *cmdEnv) error {
			source, err := env.healthSource(syncFile)
			if err != nil {
				return err
			}
			if source == nil {
				return fmt.Errorf("no health source: set health.base_url in the config or pass --file")
			}
			report, err := env.orchestrator(source).Sync(ctx, env.user)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Exercise window: %s .. %s\n", report.Window.ExerciseStart.Format("2006-01-02"), report.Window.End.Format("2006-01-02"))
			fmt.Fprintf(out, "Weight window: %s .. %s\n", report.Window.WeightStart.Format("2006-01-02"), report.Window.End.Format("2006-01-02"))
			fmt.Fprintf(out, "Exercise days written: %d\n", report.ExerciseWrites)
			fmt.Fprintf(out, "Weights written: %d\n", report.WeightWrites)
			fmt.Fprintf(out, "Skipped: %d | Dropped: %d | Rejected: %d\n", report.Skipped, report.Dropped, report.Rejected)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringVar(&syncFile, "file", "", "Import from a JSON or YAML health export instead of the configured gateway")
}
