package kcal

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/saadjs/kcal-sync/internal/service"
	"github.com/spf13/cobra"
)

var unitsCmd = &cobra.Command{
	Use:   "units <value> <from> <to>",
	Short: "Convert between g, kg, oz and lb",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
		if err != nil {
			return fmt.Errorf("invalid value %q", args[0])
		}
		out, err := service.ConvertMass(v, args[1], args[2])
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), map[string]any{"value": out, "unit": strings.ToLower(args[2])})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%.2f %s = %.2f %s\n", v, args[1], out, args[2])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(unitsCmd)
}
