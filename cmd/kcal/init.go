package kcal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/saadjs/kcal-sync/internal/config"
	"github.com/saadjs/kcal-sync/internal/db"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the local kcal database and config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveDBPath()
		if err != nil {
			return err
		}
		var version int
		if err := withDB(path, func(sqldb *sql.DB) error {
			v, err := db.SchemaVersion(sqldb)
			version = v
			return err
		}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized kcal database at %s (schema v%d)\n", path, version)

		cfgPath, err := resolveConfigPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(cfgPath); err == nil {
			return nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat config: %w", err)
		}
		cfg := config.Default()
		cfg.DBPath = path
		if err := cfg.Save(cfgPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote default config to %s\n", cfgPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
