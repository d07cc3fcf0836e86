package kcal

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/saadjs/kcal-sync/internal/api"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve ledgers, weekly metrics and sync over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(ctx context.Context, env *cmdEnv) error {
			source, err := env.healthSource("")
			if err != nil {
				return err
			}
			if source == nil {
				env.logger.Warn("no health source configured, POST /sync will fail")
			}
			addr := env.cfg.API.Address
			if serveAddr != "" {
				addr = serveAddr
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := api.New(api.Options{
				Engine: env.orchestrator(source),
				Logger: env.logger,
				Now:    timeNow,
			})
			env.logger.Info("starting api", zap.String("store", env.cfg.Store), zap.String("address", addr))
			if err := srv.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides api.address)")
}
