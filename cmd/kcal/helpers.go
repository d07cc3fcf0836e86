package kcal

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/saadjs/kcal-sync/internal/app"
	"github.com/saadjs/kcal-sync/internal/config"
	"github.com/saadjs/kcal-sync/internal/db"
	"github.com/saadjs/kcal-sync/internal/logger"
	"github.com/saadjs/kcal-sync/internal/model"
	"github.com/saadjs/kcal-sync/internal/provider/healthdata"
	"github.com/saadjs/kcal-sync/internal/provider/healthfile"
	"github.com/saadjs/kcal-sync/internal/service"
	"github.com/saadjs/kcal-sync/internal/store/redisstore"
	"github.com/saadjs/kcal-sync/internal/store/sqlite"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cmdEnv is what a command needs once config, logger and store are set up.
type cmdEnv struct {
	cfg    *config.Config
	logger *zap.Logger
	store  service.Store
	user   string
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.DefaultPath()
}

func loadConfig() (*config.Config, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if userID != "" {
		cfg.User = userID
	}
	return cfg, nil
}

func resolveDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.DBPath, nil
}

func withDB(path string, run func(*sql.DB) error) error {
	if err := app.EnsureParentDir(path); err != nil {
		return err
	}
	sqldb, err := db.Open(path)
	if err != nil {
		return err
	}
	defer sqldb.Close()

	if err := db.ApplyMigrations(sqldb); err != nil {
		return err
	}
	return run(sqldb)
}

// withEnv loads config, builds the logger and opens the configured store.
func withEnv(cmd *cobra.Command, run func(ctx context.Context, e *cmdEnv) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "kcal")
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	e := &cmdEnv{cfg: cfg, logger: log, user: cfg.User}

	switch cfg.Store {
	case config.StoreRedis:
		client, err := redisstore.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer client.Close()
		e.store = redisstore.New(client, cfg.Redis.Prefix, log)
		return run(ctx, e)
	default:
		return withDB(cfg.DBPath, func(sqldb *sql.DB) error {
			e.store = sqlite.New(sqldb, log)
			return run(ctx, e)
		})
	}
}

func (e *cmdEnv) orchestrator(source service.HealthSource) *service.Orchestrator {
	return service.NewOrchestrator(e.store, source, service.OrchestratorOptions{
		Policy: service.FreshnessPolicy{ForceRefreshDays: e.cfg.Sync.ForceRefreshDays},
		Window: service.WindowSettings{
			DefaultLookbackDays: e.cfg.Sync.DefaultLookbackDays,
			WeightLookbackDays:  e.cfg.Sync.WeightLookbackDays,
		},
		Logger: e.logger,
		Now:    timeNow,
	})
}

// healthSource returns the file source when file is set, the configured
// gateway otherwise, or nil when neither is available.
func (e *cmdEnv) healthSource(file string) (service.HealthSource, error) {
	if strings.TrimSpace(file) != "" {
		src, err := healthfile.Load(file)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	if e.cfg.Health.BaseURL == "" {
		return nil, nil
	}
	client, err := healthdata.NewClient(healthdata.Options{
		BaseURL: e.cfg.Health.BaseURL,
		Token:   e.cfg.Health.Token,
		Timeout: e.cfg.Health.Timeout,
		Retries: e.cfg.Health.Retries,
		Logger:  e.logger,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

var timeNow = time.Now

func writeJSON(w io.Writer, v any) error {
	enc := sonic.ConfigDefault.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseDateTimeOrNow(date, timeStr string) (time.Time, error) {
	date = strings.TrimSpace(date)
	timeStr = strings.TrimSpace(timeStr)
	if date == "" && timeStr == "" {
		return timeNow(), nil
	}
	if date == "" {
		return time.Time{}, fmt.Errorf("--date is required when --time is set")
	}
	if timeStr == "" {
		t, err := time.ParseInLocation(model.DayLayout, date, time.Local)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --date %q (expected YYYY-MM-DD)", date)
		}
		return t.Add(12 * time.Hour), nil
	}
	t, err := time.ParseInLocation(model.DayLayout+" 15:04", date+" "+timeStr, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date/--time (expected YYYY-MM-DD and HH:MM)")
	}
	return t, nil
}

func parseDayOrToday(date string) (time.Time, error) {
	if strings.TrimSpace(date) == "" {
		return service.StartOfDay(timeNow()), nil
	}
	return service.ParseDayID(date)
}
