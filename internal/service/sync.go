package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/saadjs/kcal-sync/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Store interface {
	LoadProfile(ctx context.Context, userID string) (model.Profile, error)
	SaveProfile(ctx context.Context, p model.Profile) error

	LoadFoodEntries(ctx context.Context, userID string) ([]model.FoodEntry, error)
	UpsertFoodEntries(ctx context.Context, userID string, entries []model.FoodEntry) error
	DeleteFoodEntry(ctx context.Context, userID, entryID string) error

	LoadBudgetHistory(ctx context.Context, userID string) ([]model.BudgetRecord, error)
	UpsertBudgetRecords(ctx context.Context, userID string, records []model.BudgetRecord) error

	LoadExerciseRecords(ctx context.Context, userID string) (map[string]model.ExerciseDayRecord, error)
	UpsertExerciseRecords(ctx context.Context, userID string, records []model.ExerciseDayRecord) error

	LoadWeightSamples(ctx context.Context, userID string) ([]model.WeightSample, error)
	UpsertWeightSamples(ctx context.Context, userID string, samples []model.WeightSample) error
	DeleteWeightSample(ctx context.Context, userID, sampleID string) error
}

type HealthSource interface {
	FetchExerciseSamples(ctx context.Context, start, end time.Time) ([]model.RawExerciseSample, error)
	FetchWeightSamples(ctx context.Context, start, end time.Time) ([]model.RawWeightSample, error)
}

type SyncReport struct {
	UserID         string        `json:"user_id"`
	Window         SyncWindow    `json:"window"`
	ExerciseWrites int           `json:"exercise_writes"`
	WeightWrites   int           `json:"weight_writes"`
	Skipped        int           `json:"skipped"`
	Dropped        int           `json:"dropped"`
	Rejected       int           `json:"rejected"`
	Decisions      []DayDecision `json:"decisions,omitempty"`
	FinishedAt     time.Time     `json:"finished_at"`
	Duration       time.Duration `json:"duration"`
}

type OrchestratorOptions struct {
	Policy FreshnessPolicy
	Window WindowSettings
	Logger *zap.Logger
	Now    func() time.Time
}

type Orchestrator struct {
	store      Store
	source     HealthSource
	reconciler *Reconciler
	window     WindowSettings
	logger     *zap.Logger
	now        func() time.Time

	mu      sync.RWMutex
	reports map[string]SyncReport
}

func NewOrchestrator(store Store, source HealthSource, opts OrchestratorOptions) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Policy == (FreshnessPolicy{}) {
		opts.Policy = DefaultFreshnessPolicy()
	}
	if opts.Window == (WindowSettings{}) {
		opts.Window = DefaultWindowSettings()
	}
	return &Orchestrator{
		store:      store,
		source:     source,
		reconciler: NewReconciler(opts.Policy),
		window:     opts.Window,
		logger:     opts.Logger,
		now:        opts.Now,
		reports:    make(map[string]SyncReport),
	}
}

func (o *Orchestrator) Sync(ctx context.Context, userID string) (*SyncReport, error) {
	if o.source == nil {
		return nil, &SyncError{UserID: userID, Stage: ErrFetchFailed, Err: fmt.Errorf("no health data source configured")}
	}
	started := o.now()

	src, err := o.loadSources(ctx, userID)
	if err != nil {
		o.logger.Warn("sync load failed", zap.String("user_id", userID), zap.Error(err))
		return nil, &SyncError{UserID: userID, Stage: ErrLoadFailed, Err: err}
	}
	cache := NewDayCache(src.exercise, src.weights)
	window := ComputeSyncWindow(src.profile, firstEntryDay(src.entries), started, o.window)

	exercise, weights, err := o.fetch(ctx, window)
	if err != nil {
		o.logger.Warn("health fetch failed",
			zap.String("user_id", userID),
			zap.String("from", DayID(window.WeightStart)),
			zap.String("to", DayID(window.End)),
			zap.Error(err),
		)
		return nil, &SyncError{UserID: userID, Stage: ErrFetchFailed, Err: err}
	}

	res := o.reconciler.Reconcile(userID, cache, window, exercise, weights, started)
	for _, d := range res.Decisions {
		o.logger.Debug("reconcile decision",
			zap.String("user_id", userID),
			zap.String("day", d.Day),
			zap.String("kind", d.Kind),
			zap.String("decision", string(d.Decision)),
		)
	}

	if len(res.ExerciseWrites) > 0 {
		if err := o.store.UpsertExerciseRecords(ctx, userID, res.ExerciseWrites); err != nil {
			o.logger.Warn("persist exercise failed", zap.String("user_id", userID), zap.Error(err))
			return nil, &SyncError{UserID: userID, Stage: ErrPersistFailed, Err: err}
		}
	}
	if len(res.WeightWrites) > 0 {
		if err := o.store.UpsertWeightSamples(ctx, userID, res.WeightWrites); err != nil {
			o.logger.Warn("persist weights failed", zap.String("user_id", userID), zap.Error(err))
			return nil, &SyncError{UserID: userID, Stage: ErrPersistFailed, Err: err}
		}
	}

	finished := o.now()
	report := SyncReport{
		UserID:         userID,
		Window:         window,
		ExerciseWrites: len(res.ExerciseWrites),
		WeightWrites:   len(res.WeightWrites),
		Skipped:        res.Skipped,
		Dropped:        res.Dropped,
		Rejected:       res.Rejected,
		Decisions:      res.Decisions,
		FinishedAt:     finished,
		Duration:       finished.Sub(started),
	}

	o.mu.Lock()
	o.reports[userID] = report
	o.mu.Unlock()

	o.logger.Info("sync pass complete",
		zap.String("user_id", userID),
		zap.String("exercise_from", DayID(window.ExerciseStart)),
		zap.String("weight_from", DayID(window.WeightStart)),
		zap.String("to", DayID(window.End)),
		zap.Int("exercise_writes", report.ExerciseWrites),
		zap.Int("weight_writes", report.WeightWrites),
		zap.Int("skipped", report.Skipped),
		zap.Int("dropped", report.Dropped),
		zap.Duration("duration", report.Duration),
	)
	return &report, nil
}

func (o *Orchestrator) LastReport(userID string) (SyncReport, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	r, ok := o.reports[userID]
	return r, ok
}

// Snapshot reads every source collection from the store, so writes made
// outside this orchestrator are always visible.
func (o *Orchestrator) Snapshot(ctx context.Context, userID string) (*Snapshot, error) {
	src, err := o.loadSources(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(src.profile, src.entries, src.budgets, src.exercise, src.weights), nil
}

type sources struct {
	profile  model.Profile
	entries  []model.FoodEntry
	budgets  []model.BudgetRecord
	exercise map[string]model.ExerciseDayRecord
	weights  []model.WeightSample
}

func (o *Orchestrator) loadSources(ctx context.Context, userID string) (sources, error) {
	var src sources
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := o.store.LoadProfile(gctx, userID)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		src.profile = p
		return nil
	})
	g.Go(func() error {
		entries, err := o.store.LoadFoodEntries(gctx, userID)
		if err != nil {
			return fmt.Errorf("load food entries: %w", err)
		}
		src.entries = entries
		return nil
	})
	g.Go(func() error {
		budgets, err := o.store.LoadBudgetHistory(gctx, userID)
		if err != nil {
			return fmt.Errorf("load budget history: %w", err)
		}
		src.budgets = budgets
		return nil
	})
	g.Go(func() error {
		exercise, err := o.store.LoadExerciseRecords(gctx, userID)
		if err != nil {
			return fmt.Errorf("load exercise records: %w", err)
		}
		src.exercise = exercise
		return nil
	})
	g.Go(func() error {
		weights, err := o.store.LoadWeightSamples(gctx, userID)
		if err != nil {
			return fmt.Errorf("load weight samples: %w", err)
		}
		src.weights = weights
		return nil
	})
	if err := g.Wait(); err != nil {
		return sources{}, err
	}
	return src, nil
}

func (o *Orchestrator) fetch(ctx context.Context, window SyncWindow) ([]model.RawExerciseSample, []model.RawWeightSample, error) {
	var (
		exercise []model.RawExerciseSample
		weights  []model.RawWeightSample
	)
	end := AddDays(window.End, 1)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		samples, err := o.source.FetchExerciseSamples(gctx, window.ExerciseStart, end)
		if err != nil {
			return fmt.Errorf("fetch exercise samples: %w", err)
		}
		exercise = samples
		return nil
	})
	g.Go(func() error {
		samples, err := o.source.FetchWeightSamples(gctx, window.WeightStart, end)
		if err != nil {
			return fmt.Errorf("fetch weight samples: %w", err)
		}
		weights = samples
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return exercise, weights, nil
}

func firstEntryDay(entries []model.FoodEntry) string {
	first := ""
	for _, e := range entries {
		if day := DayID(e.ConsumedAt); first == "" || day < first {
			first = day
		}
	}
	return first
}
