package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/saadjs/kcal-sync/internal/db"
	"github.com/saadjs/kcal-sync/internal/model"
	"github.com/saadjs/kcal-sync/internal/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	sqldb, err := db.Open(filepath.Join(t.TempDir(), "kcal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqldb.Close() })
	require.NoError(t, db.ApplyMigrations(sqldb))
	return sqlite.New(sqldb, zap.NewNop())
}

func TestLoadProfileDefaultsWhenMissing(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	p, err := s.LoadProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultProfile("u1"), p)
}

func TestSaveProfileRoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	connected := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	pct := 40.0
	cal := 300
	want := model.Profile{
		UserID:            "u1",
		DefaultBudget:     1900,
		HealthConnectedAt: &connected,
		WeekStart:         model.WeekStartSunday,
		MealAllocations: []model.MealAllocation{
			{Meal: model.MealDinner, Percent: &pct},
			{Meal: model.MealSnacks, Calories: &cal},
		},
	}
	require.NoError(t, s.SaveProfile(ctx, want))

	got, err := s.LoadProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1900, got.DefaultBudget)
	assert.Equal(t, model.WeekStartSunday, got.WeekStart)
	require.NotNil(t, got.HealthConnectedAt)
	assert.True(t, connected.Equal(*got.HealthConnectedAt))
	require.Len(t, got.MealAllocations, 2)
	assert.Equal(t, model.MealDinner, got.MealAllocations[0].Meal)
	assert.InDelta(t, 40.0, *got.MealAllocations[0].Percent, 1e-9)
	assert.Equal(t, 300, *got.MealAllocations[1].Calories)

	want.MealAllocations = nil
	require.NoError(t, s.SaveProfile(ctx, want))
	got, err = s.LoadProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got.MealAllocations)
}

func TestSaveProfileRejectsInvalid(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	p := model.DefaultProfile("u1")
	p.DefaultBudget = 0
	err := s.SaveProfile(context.Background(), p)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalid)
}

func TestFoodEntriesUpsertLoadDelete(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2024, 3, 1, 12, 15, 0, 0, time.Local)
	e, err := model.NewFoodEntry(model.FoodEntryInput{Name: "oats", Calories: 350, CarbsG: 60, ConsumedAt: at, Meal: "breakfast"})
	require.NoError(t, err)
	require.NoError(t, s.UpsertFoodEntries(ctx, "u1", []model.FoodEntry{e}))

	other, err := s.LoadFoodEntries(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other)

	got, err := s.LoadFoodEntries(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, e.ID, got[0].ID)
	assert.Equal(t, 350, got[0].Calories)
	assert.Equal(t, model.MealBreakfast, got[0].Meal)
	assert.True(t, at.Equal(got[0].ConsumedAt))

	require.NoError(t, s.DeleteFoodEntry(ctx, "u1", e.ID))
	err = s.DeleteFoodEntry(ctx, "u1", e.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestBudgetUpsertReplacesSameDate(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertBudgetRecords(ctx, "u1", []model.BudgetRecord{
		{EffectiveDate: "2024-03-01", Calories: 2000},
		{EffectiveDate: "2024-02-01", Calories: 2200},
	}))
	require.NoError(t, s.UpsertBudgetRecords(ctx, "u1", []model.BudgetRecord{
		{EffectiveDate: "2024-03-01", Calories: 1800},
	}))

	got, err := s.LoadBudgetHistory(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []model.BudgetRecord{
		{EffectiveDate: "2024-02-01", Calories: 2200},
		{EffectiveDate: "2024-03-01", Calories: 1800},
	}, got)
}

func TestBudgetUpsertInvalidRollsBack(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	err := s.UpsertBudgetRecords(ctx, "u1", []model.BudgetRecord{
		{EffectiveDate: "2024-03-01", Calories: 2000},
		{EffectiveDate: "03/01/2024", Calories: 2000},
	})
	require.ErrorIs(t, err, model.ErrInvalid)

	got, err := s.LoadBudgetHistory(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExerciseUpsertOverwritesDay(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.UpsertExerciseRecords(ctx, "u1", []model.ExerciseDayRecord{
		{Day: "2024-03-01", ActiveCalories: 300, BasalCalories: 1500, UpdatedAt: now},
	}))
	require.NoError(t, s.UpsertExerciseRecords(ctx, "u1", []model.ExerciseDayRecord{
		{Day: "2024-03-01", ActiveCalories: 420, BasalCalories: 1510, UpdatedAt: now.Add(time.Hour)},
	}))

	got, err := s.LoadExerciseRecords(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	rec := got["2024-03-01"]
	assert.Equal(t, 420, rec.ActiveCalories)
	assert.Equal(t, 1510, rec.BasalCalories)
	assert.True(t, now.Add(time.Hour).Equal(rec.UpdatedAt))
}

func TestWeightSamplesUpsertIsIdempotentByID(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)
	w := model.WeightSample{ID: "w-1", WeightKg: 80.5, MeasuredAt: at}
	require.NoError(t, s.UpsertWeightSamples(ctx, "u1", []model.WeightSample{w}))
	require.NoError(t, s.UpsertWeightSamples(ctx, "u1", []model.WeightSample{w}))

	got, err := s.LoadWeightSamples(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 80.5, got[0].WeightKg, 1e-9)

	require.NoError(t, s.DeleteWeightSample(ctx, "u1", "w-1"))
	assert.ErrorIs(t, s.DeleteWeightSample(ctx, "u1", "w-1"), model.ErrNotFound)
}

func setupMockStore(t *testing.T) (sqlmock.Sqlmock, *sqlite.Store) {
	t.Helper()
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqldb.Close() })
	return mock, sqlite.New(sqldb, zap.NewNop())
}

func TestLoadFoodEntries_QueryError(t *testing.T) {
	mock, s := setupMockStore(t)
	boom := errors.New("disk I/O error")

	mock.ExpectQuery(`SELECT id, name, calories`).
		WithArgs("u1").
		WillReturnError(boom)

	_, err := s.LoadFoodEntries(context.Background(), "u1")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadWeightSamples_BadTimestamp(t *testing.T) {
	mock, s := setupMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "weight_kg", "measured_at"}).
		AddRow("w-1", 80.0, "yesterday")
	mock.ExpectQuery(`SELECT id, weight_kg, measured_at`).
		WithArgs("u1").
		WillReturnRows(rows)

	_, err := s.LoadWeightSamples(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse timestamp")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertExerciseRecords_RollsBackOnExecError(t *testing.T) {
	mock, s := setupMockStore(t)
	boom := errors.New("constraint failed")
	now := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO exercise_days`).
		WithArgs("u1", "2024-03-01", 300, 1500, now.Format(time.RFC3339Nano)).
		WillReturnError(boom)
	mock.ExpectRollback()

	err := s.UpsertExerciseRecords(context.Background(), "u1", []model.ExerciseDayRecord{
		{Day: "2024-03-01", ActiveCalories: 300, BasalCalories: 1500, UpdatedAt: now},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertWeightSamples_CommitError(t *testing.T) {
	mock, s := setupMockStore(t)
	at := time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO weight_samples`).
		WithArgs("w-1", "u1", 80.0, at.Format(time.RFC3339Nano)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit().WillReturnError(errors.New("database is locked"))

	err := s.UpsertWeightSamples(context.Background(), "u1", []model.WeightSample{{ID: "w-1", WeightKg: 80, MeasuredAt: at}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit weight samples")
	require.NoError(t, mock.ExpectationsWereMet())
}
