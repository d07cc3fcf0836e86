// Package sqlite persists source collections in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/saadjs/kcal-sync/internal/model"
	"go.uber.org/zap"
)

const timeLayout = time.RFC3339Nano

type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

func New(db *sql.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

func formatTime(t time.Time) string { return t.Format(timeLayout) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.Local(), nil
}

// LoadProfile returns the stored profile, or the default profile when the user
// has none yet.
func (s *Store) LoadProfile(ctx context.Context, userID string) (model.Profile, error) {
	p := model.DefaultProfile(userID)
	var (
		connected sql.NullString
		weekStart string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT default_budget, health_connected_at, week_start
FROM profiles WHERE user_id = ?
`, userID).Scan(&p.DefaultBudget, &connected, &weekStart)
	switch {
	case err == sql.ErrNoRows:
		return p, nil
	case err != nil:
		return model.Profile{}, fmt.Errorf("query profile: %w", err)
	}
	p.WeekStart = model.WeekStart(weekStart)
	if connected.Valid && connected.String != "" {
		t, err := parseTime(connected.String)
		if err != nil {
			return model.Profile{}, err
		}
		p.HealthConnectedAt = &t
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT meal, percent, calories FROM meal_allocations WHERE user_id = ? ORDER BY meal
`, userID)
	if err != nil {
		return model.Profile{}, fmt.Errorf("query meal allocations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			meal    string
			percent sql.NullFloat64
			cal     sql.NullInt64
		)
		if err := rows.Scan(&meal, &percent, &cal); err != nil {
			return model.Profile{}, fmt.Errorf("scan meal allocation: %w", err)
		}
		a := model.MealAllocation{Meal: model.MealType(meal)}
		if percent.Valid {
			v := percent.Float64
			a.Percent = &v
		}
		if cal.Valid {
			v := int(cal.Int64)
			a.Calories = &v
		}
		p.MealAllocations = append(p.MealAllocations, a)
	}
	if err := rows.Err(); err != nil {
		return model.Profile{}, fmt.Errorf("iterate meal allocations: %w", err)
	}
	return p, nil
}

func (s *Store) SaveProfile(ctx context.Context, p model.Profile) error {
	if err := model.ValidateProfile(p); err != nil {
		return err
	}
	var connected any
	if p.HealthConnectedAt != nil {
		connected = formatTime(*p.HealthConnectedAt)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO profiles(user_id, default_budget, health_connected_at, week_start, updated_at)
VALUES(?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(user_id) DO UPDATE SET
  default_budget = excluded.default_budget,
  health_connected_at = excluded.health_connected_at,
  week_start = excluded.week_start,
  updated_at = CURRENT_TIMESTAMP
`, p.UserID, p.DefaultBudget, connected, string(p.WeekStart)); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM meal_allocations WHERE user_id = ?`, p.UserID); err != nil {
		return fmt.Errorf("clear meal allocations: %w", err)
	}
	for _, a := range p.MealAllocations {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO meal_allocations(user_id, meal, percent, calories) VALUES(?, ?, ?, ?)
`, p.UserID, string(a.Meal), a.Percent, a.Calories); err != nil {
			return fmt.Errorf("insert meal allocation %s: %w", a.Meal, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit profile: %w", err)
	}
	return nil
}

func (s *Store) LoadFoodEntries(ctx context.Context, userID string) ([]model.FoodEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, calories, fat_g, carbs_g, protein_g, sugar_g, consumed_at, meal
FROM food_entries
WHERE user_id = ?
ORDER BY consumed_at ASC, id ASC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("query food entries: %w", err)
	}
	defer rows.Close()

	out := make([]model.FoodEntry, 0)
	for rows.Next() {
		var (
			e          model.FoodEntry
			consumedAt string
			meal       string
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Calories, &e.FatG, &e.CarbsG, &e.ProteinG, &e.SugarG, &consumedAt, &meal); err != nil {
			return nil, fmt.Errorf("scan food entry: %w", err)
		}
		if e.ConsumedAt, err = parseTime(consumedAt); err != nil {
			return nil, err
		}
		e.Meal = model.MealType(meal)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate food entries: %w", err)
	}
	return out, nil
}

func (s *Store) UpsertFoodEntries(ctx context.Context, userID string, entries []model.FoodEntry) error {
	return s.inTx(ctx, "food entries", func(tx *sql.Tx) error {
		for _, e := range entries {
			if err := model.Validate(e); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
INSERT INTO food_entries(id, user_id, name, calories, fat_g, carbs_g, protein_g, sugar_g, consumed_at, meal)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  name = excluded.name,
  calories = excluded.calories,
  fat_g = excluded.fat_g,
  carbs_g = excluded.carbs_g,
  protein_g = excluded.protein_g,
  sugar_g = excluded.sugar_g,
  consumed_at = excluded.consumed_at,
  meal = excluded.meal
`, e.ID, userID, e.Name, e.Calories, e.FatG, e.CarbsG, e.ProteinG, e.SugarG, formatTime(e.ConsumedAt), string(e.Meal)); err != nil {
				return fmt.Errorf("upsert food entry %s: %w", e.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) DeleteFoodEntry(ctx context.Context, userID, entryID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM food_entries WHERE user_id = ? AND id = ?`, userID, entryID)
	if err != nil {
		return fmt.Errorf("delete food entry: %w", err)
	}
	return requireAffected(res, "food entry", entryID)
}

// LoadBudgetHistory returns one record per effective date; a later set on the
// same date has already replaced the earlier one.
func (s *Store) LoadBudgetHistory(ctx context.Context, userID string) ([]model.BudgetRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT effective_date, calories FROM budgets WHERE user_id = ? ORDER BY effective_date ASC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	out := make([]model.BudgetRecord, 0)
	for rows.Next() {
		var r model.BudgetRecord
		if err := rows.Scan(&r.EffectiveDate, &r.Calories); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return out, nil
}

func (s *Store) UpsertBudgetRecords(ctx context.Context, userID string, records []model.BudgetRecord) error {
	return s.inTx(ctx, "budgets", func(tx *sql.Tx) error {
		for _, r := range records {
			if err := model.Validate(r); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
INSERT INTO budgets(user_id, effective_date, calories) VALUES(?, ?, ?)
ON CONFLICT(user_id, effective_date) DO UPDATE SET calories = excluded.calories, created_at = CURRENT_TIMESTAMP
`, userID, r.EffectiveDate, r.Calories); err != nil {
				return fmt.Errorf("upsert budget %s: %w", r.EffectiveDate, err)
			}
		}
		return nil
	})
}

func (s *Store) LoadExerciseRecords(ctx context.Context, userID string) (map[string]model.ExerciseDayRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT day, active_calories, basal_calories, updated_at FROM exercise_days WHERE user_id = ?
`, userID)
	if err != nil {
		return nil, fmt.Errorf("query exercise days: %w", err)
	}
	defer rows.Close()

	out := make(map[string]model.ExerciseDayRecord)
	for rows.Next() {
		var (
			r         model.ExerciseDayRecord
			updatedAt string
		)
		if err := rows.Scan(&r.Day, &r.ActiveCalories, &r.BasalCalories, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan exercise day: %w", err)
		}
		if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		out[r.Day] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exercise days: %w", err)
	}
	return out, nil
}

func (s *Store) UpsertExerciseRecords(ctx context.Context, userID string, records []model.ExerciseDayRecord) error {
	return s.inTx(ctx, "exercise days", func(tx *sql.Tx) error {
		for _, r := range records {
			if err := model.Validate(r); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
INSERT INTO exercise_days(user_id, day, active_calories, basal_calories, updated_at) VALUES(?, ?, ?, ?, ?)
ON CONFLICT(user_id, day) DO UPDATE SET
  active_calories = excluded.active_calories,
  basal_calories = excluded.basal_calories,
  updated_at = excluded.updated_at
`, userID, r.Day, r.ActiveCalories, r.BasalCalories, formatTime(r.UpdatedAt)); err != nil {
				return fmt.Errorf("upsert exercise day %s: %w", r.Day, err)
			}
		}
		return nil
	})
}

func (s *Store) LoadWeightSamples(ctx context.Context, userID string) ([]model.WeightSample, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, weight_kg, measured_at FROM weight_samples WHERE user_id = ? ORDER BY measured_at ASC, id ASC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("query weight samples: %w", err)
	}
	defer rows.Close()

	out := make([]model.WeightSample, 0)
	for rows.Next() {
		var (
			w          model.WeightSample
			measuredAt string
		)
		if err := rows.Scan(&w.ID, &w.WeightKg, &measuredAt); err != nil {
			return nil, fmt.Errorf("scan weight sample: %w", err)
		}
		if w.MeasuredAt, err = parseTime(measuredAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weight samples: %w", err)
	}
	return out, nil
}

func (s *Store) UpsertWeightSamples(ctx context.Context, userID string, samples []model.WeightSample) error {
	return s.inTx(ctx, "weight samples", func(tx *sql.Tx) error {
		for _, w := range samples {
			if err := model.Validate(w); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
INSERT INTO weight_samples(id, user_id, weight_kg, measured_at) VALUES(?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET weight_kg = excluded.weight_kg, measured_at = excluded.measured_at
`, w.ID, userID, w.WeightKg, formatTime(w.MeasuredAt)); err != nil {
				return fmt.Errorf("upsert weight sample %s: %w", w.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) DeleteWeightSample(ctx context.Context, userID, sampleID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM weight_samples WHERE user_id = ? AND id = ?`, userID, sampleID)
	if err != nil {
		return fmt.Errorf("delete weight sample: %w", err)
	}
	return requireAffected(res, "weight sample", sampleID)
}

func (s *Store) inTx(ctx context.Context, what string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		s.logger.Debug("rolled back batch", zap.String("collection", what), zap.Error(err))
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", what, err)
	}
	return nil
}

func requireAffected(res sql.Result, what, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s %s", model.ErrNotFound, what, id)
	}
	return nil
}
