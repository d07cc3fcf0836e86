package db

import (
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		name:    "initial_schema",
		sql: `
CREATE TABLE IF NOT EXISTS profiles (
  user_id TEXT PRIMARY KEY,
  default_budget INTEGER NOT NULL CHECK(default_budget > 0),
  health_connected_at TEXT,
  week_start TEXT NOT NULL DEFAULT 'monday' CHECK(week_start IN ('monday', 'sunday')),
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS food_entries (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  name TEXT NOT NULL,
  calories INTEGER NOT NULL CHECK(calories >= 0),
  fat_g REAL NOT NULL DEFAULT 0 CHECK(fat_g >= 0),
  carbs_g REAL NOT NULL DEFAULT 0 CHECK(carbs_g >= 0),
  protein_g REAL NOT NULL DEFAULT 0 CHECK(protein_g >= 0),
  sugar_g REAL NOT NULL DEFAULT 0 CHECK(sugar_g >= 0),
  consumed_at TEXT NOT NULL,
  meal TEXT NOT NULL CHECK(meal IN ('breakfast', 'lunch', 'dinner', 'snacks')),
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_food_entries_user_consumed ON food_entries(user_id, consumed_at);

CREATE TABLE IF NOT EXISTS budgets (
  user_id TEXT NOT NULL,
  effective_date TEXT NOT NULL,
  calories INTEGER NOT NULL CHECK(calories > 0),
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY(user_id, effective_date)
);
`,
	},
	{
		version: 2,
		name:    "health_sync",
		sql: `
CREATE TABLE IF NOT EXISTS exercise_days (
  user_id TEXT NOT NULL,
  day TEXT NOT NULL,
  active_calories INTEGER NOT NULL CHECK(active_calories >= 0),
  basal_calories INTEGER NOT NULL CHECK(basal_calories >= 0),
  updated_at TEXT NOT NULL,
  PRIMARY KEY(user_id, day)
);

CREATE TABLE IF NOT EXISTS weight_samples (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  weight_kg REAL NOT NULL CHECK(weight_kg > 0),
  measured_at TEXT NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_weight_samples_user_measured ON weight_samples(user_id, measured_at);
`,
	},
	{
		version: 3,
		name:    "meal_allocations",
		sql: `
CREATE TABLE IF NOT EXISTS meal_allocations (
  user_id TEXT NOT NULL,
  meal TEXT NOT NULL CHECK(meal IN ('breakfast', 'lunch', 'dinner', 'snacks')),
  percent REAL CHECK(percent >= 0 AND percent <= 100),
  calories INTEGER CHECK(calories >= 0),
  PRIMARY KEY(user_id, meal)
);
`,
	},
}

const migrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);`

// ApplyMigrations brings the schema up to date. Each pending migration runs in
// its own transaction together with its bookkeeping row.
func ApplyMigrations(db *sql.DB) error {
	if _, err := db.Exec(migrationsTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	applied, err := appliedVersions(db)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		if err := runMigration(db, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

func appliedVersions(db *sql.DB) (map[int]bool, error) {
	rows, err := db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()
	out := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan migration version: %w", err)
		}
		out[v] = true
	}
	return out, rows.Err()
}

func runMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(m.sql); err != nil {
		return fmt.Errorf("apply: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations(version, name) VALUES(?, ?)`, m.version, m.name); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	return tx.Commit()
}

// SchemaVersion returns the highest applied migration version.
func SchemaVersion(db *sql.DB) (int, error) {
	var v sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(v.Int64), nil
}
