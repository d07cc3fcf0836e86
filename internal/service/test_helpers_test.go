package service_test

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/saadjs/kcal-sync/internal/db"
	"github.com/saadjs/kcal-sync/internal/model"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kcal.db")
	sqldb, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = sqldb.Close() })
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return sqldb
}

var entrySeq atomic.Int64

// entryOn builds a food entry at noon of the given day.
func entryOn(dayID string, calories int, meal model.MealType) model.FoodEntry {
	return model.FoodEntry{
		ID:         fmt.Sprintf("e-%s-%d", dayID, entrySeq.Add(1)),
		Name:       "food",
		Calories:   calories,
		ConsumedAt: day(dayID).Add(12 * time.Hour),
		Meal:       meal,
	}
}

func weightOn(dayID string, hour int, kg float64) model.WeightSample {
	return model.WeightSample{
		ID:         fmt.Sprintf("w-%s-%d", dayID, hour),
		WeightKg:   kg,
		MeasuredAt: day(dayID).Add(time.Duration(hour) * time.Hour),
	}
}

func at(dayID string, hour int) time.Time {
	return day(dayID).Add(time.Duration(hour) * time.Hour)
}
