// Package servicetest provides in-memory collaborators for exercising the
// sync engine without a database or a health-data gateway.
package servicetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/saadjs/kcal-sync/internal/model"
)

// Store is an in-memory service.Store. Setting one of the Err fields makes the
// matching operation fail.
type Store struct {
	mu       sync.Mutex
	profiles map[string]model.Profile
	entries  map[string]map[string]model.FoodEntry
	budgets  map[string][]model.BudgetRecord
	exercise map[string]map[string]model.ExerciseDayRecord
	weights  map[string]map[string]model.WeightSample

	LoadErr           error
	UpsertExerciseErr error
	UpsertWeightErr   error

	ExerciseUpserts int
	WeightUpserts   int
}

func NewStore() *Store {
	return &Store{
		profiles: make(map[string]model.Profile),
		entries:  make(map[string]map[string]model.FoodEntry),
		budgets:  make(map[string][]model.BudgetRecord),
		exercise: make(map[string]map[string]model.ExerciseDayRecord),
		weights:  make(map[string]map[string]model.WeightSample),
	}
}

func (s *Store) LoadProfile(_ context.Context, userID string) (model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return model.Profile{}, s.LoadErr
	}
	if p, ok := s.profiles[userID]; ok {
		return p, nil
	}
	return model.DefaultProfile(userID), nil
}

func (s *Store) SaveProfile(_ context.Context, p model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = p
	return nil
}

func (s *Store) LoadFoodEntries(_ context.Context, userID string) ([]model.FoodEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	out := make([]model.FoodEntry, 0, len(s.entries[userID]))
	for _, e := range s.entries[userID] {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConsumedAt.Before(out[j].ConsumedAt) })
	return out, nil
}

func (s *Store) UpsertFoodEntries(_ context.Context, userID string, entries []model.FoodEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries[userID] == nil {
		s.entries[userID] = make(map[string]model.FoodEntry)
	}
	for _, e := range entries {
		s.entries[userID][e.ID] = e
	}
	return nil
}

func (s *Store) DeleteFoodEntry(_ context.Context, userID, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[userID][entryID]; !ok {
		return fmt.Errorf("%w: food entry %s", model.ErrNotFound, entryID)
	}
	delete(s.entries[userID], entryID)
	return nil
}

func (s *Store) LoadBudgetHistory(_ context.Context, userID string) ([]model.BudgetRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	out := make([]model.BudgetRecord, len(s.budgets[userID]))
	copy(out, s.budgets[userID])
	return out, nil
}

// UpsertBudgetRecords appends, so equal dates are kept in insertion order.
func (s *Store) UpsertBudgetRecords(_ context.Context, userID string, records []model.BudgetRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[userID] = append(s.budgets[userID], records...)
	return nil
}

func (s *Store) LoadExerciseRecords(_ context.Context, userID string) (map[string]model.ExerciseDayRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	out := make(map[string]model.ExerciseDayRecord, len(s.exercise[userID]))
	for k, v := range s.exercise[userID] {
		out[k] = v
	}
	return out, nil
}

func (s *Store) UpsertExerciseRecords(_ context.Context, userID string, records []model.ExerciseDayRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpsertExerciseErr != nil {
		return s.UpsertExerciseErr
	}
	if s.exercise[userID] == nil {
		s.exercise[userID] = make(map[string]model.ExerciseDayRecord)
	}
	for _, r := range records {
		s.exercise[userID][r.Day] = r
	}
	s.ExerciseUpserts++
	return nil
}

func (s *Store) LoadWeightSamples(_ context.Context, userID string) ([]model.WeightSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	out := make([]model.WeightSample, 0, len(s.weights[userID]))
	for _, w := range s.weights[userID] {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MeasuredAt.Before(out[j].MeasuredAt) })
	return out, nil
}

func (s *Store) UpsertWeightSamples(_ context.Context, userID string, samples []model.WeightSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpsertWeightErr != nil {
		return s.UpsertWeightErr
	}
	if s.weights[userID] == nil {
		s.weights[userID] = make(map[string]model.WeightSample)
	}
	for _, w := range samples {
		s.weights[userID][w.ID] = w
	}
	s.WeightUpserts++
	return nil
}

func (s *Store) DeleteWeightSample(_ context.Context, userID, sampleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.weights[userID][sampleID]; !ok {
		return fmt.Errorf("%w: weight sample %s", model.ErrNotFound, sampleID)
	}
	delete(s.weights[userID], sampleID)
	return nil
}

// Source is an in-memory service.HealthSource returning fixed samples inside
// the requested half-open range.
type Source struct {
	mu       sync.Mutex
	Exercise []model.RawExerciseSample
	Weights  []model.RawWeightSample
	Err      error

	Calls      int
	LastStarts []time.Time
}

func (s *Source) FetchExerciseSamples(ctx context.Context, start, end time.Time) ([]model.RawExerciseSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	s.LastStarts = append(s.LastStarts, start)
	if s.Err != nil {
		return nil, s.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]model.RawExerciseSample, 0)
	for _, e := range s.Exercise {
		if !e.At.Before(start) && e.At.Before(end) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Source) FetchWeightSamples(ctx context.Context, start, end time.Time) ([]model.RawWeightSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	s.LastStarts = append(s.LastStarts, start)
	if s.Err != nil {
		return nil, s.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]model.RawWeightSample, 0)
	for _, w := range s.Weights {
		if !w.At.Before(start) && w.At.Before(end) {
			out = append(out, w)
		}
	}
	return out, nil
}

// Clock returns a fixed time.
func Clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
