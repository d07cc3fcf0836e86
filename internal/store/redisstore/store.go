// Package redisstore keeps each user's source collections in Redis hashes,
// one hash per collection, values encoded as JSON documents.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/bytedance/sonic"
	"github.com/go-redis/redis/v8"
	"github.com/saadjs/kcal-sync/internal/model"
	"go.uber.org/zap"
)

const DefaultPrefix = "kcal"

const (
	keyProfile  = "profile"
	keyEntries  = "entries"
	keyBudgets  = "budgets"
	keyExercise = "exercise"
	keyWeights  = "weights"
)

type Store struct {
	c      *redis.Client
	prefix string
	logger *zap.Logger
}

func New(c *redis.Client, prefix string, logger *zap.Logger) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{c: c, prefix: prefix, logger: logger}
}

// NewClient builds a client and checks the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	c := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return c, nil
}

func (s *Store) key(userID, collection string) string {
	return s.prefix + ":user:" + userID + ":" + collection
}

func (s *Store) LoadProfile(ctx context.Context, userID string) (model.Profile, error) {
	raw, err := s.c.Get(ctx, s.key(userID, keyProfile)).Result()
	if errors.Is(err, redis.Nil) {
		return model.DefaultProfile(userID), nil
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	var p model.Profile
	if err := sonic.UnmarshalString(raw, &p); err != nil {
		return model.Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	p.UserID = userID
	return p, nil
}

func (s *Store) SaveProfile(ctx context.Context, p model.Profile) error {
	if err := model.ValidateProfile(p); err != nil {
		return err
	}
	raw, err := sonic.MarshalString(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := s.c.Set(ctx, s.key(p.UserID, keyProfile), raw, 0).Err(); err != nil {
		return fmt.Errorf("set profile: %w", err)
	}
	return nil
}

func (s *Store) LoadFoodEntries(ctx context.Context, userID string) ([]model.FoodEntry, error) {
	out, err := loadHash[model.FoodEntry](ctx, s.c, s.key(userID, keyEntries))
	if err != nil {
		return nil, fmt.Errorf("load food entries: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ConsumedAt.Before(out[j].ConsumedAt) })
	return out, nil
}

func (s *Store) UpsertFoodEntries(ctx context.Context, userID string, entries []model.FoodEntry) error {
	fields := make(map[string]any, len(entries))
	for _, e := range entries {
		if err := model.Validate(e); err != nil {
			return err
		}
		raw, err := sonic.MarshalString(e)
		if err != nil {
			return fmt.Errorf("encode food entry %s: %w", e.ID, err)
		}
		fields[e.ID] = raw
	}
	return s.writeHash(ctx, s.key(userID, keyEntries), fields)
}

func (s *Store) DeleteFoodEntry(ctx context.Context, userID, entryID string) error {
	return s.deleteField(ctx, s.key(userID, keyEntries), "food entry", entryID)
}

func (s *Store) LoadBudgetHistory(ctx context.Context, userID string) ([]model.BudgetRecord, error) {
	out, err := loadHash[model.BudgetRecord](ctx, s.c, s.key(userID, keyBudgets))
	if err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EffectiveDate < out[j].EffectiveDate })
	return out, nil
}

func (s *Store) UpsertBudgetRecords(ctx context.Context, userID string, records []model.BudgetRecord) error {
	fields := make(map[string]any, len(records))
	for _, r := range records {
		if err := model.Validate(r); err != nil {
			return err
		}
		raw, err := sonic.MarshalString(r)
		if err != nil {
			return fmt.Errorf("encode budget %s: %w", r.EffectiveDate, err)
		}
		// later records in the batch replace earlier ones on the same date
		fields[r.EffectiveDate] = raw
	}
	return s.writeHash(ctx, s.key(userID, keyBudgets), fields)
}

func (s *Store) LoadExerciseRecords(ctx context.Context, userID string) (map[string]model.ExerciseDayRecord, error) {
	list, err := loadHash[model.ExerciseDayRecord](ctx, s.c, s.key(userID, keyExercise))
	if err != nil {
		return nil, fmt.Errorf("load exercise days: %w", err)
	}
	out := make(map[string]model.ExerciseDayRecord, len(list))
	for _, r := range list {
		out[r.Day] = r
	}
	return out, nil
}

func (s *Store) UpsertExerciseRecords(ctx context.Context, userID string, records []model.ExerciseDayRecord) error {
	fields := make(map[string]any, len(records))
	for _, r := range records {
		if err := model.Validate(r); err != nil {
			return err
		}
		raw, err := sonic.MarshalString(r)
		if err != nil {
			return fmt.Errorf("encode exercise day %s: %w", r.Day, err)
		}
		fields[r.Day] = raw
	}
	return s.writeHash(ctx, s.key(userID, keyExercise), fields)
}

func (s *Store) LoadWeightSamples(ctx context.Context, userID string) ([]model.WeightSample, error) {
	out, err := loadHash[model.WeightSample](ctx, s.c, s.key(userID, keyWeights))
	if err != nil {
		return nil, fmt.Errorf("load weight samples: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MeasuredAt.Before(out[j].MeasuredAt) })
	return out, nil
}

func (s *Store) UpsertWeightSamples(ctx context.Context, userID string, samples []model.WeightSample) error {
	fields := make(map[string]any, len(samples))
	for _, w := range samples {
		if err := model.Validate(w); err != nil {
			return err
		}
		raw, err := sonic.MarshalString(w)
		if err != nil {
			return fmt.Errorf("encode weight sample %s: %w", w.ID, err)
		}
		fields[w.ID] = raw
	}
	return s.writeHash(ctx, s.key(userID, keyWeights), fields)
}

func (s *Store) DeleteWeightSample(ctx context.Context, userID, sampleID string) error {
	return s.deleteField(ctx, s.key(userID, keyWeights), "weight sample", sampleID)
}

func (s *Store) writeHash(ctx context.Context, key string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	if err := s.c.HSet(ctx, key, fields).Err(); err != nil {
		s.logger.Warn("redis hset failed", zap.String("key", key), zap.Int("fields", len(fields)), zap.Error(err))
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

func (s *Store) deleteField(ctx context.Context, key, what, id string) error {
	n, err := s.c.HDel(ctx, key, id).Result()
	if err != nil {
		return fmt.Errorf("delete %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s", model.ErrNotFound, what, id)
	}
	return nil
}

func loadHash[T any](ctx context.Context, c *redis.Client, key string) ([]T, error) {
	vals, err := c.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(vals))
	for field, raw := range vals {
		var v T
		if err := sonic.UnmarshalString(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s[%s]: %w", key, field, err)
		}
		out = append(out, v)
	}
	return out, nil
}
