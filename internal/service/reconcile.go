package service

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/saadjs/kcal-sync/internal/model"
)

type Decision string

const (
	DecisionWrite     Decision = "write"
	DecisionOverwrite Decision = "overwrite"
	DecisionSkip      Decision = "skip"
	DecisionDrop      Decision = "drop"
)

func (d Decision) Persists() bool {
	return d == DecisionWrite || d == DecisionOverwrite
}

const DefaultForceRefreshDays = 2

// FreshnessPolicy decides whether a fetched record replaces a stored one.
// Days inside the force-refresh window (the last ForceRefreshDays calendar
// days, today included) are always rewritten; older stored days are final.
type FreshnessPolicy struct {
	ForceRefreshDays int
}

func DefaultFreshnessPolicy() FreshnessPolicy {
	return FreshnessPolicy{ForceRefreshDays: DefaultForceRefreshDays}
}

func (p FreshnessPolicy) InRefreshWindow(day string, today time.Time) bool {
	if p.ForceRefreshDays <= 0 {
		return false
	}
	first := DayID(AddDays(StartOfDay(today), -(p.ForceRefreshDays - 1)))
	return day >= first && day <= DayID(today)
}

func (p FreshnessPolicy) DecideExercise(rec model.ExerciseDayRecord, exists bool, today time.Time) Decision {
	switch {
	case rec.IsZero():
		return DecisionDrop
	case !exists:
		return DecisionWrite
	case p.InRefreshWindow(rec.Day, today):
		return DecisionOverwrite
	default:
		return DecisionSkip
	}
}

// DecideWeight is append-only: a day that already has a weight keeps it.
func DecideWeight(exists bool) Decision {
	if exists {
		return DecisionSkip
	}
	return DecisionWrite
}

type DayCache struct {
	Exercise map[string]model.ExerciseDayRecord
	Weights  map[string]model.WeightSample
	Samples  []model.WeightSample
}

func NewDayCache(exercise map[string]model.ExerciseDayRecord, weights []model.WeightSample) DayCache {
	c := DayCache{
		Exercise: make(map[string]model.ExerciseDayRecord, len(exercise)),
		Weights:  make(map[string]model.WeightSample, len(weights)),
		Samples:  make([]model.WeightSample, 0, len(weights)),
	}
	for day, rec := range exercise {
		c.Exercise[day] = rec
	}
	for _, w := range weights {
		c.PutWeight(w)
	}
	return c
}

func (c *DayCache) PutWeight(w model.WeightSample) {
	replaced := false
	for i := range c.Samples {
		if c.Samples[i].ID == w.ID && w.ID != "" {
			c.Samples[i] = w
			replaced = true
			break
		}
	}
	if !replaced {
		c.Samples = append(c.Samples, w)
	}
	day := DayID(w.MeasuredAt)
	if cur, ok := c.Weights[day]; !ok || !w.MeasuredAt.Before(cur.MeasuredAt) {
		c.Weights[day] = w
	}
}

func (c DayCache) Clone() DayCache {
	out := DayCache{
		Exercise: make(map[string]model.ExerciseDayRecord, len(c.Exercise)),
		Weights:  make(map[string]model.WeightSample, len(c.Weights)),
		Samples:  make([]model.WeightSample, len(c.Samples)),
	}
	for k, v := range c.Exercise {
		out.Exercise[k] = v
	}
	for k, v := range c.Weights {
		out.Weights[k] = v
	}
	copy(out.Samples, c.Samples)
	return out
}

func (c DayCache) WeightList() []model.WeightSample {
	out := make([]model.WeightSample, len(c.Samples))
	copy(out, c.Samples)
	sort.SliceStable(out, func(i, j int) bool { return out[i].MeasuredAt.Before(out[j].MeasuredAt) })
	return out
}

type SyncWindow struct {
	ExerciseStart time.Time `json:"exercise_start"`
	WeightStart   time.Time `json:"weight_start"`
	End           time.Time `json:"end"`
}

type WindowSettings struct {
	DefaultLookbackDays int
	WeightLookbackDays  int
}

func DefaultWindowSettings() WindowSettings {
	return WindowSettings{DefaultLookbackDays: 30, WeightLookbackDays: 90}
}

// ComputeSyncWindow picks the sync start from, in priority order, the health
// connection date, the earliest food entry, or DefaultLookbackDays ago.
func ComputeSyncWindow(profile model.Profile, firstEntryDay string, today time.Time, s WindowSettings) SyncWindow {
	end := StartOfDay(today)
	start := AddDays(end, -s.DefaultLookbackDays)
	switch {
	case profile.HealthConnectedAt != nil:
		start = StartOfDay(profile.HealthConnectedAt.In(today.Location()))
	case firstEntryDay != "":
		if t, err := ParseDayID(firstEntryDay); err == nil {
			start = t
		}
	}
	if start.After(end) {
		start = end
	}
	weightStart := AddDays(end, -s.WeightLookbackDays)
	if start.Before(weightStart) {
		weightStart = start
	}
	return SyncWindow{ExerciseStart: start, WeightStart: weightStart, End: end}
}

type DayDecision struct {
	Day      string   `json:"day"`
	Kind     string   `json:"kind"`
	Decision Decision `json:"decision"`
}

type ReconcileResult struct {
	ExerciseWrites []model.ExerciseDayRecord
	WeightWrites   []model.WeightSample
	Cache          DayCache
	Decisions      []DayDecision
	Skipped        int
	Dropped        int
	Rejected       int
}

func (r ReconcileResult) Writes() int {
	return len(r.ExerciseWrites) + len(r.WeightWrites)
}

// weightNamespace seeds ids of synced weights, so two passes writing the same
// day produce the same key.
var weightNamespace = uuid.MustParse("5b0c8a52-3f7e-4d35-9a55-7e0f6f1c2a10")

func SyncedWeightID(userID, day string) string {
	return uuid.NewSHA1(weightNamespace, []byte(userID+"/"+day)).String()
}

type Reconciler struct {
	Policy FreshnessPolicy
}

func NewReconciler(policy FreshnessPolicy) *Reconciler {
	return &Reconciler{Policy: policy}
}

func (r *Reconciler) Reconcile(userID string, cache DayCache, window SyncWindow, exercise []model.RawExerciseSample, weights []model.RawWeightSample, now time.Time) ReconcileResult {
	res := ReconcileResult{
		ExerciseWrites: make([]model.ExerciseDayRecord, 0),
		WeightWrites:   make([]model.WeightSample, 0),
		Cache:          cache.Clone(),
		Decisions:      make([]DayDecision, 0),
	}

	exerciseDays, rejected := collapseExercise(exercise, window.ExerciseStart, window.End)
	res.Rejected += rejected
	for _, day := range sortedKeys(exerciseDays) {
		sum := exerciseDays[day]
		rec := model.ExerciseDayRecord{
			Day:            day,
			ActiveCalories: roundHalfUp(sum.active),
			BasalCalories:  roundHalfUp(sum.basal),
			UpdatedAt:      now,
		}
		_, exists := res.Cache.Exercise[day]
		d := r.Policy.DecideExercise(rec, exists, now)
		res.Decisions = append(res.Decisions, DayDecision{Day: day, Kind: "exercise", Decision: d})
		switch d {
		case DecisionWrite, DecisionOverwrite:
			res.ExerciseWrites = append(res.ExerciseWrites, rec)
			res.Cache.Exercise[day] = rec
		case DecisionSkip:
			res.Skipped++
		case DecisionDrop:
			res.Dropped++
		}
	}

	weightDays, rejected := firstWeightPerDay(weights, window.WeightStart, window.End)
	res.Rejected += rejected
	for _, day := range sortedKeys(weightDays) {
		_, exists := res.Cache.Weights[day]
		d := DecideWeight(exists)
		res.Decisions = append(res.Decisions, DayDecision{Day: day, Kind: "weight", Decision: d})
		if d == DecisionSkip {
			res.Skipped++
			continue
		}
		raw := weightDays[day]
		sample := model.WeightSample{
			ID:         SyncedWeightID(userID, day),
			WeightKg:   raw.WeightKg,
			MeasuredAt: raw.At,
		}
		res.WeightWrites = append(res.WeightWrites, sample)
		res.Cache.PutWeight(sample)
	}
	return res
}

type energySum struct {
	active float64
	basal  float64
}

func inWindow(t, start, end time.Time) bool {
	day := DayID(t)
	return day >= DayID(start) && day <= DayID(end)
}

func validReading(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func collapseExercise(samples []model.RawExerciseSample, start, end time.Time) (map[string]energySum, int) {
	out := make(map[string]energySum)
	rejected := 0
	for _, s := range samples {
		if !inWindow(s.At, start, end) {
			continue
		}
		if !validReading(s.Value) {
			rejected++
			continue
		}
		day := DayID(s.At)
		sum := out[day]
		switch s.Kind {
		case model.SampleActive:
			sum.active += s.Value
		case model.SampleBasal:
			sum.basal += s.Value
		default:
			rejected++
			continue
		}
		out[day] = sum
	}
	return out, rejected
}

// firstWeightPerDay keeps the earliest reading of each day. Ties keep fetch
// order.
func firstWeightPerDay(samples []model.RawWeightSample, start, end time.Time) (map[string]model.RawWeightSample, int) {
	out := make(map[string]model.RawWeightSample)
	rejected := 0
	for _, s := range samples {
		if !inWindow(s.At, start, end) {
			continue
		}
		if !validReading(s.WeightKg) || s.WeightKg == 0 {
			rejected++
			continue
		}
		day := DayID(s.At)
		if cur, ok := out[day]; !ok || s.At.Before(cur.At) {
			out[day] = s
		}
	}
	return out, rejected
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
