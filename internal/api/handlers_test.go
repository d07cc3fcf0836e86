package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/saadjs/kcal-sync/internal/api"
	"github.com/saadjs/kcal-sync/internal/httputil"
	"github.com/saadjs/kcal-sync/internal/model"
	"github.com/saadjs/kcal-sync/internal/service"
	"github.com/saadjs/kcal-sync/internal/service/servicetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func localDay(day string, hour int) time.Time {
	t, err := time.ParseInLocation(model.DayLayout, day, time.Local)
	if err != nil {
		panic(err)
	}
	return t.Add(time.Duration(hour) * time.Hour)
}

var now = localDay("2024-03-10", 12)

func newTestServer(t *testing.T, src service.HealthSource) (*api.Server, *servicetest.Store) {
	t.Helper()
	st := servicetest.NewStore()
	ctx := context.Background()
	require.NoError(t, st.UpsertFoodEntries(ctx, "u1", []model.FoodEntry{
		{ID: "e1", Name: "oats", Calories: 400, ConsumedAt: localDay("2024-03-09", 8), Meal: model.MealBreakfast},
		{ID: "e2", Name: "pasta", Calories: 900, ConsumedAt: localDay("2024-03-10", 19), Meal: model.MealDinner},
		{ID: "e3", Name: "apple", Calories: 100, ConsumedAt: localDay("2024-03-10", 15), Meal: model.MealSnacks},
	}))
	require.NoError(t, st.UpsertWeightSamples(ctx, "u1", []model.WeightSample{
		{ID: "w1", WeightKg: 81, MeasuredAt: localDay("2024-02-05", 7)},
		{ID: "w2", WeightKg: 80.5, MeasuredAt: localDay("2024-03-04", 7)},
		{ID: "w3", WeightKg: 80, MeasuredAt: localDay("2024-03-08", 7)},
	}))

	o := service.NewOrchestrator(st, src, service.OrchestratorOptions{
		Logger: zap.NewNop(),
		Now:    servicetest.Clock(now),
	})
	return api.New(api.Options{Engine: o, Logger: zap.NewNop(), Now: servicetest.Clock(now)}), st
}

func do(t *testing.T, s http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	s.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, sonic.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

func TestGetDay(t *testing.T) {
	s, _ := newTestServer(t, nil)

	testCases := []struct {
		Desc       string
		Path       string
		WantStatus int
	}{
		{Desc: "day with entries", Path: "/api/v1/users/u1/days/2024-03-10", WantStatus: http.StatusOK},
		{Desc: "empty day", Path: "/api/v1/users/u1/days/2024-01-01", WantStatus: http.StatusOK},
		{Desc: "invalid day", Path: "/api/v1/users/u1/days/10-03-2024", WantStatus: http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			rr := do(t, s, http.MethodGet, tc.Path)
			assert.Equal(t, tc.WantStatus, rr.Code)
		})
	}

	var resp api.DayResponse
	decode(t, do(t, s, http.MethodGet, "/api/v1/users/u1/days/2024-03-10"), &resp)
	assert.Equal(t, "2024-03-10", resp.Day)
	assert.Equal(t, 1000, resp.Calories)
	assert.Equal(t, model.DefaultBudget, resp.Budget)
	assert.True(t, resp.Successful)
	assert.Equal(t, model.DefaultBudget-1000, resp.Remaining)
	require.Len(t, resp.Meals, len(model.MealTypes))
	assert.Equal(t, model.MealDinner, resp.Meals[2].Meal)
	assert.Equal(t, 900, resp.Meals[2].Calories)

	var bad httputil.ErrorResponse
	decode(t, do(t, s, http.MethodGet, "/api/v1/users/u1/days/nope"), &bad)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Equal(t, "invalid day", bad.Message)
}

func TestGetWeek(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rr := do(t, s, http.MethodGet, "/api/v1/users/u1/weeks/2024-03-06")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp api.WeekResponse
	decode(t, rr, &resp)
	assert.Equal(t, "2024-03-04", resp.Start)
	assert.Equal(t, 400, resp.Calories[5])
	assert.Equal(t, 1000, resp.Calories[6])
	assert.Equal(t, 2, resp.Summary.DaysWithEntries)
	assert.Equal(t, "2024-03-09", resp.Days[5].Day)
	assert.False(t, resp.Perfect)
	assert.True(t, resp.Trend.Available)
	assert.Equal(t, service.TrendLosing, resp.Trend.Direction)
}

func TestGetStreakAndPerfectWeeks(t *testing.T) {
	s, _ := newTestServer(t, nil)

	var streak api.StreakResponse
	decode(t, do(t, s, http.MethodGet, "/api/v1/users/u1/streak"), &streak)
	assert.Equal(t, 2, streak.Current)
	assert.Equal(t, 2, streak.Longest)

	var perfect api.PerfectWeeksResponse
	decode(t, do(t, s, http.MethodGet, "/api/v1/users/u1/perfect-weeks"), &perfect)
	assert.Equal(t, 0, perfect.Count)
}

func TestGetWeight(t *testing.T) {
	s, _ := newTestServer(t, nil)

	var trend service.WeightTrend
	decode(t, do(t, s, http.MethodGet, "/api/v1/users/u1/weight/trend?anchor=2024-03-05"), &trend)
	assert.True(t, trend.Available)
	assert.Equal(t, 2, trend.Points)

	var change service.WeightChange
	decode(t, do(t, s, http.MethodGet, "/api/v1/users/u1/weight/change?days=30"), &change)
	require.True(t, change.Available)
	assert.InDelta(t, -1.0, change.DeltaKg, 1e-9)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/v1/users/u1/weight/change?days=-3").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/v1/users/u1/weight/trend?anchor=x").Code)
}

func TestPostSync(t *testing.T) {
	src := &servicetest.Source{
		Exercise: []model.RawExerciseSample{{Kind: model.SampleActive, Value: 250, At: localDay("2024-03-10", 9)}},
	}
	s, st := newTestServer(t, src)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/v1/users/u1/sync/last").Code)

	rr := do(t, s, http.MethodPost, "/api/v1/users/u1/sync")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var report service.SyncReport
	decode(t, rr, &report)
	assert.Equal(t, 1, report.ExerciseWrites)
	assert.Equal(t, 1, st.ExerciseUpserts)

	var last service.SyncReport
	decode(t, do(t, s, http.MethodGet, "/api/v1/users/u1/sync/last"), &last)
	assert.Equal(t, "u1", last.UserID)

	var day api.DayResponse
	decode(t, do(t, s, http.MethodGet, "/api/v1/users/u1/days/2024-03-10"), &day)
	require.NotNil(t, day.Exercise)
	assert.Equal(t, model.DefaultBudget+250-1000, day.Remaining)
}

func TestReadsAfterSyncSeeOutsideWeightEdits(t *testing.T) {
	s, st := newTestServer(t, &servicetest.Source{})
	ctx := context.Background()

	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/v1/users/u1/sync").Code)

	require.NoError(t, st.DeleteWeightSample(ctx, "u1", "w3"))
	require.NoError(t, st.UpsertWeightSamples(ctx, "u1", []model.WeightSample{
		{ID: "w4", WeightKg: 79, MeasuredAt: localDay("2024-03-10", 7)},
	}))

	var removed api.DayResponse
	decode(t, do(t, s, http.MethodGet, "/api/v1/users/u1/days/2024-03-08"), &removed)
	assert.Nil(t, removed.Weight)

	var added api.DayResponse
	decode(t, do(t, s, http.MethodGet, "/api/v1/users/u1/days/2024-03-10"), &added)
	require.NotNil(t, added.Weight)
	assert.Equal(t, "w4", added.Weight.ID)

	var change service.WeightChange
	decode(t, do(t, s, http.MethodGet, "/api/v1/users/u1/weight/change?days=30"), &change)
	require.True(t, change.Available)
	assert.InDelta(t, -2.0, change.DeltaKg, 1e-9)
}

func TestPostSyncFailureIsBadGateway(t *testing.T) {
	s, _ := newTestServer(t, &servicetest.Source{Err: errors.New("upstream unavailable")})

	rr := do(t, s, http.MethodPost, "/api/v1/users/u1/sync")
	assert.Equal(t, http.StatusBadGateway, rr.Code)

	var resp httputil.ErrorResponse
	decode(t, rr, &resp)
	assert.Equal(t, "sync failed", resp.Message)
	assert.Contains(t, resp.Details, "upstream unavailable")
}

type brokenEngine struct{}

func (brokenEngine) Snapshot(context.Context, string) (*service.Snapshot, error) {
	return nil, errors.New("database is locked")
}

func (brokenEngine) Sync(context.Context, string) (*service.SyncReport, error) {
	return nil, errors.New("database is locked")
}

func (brokenEngine) LastReport(string) (service.SyncReport, bool) {
	return service.SyncReport{}, false
}

func TestInternalErrorsHideDetails(t *testing.T) {
	s := api.New(api.Options{Engine: brokenEngine{}})

	rr := do(t, s, http.MethodGet, "/api/v1/users/u1/streak")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var resp httputil.ErrorResponse
	decode(t, rr, &resp)
	assert.Empty(t, resp.Details)
}

func TestRequestIDHeader(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rr := do(t, s, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(api.RequestIDHeader))

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(api.RequestIDHeader, "req-42")
	s.ServeHTTP(rr, req)
	assert.Equal(t, "req-42", rr.Header().Get(api.RequestIDHeader))
}
