package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/saadjs/kcal-sync/internal/httputil"
	"github.com/saadjs/kcal-sync/internal/model"
	"github.com/saadjs/kcal-sync/internal/service"
	"go.uber.org/zap"
)

type MealLine struct {
	Meal     model.MealType `json:"meal"`
	Calories int            `json:"calories"`
	Budget   int            `json:"budget"`
}

type DayResponse struct {
	service.DayLedger
	Successful bool       `json:"successful"`
	Remaining  int        `json:"remaining"`
	Meals      []MealLine `json:"meals"`
}

type WeekResponse struct {
	Start      string                           `json:"start"`
	Summary    service.WeekSummary              `json:"summary"`
	Calories   [service.DaysPerWeek]int         `json:"calories"`
	Macros     service.MacroSeries              `json:"macros"`
	MacroShare service.MacroShare               `json:"macro_share"`
	Trend      service.WeightTrend              `json:"weight_trend"`
	Perfect    bool                             `json:"perfect"`
	Days       [service.DaysPerWeek]DayResponse `json:"days"`
}

type StreakResponse struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

type PerfectWeeksResponse struct {
	Count int `json:"count"`
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) GetDay(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	day := chi.URLParam(r, "day")
	if _, err := service.ParseDayID(day); err != nil {
		logger.Warn("get day: invalid day", zap.String("day", day))
		s.writeError(w, err, "invalid day")
		return
	}
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, dayResponse(snap, snap.Ledger(day)))
}

func (s *Server) GetWeek(w http.ResponseWriter, r *http.Request) {
	anchor, err := service.ParseDayID(chi.URLParam(r, "day"))
	if err != nil {
		s.writeError(w, err, "invalid day")
		return
	}
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	week := snap.Week(anchor)
	resp := WeekResponse{
		Start:      service.DayID(week.Start),
		Summary:    week.Summary(),
		Calories:   week.CalorieSeries(),
		Macros:     week.MacroSeries(),
		MacroShare: week.MacroShare(),
		Trend:      week.WeightTrend(),
		Perfect:    week.Perfect(),
	}
	for i, d := range week.Days {
		resp.Days[i] = dayResponse(snap, d)
	}
	httputil.WriteJSONResponse(w, http.StatusOK, resp)
}

func (s *Server) GetStreak(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	now := s.now()
	httputil.WriteJSONResponse(w, http.StatusOK, StreakResponse{
		Current: snap.CurrentStreak(now),
		Longest: snap.LongestStreak(now),
	})
}

func (s *Server) GetPerfectWeeks(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, PerfectWeeksResponse{Count: snap.PerfectWeeks(s.now())})
}

func (s *Server) GetWeightTrend(w http.ResponseWriter, r *http.Request) {
	anchor := s.now()
	if v := strings.TrimSpace(r.URL.Query().Get("anchor")); v != "" {
		t, err := service.ParseDayID(v)
		if err != nil {
			s.writeError(w, err, "invalid anchor")
			return
		}
		anchor = t
	}
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, snap.Week(anchor).WeightTrend())
}

func (s *Server) GetWeightChange(w http.ResponseWriter, r *http.Request) {
	days := service.DefaultWeightChangeDays
	if v := strings.TrimSpace(r.URL.Query().Get("days")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, model.ErrInvalid, "days must be a positive integer")
			return
		}
		days = n
	}
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, snap.WeightChange(s.now(), days))
}

func (s *Server) PostSync(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	user := chi.URLParam(r, "user")
	report, err := s.engine.Sync(r.Context(), user)
	if err != nil {
		logger.Error("sync failed", zap.String("user_id", user), zap.Error(err))
		s.writeError(w, err, "sync failed")
		return
	}
	logger.Info("sync done", zap.String("user_id", user), zap.Int("exercise_writes", report.ExerciseWrites), zap.Int("weight_writes", report.WeightWrites))
	httputil.WriteJSONResponse(w, http.StatusOK, report)
}

func (s *Server) GetLastSync(w http.ResponseWriter, r *http.Request) {
	report, ok := s.engine.LastReport(chi.URLParam(r, "user"))
	if !ok {
		httputil.WriteErrorResponse(w, http.StatusNotFound, "no completed sync", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, report)
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (*service.Snapshot, bool) {
	user := chi.URLParam(r, "user")
	snap, err := s.engine.Snapshot(r.Context(), user)
	if err != nil {
		GetLoggerFromCtx(r.Context()).Error("load snapshot failed", zap.String("user_id", user), zap.Error(err))
		s.writeError(w, err, "failed to load data")
		return nil, false
	}
	return snap, true
}

func (s *Server) writeError(w http.ResponseWriter, err error, message string) {
	var syncErr *service.SyncError
	switch {
	case errors.Is(err, model.ErrInvalid):
		httputil.WriteErrorResponse(w, http.StatusBadRequest, message, err)
	case errors.Is(err, model.ErrNotFound):
		httputil.WriteErrorResponse(w, http.StatusNotFound, message, err)
	case errors.As(err, &syncErr):
		httputil.WriteErrorResponse(w, http.StatusBadGateway, message, err)
	default:
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, message, nil)
	}
}

func dayResponse(snap *service.Snapshot, l service.DayLedger) DayResponse {
	resp := DayResponse{
		DayLedger:  l,
		Successful: l.Successful(),
		Remaining:  l.Remaining(),
		Meals:      make([]MealLine, 0, len(model.MealTypes)),
	}
	for _, m := range model.MealTypes {
		resp.Meals = append(resp.Meals, MealLine{
			Meal:     m,
			Calories: l.MealCalories(m),
			Budget:   service.MealAllocation(snap.Profile.MealAllocations, m, l.Budget),
		})
	}
	return resp
}
