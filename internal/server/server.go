// Package server exposes the markdown planner over HTTP so pricing
// tools can request discount schedules without shelling out to the CLI.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/retaillab/markdown-cli/internal/model"
	"github.com/retaillab/markdown-cli/internal/optimize"
	"github.com/retaillab/markdown-cli/internal/simulate"
	"github.com/retaillab/markdown-cli/internal/store"
)

// Server wires the optimizer and the plan store behind an HTTP API.
type Server struct {
	store   store.Store
	limiter *rate.Limiter
}

// New builds a Server. ratePerSec/burst bound how many optimization
// requests the process accepts; each one is CPU-heavy.
func New(st store.Store, ratePerSec float64, burst int) *Server {
	if ratePerSec <= 0 {
		ratePerSec = 5
	}
	if burst <= 0 {
		burst = 10
	}
	return &Server{
		store:   st,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
	}
}

// Router assembles the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.throttle)
		r.Post("/optimize", s.handleOptimize)
		r.Get("/plans", s.handleListPlans)
		r.Get("/plans/{id}", s.handleGetPlan)
	})

	return r
}

func (s *Server) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// OptimizeRequest is the POST /api/optimize body: a fitted model plus
// the scenario to plan for.
type OptimizeRequest struct {
	Coefficients model.ElasticityCoefficients `json:"coefficients"`
	Scenario     model.ScenarioInputs         `json:"scenario"`
	Options      optimize.Options             `json:"options"`
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// mock=1 returns a canned plan without running the solver, so UI
	// integrations can be exercised against a stable payload.
	if r.URL.Query().Get("mock") == "1" {
		writeJSON(w, http.StatusOK, mockPlan(req.Scenario))
		return
	}

	params := simulate.Params{
		Coefficients: req.Coefficients,
		Price:        req.Scenario.Price,
		Horizon:      req.Scenario.Horizon,
		Liquidation:  req.Scenario.Liquidation,
	}
	prob := optimize.Problem{
		Params: params,
		State:  simulate.NewState(req.Scenario),
		Lower:  req.Scenario.LowerBound,
		Upper:  req.Scenario.UpperBound,
	}

	res, err := optimize.Solve(r.Context(), prob, req.Options)
	if err != nil {
		zap.L().Warn("optimize request rejected", zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	status := model.PlanStatusConverged
	if !res.Converged {
		status = model.PlanStatusFailed
	}
	plan := model.Plan{
		Inputs:    req.Scenario,
		Discounts: res.Discounts,
		Revenue:   res.Revenue,
		Status:    status,
		Result:    res.Detail,
	}

	created, err := s.store.CreatePlan(r.Context(), plan)
	if err != nil {
		zap.L().Error("persist plan", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to persist plan")
		return
	}

	zap.L().Info("plan created",
		zap.String("plan_id", created.ID),
		zap.String("status", string(created.Status)),
		zap.Float64("revenue", created.Revenue),
	)
	writeJSON(w, http.StatusOK, created)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	plans, err := s.store.ListPlans(r.Context(), store.PlanFilter{
		Status: model.PlanStatus(q.Get("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		zap.L().Error("list plans", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list plans")
		return
	}
	if plans == nil {
		plans = []model.Plan{}
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "id")

	plan, err := s.store.GetPlan(r.Context(), planID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "plan not found")
			return
		}
		zap.L().Error("get plan", zap.String("plan_id", planID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load plan")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// mockPlan fabricates a deterministic plan for the given scenario. It
// never touches the store.
func mockPlan(in model.ScenarioInputs) model.Plan {
	horizon := in.Horizon
	if horizon <= 0 {
		horizon = 4
	}
	lb, ub := in.LowerBound, in.UpperBound
	if ub <= lb {
		lb, ub = 0.10, 0.60
	}
	return model.Plan{
		ID:        "mock",
		Inputs:    in,
		Discounts: optimize.DefaultGuess(horizon, lb, ub),
		Revenue:   0,
		Status:    model.PlanStatusConverged,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
