// AngelaMos | 2026
// handler.go

package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
)

const checkTimeout = 2 * time.Second

// Checker is a named dependency checked by the readiness endpoint.
type Checker interface {
	Name() string
	Ping(ctx context.Context) error
}

// Dependency marks whether the service can take traffic without it. The
// database is critical; the rate-limit store and the event broker are not,
// since both have a degraded path.
type Dependency struct {
	Checker
	Critical bool
}

func Critical(c Checker) Dependency { return Dependency{Checker: c, Critical: true} }

func Optional(c Checker) Dependency { return Dependency{Checker: c} }

type Handler struct {
	deps     []Dependency
	draining atomic.Bool
}

func NewHandler(deps ...Dependency) *Handler {
	return &Handler{deps: deps}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Liveness)
	r.Get("/livez", h.Liveness)
	r.Get("/readyz", h.Readiness)
}

func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	if h.draining.Load() {
		writeStatus(w, http.StatusServiceUnavailable, StatusResponse{Status: StatusShuttingDown})
		return
	}
	writeStatus(w, http.StatusOK, StatusResponse{Status: StatusOK})
}

// Readiness answers 503 only when a critical dependency is down. A failing
// optional dependency reports degraded with 200 so the pod stays in
// rotation.
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.draining.Load() {
		writeStatus(w, http.StatusServiceUnavailable, StatusResponse{Status: StatusShuttingDown})
		return
	}

	result := h.report(r.Context())

	code := http.StatusOK
	if result.Status == StatusUnavailable {
		code = http.StatusServiceUnavailable
	}
	writeStatus(w, code, result)
}

func (h *Handler) report(ctx context.Context) ReadinessResponse {
	checks := make([]HealthCheck, len(h.deps))

	var wg sync.WaitGroup
	for i, dep := range h.deps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			checks[i] = ping(ctx, dep)
		}()
	}
	wg.Wait()

	status := StatusOK
	for _, c := range checks {
		if c.Healthy {
			continue
		}
		if c.Critical {
			status = StatusUnavailable
			break
		}
		status = StatusDegraded
	}

	return ReadinessResponse{Status: status, Checks: checks}
}

func ping(ctx context.Context, dep Dependency) HealthCheck {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := dep.Ping(ctx)

	check := HealthCheck{
		Name:     dep.Name(),
		Critical: dep.Critical,
		Healthy:  err == nil,
		Latency:  time.Since(start).Round(time.Microsecond).String(),
	}
	if err != nil {
		check.Message = "unreachable"
	}
	return check
}

// SetShutdown fails liveness and readiness so the load balancer drains
// this instance.
func (h *Handler) SetShutdown(shutdown bool) {
	h.draining.Store(shutdown)
}

func writeStatus(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

const (
	StatusOK           = "ok"
	StatusDegraded     = "degraded"
	StatusUnavailable  = "unavailable"
	StatusShuttingDown = "shutting_down"
)

type StatusResponse struct {
	Status string `json:"status"`
}

type ReadinessResponse struct {
	Status string        `json:"status"`
	Checks []HealthCheck `json:"checks"`
}

type HealthCheck struct {
	Name     string `json:"name"`
	Critical bool   `json:"critical"`
	Healthy  bool   `json:"healthy"`
	Latency  string `json:"latency,omitempty"`
	Message  string `json:"message,omitempty"`
}
