package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"go-todo-api/internal/model"
)

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	checks  map[string]HealthCheck
	timeout time.Duration
}

func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := model.HealthStatus{
		Ping:                 "pong",
		Message:              "application is healthy",
		IsApplicationHealthy: true,
		Dependencies:         make(map[string]string, len(names)),
	}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			status.Dependencies[name] = "unavailable"
			status.IsApplicationHealthy = false
			continue
		}
		status.Dependencies[name] = "ok"
	}

	code := http.StatusOK
	if !status.IsApplicationHealthy {
		status.Message = "application is unhealthy"
		code = http.StatusServiceUnavailable
	}
	writeSuccess(w, code, status, nil)
}
