package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/examshaala/examshaala-portal/internal/common"
)

// HealthCheck probes one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// HealthHandler handles health check requests.
type HealthHandler struct {
	logger *common.Logger
	checks map[string]HealthCheck
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(logger *common.Logger) *HealthHandler {
	return &HealthHandler{logger: logger, checks: make(map[string]HealthCheck)}
}

// AddCheck registers a dependency probe reported under name.
func (h *HealthHandler) AddCheck(name string, check HealthCheck) {
	h.checks[name] = check
}

// ServeHTTP handles GET /api/health. Any failing check reports "degraded"
// with 503.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	if len(h.checks) == 0 {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	code := http.StatusOK
	deps := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			deps[name] = "down"
			status = "degraded"
			code = http.StatusServiceUnavailable
			if h.logger != nil {
				h.logger.Warn().Str("check", name).Err(err).Msg("health check failed")
			}
			continue
		}
		deps[name] = "ok"
	}

	WriteJSON(w, code, map[string]interface{}{
		"status":       status,
		"dependencies": deps,
	})
}
