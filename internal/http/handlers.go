package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/marko-jovanovic/repolist-service/internal/client"
	"github.com/marko-jovanovic/repolist-service/internal/lifecycle"
	"github.com/marko-jovanovic/repolist-service/internal/service"
	"github.com/marko-jovanovic/repolist-service/internal/viewmodel"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	repoService *service.RepoService
	client      client.RepoClient
	logger      *zap.Logger

	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(repoService *service.RepoService, client client.RepoClient, logger *zap.Logger) *Handler {
	return &Handler{
		repoService: repoService,
		client:      client,
		logger:      logger,
	}
}

// repoListResponse is the success payload for GET /repositories.
type repoListResponse struct {
	Status       string          `json:"status"`
	Count        int             `json:"count"`
	Repositories []viewmodel.Row `json:"repositories"`
}

// GetRepositories handles GET /repositories. Each request owns one view
// model instance: created loading, started, awaited, rendered, closed.
func (h *Handler) GetRepositories(w http.ResponseWriter, r *http.Request) {
	vm := viewmodel.New(h.repoService.FetchTopRepositories)
	vm.Start(r.Context())
	defer vm.Close()

	if err := vm.Wait(r.Context()); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "FETCH_ABORTED", "repository fetch did not complete")
		if logger := loggerFromRequest(r); logger != nil {
			logger.Debug("view model wait aborted", zap.Error(err))
		}
		return
	}

	projection := vm.Render()
	if projection.Phase == viewmodel.PhaseError {
		writeError(w, r, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", projection.Message)
		if logger := loggerFromRequest(r); logger != nil {
			logger.Debug("upstream error", zap.String("message", projection.Message))
		}
		return
	}

	rows := projection.Rows
	if rows == nil {
		rows = []viewmodel.Row{}
	}
	writeJSON(w, http.StatusOK, repoListResponse{
		Status:       projection.Phase.String(),
		Count:        len(rows),
		Repositories: rows,
	})
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus(r.Context())

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := make(map[string]string)
	if result.status == "degraded" {
		checks["githubApi"] = "unhealthy"
	} else {
		checks["githubApi"] = "healthy"
	}
	resp := map[string]interface{}{
		"status":    result.status,
		"service":   "repolist-service",
		"version":   "dev",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

// computeHealthStatus evaluates health conditions in priority order:
// shutting-down > upstream unreachable > healthy.
func (h *Handler) computeHealthStatus(ctx context.Context) healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if err := h.client.ValidateEndpoint(ctx); err != nil {
		reason := "upstream_unreachable"
		if errors.Is(err, client.ErrRateLimited) {
			reason = "upstream_rate_limited"
		}
		return healthResult{"degraded", http.StatusServiceUnavailable, reason}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code,
// message, and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value("correlation_id"); v != nil {
		corrID = v.(string)
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}

// loggerFromRequest extracts the request-scoped logger placed in context by
// CorrelationIDMiddleware. Returns nil when absent.
func loggerFromRequest(r *http.Request) *zap.Logger {
	if logger, ok := r.Context().Value("logger").(*zap.Logger); ok {
		return logger
	}
	return nil
}
