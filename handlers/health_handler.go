package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/upb/thesis-workflow/services/activity"
	"github.com/upb/thesis-workflow/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ActivityStats reports the state of the activity logger
type ActivityStats interface {
	GetStats() activity.Stats
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db       *sql.DB
	activity ActivityStats
	logger   *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. db and stats may be nil.
func NewHealthHandler(db *sql.DB, stats ActivityStats, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:       db,
		activity: stats,
		logger:   logger,
	}
}

// HandleHealth handles GET /healthz
// Liveness only: 200 whenever the process can serve requests
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz
// Readiness check - validates that all dependencies are available
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if err := h.checkDatabase(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		checks["database"] = "unhealthy"
		allHealthy = false
	} else {
		checks["database"] = "healthy"
	}

	if h.activity != nil {
		stats := h.activity.GetStats()
		switch {
		case !stats.Started:
			checks["activity_log"] = "stopped"
			allHealthy = false
		case stats.PendingEntries >= stats.BufferSize:
			// entries are being dropped, but requests still succeed
			checks["activity_log"] = "saturated"
		default:
			checks["activity_log"] = "healthy"
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

// checkDatabase pings the database and runs a trivial query
func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return nil
	}

	if err := h.db.PingContext(ctx); err != nil {
		return err
	}

	var result int
	return h.db.QueryRowContext(ctx, "SELECT 1").Scan(&result)
}
