package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/upb/thesis-workflow/models"
	"github.com/upb/thesis-workflow/utils"
	"go.uber.org/zap"
)

// ActivityLister reads the activity trail
type ActivityLister interface {
	List(ctx context.Context, userID int64, limit, offset int) ([]*models.ActivityLog, error)
}

// ActivityHandler exposes the activity trail to administrators
type ActivityHandler struct {
	lister ActivityLister
	logger *zap.Logger
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(lister ActivityLister, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		lister: lister,
		logger: logger,
	}
}

// HandleList handles GET /api/v1/activity?user_id=&limit=&offset=
func (h *ActivityHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	var userID int64
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			_ = utils.WriteBadRequest(w, "invalid user_id", nil)
			return
		}
		userID = id
	}

	limit, offset := pagination(r)
	logs, err := h.lister.List(r.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("failed to list activity", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "An internal error occurred")
		return
	}

	writeOK(w, logs, h.logger)
}
