package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/upb/thesis-workflow/internal/policy"
	"github.com/upb/thesis-workflow/middleware"
	"github.com/upb/thesis-workflow/models"
	"github.com/upb/thesis-workflow/services"
	"github.com/upb/thesis-workflow/utils"
	"go.uber.org/zap"
)

// GuidanceService is the part of services.GuidanceService the handler uses
type GuidanceService interface {
	Submit(ctx context.Context, actor policy.Identity, in services.SubmitGuidanceInput) (*models.Guidance, error)
	ListMine(ctx context.Context, actor policy.Identity) ([]*models.Guidance, error)
	ListForAdvisor(ctx context.Context, actor policy.Identity) ([]*models.Guidance, error)
	Feedback(ctx context.Context, actor policy.Identity, id int64, feedback string) (*models.Guidance, error)
}

// SubmitGuidanceRequest is the JSON form of POST /guidances. The multipart
// form carries the same fields plus an optional file.
type SubmitGuidanceRequest struct {
	ProposalID int64  `json:"proposal_id" validate:"gte=0"`
	Topic      string `json:"topic" validate:"required,max=255"`
	Notes      string `json:"notes" validate:"max=5000"`
}

// FeedbackRequest is the body of PUT /guidances/{id}/feedback
type FeedbackRequest struct {
	Feedback string `json:"feedback" validate:"required,max=5000"`
}

// GuidanceHandler handles bimbingan session requests
type GuidanceHandler struct {
	service GuidanceService
	logger  *zap.Logger
}

// NewGuidanceHandler creates a new GuidanceHandler
func NewGuidanceHandler(service GuidanceService, logger *zap.Logger) *GuidanceHandler {
	return &GuidanceHandler{
		service: service,
		logger:  logger,
	}
}

// HandleSubmit handles POST /api/v1/guidances, as multipart or JSON
func (h *GuidanceHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var in services.SubmitGuidanceInput
	if env := middleware.GetUploadFromContext(r.Context()); env != nil {
		if raw := env.Field("proposal_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id < 0 {
				_ = utils.WriteBadRequest(w, "invalid proposal_id", nil)
				return
			}
			in.ProposalID = id
		}
		in.Topic = env.Field("topic")
		in.Notes = env.Field("notes")
		in.File = env.File
	} else {
		var req SubmitGuidanceRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			HandleValidationError(w, err, h.logger)
			return
		}
		in.ProposalID = req.ProposalID
		in.Topic = req.Topic
		in.Notes = req.Notes
	}

	g, err := h.service.Submit(serviceContext(r), actor, in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeCreated(w, g, h.logger)
}

// HandleListMine handles GET /api/v1/guidances/mine
func (h *GuidanceHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	guidances, err := h.service.ListMine(r.Context(), actor)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeOK(w, guidances, h.logger)
}

// HandleList handles GET /api/v1/guidances
func (h *GuidanceHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	guidances, err := h.service.ListForAdvisor(r.Context(), actor)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeOK(w, guidances, h.logger)
}

// HandleFeedback handles PUT /api/v1/guidances/{id}/feedback
func (h *GuidanceHandler) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	var req FeedbackRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	g, err := h.service.Feedback(serviceContext(r), actor, id, req.Feedback)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeOK(w, g, h.logger)
}
