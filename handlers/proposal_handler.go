package handlers

import (
	"context"
	"net/http"

	"github.com/upb/thesis-workflow/internal/policy"
	"github.com/upb/thesis-workflow/middleware"
	"github.com/upb/thesis-workflow/models"
	"github.com/upb/thesis-workflow/services"
	"github.com/upb/thesis-workflow/utils"
	"go.uber.org/zap"
)

// ProposalService is the part of services.ProposalService the handler uses
type ProposalService interface {
	Submit(ctx context.Context, actor policy.Identity, in services.SubmitProposalInput) (*models.Proposal, error)
	ListMine(ctx context.Context, actor policy.Identity) ([]*models.Proposal, error)
	List(ctx context.Context, actor policy.Identity, limit, offset int) ([]*models.Proposal, error)
	Review(ctx context.Context, actor policy.Identity, id int64, in services.ReviewInput) (*models.Proposal, error)
	AssignAdvisor(ctx context.Context, actor policy.Identity, id, advisorID int64) (*models.Proposal, error)
}

// ReviewRequest is the body of PUT /proposals/{id}/review
type ReviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected revision"`
	Notes    string `json:"notes" validate:"max=2000"`
}

// AssignAdvisorRequest is the body of PUT /proposals/{id}/advisor
type AssignAdvisorRequest struct {
	AdvisorID int64 `json:"advisor_id" validate:"required,gt=0"`
}

// ProposalHandler handles thesis proposal requests
type ProposalHandler struct {
	service ProposalService
	logger  *zap.Logger
}

// NewProposalHandler creates a new ProposalHandler
func NewProposalHandler(service ProposalService, logger *zap.Logger) *ProposalHandler {
	return &ProposalHandler{
		service: service,
		logger:  logger,
	}
}

// HandleSubmit handles POST /api/v1/proposals (multipart: title, abstract, file)
func (h *ProposalHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	env := middleware.GetUploadFromContext(r.Context())
	if env == nil {
		_ = utils.WriteBadRequest(w, "multipart/form-data body required", nil)
		return
	}

	p, err := h.service.Submit(serviceContext(r), actor, services.SubmitProposalInput{
		Title:    env.Field("title"),
		Abstract: env.Field("abstract"),
		File:     env.File,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeCreated(w, p, h.logger)
}

// HandleListMine handles GET /api/v1/proposals/mine
func (h *ProposalHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	proposals, err := h.service.ListMine(r.Context(), actor)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeOK(w, proposals, h.logger)
}

// HandleList handles GET /api/v1/proposals
func (h *ProposalHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	limit, offset := pagination(r)
	proposals, err := h.service.List(r.Context(), actor, limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeOK(w, proposals, h.logger)
}

// HandleReview handles PUT /api/v1/proposals/{id}/review
func (h *ProposalHandler) HandleReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	var req ReviewRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	p, err := h.service.Review(serviceContext(r), actor, id, services.ReviewInput{
		Decision: req.Decision,
		Notes:    req.Notes,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeOK(w, p, h.logger)
}

// HandleAssignAdvisor handles PUT /api/v1/proposals/{id}/advisor
func (h *ProposalHandler) HandleAssignAdvisor(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	var req AssignAdvisorRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	p, err := h.service.AssignAdvisor(serviceContext(r), actor, id, req.AdvisorID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeOK(w, p, h.logger)
}
