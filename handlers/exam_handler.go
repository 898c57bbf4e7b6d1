package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/thesis-workflow/internal/policy"
	"github.com/upb/thesis-workflow/models"
	"github.com/upb/thesis-workflow/services"
	"github.com/upb/thesis-workflow/utils"
	"go.uber.org/zap"
)

// ExamService is the part of services.ExamService the handler uses
type ExamService interface {
	Schedule(ctx context.Context, actor policy.Identity, in services.ScheduleExamInput) (*models.Exam, error)
	List(ctx context.Context, limit, offset int) ([]*models.Exam, error)
	ListMine(ctx context.Context, actor policy.Identity) ([]*models.Exam, error)
	Grade(ctx context.Context, actor policy.Identity, id int64, score float64, notes string) (*models.Exam, error)
}

// ScheduleExamRequest is the body of POST /exams
type ScheduleExamRequest struct {
	ProposalID  int64     `json:"proposal_id" validate:"required,gt=0"`
	Kind        string    `json:"kind" validate:"required,oneof=proposal final"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Room        string    `json:"room" validate:"required,max=100"`
	ExaminerIDs []int64   `json:"examiner_ids" validate:"required,min=1,dive,gt=0"`
}

// GradeRequest is the body of PUT /exams/{id}/grade
type GradeRequest struct {
	Score *float64 `json:"score" validate:"required,gte=0,lte=100"`
	Notes string   `json:"notes" validate:"max=2000"`
}

// ExamHandler handles exam scheduling and grading
type ExamHandler struct {
	service ExamService
	logger  *zap.Logger
}

// NewExamHandler creates a new ExamHandler
func NewExamHandler(service ExamService, logger *zap.Logger) *ExamHandler {
	return &ExamHandler{
		service: service,
		logger:  logger,
	}
}

// HandleSchedule handles POST /api/v1/exams
func (h *ExamHandler) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req ScheduleExamRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	exam, err := h.service.Schedule(serviceContext(r), actor, services.ScheduleExamInput{
		ProposalID:  req.ProposalID,
		Kind:        req.Kind,
		ScheduledAt: req.ScheduledAt,
		Room:        req.Room,
		ExaminerIDs: req.ExaminerIDs,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeCreated(w, exam, h.logger)
}

// HandleList handles GET /api/v1/exams
func (h *ExamHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	exams, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeOK(w, exams, h.logger)
}

// HandleListMine handles GET /api/v1/exams/mine
func (h *ExamHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	exams, err := h.service.ListMine(r.Context(), actor)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeOK(w, exams, h.logger)
}

// HandleGrade handles PUT /api/v1/exams/{id}/grade
func (h *ExamHandler) HandleGrade(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	var req GradeRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	exam, err := h.service.Grade(serviceContext(r), actor, id, *req.Score, req.Notes)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	writeOK(w, exam, h.logger)
}
