package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/upb/thesis-workflow/internal/policy"
	"github.com/upb/thesis-workflow/internal/upload"
	"github.com/upb/thesis-workflow/models"
	"github.com/upb/thesis-workflow/repositories"
	"github.com/upb/thesis-workflow/services/storage"
	"github.com/upb/thesis-workflow/utils"
	"go.uber.org/zap"
)

// SubmitGuidanceInput holds a bimbingan session report. ProposalID may be
// zero, in which case the student's approved proposal is used.
type SubmitGuidanceInput struct {
	ProposalID int64
	Topic      string
	Notes      string
	File       *upload.File
}

// GuidanceService manages bimbingan sessions between students and advisors
type GuidanceService struct {
	guidances repositories.GuidanceRepository
	proposals repositories.ProposalRepository
	store     storage.FileStore
	effects   *Effects
	logger    *zap.Logger
}

// NewGuidanceService creates a new GuidanceService
func NewGuidanceService(
	guidances repositories.GuidanceRepository,
	proposals repositories.ProposalRepository,
	store storage.FileStore,
	effects *Effects,
	logger *zap.Logger,
) *GuidanceService {
	return &GuidanceService{
		guidances: guidances,
		proposals: proposals,
		store:     store,
		effects:   effects,
		logger:    logger,
	}
}

// Submit records a session against an approved proposal that has an advisor
func (s *GuidanceService) Submit(ctx context.Context, actor policy.Identity, in SubmitGuidanceInput) (*models.Guidance, error) {
	topic := strings.TrimSpace(in.Topic)
	if err := utils.ValidateStringLength(topic, "topic", 1, 255); err != nil {
		return nil, NewDomainError(ErrorTypeValidation, err.Error(), err)
	}

	p, err := s.resolveProposal(ctx, actor, in.ProposalID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.ProposalApproved {
		return nil, ErrProposalNotApproved
	}
	if p.AdvisorID == nil {
		return nil, ErrNoAdvisorAssigned
	}

	g := models.NewGuidance(p, topic, strings.TrimSpace(in.Notes))

	if in.File != nil && in.File.Size() > 0 {
		contentType, err := documentType(in.File)
		if err != nil {
			return nil, err
		}
		name := storage.ObjectName(fmt.Sprintf("guidances/%d", actor.ID), in.File.OriginalName)
		obj, err := s.store.Put(ctx, name, contentType, in.File.Reader())
		if err != nil {
			s.logger.Error("failed to store guidance document",
				zap.Error(err),
				zap.Int64("student_id", actor.ID))
			return nil, WrapExternal(ErrStorageUnavailable.Message, err)
		}
		g.FileURL = obj.URL
	}

	if err := s.guidances.Create(ctx, g); err != nil {
		return nil, FromRepository(err, ErrGuidanceNotFound)
	}

	s.effects.Record(ctx, models.NewActivityLog(actor, models.ActivityGuidanceSubmit, "guidance").
		WithResource(g.ID).
		WithDetails(map[string]interface{}{"proposal_id": p.ID, "topic": g.Topic}))

	s.logger.Info("guidance submitted",
		zap.Int64("guidance_id", g.ID),
		zap.Int64("proposal_id", p.ID),
		zap.Int64("student_id", actor.ID))

	return g, nil
}

// resolveProposal loads the proposal a session belongs to and checks ownership
func (s *GuidanceService) resolveProposal(ctx context.Context, actor policy.Identity, proposalID int64) (*models.Proposal, error) {
	if proposalID > 0 {
		p, err := s.proposals.GetByID(ctx, proposalID)
		if err != nil {
			return nil, FromRepository(err, ErrProposalNotFound)
		}
		if p.StudentID != actor.ID {
			return nil, NewDomainError(ErrorTypeForbidden, "proposal belongs to another student", nil)
		}
		return p, nil
	}

	proposals, err := s.proposals.ListByStudent(ctx, actor.ID)
	if err != nil {
		return nil, FromRepository(err, ErrProposalNotFound)
	}
	for _, p := range proposals {
		if p.Status == models.ProposalApproved {
			return p, nil
		}
	}
	return nil, ErrProposalNotApproved
}

// ListMine returns the caller's own sessions
func (s *GuidanceService) ListMine(ctx context.Context, actor policy.Identity) ([]*models.Guidance, error) {
	guidances, err := s.guidances.ListByStudent(ctx, actor.ID)
	if err != nil {
		return nil, FromRepository(err, ErrGuidanceNotFound)
	}
	return guidances, nil
}

// ListForAdvisor returns the sessions of the caller's advisees
func (s *GuidanceService) ListForAdvisor(ctx context.Context, actor policy.Identity) ([]*models.Guidance, error) {
	guidances, err := s.guidances.ListByAdvisor(ctx, actor.ID)
	if err != nil {
		return nil, FromRepository(err, ErrGuidanceNotFound)
	}
	return guidances, nil
}

// Feedback lets the advisor respond to a session once
func (s *GuidanceService) Feedback(ctx context.Context, actor policy.Identity, id int64, feedback string) (*models.Guidance, error) {
	feedback = strings.TrimSpace(feedback)
	if err := utils.ValidateRequired(feedback, "feedback"); err != nil {
		return nil, NewDomainError(ErrorTypeValidation, err.Error(), err)
	}

	g, err := s.guidances.GetByID(ctx, id)
	if err != nil {
		return nil, FromRepository(err, ErrGuidanceNotFound)
	}
	if actor.Role != policy.RoleAdmin && g.AdvisorID != actor.ID {
		return nil, ErrNotAdvisor
	}
	if g.Status == models.GuidanceReviewed {
		return nil, ErrAlreadyReviewed
	}

	g.GiveFeedback(feedback)
	if err := s.guidances.Update(ctx, g); err != nil {
		if errors.Is(err, repositories.ErrStaleState) {
			return nil, ErrAlreadyReviewed
		}
		return nil, FromRepository(err, ErrGuidanceNotFound)
	}

	s.effects.Record(ctx, models.NewActivityLog(actor, models.ActivityGuidanceFeedback, "guidance").WithResource(g.ID))
	s.logger.Info("guidance feedback given",
		zap.Int64("guidance_id", g.ID),
		zap.Int64("advisor_id", actor.ID))

	return g, nil
}
