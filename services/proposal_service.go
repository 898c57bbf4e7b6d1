package services

import (
	"context"
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

// SubmitProposalInput holds a new proposal and its document
type SubmitProposalInput struct {
	Title    string
	Abstract string
	File     *upload.File
}

// ReviewInput holds an advisor's decision on a proposal
type ReviewInput struct {
	Decision string
	Notes    string
}

// ProposalService drives thesis proposals from submission to approval
type ProposalService struct {
	proposals repositories.ProposalRepository
	users     repositories.UserRepository
	store     storage.FileStore
	effects   *Effects
	logger    *zap.Logger
}

// NewProposalService creates a new ProposalService
func NewProposalService(
	proposals repositories.ProposalRepository,
	users repositories.UserRepository,
	store storage.FileStore,
	effects *Effects,
	logger *zap.Logger,
) *ProposalService {
	return &ProposalService{
		proposals: proposals,
		users:     users,
		store:     store,
		effects:   effects,
		logger:    logger,
	}
}

// Submit stores the document and records a pending proposal for the student
func (s *ProposalService) Submit(ctx context.Context, actor policy.Identity, in SubmitProposalInput) (*models.Proposal, error) {
	title := strings.TrimSpace(in.Title)
	if err := utils.ValidateStringLength(title, "title", 1, 255); err != nil {
		return nil, NewDomainError(ErrorTypeValidation, err.Error(), err)
	}
	if in.File == nil || in.File.Size() == 0 {
		return nil, ErrFileRequired
	}

	contentType, err := documentType(in.File)
	if err != nil {
		return nil, err
	}

	name := storage.ObjectName(fmt.Sprintf("proposals/%d", actor.ID), in.File.OriginalName)
	obj, err := s.store.Put(ctx, name, contentType, in.File.Reader())
	if err != nil {
		s.logger.Error("failed to store proposal document",
			zap.Error(err),
			zap.Int64("student_id", actor.ID),
			zap.String("object", name))
		return nil, WrapExternal(ErrStorageUnavailable.Message, err)
	}

	p := models.NewProposal(actor.ID, title, strings.TrimSpace(in.Abstract))
	p.FileURL = obj.URL
	p.FileName = in.File.OriginalName

	if err := s.proposals.Create(ctx, p); err != nil {
		return nil, FromRepository(err, ErrProposalNotFound)
	}

	s.effects.Record(ctx, models.NewActivityLog(actor, models.ActivityProposalSubmit, "proposal").
		WithResource(p.ID).
		WithDetails(map[string]string{"title": p.Title, "file_url": p.FileURL}))
	s.effects.Announce(ctx, "New thesis proposal #%d submitted: %q", p.ID, p.Title)

	s.logger.Info("proposal submitted",
		zap.Int64("proposal_id", p.ID),
		zap.Int64("student_id", actor.ID))

	return p, nil
}

// ListMine returns the caller's own proposals
func (s *ProposalService) ListMine(ctx context.Context, actor policy.Identity) ([]*models.Proposal, error) {
	proposals, err := s.proposals.ListByStudent(ctx, actor.ID)
	if err != nil {
		return nil, FromRepository(err, ErrProposalNotFound)
	}
	return proposals, nil
}

// List returns every proposal for admin, kaprodi and koordinator, and the
// advisees' proposals for any other lecturer.
func (s *ProposalService) List(ctx context.Context, actor policy.Identity, limit, offset int) ([]*models.Proposal, error) {
	var (
		proposals []*models.Proposal
		err       error
	)

	switch actor.Role {
	case policy.RoleAdmin, policy.RoleKaprodi, policy.RoleKoordinator:
		limit, offset = normalizePage(limit, offset)
		proposals, err = s.proposals.List(ctx, limit, offset)
	default:
		proposals, err = s.proposals.ListByAdvisor(ctx, actor.ID)
	}
	if err != nil {
		return nil, FromRepository(err, ErrProposalNotFound)
	}
	return proposals, nil
}

// Review records the advisor's decision. Only the assigned advisor, or an
// administrator, may review.
func (s *ProposalService) Review(ctx context.Context, actor policy.Identity, id int64, in ReviewInput) (*models.Proposal, error) {
	if err := utils.ValidateOneOf(in.Decision, "decision", models.ReviewDecisions); err != nil {
		return nil, NewDomainError(ErrorTypeValidation, ErrInvalidDecision.Message, err).
			WithDetail("allowed", models.ReviewDecisions)
	}

	p, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		return nil, FromRepository(err, ErrProposalNotFound)
	}

	if actor.Role != policy.RoleAdmin && !p.IsAdvisedBy(actor.ID) {
		s.logger.Warn("review by non advisor rejected",
			zap.Int64("proposal_id", id),
			zap.Int64("user_id", actor.ID))
		return nil, ErrNotAdvisor
	}

	p.Review(models.ProposalStatus(in.Decision), strings.TrimSpace(in.Notes))
	if err := s.proposals.Update(ctx, p); err != nil {
		return nil, FromRepository(err, ErrProposalNotFound)
	}

	s.effects.Record(ctx, models.NewActivityLog(actor, models.ActivityProposalReviewed, "proposal").
		WithResource(p.ID).
		WithDetails(map[string]string{"decision": in.Decision}))
	s.effects.Announce(ctx, "Proposal #%d %q was reviewed: %s", p.ID, p.Title, in.Decision)

	s.logger.Info("proposal reviewed",
		zap.Int64("proposal_id", p.ID),
		zap.String("decision", in.Decision),
		zap.Int64("reviewer_id", actor.ID))

	return p, nil
}

// AssignAdvisor sets the advisor of a proposal. The advisor must be a lecturer.
func (s *ProposalService) AssignAdvisor(ctx context.Context, actor policy.Identity, id, advisorID int64) (*models.Proposal, error) {
	advisor, err := s.users.GetByID(ctx, advisorID)
	if err != nil {
		return nil, FromRepository(err, ErrUserNotFound)
	}
	if advisor.Role != policy.RoleDosen && advisor.Role != policy.RoleKaprodi {
		return nil, NewDomainError(ErrorTypeValidation, ErrInvalidAdvisor.Message, nil).
			WithDetail("advisor_role", string(advisor.Role))
	}

	p, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		return nil, FromRepository(err, ErrProposalNotFound)
	}

	p.AssignAdvisor(advisor.ID)
	if err := s.proposals.Update(ctx, p); err != nil {
		return nil, FromRepository(err, ErrProposalNotFound)
	}

	s.effects.Record(ctx, models.NewActivityLog(actor, models.ActivityAdvisorAssigned, "proposal").
		WithResource(p.ID).
		WithDetails(map[string]int64{"advisor_id": advisor.ID}))
	s.effects.Announce(ctx, "%s was assigned as advisor for proposal #%d %q", advisor.Name, p.ID, p.Title)

	s.logger.Info("advisor assigned",
		zap.Int64("proposal_id", p.ID),
		zap.Int64("advisor_id", advisor.ID))

	return p, nil
}
