package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/upb/thesis-workflow/internal/policy"
	"github.com/upb/thesis-workflow/models"
	"github.com/upb/thesis-workflow/repositories"
	"github.com/upb/thesis-workflow/utils"
	"go.uber.org/zap"
)

// ScheduleExamInput holds a new exam slot
type ScheduleExamInput struct {
	ProposalID  int64
	Kind        string
	ScheduledAt time.Time
	Room        string
	ExaminerIDs []int64
}

// ExamService schedules and grades proposal and final exams
type ExamService struct {
	exams     repositories.ExamRepository
	proposals repositories.ProposalRepository
	users     repositories.UserRepository
	txManager repositories.TransactionManager
	effects   *Effects
	logger    *zap.Logger
}

// NewExamService creates a new ExamService
func NewExamService(
	exams repositories.ExamRepository,
	proposals repositories.ProposalRepository,
	users repositories.UserRepository,
	txManager repositories.TransactionManager,
	effects *Effects,
	logger *zap.Logger,
) *ExamService {
	return &ExamService{
		exams:     exams,
		proposals: proposals,
		users:     users,
		txManager: txManager,
		effects:   effects,
		logger:    logger,
	}
}

// Schedule creates an exam for an approved proposal. Every examiner must
// hold the penguji role. The checks and the insert share one transaction.
func (s *ExamService) Schedule(ctx context.Context, actor policy.Identity, in ScheduleExamInput) (*models.Exam, error) {
	if err := utils.ValidateOneOf(in.Kind, "kind", []string{string(models.ExamProposal), string(models.ExamFinal)}); err != nil {
		return nil, NewDomainError(ErrorTypeValidation, err.Error(), err)
	}
	if in.ScheduledAt.IsZero() {
		return nil, NewDomainError(ErrorTypeValidation, "scheduled_at is required", nil)
	}
	examiners, err := uniqueExaminers(in.ExaminerIDs)
	if err != nil {
		return nil, err
	}

	exam, err := WithTransactionResult(ctx, s.txManager, func(ctx context.Context, _ repositories.Transaction) (*models.Exam, error) {
		p, err := s.proposals.GetByID(ctx, in.ProposalID)
		if err != nil {
			return nil, FromRepository(err, ErrProposalNotFound)
		}
		if p.Status != models.ProposalApproved {
			return nil, ErrProposalNotApproved
		}

		for _, id := range examiners {
			u, err := s.users.GetByID(ctx, id)
			if err != nil {
				return nil, FromRepository(err, ErrUserNotFound)
			}
			if u.Role != policy.RolePenguji {
				return nil, NewDomainError(ErrorTypeValidation, ErrInvalidExaminer.Message, nil).
					WithDetail("examiner_id", id)
			}
		}

		e := models.NewExam(p.ID, models.ExamKind(in.Kind), in.ScheduledAt, strings.TrimSpace(in.Room), examiners)
		if err := s.exams.Create(ctx, e); err != nil {
			return nil, FromRepository(err, ErrExamNotFound)
		}
		return e, nil
	})
	if err != nil {
		return nil, err
	}

	s.effects.Record(ctx, models.NewActivityLog(actor, models.ActivityExamScheduled, "exam").
		WithResource(exam.ID).
		WithDetails(map[string]interface{}{"proposal_id": exam.ProposalID, "kind": exam.Kind}))
	s.effects.Announce(ctx, "%s exam #%d for proposal #%d scheduled at %s in %s",
		exam.Kind, exam.ID, exam.ProposalID, exam.ScheduledAt.Format(time.RFC1123), exam.Room)

	s.logger.Info("exam scheduled",
		zap.Int64("exam_id", exam.ID),
		zap.Int64("proposal_id", exam.ProposalID),
		zap.Int("examiners", len(exam.ExaminerIDs)))

	return exam, nil
}

func uniqueExaminers(ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, NewDomainError(ErrorTypeValidation, "at least one examiner is required", nil)
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, NewDomainError(ErrorTypeValidation, ErrInvalidExaminer.Message, nil).WithDetail("examiner_id", id)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// List returns scheduled and graded exams, newest first
func (s *ExamService) List(ctx context.Context, limit, offset int) ([]*models.Exam, error) {
	limit, offset = normalizePage(limit, offset)
	exams, err := s.exams.List(ctx, limit, offset)
	if err != nil {
		return nil, FromRepository(err, ErrExamNotFound)
	}
	return exams, nil
}

// ListMine returns the exams the caller sits on as examiner
func (s *ExamService) ListMine(ctx context.Context, actor policy.Identity) ([]*models.Exam, error) {
	exams, err := s.exams.ListByExaminer(ctx, actor.ID)
	if err != nil {
		return nil, FromRepository(err, ErrExamNotFound)
	}
	return exams, nil
}

// Grade records the score of an exam. Only a panel member may grade, once.
func (s *ExamService) Grade(ctx context.Context, actor policy.Identity, id int64, score float64, notes string) (*models.Exam, error) {
	if score < 0 || score > 100 {
		return nil, ErrInvalidScore
	}

	e, err := s.exams.GetByID(ctx, id)
	if err != nil {
		return nil, FromRepository(err, ErrExamNotFound)
	}
	if !e.HasExaminer(actor.ID) {
		return nil, ErrNotExaminer
	}
	if e.Status == models.ExamGraded {
		return nil, ErrAlreadyGraded
	}

	e.Grade(score, strings.TrimSpace(notes))
	if err := s.exams.Update(ctx, e); err != nil {
		if errors.Is(err, repositories.ErrStaleState) {
			s.logger.Warn("exam graded concurrently",
				zap.Int64("exam_id", e.ID),
				zap.Int64("examiner_id", actor.ID))
			return nil, ErrAlreadyGraded
		}
		return nil, FromRepository(err, ErrExamNotFound)
	}

	s.effects.Record(ctx, models.NewActivityLog(actor, models.ActivityExamGraded, "exam").
		WithResource(e.ID).
		WithDetails(map[string]float64{"score": score}))
	s.effects.Announce(ctx, "%s exam #%d for proposal #%d graded: %.1f", e.Kind, e.ID, e.ProposalID, score)

	s.logger.Info("exam graded",
		zap.Int64("exam_id", e.ID),
		zap.Int64("examiner_id", actor.ID))

	return e, nil
}
