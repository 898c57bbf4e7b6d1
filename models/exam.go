package models

import (
	"slices"
	"time"
)

// ExamKind distinguishes the proposal seminar from the final defence
type ExamKind string

const (
	ExamProposal ExamKind = "proposal"
	ExamFinal    ExamKind = "final"
)

// ExamStatus is the lifecycle state of an exam
type ExamStatus string

const (
	ExamScheduled ExamStatus = "scheduled"
	ExamGraded    ExamStatus = "graded"
)

// Exam is an ujian scheduled by the head of study program
type Exam struct {
	ID          int64      `json:"id" db:"id"`
	ProposalID  int64      `json:"proposal_id" db:"proposal_id"`
	Kind        ExamKind   `json:"kind" db:"kind"`
	ScheduledAt time.Time  `json:"scheduled_at" db:"scheduled_at"`
	Room        string     `json:"room" db:"room"`
	ExaminerIDs []int64    `json:"examiner_ids" db:"examiner_ids"`
	Score       *float64   `json:"score,omitempty" db:"score"`
	Notes       string     `json:"notes,omitempty" db:"notes"`
	Status      ExamStatus `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Exam model
func (Exam) TableName() string {
	return "exams"
}

// NewExam creates a scheduled exam
func NewExam(proposalID int64, kind ExamKind, at time.Time, room string, examiners []int64) *Exam {
	now := time.Now()
	return &Exam{
		ProposalID:  proposalID,
		Kind:        kind,
		ScheduledAt: at,
		Room:        room,
		ExaminerIDs: examiners,
		Status:      ExamScheduled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// HasExaminer reports whether userID is on the examiner panel
func (e *Exam) HasExaminer(userID int64) bool {
	return slices.Contains(e.ExaminerIDs, userID)
}

// Grade records the final score
func (e *Exam) Grade(score float64, notes string) {
	e.Score = &score
	e.Notes = notes
	e.Status = ExamGraded
	e.UpdatedAt = time.Now()
}
