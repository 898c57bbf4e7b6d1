package models

import "time"

// ProposalStatus is the review state of a thesis proposal
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalApproved ProposalStatus = "approved"
	ProposalRejected ProposalStatus = "rejected"
	ProposalRevision ProposalStatus = "revision"
)

// ReviewDecisions lists the statuses a reviewer may set
var ReviewDecisions = []string{
	string(ProposalApproved),
	string(ProposalRejected),
	string(ProposalRevision),
}

// Proposal is a thesis proposal (pengajuan judul) submitted by a student
type Proposal struct {
	ID          int64          `json:"id" db:"id"`
	StudentID   int64          `json:"student_id" db:"student_id"`
	AdvisorID   *int64         `json:"advisor_id,omitempty" db:"advisor_id"`
	Title       string         `json:"title" db:"title"`
	Abstract    string         `json:"abstract" db:"abstract"`
	FileURL     string         `json:"file_url" db:"file_url"`
	FileName    string         `json:"file_name" db:"file_name"`
	Status      ProposalStatus `json:"status" db:"status"`
	ReviewNotes string         `json:"review_notes,omitempty" db:"review_notes"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Proposal model
func (Proposal) TableName() string {
	return "proposals"
}

// NewProposal creates a pending proposal
func NewProposal(studentID int64, title, abstract string) *Proposal {
	now := time.Now()
	return &Proposal{
		StudentID: studentID,
		Title:     title,
		Abstract:  abstract,
		Status:    ProposalPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsAdvisedBy reports whether lecturerID is the assigned advisor
func (p *Proposal) IsAdvisedBy(lecturerID int64) bool {
	return p.AdvisorID != nil && *p.AdvisorID == lecturerID
}

// Review records a reviewer decision
func (p *Proposal) Review(status ProposalStatus, notes string) {
	p.Status = status
	p.ReviewNotes = notes
	p.UpdatedAt = time.Now()
}

// AssignAdvisor sets the advisor of the proposal
func (p *Proposal) AssignAdvisor(advisorID int64) {
	p.AdvisorID = &advisorID
	p.UpdatedAt = time.Now()
}
