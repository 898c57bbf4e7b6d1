package models

import "time"

// GuidanceStatus tracks whether the advisor has answered a session
type GuidanceStatus string

const (
	GuidanceSubmitted GuidanceStatus = "submitted"
	GuidanceReviewed  GuidanceStatus = "reviewed"
)

// Guidance is a single bimbingan session logged by a student
type Guidance struct {
	ID         int64          `json:"id" db:"id"`
	ProposalID int64          `json:"proposal_id" db:"proposal_id"`
	StudentID  int64          `json:"student_id" db:"student_id"`
	AdvisorID  int64          `json:"advisor_id" db:"advisor_id"`
	Topic      string         `json:"topic" db:"topic"`
	Notes      string         `json:"notes" db:"notes"`
	FileURL    string         `json:"file_url,omitempty" db:"file_url"`
	Feedback   string         `json:"feedback,omitempty" db:"feedback"`
	Status     GuidanceStatus `json:"status" db:"status"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Guidance model
func (Guidance) TableName() string {
	return "guidances"
}

// NewGuidance creates a submitted session for an approved proposal
func NewGuidance(p *Proposal, topic, notes string) *Guidance {
	now := time.Now()
	g := &Guidance{
		ProposalID: p.ID,
		StudentID:  p.StudentID,
		Topic:      topic,
		Notes:      notes,
		Status:     GuidanceSubmitted,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if p.AdvisorID != nil {
		g.AdvisorID = *p.AdvisorID
	}
	return g
}

// GiveFeedback stores the advisor's answer
func (g *Guidance) GiveFeedback(feedback string) {
	g.Feedback = feedback
	g.Status = GuidanceReviewed
	g.UpdatedAt = time.Now()
}
