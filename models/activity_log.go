package models

import (
	"encoding/json"
	"time"

	"github.com/upb/thesis-workflow/internal/policy"
)

// ActivityAction represents the type of action being recorded
type ActivityAction string

const (
	ActivityLogin            ActivityAction = "login"
	ActivityPasswordChanged  ActivityAction = "password_changed"
	ActivityUserCreated      ActivityAction = "user_created"
	ActivityUserDeleted      ActivityAction = "user_deleted"
	ActivityProposalSubmit   ActivityAction = "proposal_submitted"
	ActivityProposalReviewed ActivityAction = "proposal_reviewed"
	ActivityAdvisorAssigned  ActivityAction = "advisor_assigned"
	ActivityGuidanceSubmit   ActivityAction = "guidance_submitted"
	ActivityGuidanceFeedback ActivityAction = "guidance_feedback"
	ActivityExamScheduled    ActivityAction = "exam_scheduled"
	ActivityExamGraded       ActivityAction = "exam_graded"
)

// ActivityLog is an audit trail entry for a state-changing request
type ActivityLog struct {
	ID           int64           `json:"id" db:"id"`
	UserID       int64           `json:"user_id" db:"user_id"`
	Role         policy.Role     `json:"role" db:"role"`
	Action       ActivityAction  `json:"action" db:"action"`
	ResourceType string          `json:"resource_type" db:"resource_type"` // proposal, guidance, exam, user
	ResourceID   *int64          `json:"resource_id,omitempty" db:"resource_id"`
	Details      json.RawMessage `json:"details,omitempty" db:"details"`
	RequestID    string          `json:"request_id" db:"request_id"`
	IPAddress    string          `json:"ip_address" db:"ip_address"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the ActivityLog model
func (ActivityLog) TableName() string {
	return "activity_logs"
}

// NewActivityLog creates a new entry for the acting identity
func NewActivityLog(actor policy.Identity, action ActivityAction, resourceType string) *ActivityLog {
	return &ActivityLog{
		UserID:       actor.ID,
		Role:         actor.Role,
		Action:       action,
		ResourceType: resourceType,
		CreatedAt:    time.Now(),
	}
}

// WithResource sets the resource ID
func (a *ActivityLog) WithResource(resourceID int64) *ActivityLog {
	a.ResourceID = &resourceID
	return a
}

// WithDetails sets the details
func (a *ActivityLog) WithDetails(details interface{}) *ActivityLog {
	if data, err := json.Marshal(details); err == nil {
		a.Details = data
	}
	return a
}

// WithRequest sets request metadata
func (a *ActivityLog) WithRequest(requestID, ipAddress string) *ActivityLog {
	a.RequestID = requestID
	a.IPAddress = ipAddress
	return a
}
