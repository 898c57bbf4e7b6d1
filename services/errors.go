package services

import (
	"errors"
	"fmt"

	"github.com/upb/thesis-workflow/repositories"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeExternal     ErrorType = "external"
	ErrorTypeRateLimited  ErrorType = "rate_limited"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is. Domain errors match on type only.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables. They are shared; build a fresh error with
// NewDomainError before attaching details.

var (
	// Not Found Errors
	ErrUserNotFound     = NewDomainError(ErrorTypeNotFound, "user not found", nil)
	ErrProposalNotFound = NewDomainError(ErrorTypeNotFound, "proposal not found", nil)
	ErrGuidanceNotFound = NewDomainError(ErrorTypeNotFound, "guidance session not found", nil)
	ErrExamNotFound     = NewDomainError(ErrorTypeNotFound, "exam not found", nil)

	// Validation Errors
	ErrInvalidInput    = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrInvalidEmail    = NewDomainError(ErrorTypeValidation, "invalid email format", nil)
	ErrWeakPassword    = NewDomainError(ErrorTypeValidation, "password must be at least 8 characters", nil)
	ErrInvalidDecision = NewDomainError(ErrorTypeValidation, "invalid review decision", nil)
	ErrInvalidScore    = NewDomainError(ErrorTypeValidation, "score must be between 0 and 100", nil)
	ErrFileRequired    = NewDomainError(ErrorTypeValidation, "a document file is required", nil)
	ErrInvalidFileType = NewDomainError(ErrorTypeValidation, "unsupported document type", nil)
	ErrInvalidAdvisor  = NewDomainError(ErrorTypeValidation, "advisor must be a lecturer", nil)
	ErrInvalidExaminer = NewDomainError(ErrorTypeValidation, "every examiner must hold the penguji role", nil)

	// Authorization Errors
	ErrUnauthorized       = NewDomainError(ErrorTypeUnauthorized, "unauthorized", nil)
	ErrInvalidCredentials = NewDomainError(ErrorTypeUnauthorized, "invalid username or password", nil)

	// Permission Errors
	ErrForbidden   = NewDomainError(ErrorTypeForbidden, "access forbidden", nil)
	ErrNotAdvisor  = NewDomainError(ErrorTypeForbidden, "you are not the advisor of this student", nil)
	ErrNotExaminer = NewDomainError(ErrorTypeForbidden, "you are not on the examiner panel", nil)

	// Conflict Errors
	ErrDuplicateUsername   = NewDomainError(ErrorTypeConflict, "username already exists", nil)
	ErrProposalNotApproved = NewDomainError(ErrorTypeConflict, "proposal has not been approved", nil)
	ErrNoAdvisorAssigned   = NewDomainError(ErrorTypeConflict, "proposal has no advisor assigned", nil)
	ErrAlreadyGraded       = NewDomainError(ErrorTypeConflict, "exam has already been graded", nil)
	ErrAlreadyReviewed     = NewDomainError(ErrorTypeConflict, "guidance session has already been reviewed", nil)

	// Rate Limit Errors
	ErrTooManyAttempts = NewDomainError(ErrorTypeRateLimited, "too many failed login attempts, try again later", nil)

	// Internal Errors
	ErrInternal      = NewDomainError(ErrorTypeInternal, "internal server error", nil)
	ErrDatabaseError = NewDomainError(ErrorTypeInternal, "database error", nil)

	// External Errors
	ErrStorageUnavailable = NewDomainError(ErrorTypeExternal, "document storage unavailable", nil)
)

// Error type checking helper functions

func isType(err error, errType ErrorType) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == errType
	}
	return false
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool { return isType(err, ErrorTypeNotFound) }

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool { return isType(err, ErrorTypeValidation) }

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool { return isType(err, ErrorTypeUnauthorized) }

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool { return isType(err, ErrorTypeForbidden) }

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool { return isType(err, ErrorTypeConflict) }

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool { return isType(err, ErrorTypeInternal) }

// IsExternalError checks if an error is an external service error
func IsExternalError(err error) bool { return isType(err, ErrorTypeExternal) }

// IsRateLimitedError checks if error is a rate limit error
func IsRateLimitedError(err error) bool { return isType(err, ErrorTypeRateLimited) }

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorMessage returns the client-facing message of a domain error
func GetErrorMessage(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// WrapExternal wraps an error as an external service error
func WrapExternal(message string, err error) error {
	return NewDomainError(ErrorTypeExternal, message, err)
}

// FromRepository translates repository sentinels. notFound is used for
// missing rows; anything unrecognised becomes a database error.
func FromRepository(err error, notFound *DomainError) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return NewDomainError(ErrorTypeNotFound, notFound.Message, err)
	case errors.Is(err, repositories.ErrDuplicate):
		return NewDomainError(ErrorTypeConflict, "record already exists", err)
	default:
		return NewDomainError(ErrorTypeInternal, ErrDatabaseError.Message, err)
	}
}
