package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/grabke213/proofpack/internal/validate"
)

type ErrorType int

const (
	ErrNotFound ErrorType = iota
	ErrValidation
	ErrPersistence
	ErrCapture
	ErrRender
	ErrUnknown
)

// ProofPackError carries the failure class alongside the message so
// handlers can map failures to responses without string matching.
type ProofPackError struct {
	Type    ErrorType
	Message string
	Issues  []validate.Issue
	Cause   error
}

func NewError(errorType ErrorType, message string) *ProofPackError {
	return &ProofPackError{
		Type:    errorType,
		Message: message,
	}
}

func WrapError(err error, errorType ErrorType, message string) *ProofPackError {
	return &ProofPackError{
		Type:    errorType,
		Message: message,
		Cause:   err,
	}
}

// NewValidationError keeps the full issue list so the caller can show
// everything that blocks an export at once.
func NewValidationError(issues []validate.Issue) *ProofPackError {
	return &ProofPackError{
		Type:    ErrValidation,
		Message: "record is not ready",
		Issues:  issues,
	}
}

func (e *ProofPackError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", e.Type.String(), e.Message))
	if len(e.Issues) > 0 {
		msgs := make([]string, len(e.Issues))
		for i, issue := range e.Issues {
			msgs[i] = issue.Message
		}
		parts = append(parts, fmt.Sprintf("issues: %s", strings.Join(msgs, "; ")))
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}
	return strings.Join(parts, " | ")
}

func (e *ProofPackError) Unwrap() error {
	return e.Cause
}

func (t ErrorType) String() string {
	switch t {
	case ErrNotFound:
		return "NotFound"
	case ErrValidation:
		return "Validation"
	case ErrPersistence:
		return "Persistence"
	case ErrCapture:
		return "Capture"
	case ErrRender:
		return "Render"
	default:
		return "Unknown"
	}
}

func IsErrorType(err error, errorType ErrorType) bool {
	var ppErr *ProofPackError
	if errors.As(err, &ppErr) {
		return ppErr.Type == errorType
	}
	return false
}

// IssuesOf extracts the validation issue list from an error chain, or
// nil when the failure is not a validation failure.
func IssuesOf(err error) []validate.Issue {
	var ppErr *ProofPackError
	if errors.As(err, &ppErr) && ppErr.Type == ErrValidation {
		return ppErr.Issues
	}
	return nil
}
