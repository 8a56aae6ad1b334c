package agents

import (
	"errors"
	"strings"
)

var (
	// ErrAgentNotFound indicates the agent id is not in the catalog.
	ErrAgentNotFound = errors.New("agent not found")
	// ErrValidation indicates the run input is incomplete or malformed.
	ErrValidation = errors.New("validation failed")
)

// FieldIssue describes one invalid input field.
type FieldIssue struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// ValidationError lists every invalid field of a run input.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Field+": "+is.Issue)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
