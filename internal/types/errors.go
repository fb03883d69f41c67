package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures across the Brain/Hands boundary.
type ErrorKind string

const (
	KindValidation          ErrorKind = "ValidationError"
	KindAuthorization       ErrorKind = "AuthorizationError"
	KindParameterValidation ErrorKind = "ParameterValidationError"
	KindToolNotFound        ErrorKind = "ToolNotFoundError"
	KindToolExecution       ErrorKind = "ToolExecutionError"
	KindInvalidResultFormat ErrorKind = "InvalidResultFormatError"
	KindBrainProcessing     ErrorKind = "BrainProcessingError"
)

// BrainProcessingError subtypes.
const (
	SubtypeTimeout         = "timeout"
	SubtypeProcessingError = "processing_error"
)

// AgentError is a classified error. Only validation and Brain failures are
// ever returned as Go errors; tool failures travel inside ToolResult.
type AgentError struct {
	Kind    ErrorKind
	Subtype string
	Message string
	Err     error
}

func (e *AgentError) Error() string {
	msg := string(e.Kind)
	if e.Subtype != "" {
		msg += "(" + e.Subtype + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AgentError) Unwrap() error { return e.Err }

// NewValidationError returns a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) *AgentError {
	return &AgentError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewBrainError wraps err as a BrainProcessingError of the given subtype.
func NewBrainError(subtype string, err error) *AgentError {
	return &AgentError{Kind: KindBrainProcessing, Subtype: subtype, Err: err}
}

// KindOf extracts the ErrorKind of err, or "" when err is not an AgentError.
func KindOf(err error) ErrorKind {
	var ae *AgentError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}
