package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrValidation   = errors.New("validation failed")
)

// Pipeline stage error kinds. Every failure recorded on a job record wraps exactly one of these.
var (
	ErrFetch       = errors.New("fetch failed")
	ErrParse       = errors.New("parse failed")
	ErrExtraction  = errors.New("extraction failed")
	ErrPreparation = errors.New("preparation failed")
	ErrSave        = errors.New("save failed")
)

// Error codes used with AppError.
const (
	CodeConfig      = "CONFIG_ERROR"
	CodeFetch       = "FETCH_ERROR"
	CodeParse       = "PARSE_ERROR"
	CodeExtraction  = "EXTRACTION_ERROR"
	CodePreparation = "PREPARATION_ERROR"
	CodeSave        = "SAVE_ERROR"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// StageError builds the error recorded for a failed stage. kind is one of the
// Err* stage sentinels; cause, when non-nil, is kept in the chain so callers can
// branch on lower-level kinds too.
func StageError(code string, kind error, message string, cause error) *AppError {
	if cause != nil {
		return NewAppError(code, message, fmt.Errorf("%w: %w", kind, cause))
	}
	return NewAppError(code, message, kind)
}
