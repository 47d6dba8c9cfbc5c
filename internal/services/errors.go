package services

import (
	"errors"

	"github.com/SAP-F-2025/question-bank-service/internal/bank"
	apperrors "github.com/SAP-F-2025/question-bank-service/internal/errors"
)

var (
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")

	ErrQuestionNotFound    = errors.New("question not found")
	ErrQuestionInvalidType = errors.New("invalid question type")

	ErrUnsupportedImportFormat = errors.New("unsupported import file format")
	ErrUnsupportedExportFormat = errors.New("unsupported export format")
)

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, bank.ErrNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden)
}

// IsValidation checks if error represents a validation failure, including a
// question set rejected as malformed.
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrQuestionInvalidType) ||
		errors.Is(err, bank.ErrMalformedRecord) {
		return true
	}
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *ValidationError
	return errors.As(err, &single)
}

// IsBadRequest checks if error was caused by unusable input rather than invalid content
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest) ||
		errors.Is(err, ErrUnsupportedImportFormat) ||
		errors.Is(err, ErrUnsupportedExportFormat)
}

// ValidationIssues extracts field level issues from err, if any.
func ValidationIssues(err error) ValidationErrors {
	var malformed *bank.MalformedBankError
	if errors.As(err, &malformed) {
		return malformed.Issues
	}
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	var single *ValidationError
	if errors.As(err, &single) {
		return ValidationErrors{*single}
	}
	return nil
}
