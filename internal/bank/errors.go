package bank

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/question-bank-service/internal/errors"
)

var (
	ErrNotFound        = errors.New("question not found")
	ErrMalformedRecord = errors.New("malformed question record")
)

// MalformedBankError rejects a whole bank because at least one record breaks
// the question rules.
type MalformedBankError struct {
	Issues apperrors.ValidationErrors
}

func (e *MalformedBankError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("%s: %s %s", ErrMalformedRecord, e.Issues[0].Field, e.Issues[0].Message)
	}
	return fmt.Sprintf("%s: %d issues", ErrMalformedRecord, len(e.Issues))
}

// Is lets errors.Is(err, ErrMalformedRecord) match.
func (e *MalformedBankError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// Unwrap exposes the validation issues to errors.As.
func (e *MalformedBankError) Unwrap() error {
	return e.Issues
}
