package validator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/question-bank-service/internal/errors"
)

// Use shared validation errors from errors package
type ValidationError = errors.ValidationError
type ValidationErrors = errors.ValidationErrors

// ToValidationErrors converts validator.ValidationErrors to our custom type
func ToValidationErrors(err error) ValidationErrors {
	return errors.ToValidationErrors(err)
}

func questionPath(i int) string {
	return fmt.Sprintf("questions[%d]", i)
}

// SplitQuestionPath reverses questionPath: "questions[3].answer" yields 3 and "answer".
func SplitQuestionPath(field string) (int, string, bool) {
	rest, ok := strings.CutPrefix(field, "questions[")
	if !ok {
		return 0, "", false
	}
	idx, rest, ok := strings.Cut(rest, "]")
	if !ok {
		return 0, "", false
	}
	i, err := strconv.Atoi(idx)
	if err != nil {
		return 0, "", false
	}
	return i, strings.TrimPrefix(rest, "."), true
}
