package validator

import (
	"fmt"

	apperrors "github.com/SAP-F-2025/question-bank-service/internal/errors"
	"github.com/SAP-F-2025/question-bank-service/internal/models"
)

// QuestionValidator handles the cross-field rules of a question that struct
// tags cannot express: answer indexes, answer cardinality per type and the
// keys of the wrong-option explanations.
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuestion returns every rule the question breaks, or nil.
func (v *QuestionValidator) ValidateQuestion(question *models.Question) ValidationErrors {
	var errs ValidationErrors

	errs = append(errs, v.validateAnswer(question)...)
	errs = append(errs, v.validateCardinality(question)...)
	errs = append(errs, v.validateWrongExplanations(question)...)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateBatch validates every question and the uniqueness of ids across the batch.
// Field paths are prefixed with questions[i].
func (v *QuestionValidator) ValidateBatch(questions []models.Question) ValidationErrors {
	var errs ValidationErrors

	firstSeen := make(map[uint]int, len(questions))
	for i := range questions {
		prefix := questionPath(i)

		if rowErrs := v.ValidateQuestion(&questions[i]); len(rowErrs) > 0 {
			errs = append(errs, rowErrs.WithPrefix(prefix)...)
		}

		id := questions[i].ID
		if first, exists := firstSeen[id]; exists {
			errs = append(errs, *apperrors.NewValidationErrorWithRule(
				prefix+".id",
				fmt.Sprintf("duplicate id %d, first used by questions[%d]", id, first),
				"unique_id", id,
			))
			continue
		}
		firstSeen[id] = i
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (v *QuestionValidator) validateAnswer(question *models.Question) ValidationErrors {
	var errs ValidationErrors

	seen := make(map[int]bool, len(question.Answer))
	for i, idx := range question.Answer {
		field := fmt.Sprintf("answer[%d]", i)
		if idx < 0 || idx >= len(question.Options) {
			errs = append(errs, *apperrors.NewValidationErrorWithRule(
				field,
				fmt.Sprintf("index %d is out of range for %d options", idx, len(question.Options)),
				"option_index", idx,
			))
			continue
		}
		if seen[idx] {
			errs = append(errs, *apperrors.NewValidationErrorWithRule(
				field, fmt.Sprintf("index %d is listed more than once", idx), "unique_answer", idx,
			))
		}
		seen[idx] = true
	}

	return errs
}

func (v *QuestionValidator) validateCardinality(question *models.Question) ValidationErrors {
	var errs ValidationErrors

	switch question.Type {
	case models.QuestionSingle:
		if len(question.Answer) > 1 {
			errs = append(errs, *apperrors.NewValidationErrorWithRule(
				"answer", "single choice questions must have exactly one answer", "answer_count", len(question.Answer),
			))
		}
	case models.QuestionJudge:
		if len(question.Answer) > 1 {
			errs = append(errs, *apperrors.NewValidationErrorWithRule(
				"answer", "judge questions must have exactly one answer", "answer_count", len(question.Answer),
			))
		}
	}
	// multiple: one or more answers, already covered by the struct tags

	return errs
}

func (v *QuestionValidator) validateWrongExplanations(question *models.Question) ValidationErrors {
	var errs ValidationErrors

	for _, idx := range question.WrongIndexes() {
		field := fmt.Sprintf("explanation.wrong[%d]", idx)
		if idx < 0 || idx >= len(question.Options) {
			errs = append(errs, *apperrors.NewValidationErrorWithRule(
				field, fmt.Sprintf("index %d is out of range for %d options", idx, len(question.Options)),
				"option_index", idx,
			))
			continue
		}
		if question.IsCorrect(idx) {
			errs = append(errs, *apperrors.NewValidationErrorWithRule(
				field, "a correct option cannot carry a wrong-answer explanation", "wrong_disjoint", idx,
			))
		}
	}

	return errs
}
