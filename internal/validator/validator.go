package validator

import (
	"reflect"
	"strings"

	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator is the main validator instance that combines all validation types
type Validator struct {
	structValidator   *validator.Validate
	questionValidator *QuestionValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		questionValidator: NewQuestionValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// ValidateQuestion runs the struct tags and the question rules and
// returns every failure found, or nil.
func (v *Validator) ValidateQuestion(question *models.Question) ValidationErrors {
	var errs ValidationErrors

	if err := v.ValidateStruct(question); err != nil {
		structErrs := ToValidationErrors(err)
		if len(structErrs) == 0 {
			structErrs = ValidationErrors{{Field: "question", Message: err.Error()}}
		}
		errs = append(errs, structErrs...)
	}
	errs = append(errs, v.questionValidator.ValidateQuestion(question)...)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateBank validates a whole question set: every record plus id uniqueness.
func (v *Validator) ValidateBank(questions []models.Question) ValidationErrors {
	var errs ValidationErrors

	for i := range questions {
		if err := v.ValidateStruct(&questions[i]); err != nil {
			errs = append(errs, ToValidationErrors(err).WithPrefix(questionPath(i))...)
		}
	}
	errs = append(errs, v.questionValidator.ValidateBatch(questions)...)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Question returns the question validator
func (v *Validator) Question() *QuestionValidator {
	return v.questionValidator
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", validateQuestionType)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateQuestionType(fl validator.FieldLevel) bool {
	return models.QuestionType(fl.Field().String()).IsValid()
}
