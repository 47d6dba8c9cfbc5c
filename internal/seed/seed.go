// Package seed ships the authored question set (questionsPart4) inside the binary.
package seed

import (
	_ "embed"
	"fmt"

	"github.com/SAP-F-2025/question-bank-service/internal/loader"
	"github.com/SAP-F-2025/question-bank-service/internal/models"
)

// Name identifies the embedded set in logs and events.
const Name = "questionsPart4"

//go:embed questions_part4.json
var questionsPart4 []byte

// Questions decodes the embedded question set. Each call returns fresh records.
func Questions() ([]models.Question, error) {
	questions, err := loader.Decode(questionsPart4, loader.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("decode embedded %s: %w", Name, err)
	}
	return questions, nil
}
