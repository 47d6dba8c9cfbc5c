package repositories

import (
	"context"

	"github.com/SAP-F-2025/question-bank-service/internal/models"
)

// QuestionRepository stores the question set. Reads return questions in
// authoring order.
type QuestionRepository interface {
	ListAll(ctx context.Context) ([]models.Question, error)
	Count(ctx context.Context) (int64, error)

	// ReplaceAll swaps the stored set for questions atomically.
	ReplaceAll(ctx context.Context, questions []models.Question) error
}
