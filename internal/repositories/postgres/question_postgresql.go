package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/repositories"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const insertBatchSize = 100

type QuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) *QuestionPostgreSQL {
	return &QuestionPostgreSQL{db: db}
}

var _ repositories.QuestionRepository = (*QuestionPostgreSQL)(nil)

// Migrate creates or updates the quiz_questions table.
func (q *QuestionPostgreSQL) Migrate(ctx context.Context) error {
	if err := q.db.WithContext(ctx).AutoMigrate(&models.QuestionRow{}); err != nil {
		return fmt.Errorf("failed to migrate quiz questions: %w", err)
	}
	return nil
}

func (q *QuestionPostgreSQL) ListAll(ctx context.Context) ([]models.Question, error) {
	var rows []models.QuestionRow
	if err := q.db.WithContext(ctx).Order("position ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return fromRows(rows)
}

func (q *QuestionPostgreSQL) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := q.db.WithContext(ctx).Model(&models.QuestionRow{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return count, nil
}

func (q *QuestionPostgreSQL) ReplaceAll(ctx context.Context, questions []models.Question) error {
	rows := make([]models.QuestionRow, 0, len(questions))
	for i, question := range questions {
		row, err := ToRow(question, i)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	return q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&models.QuestionRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear questions: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&rows, insertBatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert questions: %w", err)
		}
		return nil
	})
}

// ToRow converts a question into its persisted form at the given authoring position.
func ToRow(question models.Question, position int) (models.QuestionRow, error) {
	options, err := marshalJSON(question.Options)
	if err != nil {
		return models.QuestionRow{}, fmt.Errorf("question %d options: %w", question.ID, err)
	}
	answer, err := marshalJSON(question.Answer)
	if err != nil {
		return models.QuestionRow{}, fmt.Errorf("question %d answer: %w", question.ID, err)
	}
	explanation, err := marshalJSON(question.Explanation)
	if err != nil {
		return models.QuestionRow{}, fmt.Errorf("question %d explanation: %w", question.ID, err)
	}
	tags, err := marshalJSON(question.Tags)
	if err != nil {
		return models.QuestionRow{}, fmt.Errorf("question %d tags: %w", question.ID, err)
	}

	return models.QuestionRow{
		ID:          question.ID,
		Position:    position,
		Type:        question.Type,
		Text:        question.Text,
		Options:     options,
		Answer:      answer,
		Explanation: explanation,
		Tags:        tags,
	}, nil
}

// FromRow converts a persisted row back into a question.
func FromRow(row models.QuestionRow) (models.Question, error) {
	question := models.Question{
		ID:   row.ID,
		Type: row.Type,
		Text: row.Text,
	}

	if err := unmarshalJSON(row.Options, &question.Options); err != nil {
		return models.Question{}, fmt.Errorf("question %d options: %w", row.ID, err)
	}
	if err := unmarshalJSON(row.Answer, &question.Answer); err != nil {
		return models.Question{}, fmt.Errorf("question %d answer: %w", row.ID, err)
	}
	if err := unmarshalJSON(row.Explanation, &question.Explanation); err != nil {
		return models.Question{}, fmt.Errorf("question %d explanation: %w", row.ID, err)
	}
	if err := unmarshalJSON(row.Tags, &question.Tags); err != nil {
		return models.Question{}, fmt.Errorf("question %d tags: %w", row.ID, err)
	}

	return question, nil
}

func fromRows(rows []models.QuestionRow) ([]models.Question, error) {
	questions := make([]models.Question, 0, len(rows))
	for _, row := range rows {
		question, err := FromRow(row)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	return questions, nil
}

func marshalJSON(v interface{}) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

func unmarshalJSON(data datatypes.JSON, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
