package services

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/question-bank-service/internal/loader"
	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/repositories"
	"github.com/SAP-F-2025/question-bank-service/internal/seed"
)

// QuestionSource produces the raw records a bank is built from.
type QuestionSource interface {
	Name() string
	Load(ctx context.Context) ([]models.Question, error)
}

// QuestionStore is a source that can also be overwritten with a new set.
type QuestionStore interface {
	QuestionSource
	Store(ctx context.Context, questions []models.Question) error
}

type embeddedSource struct{}

// NewEmbeddedSource serves the question set compiled into the binary.
func NewEmbeddedSource() QuestionSource {
	return embeddedSource{}
}

func (embeddedSource) Name() string { return "embedded:" + seed.Name }

func (embeddedSource) Load(context.Context) ([]models.Question, error) {
	return seed.Questions()
}

type fileSource struct {
	path string
}

func NewFileSource(path string) QuestionSource {
	return fileSource{path: path}
}

func (s fileSource) Name() string { return "file:" + s.path }

func (s fileSource) Load(context.Context) ([]models.Question, error) {
	return loader.LoadFile(s.path)
}

type repositorySource struct {
	repo repositories.QuestionRepository
}

func NewRepositorySource(repo repositories.QuestionRepository) QuestionStore {
	return repositorySource{repo: repo}
}

func (repositorySource) Name() string { return "postgres" }

func (s repositorySource) Load(ctx context.Context) ([]models.Question, error) {
	questions, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load questions from repository: %w", err)
	}
	return questions, nil
}

// Store replaces the stored set and checks the repository now holds exactly
// len(questions) records.
func (s repositorySource) Store(ctx context.Context, questions []models.Question) error {
	if err := s.repo.ReplaceAll(ctx, questions); err != nil {
		return err
	}

	count, err := s.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("verify stored questions: %w", err)
	}
	if count != int64(len(questions)) {
		return fmt.Errorf("verify stored questions: repository holds %d records, expected %d", count, len(questions))
	}
	return nil
}
