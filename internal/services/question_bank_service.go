package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SAP-F-2025/question-bank-service/internal/bank"
	"github.com/SAP-F-2025/question-bank-service/internal/events"
	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/validator"
)

// BankObserver receives the shape of every bank the service swaps in.
type BankObserver interface {
	ObserveBank(byType map[string]int, tagCount int)
	ObserveLoadFailure()
}

type QuestionBankService interface {
	GetAll(ctx context.Context) []models.Question
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	FilterByTag(ctx context.Context, tag string) []models.Question
	FilterByType(ctx context.Context, questionType models.QuestionType) ([]models.Question, error)
	ListTags(ctx context.Context) []models.TagCount
	Stats(ctx context.Context) *BankStats

	// Reload rebuilds the bank from the configured source. On failure the
	// previously loaded bank keeps serving.
	Reload(ctx context.Context) (*BankStats, error)

	// Replace validates questions, persists them when the source is writable
	// and swaps them in.
	Replace(ctx context.Context, questions []models.Question, origin string) (*BankStats, error)
}

type BankStats struct {
	Source        string         `json:"source"`
	QuestionCount int            `json:"question_count"`
	TagCount      int            `json:"tag_count"`
	ByType        map[string]int `json:"by_type"`
	Checksum      string         `json:"checksum"`
	LoadedAt      time.Time      `json:"loaded_at"`
}

type loadedBank struct {
	bank  *bank.QuestionBank
	stats BankStats
}

type questionBankService struct {
	source    QuestionSource
	validator *validator.Validator
	publisher events.EventPublisher
	observer  BankObserver
	logger    *ServiceLogger

	current  atomic.Pointer[loadedBank]
	reloadMu sync.Mutex
}

type QuestionBankServiceOption func(*questionBankService)

func WithEventPublisher(publisher events.EventPublisher) QuestionBankServiceOption {
	return func(s *questionBankService) { s.publisher = publisher }
}

func WithBankObserver(observer BankObserver) QuestionBankServiceOption {
	return func(s *questionBankService) { s.observer = observer }
}

func WithValidator(v *validator.Validator) QuestionBankServiceOption {
	return func(s *questionBankService) { s.validator = v }
}

// NewQuestionBankService performs the initial load and fails when the source
// cannot produce a valid bank.
func NewQuestionBankService(ctx context.Context, source QuestionSource, logger *slog.Logger, opts ...QuestionBankServiceOption) (QuestionBankService, error) {
	s := &questionBankService{
		source:    source,
		validator: validator.New(),
		logger:    NewServiceLogger(logger, "question_bank_service"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := s.Reload(ctx); err != nil {
		return nil, fmt.Errorf("initial question bank load from %s: %w", source.Name(), err)
	}
	return s, nil
}

func (s *questionBankService) bank() *bank.QuestionBank {
	return s.current.Load().bank
}

func (s *questionBankService) GetAll(ctx context.Context) []models.Question {
	return s.bank().GetAll()
}

func (s *questionBankService) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	op := s.logger.WithOperation(ctx, "get_question")

	question, err := s.bank().GetByID(id)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrQuestionNotFound, err)
		op.LogResult("question", err, slog.Uint64("question_id", uint64(id)))
		return nil, err
	}
	return &question, nil
}

func (s *questionBankService) FilterByTag(ctx context.Context, tag string) []models.Question {
	return s.bank().FilterByTag(tag)
}

func (s *questionBankService) FilterByType(ctx context.Context, questionType models.QuestionType) ([]models.Question, error) {
	if !questionType.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrQuestionInvalidType, questionType)
	}
	return s.bank().FilterByType(questionType), nil
}

func (s *questionBankService) ListTags(ctx context.Context) []models.TagCount {
	return s.bank().Tags()
}

func (s *questionBankService) Stats(ctx context.Context) *BankStats {
	stats := s.current.Load().stats
	return &stats
}

func (s *questionBankService) Reload(ctx context.Context) (*BankStats, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	op := s.logger.WithOperation(ctx, "reload_question_bank")

	records, err := s.source.Load(ctx)
	if err != nil {
		s.loadFailed(ctx, s.source.Name(), err)
		op.LogResult("question_bank", err)
		return nil, err
	}

	stats, err := s.swap(ctx, records, s.source.Name())
	op.LogResult("question_bank", err)
	return stats, err
}

func (s *questionBankService) Replace(ctx context.Context, questions []models.Question, origin string) (*BankStats, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	op := s.logger.WithOperation(ctx, "replace_question_bank")

	qb, err := bank.NewWithValidator(s.validator, questions)
	if err != nil {
		s.loadFailed(ctx, origin, err)
		op.LogResult("question_bank", err)
		return nil, err
	}

	if store, ok := s.source.(QuestionStore); ok {
		if err := store.Store(ctx, qb.GetAll()); err != nil {
			err = fmt.Errorf("persist question bank: %w", err)
			op.LogResult("question_bank", err)
			return nil, err
		}
	}

	stats := s.install(ctx, qb, origin)
	op.LogResult("question_bank", nil, slog.Int("question_count", stats.QuestionCount))
	return stats, nil
}

func (s *questionBankService) swap(ctx context.Context, records []models.Question, origin string) (*BankStats, error) {
	qb, err := bank.NewWithValidator(s.validator, records)
	if err != nil {
		s.loadFailed(ctx, origin, err)
		return nil, err
	}
	return s.install(ctx, qb, origin), nil
}

func (s *questionBankService) install(ctx context.Context, qb *bank.QuestionBank, origin string) *BankStats {
	stats := buildStats(qb, origin)
	s.current.Store(&loadedBank{bank: qb, stats: stats})

	if s.observer != nil {
		s.observer.ObserveBank(stats.ByType, stats.TagCount)
	}
	s.publish(ctx, events.NewQuestionBankLoadedEvent(events.QuestionBankLoadedEvent{
		Source:        origin,
		QuestionCount: stats.QuestionCount,
		TagCount:      stats.TagCount,
		Checksum:      stats.Checksum,
		LoadedAt:      stats.LoadedAt,
	}))

	return &stats
}

func (s *questionBankService) loadFailed(ctx context.Context, origin string, err error) {
	if s.observer != nil {
		s.observer.ObserveLoadFailure()
	}

	payload := events.QuestionBankLoadFailedEvent{
		Source:   origin,
		Reason:   err.Error(),
		FailedAt: time.Now().UTC(),
	}
	var malformed *bank.MalformedBankError
	if errors.As(err, &malformed) {
		payload.IssueCount = len(malformed.Issues)
	}
	s.publish(ctx, events.NewQuestionBankLoadFailedEvent(payload))
}

// publish is best effort.
func (s *questionBankService) publish(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.logger.WarnContext(ctx, "Failed to publish question bank event",
			"event_type", event.Type,
			"error", err)
	}
}

func buildStats(qb *bank.QuestionBank, origin string) BankStats {
	byType := make(map[string]int, len(models.QuestionTypes))
	for _, t := range models.QuestionTypes {
		byType[string(t)] = len(qb.FilterByType(t))
	}
	return BankStats{
		Source:        origin,
		QuestionCount: qb.Len(),
		TagCount:      len(qb.Tags()),
		ByType:        byType,
		Checksum:      qb.Checksum(),
		LoadedAt:      time.Now().UTC(),
	}
}
