package cache

import (
	"context"
	"errors"
	"time"

	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/repositories"
	"github.com/SAP-F-2025/question-bank-service/internal/utils"
)

const (
	questionKeyPrefix = "questions:"
	questionsAllKey   = questionKeyPrefix + "all"
)

// CachedQuestionRepository serves ListAll from the cache and falls through to
// the wrapped repository for everything else. Cache failures never fail a read
// or a write.
type CachedQuestionRepository struct {
	repo   repositories.QuestionRepository
	cache  CacheService
	ttl    time.Duration
	logger utils.Logger
}

var _ repositories.QuestionRepository = (*CachedQuestionRepository)(nil)

func NewCachedQuestionRepository(repo repositories.QuestionRepository, cache CacheService, ttl time.Duration, logger utils.Logger) *CachedQuestionRepository {
	return &CachedQuestionRepository{
		repo:   repo,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CachedQuestionRepository) ListAll(ctx context.Context) ([]models.Question, error) {
	var cached []models.Question
	err := c.cache.Get(ctx, questionsAllKey, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("Question cache read failed", "key", questionsAllKey, "error", err)
	}

	questions, err := c.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, questionsAllKey, questions, c.ttl); err != nil {
		c.logger.Warn("Question cache write failed", "key", questionsAllKey, "error", err)
	}
	return questions, nil
}

func (c *CachedQuestionRepository) Count(ctx context.Context) (int64, error) {
	return c.repo.Count(ctx)
}

func (c *CachedQuestionRepository) ReplaceAll(ctx context.Context, questions []models.Question) error {
	if err := c.repo.ReplaceAll(ctx, questions); err != nil {
		return err
	}
	// The new set is committed at this point, so invalidation failures are
	// logged rather than returned.
	if err := c.cache.DeletePattern(ctx, questionKeyPrefix+"*"); err != nil {
		c.logger.Warn("Question cache invalidation failed", "pattern", questionKeyPrefix+"*", "error", err)
		if err := c.cache.Delete(ctx, questionsAllKey); err != nil {
			c.logger.Warn("Question cache delete failed, entry expires with its TTL",
				"key", questionsAllKey, "ttl", c.ttl, "error", err)
		}
	}
	return nil
}
