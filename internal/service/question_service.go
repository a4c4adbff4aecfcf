package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quizbank/backend/internal/config"
	"github.com/quizbank/backend/internal/model"
	"github.com/quizbank/backend/internal/repository"
	"github.com/quizbank/backend/internal/response"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// cacheTTL bounds staleness of the Redis-cached question list and count.
const cacheTTL = time.Minute

// QuestionService handles question business logic: the batch importer with
// its duplicate checker, plus the query side (list, get, count, delete-all)
// with a Redis read cache.
type QuestionService struct {
	store QuestionStore
	rdb   *redis.Client // nil disables caching (unit tests)
	log   zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(store QuestionStore, rdb *redis.Client, log zerolog.Logger) *QuestionService {
	return &QuestionService{store: store, rdb: rdb, log: log}
}

// IsDuplicate reports whether a question with identical trimmed text is
// already persisted.
func (s *QuestionService) IsDuplicate(ctx context.Context, questionText string) (bool, error) {
	return s.store.ExistsByText(ctx, questionText)
}

// ImportBatch persists a batch of validated questions row by row, in input
// order, each row isolated from the others' outcome. Duplicates are skipped
// and reported; persistence failures are recorded without aborting the batch.
// Row numbering follows the parser's convention (index + 2).
func (s *QuestionService) ImportBatch(ctx context.Context, questions []model.Question) *model.BatchImportResult {
	result := &model.BatchImportResult{
		TotalProcessed: len(questions),
		Errors:         []model.RowError{},
	}

	for i := range questions {
		q := &questions[i]
		rowNumber := i + 2

		dup, err := s.store.ExistsByText(ctx, q.QuestionText)
		if err != nil {
			result.Failures++
			result.Errors = append(result.Errors, model.RowError{
				Row:   rowNumber,
				Error: "Failed to import: " + err.Error(),
			})
			continue
		}
		if dup {
			result.Duplicates++
			result.Errors = append(result.Errors, model.RowError{
				Row:   rowNumber,
				Error: duplicateMessage(q.QuestionText),
			})
			continue
		}

		if err := s.store.Create(ctx, q); err != nil {
			if errors.Is(err, repository.ErrDuplicateQuestion) {
				// Lost the race between pre-check and commit; the unique
				// constraint is the authoritative guard.
				result.Duplicates++
				result.Errors = append(result.Errors, model.RowError{
					Row:   rowNumber,
					Error: duplicateMessage(q.QuestionText),
				})
				continue
			}
			result.Failures++
			result.Errors = append(result.Errors, model.RowError{
				Row:   rowNumber,
				Error: "Failed to import: " + err.Error(),
			})
			continue
		}

		result.SuccessfulImports++
	}

	if result.SuccessfulImports > 0 {
		s.invalidateCache(ctx)
	}
	return result
}

// Create persists a single question with its four answers.
// repository.ErrDuplicateQuestion passes through for the handler to map.
func (s *QuestionService) Create(ctx context.Context, q *model.Question) error {
	if err := s.store.Create(ctx, q); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

// GetByID retrieves a single question with its answers.
func (s *QuestionService) GetByID(ctx context.Context, id int64) (*model.Question, error) {
	return s.store.GetByID(ctx, id)
}

// cachedPage is the Redis representation of one question list page.
type cachedPage struct {
	Questions []model.Question `json:"questions"`
	Total     int              `json:"total"`
}

// List retrieves questions with pagination, newest first, answers ordered by
// label. Pages are served from Redis when a fresh copy exists.
func (s *QuestionService) List(ctx context.Context, page, perPage int) ([]model.Question, *response.Pagination, error) {
	page, perPage = clampPageParams(page, perPage)

	if s.rdb != nil {
		key := config.CacheKey.QuestionPageKey(s.listVersion(ctx), page, perPage)
		if raw, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
			var cached cachedPage
			if json.Unmarshal(raw, &cached) == nil {
				return cached.Questions, paginationFor(page, perPage, cached.Total), nil
			}
		}
	}

	questions, total, err := s.store.List(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if questions == nil {
		questions = []model.Question{}
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(cachedPage{Questions: questions, Total: total}); err == nil {
			key := config.CacheKey.QuestionPageKey(s.listVersion(ctx), page, perPage)
			if err := s.rdb.Set(ctx, key, raw, cacheTTL).Err(); err != nil {
				s.log.Warn().Err(err).Msg("Question page cache write failed")
			}
		}
	}

	return questions, paginationFor(page, perPage, total), nil
}

// Count returns the total number of persisted questions, cached in Redis.
func (s *QuestionService) Count(ctx context.Context) (int, error) {
	if s.rdb != nil {
		if n, err := s.rdb.Get(ctx, config.CacheKey.QuestionCountKey()).Int(); err == nil {
			return n, nil
		}
	}

	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, err
	}

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, config.CacheKey.QuestionCountKey(), n, cacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Msg("Question count cache write failed")
		}
	}
	return n, nil
}

// DeleteAll removes every question and returns the number deleted.
func (s *QuestionService) DeleteAll(ctx context.Context) (int64, error) {
	deleted, err := s.store.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.invalidateCache(ctx)
	}
	s.log.Info().Int64("deleted", deleted).Msg("All questions deleted")
	return deleted, nil
}

// listVersion reads the current list generation; a missing key reads as 0.
func (s *QuestionService) listVersion(ctx context.Context) int64 {
	v, err := s.rdb.Get(ctx, config.CacheKey.QuestionListVersionKey()).Int64()
	if err != nil {
		return 0
	}
	return v
}

// invalidateCache bumps the list generation and drops the cached count.
// Cache failures are logged, never surfaced: Redis is a read optimization.
func (s *QuestionService) invalidateCache(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Incr(ctx, config.CacheKey.QuestionListVersionKey()).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Question list cache invalidation failed")
	}
	if err := s.rdb.Del(ctx, config.CacheKey.QuestionCountKey()).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Question count cache invalidation failed")
	}
}

// duplicateMessage formats the skip reason for a duplicate row, echoing the
// first 50 characters of the question so the uploader can locate it.
func duplicateMessage(questionText string) string {
	return fmt.Sprintf("Duplicate question: \"%s...\"", truncateRunes(strings.TrimSpace(questionText), 50))
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// clampPageParams normalizes pagination query values.
func clampPageParams(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}

func paginationFor(page, perPage, total int) *response.Pagination {
	return &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
}
