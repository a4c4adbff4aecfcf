package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quizbank/backend/internal/model"
)

// ErrDuplicateQuestion is returned when a write violates the unique constraint
// on questions.question_text. The constraint is the authoritative duplicate
// guard; the importer's pre-check is only a reporting aid.
var ErrDuplicateQuestion = errors.New("question text already exists")

// ErrQuestionNotFound is returned when no question matches the given ID.
var ErrQuestionNotFound = errors.New("question not found")

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// Create inserts a question and its four answer options in one transaction.
// All five rows commit together or none do. IDs and timestamps are written
// back into q.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO questions (question_text)
		 VALUES ($1)
		 RETURNING id, created_at, updated_at`,
		strings.TrimSpace(q.QuestionText),
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateQuestion
		}
		return err
	}

	for i := range q.Answers {
		a := &q.Answers[i]
		a.QuestionID = q.ID
		if err := tx.QueryRow(ctx,
			`INSERT INTO answer_options (question_id, option_label, answer_text, is_correct)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, created_at`,
			a.QuestionID, a.OptionLabel, strings.TrimSpace(a.AnswerText), a.IsCorrect,
		).Scan(&a.ID, &a.CreatedAt); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ExistsByText reports whether a question with the same trimmed text exists.
func (r *QuestionRepository) ExistsByText(ctx context.Context, questionText string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM questions WHERE question_text = $1)`,
		strings.TrimSpace(questionText),
	).Scan(&exists)
	return exists, err
}

// GetByID retrieves a question with its answers ordered by option label.
func (r *QuestionRepository) GetByID(ctx context.Context, id int64) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, question_text, created_at, updated_at
		 FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.QuestionText, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}

	q.Answers, err = r.answersFor(ctx, []int64{q.ID})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// List retrieves one page of questions ordered by creation time descending,
// each with its answers ordered by option label. Returns the page and the
// total question count.
func (r *QuestionRepository) List(ctx context.Context, limit, offset int) ([]model.Question, int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, question_text, created_at, updated_at
		 FROM questions
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var questions []model.Question
	var ids []int64
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuestionText, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, 0, err
		}
		questions = append(questions, q)
		ids = append(ids, q.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(ids) > 0 {
		answers, err := r.answersFor(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		byQuestion := make(map[int64][]model.AnswerOption, len(ids))
		for _, a := range answers {
			byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], a)
		}
		for i := range questions {
			questions[i].Answers = byQuestion[questions[i].ID]
		}
	}

	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return questions, total, nil
}

// Count returns the total number of questions.
func (r *QuestionRepository) Count(ctx context.Context) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions`).Scan(&total)
	return total, err
}

// DeleteAll removes every question (answer options cascade) and returns the
// number of questions deleted.
func (r *QuestionRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// answersFor loads answer options for the given question IDs, ordered by
// question then option label.
func (r *QuestionRepository) answersFor(ctx context.Context, questionIDs []int64) ([]model.AnswerOption, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, question_id, option_label, answer_text, is_correct, created_at
		 FROM answer_options
		 WHERE question_id = ANY($1)
		 ORDER BY question_id, option_label`, questionIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.AnswerOption
	for rows.Next() {
		var a model.AnswerOption
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.OptionLabel, &a.AnswerText, &a.IsCorrect, &a.CreatedAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
