package service

import (
	"context"

	"github.com/quizbank/backend/internal/model"
)

// QuestionStore is the storage collaborator for questions and their answer
// options. Satisfied by repository.QuestionRepository; tests substitute an
// in-memory fake.
type QuestionStore interface {
	// Create persists a question and its four answers as one atomic unit.
	Create(ctx context.Context, q *model.Question) error
	// ExistsByText reports whether a question with identical trimmed text
	// is already persisted.
	ExistsByText(ctx context.Context, questionText string) (bool, error)
	GetByID(ctx context.Context, id int64) (*model.Question, error)
	List(ctx context.Context, limit, offset int) ([]model.Question, int, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// UploadStore is the storage collaborator for upload run audit records.
// Satisfied by repository.UploadRepository.
type UploadStore interface {
	Create(ctx context.Context, u *model.CSVUpload) error
	SetTotalRows(ctx context.Context, id int64, totalRows int) error
	Finalize(ctx context.Context, id int64, status model.UploadStatus, successful, failed, duplicates int, errs []model.RowError) error
	GetByID(ctx context.Context, id int64) (*model.CSVUpload, error)
	List(ctx context.Context, limit, offset int) ([]model.CSVUpload, int, error)
}
