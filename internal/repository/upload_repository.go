package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quizbank/backend/internal/model"
)

// ErrUploadNotFound is returned when no upload run matches the given ID.
var ErrUploadNotFound = errors.New("upload not found")

// UploadRepository handles upload run audit records. Runs are append-only:
// created once in the processing state, finalized once, never deleted.
type UploadRepository struct {
	pool *pgxpool.Pool
}

// NewUploadRepository creates a new UploadRepository.
func NewUploadRepository(pool *pgxpool.Pool) *UploadRepository {
	return &UploadRepository{pool: pool}
}

// Create inserts a new upload run in the processing state.
// ID, status and uploaded_at are written back into u.
func (r *UploadRepository) Create(ctx context.Context, u *model.CSVUpload) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO csv_uploads (filename, file_size, total_rows, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, uploaded_at`,
		u.Filename, u.FileSize, u.TotalRows, model.UploadStatusProcessing,
	).Scan(&u.ID, &u.UploadedAt)
	if err != nil {
		return err
	}
	u.Status = model.UploadStatusProcessing
	return nil
}

// SetTotalRows records the valid row count once parsing has established it.
func (r *UploadRepository) SetTotalRows(ctx context.Context, id int64, totalRows int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE csv_uploads SET total_rows = $1 WHERE id = $2`,
		totalRows, id)
	return err
}

// Finalize moves a run to its terminal state with final counts, the ordered
// error summary and completed_at. Called exactly once per run.
func (r *UploadRepository) Finalize(ctx context.Context, id int64, status model.UploadStatus, successful, failed, duplicates int, errs []model.RowError) error {
	var summary []byte
	if len(errs) > 0 {
		var err error
		summary, err = json.Marshal(errs)
		if err != nil {
			return fmt.Errorf("marshal error summary: %w", err)
		}
	}

	_, err := r.pool.Exec(ctx,
		`UPDATE csv_uploads
		 SET status = $1, successful_imports = $2, failed_imports = $3,
		     duplicate_count = $4, error_summary = $5, completed_at = now()
		 WHERE id = $6`,
		status, successful, failed, duplicates, summary, id)
	return err
}

// GetByID retrieves one upload run with its decoded error summary.
func (r *UploadRepository) GetByID(ctx context.Context, id int64) (*model.CSVUpload, error) {
	u := &model.CSVUpload{}
	var summary []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, filename, file_size, total_rows, successful_imports,
		        failed_imports, duplicate_count, status, error_summary,
		        uploaded_at, completed_at
		 FROM csv_uploads WHERE id = $1`, id,
	).Scan(&u.ID, &u.Filename, &u.FileSize, &u.TotalRows, &u.SuccessfulImports,
		&u.FailedImports, &u.DuplicateCount, &u.Status, &summary,
		&u.UploadedAt, &u.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUploadNotFound
		}
		return nil, err
	}

	if len(summary) > 0 {
		if err := json.Unmarshal(summary, &u.ErrorSummary); err != nil {
			return nil, fmt.Errorf("decode error summary: %w", err)
		}
	}
	return u, nil
}

// List retrieves one page of upload runs, most recent first, plus the total
// run count.
func (r *UploadRepository) List(ctx context.Context, limit, offset int) ([]model.CSVUpload, int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, filename, file_size, total_rows, successful_imports,
		        failed_imports, duplicate_count, status, error_summary,
		        uploaded_at, completed_at
		 FROM csv_uploads
		 ORDER BY uploaded_at DESC, id DESC
		 LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var uploads []model.CSVUpload
	for rows.Next() {
		var u model.CSVUpload
		var summary []byte
		if err := rows.Scan(&u.ID, &u.Filename, &u.FileSize, &u.TotalRows,
			&u.SuccessfulImports, &u.FailedImports, &u.DuplicateCount,
			&u.Status, &summary, &u.UploadedAt, &u.CompletedAt); err != nil {
			return nil, 0, err
		}
		if len(summary) > 0 {
			if err := json.Unmarshal(summary, &u.ErrorSummary); err != nil {
				return nil, 0, fmt.Errorf("decode error summary: %w", err)
			}
		}
		uploads = append(uploads, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM csv_uploads`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return uploads, total, nil
}
