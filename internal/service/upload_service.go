package service

import (
	"context"
	"fmt"

	"github.com/quizbank/backend/internal/model"
	"github.com/quizbank/backend/internal/response"
	"github.com/rs/zerolog"
)

// UploadService orchestrates one upload run: parse, track, import, finalize.
// It is the only writer of upload run records.
type UploadService struct {
	uploads   UploadStore
	questions *QuestionService
	log       zerolog.Logger
}

// NewUploadService creates a new UploadService.
func NewUploadService(uploads UploadStore, questions *QuestionService, log zerolog.Logger) *UploadService {
	return &UploadService{uploads: uploads, questions: questions, log: log}
}

// ProcessUpload runs the full ingestion pipeline against one uploaded file.
//
// Every row-scoped problem (validation, duplicate, persistence) is captured
// in the returned UploadReport, never returned as an error. An error is
// returned only for run-level storage failures, in which case the run is
// marked failed best-effort before propagating.
func (s *UploadService) ProcessUpload(ctx context.Context, filename string, content []byte, fileSize int64) (*model.UploadReport, error) {
	run := &model.CSVUpload{Filename: filename, FileSize: fileSize}
	if err := s.uploads.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create upload run: %w", err)
	}

	s.log.Info().
		Int64("upload_id", run.ID).
		Str("filename", filename).
		Int64("file_size", fileSize).
		Msg("Upload run started")

	parsed := ParseCSV(content)

	// No importable rows: structural failure or every row invalid.
	if len(parsed.Rows) == 0 {
		if err := s.uploads.Finalize(ctx, run.ID, model.UploadStatusFailed,
			0, len(parsed.Errors), 0, parsed.Errors); err != nil {
			return nil, fmt.Errorf("finalize upload run: %w", err)
		}

		s.log.Warn().
			Int64("upload_id", run.ID).
			Int("errors", len(parsed.Errors)).
			Msg("Upload run failed during parsing")

		return &model.UploadReport{
			UploadID:      run.ID,
			Filename:      filename,
			FailedImports: len(parsed.Errors),
			Errors:        parsed.Errors,
			Status:        model.UploadStatusFailed,
		}, nil
	}

	report, err := s.importRows(ctx, run, parsed)
	if err != nil {
		// Run-level failure outside row isolation. Mark the run failed
		// best-effort, then propagate.
		rowZero := []model.RowError{{Row: 0, Error: err.Error()}}
		if ferr := s.uploads.Finalize(ctx, run.ID, model.UploadStatusFailed, 0, 0, 0, rowZero); ferr != nil {
			s.log.Error().Err(ferr).Int64("upload_id", run.ID).Msg("Could not mark upload run failed")
		}
		return nil, err
	}
	return report, nil
}

// importRows handles the happy path after parsing produced at least one
// valid row. Individual row failures and duplicates do not fail the run.
func (s *UploadService) importRows(ctx context.Context, run *model.CSVUpload, parsed ParseResult) (*model.UploadReport, error) {
	if err := s.uploads.SetTotalRows(ctx, run.ID, len(parsed.Rows)); err != nil {
		return nil, fmt.Errorf("update upload run: %w", err)
	}

	questions := make([]model.Question, len(parsed.Rows))
	for i, row := range parsed.Rows {
		questions[i] = questionFromRow(row)
	}

	imported := s.questions.ImportBatch(ctx, questions)

	// Parse errors first, then import errors, each group in row order.
	allErrors := make([]model.RowError, 0, len(parsed.Errors)+len(imported.Errors))
	allErrors = append(allErrors, parsed.Errors...)
	allErrors = append(allErrors, imported.Errors...)

	failed := imported.Failures + len(parsed.Errors)

	if err := s.uploads.Finalize(ctx, run.ID, model.UploadStatusCompleted,
		imported.SuccessfulImports, failed, imported.Duplicates, allErrors); err != nil {
		return nil, fmt.Errorf("finalize upload run: %w", err)
	}

	s.log.Info().
		Int64("upload_id", run.ID).
		Int("total_rows", len(parsed.Rows)).
		Int("imported", imported.SuccessfulImports).
		Int("duplicates", imported.Duplicates).
		Int("failed", failed).
		Msg("Upload run completed")

	return &model.UploadReport{
		UploadID:          run.ID,
		Filename:          run.Filename,
		TotalRows:         len(parsed.Rows),
		SuccessfulImports: imported.SuccessfulImports,
		FailedImports:     failed,
		DuplicateCount:    imported.Duplicates,
		Errors:            allErrors,
		Status:            model.UploadStatusCompleted,
	}, nil
}

// GetByID retrieves one upload run with its error summary.
func (s *UploadService) GetByID(ctx context.Context, id int64) (*model.CSVUpload, error) {
	return s.uploads.GetByID(ctx, id)
}

// List retrieves upload history with pagination, most recent first.
func (s *UploadService) List(ctx context.Context, page, perPage int) ([]model.CSVUpload, *response.Pagination, error) {
	page, perPage = clampPageParams(page, perPage)

	uploads, total, err := s.uploads.List(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if uploads == nil {
		uploads = []model.CSVUpload{}
	}
	return uploads, paginationFor(page, perPage, total), nil
}

// questionFromRow expands one parsed row into a question owning its four
// answer options, marking correct the option whose label matches the row's
// correct column.
func questionFromRow(row ParsedRow) model.Question {
	texts := [4]string{row.AnswerA, row.AnswerB, row.AnswerC, row.AnswerD}
	answers := make([]model.AnswerOption, 0, len(model.OptionLabels))
	for i, label := range model.OptionLabels {
		answers = append(answers, model.AnswerOption{
			OptionLabel: label,
			AnswerText:  texts[i],
			IsCorrect:   row.Correct == label,
		})
	}
	return model.Question{QuestionText: row.Question, Answers: answers}
}
