package model

import (
	"time"
)

// UploadStatus is the lifecycle state of a CSV upload run.
type UploadStatus string

const (
	UploadStatusProcessing UploadStatus = "processing"
	UploadStatusCompleted  UploadStatus = "completed"
	UploadStatusFailed     UploadStatus = "failed"
)

// CSVUpload is the audit record for one upload run. It is created in the
// processing state when ingestion starts and finalized exactly once;
// runs are never deleted.
type CSVUpload struct {
	ID                int64        `json:"id"`
	Filename          string       `json:"filename"`
	FileSize          int64        `json:"file_size"`
	TotalRows         int          `json:"total_rows"`
	SuccessfulImports int          `json:"successful_imports"`
	FailedImports     int          `json:"failed_imports"`
	DuplicateCount    int          `json:"duplicate_count"`
	Status            UploadStatus `json:"status"`
	ErrorSummary      []RowError   `json:"error_summary,omitempty"`
	UploadedAt        time.Time    `json:"uploaded_at"`
	CompletedAt       *time.Time   `json:"completed_at,omitempty"`
}

// RowError ties one problem to the input file line it came from.
// Row 0 marks run-level errors (structural parse or infrastructure failures);
// data rows start at 2 because line 1 is the header.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// BatchImportResult aggregates the outcome of importing one batch of
// validated questions.
type BatchImportResult struct {
	TotalProcessed    int        `json:"total_processed"`
	SuccessfulImports int        `json:"successful_imports"`
	Duplicates        int        `json:"duplicates"`
	Failures          int        `json:"failures"`
	Errors            []RowError `json:"errors"`
}

// UploadReport is the caller-facing summary of one upload run.
// Errors lists parse-stage errors first, then import-stage errors,
// each group in ascending row order.
type UploadReport struct {
	UploadID          int64        `json:"upload_id"`
	Filename          string       `json:"filename"`
	TotalRows         int          `json:"total_rows"`
	SuccessfulImports int          `json:"successful_imports"`
	FailedImports     int          `json:"failed_imports"`
	DuplicateCount    int          `json:"duplicate_count"`
	Errors            []RowError   `json:"errors"`
	Status            UploadStatus `json:"status"`
}
