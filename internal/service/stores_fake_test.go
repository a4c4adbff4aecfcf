package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/quizbank/backend/internal/model"
	"github.com/quizbank/backend/internal/repository"
)

// fakeQuestionStore is an in-memory QuestionStore. It mirrors the repository's
// contract: trimmed-text uniqueness, ErrDuplicateQuestion on conflicting
// creates, newest-first listing.
type fakeQuestionStore struct {
	questions []model.Question
	nextID    int64

	existsErr  error            // forced ExistsByText failure
	createErrs map[string]error // question text -> forced Create failure
}

func (f *fakeQuestionStore) has(text string) bool {
	trimmed := strings.TrimSpace(text)
	for _, q := range f.questions {
		if q.QuestionText == trimmed {
			return true
		}
	}
	return false
}

func (f *fakeQuestionStore) Create(_ context.Context, q *model.Question) error {
	if err, ok := f.createErrs[q.QuestionText]; ok {
		return err
	}
	if f.has(q.QuestionText) {
		return repository.ErrDuplicateQuestion
	}

	f.nextID++
	q.ID = f.nextID
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt
	for i := range q.Answers {
		f.nextID++
		q.Answers[i].ID = f.nextID
		q.Answers[i].QuestionID = q.ID
		q.Answers[i].CreatedAt = q.CreatedAt
	}
	f.questions = append(f.questions, *q)
	return nil
}

func (f *fakeQuestionStore) ExistsByText(_ context.Context, questionText string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.has(questionText), nil
}

func (f *fakeQuestionStore) GetByID(_ context.Context, id int64) (*model.Question, error) {
	for i := range f.questions {
		if f.questions[i].ID == id {
			q := f.questions[i]
			return &q, nil
		}
	}
	return nil, repository.ErrQuestionNotFound
}

func (f *fakeQuestionStore) List(_ context.Context, limit, offset int) ([]model.Question, int, error) {
	sorted := make([]model.Question, len(f.questions))
	copy(sorted, f.questions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID > sorted[j].ID })

	total := len(sorted)
	if offset >= total {
		return []model.Question{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return sorted[offset:end], total, nil
}

func (f *fakeQuestionStore) Count(_ context.Context) (int, error) {
	return len(f.questions), nil
}

func (f *fakeQuestionStore) DeleteAll(_ context.Context) (int64, error) {
	n := int64(len(f.questions))
	f.questions = nil
	return n, nil
}

// fakeUploadStore is an in-memory UploadStore.
type fakeUploadStore struct {
	runs   map[int64]*model.CSVUpload
	nextID int64

	createErr   error
	setRowsErr  error
	finalizeErr error
}

func newFakeUploadStore() *fakeUploadStore {
	return &fakeUploadStore{runs: make(map[int64]*model.CSVUpload)}
}

func (f *fakeUploadStore) Create(_ context.Context, u *model.CSVUpload) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	u.ID = f.nextID
	u.Status = model.UploadStatusProcessing
	u.UploadedAt = time.Now()
	f.runs[u.ID] = u
	return nil
}

func (f *fakeUploadStore) SetTotalRows(_ context.Context, id int64, totalRows int) error {
	if f.setRowsErr != nil {
		return f.setRowsErr
	}
	run, ok := f.runs[id]
	if !ok {
		return repository.ErrUploadNotFound
	}
	run.TotalRows = totalRows
	return nil
}

func (f *fakeUploadStore) Finalize(_ context.Context, id int64, status model.UploadStatus, successful, failed, duplicates int, errs []model.RowError) error {
	if f.finalizeErr != nil {
		return f.finalizeErr
	}
	run, ok := f.runs[id]
	if !ok {
		return repository.ErrUploadNotFound
	}
	run.Status = status
	run.SuccessfulImports = successful
	run.FailedImports = failed
	run.DuplicateCount = duplicates
	run.ErrorSummary = errs
	now := time.Now()
	run.CompletedAt = &now
	return nil
}

func (f *fakeUploadStore) GetByID(_ context.Context, id int64) (*model.CSVUpload, error) {
	run, ok := f.runs[id]
	if !ok {
		return nil, repository.ErrUploadNotFound
	}
	u := *run
	return &u, nil
}

func (f *fakeUploadStore) List(_ context.Context, limit, offset int) ([]model.CSVUpload, int, error) {
	sorted := make([]model.CSVUpload, 0, len(f.runs))
	for _, run := range f.runs {
		sorted = append(sorted, *run)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID > sorted[j].ID })

	total := len(sorted)
	if offset >= total {
		return []model.CSVUpload{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return sorted[offset:end], total, nil
}
