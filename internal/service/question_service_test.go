package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/quizbank/backend/internal/model"
	"github.com/quizbank/backend/internal/repository"
	"github.com/rs/zerolog"
)

func newTestQuestionService(t *testing.T, store *fakeQuestionStore) *QuestionService {
	t.Helper()
	return NewQuestionService(store, nil, zerolog.Nop())
}

func testQuestion(text string) model.Question {
	return questionFromRow(ParsedRow{
		Question: text,
		AnswerA:  "one",
		AnswerB:  "two",
		AnswerC:  "three",
		AnswerD:  "four",
		Correct:  "a",
	})
}

func TestImportBatch_AllNewQuestions(t *testing.T) {
	store := &fakeQuestionStore{}
	svc := newTestQuestionService(t, store)

	batch := []model.Question{testQuestion("q1"), testQuestion("q2"), testQuestion("q3")}
	result := svc.ImportBatch(context.Background(), batch)

	if result.TotalProcessed != 3 || result.SuccessfulImports != 3 {
		t.Fatalf("expected 3/3 imported, got %+v", result)
	}
	if result.Duplicates != 0 || result.Failures != 0 || len(result.Errors) != 0 {
		t.Fatalf("expected clean result, got %+v", result)
	}
	if len(store.questions) != 3 {
		t.Fatalf("expected 3 persisted questions, got %d", len(store.questions))
	}
}

func TestImportBatch_AnswersSurviveImport(t *testing.T) {
	store := &fakeQuestionStore{}
	svc := newTestQuestionService(t, store)

	q := questionFromRow(ParsedRow{
		Question: "which label wins?",
		AnswerA:  "alpha", AnswerB: "bravo", AnswerC: "charlie", AnswerD: "delta",
		Correct: "c",
	})
	svc.ImportBatch(context.Background(), []model.Question{q})

	stored := store.questions[0]
	if len(stored.Answers) != 4 {
		t.Fatalf("expected 4 answers, got %d", len(stored.Answers))
	}
	if stored.CorrectLabel() != "c" {
		t.Errorf("expected correct label c, got %q", stored.CorrectLabel())
	}
	texts := map[string]string{}
	for _, a := range stored.Answers {
		texts[a.OptionLabel] = a.AnswerText
	}
	if texts["a"] != "alpha" || texts["d"] != "delta" {
		t.Errorf("answer texts misplaced: %v", texts)
	}
}

func TestImportBatch_SkipsPersistedDuplicates(t *testing.T) {
	store := &fakeQuestionStore{}
	svc := newTestQuestionService(t, store)

	seed := testQuestion("already here")
	if err := store.Create(context.Background(), &seed); err != nil {
		t.Fatal(err)
	}

	result := svc.ImportBatch(context.Background(), []model.Question{testQuestion("already here")})

	if result.SuccessfulImports != 0 || result.Duplicates != 1 {
		t.Fatalf("expected duplicate skip, got %+v", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].Row != 2 {
		t.Fatalf("expected row-2 error, got %v", result.Errors)
	}
	if want := `Duplicate question: "already here..."`; result.Errors[0].Error != want {
		t.Errorf("unexpected message: %q", result.Errors[0].Error)
	}
	if len(store.questions) != 1 {
		t.Errorf("duplicate was persisted anyway")
	}
}

func TestImportBatch_DetectsDuplicateWithinBatch(t *testing.T) {
	store := &fakeQuestionStore{}
	svc := newTestQuestionService(t, store)

	batch := []model.Question{testQuestion("same text"), testQuestion("same text")}
	result := svc.ImportBatch(context.Background(), batch)

	if result.SuccessfulImports != 1 || result.Duplicates != 1 {
		t.Fatalf("expected first in, second skipped, got %+v", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].Row != 3 {
		t.Fatalf("expected the second row flagged, got %v", result.Errors)
	}
}

func TestImportBatch_FailureDoesNotAbortBatch(t *testing.T) {
	store := &fakeQuestionStore{
		createErrs: map[string]error{"q2": errors.New("connection reset")},
	}
	svc := newTestQuestionService(t, store)

	batch := []model.Question{testQuestion("q1"), testQuestion("q2"), testQuestion("q3")}
	result := svc.ImportBatch(context.Background(), batch)

	if result.SuccessfulImports != 2 || result.Failures != 1 {
		t.Fatalf("expected 2 imported and 1 failure, got %+v", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].Row != 3 {
		t.Fatalf("expected row-3 error, got %v", result.Errors)
	}
	if want := "Failed to import: connection reset"; result.Errors[0].Error != want {
		t.Errorf("unexpected message: %q", result.Errors[0].Error)
	}
	if len(store.questions) != 2 {
		t.Errorf("expected 2 persisted questions, got %d", len(store.questions))
	}
}

func TestImportBatch_ConstraintRaceCountsAsDuplicate(t *testing.T) {
	// ExistsByText misses but Create hits the unique constraint: the row
	// must land in the duplicate bucket, not the failure one.
	store := &fakeQuestionStore{
		createErrs: map[string]error{"raced": repository.ErrDuplicateQuestion},
	}
	svc := newTestQuestionService(t, store)

	result := svc.ImportBatch(context.Background(), []model.Question{testQuestion("raced")})

	if result.Duplicates != 1 || result.Failures != 0 {
		t.Fatalf("constraint violation misclassified: %+v", result)
	}
	if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0].Error, "Duplicate question: ") {
		t.Fatalf("expected duplicate message, got %v", result.Errors)
	}
}

func TestImportBatch_ExistsCheckFailureIsRowFailure(t *testing.T) {
	store := &fakeQuestionStore{existsErr: errors.New("db down")}
	svc := newTestQuestionService(t, store)

	result := svc.ImportBatch(context.Background(), []model.Question{testQuestion("q1"), testQuestion("q2")})

	if result.SuccessfulImports != 0 || result.Failures != 2 {
		t.Fatalf("expected every row to fail, got %+v", result)
	}
	for i, e := range result.Errors {
		if e.Row != i+2 || e.Error != "Failed to import: db down" {
			t.Errorf("unexpected error %d: %+v", i, e)
		}
	}
}

func TestDuplicateMessage_TruncatesLongQuestions(t *testing.T) {
	long := strings.Repeat("x", 60)
	got := duplicateMessage("  " + long + "  ")
	want := `Duplicate question: "` + strings.Repeat("x", 50) + `..."`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestList_NewestFirstWithPagination(t *testing.T) {
	store := &fakeQuestionStore{}
	svc := newTestQuestionService(t, store)
	ctx := context.Background()

	for _, text := range []string{"first", "second", "third"} {
		q := testQuestion(text)
		if err := svc.Create(ctx, &q); err != nil {
			t.Fatal(err)
		}
	}

	questions, pagination, err := svc.List(ctx, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(questions) != 2 || questions[0].QuestionText != "third" || questions[1].QuestionText != "second" {
		t.Fatalf("expected newest first, got %+v", questions)
	}
	if pagination.TotalItems != 3 || pagination.TotalPages != 2 {
		t.Errorf("unexpected pagination: %+v", pagination)
	}

	questions, _, err = svc.List(ctx, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(questions) != 1 || questions[0].QuestionText != "first" {
		t.Fatalf("unexpected second page: %+v", questions)
	}
}

func TestList_ClampsPageParams(t *testing.T) {
	svc := newTestQuestionService(t, &fakeQuestionStore{})

	_, pagination, err := svc.List(context.Background(), -3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if pagination.Page != 1 || pagination.PerPage != 20 {
		t.Errorf("params not clamped: %+v", pagination)
	}
}

func TestDeleteAll_ReportsCount(t *testing.T) {
	store := &fakeQuestionStore{}
	svc := newTestQuestionService(t, store)
	ctx := context.Background()

	svc.ImportBatch(ctx, []model.Question{testQuestion("q1"), testQuestion("q2")})

	deleted, err := svc.DeleteAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}
	if n, _ := svc.Count(ctx); n != 0 {
		t.Errorf("expected empty store, got %d", n)
	}
}
