package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/quizbank/backend/internal/model"
	"github.com/quizbank/backend/internal/response"
)

func postJSON(t *testing.T, payload interface{}) (*bytes.Buffer, string) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewBuffer(raw), "application/json"
}

func validCreateRequest(text string) model.CreateQuestionRequest {
	return model.CreateQuestionRequest{
		QuestionText: text,
		Answers: []model.CreateAnswerRequest{
			{OptionLabel: "a", AnswerText: "one", IsCorrect: true},
			{OptionLabel: "b", AnswerText: "two"},
			{OptionLabel: "c", AnswerText: "three"},
			{OptionLabel: "d", AnswerText: "four"},
		},
	}
}

func TestCreateQuestion_RoundTrip(t *testing.T) {
	r, store := newTestRouter(t)
	body, contentType := postJSON(t, validCreateRequest("handmade question"))

	w := doRequest(t, r, http.MethodPost, "/api/v1/questions", body, contentType)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if len(store.questions) != 1 {
		t.Fatalf("expected 1 persisted question, got %d", len(store.questions))
	}

	var data struct {
		Question model.Question `json:"question"`
	}
	decodeEnvelope(t, w, &data)
	if data.Question.ID == 0 || data.Question.QuestionText != "handmade question" {
		t.Errorf("unexpected question: %+v", data.Question)
	}
}

func TestCreateQuestion_DuplicateConflict(t *testing.T) {
	r, _ := newTestRouter(t)

	body, contentType := postJSON(t, validCreateRequest("twice"))
	doRequest(t, r, http.MethodPost, "/api/v1/questions", body, contentType)

	body, contentType = postJSON(t, validCreateRequest("twice"))
	w := doRequest(t, r, http.MethodPost, "/api/v1/questions", body, contentType)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	envelope := decodeEnvelope(t, w, nil)
	if envelope.Error == nil || envelope.Error.Code != response.ErrDuplicateQuestion {
		t.Errorf("unexpected error body: %+v", envelope.Error)
	}
}

func TestCreateQuestion_ValidationFailures(t *testing.T) {
	cases := map[string]func(*model.CreateQuestionRequest){
		"empty question text": func(req *model.CreateQuestionRequest) { req.QuestionText = "" },
		"three answers":       func(req *model.CreateQuestionRequest) { req.Answers = req.Answers[:3] },
		"bad option label":    func(req *model.CreateQuestionRequest) { req.Answers[3].OptionLabel = "e" },
		"duplicate labels":    func(req *model.CreateQuestionRequest) { req.Answers[1].OptionLabel = "a" },
		"no correct answer":   func(req *model.CreateQuestionRequest) { req.Answers[0].IsCorrect = false },
		"two correct answers": func(req *model.CreateQuestionRequest) { req.Answers[1].IsCorrect = true },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			r, store := newTestRouter(t)
			req := validCreateRequest("q")
			mutate(&req)
			body, contentType := postJSON(t, req)

			w := doRequest(t, r, http.MethodPost, "/api/v1/questions", body, contentType)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
			envelope := decodeEnvelope(t, w, nil)
			if envelope.Error == nil || envelope.Error.Code != response.ErrValidation {
				t.Errorf("unexpected error body: %+v", envelope.Error)
			}
			if len(store.questions) != 0 {
				t.Errorf("invalid payload was persisted")
			}
		})
	}
}

func TestListQuestions_NewestFirst(t *testing.T) {
	r, _ := newTestRouter(t)
	for _, text := range []string{"first", "second", "third"} {
		body, contentType := postJSON(t, validCreateRequest(text))
		doRequest(t, r, http.MethodPost, "/api/v1/questions", body, contentType)
	}

	w := doRequest(t, r, http.MethodGet, "/api/v1/questions?page=1&per_page=2", nil, "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var data struct {
		Questions []model.Question `json:"questions"`
	}
	envelope := decodeEnvelope(t, w, &data)

	if len(data.Questions) != 2 || data.Questions[0].QuestionText != "third" {
		t.Errorf("expected newest first, got %+v", data.Questions)
	}
	if envelope.Pagination == nil || envelope.Pagination.TotalItems != 3 || envelope.Pagination.TotalPages != 2 {
		t.Errorf("unexpected pagination: %+v", envelope.Pagination)
	}
}

func TestCountQuestions(t *testing.T) {
	r, _ := newTestRouter(t)
	body, contentType := postJSON(t, validCreateRequest("only one"))
	doRequest(t, r, http.MethodPost, "/api/v1/questions", body, contentType)

	w := doRequest(t, r, http.MethodGet, "/api/v1/questions/count", nil, "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var data struct {
		Count int `json:"count"`
	}
	decodeEnvelope(t, w, &data)
	if data.Count != 1 {
		t.Errorf("expected count 1, got %d", data.Count)
	}
}

func TestGetQuestion_NotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(t, r, http.MethodGet, "/api/v1/questions/42", nil, "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	envelope := decodeEnvelope(t, w, nil)
	if envelope.Error == nil || envelope.Error.Code != response.ErrNotFound {
		t.Errorf("unexpected error body: %+v", envelope.Error)
	}
}

func TestGetQuestion_InvalidID(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(t, r, http.MethodGet, "/api/v1/questions/not-a-number", nil, "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestDeleteAllQuestions(t *testing.T) {
	r, store := newTestRouter(t)
	for _, text := range []string{"q1", "q2"} {
		body, contentType := postJSON(t, validCreateRequest(text))
		doRequest(t, r, http.MethodPost, "/api/v1/questions", body, contentType)
	}

	w := doRequest(t, r, http.MethodDelete, "/api/v1/questions", nil, "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var data struct {
		DeletedCount int64 `json:"deleted_count"`
	}
	decodeEnvelope(t, w, &data)
	if data.DeletedCount != 2 {
		t.Errorf("expected 2 deleted, got %d", data.DeletedCount)
	}
	if len(store.questions) != 0 {
		t.Errorf("questions remained after delete-all")
	}
}
