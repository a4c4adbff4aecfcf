package model

import (
	"time"
)

// OptionLabels are the four fixed answer slots every question owns,
// in storage and presentation order.
var OptionLabels = [4]string{"a", "b", "c", "d"}

// Question represents a single multiple-choice quiz question.
// Answers always holds exactly four options, one per label a–d.
type Question struct {
	ID           int64          `json:"id"`
	QuestionText string         `json:"question_text"`
	Answers      []AnswerOption `json:"answers"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// AnswerOption is one of the four possible answers (a, b, c, d) for a question.
type AnswerOption struct {
	ID          int64     `json:"id"`
	QuestionID  int64     `json:"question_id"`
	OptionLabel string    `json:"option_label"`
	AnswerText  string    `json:"answer_text"`
	IsCorrect   bool      `json:"is_correct"`
	CreatedAt   time.Time `json:"created_at"`
}

// CorrectLabel returns the label of the answer marked correct, or "" if the
// question carries no correct option (never the case for persisted questions).
func (q *Question) CorrectLabel() string {
	for _, a := range q.Answers {
		if a.IsCorrect {
			return a.OptionLabel
		}
	}
	return ""
}

// CreateQuestionRequest is the payload for manually creating a question.
type CreateQuestionRequest struct {
	QuestionText string                `json:"question_text" binding:"required,max=2000"`
	Answers      []CreateAnswerRequest `json:"answers" binding:"required,len=4,dive"`
}

// CreateAnswerRequest is one answer option in a manual create payload.
type CreateAnswerRequest struct {
	OptionLabel string `json:"option_label" binding:"required,oneof=a b c d"`
	AnswerText  string `json:"answer_text" binding:"required,max=500"`
	IsCorrect   bool   `json:"is_correct"`
}
