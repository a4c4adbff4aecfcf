package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quizbank/backend/internal/model"
	"github.com/quizbank/backend/internal/repository"
	"github.com/quizbank/backend/internal/response"
	"github.com/quizbank/backend/internal/service"
	"github.com/quizbank/backend/internal/validator"
)

// QuestionHandler handles question query and management endpoints.
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// ListQuestions godoc
// GET /api/v1/questions
// Lists questions with pagination, newest first, answers ordered by label.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	questions, pagination, err := h.questionService.List(c.Request.Context(), page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"questions": questions}, pagination)
}

// CountQuestions godoc
// GET /api/v1/questions/count
// Returns the total number of persisted questions.
func (h *QuestionHandler) CountQuestions(c *gin.Context) {
	count, err := h.questionService.Count(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"count": count})
}

// GetQuestion godoc
// GET /api/v1/questions/:id
// Returns a single question with its four answers.
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	question, err := h.questionService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrQuestionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// CreateQuestion godoc
// POST /api/v1/questions
// Manually creates one question with its four answers.
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if fields := validateAnswerSet(req.Answers); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question := &model.Question{
		QuestionText: req.QuestionText,
		Answers:      make([]model.AnswerOption, len(req.Answers)),
	}
	for i, a := range req.Answers {
		question.Answers[i] = model.AnswerOption{
			OptionLabel: a.OptionLabel,
			AnswerText:  a.AnswerText,
			IsCorrect:   a.IsCorrect,
		}
	}

	if err := h.questionService.Create(c.Request.Context(), question); err != nil {
		if errors.Is(err, repository.ErrDuplicateQuestion) {
			response.Fail(c, http.StatusConflict, response.ErrDuplicateQuestion)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// DeleteAllQuestions godoc
// DELETE /api/v1/questions
// Deletes every question and returns the deleted count.
func (h *QuestionHandler) DeleteAllQuestions(c *gin.Context) {
	deleted, err := h.questionService.DeleteAll(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted_count": deleted})
}

// validateAnswerSet enforces the cross-field rules binding tags cannot
// express: one answer per label a–d and exactly one marked correct.
func validateAnswerSet(answers []model.CreateAnswerRequest) map[string]string {
	seen := make(map[string]bool, len(answers))
	correct := 0
	for _, a := range answers {
		if seen[a.OptionLabel] {
			return map[string]string{"answers": "option label '" + a.OptionLabel + "' appears more than once"}
		}
		seen[a.OptionLabel] = true
		if a.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return map[string]string{"answers": "exactly one answer must be marked correct"}
	}
	return nil
}
