package handler

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quizbank/backend/internal/repository"
	"github.com/quizbank/backend/internal/response"
	"github.com/quizbank/backend/internal/service"
)

// UploadHandler handles CSV ingestion and upload history endpoints.
type UploadHandler struct {
	uploadService  *service.UploadService
	maxUploadBytes int64
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(uploadService *service.UploadService, maxUploadBytes int64) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, maxUploadBytes: maxUploadBytes}
}

// UploadCSV godoc
// POST /api/v1/uploads
// Ingests a CSV file of quiz questions and returns the upload report.
// Row-level problems are part of the report; only infrastructure failures
// produce an error status.
func (h *UploadHandler) UploadCSV(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFile)
		return
	}
	if header.Size > h.maxUploadBytes {
		response.Fail(c, http.StatusBadRequest, response.ErrFileTooLarge)
		return
	}

	// Trust the actual stream length over the multipart header.
	content, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if int64(len(content)) > h.maxUploadBytes {
		response.Fail(c, http.StatusBadRequest, response.ErrFileTooLarge)
		return
	}

	report, err := h.uploadService.ProcessUpload(c.Request.Context(), header.Filename, content, int64(len(content)))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"report": report})
}

// ListUploads godoc
// GET /api/v1/uploads
// Returns upload history, most recent first.
func (h *UploadHandler) ListUploads(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	uploads, pagination, err := h.uploadService.List(c.Request.Context(), page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"uploads": uploads}, pagination)
}

// GetUpload godoc
// GET /api/v1/uploads/:id
// Returns one upload run with its error summary.
func (h *UploadHandler) GetUpload(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	upload, err := h.uploadService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrUploadNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"upload": upload})
}
