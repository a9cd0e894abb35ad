package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quizprep/quizprep-backend/internal/model"
	"github.com/quizprep/quizprep-backend/internal/response"
	"github.com/quizprep/quizprep-backend/internal/service"
	"github.com/quizprep/quizprep-backend/internal/validator"
)

// AttemptHandler handles the attempt lifecycle endpoints.
type AttemptHandler struct {
	attemptService *service.AttemptService
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attemptService *service.AttemptService) *AttemptHandler {
	return &AttemptHandler{attemptService: attemptService}
}

// StartAttempt godoc
// POST /api/v1/attempts/start
// Starts a new attempt and returns the sanitized question paper.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	var req model.StartAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.attemptService.Start(c.Request.Context(), req.QuizID, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQuizNotFound), errors.Is(err, service.ErrQuizInactive):
			response.Fail(c, http.StatusNotFound, response.ErrQuizNotAvailable)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// Autosave godoc
// PUT /api/v1/attempts/:id/autosave
// Merges a partial answer set into an ongoing attempt. An empty answer set
// is accepted as a heartbeat.
func (h *AttemptHandler) Autosave(c *gin.Context) {
	attemptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SaveAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	savedAt, err := h.attemptService.Autosave(c.Request.Context(), attemptID, req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAttemptNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrAttemptClosed):
			response.Fail(c, http.StatusBadRequest, response.ErrAttemptClosed)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"success": true, "savedAt": savedAt})
}

// SubmitAttempt godoc
// POST /api/v1/attempts/:id/submit
// Finalizes and scores an attempt. Submitting an already completed attempt
// returns the stored result, so retries are safe.
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	attemptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SaveAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	result, err := h.attemptService.Submit(c.Request.Context(), attemptID, req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAttemptNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, result)
}

// GetAttempt godoc
// GET /api/v1/attempts/:id
// Returns the attempt; once completed, the full per-question review with
// correct answers is included.
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	attemptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	review, err := h.attemptService.GetForReview(c.Request.Context(), attemptID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAttemptNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, review)
}

// History godoc
// GET /api/v1/attempts/history/:userId
// Lists a user's attempts, newest first.
func (h *AttemptHandler) History(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	attempts, err := h.attemptService.History(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, attempts)
}
