package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quizprep/quizprep-backend/internal/model"
	"github.com/quizprep/quizprep-backend/internal/response"
	"github.com/quizprep/quizprep-backend/internal/service"
	"github.com/quizprep/quizprep-backend/internal/validator"
)

// QuestionHandler handles admin question management endpoints.
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// ImportQuestionsRequest is the payload for bulk question upload.
type ImportQuestionsRequest struct {
	QuizID    uuid.UUID                 `json:"quizId" binding:"required"`
	Questions []model.QuestionImportDoc `json:"questions" binding:"required,min=1"`
}

// ListQuestions godoc
// GET /api/v1/questions?quizId=… (admin)
// Returns a quiz's questions in order, correct answers included.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	quizID, err := uuid.Parse(c.Query("quizId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	questions, err := h.questionService.ListByQuiz(c.Request.Context(), quizID)
	if err != nil {
		if errors.Is(err, service.ErrQuizNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, questions)
}

// ImportQuestions godoc
// POST /api/v1/questions/import?preview=true&replace=true (admin)
// Bulk-uploads questions. preview=true validates without writing;
// replace=true drops the quiz's existing questions first.
func (h *QuestionHandler) ImportQuestions(c *gin.Context) {
	var req ImportQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	mode := service.ImportModeAppend
	switch {
	case c.Query("preview") == "true":
		mode = service.ImportModePreview
	case c.Query("replace") == "true":
		mode = service.ImportModeReplace
	}

	report, err := h.questionService.Import(c.Request.Context(), req.QuizID, req.Questions, mode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQuizNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrImportInvalid):
			response.FailWithFields(c, http.StatusBadRequest, response.ErrImportInvalid, importIssueFields(report.Issues))
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	status := http.StatusCreated
	if mode == service.ImportModePreview {
		status = http.StatusOK
	}
	response.Success(c, status, gin.H{
		"validCount": len(report.Valid),
		"errorCount": len(report.Issues),
		"errors":     report.Issues,
	})
}

// UpdateQuestion godoc
// PUT /api/v1/questions/:id (admin)
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Update(c.Request.Context(), questionID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQuestionNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrImportInvalid):
			response.Fail(c, http.StatusBadRequest, response.ErrValidation)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	response.Success(c, http.StatusOK, question)
}

// DeleteQuestion godoc
// DELETE /api/v1/questions/:id (admin)
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), questionID); err != nil {
		if errors.Is(err, service.ErrQuestionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// importIssueFields flattens import issues into the envelope's field map.
func importIssueFields(issues []service.ImportIssue) map[string]string {
	fields := make(map[string]string, len(issues))
	for _, issue := range issues {
		fields[fmt.Sprintf("questions[%d].%s", issue.Index, issue.Field)] = issue.Message
	}
	return fields
}
