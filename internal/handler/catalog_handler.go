package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/quizprep/quizprep-backend/internal/model"
	"github.com/quizprep/quizprep-backend/internal/repository"
	"github.com/quizprep/quizprep-backend/internal/response"
	"github.com/quizprep/quizprep-backend/internal/service"
	"github.com/quizprep/quizprep-backend/internal/validator"
)

// CatalogHandler handles the semester/subject/quiz catalog endpoints.
type CatalogHandler struct {
	catalogService *service.CatalogService
	quizService    *service.QuizService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService *service.CatalogService, quizService *service.QuizService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		quizService:    quizService,
	}
}

// ListSemesters godoc
// GET /api/v1/semesters
func (h *CatalogHandler) ListSemesters(c *gin.Context) {
	semesters, err := h.catalogService.ListSemesters(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, semesters)
}

// CreateSemester godoc
// POST /api/v1/semesters (admin)
func (h *CatalogHandler) CreateSemester(c *gin.Context) {
	var req model.CreateSemesterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	semester, err := h.catalogService.CreateSemester(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateEntry) {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, semester)
}

// ListSubjects godoc
// GET /api/v1/subjects?semesterId=&search=&page=&limit=
// Without paging params the full (filtered) set is returned as a plain array.
func (h *CatalogHandler) ListSubjects(c *gin.Context) {
	var semesterID *uuid.UUID
	if raw := c.Query("semesterId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		semesterID = &id
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage := 0
	if raw := c.Query("limit"); raw != "" {
		perPage, _ = strconv.Atoi(raw)
	}

	subjects, pagination, err := h.catalogService.ListSubjects(c.Request.Context(), semesterID, c.Query("search"), page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if pagination == nil {
		response.Success(c, http.StatusOK, subjects)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, subjects, pagination)
}

// CreateSubject godoc
// POST /api/v1/subjects (admin)
func (h *CatalogHandler) CreateSubject(c *gin.Context) {
	var req model.CreateSubjectRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	subject, err := h.catalogService.CreateSubject(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateEntry) {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, subject)
}

// ListQuizzes godoc
// GET /api/v1/quizzes?subjectId=&semesterId=&search=&sort=latest|oldest&page=&per_page=&userId=
// Each quiz is enriched with its question count; when userId is given, the
// user's latest completed attempt is attached as well.
func (h *CatalogHandler) ListQuizzes(c *gin.Context) {
	var filter repository.QuizListFilter

	if raw := c.Query("subjectId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		filter.SubjectID = &id
	}
	if raw := c.Query("semesterId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		filter.SemesterID = &id
	}
	filter.Search = c.Query("search")
	filter.Oldest = c.Query("sort") == "oldest"

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	quizzes, pagination, err := h.quizService.List(c.Request.Context(), filter, page, perPage, c.Query("userId"))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, quizzes, pagination)
}

// GetQuiz godoc
// GET /api/v1/quizzes/:id
func (h *CatalogHandler) GetQuiz(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	quiz, err := h.quizService.GetQuiz(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, quiz)
}

// CreateQuiz godoc
// POST /api/v1/quizzes (admin)
func (h *CatalogHandler) CreateQuiz(c *gin.Context) {
	var req model.CreateQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.quizService.Create(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, quiz)
}

// ImportQuiz godoc
// POST /api/v1/quizzes/import (admin)
// Creates a quiz and its questions from one portable JSON document.
func (h *CatalogHandler) ImportQuiz(c *gin.Context) {
	var req model.ImportQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, report, err := h.quizService.Import(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrImportInvalid) {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrImportInvalid, importIssueFields(report.Issues))
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"quiz":      quiz,
		"questions": len(report.Valid),
	})
}
