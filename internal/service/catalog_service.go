package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/quizprep/quizprep-backend/internal/model"
	"github.com/quizprep/quizprep-backend/internal/repository"
	"github.com/quizprep/quizprep-backend/internal/response"
)

var ErrDuplicateEntry = errors.New("an entry with that name already exists")

// CatalogService manages the semester/subject hierarchy quizzes hang off.
type CatalogService struct {
	semesterRepo *repository.SemesterRepository
	subjectRepo  *repository.SubjectRepository
	log          zerolog.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(semesterRepo *repository.SemesterRepository, subjectRepo *repository.SubjectRepository, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		semesterRepo: semesterRepo,
		subjectRepo:  subjectRepo,
		log:          log.With().Str("service", "catalog").Logger(),
	}
}

// ListSemesters retrieves all semesters, oldest first.
func (s *CatalogService) ListSemesters(ctx context.Context) ([]model.Semester, error) {
	semesters, err := s.semesterRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list semesters: %w", err)
	}
	if semesters == nil {
		semesters = []model.Semester{}
	}
	return semesters, nil
}

// CreateSemester inserts a new semester.
func (s *CatalogService) CreateSemester(ctx context.Context, req *model.CreateSemesterRequest) (*model.Semester, error) {
	semester := &model.Semester{Name: req.Name, Slug: req.Slug}
	if err := s.semesterRepo.Create(ctx, semester); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEntry
		}
		return nil, fmt.Errorf("create semester: %w", err)
	}
	return semester, nil
}

// ListSubjects retrieves subjects, optionally scoped to a semester and
// filtered by name. perPage <= 0 returns the full set unpaginated.
func (s *CatalogService) ListSubjects(ctx context.Context, semesterID *uuid.UUID, search string, page, perPage int) ([]model.Subject, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}

	limit, offset := perPage, 0
	if perPage > 0 {
		if perPage > 100 {
			perPage = 100
			limit = 100
		}
		offset = (page - 1) * perPage
	}

	subjects, total, err := s.subjectRepo.List(ctx, semesterID, search, limit, offset)
	if err != nil {
		return nil, nil, fmt.Errorf("list subjects: %w", err)
	}
	if subjects == nil {
		subjects = []model.Subject{}
	}

	if perPage <= 0 {
		return subjects, nil, nil
	}
	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return subjects, pagination, nil
}

// CreateSubject inserts a new subject under a semester.
func (s *CatalogService) CreateSubject(ctx context.Context, req *model.CreateSubjectRequest) (*model.Subject, error) {
	subject := &model.Subject{Name: req.Name, Slug: req.Slug, SemesterID: req.SemesterID}
	if err := s.subjectRepo.Create(ctx, subject); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEntry
		}
		return nil, fmt.Errorf("create subject: %w", err)
	}
	return subject, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
