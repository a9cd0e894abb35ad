package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quizprep/quizprep-backend/internal/model"
)

// SemesterRepository handles semester data access.
type SemesterRepository struct {
	pool *pgxpool.Pool
}

// NewSemesterRepository creates a new SemesterRepository.
func NewSemesterRepository(pool *pgxpool.Pool) *SemesterRepository {
	return &SemesterRepository{pool: pool}
}

// List retrieves all semesters, oldest first.
func (r *SemesterRepository) List(ctx context.Context) ([]model.Semester, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, slug, created_at
		 FROM semesters
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var semesters []model.Semester
	for rows.Next() {
		var s model.Semester
		if err := rows.Scan(&s.ID, &s.Name, &s.Slug, &s.CreatedAt); err != nil {
			return nil, err
		}
		semesters = append(semesters, s)
	}
	return semesters, rows.Err()
}

// Create inserts a new semester. Name and slug are unique.
func (r *SemesterRepository) Create(ctx context.Context, s *model.Semester) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO semesters (name, slug)
		 VALUES ($1, $2)
		 RETURNING id, created_at`,
		s.Name, s.Slug,
	).Scan(&s.ID, &s.CreatedAt)
}

// SubjectRepository handles subject data access.
type SubjectRepository struct {
	pool *pgxpool.Pool
}

// NewSubjectRepository creates a new SubjectRepository.
func NewSubjectRepository(pool *pgxpool.Pool) *SubjectRepository {
	return &SubjectRepository{pool: pool}
}

// List retrieves subjects filtered by semester and a case-insensitive name
// search, sorted by name. limit <= 0 disables pagination.
func (r *SubjectRepository) List(ctx context.Context, semesterID *uuid.UUID, search string, limit, offset int) ([]model.Subject, int, error) {
	baseQuery := ` FROM subjects WHERE TRUE`
	args := []any{}

	if semesterID != nil {
		args = append(args, *semesterID)
		baseQuery += fmt.Sprintf(" AND semester_id = $%d", len(args))
	}
	if search != "" {
		args = append(args, "%"+search+"%")
		baseQuery += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*)"+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, name, slug, semester_id, created_at` + baseQuery + ` ORDER BY name ASC`
	if limit > 0 {
		args = append(args, limit, offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var subjects []model.Subject
	for rows.Next() {
		var s model.Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.Slug, &s.SemesterID, &s.CreatedAt); err != nil {
			return nil, 0, err
		}
		subjects = append(subjects, s)
	}
	return subjects, total, rows.Err()
}

// Create inserts a new subject. (semester_id, name) is unique.
func (r *SubjectRepository) Create(ctx context.Context, s *model.Subject) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO subjects (name, slug, semester_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		s.Name, s.Slug, s.SemesterID,
	).Scan(&s.ID, &s.CreatedAt)
}
