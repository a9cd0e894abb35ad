package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quizprep/quizprep-backend/internal/model"
)

// QuizListFilter narrows the paginated quiz listing.
type QuizListFilter struct {
	SubjectID  *uuid.UUID
	SemesterID *uuid.UUID
	Search     string
	Oldest     bool // sort by created_at ascending instead of descending
}

// QuizRepository handles quiz metadata access.
type QuizRepository struct {
	pool *pgxpool.Pool
}

// NewQuizRepository creates a new QuizRepository.
func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

// GetByID retrieves a quiz by its UUID.
func (r *QuizRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	q := &model.Quiz{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, duration_minutes, subject_id, is_active, created_at
		 FROM quizzes
		 WHERE id = $1`, id,
	).Scan(&q.ID, &q.Title, &q.DurationMinutes, &q.SubjectID, &q.IsActive, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Create inserts a new quiz, active by default.
func (r *QuizRepository) Create(ctx context.Context, q *model.Quiz) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO quizzes (title, duration_minutes, subject_id, is_active)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		q.Title, q.DurationMinutes, q.SubjectID, q.IsActive,
	).Scan(&q.ID, &q.CreatedAt)
}

// ListActive retrieves every active quiz, used to prewarm the payload cache
// at startup.
func (r *QuizRepository) ListActive(ctx context.Context) ([]model.Quiz, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, duration_minutes, subject_id, is_active, created_at
		 FROM quizzes
		 WHERE is_active`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quizzes []model.Quiz
	for rows.Next() {
		var q model.Quiz
		if err := rows.Scan(&q.ID, &q.Title, &q.DurationMinutes, &q.SubjectID, &q.IsActive, &q.CreatedAt); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

// List retrieves quizzes with optional subject/semester/search filters and
// pagination. Returns the page and the unpaginated total.
func (r *QuizRepository) List(ctx context.Context, f QuizListFilter, limit, offset int) ([]model.Quiz, int, error) {
	baseQuery := `
		FROM quizzes q
		JOIN subjects s ON q.subject_id = s.id
		WHERE TRUE
	`
	args := []any{}

	if f.SubjectID != nil {
		args = append(args, *f.SubjectID)
		baseQuery += fmt.Sprintf(" AND q.subject_id = $%d", len(args))
	}
	if f.SemesterID != nil {
		args = append(args, *f.SemesterID)
		baseQuery += fmt.Sprintf(" AND s.semester_id = $%d", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		baseQuery += fmt.Sprintf(" AND q.title ILIKE $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "DESC"
	if f.Oldest {
		order = "ASC"
	}

	query := `SELECT q.id, q.title, q.duration_minutes, q.subject_id, q.is_active, q.created_at ` +
		baseQuery +
		fmt.Sprintf(" ORDER BY q.created_at %s LIMIT $%d OFFSET $%d", order, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var quizzes []model.Quiz
	for rows.Next() {
		var q model.Quiz
		if err := rows.Scan(&q.ID, &q.Title, &q.DurationMinutes, &q.SubjectID, &q.IsActive, &q.CreatedAt); err != nil {
			return nil, 0, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, total, rows.Err()
}
