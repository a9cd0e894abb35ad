package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quizprep/quizprep-backend/internal/model"
)

// AttemptRepository handles attempt data access. The attempt row is the only
// mutable entity in the system; both mutating statements below are guarded by
// status = 'ongoing' so a completed attempt can never be written again.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Create inserts a new ongoing attempt. Start time and deadline are set by
// the caller from one clock reading so deadline - start_time is exactly the
// quiz duration. The generated id is written back into a.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO attempts (quiz_id, user_id, start_time, deadline, answers)
		 VALUES ($1, $2, $3, $4, '{}'::jsonb)
		 RETURNING id, status`,
		a.QuizID, a.UserID, a.StartTime, a.Deadline,
	).Scan(&a.ID, &a.Status)
}

// GetByID retrieves an attempt.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, quiz_id, user_id, start_time, deadline, end_time, answers, score, status
		 FROM attempts
		 WHERE id = $1`, id,
	).Scan(&a.ID, &a.QuizID, &a.UserID, &a.StartTime, &a.Deadline, &a.EndTime, &a.Answers, &a.Score, &a.Status)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// MergeAnswers overlays partial onto the stored answer set, last writer wins
// per question id. The merge happens inside PostgreSQL (jsonb ||) so
// concurrent autosaves never lose whole maps to read-modify-write races.
// Returns false if the attempt is no longer ongoing.
func (r *AttemptRepository) MergeAnswers(ctx context.Context, id uuid.UUID, partial model.AnswerSet) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE attempts
		 SET answers = answers || $2::jsonb
		 WHERE id = $1 AND status = 'ongoing'`,
		id, partial)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Complete finalizes an attempt: final answers, score, end time, completed
// status — in one statement, so the response is only ever built from durably
// persisted state. Returns false if another submit won the race.
func (r *AttemptRepository) Complete(ctx context.Context, id uuid.UUID, answers model.AnswerSet, score int, endTime time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE attempts
		 SET answers = $2::jsonb, score = $3, end_time = $4, status = 'completed'
		 WHERE id = $1 AND status = 'ongoing'`,
		id, answers, score, endTime)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListByUser retrieves all attempts for a user, newest first.
func (r *AttemptRepository) ListByUser(ctx context.Context, userID string) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, quiz_id, user_id, start_time, deadline, end_time, answers, score, status
		 FROM attempts
		 WHERE user_id = $1
		 ORDER BY start_time DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(&a.ID, &a.QuizID, &a.UserID, &a.StartTime, &a.Deadline, &a.EndTime, &a.Answers, &a.Score, &a.Status); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// LatestCompletedByQuiz returns, per quiz id, the user's most recent
// completed attempt. Used to enrich the quiz listing.
func (r *AttemptRepository) LatestCompletedByQuiz(ctx context.Context, userID string, quizIDs []uuid.UUID) (map[uuid.UUID]model.Attempt, error) {
	if len(quizIDs) == 0 {
		return map[uuid.UUID]model.Attempt{}, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT ON (quiz_id)
		        id, quiz_id, user_id, start_time, deadline, end_time, answers, score, status
		 FROM attempts
		 WHERE user_id = $1 AND quiz_id = ANY($2) AND status = 'completed'
		 ORDER BY quiz_id, start_time DESC`, userID, quizIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	latest := make(map[uuid.UUID]model.Attempt, len(quizIDs))
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(&a.ID, &a.QuizID, &a.UserID, &a.StartTime, &a.Deadline, &a.EndTime, &a.Answers, &a.Score, &a.Status); err != nil {
			return nil, err
		}
		latest[a.QuizID] = a
	}
	return latest, rows.Err()
}
