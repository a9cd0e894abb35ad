package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quizprep/quizprep-backend/internal/model"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByQuiz retrieves a quiz's questions in stable order, correct answers
// included. Sanitization is the service layer's concern.
func (r *QuestionRepository) ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, quiz_id, type, text, options, correct_answer, order_num
		 FROM questions
		 WHERE quiz_id = $1
		 ORDER BY order_num ASC, id ASC`, quizID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Type, &q.Text, &q.Options, &q.CorrectAnswer, &q.OrderNum); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// InsertMany bulk-inserts questions in a single transaction.
func (r *QuestionRepository) InsertMany(ctx context.Context, questions []model.Question) error {
	if len(questions) == 0 {
		return nil
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for i := range questions {
			q := &questions[i]
			if err := tx.QueryRow(ctx,
				`INSERT INTO questions (quiz_id, type, text, options, correct_answer, order_num)
				 VALUES ($1, $2, $3, $4, $5, $6)
				 RETURNING id`,
				q.QuizID, q.Type, q.Text, q.Options, q.CorrectAnswer, q.OrderNum,
			).Scan(&q.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceForQuiz deletes a quiz's questions and inserts the new set
// atomically.
func (r *QuestionRepository) ReplaceForQuiz(ctx context.Context, quizID uuid.UUID, questions []model.Question) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE quiz_id = $1`, quizID); err != nil {
			return err
		}
		for i := range questions {
			q := &questions[i]
			if err := tx.QueryRow(ctx,
				`INSERT INTO questions (quiz_id, type, text, options, correct_answer, order_num)
				 VALUES ($1, $2, $3, $4, $5, $6)
				 RETURNING id`,
				q.QuizID, q.Type, q.Text, q.Options, q.CorrectAnswer, q.OrderNum,
			).Scan(&q.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// Update modifies a question and writes the owning quiz id back into q so
// callers can invalidate that quiz's cache. Returns false if the id does
// not exist.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) (bool, error) {
	err := r.pool.QueryRow(ctx,
		`UPDATE questions
		 SET type = $2, text = $3, options = $4, correct_answer = $5, order_num = $6
		 WHERE id = $1
		 RETURNING quiz_id`,
		q.ID, q.Type, q.Text, q.Options, q.CorrectAnswer, q.OrderNum,
	).Scan(&q.QuizID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes a question and reports the quiz it belonged to. Returns
// uuid.Nil and false if the id does not exist.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, bool, error) {
	var quizID uuid.UUID
	err := r.pool.QueryRow(ctx,
		`DELETE FROM questions WHERE id = $1 RETURNING quiz_id`, id,
	).Scan(&quizID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return quizID, true, nil
}

// CountByQuiz returns the question count per quiz id.
func (r *QuestionRepository) CountByQuiz(ctx context.Context, quizIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(quizIDs))
	if len(quizIDs) == 0 {
		return counts, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT quiz_id, COUNT(*)
		 FROM questions
		 WHERE quiz_id = ANY($1)
		 GROUP BY quiz_id`, quizIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
