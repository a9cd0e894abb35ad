package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/quizprep/quizprep-backend/internal/evaluator"
	"github.com/quizprep/quizprep-backend/internal/model"
)

var (
	ErrQuizNotFound    = errors.New("quiz not found")
	ErrQuizInactive    = errors.New("quiz is not active")
	ErrAttemptNotFound = errors.New("attempt not found")
	ErrAttemptClosed   = errors.New("attempt is already completed")
)

// AttemptStore is the persistence surface the lifecycle needs. Satisfied by
// repository.AttemptRepository; tests swap in an in-memory fake.
type AttemptStore interface {
	Create(ctx context.Context, a *model.Attempt) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error)
	MergeAnswers(ctx context.Context, id uuid.UUID, partial model.AnswerSet) (bool, error)
	Complete(ctx context.Context, id uuid.UUID, answers model.AnswerSet, score int, endTime time.Time) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]model.Attempt, error)
}

// QuizProvider supplies quiz metadata and questions. Satisfied by QuizService,
// which fronts the repositories with the redis payload cache.
type QuizProvider interface {
	GetQuiz(ctx context.Context, id uuid.UUID) (*model.Quiz, error)
	QuestionsForQuiz(ctx context.Context, quizID uuid.UUID) ([]model.Question, error)
	PayloadForQuiz(ctx context.Context, quizID uuid.UUID) (*model.QuizPayload, error)
}

// AttemptService drives the attempt lifecycle: start, autosave, submit,
// review. An attempt only moves forward (ongoing → completed); once a final
// score is stored every later submit returns that same stored result.
type AttemptService struct {
	store   AttemptStore
	quizzes QuizProvider
	log     zerolog.Logger
	now     func() time.Time
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(store AttemptStore, quizzes QuizProvider, log zerolog.Logger) *AttemptService {
	return &AttemptService{
		store:   store,
		quizzes: quizzes,
		log:     log.With().Str("service", "attempt").Logger(),
		now:     time.Now,
	}
}

// Start validates the quiz and creates a fresh ongoing attempt. The deadline
// is fixed at start time plus the quiz duration and never moves afterwards.
// No attempt row is created when validation fails.
func (s *AttemptService) Start(ctx context.Context, quizID uuid.UUID, userID string) (*model.StartAttemptResult, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("load quiz: %w", err)
	}
	if !quiz.IsActive {
		return nil, ErrQuizInactive
	}

	payload, err := s.quizzes.PayloadForQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("load quiz payload: %w", err)
	}

	startTime := s.now().UTC().Truncate(time.Millisecond)
	attempt := &model.Attempt{
		QuizID:    quizID,
		UserID:    userID,
		StartTime: startTime,
		Deadline:  startTime.Add(time.Duration(quiz.DurationMinutes) * time.Minute),
		Answers:   model.AnswerSet{},
	}
	if err := s.store.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("quiz_id", quizID.String()).
		Str("user_id", userID).
		Time("deadline", attempt.Deadline).
		Msg("attempt started")

	return &model.StartAttemptResult{
		AttemptID: attempt.ID,
		Quiz:      model.QuizSummary{Title: quiz.Title, Duration: quiz.DurationMinutes},
		StartTime: attempt.StartTime,
		Deadline:  attempt.Deadline,
		Questions: payload.Questions,
	}, nil
}

// Autosave merges a partial answer set into an ongoing attempt. An empty set
// is a no-op heartbeat that still returns the saved timestamp. Past the
// deadline the attempt is finalized from its stored answers and the late
// partial is rejected with ErrAttemptClosed.
func (s *AttemptService) Autosave(ctx context.Context, attemptID uuid.UUID, partial model.AnswerSet) (time.Time, error) {
	attempt, err := s.getAttempt(ctx, attemptID)
	if err != nil {
		return time.Time{}, err
	}
	if attempt.Status == model.AttemptStatusCompleted {
		return time.Time{}, ErrAttemptClosed
	}

	now := s.now()
	if attempt.Expired(now) {
		if _, err := s.finalize(ctx, attempt, nil, attempt.Deadline); err != nil {
			return time.Time{}, err
		}
		return time.Time{}, ErrAttemptClosed
	}

	// Heartbeat: a missing or empty answer set writes nothing. This also
	// keeps a nil map out of the store, where it would marshal to jsonb
	// null and break the concatenation merge.
	if len(partial) == 0 {
		return now, nil
	}

	ok, err := s.store.MergeAnswers(ctx, attemptID, partial)
	if err != nil {
		return time.Time{}, fmt.Errorf("merge answers: %w", err)
	}
	if !ok {
		// A concurrent submit completed the attempt between our read and
		// the merge.
		return time.Time{}, ErrAttemptClosed
	}
	return now, nil
}

// Submit finalizes an attempt: final answers are merged over the autosaved
// set, every question is scored, and the result is persisted before the
// response is built. Submitting a completed attempt returns the stored
// result unchanged, so retries after a lost response are safe.
func (s *AttemptService) Submit(ctx context.Context, attemptID uuid.UUID, final model.AnswerSet) (*model.SubmitResult, error) {
	attempt, err := s.getAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status == model.AttemptStatusCompleted {
		return s.storedResult(ctx, attempt)
	}

	endTime := s.now().UTC().Truncate(time.Millisecond)
	if attempt.Expired(endTime) {
		// Late submit: the answers still count, but the recorded end time
		// is clamped to the deadline.
		endTime = attempt.Deadline
	}
	return s.finalize(ctx, attempt, final, endTime)
}

// GetForReview returns the attempt with its full question review once
// completed. While the attempt is ongoing only its own state is returned,
// never correct answers. A read past the deadline finalizes the attempt
// first, so an expired attempt reviews the same as a submitted one.
func (s *AttemptService) GetForReview(ctx context.Context, attemptID uuid.UUID) (*model.AttemptReview, error) {
	attempt, err := s.getAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}

	if attempt.Status == model.AttemptStatusOngoing && attempt.Expired(s.now()) {
		if _, err := s.finalize(ctx, attempt, nil, attempt.Deadline); err != nil {
			return nil, err
		}
		if attempt, err = s.getAttempt(ctx, attemptID); err != nil {
			return nil, err
		}
	}

	review := &model.AttemptReview{Attempt: *attempt}
	if attempt.Status != model.AttemptStatusCompleted {
		return review, nil
	}

	questions, err := s.quizzes.QuestionsForQuiz(ctx, attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	review.Questions = make([]model.QuestionReview, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		review.Questions = append(review.Questions, model.QuestionReview{
			ID:            q.ID,
			Type:          q.Type,
			Text:          q.Text,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			UserAnswer:    attempt.Answers[q.ID.String()],
		})
	}
	return review, nil
}

// History lists all of a user's attempts, newest first.
func (s *AttemptService) History(ctx context.Context, userID string) ([]model.Attempt, error) {
	attempts, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	if attempts == nil {
		attempts = []model.Attempt{}
	}
	return attempts, nil
}

func (s *AttemptService) getAttempt(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	attempt, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("load attempt: %w", err)
	}
	return attempt, nil
}

// finalize scores the merged answer set and completes the attempt in one
// guarded update. If a concurrent submit won the status race the stored
// result is returned instead, keeping submit idempotent under races.
func (s *AttemptService) finalize(ctx context.Context, attempt *model.Attempt, extra model.AnswerSet, endTime time.Time) (*model.SubmitResult, error) {
	questions, err := s.quizzes.QuestionsForQuiz(ctx, attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	answers := attempt.Answers.Merge(extra)
	score := 0
	for i := range questions {
		if evaluator.IsCorrect(&questions[i], answers[questions[i].ID.String()]) {
			score++
		}
	}

	ok, err := s.store.Complete(ctx, attempt.ID, answers, score, endTime)
	if err != nil {
		return nil, fmt.Errorf("complete attempt: %w", err)
	}
	if !ok {
		stored, err := s.getAttempt(ctx, attempt.ID)
		if err != nil {
			return nil, err
		}
		return s.storedResult(ctx, stored)
	}

	total := len(questions)
	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Int("score", score).
		Int("total", total).
		Msg("attempt completed")

	return &model.SubmitResult{
		Score:       score,
		Total:       total,
		Percentage:  percentage(score, total),
		CompletedAt: endTime,
	}, nil
}

// storedResult rebuilds a SubmitResult from an already completed attempt.
func (s *AttemptService) storedResult(ctx context.Context, attempt *model.Attempt) (*model.SubmitResult, error) {
	if attempt.Score == nil || attempt.EndTime == nil {
		return nil, fmt.Errorf("attempt %s is completed but has no stored result", attempt.ID)
	}
	questions, err := s.quizzes.QuestionsForQuiz(ctx, attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	total := len(questions)
	return &model.SubmitResult{
		Score:       *attempt.Score,
		Total:       total,
		Percentage:  percentage(*attempt.Score, total),
		CompletedAt: *attempt.EndTime,
	}, nil
}

// percentage is score/total scaled to 0..100. A quiz with no questions
// scores zero rather than dividing by zero.
func percentage(score, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(score) / float64(total) * 100
}
