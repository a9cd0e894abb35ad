package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates attempt states. Transitions are monotonic:
// ongoing → completed, never back.
type AttemptStatus string

const (
	AttemptStatusOngoing   AttemptStatus = "ongoing"
	AttemptStatusCompleted AttemptStatus = "completed"
)

// AnswerSet maps question IDs to submitted values. Values keep their raw JSON
// shape (scalar, list or string, depending on the question type); the
// evaluator decodes each one according to the question's declared type.
type AnswerSet map[string]json.RawMessage

// Merge overlays other onto a copy of the set, last writer wins per key.
func (a AnswerSet) Merge(other AnswerSet) AnswerSet {
	merged := make(AnswerSet, len(a)+len(other))
	for k, v := range a {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// Attempt is one user's timed run through one quiz's questions.
// EndTime and Score are set exactly once, at completion, and are present
// iff Status is completed.
type Attempt struct {
	ID        uuid.UUID     `json:"id"`
	QuizID    uuid.UUID     `json:"quiz_id"`
	UserID    string        `json:"user_id"`
	StartTime time.Time     `json:"start_time"`
	Deadline  time.Time     `json:"deadline"`
	EndTime   *time.Time    `json:"end_time,omitempty"`
	Answers   AnswerSet     `json:"answers"`
	Score     *int          `json:"score,omitempty"`
	Status    AttemptStatus `json:"status"`
}

// Expired reports whether the attempt's deadline has passed at the given
// instant. Only meaningful while the attempt is ongoing.
func (a *Attempt) Expired(now time.Time) bool {
	return now.After(a.Deadline)
}

// StartAttemptRequest is the payload for starting a new attempt.
type StartAttemptRequest struct {
	QuizID uuid.UUID `json:"quizId" binding:"required"`
	UserID string    `json:"userId" binding:"required,min=1,max=128"`
}

// SaveAnswersRequest carries partial or final answers for autosave/submit.
type SaveAnswersRequest struct {
	Answers AnswerSet `json:"answers"`
}

// StartAttemptResult is returned when an attempt starts: the new attempt id,
// quiz summary, and the sanitized question list.
type StartAttemptResult struct {
	AttemptID uuid.UUID           `json:"attemptId"`
	Quiz      QuizSummary         `json:"quiz"`
	StartTime time.Time           `json:"startTime"`
	Deadline  time.Time           `json:"deadline"`
	Questions []SanitizedQuestion `json:"questions"`
}

// QuizSummary is the quiz metadata included in a start response.
type QuizSummary struct {
	Title    string `json:"title"`
	Duration int    `json:"duration"`
}

// SubmitResult summarizes a scored attempt.
type SubmitResult struct {
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	Percentage  float64   `json:"percentage"`
	CompletedAt time.Time `json:"completedAt"`
}

// QuestionReview pairs a question (with its correct answer) with the user's
// stored answer. Only produced for completed attempts.
type QuestionReview struct {
	ID            uuid.UUID       `json:"id"`
	Type          QuestionType    `json:"type"`
	Text          string          `json:"text"`
	Options       []string        `json:"options"`
	CorrectAnswer []string        `json:"correct_answer"`
	UserAnswer    json.RawMessage `json:"user_answer,omitempty"`
}

// AttemptReview is the review payload for GET /attempts/:id. Questions is nil
// while the attempt is ongoing so no correctness leaks before completion.
type AttemptReview struct {
	Attempt
	Questions []QuestionReview `json:"questions,omitempty"`
}
