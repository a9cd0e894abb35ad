package model

import (
	"time"

	"github.com/google/uuid"
)

// Quiz represents a quiz's metadata. Questions live in their own table.
type Quiz struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	DurationMinutes int       `json:"duration"`
	SubjectID       uuid.UUID `json:"subject_id"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateQuizRequest is the payload for creating a new quiz.
type CreateQuizRequest struct {
	Title     string    `json:"title" binding:"required,min=1,max=255"`
	Duration  int       `json:"duration" binding:"required,min=1,max=480"`
	SubjectID uuid.UUID `json:"subject_id" binding:"required"`
}

// QuizListItem is a quiz as returned by the paginated listing, enriched with
// its question count and the requesting user's latest completed attempt.
type QuizListItem struct {
	Quiz
	TotalQuestions int        `json:"total_questions"`
	IsAttempted    bool       `json:"is_attempted"`
	LastAttemptID  *uuid.UUID `json:"last_attempt_id,omitempty"`
	LatestScore    *int       `json:"latest_score,omitempty"`
}

// QuizPayload is the redis-cached view handed out when an attempt starts.
// Questions are sanitized: no correct answers.
type QuizPayload struct {
	QuizID    uuid.UUID           `json:"quiz_id"`
	Title     string              `json:"title"`
	Duration  int                 `json:"duration"`
	Questions []SanitizedQuestion `json:"questions"`
}

// ImportQuizRequest is the payload for whole-quiz JSON import.
type ImportQuizRequest struct {
	SubjectID uuid.UUID     `json:"subject_id" binding:"required"`
	JSON      QuizImportDoc `json:"json" binding:"required"`
}

// QuizImportDoc is the portable quiz document accepted by the importer.
type QuizImportDoc struct {
	Title     string              `json:"title"`
	Duration  int                 `json:"duration"`
	Questions []QuestionImportDoc `json:"questions"`
}
