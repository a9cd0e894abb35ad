package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionTypeMCQSingle   QuestionType = "mcq_single"
	QuestionTypeMCQMultiple QuestionType = "mcq_multiple"
	QuestionTypeInteger     QuestionType = "integer"
	QuestionTypeShortText   QuestionType = "short_text"
)

// ValidQuestionType reports whether t is one of the supported kinds.
func ValidQuestionType(t QuestionType) bool {
	switch t {
	case QuestionTypeMCQSingle, QuestionTypeMCQMultiple, QuestionTypeInteger, QuestionTypeShortText:
		return true
	}
	return false
}

// IsChoice reports whether the type presents a fixed option list.
func (t QuestionType) IsChoice() bool {
	return t == QuestionTypeMCQSingle || t == QuestionTypeMCQMultiple
}

// Question is a quiz question as stored. CorrectAnswer is always an array of
// canonical string values, even for single-answer types — both in storage and
// on the wire. Callers must never assume a scalar.
type Question struct {
	ID            uuid.UUID    `json:"id"`
	QuizID        uuid.UUID    `json:"quiz_id"`
	Type          QuestionType `json:"type"`
	Text          string       `json:"text"`
	Options       []string     `json:"options"`
	CorrectAnswer []string     `json:"correct_answer"`
	OrderNum      int          `json:"order"`
}

// SanitizedQuestion is a question view with the correct answer stripped,
// safe to send to a client before the attempt completes.
type SanitizedQuestion struct {
	ID       uuid.UUID    `json:"id"`
	Type     QuestionType `json:"type"`
	Text     string       `json:"text"`
	Options  []string     `json:"options"`
	OrderNum int          `json:"order"`
}

// Sanitize strips the correct answer from a question.
func (q *Question) Sanitize() SanitizedQuestion {
	return SanitizedQuestion{
		ID:       q.ID,
		Type:     q.Type,
		Text:     q.Text,
		Options:  q.Options,
		OrderNum: q.OrderNum,
	}
}

// QuestionImportDoc is one question as supplied to the bulk importer.
// Correct answers may arrive as strings or numbers; the importer
// canonicalizes them to strings. `q` and `answer` are legacy aliases for
// `text` and `correctAnswer` accepted by the whole-quiz import format.
type QuestionImportDoc struct {
	Text          string          `json:"text"`
	Q             string          `json:"q"`
	Type          string          `json:"type"`
	Options       []string        `json:"options"`
	CorrectAnswer json.RawMessage `json:"correctAnswer"`
	Answer        json.RawMessage `json:"answer"`
	Order         int             `json:"order"`
}

// UpdateQuestionRequest is the payload for editing a single question.
type UpdateQuestionRequest struct {
	Text          string   `json:"text" binding:"required,min=1"`
	Type          string   `json:"type" binding:"required,oneof=mcq_single mcq_multiple integer short_text"`
	Options       []string `json:"options"`
	CorrectAnswer []string `json:"correct_answer" binding:"required,min=1"`
	OrderNum      int      `json:"order" binding:"min=0"`
}
