package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/quizprep/quizprep-backend/internal/model"
)

// ErrImportInvalid marks an import document that failed validation. The
// accompanying ImportReport carries the per-question issues.
var ErrImportInvalid = errors.New("import document failed validation")

// ImportIssue is one validation problem found in an import document,
// addressed by the question's zero-based index.
type ImportIssue struct {
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ImportReport is the outcome of parsing an import document: the questions
// that passed validation and the issues for those that did not.
type ImportReport struct {
	Valid  []model.Question `json:"valid"`
	Issues []ImportIssue    `json:"issues"`
}

// adaptQuizImport canonicalizes a portable quiz document in place-ish:
// legacy field aliases are folded into the canonical ones, loose type names
// are mapped to the supported kinds, and a duration that only makes sense as
// seconds is converted to minutes.
func adaptQuizImport(doc *model.QuizImportDoc) *model.QuizImportDoc {
	out := &model.QuizImportDoc{
		Title:     strings.TrimSpace(doc.Title),
		Duration:  doc.Duration,
		Questions: make([]model.QuestionImportDoc, len(doc.Questions)),
	}
	if out.Title == "" {
		out.Title = "Untitled quiz"
	}
	// Exported documents from older tooling carry durations in seconds.
	// Anything above 100 cannot plausibly be minutes for a single quiz.
	if out.Duration > 100 {
		out.Duration = int(math.Round(float64(out.Duration) / 60))
	}
	if out.Duration < 1 {
		out.Duration = 1
	}

	for i, q := range doc.Questions {
		if q.Text == "" {
			q.Text = q.Q
		}
		if len(q.CorrectAnswer) == 0 {
			q.CorrectAnswer = q.Answer
		}
		q.Type = canonicalType(q.Type, q.CorrectAnswer)
		if q.Order == 0 {
			q.Order = i + 1
		}
		out.Questions[i] = q
	}
	return out
}

// canonicalType maps loose import type names onto the supported kinds. A
// bare "mcq" becomes single or multiple depending on how many correct
// answers the document carries.
func canonicalType(t string, correct json.RawMessage) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "mcq", "choice":
		if vals, err := canonicalValues(correct); err == nil && len(vals) > 1 {
			return string(model.QuestionTypeMCQMultiple)
		}
		return string(model.QuestionTypeMCQSingle)
	case "text", "shorttext", "short-text":
		return string(model.QuestionTypeShortText)
	case "number", "numeric":
		return string(model.QuestionTypeInteger)
	default:
		return strings.ToLower(strings.TrimSpace(t))
	}
}

// parseImportQuestions validates import documents and converts the valid
// ones into storable questions. Validation never aborts early: every
// document is checked so the report covers the whole upload.
func parseImportQuestions(docs []model.QuestionImportDoc) *ImportReport {
	report := &ImportReport{Valid: []model.Question{}}

	for i, doc := range docs {
		seen := len(report.Issues)
		issue := func(field, msg string) {
			report.Issues = append(report.Issues, ImportIssue{Index: i, Field: field, Message: msg})
		}

		text := strings.TrimSpace(doc.Text)
		if text == "" {
			text = strings.TrimSpace(doc.Q)
		}
		if text == "" {
			issue("text", "question text is required")
		}

		qType := model.QuestionType(canonicalType(doc.Type, firstNonEmpty(doc.CorrectAnswer, doc.Answer)))
		if !model.ValidQuestionType(qType) {
			issue("type", fmt.Sprintf("unsupported question type %q", doc.Type))
			continue
		}

		correct, err := canonicalValues(firstNonEmpty(doc.CorrectAnswer, doc.Answer))
		if err != nil {
			issue("correctAnswer", err.Error())
			continue
		}
		if len(correct) == 0 {
			issue("correctAnswer", "at least one correct answer is required")
			continue
		}

		switch {
		case qType.IsChoice():
			if len(doc.Options) < 2 {
				issue("options", "choice questions need at least two options")
				continue
			}
			// Correct answers reference options by index, not by label.
			if bad := invalidOptionIndex(correct, len(doc.Options)); bad != "" {
				issue("correctAnswer", fmt.Sprintf("correct answer %q is not a valid option index", bad))
				continue
			}
			if qType == model.QuestionTypeMCQSingle && len(correct) != 1 {
				issue("correctAnswer", "single-choice questions take exactly one correct answer")
				continue
			}
		default:
			if len(doc.Options) > 0 {
				issue("options", "options are only valid for choice questions")
				continue
			}
			if qType == model.QuestionTypeInteger {
				bad := false
				for _, v := range correct {
					if _, err := strconv.ParseFloat(v, 64); err != nil {
						issue("correctAnswer", fmt.Sprintf("%q is not a number", v))
						bad = true
						break
					}
				}
				if bad {
					continue
				}
			}
		}

		if len(report.Issues) > seen {
			continue
		}

		order := doc.Order
		if order == 0 {
			order = i + 1
		}

		report.Valid = append(report.Valid, model.Question{
			Type:          qType,
			Text:          text,
			Options:       doc.Options,
			CorrectAnswer: correct,
			OrderNum:      order,
		})
	}
	return report
}

// canonicalValues decodes a correct-answer field into canonical strings.
// The field may be a scalar or a list, and entries may be strings, numbers
// or booleans; everything ends up a string.
func canonicalValues(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("malformed correct answer: %w", err)
	}

	switch val := v.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, entry := range val {
			s, err := canonicalScalar(entry)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	default:
		s, err := canonicalScalar(val)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
}

func canonicalScalar(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return "", fmt.Errorf("correct answer entries must be strings, numbers or booleans, got %T", v)
	}
}

// invalidOptionIndex returns the first correct answer that is not an
// integer in [0, optionCount), or "" when all are valid indices.
func invalidOptionIndex(correct []string, optionCount int) string {
	for _, c := range correct {
		i, err := strconv.Atoi(strings.TrimSpace(c))
		if err != nil || i < 0 || i >= optionCount {
			return c
		}
	}
	return ""
}

func firstNonEmpty(a, b json.RawMessage) json.RawMessage {
	if len(a) > 0 {
		return a
	}
	return b
}
