package evaluator

import (
	"encoding/json"
	"testing"

	"github.com/quizprep/quizprep-backend/internal/model"
)

func question(t model.QuestionType, correct ...string) *model.Question {
	return &model.Question{Type: t, CorrectAnswer: correct}
}

func TestMissingAnswerIsIncorrectNotAnError(t *testing.T) {
	questions := []*model.Question{
		question(model.QuestionTypeMCQSingle, "0"),
		question(model.QuestionTypeMCQMultiple, "0", "2"),
		question(model.QuestionTypeInteger, "42"),
		question(model.QuestionTypeShortText, "paris"),
	}

	for _, q := range questions {
		t.Run(string(q.Type), func(t *testing.T) {
			if IsCorrect(q, nil) {
				t.Error("nil submission scored correct")
			}
			if IsCorrect(q, json.RawMessage(`null`)) {
				t.Error("null submission scored correct")
			}
			if IsCorrect(q, json.RawMessage(``)) {
				t.Error("empty submission scored correct")
			}
		})
	}
}

func TestMCQSingle(t *testing.T) {
	q := question(model.QuestionTypeMCQSingle, "1")

	cases := []struct {
		name      string
		submitted string
		want      bool
	}{
		{"matching string", `"1"`, true},
		{"matching number coerced", `1`, true},
		{"wrong option", `"2"`, false},
		{"malformed json", `{`, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsCorrect(q, json.RawMessage(tc.submitted)); got != tc.want {
				t.Errorf("IsCorrect(%s) = %v, want %v", tc.submitted, got, tc.want)
			}
		})
	}
}

func TestMCQMultipleExactSet(t *testing.T) {
	q := question(model.QuestionTypeMCQMultiple, "2", "1")

	cases := []struct {
		name      string
		submitted string
		want      bool
	}{
		{"order independent", `["1","2"]`, true},
		{"numbers coerced", `[2,1]`, true},
		{"duplicates irrelevant", `["1","2","2"]`, true},
		{"subset rejected", `["1"]`, false},
		{"superset rejected", `["1","2","3"]`, false},
		{"scalar wrapped but incomplete", `"1"`, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsCorrect(q, json.RawMessage(tc.submitted)); got != tc.want {
				t.Errorf("IsCorrect(%s) = %v, want %v", tc.submitted, got, tc.want)
			}
		})
	}

	// Single correct value, scalar submission: wrap and accept.
	single := question(model.QuestionTypeMCQMultiple, "3")
	if !IsCorrect(single, json.RawMessage(`"3"`)) {
		t.Error("scalar submission against one-element correct set should be correct")
	}
}

func TestIntegerNumericCoercion(t *testing.T) {
	q := question(model.QuestionTypeInteger, "42")

	cases := []struct {
		name      string
		submitted string
		want      bool
	}{
		{"number", `42`, true},
		{"numeric string", `"42"`, true},
		{"padded numeric string", `" 42 "`, true},
		{"float equal", `42.0`, true},
		{"wrong value", `41`, false},
		{"non-numeric", `"forty-two"`, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsCorrect(q, json.RawMessage(tc.submitted)); got != tc.want {
				t.Errorf("IsCorrect(%s) = %v, want %v", tc.submitted, got, tc.want)
			}
		})
	}

	// Non-numeric correct answer never matches (NaN != NaN).
	bad := question(model.QuestionTypeInteger, "not-a-number")
	if IsCorrect(bad, json.RawMessage(`"not-a-number"`)) {
		t.Error("non-numeric values must not compare equal for integer questions")
	}
}

func TestShortTextTrimAndCase(t *testing.T) {
	q := question(model.QuestionTypeShortText, "paris")

	cases := []struct {
		name      string
		submitted string
		want      bool
	}{
		{"exact", `"paris"`, true},
		{"padded and capitalized", `" Paris "`, true},
		{"uppercase", `"PARIS"`, true},
		{"different word", `"london"`, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsCorrect(q, json.RawMessage(tc.submitted)); got != tc.want {
				t.Errorf("IsCorrect(%s) = %v, want %v", tc.submitted, got, tc.want)
			}
		})
	}

	// Correct answer side is normalized too.
	padded := question(model.QuestionTypeShortText, "  Paris ")
	if !IsCorrect(padded, json.RawMessage(`"paris"`)) {
		t.Error("stored correct answer should be trimmed and lower-cased before comparing")
	}
}

func TestUnknownTypeAndEmptyKey(t *testing.T) {
	if IsCorrect(question(model.QuestionType("essay"), "x"), json.RawMessage(`"x"`)) {
		t.Error("unknown question type must score incorrect")
	}
	if IsCorrect(question(model.QuestionTypeMCQSingle), json.RawMessage(`"0"`)) {
		t.Error("empty correct answer must score incorrect")
	}
}
