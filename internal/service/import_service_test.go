package service

import (
	"encoding/json"
	"testing"

	"github.com/quizprep/quizprep-backend/internal/model"
)

func TestAdaptQuizImport(t *testing.T) {
	doc := &model.QuizImportDoc{
		Title:    "  History 101  ",
		Duration: 1800, // seconds in legacy exports
		Questions: []model.QuestionImportDoc{
			{Q: "Pick one", Type: "mcq", Options: []string{"a", "b"}, Answer: json.RawMessage(`"0"`)},
			{Text: "Pick two", Type: "mcq", Options: []string{"a", "b", "c"}, CorrectAnswer: json.RawMessage(`["0","2"]`)},
			{Text: "Capital?", Type: "text", CorrectAnswer: json.RawMessage(`"paris"`)},
		},
	}

	adapted := adaptQuizImport(doc)

	if adapted.Title != "History 101" {
		t.Errorf("title = %q", adapted.Title)
	}
	if adapted.Duration != 30 {
		t.Errorf("duration = %d, want 1800s -> 30m", adapted.Duration)
	}
	if got := adapted.Questions[0].Type; got != "mcq_single" {
		t.Errorf("single-answer mcq adapted to %q", got)
	}
	if got := adapted.Questions[1].Type; got != "mcq_multiple" {
		t.Errorf("multi-answer mcq adapted to %q", got)
	}
	if got := adapted.Questions[2].Type; got != "short_text" {
		t.Errorf("text adapted to %q", got)
	}
	if adapted.Questions[0].Text != "Pick one" {
		t.Errorf("legacy q alias not folded: %q", adapted.Questions[0].Text)
	}
}

func TestAdaptQuizImportMinuteDurationUntouched(t *testing.T) {
	doc := &model.QuizImportDoc{Title: "t", Duration: 45}
	if got := adaptQuizImport(doc).Duration; got != 45 {
		t.Errorf("duration = %d, want 45 minutes kept as-is", got)
	}
}

func TestParseImportQuestionsHappyPath(t *testing.T) {
	docs := []model.QuestionImportDoc{
		{Text: "Pick", Type: "mcq_single", Options: []string{"a", "b"}, CorrectAnswer: json.RawMessage(`["0"]`)},
		{Text: "Sum", Type: "integer", CorrectAnswer: json.RawMessage(`[42]`)},
		{Text: "Name", Type: "short_text", CorrectAnswer: json.RawMessage(`"paris"`)},
	}

	report := parseImportQuestions(docs)
	if len(report.Issues) != 0 {
		t.Fatalf("unexpected issues: %+v", report.Issues)
	}
	if len(report.Valid) != 3 {
		t.Fatalf("got %d valid, want 3", len(report.Valid))
	}

	// Numbers and bare scalars canonicalize to string arrays.
	if got := report.Valid[1].CorrectAnswer; len(got) != 1 || got[0] != "42" {
		t.Errorf("integer answer canonicalized to %v", got)
	}
	if got := report.Valid[2].CorrectAnswer; len(got) != 1 || got[0] != "paris" {
		t.Errorf("scalar answer canonicalized to %v", got)
	}

	// Missing order numbers are filled sequentially.
	for i, q := range report.Valid {
		if q.OrderNum != i+1 {
			t.Errorf("question %d order = %d", i, q.OrderNum)
		}
	}
}

func TestParseImportQuestionsValidation(t *testing.T) {
	cases := []struct {
		name  string
		doc   model.QuestionImportDoc
		field string
	}{
		{
			"missing text",
			model.QuestionImportDoc{Type: "short_text", CorrectAnswer: json.RawMessage(`"x"`)},
			"text",
		},
		{
			"unknown type",
			model.QuestionImportDoc{Text: "x", Type: "essay", CorrectAnswer: json.RawMessage(`"x"`)},
			"type",
		},
		{
			"no correct answer",
			model.QuestionImportDoc{Text: "x", Type: "short_text"},
			"correctAnswer",
		},
		{
			"choice with one option",
			model.QuestionImportDoc{Text: "x", Type: "mcq_single", Options: []string{"a"}, CorrectAnswer: json.RawMessage(`["0"]`)},
			"options",
		},
		{
			"answer not an option index",
			model.QuestionImportDoc{Text: "x", Type: "mcq_single", Options: []string{"a", "b"}, CorrectAnswer: json.RawMessage(`["z"]`)},
			"correctAnswer",
		},
		{
			"answer index out of range",
			model.QuestionImportDoc{Text: "x", Type: "mcq_single", Options: []string{"a", "b"}, CorrectAnswer: json.RawMessage(`["2"]`)},
			"correctAnswer",
		},
		{
			"single choice with two answers",
			model.QuestionImportDoc{Text: "x", Type: "mcq_single", Options: []string{"a", "b"}, CorrectAnswer: json.RawMessage(`["0","1"]`)},
			"correctAnswer",
		},
		{
			"non-numeric integer answer",
			model.QuestionImportDoc{Text: "x", Type: "integer", CorrectAnswer: json.RawMessage(`["forty"]`)},
			"correctAnswer",
		},
		{
			"options on non-choice type",
			model.QuestionImportDoc{Text: "x", Type: "integer", Options: []string{"1", "2"}, CorrectAnswer: json.RawMessage(`[42]`)},
			"options",
		},
		{
			"options on short text",
			model.QuestionImportDoc{Text: "x", Type: "short_text", Options: []string{"a"}, CorrectAnswer: json.RawMessage(`"a"`)},
			"options",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report := parseImportQuestions([]model.QuestionImportDoc{tc.doc})
			if len(report.Valid) != 0 {
				t.Fatalf("invalid doc accepted: %+v", report.Valid)
			}
			if len(report.Issues) == 0 {
				t.Fatal("no issues reported")
			}
			if report.Issues[0].Field != tc.field {
				t.Errorf("issue field = %q, want %q", report.Issues[0].Field, tc.field)
			}
		})
	}
}

func TestParseImportQuestionsChecksEveryDocument(t *testing.T) {
	docs := []model.QuestionImportDoc{
		{Text: "ok", Type: "short_text", CorrectAnswer: json.RawMessage(`"a"`)},
		{Text: "", Type: "short_text", CorrectAnswer: json.RawMessage(`"b"`)},
		{Text: "also ok", Type: "short_text", CorrectAnswer: json.RawMessage(`"c"`)},
	}

	report := parseImportQuestions(docs)
	if len(report.Valid) != 2 {
		t.Errorf("got %d valid, want 2", len(report.Valid))
	}
	if len(report.Issues) != 1 || report.Issues[0].Index != 1 {
		t.Errorf("issues = %+v, want one at index 1", report.Issues)
	}
}
