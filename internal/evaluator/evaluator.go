// Package evaluator implements the answer-correctness rules per question type.
// It is pure: no stores, no clocks, and it never returns an error — a missing,
// null or malformed submitted value is simply incorrect.
package evaluator

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/quizprep/quizprep-backend/internal/model"
)

var jsonNull = []byte("null")

// IsCorrect reports whether the submitted raw JSON value answers the question
// correctly. The question's CorrectAnswer is always an ordered sequence; each
// type reads it uniformly (first element for single-valued types, full set
// for multi-choice).
func IsCorrect(q *model.Question, submitted json.RawMessage) bool {
	if len(submitted) == 0 || bytes.Equal(bytes.TrimSpace(submitted), jsonNull) {
		return false
	}
	if len(q.CorrectAnswer) == 0 {
		return false
	}

	switch q.Type {
	case model.QuestionTypeMCQSingle:
		val, ok := stringify(submitted)
		return ok && val == q.CorrectAnswer[0]

	case model.QuestionTypeMCQMultiple:
		vals, ok := stringifyList(submitted)
		if !ok {
			return false
		}
		return setEqual(vals, q.CorrectAnswer)

	case model.QuestionTypeInteger:
		val, ok := stringify(submitted)
		if !ok {
			return false
		}
		got, err1 := strconv.ParseFloat(strings.TrimSpace(val), 64)
		want, err2 := strconv.ParseFloat(strings.TrimSpace(q.CorrectAnswer[0]), 64)
		return err1 == nil && err2 == nil && got == want

	case model.QuestionTypeShortText:
		val, ok := stringify(submitted)
		if !ok {
			return false
		}
		return normalize(val) == normalize(q.CorrectAnswer[0])
	}

	// Unknown question type: incorrect, never an error.
	return false
}

// stringify decodes a scalar JSON value into its canonical string form.
// Numbers render without a trailing ".0" so 1 and "1" compare equal.
func stringify(raw json.RawMessage) (string, bool) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

// stringifyList decodes a JSON array into canonical strings, wrapping a lone
// scalar into a one-element list.
func stringifyList(raw json.RawMessage) ([]string, bool) {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		// Scalar submission for a multi-choice question: wrap it.
		val, ok := stringify(raw)
		if !ok {
			return nil, false
		}
		return []string{val}, true
	}
	vals := make([]string, 0, len(arr))
	for _, el := range arr {
		val, ok := stringify(el)
		if !ok {
			return nil, false
		}
		vals = append(vals, val)
	}
	return vals, true
}

// setEqual compares two value lists as sets: order and duplicates are
// irrelevant, and there is no partial credit for subsets or supersets.
func setEqual(got, want []string) bool {
	gotSet := make(map[string]struct{}, len(got))
	for _, v := range got {
		gotSet[v] = struct{}{}
	}
	wantSet := make(map[string]struct{}, len(want))
	for _, v := range want {
		wantSet[v] = struct{}{}
	}
	if len(gotSet) != len(wantSet) {
		return false
	}
	for v := range wantSet {
		if _, ok := gotSet[v]; !ok {
			return false
		}
	}
	return true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
