package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/quizprep/quizprep-backend/internal/model"
	"github.com/quizprep/quizprep-backend/internal/response"
	"github.com/quizprep/quizprep-backend/internal/service"
	"github.com/quizprep/quizprep-backend/internal/validator"
)

type memStore struct {
	attempts map[uuid.UUID]*model.Attempt
}

func (m *memStore) Create(_ context.Context, a *model.Attempt) error {
	a.ID = uuid.New()
	a.Status = model.AttemptStatusOngoing
	copied := *a
	m.attempts[a.ID] = &copied
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*model.Attempt, error) {
	a, ok := m.attempts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *a
	return &copied, nil
}

func (m *memStore) MergeAnswers(_ context.Context, id uuid.UUID, partial model.AnswerSet) (bool, error) {
	a, ok := m.attempts[id]
	if !ok || a.Status != model.AttemptStatusOngoing {
		return false, nil
	}
	a.Answers = a.Answers.Merge(partial)
	return true, nil
}

func (m *memStore) Complete(_ context.Context, id uuid.UUID, answers model.AnswerSet, score int, endTime time.Time) (bool, error) {
	a, ok := m.attempts[id]
	if !ok || a.Status != model.AttemptStatusOngoing {
		return false, nil
	}
	a.Answers = answers
	a.Score = &score
	a.EndTime = &endTime
	a.Status = model.AttemptStatusCompleted
	return true, nil
}

func (m *memStore) ListByUser(_ context.Context, userID string) ([]model.Attempt, error) {
	var out []model.Attempt
	for _, a := range m.attempts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out, nil
}

type memQuizzes struct {
	quiz      *model.Quiz
	questions []model.Question
}

func (m *memQuizzes) GetQuiz(_ context.Context, id uuid.UUID) (*model.Quiz, error) {
	if m.quiz == nil || m.quiz.ID != id {
		return nil, pgx.ErrNoRows
	}
	return m.quiz, nil
}

func (m *memQuizzes) QuestionsForQuiz(_ context.Context, _ uuid.UUID) ([]model.Question, error) {
	return m.questions, nil
}

func (m *memQuizzes) PayloadForQuiz(_ context.Context, quizID uuid.UUID) (*model.QuizPayload, error) {
	sanitized := make([]model.SanitizedQuestion, len(m.questions))
	for i := range m.questions {
		sanitized[i] = m.questions[i].Sanitize()
	}
	return &model.QuizPayload{QuizID: quizID, Title: m.quiz.Title, Duration: m.quiz.DurationMinutes, Questions: sanitized}, nil
}

func testRouter(t *testing.T) (*gin.Engine, *memStore, *model.Quiz) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.Setup()

	quiz := &model.Quiz{ID: uuid.New(), Title: "Quiz", DurationMinutes: 10, IsActive: true}
	questions := []model.Question{
		{ID: uuid.New(), QuizID: quiz.ID, Type: model.QuestionTypeShortText, Text: "Capital?", CorrectAnswer: []string{"paris"}, OrderNum: 1},
	}
	store := &memStore{attempts: map[uuid.UUID]*model.Attempt{}}
	svc := service.NewAttemptService(store, &memQuizzes{quiz: quiz, questions: questions}, zerolog.Nop())
	h := NewAttemptHandler(svc)

	r := gin.New()
	r.Use(response.RequestIDMiddleware())
	r.POST("/attempts/start", h.StartAttempt)
	r.PUT("/attempts/:id/autosave", h.Autosave)
	r.POST("/attempts/:id/submit", h.SubmitAttempt)
	r.GET("/attempts/:id", h.GetAttempt)
	r.GET("/attempts/history/:userId", h.History)
	return r, store, quiz
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, w.Body.String())
	}
	return env
}

func TestStartAttemptMissingFields(t *testing.T) {
	r, _, _ := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/attempts/start", gin.H{"quizId": uuid.New()})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	env := decodeEnvelope(t, w)
	errBody, _ := env["error"].(map[string]interface{})
	if errBody["code"] != "VALIDATION_ERROR" {
		t.Errorf("error code = %v", errBody["code"])
	}
}

func TestStartAttemptUnknownQuizIs404(t *testing.T) {
	r, _, _ := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/attempts/start", gin.H{"quizId": uuid.New(), "userId": "u1"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestAttemptLifecycleOverHTTP(t *testing.T) {
	r, _, quiz := testRouter(t)

	// Start.
	w := doJSON(t, r, http.MethodPost, "/attempts/start", gin.H{"quizId": quiz.ID, "userId": "u1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("start status = %d: %s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	data := env["data"].(map[string]interface{})
	attemptID := data["attemptId"].(string)
	questions := data["questions"].([]interface{})
	if len(questions) != 1 {
		t.Fatalf("got %d questions", len(questions))
	}
	if _, leaked := questions[0].(map[string]interface{})["correct_answer"]; leaked {
		t.Fatal("start response leaks correct_answer")
	}
	questionID := questions[0].(map[string]interface{})["id"].(string)

	// Autosave.
	w = doJSON(t, r, http.MethodPut, "/attempts/"+attemptID+"/autosave",
		gin.H{"answers": gin.H{questionID: " Paris "}})
	if w.Code != http.StatusOK {
		t.Fatalf("autosave status = %d: %s", w.Code, w.Body.String())
	}
	saved := decodeEnvelope(t, w)["data"].(map[string]interface{})
	if saved["success"] != true || saved["savedAt"] == nil {
		t.Errorf("autosave data = %v", saved)
	}

	// Submit with no new answers: the autosaved one must score (trim+case
	// insensitive short text).
	w = doJSON(t, r, http.MethodPost, "/attempts/"+attemptID+"/submit", gin.H{"answers": gin.H{}})
	if w.Code != http.StatusOK {
		t.Fatalf("submit status = %d: %s", w.Code, w.Body.String())
	}
	result := decodeEnvelope(t, w)["data"].(map[string]interface{})
	if result["score"].(float64) != 1 || result["percentage"].(float64) != 100 {
		t.Errorf("submit result = %v", result)
	}

	// Autosave after completion is rejected as a closed attempt.
	w = doJSON(t, r, http.MethodPut, "/attempts/"+attemptID+"/autosave",
		gin.H{"answers": gin.H{questionID: "rome"}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("post-submit autosave status = %d", w.Code)
	}
	errBody := decodeEnvelope(t, w)["error"].(map[string]interface{})
	if errBody["code"] != "ATTEMPT_CLOSED" {
		t.Errorf("error code = %v", errBody["code"])
	}

	// Review now includes the correct answer and the stored user answer.
	w = doJSON(t, r, http.MethodGet, "/attempts/"+attemptID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("review status = %d", w.Code)
	}
	review := decodeEnvelope(t, w)["data"].(map[string]interface{})
	reviewQuestions := review["questions"].([]interface{})
	first := reviewQuestions[0].(map[string]interface{})
	if first["correct_answer"] == nil || first["user_answer"] == nil {
		t.Errorf("completed review = %v", first)
	}

	// History lists the attempt.
	w = doJSON(t, r, http.MethodGet, "/attempts/history/u1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history status = %d", w.Code)
	}
	history := decodeEnvelope(t, w)["data"].([]interface{})
	if len(history) != 1 {
		t.Errorf("history has %d attempts, want 1", len(history))
	}
}

func TestAutosaveWithoutAnswersIsAHeartbeat(t *testing.T) {
	r, _, quiz := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/attempts/start", gin.H{"quizId": quiz.ID, "userId": "u1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("start status = %d", w.Code)
	}
	attemptID := decodeEnvelope(t, w)["data"].(map[string]interface{})["attemptId"].(string)

	// An empty body and an explicit null answers field both decode to a
	// nil answer set; either must succeed as a plain heartbeat.
	for _, body := range []interface{}{gin.H{}, gin.H{"answers": nil}} {
		w = doJSON(t, r, http.MethodPut, "/attempts/"+attemptID+"/autosave", body)
		if w.Code != http.StatusOK {
			t.Fatalf("heartbeat autosave status = %d: %s", w.Code, w.Body.String())
		}
		data := decodeEnvelope(t, w)["data"].(map[string]interface{})
		if data["success"] != true || data["savedAt"] == nil {
			t.Errorf("heartbeat data = %v", data)
		}
	}
}

func TestAttemptEndpointsRejectMalformedIDs(t *testing.T) {
	r, _, _ := testRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPut, "/attempts/not-a-uuid/autosave"},
		{http.MethodPost, "/attempts/not-a-uuid/submit"},
		{http.MethodGet, "/attempts/not-a-uuid"},
	}
	for _, p := range paths {
		w := doJSON(t, r, p.method, p.path, gin.H{"answers": gin.H{}})
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s %s status = %d, want 400", p.method, p.path, w.Code)
		}
	}
}

func TestSubmitUnknownAttemptIs404(t *testing.T) {
	r, _, _ := testRouter(t)

	path := fmt.Sprintf("/attempts/%s/submit", uuid.New())
	w := doJSON(t, r, http.MethodPost, path, gin.H{"answers": gin.H{}})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
