package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quizprep/quizprep-backend/internal/config"
	"github.com/quizprep/quizprep-backend/internal/model"
	"github.com/quizprep/quizprep-backend/internal/repository"
	"github.com/quizprep/quizprep-backend/internal/response"
)

// QuizService handles quiz business logic and the Redis payload cache.
// The cached payload is the sanitized view (title, duration, questions
// without correct answers) handed out when an attempt starts; PostgreSQL
// stays the source of truth and the cache is rebuilt lazily on miss.
type QuizService struct {
	quizRepo     *repository.QuizRepository
	questionRepo *repository.QuestionRepository
	attemptRepo  *repository.AttemptRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewQuizService creates a new QuizService.
func NewQuizService(
	quizRepo *repository.QuizRepository,
	questionRepo *repository.QuestionRepository,
	attemptRepo *repository.AttemptRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *QuizService {
	return &QuizService{
		quizRepo:     quizRepo,
		questionRepo: questionRepo,
		attemptRepo:  attemptRepo,
		rdb:          rdb,
		log:          log.With().Str("service", "quiz").Logger(),
	}
}

// GetQuiz retrieves a quiz by its UUID.
func (s *QuizService) GetQuiz(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	return s.quizRepo.GetByID(ctx, id)
}

// QuestionsForQuiz retrieves a quiz's full questions (including correct
// answers) in display order.
func (s *QuizService) QuestionsForQuiz(ctx context.Context, quizID uuid.UUID) ([]model.Question, error) {
	return s.questionRepo.ListByQuiz(ctx, quizID)
}

// Create inserts a new quiz, active and empty, and warms its (empty) payload.
func (s *QuizService) Create(ctx context.Context, req *model.CreateQuizRequest) (*model.Quiz, error) {
	quiz := &model.Quiz{
		Title:           req.Title,
		DurationMinutes: req.Duration,
		SubjectID:       req.SubjectID,
		IsActive:        true,
	}
	if err := s.quizRepo.Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}
	if _, err := s.WarmQuizCache(ctx, quiz); err != nil {
		s.log.Warn().Err(err).Str("quiz_id", quiz.ID.String()).Msg("failed to warm new quiz")
	}
	return quiz, nil
}

// List retrieves quizzes paginated, each enriched with its question count
// and, when userID is set, that user's latest completed attempt.
func (s *QuizService) List(ctx context.Context, f repository.QuizListFilter, page, perPage int, userID string) ([]model.QuizListItem, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	quizzes, total, err := s.quizRepo.List(ctx, f, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, fmt.Errorf("list quizzes: %w", err)
	}

	ids := make([]uuid.UUID, len(quizzes))
	for i := range quizzes {
		ids[i] = quizzes[i].ID
	}

	counts, err := s.questionRepo.CountByQuiz(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("count questions: %w", err)
	}

	latest := map[uuid.UUID]model.Attempt{}
	if userID != "" {
		if latest, err = s.attemptRepo.LatestCompletedByQuiz(ctx, userID, ids); err != nil {
			return nil, nil, fmt.Errorf("load latest attempts: %w", err)
		}
	}

	items := make([]model.QuizListItem, len(quizzes))
	for i, q := range quizzes {
		item := model.QuizListItem{Quiz: q, TotalQuestions: counts[q.ID]}
		if a, ok := latest[q.ID]; ok {
			item.IsAttempted = true
			id := a.ID
			item.LastAttemptID = &id
			item.LatestScore = a.Score
		}
		items[i] = item
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return items, pagination, nil
}

// Import creates a quiz plus its questions from a portable JSON document in
// one call. Legacy field aliases and loose types are canonicalized first;
// if any question fails validation nothing is written and the report carries
// the per-question issues.
func (s *QuizService) Import(ctx context.Context, req *model.ImportQuizRequest) (*model.Quiz, *ImportReport, error) {
	doc := adaptQuizImport(&req.JSON)

	quiz := &model.Quiz{
		Title:           doc.Title,
		DurationMinutes: doc.Duration,
		SubjectID:       req.SubjectID,
		IsActive:        true,
	}

	report := parseImportQuestions(doc.Questions)
	if len(report.Issues) > 0 {
		return nil, report, ErrImportInvalid
	}

	if err := s.quizRepo.Create(ctx, quiz); err != nil {
		return nil, nil, fmt.Errorf("create quiz: %w", err)
	}
	for i := range report.Valid {
		report.Valid[i].QuizID = quiz.ID
	}
	if err := s.questionRepo.InsertMany(ctx, report.Valid); err != nil {
		return nil, nil, fmt.Errorf("insert questions: %w", err)
	}

	if _, err := s.WarmQuizCache(ctx, quiz); err != nil {
		s.log.Warn().Err(err).Str("quiz_id", quiz.ID.String()).Msg("failed to warm imported quiz")
	}

	s.log.Info().
		Str("quiz_id", quiz.ID.String()).
		Int("questions", len(report.Valid)).
		Msg("quiz imported")
	return quiz, report, nil
}

// PayloadForQuiz returns the sanitized quiz payload, preferring the Redis
// cache and falling back to PostgreSQL on miss or cache trouble.
func (s *QuizService) PayloadForQuiz(ctx context.Context, quizID uuid.UUID) (*model.QuizPayload, error) {
	key := config.CacheKey.QuizPayloadKey(quizID.String())
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var payload model.QuizPayload
		if err := json.Unmarshal(data, &payload); err == nil {
			return &payload, nil
		}
		s.log.Warn().Str("quiz_id", quizID.String()).Msg("corrupt cached payload, rebuilding")
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("redis unavailable, serving payload from postgres")
	}

	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return s.WarmQuizCache(ctx, quiz)
}

// WarmQuizCache rebuilds a quiz's sanitized payload from PostgreSQL and
// caches it. A quiz without questions still gets a payload with an empty
// question list.
func (s *QuizService) WarmQuizCache(ctx context.Context, quiz *model.Quiz) (*model.QuizPayload, error) {
	questions, err := s.questionRepo.ListByQuiz(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	sanitized := make([]model.SanitizedQuestion, len(questions))
	for i := range questions {
		sanitized[i] = questions[i].Sanitize()
	}

	payload := &model.QuizPayload{
		QuizID:    quiz.ID,
		Title:     quiz.Title,
		Duration:  quiz.DurationMinutes,
		Questions: sanitized,
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.QuizPayloadKey(quiz.ID.String()), payloadJSON, 0)
	pipe.Set(ctx, config.CacheKey.QuizDurationKey(quiz.ID.String()), quiz.DurationMinutes, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		// Cache failure is not fatal: the payload was just rebuilt from
		// the source of truth.
		s.log.Warn().Err(err).Str("quiz_id", quiz.ID.String()).Msg("failed to cache payload")
		return payload, nil
	}

	s.log.Debug().
		Str("quiz_id", quiz.ID.String()).
		Int("questions", len(questions)).
		Msg("cache warmed")
	return payload, nil
}

// InvalidateQuizCache drops a quiz's cached payload after its questions
// change; the next read rebuilds it.
func (s *QuizService) InvalidateQuizCache(ctx context.Context, quizID uuid.UUID) {
	keys := []string{
		config.CacheKey.QuizPayloadKey(quizID.String()),
		config.CacheKey.QuizDurationKey(quizID.String()),
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		s.log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("failed to invalidate payload cache")
	}
}

// PrewarmActiveQuizzes loads every active quiz's payload into Redis at
// startup so the first attempt of the day never pays the rebuild cost.
func (s *QuizService) PrewarmActiveQuizzes(ctx context.Context) error {
	quizzes, err := s.quizRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active quizzes: %w", err)
	}
	if len(quizzes) == 0 {
		s.log.Info().Msg("no active quizzes to prewarm")
		return nil
	}

	warmed := 0
	for i := range quizzes {
		if _, err := s.WarmQuizCache(ctx, &quizzes[i]); err != nil {
			s.log.Warn().Err(err).Str("quiz_id", quizzes[i].ID.String()).Msg("failed to warm quiz, skipping")
			continue
		}
		warmed++
	}
	s.log.Info().Int("warmed", warmed).Int("total", len(quizzes)).Msg("prewarming complete")
	return nil
}
