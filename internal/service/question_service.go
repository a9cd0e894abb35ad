package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/quizprep/quizprep-backend/internal/model"
	"github.com/quizprep/quizprep-backend/internal/repository"
)

var ErrQuestionNotFound = errors.New("question not found")

// Import modes for question bulk upload.
const (
	ImportModePreview = "preview" // validate only, write nothing
	ImportModeAppend  = "append"  // add to the existing question set
	ImportModeReplace = "replace" // drop the existing set first
)

// QuestionService handles admin question management. Every write ends by
// invalidating the quiz's cached payload so attempts never see stale
// questions.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
	quizzes      *QuizService
	log          zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questionRepo *repository.QuestionRepository, quizzes *QuizService, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
		quizzes:      quizzes,
		log:          log.With().Str("service", "question").Logger(),
	}
}

// ListByQuiz retrieves a quiz's questions with correct answers, for admins.
func (s *QuestionService) ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.Question, error) {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("load quiz: %w", err)
	}
	questions, err := s.questionRepo.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if questions == nil {
		questions = []model.Question{}
	}
	return questions, nil
}

// Import bulk-loads questions into a quiz. Preview mode validates the whole
// document and writes nothing; append and replace refuse to write unless
// every question validates, so an upload is all-or-nothing.
func (s *QuestionService) Import(ctx context.Context, quizID uuid.UUID, docs []model.QuestionImportDoc, mode string) (*ImportReport, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("load quiz: %w", err)
	}

	report := parseImportQuestions(docs)
	if mode == ImportModePreview {
		return report, nil
	}
	if len(report.Issues) > 0 {
		return report, ErrImportInvalid
	}

	for i := range report.Valid {
		report.Valid[i].QuizID = quizID
	}

	switch mode {
	case ImportModeReplace:
		err = s.questionRepo.ReplaceForQuiz(ctx, quizID, report.Valid)
	case ImportModeAppend:
		err = s.questionRepo.InsertMany(ctx, report.Valid)
	default:
		return nil, fmt.Errorf("unknown import mode %q", mode)
	}
	if err != nil {
		return nil, fmt.Errorf("write questions: %w", err)
	}

	if _, err := s.quizzes.WarmQuizCache(ctx, quiz); err != nil {
		s.log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("failed to rewarm quiz after import")
	}

	s.log.Info().
		Str("quiz_id", quizID.String()).
		Str("mode", mode).
		Int("questions", len(report.Valid)).
		Msg("questions imported")
	return report, nil
}

// Update edits a single question.
func (s *QuestionService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateQuestionRequest) (*model.Question, error) {
	q := &model.Question{
		ID:            id,
		Type:          model.QuestionType(req.Type),
		Text:          req.Text,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		OrderNum:      req.OrderNum,
	}
	if q.Type.IsChoice() && len(q.Options) < 2 {
		return nil, fmt.Errorf("%w: choice questions need at least two options", ErrImportInvalid)
	}

	ok, err := s.questionRepo.Update(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("update question: %w", err)
	}
	if !ok {
		return nil, ErrQuestionNotFound
	}

	s.invalidate(ctx, q.QuizID)
	return q, nil
}

// Delete removes a single question.
func (s *QuestionService) Delete(ctx context.Context, id uuid.UUID) error {
	quizID, ok, err := s.questionRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if !ok {
		return ErrQuestionNotFound
	}
	s.invalidate(ctx, quizID)
	return nil
}

func (s *QuestionService) invalidate(ctx context.Context, quizID uuid.UUID) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		s.quizzes.InvalidateQuizCache(ctx, quizID)
		return
	}
	if _, err := s.quizzes.WarmQuizCache(ctx, quiz); err != nil {
		s.log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("failed to rewarm quiz")
	}
}
