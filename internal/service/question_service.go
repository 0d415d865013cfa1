package service

import (
	"context"
	"strings"

	apperrors "github.com/AlexanderMakarov/tgjournals/internal/errors"
	"github.com/AlexanderMakarov/tgjournals/internal/models"
	"github.com/AlexanderMakarov/tgjournals/internal/repository"
	"go.uber.org/zap"
)

var questionPrefixes = []struct {
	prefix string
	qType  models.QuestionType
}{
	{"before:", models.QuestionBefore},
	{"after:", models.QuestionAfter},
}

// ParseQuestions turns catalog text into questions. Lines starting with
// "Before:" or "After:" (any case) become questions of that type; everything
// else is dropped. Order indexes restart at 1 per type. SessionID is left
// unset.
func ParseQuestions(rawText string) []*models.Question {
	var questions []*models.Question
	counters := map[models.QuestionType]int{}

	for _, line := range strings.Split(rawText, "\n") {
		line = strings.TrimSpace(line)
		for _, p := range questionPrefixes {
			if len(line) < len(p.prefix) || !strings.EqualFold(line[:len(p.prefix)], p.prefix) {
				continue
			}
			text := strings.TrimSpace(line[len(p.prefix):])
			if text != "" {
				counters[p.qType]++
				questions = append(questions, &models.Question{
					Type:       p.qType,
					OrderIndex: counters[p.qType],
					Text:       text,
				})
			}
			break
		}
	}
	return questions
}

type questionService struct {
	repos *repository.Manager
	log   *zap.Logger
}

// NewQuestionService creates a QuestionService.
func NewQuestionService(repos *repository.Manager, log *zap.Logger) QuestionService {
	return &questionService{
		repos: repos,
		log:   log,
	}
}

func (s *questionService) ReplaceQuestions(ctx context.Context, sessionID uint, rawText string) ([]*models.Question, error) {
	parsed := ParseQuestions(rawText)
	for _, q := range parsed {
		q.SessionID = sessionID
	}

	err := s.repos.WithTransaction(ctx, func(tx *repository.Transaction) error {
		if err := tx.Question().DeleteBySession(ctx, sessionID); err != nil {
			return err
		}
		return tx.Question().CreateBatch(ctx, parsed)
	})
	if err != nil {
		s.log.Error("Failed to replace questions", zap.Error(err), zap.Uint("sessionID", sessionID))
		return nil, apperrors.Wrap(err, apperrors.ErrTransaction, "replace questions")
	}

	s.log.Info("Questions replaced", zap.Uint("sessionID", sessionID), zap.Int("count", len(parsed)))
	return s.GetOrderedQuestions(ctx, sessionID)
}

func (s *questionService) GetOrderedQuestions(ctx context.Context, sessionID uint) ([]*models.Question, error) {
	questions, err := s.repos.Question().ListBySession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "list questions")
	}
	return questions, nil
}

func (s *questionService) CarryOverFrom(ctx context.Context, previousSessionID, newSessionID uint) error {
	return s.repos.WithTransaction(ctx, func(tx *repository.Transaction) error {
		_, err := carryOver(ctx, tx.Question(), previousSessionID, newSessionID)
		return err
	})
}

// carryOver copies BEFORE questions only; AFTER questions are specific to the
// session they were asked for.
func carryOver(ctx context.Context, questions repository.QuestionRepository, previousSessionID, newSessionID uint) (int, error) {
	before, err := questions.ListBySessionAndType(ctx, previousSessionID, models.QuestionBefore)
	if err != nil {
		return 0, err
	}

	copies := make([]*models.Question, 0, len(before))
	for _, q := range before {
		copies = append(copies, &models.Question{
			SessionID:  newSessionID,
			Type:       q.Type,
			OrderIndex: q.OrderIndex,
			Text:       q.Text,
		})
	}
	return len(copies), questions.CreateBatch(ctx, copies)
}
