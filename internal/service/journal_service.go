package service

import (
	"context"
	"sort"

	apperrors "github.com/AlexanderMakarov/tgjournals/internal/errors"
	"github.com/AlexanderMakarov/tgjournals/internal/models"
	"github.com/AlexanderMakarov/tgjournals/internal/repository"
	"go.uber.org/zap"
)

type journalService struct {
	repos *repository.Manager
	log   *zap.Logger
}

// NewJournalService creates a JournalService.
func NewJournalService(repos *repository.Manager, log *zap.Logger) JournalService {
	return &journalService{
		repos: repos,
		log:   log,
	}
}

func (s *journalService) Record(ctx context.Context, userID, sessionID, questionID uint, answer string) (*models.Journal, error) {
	journal := &models.Journal{
		UserID:     userID,
		SessionID:  sessionID,
		QuestionID: questionID,
		Answer:     answer,
		CreatedAt:  now(),
	}
	if err := s.repos.Journal().Upsert(ctx, journal); err != nil {
		s.log.Error("Failed to record answer",
			zap.Error(err),
			zap.Uint("userID", userID),
			zap.Uint("sessionID", sessionID),
			zap.Uint("questionID", questionID),
		)
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseInsert, "record answer")
	}
	return journal, nil
}

func (s *journalService) LastSessions(ctx context.Context, userID uint, n int) ([]models.SessionJournals, error) {
	if n <= 0 {
		return nil, nil
	}

	ids, err := s.repos.Journal().RecentSessionIDs(ctx, userID, n)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "recent sessions")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	entries, err := s.repos.Journal().EntriesForSessions(ctx, userID, ids)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "journal entries")
	}

	bySession := make(map[uint]*models.SessionJournals, len(ids))
	result := make([]models.SessionJournals, 0, len(ids))
	for _, id := range ids {
		session, err := s.repos.Session().FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		result = append(result, models.SessionJournals{Session: *session})
	}
	for i := range result {
		bySession[result[i].Session.ID] = &result[i]
	}

	// entries come in catalog order; a stable sort by answer time keeps it
	// for equal timestamps
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	for _, entry := range entries {
		group := bySession[entry.SessionID]
		if group == nil {
			continue
		}
		group.Entries = append(group.Entries, entry)
		if entry.CreatedAt.After(group.LastAnswerAt) {
			group.LastAnswerAt = entry.CreatedAt
		}
	}

	// a catalog replaced between the two queries can leave a group empty
	filled := result[:0]
	for _, group := range result {
		if len(group.Entries) > 0 {
			filled = append(filled, group)
		}
	}
	return filled, nil
}

func (s *journalService) LastAnsweredIndex(ctx context.Context, userID, sessionID uint, ordered []*models.Question) (int, error) {
	answered, err := s.repos.Journal().AnsweredQuestionIDs(ctx, userID, sessionID)
	if err != nil {
		return -1, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "answered questions")
	}

	seen := make(map[uint]struct{}, len(answered))
	for _, id := range answered {
		seen[id] = struct{}{}
	}
	last := -1
	for i, q := range ordered {
		if _, ok := seen[q.ID]; ok {
			last = i
		}
	}
	return last, nil
}
