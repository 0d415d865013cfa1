package service

import (
	"context"
	"strings"

	apperrors "github.com/AlexanderMakarov/tgjournals/internal/errors"
	"github.com/AlexanderMakarov/tgjournals/internal/models"
	"github.com/AlexanderMakarov/tgjournals/internal/repository"
	"go.uber.org/zap"
)

type sessionService struct {
	repos *repository.Manager
	log   *zap.Logger
}

// NewSessionService creates a SessionService.
func NewSessionService(repos *repository.Manager, log *zap.Logger) SessionService {
	return &sessionService{
		repos: repos,
		log:   log,
	}
}

func (s *sessionService) GetActive(ctx context.Context) (*models.Session, error) {
	session, err := s.repos.Session().FindActive(ctx)
	if repository.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *sessionService) GetByID(ctx context.Context, id uint) (*models.Session, error) {
	return s.repos.Session().FindByID(ctx, id)
}

func (s *sessionService) CreateNew(ctx context.Context, name string) (*models.Session, *models.Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, apperrors.New(apperrors.ErrInvalidParam, "session name is empty")
	}

	var created, finished *models.Session
	err := s.repos.WithTransaction(ctx, func(tx *repository.Transaction) error {
		var err error
		finished, err = finishActive(ctx, tx.Session())
		if err != nil {
			return err
		}

		created = &models.Session{Name: name}
		if err := tx.Session().Create(ctx, created); err != nil {
			return err
		}

		previous, err := tx.Session().FindLastFinished(ctx)
		if repository.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		copied, err := carryOver(ctx, tx.Question(), previous.ID, created.ID)
		if err != nil {
			return err
		}
		s.log.Info("Questions carried over",
			zap.Uint("from", previous.ID),
			zap.Uint("to", created.ID),
			zap.Int("count", copied),
		)
		return nil
	})
	if err != nil {
		s.log.Error("Failed to create session", zap.Error(err), zap.String("name", name))
		return nil, nil, apperrors.Wrap(err, apperrors.ErrTransaction, "create session")
	}

	s.log.Info("Session created", zap.Uint("sessionID", created.ID), zap.String("name", name))
	return created, finished, nil
}

func (s *sessionService) FinishActive(ctx context.Context) (*models.Session, error) {
	var finished *models.Session
	err := s.repos.WithTransaction(ctx, func(tx *repository.Transaction) error {
		var err error
		finished, err = finishActive(ctx, tx.Session())
		return err
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTransaction, "finish session")
	}
	if finished != nil {
		s.log.Info("Session finished", zap.Uint("sessionID", finished.ID))
	}
	return finished, nil
}

// finishActive stamps every unfinished session, returning the newest one.
func finishActive(ctx context.Context, sessions repository.SessionRepository) (*models.Session, error) {
	var newest *models.Session
	for {
		active, err := sessions.FindActive(ctx)
		if repository.IsNotFound(err) {
			return newest, nil
		}
		if err != nil {
			return nil, err
		}
		at := now()
		if err := sessions.Finish(ctx, active.ID, at); err != nil {
			return nil, err
		}
		active.FinishedAt = &at
		if newest == nil {
			newest = active
		}
	}
}
