package service

import (
	"context"
	"sync"
	"time"

	"github.com/AlexanderMakarov/tgjournals/internal/database"
	"github.com/AlexanderMakarov/tgjournals/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type healthService struct {
	db    *gorm.DB
	repos *repository.Manager
	ttl   time.Duration
	log   *zap.Logger

	mu     sync.Mutex
	cached *HealthStatus
}

// NewHealthService creates a HealthService caching counts for ttl.
func NewHealthService(db *gorm.DB, repos *repository.Manager, ttl time.Duration, log *zap.Logger) HealthService {
	return &healthService{
		db:    db,
		repos: repos,
		ttl:   ttl,
		log:   log,
	}
}

// Status pings the database on every call; counts are refreshed at most once
// per ttl.
func (s *healthService) Status(ctx context.Context) (*HealthStatus, error) {
	if err := database.Ping(ctx, s.db); err != nil {
		s.log.Warn("Database ping failed", zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && time.Since(s.cached.LastUpdated) < s.ttl {
		snapshot := *s.cached
		return &snapshot, nil
	}

	users, err := s.repos.User().Count(ctx)
	if err != nil {
		return nil, err
	}
	sessions, err := s.repos.Session().Count(ctx)
	if err != nil {
		return nil, err
	}
	journals, err := s.repos.Journal().Count(ctx)
	if err != nil {
		return nil, err
	}

	s.cached = &HealthStatus{
		Users:       users,
		Sessions:    sessions,
		Journals:    journals,
		LastUpdated: time.Now(),
	}
	snapshot := *s.cached
	return &snapshot, nil
}
