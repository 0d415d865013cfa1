package repository

import (
	"context"
	"time"

	"github.com/AlexanderMakarov/tgjournals/internal/models"
	"gorm.io/gorm"
)

// SessionRepository persists training sessions.
type SessionRepository interface {
	BaseRepository
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, id uint) (*models.Session, error)
	FindActive(ctx context.Context) (*models.Session, error)
	FindLastFinished(ctx context.Context) (*models.Session, error)
	Finish(ctx context.Context, id uint, at time.Time) error
	Count(ctx context.Context) (int64, error)
	WithTx(tx *gorm.DB) SessionRepository
}

type sessionRepo struct {
	*BaseRepo
}

// NewSessionRepository creates a SessionRepository.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

func (r *sessionRepo) WithTx(tx *gorm.DB) SessionRepository {
	return &sessionRepo{BaseRepo: &BaseRepo{db: tx}}
}

func (r *sessionRepo) Create(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepo) FindByID(ctx context.Context, id uint) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, notFound(err, "session")
	}
	return &session, nil
}

// FindActive returns the unfinished session. Should several exist after a
// crash, the newest one wins.
func (r *sessionRepo) FindActive(ctx context.Context) (*models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).
		Where("finished_at IS NULL").
		Order("created_at DESC").
		Order("id DESC").
		First(&session).Error
	if err != nil {
		return nil, notFound(err, "active session")
	}
	return &session, nil
}

// FindLastFinished returns the newest finished session by creation time.
func (r *sessionRepo) FindLastFinished(ctx context.Context) (*models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).
		Where("finished_at IS NOT NULL").
		Order("created_at DESC").
		Order("id DESC").
		First(&session).Error
	if err != nil {
		return nil, notFound(err, "finished session")
	}
	return &session, nil
}

// Finish stamps FinishedAt; finishing an already finished session is a no-op.
func (r *sessionRepo) Finish(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND finished_at IS NULL", id).
		Update("finished_at", at).Error
}

func (r *sessionRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Session{}).Count(&count).Error
	return count, err
}
