package service

import (
	"context"
	"time"

	"github.com/AlexanderMakarov/tgjournals/internal/models"
	"github.com/AlexanderMakarov/tgjournals/internal/utils"
)

// QuestionService owns the per-session question catalogs.
type QuestionService interface {
	// ReplaceQuestions parses rawText and atomically replaces the catalog of
	// sessionID. An empty result is valid.
	ReplaceQuestions(ctx context.Context, sessionID uint, rawText string) ([]*models.Question, error)
	// GetOrderedQuestions returns BEFORE questions then AFTER questions, each
	// by order index.
	GetOrderedQuestions(ctx context.Context, sessionID uint) ([]*models.Question, error)
	// CarryOverFrom copies the BEFORE questions of previousSessionID into
	// newSessionID.
	CarryOverFrom(ctx context.Context, previousSessionID, newSessionID uint) error
}

// SessionService is the only writer of Session.FinishedAt.
type SessionService interface {
	// GetActive returns nil, nil when no session is active.
	GetActive(ctx context.Context) (*models.Session, error)
	GetByID(ctx context.Context, id uint) (*models.Session, error)
	// CreateNew finishes the active session, if any, creates a new one and
	// carries over BEFORE questions from the newest finished session.
	CreateNew(ctx context.Context, name string) (created, finished *models.Session, err error)
	// FinishActive is idempotent; it returns nil, nil when nothing is active.
	FinishActive(ctx context.Context) (*models.Session, error)
}

// JournalService records and reads answers.
type JournalService interface {
	Record(ctx context.Context, userID, sessionID, questionID uint, answer string) (*models.Journal, error)
	// LastSessions returns the n sessions the user answered in most
	// recently, newest first, each with all of the user's answers in it.
	LastSessions(ctx context.Context, userID uint, n int) ([]models.SessionJournals, error)
	// LastAnsweredIndex is the highest index into ordered the user has an
	// answer for, -1 when none.
	LastAnsweredIndex(ctx context.Context, userID, sessionID uint, ordered []*models.Question) (int, error)
}

// Profile is what the chat transport knows about a user.
type Profile struct {
	TelegramID   int64
	Username     string
	FirstName    string
	LastName     string
	LanguageCode string
}

// UserService manages chat users, their roles and conversation state.
type UserService interface {
	// FindOrCreate loads the user, refreshing profile fields, or registers it.
	// Configured admin ids are always stored as ADMIN.
	FindOrCreate(ctx context.Context, profile Profile) (*models.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	SetRole(ctx context.Context, user *models.User, role models.Role) error
	SaveState(ctx context.Context, user *models.User, state models.ConversationState) error
	// Participants pages through users ordered by latest journal first.
	Participants(ctx context.Context, page, pageSize int, withJournalsOnly bool) ([]models.Participant, int64, error)
	Admins(ctx context.Context) ([]*models.User, error)
}

// HealthStatus is a cached snapshot of row counts.
type HealthStatus struct {
	Users       int64     `json:"users"`
	Sessions    int64     `json:"sessions"`
	Journals    int64     `json:"journals"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// HealthService reports database reachability and row counts.
type HealthService interface {
	Status(ctx context.Context) (*HealthStatus, error)
}

// TokenResponse is returned by AuthService.IssueToken.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AuthService guards the admin HTTP API.
type AuthService interface {
	IssueToken(ctx context.Context, password string) (*TokenResponse, error)
	ValidateToken(ctx context.Context, token string) (*utils.AdminClaims, error)
}
