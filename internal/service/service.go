package service

import (
	"time"

	"github.com/AlexanderMakarov/tgjournals/internal/repository"
	"github.com/AlexanderMakarov/tgjournals/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config holds the settings services need from the application config.
type Config struct {
	AdminIDs       []int64
	HealthCacheTTL time.Duration
	JWTSecret      string
	TokenTTL       time.Duration
	PasswordHash   string
}

// DefaultConfig is used by tests and when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		HealthCacheTTL: time.Minute,
		JWTSecret:      "change-me",
		TokenTTL:       12 * time.Hour,
	}
}

// Services bundles all services.
type Services struct {
	Questions QuestionService
	Sessions  SessionService
	Journals  JournalService
	Users     UserService
	Health    HealthService
	Auth      AuthService
}

// NewServices wires services over db.
func NewServices(db *gorm.DB, config *Config, log *zap.Logger) *Services {
	if config == nil {
		config = DefaultConfig()
	}
	repos := repository.NewManager(db)

	jwtManager := utils.NewJWTManager(config.JWTSecret, config.TokenTTL)

	return &Services{
		Questions: NewQuestionService(repos, log),
		Sessions:  NewSessionService(repos, log),
		Journals:  NewJournalService(repos, log),
		Users:     NewUserService(repos, config.AdminIDs, log),
		Health:    NewHealthService(db, repos, config.HealthCacheTTL, log),
		Auth:      NewAuthService(config.PasswordHash, jwtManager, log),
	}
}

// now is the service clock; rows are stamped in UTC.
var now = func() time.Time {
	return time.Now().UTC()
}
