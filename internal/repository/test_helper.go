package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/AlexanderMakarov/tgjournals/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a migrated in-memory sqlite database. It panics on
// failure so it can be used from suite setup methods.
func SetupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		panic(err)
	}

	// each connection to :memory: is a separate database
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		panic(fmt.Sprintf("migrate test db: %v", err))
	}
	return db
}

// CleanupTestDB closes db.
func CleanupTestDB(db *gorm.DB) {
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// NewTestDB is SetupTestDB closed automatically at the end of t.
func NewTestDB(t testing.TB) *gorm.DB {
	db := SetupTestDB()
	t.Cleanup(func() { CleanupTestDB(db) })
	return db
}

// SeedUser creates a user with the given Telegram id, username and role.
func SeedUser(t testing.TB, db *gorm.DB, telegramID int64, username string, role models.Role) *models.User {
	user := &models.User{
		TelegramID: telegramID,
		Username:   username,
		FirstName:  username,
		Role:       role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// SeedSession creates an active session with the given catalog.
func SeedSession(t testing.TB, db *gorm.DB, name string, before, after []string) (*models.Session, []*models.Question) {
	session := &models.Session{Name: name}
	if err := db.Create(session).Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}

	var questions []*models.Question
	for i, text := range before {
		questions = append(questions, &models.Question{SessionID: session.ID, Type: models.QuestionBefore, OrderIndex: i + 1, Text: text})
	}
	for i, text := range after {
		questions = append(questions, &models.Question{SessionID: session.ID, Type: models.QuestionAfter, OrderIndex: i + 1, Text: text})
	}
	if len(questions) > 0 {
		if err := db.Create(&questions).Error; err != nil {
			t.Fatalf("seed questions: %v", err)
		}
	}
	return session, questions
}
