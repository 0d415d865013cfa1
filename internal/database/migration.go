package database

import (
	"fmt"

	"github.com/AlexanderMakarov/tgjournals/internal/logger"
	"github.com/AlexanderMakarov/tgjournals/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AutoMigrate migrates DB.
func AutoMigrate() error {
	return Migrate(DB)
}

// Migrate creates or updates the schema of db.
func Migrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	CleanupStaleLocks(LockDir(db))

	if dbPath := sqlitePath(db); dbPath != "" {
		lockFile, err := acquireMigrationLock(dbPath)
		if err != nil {
			logger.Error("migration lock unavailable", zap.Error(err))
			return fmt.Errorf("acquire migration lock: %w", err)
		}
		defer releaseMigrationLock(lockFile)
	}

	logger.Info("database migration started")

	for _, model := range models.AllModels() {
		if err := db.AutoMigrate(model); err != nil {
			logger.Error("migration failed",
				zap.String("model", fmt.Sprintf("%T", model)),
				zap.Error(err),
			)
			return err
		}
		logger.Debug("migrated", zap.String("model", fmt.Sprintf("%T", model)))
	}

	createIndexes(db)

	logger.Info("database migration finished")
	return nil
}

// createIndexes adds indexes the struct tags cannot express. Failures are
// logged and ignored since they only affect query speed.
func createIndexes(db *gorm.DB) {
	indexes := map[string]string{
		"idx_journals_user_created":   "CREATE INDEX IF NOT EXISTS idx_journals_user_created ON journals(user_id, created_at)",
		"idx_sessions_created":        "CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at)",
		"idx_questions_session_order": "CREATE INDEX IF NOT EXISTS idx_questions_session_order ON questions(session_id, type, order_index)",
	}
	if db.Dialector.Name() == "mysql" {
		// mysql has no IF NOT EXISTS for indexes; the struct tag indexes are enough there
		return
	}
	for name, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			logger.Warn("create index failed", zap.String("index", name), zap.Error(err))
		}
	}
}
