package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AlexanderMakarov/tgjournals/internal/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	lockSuffix     = ".migration.lock"
	lockAttempts   = 30
	lockStaleAfter = 5 * time.Minute
)

// acquireMigrationLock serializes migrations of one sqlite file across
// processes with an exclusively created lock file.
func acquireMigrationLock(dbPath string) (*os.File, error) {
	lockPath := dbPath + lockSuffix

	for i := 0; i < lockAttempts; i++ {
		lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
		if err == nil {
			logger.Debug("migration lock acquired", zap.String("lock", lockPath))
			return lockFile, nil
		}

		if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > lockStaleAfter {
			logger.Warn("removing stale migration lock", zap.String("lock", lockPath))
			os.Remove(lockPath)
			continue
		}

		logger.Debug("waiting for migration lock", zap.Int("attempt", i+1))
		time.Sleep(time.Second)
	}

	return nil, fmt.Errorf("migration lock %s is held by another process", lockPath)
}

func releaseMigrationLock(lockFile *os.File) {
	if lockFile == nil {
		return
	}

	lockPath := lockFile.Name()
	lockFile.Close()
	os.Remove(lockPath)
	logger.Debug("migration lock released", zap.String("lock", lockPath))
}

// sqlitePath returns the file behind a sqlite connection, or "" for other
// dialects and in-memory databases.
func sqlitePath(db *gorm.DB) string {
	if db == nil || db.Dialector.Name() != "sqlite" {
		return ""
	}
	sqlDB, err := db.DB()
	if err != nil {
		return ""
	}

	var (
		seq        int
		name, file string
	)
	if err := sqlDB.QueryRow("PRAGMA database_list").Scan(&seq, &name, &file); err != nil {
		return ""
	}
	if file == "" || strings.Contains(file, ":memory:") {
		return ""
	}
	return file
}

// LockDir is the directory holding migration locks of db, "" when it has none.
func LockDir(db *gorm.DB) string {
	if path := sqlitePath(db); path != "" {
		return filepath.Dir(path)
	}
	return ""
}

// CleanupStaleLocks removes migration locks in dir left behind by crashed
// processes.
func CleanupStaleLocks(dir string) {
	if dir == "" {
		return
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*"+lockSuffix))
	for _, lockFile := range matches {
		if info, err := os.Stat(lockFile); err == nil && time.Since(info.ModTime()) > 2*lockStaleAfter {
			logger.Info("removing stale lock file", zap.String("file", lockFile))
			os.Remove(lockFile)
		}
	}
}
