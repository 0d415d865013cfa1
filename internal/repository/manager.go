package repository

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// Manager gives access to all repositories over one connection.
type Manager struct {
	db *gorm.DB

	txManager TransactionManager

	userOnce sync.Once
	user     UserRepository

	sessionOnce sync.Once
	session     SessionRepository

	questionOnce sync.Once
	question     QuestionRepository

	journalOnce sync.Once
	journal     JournalRepository
}

// NewManager creates a Manager.
func NewManager(db *gorm.DB) *Manager {
	return &Manager{
		db:        db,
		txManager: NewTransactionManager(db),
	}
}

func (m *Manager) GetDB() *gorm.DB {
	return m.db
}

func (m *Manager) Transaction() TransactionManager {
	return m.txManager
}

func (m *Manager) User() UserRepository {
	m.userOnce.Do(func() {
		m.user = NewUserRepository(m.db)
	})
	return m.user
}

func (m *Manager) Session() SessionRepository {
	m.sessionOnce.Do(func() {
		m.session = NewSessionRepository(m.db)
	})
	return m.session
}

func (m *Manager) Question() QuestionRepository {
	m.questionOnce.Do(func() {
		m.question = NewQuestionRepository(m.db)
	})
	return m.question
}

func (m *Manager) Journal() JournalRepository {
	m.journalOnce.Do(func() {
		m.journal = NewJournalRepository(m.db)
	})
	return m.journal
}

// WithTransaction runs fn in a transaction.
func (m *Manager) WithTransaction(ctx context.Context, fn func(tx *Transaction) error) error {
	return m.txManager.WithTransaction(ctx, fn)
}
