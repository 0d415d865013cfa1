package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// TransactionManager runs work atomically across repositories.
type TransactionManager interface {
	Begin(ctx context.Context) (*Transaction, error)
	WithTransaction(ctx context.Context, fn func(tx *Transaction) error) error
}

// Transaction hands out repositories bound to one database transaction.
type Transaction struct {
	tx         *gorm.DB
	ctx        context.Context
	committed  bool
	rolledback bool

	user     UserRepository
	session  SessionRepository
	question QuestionRepository
	journal  JournalRepository
}

type txManager struct {
	db *gorm.DB
}

// NewTransactionManager creates a TransactionManager.
func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &txManager{db: db}
}

func (m *txManager) Begin(ctx context.Context) (*Transaction, error) {
	tx := m.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &Transaction{
		tx:  tx,
		ctx: ctx,
	}, nil
}

// WithTransaction commits when fn returns nil and rolls back otherwise,
// including on panic.
func (m *txManager) WithTransaction(ctx context.Context, fn func(tx *Transaction) error) error {
	tx, err := m.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if !tx.committed && !tx.rolledback {
			tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (t *Transaction) Commit() error {
	if t.committed {
		return fmt.Errorf("transaction already committed")
	}
	if t.rolledback {
		return fmt.Errorf("transaction already rolled back")
	}

	if err := t.tx.Commit().Error; err != nil {
		return err
	}

	t.committed = true
	return nil
}

func (t *Transaction) Rollback() error {
	if t.committed {
		return fmt.Errorf("transaction already committed")
	}
	if t.rolledback {
		return fmt.Errorf("transaction already rolled back")
	}

	if err := t.tx.Rollback().Error; err != nil {
		return err
	}

	t.rolledback = true
	return nil
}

// GetDB returns the transaction handle.
func (t *Transaction) GetDB() *gorm.DB {
	return t.tx
}

// Context the transaction was started with.
func (t *Transaction) Context() context.Context {
	return t.ctx
}

func (t *Transaction) User() UserRepository {
	if t.user == nil {
		t.user = &userRepo{
			BaseRepo: &BaseRepo{db: t.tx},
		}
	}
	return t.user
}

func (t *Transaction) Session() SessionRepository {
	if t.session == nil {
		t.session = &sessionRepo{
			BaseRepo: &BaseRepo{db: t.tx},
		}
	}
	return t.session
}

func (t *Transaction) Question() QuestionRepository {
	if t.question == nil {
		t.question = &questionRepo{
			BaseRepo: &BaseRepo{db: t.tx},
		}
	}
	return t.question
}

func (t *Transaction) Journal() JournalRepository {
	if t.journal == nil {
		t.journal = &journalRepo{
			BaseRepo: &BaseRepo{db: t.tx},
		}
	}
	return t.journal
}
