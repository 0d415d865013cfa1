package repository

import (
	"context"

	"github.com/AlexanderMakarov/tgjournals/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JournalRepository persists answers.
type JournalRepository interface {
	BaseRepository
	Upsert(ctx context.Context, journal *models.Journal) error
	Find(ctx context.Context, userID, sessionID, questionID uint) (*models.Journal, error)
	AnsweredQuestionIDs(ctx context.Context, userID, sessionID uint) ([]uint, error)
	RecentSessionIDs(ctx context.Context, userID uint, limit int) ([]uint, error)
	EntriesForSessions(ctx context.Context, userID uint, sessionIDs []uint) ([]models.JournalEntry, error)
	Count(ctx context.Context) (int64, error)
	WithTx(tx *gorm.DB) JournalRepository
}

type journalRepo struct {
	*BaseRepo
}

// NewJournalRepository creates a JournalRepository.
func NewJournalRepository(db *gorm.DB) JournalRepository {
	return &journalRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

func (r *journalRepo) WithTx(tx *gorm.DB) JournalRepository {
	return &journalRepo{BaseRepo: &BaseRepo{db: tx}}
}

// Upsert inserts the answer or, when the user already answered the question
// in that session, replaces its text and timestamp. journal is reloaded so
// its ID is the stored row's.
func (r *journalRepo) Upsert(ctx context.Context, journal *models.Journal) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "session_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"answer", "created_at"}),
	}).Create(journal).Error
	if err != nil {
		return err
	}

	stored, err := r.Find(ctx, journal.UserID, journal.SessionID, journal.QuestionID)
	if err != nil {
		return err
	}
	*journal = *stored
	return nil
}

func (r *journalRepo) Find(ctx context.Context, userID, sessionID, questionID uint) (*models.Journal, error) {
	var journal models.Journal
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ? AND question_id = ?", userID, sessionID, questionID).
		First(&journal).Error
	if err != nil {
		return nil, notFound(err, "journal")
	}
	return &journal, nil
}

func (r *journalRepo) AnsweredQuestionIDs(ctx context.Context, userID, sessionID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Journal{}).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Pluck("question_id", &ids).Error
	return ids, err
}

// RecentSessionIDs returns up to limit sessions the user answered in, the one
// with the latest answer first. Answers to questions that no longer exist do
// not count.
func (r *journalRepo) RecentSessionIDs(ctx context.Context, userID uint, limit int) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Journal{}).
		Select("journals.session_id").
		Joins("JOIN questions ON questions.id = journals.question_id").
		Where("journals.user_id = ?", userID).
		Group("journals.session_id").
		Order("MAX(journals.created_at) DESC").
		Order("journals.session_id DESC").
		Limit(limit).
		Pluck("session_id", &ids).Error
	return ids, err
}

// EntriesForSessions loads the answers of a user within the given sessions
// joined with their questions, in catalog order per session.
func (r *journalRepo) EntriesForSessions(ctx context.Context, userID uint, sessionIDs []uint) ([]models.JournalEntry, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	var entries []models.JournalEntry
	err := r.db.WithContext(ctx).Table("journals").
		Select("journals.*, questions.text AS question_text, questions.type AS question_type, questions.order_index AS order_index").
		Joins("JOIN questions ON questions.id = journals.question_id").
		Where("journals.user_id = ? AND journals.session_id IN ?", userID, sessionIDs).
		Order("journals.session_id ASC").
		Order(typeOrder("questions.type")).
		Order("questions.order_index ASC").
		Scan(&entries).Error
	return entries, err
}

func (r *journalRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Journal{}).Count(&count).Error
	return count, err
}
