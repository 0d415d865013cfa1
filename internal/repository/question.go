package repository

import (
	"context"

	"github.com/AlexanderMakarov/tgjournals/internal/models"
	"gorm.io/gorm"
)

// QuestionRepository persists per-session question catalogs.
type QuestionRepository interface {
	BaseRepository
	CreateBatch(ctx context.Context, questions []*models.Question) error
	DeleteBySession(ctx context.Context, sessionID uint) error
	ListBySession(ctx context.Context, sessionID uint) ([]*models.Question, error)
	ListBySessionAndType(ctx context.Context, sessionID uint, qType models.QuestionType) ([]*models.Question, error)
	WithTx(tx *gorm.DB) QuestionRepository
}

type questionRepo struct {
	*BaseRepo
}

// NewQuestionRepository creates a QuestionRepository.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

func (r *questionRepo) WithTx(tx *gorm.DB) QuestionRepository {
	return &questionRepo{BaseRepo: &BaseRepo{db: tx}}
}

func (r *questionRepo) CreateBatch(ctx context.Context, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(questions, 100).Error
}

func (r *questionRepo) DeleteBySession(ctx context.Context, sessionID uint) error {
	return r.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&models.Question{}).Error
}

// ListBySession returns the flattened catalog: BEFORE questions then AFTER
// questions, each block by OrderIndex.
func (r *questionRepo) ListBySession(ctx context.Context, sessionID uint) ([]*models.Question, error) {
	var questions []*models.Question
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order(typeOrder("type")).
		Order("order_index ASC").
		Find(&questions).Error
	return questions, err
}

func (r *questionRepo) ListBySessionAndType(ctx context.Context, sessionID uint, qType models.QuestionType) ([]*models.Question, error) {
	var questions []*models.Question
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND type = ?", sessionID, qType).
		Order("order_index ASC").
		Find(&questions).Error
	return questions, err
}

// typeOrder sorts BEFORE ahead of AFTER, which alphabetical order would not.
func typeOrder(column string) string {
	return "CASE " + column + " WHEN '" + string(models.QuestionBefore) + "' THEN 0 ELSE 1 END"
}
