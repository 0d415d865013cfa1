package repository

import (
	"context"
	"strings"

	"github.com/AlexanderMakarov/tgjournals/internal/models"
	"gorm.io/gorm"
)

// UserRepository persists chat users and their conversation state.
type UserRepository interface {
	BaseRepository
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	SaveState(ctx context.Context, userID uint, state models.ConversationState) error
	UpdateRole(ctx context.Context, userID uint, role models.Role) error
	ListByRole(ctx context.Context, role models.Role) ([]*models.User, error)
	ListParticipants(ctx context.Context, pagination *Pagination, withJournalsOnly bool) ([]models.Participant, error)
	Count(ctx context.Context) (int64, error)
	WithTx(tx *gorm.DB) UserRepository
}

type userRepo struct {
	*BaseRepo
}

// NewUserRepository creates a UserRepository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

func (r *userRepo) WithTx(tx *gorm.DB) UserRepository {
	return &userRepo{BaseRepo: &BaseRepo{db: tx}}
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// UpdateProfile writes the Telegram profile columns of user and nothing else.
func (r *userRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"username":      user.Username,
			"first_name":    user.FirstName,
			"last_name":     user.LastName,
			"language_code": user.LanguageCode,
		}).Error
}

func (r *userRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

func (r *userRepo) FindByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

// FindByUsername matches case-insensitively; a leading "@" is ignored.
func (r *userRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	username = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(username), "@"))
	var user models.User
	err := r.db.WithContext(ctx).
		Where("LOWER(username) = ?", username).
		Order("id ASC").
		First(&user).Error
	if err != nil {
		return nil, notFound(err, "user @"+username)
	}
	return &user, nil
}

// SaveState writes only the state columns so a concurrent role change is
// not overwritten.
func (r *userRepo) SaveState(ctx context.Context, userID uint, state models.ConversationState) error {
	rec := models.EncodeState(state)
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"state_kind":        rec.Kind,
			"state_session_id":  rec.SessionID,
			"state_cursor":      rec.Cursor,
			"state_question_id": rec.QuestionID,
			"state_payload":     rec.Payload,
		}).Error
}

func (r *userRepo) UpdateRole(ctx context.Context, userID uint, role models.Role) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "user")
	}
	return nil
}

func (r *userRepo) ListByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("telegram_id ASC").
		Find(&users).Error
	return users, err
}

type participantRow struct {
	models.User
	SessionCount int64
}

// ListParticipants returns users with the number of distinct sessions they
// journaled in, most recent activity first (users without journals last),
// ties broken by Telegram id ascending. pagination.Total is set.
func (r *userRepo) ListParticipants(ctx context.Context, pagination *Pagination, withJournalsOnly bool) ([]models.Participant, error) {
	var total int64
	countQuery := r.db.WithContext(ctx)
	if withJournalsOnly {
		countQuery = countQuery.Model(&models.Journal{}).Distinct("user_id")
	} else {
		countQuery = countQuery.Model(&models.User{})
	}
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, err
	}
	pagination.Total = total

	query := r.db.WithContext(ctx).Table("users").
		Select("users.*, COUNT(DISTINCT journals.session_id) AS session_count").
		Joins("LEFT JOIN journals ON journals.user_id = users.id").
		Group("users.id")
	if withJournalsOnly {
		query = query.Having("COUNT(journals.id) > 0")
	}

	var rows []participantRow
	err := query.
		Order("CASE WHEN MAX(journals.created_at) IS NULL THEN 1 ELSE 0 END").
		Order("MAX(journals.created_at) DESC").
		Order("users.telegram_id ASC").
		Scopes(Paginate(pagination)).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	participants := make([]models.Participant, 0, len(rows))
	for _, row := range rows {
		participants = append(participants, models.Participant{User: row.User, SessionCount: row.SessionCount})
	}
	return participants, nil
}

func (r *userRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}
