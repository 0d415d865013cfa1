package service

import (
	"context"

	apperrors "github.com/AlexanderMakarov/tgjournals/internal/errors"
	"github.com/AlexanderMakarov/tgjournals/internal/models"
	"github.com/AlexanderMakarov/tgjournals/internal/repository"
	"go.uber.org/zap"
)

type userService struct {
	repos    *repository.Manager
	adminIDs map[int64]struct{}
	log      *zap.Logger
}

// NewUserService creates a UserService. Users whose Telegram id is in
// adminIDs are promoted to ADMIN on contact.
func NewUserService(repos *repository.Manager, adminIDs []int64, log *zap.Logger) UserService {
	ids := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		ids[id] = struct{}{}
	}
	return &userService{
		repos:    repos,
		adminIDs: ids,
		log:      log,
	}
}

func (s *userService) isBootstrapAdmin(telegramID int64) bool {
	_, ok := s.adminIDs[telegramID]
	return ok
}

func (s *userService) FindOrCreate(ctx context.Context, profile Profile) (*models.User, error) {
	user, err := s.repos.User().FindByTelegramID(ctx, profile.TelegramID)
	if repository.IsNotFound(err) {
		return s.register(ctx, profile)
	}
	if err != nil {
		s.log.Error("Failed to load user", zap.Error(err), zap.Int64("telegramID", profile.TelegramID))
		return nil, err
	}

	if user.Username != profile.Username || user.FirstName != profile.FirstName ||
		user.LastName != profile.LastName || user.LanguageCode != profile.LanguageCode {
		user.Username = profile.Username
		user.FirstName = profile.FirstName
		user.LastName = profile.LastName
		user.LanguageCode = profile.LanguageCode
		if err := s.repos.User().UpdateProfile(ctx, user); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrDatabaseUpdate, "update user profile")
		}
	}
	if s.isBootstrapAdmin(user.TelegramID) && !user.IsAdmin() {
		s.log.Info("Promoting configured admin", zap.Int64("telegramID", user.TelegramID))
		if err := s.repos.User().UpdateRole(ctx, user.ID, models.RoleAdmin); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrDatabaseUpdate, "promote configured admin")
		}
		user.Role = models.RoleAdmin
	}
	return user, nil
}

func (s *userService) register(ctx context.Context, profile Profile) (*models.User, error) {
	user := &models.User{
		TelegramID:   profile.TelegramID,
		Username:     profile.Username,
		FirstName:    profile.FirstName,
		LastName:     profile.LastName,
		LanguageCode: profile.LanguageCode,
		Role:         models.RolePlayer,
	}
	if s.isBootstrapAdmin(profile.TelegramID) {
		user.Role = models.RoleAdmin
	}
	if err := s.repos.User().Create(ctx, user); err != nil {
		s.log.Error("Failed to register user", zap.Error(err), zap.Int64("telegramID", profile.TelegramID))
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseInsert, "register user")
	}
	s.log.Info("User registered",
		zap.Int64("telegramID", user.TelegramID),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)),
	)
	return user, nil
}

func (s *userService) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return s.repos.User().FindByTelegramID(ctx, telegramID)
}

func (s *userService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.repos.User().FindByUsername(ctx, username)
}

func (s *userService) SetRole(ctx context.Context, user *models.User, role models.Role) error {
	if err := s.repos.User().UpdateRole(ctx, user.ID, role); err != nil {
		s.log.Error("Failed to change role", zap.Error(err), zap.Uint("userID", user.ID))
		return err
	}
	s.log.Info("Role changed",
		zap.Int64("telegramID", user.TelegramID),
		zap.String("from", string(user.Role)),
		zap.String("to", string(role)),
	)
	user.Role = role
	return nil
}

func (s *userService) SaveState(ctx context.Context, user *models.User, state models.ConversationState) error {
	if err := s.repos.User().SaveState(ctx, user.ID, state); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseUpdate, "save state")
	}
	user.SetState(state)
	return nil
}

func (s *userService) Participants(ctx context.Context, page, pageSize int, withJournalsOnly bool) ([]models.Participant, int64, error) {
	pagination := repository.NewPagination(page, pageSize)
	participants, err := s.repos.User().ListParticipants(ctx, pagination, withJournalsOnly)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "list participants")
	}
	return participants, pagination.Total, nil
}

func (s *userService) Admins(ctx context.Context) ([]*models.User, error) {
	admins, err := s.repos.User().ListByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "list admins")
	}
	return admins, nil
}
