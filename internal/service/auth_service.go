package service

import (
	"context"

	apperrors "github.com/AlexanderMakarov/tgjournals/internal/errors"
	"github.com/AlexanderMakarov/tgjournals/internal/models"
	"github.com/AlexanderMakarov/tgjournals/internal/utils"
	"go.uber.org/zap"
)

const adminSubject = "admin"

type authService struct {
	passwordHash string
	jwtManager   *utils.JWTManager
	log          *zap.Logger
}

// NewAuthService creates an AuthService checking passwords against the
// bcrypt passwordHash.
func NewAuthService(passwordHash string, jwtManager *utils.JWTManager, log *zap.Logger) AuthService {
	return &authService{
		passwordHash: passwordHash,
		jwtManager:   jwtManager,
		log:          log,
	}
}

func (s *authService) IssueToken(ctx context.Context, password string) (*TokenResponse, error) {
	if s.passwordHash == "" {
		return nil, apperrors.New(apperrors.ErrAuthentication, "admin password is not configured")
	}

	ok, err := utils.VerifyPassword(password, s.passwordHash)
	if err != nil {
		s.log.Error("Invalid admin password hash", zap.Error(err))
		return nil, apperrors.Wrap(err, apperrors.ErrAuthentication, "verify password")
	}
	if !ok {
		s.log.Warn("Admin login failed")
		return nil, apperrors.New(apperrors.ErrAuthentication, "wrong password")
	}

	token, expiresAt, err := s.jwtManager.GenerateAccessToken(adminSubject, string(models.RoleAdmin))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "sign token")
	}

	s.log.Info("Admin token issued", zap.Time("expiresAt", expiresAt))
	return &TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *authService) ValidateToken(ctx context.Context, token string) (*utils.AdminClaims, error) {
	claims, err := s.jwtManager.ValidateToken(token)
	if err == utils.ErrExpiredToken {
		return nil, apperrors.New(apperrors.ErrTokenExpired)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTokenInvalid)
	}
	return claims, nil
}
