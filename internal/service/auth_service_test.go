package service

import (
	"context"
	"testing"
	"time"

	"github.com/AlexanderMakarov/tgjournals/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAuthServiceIssueAndValidate(t *testing.T) {
	hash, err := utils.HashPassword("s3cret")
	require.NoError(t, err)
	auth := NewAuthService(hash, utils.NewJWTManager("secret", time.Hour), zap.NewNop())
	ctx := context.Background()

	_, err = auth.IssueToken(ctx, "wrong")
	assert.Error(t, err)

	token, err := auth.IssueToken(ctx, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)

	claims, err := auth.ValidateToken(ctx, token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, adminSubject, claims.Subject)

	_, err = auth.ValidateToken(ctx, "garbage")
	assert.Error(t, err)
}

func TestAuthServiceWithoutPassword(t *testing.T) {
	auth := NewAuthService("", utils.NewJWTManager("secret", time.Hour), zap.NewNop())
	_, err := auth.IssueToken(context.Background(), "")
	assert.Error(t, err)
}
