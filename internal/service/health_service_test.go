package service

import (
	"context"
	"testing"
	"time"

	"github.com/AlexanderMakarov/tgjournals/internal/models"
	"github.com/AlexanderMakarov/tgjournals/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHealthServiceCachesCounts(t *testing.T) {
	db := repository.NewTestDB(t)
	services := NewServices(db, &Config{HealthCacheTTL: time.Hour, JWTSecret: "x", TokenTTL: time.Hour}, zap.NewNop())
	ctx := context.Background()

	status, err := services.Health.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), status.Users)

	repository.SeedUser(t, db, 1, "a", models.RolePlayer)

	cached, err := services.Health.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cached.Users)
	assert.Equal(t, status.LastUpdated, cached.LastUpdated)

	fresh := NewHealthService(db, repository.NewManager(db), 0, zap.NewNop())
	status, err = fresh.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), status.Users)
}
