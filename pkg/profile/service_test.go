package profile

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rallypoint/rallypoint/internal/test_utils"
	"github.com/rallypoint/rallypoint/pkg/backend"
	"github.com/rallypoint/rallypoint/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) (context.Context, *ServiceImpl, *RepositoryStub) {
	repo := NewRepositoryStub()
	ctx := test_utils.WithTestUser(context.Background())
	_, err := repo.CreateProfile(ctx, Profile{Id: test_utils.TestUser.Id, FullName: "Test User", Role: DefaultRole})
	require.NoError(t, err)
	return ctx, NewService(repo), repo
}

func TestServiceImpl_GetCurrentProfile(t *testing.T) {
	t.Run("should return profile of signed-in user", func(t *testing.T) {
		// given
		ctx, service, _ := setupService(t)

		// when
		p, err := service.GetCurrentProfile(ctx)

		// then
		require.NoError(t, err)
		assert.Equal(t, test_utils.TestUser.Id, p.Id)
		assert.Equal(t, "Test User", p.FullName)
	})

	t.Run("should fail without user", func(t *testing.T) {
		// given
		_, service, _ := setupService(t)

		// when
		_, err := service.GetCurrentProfile(context.Background())

		// then
		assert.ErrorIs(t, err, user.ErrNoUser)
	})
}

func TestServiceImpl_ListProfiles(t *testing.T) {
	// given
	ctx, service, repo := setupService(t)
	_, _ = repo.CreateProfile(ctx, Profile{Id: uuid.New(), FullName: "Alice Adams"})
	_, _ = repo.CreateProfile(ctx, Profile{Id: uuid.New(), FullName: "Zoe Zimmer"})

	// when
	profiles, err := service.ListProfiles(ctx)

	// then
	require.NoError(t, err)
	require.Len(t, profiles, 3)
	assert.Equal(t, "Alice Adams", profiles[0].FullName)
	assert.Equal(t, "Test User", profiles[1].FullName)
	assert.Equal(t, "Zoe Zimmer", profiles[2].FullName)
}

func TestServiceImpl_UpdateCurrentProfile(t *testing.T) {
	t.Run("should trim and store changes", func(t *testing.T) {
		// given
		ctx, service, _ := setupService(t)
		name := "  New Name "
		username := "newname"

		// when
		updated, err := service.UpdateCurrentProfile(ctx, Update{FullName: &name, Username: &username})

		// then
		require.NoError(t, err)
		assert.Equal(t, "New Name", updated.FullName)
		assert.Equal(t, "newname", updated.Username)
		assert.NotNil(t, updated.UpdatedAt)
	})

	t.Run("should reject too short username", func(t *testing.T) {
		// given
		ctx, service, _ := setupService(t)
		username := "ab"

		// when
		_, err := service.UpdateCurrentProfile(ctx, Update{Username: &username})

		// then
		failure := backend.Classify(err)
		assert.Equal(t, backend.KindValidation, failure.Kind)
	})
}

func TestServiceImpl_CreateProfile(t *testing.T) {
	t.Run("should default role", func(t *testing.T) {
		// given
		ctx, service, _ := setupService(t)
		id := uuid.New()

		// when
		created, err := service.CreateProfile(ctx, Profile{Id: id, FullName: " Jamie Doe "})

		// then
		require.NoError(t, err)
		assert.Equal(t, DefaultRole, created.Role)
		assert.Equal(t, "Jamie Doe", created.FullName)
	})

	t.Run("should map duplicate to conflict", func(t *testing.T) {
		// given
		ctx, service, _ := setupService(t)

		// when
		_, err := service.CreateProfile(ctx, Profile{Id: test_utils.TestUser.Id})

		// then
		failure := backend.Classify(err)
		assert.Equal(t, backend.KindConflict, failure.Kind)
		assert.Equal(t, "Resource already exists", failure.Message)
	})
}
