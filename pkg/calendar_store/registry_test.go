package calendar_store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rallypoint/rallypoint/internal/test_utils"
	"github.com/rallypoint/rallypoint/internal/utils"
	"github.com/rallypoint/rallypoint/pkg/backend"
	"github.com/rallypoint/rallypoint/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var otherUser = user.User{
	Id:    uuid.MustParse("0a3e9b52-1d7c-4f2e-8b61-5c9d2e7f1a33"),
	Email: "other.user@rallypoint.test",
}

func TestRegistry_For(t *testing.T) {
	// given
	registry := NewRegistry(NewBackendStub(), Options{Location: time.UTC})

	// when
	first := registry.For(test_utils.TestUser)
	again := registry.For(test_utils.TestUser)
	other := registry.For(otherUser)

	// then
	assert.Same(t, first, again)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, registry.Len())
}

func TestRegistry_Each(t *testing.T) {
	registry := NewRegistry(NewBackendStub(), Options{Location: time.UTC})
	registry.For(test_utils.TestUser)
	registry.For(otherUser)

	var owners []uuid.UUID
	registry.Each(func(owner user.User, store *Store) {
		owners = append(owners, owner.Id)
	})

	assert.Equal(t, []uuid.UUID{otherUser.Id, test_utils.TestUser.Id}, owners)
}

func TestRegistry_EvictIdle(t *testing.T) {
	setup := func() (*Registry, *utils.MockClock) {
		clock := &utils.MockClock{FixedNow: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
		return NewRegistry(NewBackendStub(), Options{Clock: clock, Location: time.UTC, IdleTimeout: 30 * time.Minute}), clock
	}

	t.Run("drops stores unused past the idle timeout", func(t *testing.T) {
		// given
		registry, clock := setup()
		stale := registry.For(test_utils.TestUser)
		clock.Advance(20 * time.Minute)
		registry.For(otherUser)
		clock.Advance(15 * time.Minute)

		// when
		evicted := registry.EvictIdle()

		// then
		assert.Equal(t, 1, evicted)
		assert.Equal(t, 1, registry.Len())
		assert.NotSame(t, stale, registry.For(test_utils.TestUser))
	})

	t.Run("keeps stores with state subscribers", func(t *testing.T) {
		// given
		registry, clock := setup()
		watched := registry.For(test_utils.TestUser)
		unsubscribe := watched.Subscribe(func(State) {})
		clock.Advance(time.Hour)

		// when
		evicted := registry.EvictIdle()

		// then
		assert.Zero(t, evicted)
		assert.Same(t, watched, registry.For(test_utils.TestUser))

		unsubscribe()
		clock.Advance(time.Hour)
		assert.Equal(t, 1, registry.EvictIdle())
	})

	t.Run("use resets the idle timer", func(t *testing.T) {
		registry, clock := setup()
		store := registry.For(test_utils.TestUser)
		clock.Advance(25 * time.Minute)
		registry.For(test_utils.TestUser)
		clock.Advance(25 * time.Minute)

		assert.Zero(t, registry.EvictIdle())
		assert.Same(t, store, registry.For(test_utils.TestUser))
	})

	t.Run("zero timeout keeps every store", func(t *testing.T) {
		clock := &utils.MockClock{FixedNow: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
		registry := NewRegistry(NewBackendStub(), Options{Clock: clock, Location: time.UTC})
		registry.For(test_utils.TestUser)
		clock.Advance(24 * time.Hour)

		assert.Zero(t, registry.EvictIdle())
		assert.Equal(t, 1, registry.Len())
	})
}

func TestRefresher_RefreshAll(t *testing.T) {
	t.Run("fetches every store on behalf of its owner", func(t *testing.T) {
		// given
		stub := NewBackendStub(row(1, "Singles", "2025-06-02"))
		registry := NewRegistry(stub, Options{Location: time.UTC})
		mine := registry.For(test_utils.TestUser)
		theirs := registry.For(otherUser)
		refresher := NewRefresher(registry, "", time.UTC)

		// when
		refresher.RefreshAll(context.Background())

		// then
		assert.ElementsMatch(t, []uuid.UUID{test_utils.TestUser.Id, otherUser.Id}, stub.Callers)
		assert.Len(t, mine.State().Events, 1)
		assert.Len(t, theirs.State().Events, 1)
	})

	t.Run("does not refetch stores that went idle", func(t *testing.T) {
		// given
		clock := &utils.MockClock{FixedNow: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
		stub := NewBackendStub(row(1, "Singles", "2025-06-02"))
		registry := NewRegistry(stub, Options{Clock: clock, Location: time.UTC, IdleTimeout: 30 * time.Minute})
		registry.For(test_utils.TestUser)
		clock.Advance(time.Hour)
		registry.For(otherUser)

		// when
		NewRefresher(registry, "", time.UTC).RefreshAll(context.Background())

		// then
		assert.Equal(t, []uuid.UUID{otherUser.Id}, stub.Callers)
		assert.Equal(t, 1, registry.Len())
	})

	t.Run("continues after a failing store", func(t *testing.T) {
		// given
		stub := NewBackendStub()
		stub.Failure = backend.NewFailure(backend.KindPermission, "Access denied")
		registry := NewRegistry(stub, Options{Location: time.UTC})
		registry.For(test_utils.TestUser)
		registry.For(otherUser)

		// when
		NewRefresher(registry, "", time.UTC).RefreshAll(context.Background())

		// then
		assert.Len(t, stub.Callers, 2)
	})
}

func TestRefresher_Start(t *testing.T) {
	t.Run("empty schedule disables refresh", func(t *testing.T) {
		refresher := NewRefresher(NewRegistry(NewBackendStub(), Options{}), "", nil)

		require.NoError(t, refresher.Start())
		<-refresher.Stop().Done()
	})

	t.Run("rejects invalid schedule", func(t *testing.T) {
		refresher := NewRefresher(NewRegistry(NewBackendStub(), Options{}), "every now and then", nil)

		assert.Error(t, refresher.Start())
	})

	t.Run("accepts descriptor schedule", func(t *testing.T) {
		refresher := NewRefresher(NewRegistry(NewBackendStub(), Options{}), "@every 5m", nil)

		require.NoError(t, refresher.Start())
		<-refresher.Stop().Done()
	})
}
