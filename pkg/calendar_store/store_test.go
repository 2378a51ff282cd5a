package calendar_store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rallypoint/rallypoint/internal/event_bus"
	"github.com/rallypoint/rallypoint/internal/test_utils"
	"github.com/rallypoint/rallypoint/internal/utils"
	"github.com/rallypoint/rallypoint/pkg/backend"
	"github.com/rallypoint/rallypoint/pkg/calendar"
	"github.com/rallypoint/rallypoint/pkg/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notification struct {
	level   string
	message string
}

type recordingNotifier struct {
	received []notification
}

func (n *recordingNotifier) Success(_ context.Context, message string) {
	n.received = append(n.received, notification{"success", message})
}

func (n *recordingNotifier) Error(_ context.Context, failure *backend.Failure) {
	n.received = append(n.received, notification{"error", failure.Message})
}

func (n *recordingNotifier) errors() []string {
	var messages []string
	for _, r := range n.received {
		if r.level == "error" {
			messages = append(messages, r.message)
		}
	}
	return messages
}

func row(id int, title string, date string) event.Event {
	return event.Event{
		Id:              id,
		Title:           title,
		Date:            date,
		Time:            "10:00:00",
		Duration:        "1 hour",
		Sport:           "Tennis",
		Location:        "Court 3",
		MaxParticipants: 4,
		Status:          event.DefaultStatus,
	}
}

type storeFixture struct {
	ctx      context.Context
	store    *Store
	backend  *BackendStub
	clock    *utils.MockClock
	notifier *recordingNotifier
}

func setupStore(t *testing.T, rows ...event.Event) storeFixture {
	t.Helper()
	stub := NewBackendStub(rows...)
	clock := &utils.MockClock{FixedNow: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	notifier := &recordingNotifier{}
	store := NewStore(stub, Options{
		Clock:    clock,
		Location: time.UTC,
		Notifier: notifier,
	})
	return storeFixture{
		ctx:      test_utils.WithTestUser(context.Background()),
		store:    store,
		backend:  stub,
		clock:    clock,
		notifier: notifier,
	}
}

func ids(events []calendar.Event) []string {
	result := make([]string, 0, len(events))
	for _, e := range events {
		result = append(result, e.Id)
	}
	return result
}

func TestStore_FetchAll(t *testing.T) {
	t.Run("replaces collection with adapted rows in date order", func(t *testing.T) {
		// given
		f := setupStore(t, row(2, "Doubles", "2025-06-03"), row(1, "Singles", "2025-06-02"))

		// when
		failure := f.store.FetchAll(f.ctx)

		// then
		require.Nil(t, failure)
		state := f.store.State()
		assert.Equal(t, []string{"1", "2"}, ids(state.Events))
		assert.False(t, state.Loading)
		assert.Nil(t, state.Error)
		assert.Equal(t, time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC), state.Events[0].Start)
		assert.Equal(t, time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC), state.Events[0].End)
		assert.Equal(t, "green", state.Events[0].Color)
	})

	t.Run("is loading while the call is outstanding", func(t *testing.T) {
		// given
		f := setupStore(t, row(1, "Singles", "2025-06-02"))
		var during State
		f.backend.BeforeReturn = func() { during = f.store.State() }

		// when
		f.store.FetchAll(f.ctx)

		// then
		assert.True(t, during.Loading)
		assert.Empty(t, during.Events)
		assert.False(t, f.store.State().Loading)
	})

	t.Run("keeps previous collection on failure", func(t *testing.T) {
		// given
		f := setupStore(t, row(1, "Singles", "2025-06-02"))
		require.Nil(t, f.store.FetchAll(f.ctx))
		f.backend.Failure = backend.NewFailure(backend.KindPermission, "Access denied")

		// when
		failure := f.store.FetchAll(f.ctx)

		// then
		require.NotNil(t, failure)
		state := f.store.State()
		assert.Equal(t, []string{"1"}, ids(state.Events))
		require.NotNil(t, state.Error)
		assert.Equal(t, "Access denied", *state.Error)
		assert.False(t, state.Loading)
		assert.Equal(t, []string{"Access denied"}, f.notifier.errors())
	})

	t.Run("discards a fetch overtaken by a later fetch", func(t *testing.T) {
		// given
		f := setupStore(t, row(1, "Singles", "2025-06-02"))
		f.backend.BeforeReturn = func() {
			f.backend.Seed(row(1, "Singles", "2025-06-02"), row(2, "Doubles", "2025-06-03"))
			require.Nil(t, f.store.FetchAll(f.ctx))
		}

		// when
		f.store.FetchAll(f.ctx)

		// then
		state := f.store.State()
		assert.Equal(t, []string{"1", "2"}, ids(state.Events))
		assert.False(t, state.Loading)
	})

	t.Run("replays a create committed while the fetch was outstanding", func(t *testing.T) {
		// given
		f := setupStore(t, row(1, "Singles", "2025-06-02"), row(3, "Mixed", "2025-06-04"))
		f.backend.BeforeReturn = func() {
			require.Nil(t, f.store.Create(f.ctx, event.Insert{Title: "Doubles", Date: "2025-06-03", Sport: "Tennis"}))
		}

		// when
		failure := f.store.FetchAll(f.ctx)

		// then
		require.Nil(t, failure)
		state := f.store.State()
		assert.Equal(t, []string{"1", "3", "4"}, ids(state.Events))
		assert.Len(t, state.Events, len(f.backend.ListEvents(f.ctx).Value()))
		assert.False(t, state.Loading)
	})

	t.Run("replays an update and a delete committed while the fetch was outstanding", func(t *testing.T) {
		// given
		f := setupStore(t, row(1, "Singles", "2025-06-02"), row(2, "Doubles", "2025-06-03"), row(3, "Mixed", "2025-06-04"))
		require.Nil(t, f.store.FetchAll(f.ctx))
		title := "Doubles Ladder"
		f.backend.BeforeReturn = func() {
			require.Nil(t, f.store.Update(f.ctx, 2, event.Update{Title: &title}))
			require.Nil(t, f.store.Delete(f.ctx, 3))
		}

		// when
		failure := f.store.FetchAll(f.ctx)

		// then
		require.Nil(t, failure)
		state := f.store.State()
		require.Equal(t, []string{"1", "2"}, ids(state.Events))
		assert.Equal(t, "Doubles Ladder", state.Events[1].Title)
	})

	t.Run("a create landing after a fetch that already saw its row is not duplicated", func(t *testing.T) {
		// given
		f := setupStore(t, row(1, "Singles", "2025-06-02"))
		f.backend.BeforeReturn = func() {
			require.Nil(t, f.store.FetchAll(f.ctx))
		}

		// when
		failure := f.store.Create(f.ctx, event.Insert{Title: "Doubles", Date: "2025-06-03", Sport: "Tennis"})

		// then
		require.Nil(t, failure)
		assert.Equal(t, []string{"1", "2"}, ids(f.store.State().Events))
	})
}

func TestStore_Create(t *testing.T) {
	t.Run("appends the stored row", func(t *testing.T) {
		// given
		f := setupStore(t, row(1, "Singles", "2025-06-02"))
		require.Nil(t, f.store.FetchAll(f.ctx))

		// when
		failure := f.store.Create(f.ctx, event.Insert{
			Title:    "Pickup",
			Date:     "2025-06-01",
			Time:     "18:00:00",
			Duration: "90 minutes",
			Sport:    "Basketball",
		})

		// then
		require.Nil(t, failure)
		state := f.store.State()
		require.Equal(t, []string{"1", "2"}, ids(state.Events))
		created := state.Events[1]
		assert.Equal(t, "Pickup", created.Title)
		assert.Equal(t, "orange", created.Color)
		assert.Equal(t, 90*time.Minute, created.End.Sub(created.Start))
		assert.Equal(t, []notification{{"success", "Event created"}}, f.notifier.received)
	})

	t.Run("leaves collection untouched on failure", func(t *testing.T) {
		// given
		f := setupStore(t, row(1, "Singles", "2025-06-02"))
		require.Nil(t, f.store.FetchAll(f.ctx))
		before := f.store.State().Events
		f.backend.Failure = backend.NewFailure(backend.KindConflict, "duplicate title")

		// when
		failure := f.store.Create(f.ctx, event.Insert{Title: "Singles"})

		// then
		require.NotNil(t, failure)
		assert.Equal(t, backend.KindConflict, failure.Kind)
		state := f.store.State()
		assert.Equal(t, before, state.Events)
		require.NotNil(t, state.Error)
		assert.Equal(t, "duplicate title", *state.Error)
		assert.False(t, state.Loading)
		assert.Equal(t, []string{"duplicate title"}, f.notifier.errors())
	})

	t.Run("clears the previous error when starting", func(t *testing.T) {
		// given
		f := setupStore(t)
		f.backend.Failure = backend.NewFailure(backend.KindConflict, "duplicate title")
		f.store.Create(f.ctx, event.Insert{Title: "Singles"})
		f.backend.Failure = nil
		var during State
		f.backend.BeforeReturn = func() { during = f.store.State() }

		// when
		failure := f.store.Create(f.ctx, event.Insert{Title: "Doubles"})

		// then
		require.Nil(t, failure)
		assert.Nil(t, during.Error)
		assert.Nil(t, f.store.State().Error)
	})
}

func TestStore_Update(t *testing.T) {
	t.Run("replaces entry in place", func(t *testing.T) {
		// given
		f := setupStore(t, row(1, "Singles", "2025-06-02"), row(2, "Doubles", "2025-06-03"), row(3, "Mixed", "2025-06-04"))
		require.Nil(t, f.store.FetchAll(f.ctx))
		title := "Doubles Ladder"
		duration := "3 hrs"

		// when
		failure := f.store.Update(f.ctx, 2, event.Update{Title: &title, Duration: &duration})

		// then
		require.Nil(t, failure)
		state := f.store.State()
		assert.Equal(t, []string{"1", "2", "3"}, ids(state.Events))
		assert.Equal(t, "Doubles Ladder", state.Events[1].Title)
		assert.Equal(t, 3*time.Hour, state.Events[1].End.Sub(state.Events[1].Start))
	})

	t.Run("refreshes the selected event", func(t *testing.T) {
		// given
		f := setupStore(t, row(1, "Singles", "2025-06-02"))
		require.Nil(t, f.store.FetchAll(f.ctx))
		selected := f.store.State().Events[0]
		f.store.Select(f.ctx, &selected)
		title := "Singles Final"

		// when
		failure := f.store.Update(f.ctx, 1, event.Update{Title: &title})

		// then
		require.Nil(t, failure)
		require.NotNil(t, f.store.State().Selected)
		assert.Equal(t, "Singles Final", f.store.State().Selected.Title)
	})

	t.Run("leaves collection untouched on failure", func(t *testing.T) {
		// given
		f := setupStore(t, row(1, "Singles", "2025-06-02"))
		require.Nil(t, f.store.FetchAll(f.ctx))
		before := f.store.State().Events
		title := "Renamed"

		// when
		failure := f.store.Update(f.ctx, 99, event.Update{Title: &title})

		// then
		require.NotNil(t, failure)
		assert.Equal(t, backend.KindNotFound, failure.Kind)
		assert.Equal(t, before, f.store.State().Events)
		assert.Equal(t, "Resource not found", *f.store.State().Error)
	})
}

func TestStore_Delete(t *testing.T) {
	t.Run("removes the entry and keeps the order of the rest", func(t *testing.T) {
		// given
		f := setupStore(t, row(3, "Singles", "2025-06-02"), row(7, "Doubles", "2025-06-03"), row(9, "Mixed", "2025-06-04"))
		require.Nil(t, f.store.FetchAll(f.ctx))

		// when
		failure := f.store.Delete(f.ctx, 7)

		// then
		require.Nil(t, failure)
		state := f.store.State()
		assert.Equal(t, []string{"3", "9"}, ids(state.Events))
		assert.False(t, state.Loading)
		assert.Nil(t, state.Error)
	})

	t.Run("leaves collection untouched on failure", func(t *testing.T) {
		// given
		f := setupStore(t, row(7, "Doubles", "2025-06-03"))
		require.Nil(t, f.store.FetchAll(f.ctx))
		f.backend.Failure = backend.NewFailure(backend.KindPermission, "Access denied")

		// when
		failure := f.store.Delete(f.ctx, 7)

		// then
		require.NotNil(t, failure)
		assert.Equal(t, []string{"7"}, ids(f.store.State().Events))
		assert.Equal(t, "Access denied", *f.store.State().Error)
	})
}

func TestStore_SheetAndSelection(t *testing.T) {
	first := calendar.Event{Id: "1", Title: "Singles"}
	second := calendar.Event{Id: "2", Title: "Doubles"}

	t.Run("opening is immediate", func(t *testing.T) {
		f := setupStore(t)

		f.store.SetSheetOpen(f.ctx, true)

		assert.True(t, f.store.State().SheetOpen)
	})

	t.Run("closing clears the selection after the delay", func(t *testing.T) {
		// given
		f := setupStore(t)
		f.store.Select(f.ctx, &first)
		f.store.SetSheetOpen(f.ctx, true)

		// when
		f.store.SetSheetOpen(f.ctx, false)

		// then
		assert.False(t, f.store.State().SheetOpen)
		f.clock.Advance(DefaultSheetCloseDelay - time.Millisecond)
		require.NotNil(t, f.store.State().Selected)
		assert.Equal(t, "1", f.store.State().Selected.Id)

		f.clock.Advance(time.Millisecond)
		assert.Nil(t, f.store.State().Selected)
		assert.Equal(t, 0, f.clock.Pending())
	})

	t.Run("reopening with another event within the delay keeps the new selection", func(t *testing.T) {
		// given
		f := setupStore(t)
		f.store.Select(f.ctx, &first)
		f.store.SetSheetOpen(f.ctx, true)
		f.store.SetSheetOpen(f.ctx, false)
		f.clock.Advance(200 * time.Millisecond)

		// when
		f.store.Select(f.ctx, &second)
		f.store.SetSheetOpen(f.ctx, true)
		f.clock.Advance(time.Second)

		// then
		state := f.store.State()
		assert.True(t, state.SheetOpen)
		require.NotNil(t, state.Selected)
		assert.Equal(t, "2", state.Selected.Id)
		assert.Equal(t, 0, f.clock.Pending())
	})

	t.Run("reopening alone cancels the pending clear", func(t *testing.T) {
		// given
		f := setupStore(t)
		f.store.Select(f.ctx, &first)
		f.store.SetSheetOpen(f.ctx, false)

		// when
		f.store.SetSheetOpen(f.ctx, true)
		f.clock.Advance(time.Second)

		// then
		require.NotNil(t, f.store.State().Selected)
		assert.Equal(t, "1", f.store.State().Selected.Id)
	})

	t.Run("closing twice schedules a single clear", func(t *testing.T) {
		f := setupStore(t)
		f.store.Select(f.ctx, &first)

		f.store.SetSheetOpen(f.ctx, false)
		f.clock.Advance(400 * time.Millisecond)
		f.store.SetSheetOpen(f.ctx, false)
		f.clock.Advance(400 * time.Millisecond)

		require.NotNil(t, f.store.State().Selected)
		f.clock.Advance(100 * time.Millisecond)
		assert.Nil(t, f.store.State().Selected)
	})

	t.Run("select copies the event", func(t *testing.T) {
		f := setupStore(t)
		selected := first

		f.store.Select(f.ctx, &selected)
		selected.Title = "changed"

		assert.Equal(t, "Singles", f.store.State().Selected.Title)
	})

	t.Run("select nil clears", func(t *testing.T) {
		f := setupStore(t)
		f.store.Select(f.ctx, &first)

		f.store.Select(f.ctx, nil)

		assert.Nil(t, f.store.State().Selected)
	})
}

func TestStore_ClearError(t *testing.T) {
	// given
	f := setupStore(t)
	f.backend.Failure = backend.NewFailure(backend.KindUnknown, "boom")
	f.store.FetchAll(f.ctx)
	require.NotNil(t, f.store.State().Error)
	version := f.store.State().Version

	// when
	f.store.ClearError(f.ctx)
	f.store.ClearError(f.ctx)

	// then
	assert.Nil(t, f.store.State().Error)
	assert.Equal(t, version+1, f.store.State().Version)
}

func TestStore_Subscribe(t *testing.T) {
	// given
	f := setupStore(t, row(1, "Singles", "2025-06-02"))
	var states []State
	unsubscribe := f.store.Subscribe(func(s State) { states = append(states, s) })
	var notifications []event_bus.Notification
	f.store.SubscribeNotifications(func(n event_bus.Notification) { notifications = append(notifications, n) })

	// when
	require.Nil(t, f.store.FetchAll(f.ctx))
	unsubscribe()
	f.store.SetSheetOpen(f.ctx, true)
	f.backend.Failure = backend.NewFailure(backend.KindPermission, "Access denied")
	f.store.Delete(f.ctx, 1)

	// then
	require.Len(t, states, 2)
	assert.True(t, states[0].Loading)
	assert.False(t, states[1].Loading)
	assert.Len(t, states[1].Events, 1)
	assert.Less(t, states[0].Version, states[1].Version)

	require.Len(t, notifications, 1)
	assert.Equal(t, event_bus.NotificationError, notifications[0].Level)
	assert.Equal(t, "Access denied", notifications[0].Message)
	assert.Equal(t, f.clock.Now(), notifications[0].At)
}

func TestStore_SnapshotIsolation(t *testing.T) {
	// given
	cost := 12.5
	withCost := row(1, "Singles", "2025-06-02")
	withCost.Cost = &cost
	withCost.SkillLevels = json.RawMessage(`["beginner"]`)
	f := setupStore(t, withCost)
	require.Nil(t, f.store.FetchAll(f.ctx))
	f.store.Select(f.ctx, &f.store.State().Events[0])

	// when
	snapshot := f.store.State()
	snapshot.Events[0].Title = "changed"
	*snapshot.Events[0].ExtendedProps.Cost = 99
	snapshot.Events[0].ExtendedProps.SkillLevels[2] = 'X'
	*snapshot.Selected.ExtendedProps.Cost = 99

	// then
	state := f.store.State()
	assert.Equal(t, "Singles", state.Events[0].Title)
	assert.Equal(t, 12.5, *state.Events[0].ExtendedProps.Cost)
	assert.JSONEq(t, `["beginner"]`, string(state.Events[0].ExtendedProps.SkillLevels))
	assert.Equal(t, 12.5, *state.Selected.ExtendedProps.Cost)
}
