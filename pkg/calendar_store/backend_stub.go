package calendar_store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rallypoint/rallypoint/pkg/backend"
	"github.com/rallypoint/rallypoint/pkg/event"
	"github.com/rallypoint/rallypoint/pkg/user"
)

// BackendStub is an in-memory Backend.
type BackendStub struct {
	mu     sync.Mutex
	events []event.Event
	nextId int
	// Failure, when set, is returned by every call.
	Failure *backend.Failure
	// BeforeReturn, when set, runs once inside the next call after its result is decided.
	BeforeReturn func()
	// Callers records the user behind each call, uuid.Nil when there was none.
	Callers []uuid.UUID
}

func NewBackendStub(events ...event.Event) *BackendStub {
	stub := &BackendStub{nextId: 1}
	stub.Seed(events...)
	return stub
}

// Seed replaces the stored rows.
func (b *BackendStub) Seed(events ...event.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = slices.Clone(events)
	for _, e := range events {
		if e.Id >= b.nextId {
			b.nextId = e.Id + 1
		}
	}
}

func (b *BackendStub) ListEvents(ctx context.Context) backend.Result[[]event.Event] {
	b.mu.Lock()
	failure := b.record(ctx)
	rows := slices.Clone(b.events)
	hook := b.takeHook()
	b.mu.Unlock()

	if hook != nil {
		hook()
	}
	if failure != nil {
		return backend.Fail[[]event.Event](failure)
	}
	slices.SortStableFunc(rows, func(a, c event.Event) int {
		return strings.Compare(a.Date, c.Date)
	})
	return backend.Ok(rows)
}

func (b *BackendStub) InsertEvent(ctx context.Context, in event.Insert) backend.Result[event.Event] {
	b.mu.Lock()
	failure := b.record(ctx)
	var created event.Event
	if failure == nil {
		created = event.Event{
			Id:               b.nextId,
			Title:            in.Title,
			Description:      in.Description,
			Date:             in.Date,
			Time:             in.Time,
			Duration:         in.Duration,
			Sport:            in.Sport,
			Location:         in.Location,
			MaxParticipants:  in.MaxParticipants,
			ParticipantCount: in.ParticipantCount,
			Status:           in.Status,
		}
		b.nextId++
		b.events = append(b.events, created)
	}
	hook := b.takeHook()
	b.mu.Unlock()

	if hook != nil {
		hook()
	}
	if failure != nil {
		return backend.Fail[event.Event](failure)
	}
	return backend.Ok(created)
}

func (b *BackendStub) UpdateEvent(ctx context.Context, id int, patch event.Update) backend.Result[event.Event] {
	b.mu.Lock()
	failure := b.record(ctx)
	var updated event.Event
	if failure == nil {
		idx := slices.IndexFunc(b.events, func(e event.Event) bool { return e.Id == id })
		if idx < 0 {
			failure = backend.NewFailure(backend.KindNotFound, "Resource not found")
		} else {
			apply(&b.events[idx], patch)
			updated = b.events[idx]
		}
	}
	hook := b.takeHook()
	b.mu.Unlock()

	if hook != nil {
		hook()
	}
	if failure != nil {
		return backend.Fail[event.Event](failure)
	}
	return backend.Ok(updated)
}

func (b *BackendStub) DeleteEvent(ctx context.Context, id int) backend.Result[struct{}] {
	b.mu.Lock()
	failure := b.record(ctx)
	if failure == nil {
		b.events = slices.DeleteFunc(b.events, func(e event.Event) bool { return e.Id == id })
	}
	hook := b.takeHook()
	b.mu.Unlock()

	if hook != nil {
		hook()
	}
	if failure != nil {
		return backend.Fail[struct{}](failure)
	}
	return backend.Ok(struct{}{})
}

func (b *BackendStub) record(ctx context.Context) *backend.Failure {
	id, _ := user.CurrentId(ctx)
	b.Callers = append(b.Callers, id)
	return b.Failure
}

func (b *BackendStub) takeHook() func() {
	hook := b.BeforeReturn
	b.BeforeReturn = nil
	return hook
}

func apply(e *event.Event, patch event.Update) {
	setIf(&e.Title, patch.Title)
	setIf(&e.Description, patch.Description)
	setIf(&e.Date, patch.Date)
	setIf(&e.Time, patch.Time)
	setIf(&e.Duration, patch.Duration)
	setIf(&e.Sport, patch.Sport)
	setIf(&e.Location, patch.Location)
	setIf(&e.MaxParticipants, patch.MaxParticipants)
	setIf(&e.ParticipantCount, patch.ParticipantCount)
	setIf(&e.Status, patch.Status)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
