package calendar_store

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/rallypoint/rallypoint/internal/event_bus"
	"github.com/rallypoint/rallypoint/internal/utils"
	"github.com/rallypoint/rallypoint/pkg/backend"
	"github.com/rallypoint/rallypoint/pkg/calendar"
	"github.com/rallypoint/rallypoint/pkg/event"
	"github.com/rallypoint/rallypoint/pkg/notify"
	log "github.com/sirupsen/logrus"
)

// DefaultSheetCloseDelay is how long the selection outlives a closed sheet.
const DefaultSheetCloseDelay = 500 * time.Millisecond

// Backend is the remote source of truth for events.
type Backend interface {
	ListEvents(ctx context.Context) backend.Result[[]event.Event]
	InsertEvent(ctx context.Context, in event.Insert) backend.Result[event.Event]
	UpdateEvent(ctx context.Context, id int, patch event.Update) backend.Result[event.Event]
	DeleteEvent(ctx context.Context, id int) backend.Result[struct{}]
}

// State is a snapshot of the store. Version grows with every change so subscribers can drop
// snapshots that arrive out of order.
type State struct {
	Events    []calendar.Event `json:"events"`
	Selected  *calendar.Event  `json:"selectedEvent"`
	SheetOpen bool             `json:"openSheet"`
	Loading   bool             `json:"loading"`
	Error     *string          `json:"error"`
	Version   uint64           `json:"version"`
}

type Options struct {
	Clock           utils.Clock
	SheetCloseDelay time.Duration
	// Location is the timezone event dates and times are read in.
	Location        *time.Location
	Notifier        notify.Notifier
	// IdleTimeout is how long a Registry keeps an unwatched store after its last use.
	// Zero keeps stores forever.
	IdleTimeout     time.Duration
}

// Store owns the calendar view of one user. Remote calls run outside the lock; their
// results are committed under it, so only Loading is observable mid-command.
type Store struct {
	backend  Backend
	clock    utils.Clock
	delay    time.Duration
	location *time.Location
	notifier notify.Notifier
	bus      *event_bus.EventBus

	mu       sync.Mutex
	state    State
	inFlight int
	// generation is bumped by every fetch start. A fetch whose generation is no longer
	// current has been overtaken by a newer fetch and is discarded.
	generation uint64
	// fetching counts fetches in flight. While it is positive every committed mutation is
	// also journaled so it can be replayed onto the rows a fetch brings back.
	fetching     int
	journal      []edit
	pendingClear utils.Timer
	clearSeq     uint64
}

// edit applies one committed mutation to a collection. Edits are idempotent, so replaying
// one onto fetched rows that already contain the change leaves them as they are.
type edit func(events []calendar.Event) []calendar.Event

func upsert(e calendar.Event) edit {
	return func(events []calendar.Event) []calendar.Event {
		for i := range events {
			if events[i].Id == e.Id {
				events[i] = e
				return events
			}
		}
		return append(events, e)
	}
}

func remove(id string) edit {
	return func(events []calendar.Event) []calendar.Event {
		return slices.DeleteFunc(events, func(e calendar.Event) bool {
			return e.Id == id
		})
	}
}

func NewStore(b Backend, opts Options) *Store {
	if opts.Clock == nil {
		opts.Clock = utils.SystemClock{}
	}
	if opts.SheetCloseDelay <= 0 {
		opts.SheetCloseDelay = DefaultSheetCloseDelay
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	bus := event_bus.NewEventBus()
	notifiers := notify.Multi{notify.NewBusNotifier(bus, opts.Clock.Now)}
	if opts.Notifier != nil {
		notifiers = append(notify.Multi{opts.Notifier}, notifiers...)
	}
	return &Store{
		backend:  b,
		clock:    opts.Clock,
		delay:    opts.SheetCloseDelay,
		location: opts.Location,
		notifier: notifiers,
		bus:      bus,
		state:    State{Events: []calendar.Event{}},
	}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Subscribe registers fn for every state change.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	return event_bus.SubscribeTyped[State](s.bus, event_bus.CalendarStateChanged, func(e event_bus.EventT[State]) error {
		fn(e.Data)
		return nil
	})
}

// Watched reports whether anything is subscribed to state changes.
func (s *Store) Watched() bool {
	return s.bus.SubscriberCount(event_bus.CalendarStateChanged) > 0
}

// SubscribeNotifications registers fn for every user-facing message the store emits.
func (s *Store) SubscribeNotifications(fn func(event_bus.Notification)) (unsubscribe func()) {
	return event_bus.SubscribeTyped[event_bus.Notification](s.bus, event_bus.NotificationPublished,
		func(e event_bus.EventT[event_bus.Notification]) error {
			fn(e.Data)
			return nil
		})
}

// FetchAll replaces the collection with every event, ordered by date. Mutations committed
// while the fetch is in flight are replayed onto its rows.
func (s *Store) FetchAll(ctx context.Context) *backend.Failure {
	var generation uint64
	var journaled int
	s.mutate(ctx, func() bool {
		s.start()
		s.generation++
		generation = s.generation
		s.fetching++
		journaled = len(s.journal)
		return true
	})

	rows, failure := s.backend.ListEvents(ctx).Unwrap()
	var events []calendar.Event
	if failure == nil {
		events = calendar.ToCalendarEvents(rows, s.location)
	}

	stale := false
	s.mutate(ctx, func() bool {
		s.inFlight--
		defer s.endFetch()
		if generation != s.generation {
			stale = true
			return true
		}
		if failure != nil {
			s.recordFailure(failure)
			return true
		}
		for _, e := range s.journal[journaled:] {
			events = e(events)
		}
		s.state.Events = events
		return true
	})

	if stale {
		log.Debugf("discarding fetch overtaken by a newer one (generation %d)", generation)
		return failure
	}
	if failure != nil {
		log.Errorf("failed to fetch events: %s", failure.Message)
		s.notifier.Error(ctx, failure)
	}
	return failure
}

// endFetch must be called with mu held.
func (s *Store) endFetch() {
	s.fetching--
	if s.fetching == 0 {
		s.journal = nil
	}
}

// Create inserts an event and appends the stored row.
func (s *Store) Create(ctx context.Context, in event.Insert) *backend.Failure {
	s.mutate(ctx, s.startCommand)
	created, failure := s.backend.InsertEvent(ctx, in).Unwrap()
	return s.finish(ctx, failure, "Event created", func() edit {
		return upsert(calendar.ToCalendarEvent(created, s.location))
	})
}

// Update patches an event and replaces its entry in place.
func (s *Store) Update(ctx context.Context, id int, patch event.Update) *backend.Failure {
	s.mutate(ctx, s.startCommand)
	updated, failure := s.backend.UpdateEvent(ctx, id, patch).Unwrap()
	return s.finish(ctx, failure, "Event updated", func() edit {
		adapted := calendar.ToCalendarEvent(updated, s.location)
		if s.state.Selected != nil && s.state.Selected.Id == adapted.Id {
			selected := adapted.Clone()
			s.state.Selected = &selected
		}
		return upsert(adapted)
	})
}

// Delete removes an event remotely and drops its entry.
func (s *Store) Delete(ctx context.Context, id int) *backend.Failure {
	s.mutate(ctx, s.startCommand)
	_, failure := s.backend.DeleteEvent(ctx, id).Unwrap()
	return s.finish(ctx, failure, "Event deleted", func() edit {
		return remove(strconv.Itoa(id))
	})
}

// Select sets or, with nil, clears the selected event. It cancels a pending clear.
func (s *Store) Select(ctx context.Context, e *calendar.Event) {
	s.mutate(ctx, func() bool {
		s.cancelClear()
		if e == nil {
			s.state.Selected = nil
			return true
		}
		selected := e.Clone()
		s.state.Selected = &selected
		return true
	})
}

// SetSheetOpen shows or hides the detail sheet. Hiding keeps the selection until the
// close delay has passed; showing again before then cancels the clear.
func (s *Store) SetSheetOpen(ctx context.Context, open bool) {
	ctx = context.WithoutCancel(ctx)
	s.mutate(ctx, func() bool {
		s.cancelClear()
		s.state.SheetOpen = open
		if !open {
			seq := s.clearSeq
			s.pendingClear = s.clock.AfterFunc(s.delay, func() {
				s.clearSelection(ctx, seq)
			})
		}
		return true
	})
}

func (s *Store) ClearError(ctx context.Context) {
	s.mutate(ctx, func() bool {
		if s.state.Error == nil {
			return false
		}
		s.state.Error = nil
		return true
	})
}

func (s *Store) clearSelection(ctx context.Context, seq uint64) {
	s.mutate(ctx, func() bool {
		if seq != s.clearSeq || s.state.SheetOpen {
			return false
		}
		s.pendingClear = nil
		s.state.Selected = nil
		return true
	})
}

// cancelClear must be called with mu held.
func (s *Store) cancelClear() {
	s.clearSeq++
	if s.pendingClear != nil {
		s.pendingClear.Stop()
		s.pendingClear = nil
	}
}

// start must be called with mu held.
func (s *Store) start() {
	s.inFlight++
	s.state.Error = nil
}

func (s *Store) startCommand() bool {
	s.start()
	return true
}

// finish commits a mutation, or records its failure and leaves the collection as it was.
// commit runs under the lock and returns the edit to apply.
func (s *Store) finish(ctx context.Context, failure *backend.Failure, success string, commit func() edit) *backend.Failure {
	s.mutate(ctx, func() bool {
		s.inFlight--
		if failure != nil {
			s.recordFailure(failure)
			return true
		}
		e := commit()
		s.state.Events = e(s.state.Events)
		if s.fetching > 0 {
			s.journal = append(s.journal, e)
		}
		return true
	})
	if failure != nil {
		log.Debugf("calendar command failed: %s", failure.Message)
		s.notifier.Error(ctx, failure)
		return failure
	}
	s.notifier.Success(ctx, success)
	return nil
}

func (s *Store) recordFailure(failure *backend.Failure) {
	message := failure.Message
	s.state.Error = &message
}

// mutate applies change under the lock and publishes the resulting snapshot when change
// reports that something changed.
func (s *Store) mutate(ctx context.Context, change func() bool) {
	s.mu.Lock()
	if !change() {
		s.mu.Unlock()
		return
	}
	s.state.Loading = s.inFlight > 0
	s.state.Version++
	snapshot := s.snapshot()
	s.mu.Unlock()

	err := s.bus.Publish(event_bus.NewEvent(context.WithoutCancel(ctx), event_bus.CalendarStateChanged, snapshot))
	if err != nil {
		log.Errorf("failed to publish calendar state: %v", err)
	}
}

// snapshot must be called with mu held.
func (s *Store) snapshot() State {
	snapshot := s.state
	snapshot.Events = make([]calendar.Event, len(s.state.Events))
	for i, e := range s.state.Events {
		snapshot.Events[i] = e.Clone()
	}
	if s.state.Selected != nil {
		selected := s.state.Selected.Clone()
		snapshot.Selected = &selected
	}
	if s.state.Error != nil {
		message := *s.state.Error
		snapshot.Error = &message
	}
	return snapshot
}
