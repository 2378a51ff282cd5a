package participant

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type seats struct {
	count int
	max   int
}

type RepositoryStub struct {
	mu           sync.RWMutex
	participants map[int]Participant
	events       map[int]seats
	nextId       int
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		participants: make(map[int]Participant),
		events:       make(map[int]seats),
		nextId:       1,
	}
}

// AddEvent registers an event with the given capacity.
func (r *RepositoryStub) AddEvent(eventId int, maxParticipants int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[eventId] = seats{max: maxParticipants}
}

// Count returns the event's participant count.
func (r *RepositoryStub) Count(eventId int) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.events[eventId].count
}

func (r *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	r.mu.Lock()
	originalParticipants := make(map[int]Participant, len(r.participants))
	for k, v := range r.participants {
		originalParticipants[k] = v
	}
	originalEvents := make(map[int]seats, len(r.events))
	for k, v := range r.events {
		originalEvents[k] = v
	}
	originalNextId := r.nextId
	r.mu.Unlock()

	err := fn(r)

	if err != nil {
		r.mu.Lock()
		r.participants = originalParticipants
		r.events = originalEvents
		r.nextId = originalNextId
		r.mu.Unlock()
	}
	return err
}

func (r *RepositoryStub) ListParticipants(ctx context.Context, eventId int) ([]Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Participant, 0)
	for _, p := range r.participants {
		if p.EventId == eventId {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Id < result[j].Id })
	return result, nil
}

func (r *RepositoryStub) find(eventId int, userId uuid.UUID) (Participant, bool) {
	for _, p := range r.participants {
		if p.EventId == eventId && p.UserId == userId {
			return p, true
		}
	}
	return Participant{}, false
}

func (r *RepositoryStub) GetParticipant(ctx context.Context, eventId int, userId uuid.UUID) (Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.find(eventId, userId)
	if !ok {
		return Participant{}, ErrParticipantNotFound
	}
	return p, nil
}

func (r *RepositoryStub) InsertParticipant(ctx context.Context, in Insert) (Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[in.EventId]; !ok {
		return Participant{}, &pgconn.PgError{Code: "23503", Message: "insert violates foreign key constraint"}
	}
	if _, exists := r.find(in.EventId, in.UserId); exists {
		return Participant{}, &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
	}
	p := Participant{
		Id:        r.nextId,
		EventId:   in.EventId,
		UserId:    in.UserId,
		Status:    in.Status,
		Role:      in.Role,
		CreatedAt: time.Now(),
	}
	r.participants[p.Id] = p
	r.nextId++
	return p, nil
}

func (r *RepositoryStub) UpdateParticipant(ctx context.Context, eventId int, userId uuid.UUID, patch Update) (Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.find(eventId, userId)
	if !ok {
		return Participant{}, ErrParticipantNotFound
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.Role != nil {
		p.Role = *patch.Role
	}
	r.participants[p.Id] = p
	return p, nil
}

func (r *RepositoryStub) DeleteParticipant(ctx context.Context, eventId int, userId uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.find(eventId, userId)
	if !ok {
		return ErrParticipantNotFound
	}
	delete(r.participants, p.Id)
	return nil
}

func (r *RepositoryStub) ReserveSeat(ctx context.Context, eventId int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.events[eventId]
	if !ok {
		return ErrEventNotFound
	}
	if s.count >= s.max {
		return ErrEventFull
	}
	s.count++
	r.events[eventId] = s
	return nil
}

func (r *RepositoryStub) ReleaseSeat(ctx context.Context, eventId int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.events[eventId]
	if s.count > 0 {
		s.count--
	}
	r.events[eventId] = s
	return nil
}
