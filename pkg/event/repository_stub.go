package event

import (
	"context"
	"sort"
	"sync"
	"time"
)

type RepositoryStub struct {
	mu     sync.RWMutex
	items  map[int]Event
	nextId int
	// Err, when set, is returned by every call.
	Err error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		items:  make(map[int]Event),
		nextId: 1,
	}
}

func (r *RepositoryStub) GetEvents(ctx context.Context) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}

	result := make([]Event, 0, len(r.items))
	for _, e := range r.items {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		if result[i].Time != result[j].Time {
			return result[i].Time < result[j].Time
		}
		return result[i].Id < result[j].Id
	})
	return result, nil
}

func (r *RepositoryStub) GetEvent(ctx context.Context, id int) (Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return Event{}, r.Err
	}
	e, ok := r.items[id]
	if !ok {
		return Event{}, ErrEventNotFound
	}
	return e, nil
}

func (r *RepositoryStub) StoreEvent(ctx context.Context, in Insert) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return Event{}, r.Err
	}

	e := Event{
		Id:                    r.nextId,
		Title:                 in.Title,
		Description:           in.Description,
		Date:                  in.Date,
		Time:                  in.Time,
		Duration:              in.Duration,
		Sport:                 in.Sport,
		SubType:               in.SubType,
		Location:              in.Location,
		MaxParticipants:       in.MaxParticipants,
		ParticipantCount:      in.ParticipantCount,
		Organizer:             in.Organizer,
		Status:                in.Status,
		Cost:                  in.Cost,
		SkillLevels:           in.SkillLevels,
		Notes:                 in.Notes,
		EquipmentRequirements: in.EquipmentRequirements,
		ArrivalInstructions:   in.ArrivalInstructions,
		ShareLink:             in.ShareLink,
		Image:                 in.Image,
		CreatedAt:             time.Now(),
	}
	r.items[e.Id] = e
	r.nextId++
	return e, nil
}

func (r *RepositoryStub) UpdateEvent(ctx context.Context, id int, patch Update) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return Event{}, r.Err
	}
	e, ok := r.items[id]
	if !ok {
		return Event{}, ErrEventNotFound
	}
	apply(&e, patch)
	r.items[id] = e
	return e, nil
}

func (r *RepositoryStub) DeleteEvent(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.items[id]; !ok {
		return ErrEventNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make(map[int]Event)
	r.nextId = 1
	r.Err = nil
}

func apply(e *Event, patch Update) {
	setIf(&e.Title, patch.Title)
	setIf(&e.Description, patch.Description)
	setIf(&e.Date, patch.Date)
	setIf(&e.Time, patch.Time)
	setIf(&e.Duration, patch.Duration)
	setIf(&e.Sport, patch.Sport)
	setIf(&e.SubType, patch.SubType)
	setIf(&e.Location, patch.Location)
	setIf(&e.MaxParticipants, patch.MaxParticipants)
	setIf(&e.ParticipantCount, patch.ParticipantCount)
	if patch.Organizer != nil {
		e.Organizer.UUID = *patch.Organizer
		e.Organizer.Valid = true
	}
	setIf(&e.Status, patch.Status)
	if patch.Cost != nil {
		cost := *patch.Cost
		e.Cost = &cost
	}
	setIf(&e.SkillLevels, patch.SkillLevels)
	setIf(&e.Notes, patch.Notes)
	setIf(&e.EquipmentRequirements, patch.EquipmentRequirements)
	setIf(&e.ArrivalInstructions, patch.ArrivalInstructions)
	setIf(&e.ShareLink, patch.ShareLink)
	setIf(&e.Image, patch.Image)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
