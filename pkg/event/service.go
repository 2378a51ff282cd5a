package event

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rallypoint/rallypoint/pkg/backend"
	"github.com/rallypoint/rallypoint/pkg/profile"
	"github.com/rallypoint/rallypoint/pkg/user"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	ListEvents(ctx context.Context) ([]Event, error)
	GetEvent(ctx context.Context, id int) (Event, error)
	// GetEventDetails returns the event together with its organizer's profile, if any.
	GetEventDetails(ctx context.Context, id int) (Details, error)
	CreateEvent(ctx context.Context, event Insert) (Event, error)
	UpdateEvent(ctx context.Context, id int, patch Update) (Event, error)
	DeleteEvent(ctx context.Context, id int) error
}

type ProfileReader interface {
	GetProfile(ctx context.Context, id uuid.UUID) (profile.Profile, error)
}

type Details struct {
	Event
	OrganizerProfile *profile.Profile `json:"organizer_profile"`
}

type ServiceImpl struct {
	repo     Repository
	profiles ProfileReader
}

func NewService(repo Repository, profiles ProfileReader) *ServiceImpl {
	return &ServiceImpl{repo: repo, profiles: profiles}
}

func (s *ServiceImpl) ListEvents(ctx context.Context) ([]Event, error) {
	events, err := s.repo.GetEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	log.Tracef("Events listed: %d", len(events))
	return events, nil
}

func (s *ServiceImpl) GetEvent(ctx context.Context, id int) (Event, error) {
	return s.repo.GetEvent(ctx, id)
}

func (s *ServiceImpl) GetEventDetails(ctx context.Context, id int) (Details, error) {
	e, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return Details{}, err
	}
	details := Details{Event: e}
	if e.Organizer.Valid && s.profiles != nil {
		organizer, err := s.profiles.GetProfile(ctx, e.Organizer.UUID)
		if err != nil {
			log.Debugf("organizer profile %s not available: %v", e.Organizer.UUID, err)
		} else {
			details.OrganizerProfile = &organizer
		}
	}
	return details, nil
}

func (s *ServiceImpl) CreateEvent(ctx context.Context, in Insert) (Event, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("failed to get current user: %w", err)
	}

	if in.Time == "" {
		in.Time = DefaultTime
	}
	if in.Status == "" {
		in.Status = DefaultStatus
	}
	if !in.Organizer.Valid {
		in.Organizer = uuid.NullUUID{UUID: currentUser.Id, Valid: true}
	}
	in.Title = strings.TrimSpace(in.Title)

	if err := validateInsert(in); err != nil {
		return Event{}, err
	}

	created, err := s.repo.StoreEvent(ctx, in)
	if err != nil {
		return Event{}, err
	}
	log.Debugf("event %d created by %s", created.Id, currentUser.Id)
	return created, nil
}

func (s *ServiceImpl) UpdateEvent(ctx context.Context, id int, patch Update) (Event, error) {
	if _, err := user.CurrentId(ctx); err != nil {
		return Event{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		patch.Title = &trimmed
	}
	if err := validateUpdate(patch); err != nil {
		return Event{}, err
	}
	return s.repo.UpdateEvent(ctx, id, patch)
}

func (s *ServiceImpl) DeleteEvent(ctx context.Context, id int) error {
	if _, err := user.CurrentId(ctx); err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.DeleteEvent(ctx, id)
}

func invalid(message string) error {
	return backend.NewFailure(backend.KindValidation, message)
}

func validateInsert(in Insert) error {
	switch {
	case in.Title == "":
		return invalid("Title is required")
	case strings.TrimSpace(in.Sport) == "":
		return invalid("Sport is required")
	case strings.TrimSpace(in.Location) == "":
		return invalid("Location is required")
	case in.MaxParticipants <= 0:
		return invalid("Max participants must be greater than zero")
	case in.ParticipantCount < 0 || in.ParticipantCount > in.MaxParticipants:
		return invalid("Participant count must be between zero and max participants")
	}
	if err := validateDate(in.Date); err != nil {
		return err
	}
	return validateTime(in.Time)
}

func validateUpdate(patch Update) error {
	switch {
	case patch.Title != nil && *patch.Title == "":
		return invalid("Title is required")
	case patch.Sport != nil && strings.TrimSpace(*patch.Sport) == "":
		return invalid("Sport is required")
	case patch.Location != nil && strings.TrimSpace(*patch.Location) == "":
		return invalid("Location is required")
	case patch.MaxParticipants != nil && *patch.MaxParticipants <= 0:
		return invalid("Max participants must be greater than zero")
	case patch.ParticipantCount != nil && *patch.ParticipantCount < 0:
		return invalid("Participant count must not be negative")
	}
	if patch.Date != nil {
		if err := validateDate(*patch.Date); err != nil {
			return err
		}
	}
	if patch.Time != nil {
		return validateTime(*patch.Time)
	}
	return nil
}

func validateDate(date string) error {
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return invalid("Date must be in YYYY-MM-DD format")
	}
	return nil
}

func validateTime(value string) error {
	if _, ok := ParseTimeOfDay(value); !ok {
		return invalid("Time must be in HH:MM or HH:MM:SS format")
	}
	return nil
}

// ParseTimeOfDay parses HH:MM:SS or HH:MM and returns the offset from midnight.
func ParseTimeOfDay(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.TimeOnly, "15:04"} {
		t, err := time.Parse(layout, value)
		if err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, true
		}
	}
	return 0, false
}
