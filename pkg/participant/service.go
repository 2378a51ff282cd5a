package participant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rallypoint/rallypoint/pkg/backend"
	"github.com/rallypoint/rallypoint/pkg/user"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	ListParticipants(ctx context.Context, eventId int) ([]Participant, error)
	// Join adds the current user to the event. Empty status and role default to attending/participant.
	Join(ctx context.Context, eventId int, status string, role string) (Participant, error)
	Leave(ctx context.Context, eventId int) error
	UpdateParticipant(ctx context.Context, eventId int, userId uuid.UUID, patch Update) (Participant, error)
	Remove(ctx context.Context, eventId int, userId uuid.UUID) error
	// CurrentParticipation returns the current user's participation, or nil if they have not joined.
	CurrentParticipation(ctx context.Context, eventId int) (*Participant, error)
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) ListParticipants(ctx context.Context, eventId int) ([]Participant, error) {
	if _, err := user.CurrentId(ctx); err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.ListParticipants(ctx, eventId)
}

func (s *ServiceImpl) Join(ctx context.Context, eventId int, status string, role string) (Participant, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Participant{}, fmt.Errorf("failed to get current user: %w", err)
	}
	in := Insert{
		EventId: eventId,
		UserId:  userId,
		Status:  orDefault(status, StatusAttending),
		Role:    orDefault(role, RoleParticipant),
	}

	var joined Participant
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		if err := repo.ReserveSeat(ctx, eventId); err != nil {
			return err
		}
		joined, err = repo.InsertParticipant(ctx, in)
		return err
	})
	if err != nil {
		return Participant{}, err
	}
	log.Debugf("user %s joined event %d", userId, eventId)
	return joined, nil
}

func (s *ServiceImpl) Leave(ctx context.Context, eventId int) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return s.remove(ctx, eventId, userId)
}

func (s *ServiceImpl) UpdateParticipant(ctx context.Context, eventId int, userId uuid.UUID, patch Update) (Participant, error) {
	if _, err := user.CurrentId(ctx); err != nil {
		return Participant{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if patch.Status != nil && strings.TrimSpace(*patch.Status) == "" {
		return Participant{}, backend.NewFailure(backend.KindValidation, "Status must not be empty")
	}
	if patch.Role != nil && strings.TrimSpace(*patch.Role) == "" {
		return Participant{}, backend.NewFailure(backend.KindValidation, "Role must not be empty")
	}
	return s.repo.UpdateParticipant(ctx, eventId, userId, patch)
}

func (s *ServiceImpl) Remove(ctx context.Context, eventId int, userId uuid.UUID) error {
	if _, err := user.CurrentId(ctx); err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return s.remove(ctx, eventId, userId)
}

func (s *ServiceImpl) remove(ctx context.Context, eventId int, userId uuid.UUID) error {
	err := s.repo.WithTransaction(ctx, func(repo Repository) error {
		if err := repo.DeleteParticipant(ctx, eventId, userId); err != nil {
			return err
		}
		return repo.ReleaseSeat(ctx, eventId)
	})
	if err != nil {
		return err
	}
	log.Debugf("user %s left event %d", userId, eventId)
	return nil
}

func (s *ServiceImpl) CurrentParticipation(ctx context.Context, eventId int) (*Participant, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	p, err := s.repo.GetParticipant(ctx, eventId, userId)
	if errors.Is(err, ErrParticipantNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
