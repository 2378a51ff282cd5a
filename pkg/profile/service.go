package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rallypoint/rallypoint/pkg/backend"
	"github.com/rallypoint/rallypoint/pkg/user"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	GetProfile(ctx context.Context, id uuid.UUID) (Profile, error)
	GetCurrentProfile(ctx context.Context) (Profile, error)
	ListProfiles(ctx context.Context) ([]Profile, error)
	UpdateCurrentProfile(ctx context.Context, patch Update) (Profile, error)
	CreateProfile(ctx context.Context, profile Profile) (Profile, error)
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) GetProfile(ctx context.Context, id uuid.UUID) (Profile, error) {
	return s.repo.GetProfile(ctx, id)
}

func (s *ServiceImpl) GetCurrentProfile(ctx context.Context) (Profile, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.GetProfile(ctx, userId)
}

func (s *ServiceImpl) ListProfiles(ctx context.Context) ([]Profile, error) {
	if _, err := user.CurrentId(ctx); err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.GetProfiles(ctx)
}

func (s *ServiceImpl) UpdateCurrentProfile(ctx context.Context, patch Update) (Profile, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if patch.Username != nil {
		trimmed := strings.TrimSpace(*patch.Username)
		if len(trimmed) > 0 && len(trimmed) < 3 {
			return Profile{}, backend.NewFailure(backend.KindValidation, "Username must be at least 3 characters")
		}
		patch.Username = &trimmed
	}
	if patch.FullName != nil {
		trimmed := strings.TrimSpace(*patch.FullName)
		patch.FullName = &trimmed
	}
	updated, err := s.repo.UpdateProfile(ctx, userId, patch)
	if err != nil {
		return Profile{}, err
	}
	log.Debugf("profile %s updated", userId)
	return updated, nil
}

// CreateProfile stores the profile of a freshly registered account.
func (s *ServiceImpl) CreateProfile(ctx context.Context, profile Profile) (Profile, error) {
	if profile.Id == uuid.Nil {
		return Profile{}, backend.NewFailure(backend.KindValidation, "Profile id is required")
	}
	if profile.Role == "" {
		profile.Role = DefaultRole
	}
	profile.FullName = strings.TrimSpace(profile.FullName)
	return s.repo.CreateProfile(ctx, profile)
}
