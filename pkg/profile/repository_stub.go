package profile

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type RepositoryStub struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]Profile
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{profiles: make(map[uuid.UUID]Profile)}
}

func (r *RepositoryStub) GetProfile(ctx context.Context, id uuid.UUID) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[id]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	return p, nil
}

func (r *RepositoryStub) GetProfiles(ctx context.Context) ([]Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FullName < result[j].FullName })
	return result, nil
}

func (r *RepositoryStub) UpdateProfile(ctx context.Context, id uuid.UUID, patch Update) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	if patch.Username != nil && *patch.Username != "" {
		p.Username = *patch.Username
	}
	if patch.FullName != nil {
		p.FullName = *patch.FullName
	}
	if patch.AvatarUrl != nil {
		p.AvatarUrl = *patch.AvatarUrl
	}
	now := time.Now()
	p.UpdatedAt = &now
	r.profiles[id] = p
	return p, nil
}

func (r *RepositoryStub) CreateProfile(ctx context.Context, profile Profile) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.profiles[profile.Id]; exists {
		return Profile{}, &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint \"profiles_pkey\""}
	}
	now := time.Now()
	profile.UpdatedAt = &now
	r.profiles[profile.Id] = profile
	return profile, nil
}
