package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rallypoint/rallypoint/pkg/backend"
)

var ErrProfileNotFound = backend.NewFailure(backend.KindNotFound, "Profile not found")

type Repository interface {
	GetProfile(ctx context.Context, id uuid.UUID) (Profile, error)
	// GetProfiles returns all profiles ordered by full name.
	GetProfiles(ctx context.Context) ([]Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, patch Update) (Profile, error)
	CreateProfile(ctx context.Context, profile Profile) (Profile, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const profileColumns = `id, COALESCE(username, ''), COALESCE(full_name, ''), COALESCE(avatar_url, ''), role, updated_at`

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	err := row.Scan(&p.Id, &p.Username, &p.FullName, &p.AvatarUrl, &p.Role, &p.UpdatedAt)
	return p, err
}

func (r *RepositoryImpl) GetProfile(ctx context.Context, id uuid.UUID) (Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrProfileNotFound
		}
		return Profile{}, fmt.Errorf("could not get profile: %w", err)
	}
	return p, nil
}

func (r *RepositoryImpl) GetProfiles(ctx context.Context) ([]Profile, error) {
	rows, err := r.db.Query(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY full_name NULLS LAST, id`)
	if err != nil {
		return nil, fmt.Errorf("could not list profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *RepositoryImpl) UpdateProfile(ctx context.Context, id uuid.UUID, patch Update) (Profile, error) {
	query := `UPDATE profiles SET
				username = COALESCE(NULLIF($2, ''), username),
				full_name = COALESCE($3, full_name),
				avatar_url = COALESCE($4, avatar_url),
				updated_at = now()
			  WHERE id = $1
			  RETURNING ` + profileColumns
	p, err := scanProfile(r.db.QueryRow(ctx, query, id, patch.Username, patch.FullName, patch.AvatarUrl))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrProfileNotFound
		}
		return Profile{}, fmt.Errorf("could not update profile: %w", err)
	}
	return p, nil
}

func (r *RepositoryImpl) CreateProfile(ctx context.Context, profile Profile) (Profile, error) {
	query := `INSERT INTO profiles (id, username, full_name, avatar_url, role, updated_at)
			  VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), $5, now())
			  RETURNING ` + profileColumns
	p, err := scanProfile(r.db.QueryRow(ctx, query,
		profile.Id, profile.Username, profile.FullName, profile.AvatarUrl, profile.Role))
	if err != nil {
		return Profile{}, fmt.Errorf("could not create profile: %w", err)
	}
	return p, nil
}
