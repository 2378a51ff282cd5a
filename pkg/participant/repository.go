package participant

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rallypoint/rallypoint/pkg/backend"
	"github.com/rallypoint/rallypoint/pkg/profile"
	log "github.com/sirupsen/logrus"
)

var (
	ErrParticipantNotFound = backend.NewFailure(backend.KindNotFound, "Participant not found")
	ErrEventNotFound       = backend.NewFailure(backend.KindNotFound, "Event not found")
	ErrEventFull           = backend.NewFailure(backend.KindConflict, "Event is full")
)

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	// ListParticipants returns the event's participants with their profiles, oldest first.
	ListParticipants(ctx context.Context, eventId int) ([]Participant, error)
	GetParticipant(ctx context.Context, eventId int, userId uuid.UUID) (Participant, error)
	InsertParticipant(ctx context.Context, in Insert) (Participant, error)
	UpdateParticipant(ctx context.Context, eventId int, userId uuid.UUID, patch Update) (Participant, error)
	DeleteParticipant(ctx context.Context, eventId int, userId uuid.UUID) error
	// ReserveSeat increments the event's participant count, failing with ErrEventFull at capacity.
	ReserveSeat(ctx context.Context, eventId int) error
	ReleaseSeat(ctx context.Context, eventId int) error
}

type RepositoryImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) getQueryer() interface {
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *RepositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	if r.tx != nil {
		return fn(r)
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	if err := fn(&RepositoryImpl{db: r.db, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const participantColumns = `
	ep.id, ep.event_id, ep.user_id, ep.status, ep.role, ep.created_at,
	p.id, COALESCE(p.username, ''), COALESCE(p.full_name, ''), COALESCE(p.avatar_url, ''), COALESCE(p.role, ''), p.updated_at`

func scanParticipant(row pgx.Row) (Participant, error) {
	var (
		pt        Participant
		profileId uuid.NullUUID
		prof      profile.Profile
	)
	err := row.Scan(
		&pt.Id, &pt.EventId, &pt.UserId, &pt.Status, &pt.Role, &pt.CreatedAt,
		&profileId, &prof.Username, &prof.FullName, &prof.AvatarUrl, &prof.Role, &prof.UpdatedAt,
	)
	if err != nil {
		return Participant{}, err
	}
	if profileId.Valid {
		prof.Id = profileId.UUID
		pt.Profile = &prof
	}
	return pt, nil
}

func (r *RepositoryImpl) ListParticipants(ctx context.Context, eventId int) ([]Participant, error) {
	query := `SELECT ` + participantColumns + `
			  FROM event_participants ep
			  LEFT JOIN profiles p ON p.id = ep.user_id
			  WHERE ep.event_id = $1
			  ORDER BY ep.created_at, ep.id`
	rows, err := r.getQueryer().Query(ctx, query, eventId)
	if err != nil {
		return nil, fmt.Errorf("could not list participants: %w", err)
	}
	defer rows.Close()

	participants := make([]Participant, 0)
	for rows.Next() {
		pt, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, pt)
	}
	return participants, rows.Err()
}

func (r *RepositoryImpl) GetParticipant(ctx context.Context, eventId int, userId uuid.UUID) (Participant, error) {
	query := `SELECT ` + participantColumns + `
			  FROM event_participants ep
			  LEFT JOIN profiles p ON p.id = ep.user_id
			  WHERE ep.event_id = $1 AND ep.user_id = $2`
	pt, err := scanParticipant(r.getQueryer().QueryRow(ctx, query, eventId, userId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Participant{}, ErrParticipantNotFound
		}
		return Participant{}, fmt.Errorf("could not get participant: %w", err)
	}
	return pt, nil
}

func (r *RepositoryImpl) InsertParticipant(ctx context.Context, in Insert) (Participant, error) {
	var id int
	err := r.getQueryer().QueryRow(ctx,
		`INSERT INTO event_participants (event_id, user_id, status, role) VALUES ($1, $2, $3, $4) RETURNING id`,
		in.EventId, in.UserId, in.Status, in.Role,
	).Scan(&id)
	if err != nil {
		return Participant{}, fmt.Errorf("could not insert participant: %w", err)
	}
	return r.GetParticipant(ctx, in.EventId, in.UserId)
}

func (r *RepositoryImpl) UpdateParticipant(ctx context.Context, eventId int, userId uuid.UUID, patch Update) (Participant, error) {
	tag, err := r.getQueryer().Exec(ctx,
		`UPDATE event_participants SET status = COALESCE($3, status), role = COALESCE($4, role)
		 WHERE event_id = $1 AND user_id = $2`,
		eventId, userId, patch.Status, patch.Role,
	)
	if err != nil {
		return Participant{}, fmt.Errorf("could not update participant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Participant{}, ErrParticipantNotFound
	}
	return r.GetParticipant(ctx, eventId, userId)
}

func (r *RepositoryImpl) DeleteParticipant(ctx context.Context, eventId int, userId uuid.UUID) error {
	tag, err := r.getQueryer().Exec(ctx,
		`DELETE FROM event_participants WHERE event_id = $1 AND user_id = $2`, eventId, userId)
	if err != nil {
		return fmt.Errorf("could not delete participant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

func (r *RepositoryImpl) ReserveSeat(ctx context.Context, eventId int) error {
	tag, err := r.getQueryer().Exec(ctx,
		`UPDATE events SET participant_count = participant_count + 1
		 WHERE id = $1 AND participant_count < max_participants`, eventId)
	if err != nil {
		return fmt.Errorf("could not reserve seat: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.getQueryer().QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, eventId).Scan(&exists); err != nil {
		return fmt.Errorf("could not check event: %w", err)
	}
	if !exists {
		return ErrEventNotFound
	}
	return ErrEventFull
}

func (r *RepositoryImpl) ReleaseSeat(ctx context.Context, eventId int) error {
	_, err := r.getQueryer().Exec(ctx,
		`UPDATE events SET participant_count = GREATEST(participant_count - 1, 0) WHERE id = $1`, eventId)
	if err != nil {
		return fmt.Errorf("could not release seat: %w", err)
	}
	return nil
}
