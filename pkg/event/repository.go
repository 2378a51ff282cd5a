package event

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rallypoint/rallypoint/pkg/backend"
)

var ErrEventNotFound = backend.NewFailure(backend.KindNotFound, "Event not found")

type Repository interface {
	// GetEvents returns all events ordered by date, then time, then id.
	GetEvents(ctx context.Context) ([]Event, error)
	GetEvent(ctx context.Context, id int) (Event, error)
	StoreEvent(ctx context.Context, event Insert) (Event, error)
	UpdateEvent(ctx context.Context, id int, patch Update) (Event, error)
	DeleteEvent(ctx context.Context, id int) error
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const eventColumns = `
	e.id,
	e.title,
	COALESCE(e.description, ''),
	to_char(e.date, 'YYYY-MM-DD'),
	to_char(e.time, 'HH24:MI:SS'),
	COALESCE(e.duration, ''),
	e.sport,
	COALESCE(e.sub_type, ''),
	e.location,
	e.max_participants,
	e.participant_count,
	e.organizer,
	e.status,
	e.cost::float8,
	e.skill_levels,
	COALESCE(e.notes, ''),
	COALESCE(e.equipment_requirements, ''),
	COALESCE(e.arrival_instructions, ''),
	COALESCE(e.share_link, ''),
	COALESCE(e.image, ''),
	e.created_at`

func scanEvent(row pgx.Row) (Event, error) {
	var e Event
	err := row.Scan(
		&e.Id,
		&e.Title,
		&e.Description,
		&e.Date,
		&e.Time,
		&e.Duration,
		&e.Sport,
		&e.SubType,
		&e.Location,
		&e.MaxParticipants,
		&e.ParticipantCount,
		&e.Organizer,
		&e.Status,
		&e.Cost,
		&e.SkillLevels,
		&e.Notes,
		&e.EquipmentRequirements,
		&e.ArrivalInstructions,
		&e.ShareLink,
		&e.Image,
		&e.CreatedAt,
	)
	return e, err
}

func (r *RepositoryImpl) GetEvents(ctx context.Context) ([]Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e ORDER BY e.date, e.time, e.id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *RepositoryImpl) GetEvent(ctx context.Context, id int) (Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e WHERE e.id = $1`
	e, err := scanEvent(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Event{}, ErrEventNotFound
		}
		return Event{}, fmt.Errorf("could not get event: %w", err)
	}
	return e, nil
}

func (r *RepositoryImpl) StoreEvent(ctx context.Context, in Insert) (Event, error) {
	query := `INSERT INTO events AS e (
					title,
					description,
					date,
					time,
					duration,
					sport,
					sub_type,
					location,
					max_participants,
					participant_count,
					organizer,
					status,
					cost,
					skill_levels,
					notes,
					equipment_requirements,
					arrival_instructions,
					share_link,
					image
			  ) VALUES (
					$1, NULLIF($2, ''), $3::text::date, $4::text::time, NULLIF($5, ''), $6, NULLIF($7, ''), $8, $9, $10,
					$11, $12, $13, $14, NULLIF($15, ''), NULLIF($16, ''), NULLIF($17, ''), NULLIF($18, ''), NULLIF($19, '')
			  ) RETURNING ` + eventColumns

	e, err := scanEvent(r.db.QueryRow(ctx, query,
		in.Title,
		in.Description,
		in.Date,
		in.Time,
		in.Duration,
		in.Sport,
		in.SubType,
		in.Location,
		in.MaxParticipants,
		in.ParticipantCount,
		in.Organizer,
		in.Status,
		in.Cost,
		in.SkillLevels,
		in.Notes,
		in.EquipmentRequirements,
		in.ArrivalInstructions,
		in.ShareLink,
		in.Image,
	))
	if err != nil {
		return Event{}, fmt.Errorf("could not store event: %w", err)
	}
	return e, nil
}

func (r *RepositoryImpl) UpdateEvent(ctx context.Context, id int, patch Update) (Event, error) {
	cols := patch.columns()
	if len(cols) == 0 {
		return r.GetEvent(ctx, id)
	}

	var set strings.Builder
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		if i > 0 {
			set.WriteString(", ")
		}
		fmt.Fprintf(&set, "%s = %s", col.name, placeholder(col.name, i+1))
		args = append(args, col.value)
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE events e SET %s WHERE e.id = $%d RETURNING %s`, set.String(), len(args), eventColumns)
	e, err := scanEvent(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Event{}, ErrEventNotFound
		}
		return Event{}, fmt.Errorf("could not update event: %w", err)
	}
	return e, nil
}

// placeholder casts date/time columns and stores empty optional text as NULL.
func placeholder(name string, n int) string {
	switch name {
	case "date":
		return fmt.Sprintf("$%d::text::date", n)
	case "time":
		return fmt.Sprintf("$%d::text::time", n)
	case "description", "duration", "sub_type", "notes", "equipment_requirements",
		"arrival_instructions", "share_link", "image":
		return fmt.Sprintf("NULLIF($%d, '')", n)
	default:
		return fmt.Sprintf("$%d", n)
	}
}

func (r *RepositoryImpl) DeleteEvent(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("could not delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}
