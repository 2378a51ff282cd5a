package participant

import (
	"time"

	"github.com/google/uuid"
	"github.com/rallypoint/rallypoint/pkg/profile"
)

const (
	StatusAttending = "attending"
	RoleParticipant = "participant"
)

// Participant links a profile to an event. Every row holds one seat of the event's capacity.
type Participant struct {
	Id        int              `json:"id"`
	EventId   int              `json:"event_id"`
	UserId    uuid.UUID        `json:"user_id"`
	Status    string           `json:"status"`
	Role      string           `json:"role"`
	CreatedAt time.Time        `json:"created_at"`
	Profile   *profile.Profile `json:"profile,omitempty"`
}

// Insert describes a new participation. Empty Status and Role fall back to attending/participant.
type Insert struct {
	EventId int       `json:"event_id"`
	UserId  uuid.UUID `json:"user_id"`
	Status  string    `json:"status"`
	Role    string    `json:"role"`
}

type Update struct {
	Status *string `json:"status,omitempty"`
	Role   *string `json:"role,omitempty"`
}
