package calendar

import (
	"encoding/json"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Event is the display form of an event record, shaped for a FullCalendar-style client.
type Event struct {
	Id            string        `json:"id"`
	Title         string        `json:"title"`
	Start         time.Time     `json:"start"`
	End           time.Time     `json:"end"`
	Color         string        `json:"color"`
	Description   string        `json:"description"`
	ExtendedProps ExtendedProps `json:"extendedProps"`
}

// ExtendedProps carries the record fields that have no dedicated calendar slot, unmodified.
type ExtendedProps struct {
	Date                  string          `json:"date"`
	Time                  string          `json:"time"`
	Duration              string          `json:"duration"`
	Sport                 string          `json:"sport"`
	SubType               string          `json:"sub_type"`
	Location              string          `json:"location"`
	MaxParticipants       int             `json:"max_participants"`
	ParticipantCount      int             `json:"participant_count"`
	Organizer             uuid.NullUUID   `json:"organizer"`
	Status                string          `json:"status"`
	Cost                  *float64        `json:"cost"`
	SkillLevels           json.RawMessage `json:"skill_levels"`
	Notes                 string          `json:"notes"`
	EquipmentRequirements string          `json:"equipment_requirements"`
	ArrivalInstructions   string          `json:"arrival_instructions"`
	ShareLink             string          `json:"share_link"`
	Image                 string          `json:"image"`
	CreatedAt             time.Time       `json:"created_at"`
}

// EventId parses the id back into the originating record id.
func (e Event) EventId() (int, error) {
	return strconv.Atoi(e.Id)
}

// Clone returns a copy of e that shares no memory with it.
func (e Event) Clone() Event {
	if e.ExtendedProps.Cost != nil {
		cost := *e.ExtendedProps.Cost
		e.ExtendedProps.Cost = &cost
	}
	if e.ExtendedProps.SkillLevels != nil {
		e.ExtendedProps.SkillLevels = slices.Clone(e.ExtendedProps.SkillLevels)
	}
	return e
}
