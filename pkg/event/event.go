package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultTime   = "09:00:00"
	DefaultStatus = "upcoming"
)

// Event is a row of the events table, the authoritative record of a scheduled activity.
// Date is YYYY-MM-DD and Time is HH:MM:SS, as stored.
type Event struct {
	Id                    int             `json:"id"`
	Title                 string          `json:"title"`
	Description           string          `json:"description"`
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

// Insert holds the fields accepted when creating an event.
type Insert struct {
	Title                 string          `json:"title"`
	Description           string          `json:"description"`
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
}

// Update is a partial patch; nil fields are left untouched.
type Update struct {
	Title                 *string          `json:"title,omitempty"`
	Description           *string          `json:"description,omitempty"`
	Date                  *string          `json:"date,omitempty"`
	Time                  *string          `json:"time,omitempty"`
	Duration              *string          `json:"duration,omitempty"`
	Sport                 *string          `json:"sport,omitempty"`
	SubType               *string          `json:"sub_type,omitempty"`
	Location              *string          `json:"location,omitempty"`
	MaxParticipants       *int             `json:"max_participants,omitempty"`
	ParticipantCount      *int             `json:"participant_count,omitempty"`
	Organizer             *uuid.UUID       `json:"organizer,omitempty"`
	Status                *string          `json:"status,omitempty"`
	Cost                  *float64         `json:"cost,omitempty"`
	SkillLevels           *json.RawMessage `json:"skill_levels,omitempty"`
	Notes                 *string          `json:"notes,omitempty"`
	EquipmentRequirements *string          `json:"equipment_requirements,omitempty"`
	ArrivalInstructions   *string          `json:"arrival_instructions,omitempty"`
	ShareLink             *string          `json:"share_link,omitempty"`
	Image                 *string          `json:"image,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (u Update) IsEmpty() bool {
	return len(u.columns()) == 0
}

// columns lists the column/value pairs set in the patch, in a stable order.
func (u Update) columns() []column {
	var cols []column
	add := func(name string, set bool, value any) {
		if set {
			cols = append(cols, column{name: name, value: value})
		}
	}
	add("title", u.Title != nil, deref(u.Title))
	add("description", u.Description != nil, deref(u.Description))
	add("date", u.Date != nil, deref(u.Date))
	add("time", u.Time != nil, deref(u.Time))
	add("duration", u.Duration != nil, deref(u.Duration))
	add("sport", u.Sport != nil, deref(u.Sport))
	add("sub_type", u.SubType != nil, deref(u.SubType))
	add("location", u.Location != nil, deref(u.Location))
	add("max_participants", u.MaxParticipants != nil, deref(u.MaxParticipants))
	add("participant_count", u.ParticipantCount != nil, deref(u.ParticipantCount))
	add("organizer", u.Organizer != nil, deref(u.Organizer))
	add("status", u.Status != nil, deref(u.Status))
	add("cost", u.Cost != nil, deref(u.Cost))
	add("skill_levels", u.SkillLevels != nil, deref(u.SkillLevels))
	add("notes", u.Notes != nil, deref(u.Notes))
	add("equipment_requirements", u.EquipmentRequirements != nil, deref(u.EquipmentRequirements))
	add("arrival_instructions", u.ArrivalInstructions != nil, deref(u.ArrivalInstructions))
	add("share_link", u.ShareLink != nil, deref(u.ShareLink))
	add("image", u.Image != nil, deref(u.Image))
	return cols
}

type column struct {
	name  string
	value any
}

func deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
