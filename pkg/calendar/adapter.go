package calendar

import (
	"strconv"
	"time"

	"github.com/rallypoint/rallypoint/pkg/event"
)

const defaultColor = "blue"

var sportColors = map[string]string{
	"Basketball":   "orange",
	"Tennis":       "green",
	"Pickleball":   "purple",
	"Volleyball":   "blue",
	"Soccer":       "red",
	"Baseball":     "teal",
	"Football":     "orange",
	"Golf":         "green",
	"Badminton":    "purple",
	"Squash":       "blue",
	"Table Tennis": "red",
	"Swimming":     "teal",
}

// SportColor returns the display color of a sport. Unlisted sports are blue.
func SportColor(sport string) string {
	if color, ok := sportColors[sport]; ok {
		return color
	}
	return defaultColor
}

// ToCalendarEvent converts an event record into its calendar form, interpreting date and time in loc.
// A nil loc means time.Local.
func ToCalendarEvent(e event.Event, loc *time.Location) Event {
	start := startOf(e.Date, e.Time, loc)
	return Event{
		Id:          strconv.Itoa(e.Id),
		Title:       e.Title,
		Start:       start,
		End:         start.Add(ParseDuration(e.Duration)),
		Color:       SportColor(e.Sport),
		Description: e.Description,
		ExtendedProps: ExtendedProps{
			Date:                  e.Date,
			Time:                  e.Time,
			Duration:              e.Duration,
			Sport:                 e.Sport,
			SubType:               e.SubType,
			Location:              e.Location,
			MaxParticipants:       e.MaxParticipants,
			ParticipantCount:      e.ParticipantCount,
			Organizer:             e.Organizer,
			Status:                e.Status,
			Cost:                  e.Cost,
			SkillLevels:           e.SkillLevels,
			Notes:                 e.Notes,
			EquipmentRequirements: e.EquipmentRequirements,
			ArrivalInstructions:   e.ArrivalInstructions,
			ShareLink:             e.ShareLink,
			Image:                 e.Image,
			CreatedAt:             e.CreatedAt,
		},
	}
}

// ToCalendarEvents adapts rows in order.
func ToCalendarEvents(events []event.Event, loc *time.Location) []Event {
	result := make([]Event, 0, len(events))
	for _, e := range events {
		result = append(result, ToCalendarEvent(e, loc))
	}
	return result
}

// startOf combines date and time of day. A missing or unreadable time means 09:00 and an
// unreadable date means 1970-01-01.
func startOf(date string, timeOfDay string, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(time.DateOnly, date, loc)
	if err != nil {
		day = time.Date(1970, time.January, 1, 0, 0, 0, 0, loc)
	}

	offset, ok := event.ParseTimeOfDay(timeOfDay)
	if !ok {
		offset, _ = event.ParseTimeOfDay(event.DefaultTime)
	}
	hour := int(offset / time.Hour)
	minute := int(offset % time.Hour / time.Minute)
	second := int(offset % time.Minute / time.Second)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, second, 0, loc)
}
