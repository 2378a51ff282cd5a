package calendar

import (
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

const productId = "-//rallypoint//events//EN"

// RenderICS serializes calendar events as an iCalendar feed. baseUrl, when set, is used to build
// a link back to each event.
func RenderICS(events []Event, baseUrl string, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productId)
	cal.SetName("Rallypoint events")

	for _, e := range events {
		ve := cal.AddEvent(e.Id + "@rallypoint")
		ve.SetDtStampTime(stamp.UTC())
		ve.SetStartAt(e.Start.UTC())
		ve.SetEndAt(e.End.UTC())
		ve.SetSummary(e.Title)
		if e.Description != "" {
			ve.SetDescription(e.Description)
		}
		if e.ExtendedProps.Location != "" {
			ve.SetLocation(e.ExtendedProps.Location)
		}
		if e.ExtendedProps.Sport != "" {
			ve.SetProperty(ics.ComponentPropertyCategories, e.ExtendedProps.Sport)
		}
		ve.SetProperty(ics.ComponentPropertyColor, e.Color)
		if !e.ExtendedProps.CreatedAt.IsZero() {
			ve.SetCreatedTime(e.ExtendedProps.CreatedAt.UTC())
		}
		switch {
		case e.ExtendedProps.ShareLink != "":
			ve.SetURL(e.ExtendedProps.ShareLink)
		case baseUrl != "":
			ve.SetURL(strings.TrimRight(baseUrl, "/") + "/dashboard/apps/calendar?event=" + e.Id)
		}
		if strings.EqualFold(e.ExtendedProps.Status, "cancelled") {
			ve.SetStatus(ics.ObjectStatusCancelled)
		}
	}
	return cal.Serialize()
}
