package export

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"weekgrid/internal/model"
)

// GridICS serializes the event collection as an iCalendar feed so the
// schedule can be pulled into a regular calendar client. Timestamps keep
// their local wall-clock values; the tabular input carries no timezone.
func GridICS(events []model.Event) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//weekgrid//schedule//EN")

	now := time.Now()
	for _, ev := range events {
		ve := cal.AddEvent(ev.ID)
		ve.SetDtStampTime(now)
		ve.SetStartAt(ev.Start)
		ve.SetEndAt(ev.End)
		ve.SetSummary(ev.Title)
		if desc := icsDescription(ev); desc != "" {
			ve.SetDescription(desc)
		}
	}

	return cal.Serialize()
}

func icsDescription(ev model.Event) string {
	var parts []string
	if ev.Description != "" {
		parts = append(parts, ev.Description)
	}
	parts = append(parts, fmt.Sprintf("capacity %d, booked %d, waiting %d, price %.2f",
		ev.Capacity, ev.Total, ev.Waiting, ev.Price))
	return strings.Join(parts, "\n")
}
