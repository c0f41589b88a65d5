package model

import (
	"fmt"
	"time"
)

// Event is one bookable time-blocked entry. Start and End carry local
// wall-clock semantics only; no timezone conversion happens anywhere in
// the pipeline. Layout output (column index, offsets) is never stored on
// the event itself; see internal/layout.
type Event struct {
	ID string

	Start time.Time
	End   time.Time

	Title       string
	Description string

	// Informational counters; not used by layout.
	Capacity int
	Total    int
	Waiting  int

	Price float64

	Color ColorPair
}

// Duration returns the event length; valid events always have Start < End.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// ColorPair is a background/foreground style pairing assigned per distinct
// title in first-seen order.
type ColorPair struct {
	Background string `json:"background"`
	Foreground string `json:"foreground"`
}

// Palette is the fixed 8-entry cycle used for title colors. Assignment is
// palette index = count of distinct titles seen so far, modulo len(Palette).
var Palette = [8]ColorPair{
	{Background: "#1f6feb", Foreground: "#ffffff"},
	{Background: "#2da44e", Foreground: "#ffffff"},
	{Background: "#bf8700", Foreground: "#1c1c1c"},
	{Background: "#cf222e", Foreground: "#ffffff"},
	{Background: "#8250df", Foreground: "#ffffff"},
	{Background: "#1b7c83", Foreground: "#ffffff"},
	{Background: "#bc4c00", Foreground: "#ffffff"},
	{Background: "#57606a", Foreground: "#ffffff"},
}

// FormatStamp renders t back into the D/M/YYYY H:mm form used by the
// input format. Round-tripping a decoded field through FormatStamp
// reproduces the original text up to zero-padding.
func FormatStamp(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d %d:%02d", t.Day(), int(t.Month()), t.Year(), t.Hour(), t.Minute())
}

// WeekStartOf returns 00:00:00 on the Monday of t's week.
func WeekStartOf(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -DayIndex(t))
}

// DayIndex maps a timestamp onto the Monday=0..Sunday=6 convention.
// Go's time.Weekday puts Sunday first, so it is shifted to the end.
func DayIndex(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 6
	}
	return wd - 1
}
