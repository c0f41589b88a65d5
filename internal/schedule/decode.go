// Package schedule decodes parsed tabular rows into typed event records
// and owns the in-memory event collection.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"weekgrid/internal/model"
)

// Expected column order of a data row. See the import format notes in
// the README: start, end, title, description, capacity, total, waiting,
// price.
const minColumns = 8

// DecodeRows maps header-stripped rows onto event records. Format
// problems (too few columns, unparseable date/time, end not after
// start) abort the whole batch with an error naming the first offending
// row; numeric metadata fields never fail, they coerce to zero.
//
// Row numbers in error messages are 1-based and include the stripped
// header, so data row i reports as row i+2.
func DecodeRows(rows [][]string, colors *ColorMap) ([]model.Event, error) {
	events := make([]model.Event, 0, len(rows))

	for i, fields := range rows {
		rowNum := i + 2

		if len(fields) < minColumns {
			return nil, fmt.Errorf("Row %d: Not enough columns. Expected %d, found %d.", rowNum, minColumns, len(fields))
		}

		start, startErr := ParseStamp(fields[0])
		end, endErr := ParseStamp(fields[1])
		if startErr != nil || endErr != nil {
			return nil, fmt.Errorf("Row %d: Invalid date/time format in %q or %q.", rowNum, fields[0], fields[1])
		}
		if !start.Before(end) {
			return nil, fmt.Errorf("Row %d: Event must end after it starts.", rowNum)
		}

		title := fields[2]

		ev := model.Event{
			ID:          fmt.Sprintf("%d-%s-%d", start.Unix(), title, i),
			Start:       start,
			End:         end,
			Title:       title,
			Description: fields[3],
			Capacity:    coerceInt(fields[4]),
			Total:       coerceInt(fields[5]),
			Waiting:     coerceInt(fields[6]),
			Price:       coercePrice(fields[7]),
			Color:       colors.Assign(title),
		}
		events = append(events, ev)
	}

	return events, nil
}

// ParseStamp parses a combined "D/M/YYYY H:mm" field: the date and time
// parts are separated by the first run of whitespace, the date is
// day-first, and the time is 24-hour with no leading zeros required.
func ParseStamp(field string) (time.Time, error) {
	parts := strings.Fields(field)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("expected \"<date> <time>\", got %q", field)
	}

	dateParts := strings.Split(parts[0], "/")
	if len(dateParts) != 3 {
		return time.Time{}, fmt.Errorf("bad date %q", parts[0])
	}
	timeParts := strings.Split(parts[1], ":")
	if len(timeParts) != 2 {
		return time.Time{}, fmt.Errorf("bad time %q", parts[1])
	}

	day, err := strconv.Atoi(dateParts[0])
	if err != nil {
		return time.Time{}, err
	}
	month, err := strconv.Atoi(dateParts[1])
	if err != nil {
		return time.Time{}, err
	}
	year, err := strconv.Atoi(dateParts[2])
	if err != nil {
		return time.Time{}, err
	}
	hour, err := strconv.Atoi(timeParts[0])
	if err != nil {
		return time.Time{}, err
	}
	minute, err := strconv.Atoi(timeParts[1])
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.Local), nil
}

// coerceInt parses an informational counter; anything unparseable or
// negative degrades to zero rather than failing the row.
func coerceInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func coercePrice(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

// DeriveWeekStart returns the Monday 00:00 of the earliest event's week,
// or the zero time when the list is empty. Only the minimum matters, so
// no sort is performed here; rendering order is re-derived per day by
// the layout engine.
func DeriveWeekStart(events []model.Event) time.Time {
	var earliest time.Time
	for _, ev := range events {
		if earliest.IsZero() || ev.Start.Before(earliest) {
			earliest = ev.Start
		}
	}
	if earliest.IsZero() {
		return time.Time{}
	}
	return model.WeekStartOf(earliest)
}
