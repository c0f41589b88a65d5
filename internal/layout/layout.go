// Package layout places decoded events into a weekly grid: greedy
// column packing for overlapping events within a day, and a compressed
// vertical timeline that renders used time ranges at true scale while
// collapsing long idle stretches to fixed-height markers.
package layout

import (
	"sort"
	"time"

	"weekgrid/internal/model"
)

const minutesPerDay = 24 * 60

// Options tunes the proportional scale of the grid. Zero values fall
// back to the defaults below, so config can pass a partially-filled
// struct.
type Options struct {
	// PixelsPerHour is the vertical scale of visible segments.
	PixelsPerHour float64
	// GapHeight is the fixed rendered height of a collapsed gap,
	// regardless of the gap's real duration.
	GapHeight float64
	// MinEventHeight keeps very short events clickable.
	MinEventHeight float64
	// CollapseMinutes is the minimum idle duration that collapses into
	// a gap marker; shorter idle stretches stay at true scale.
	CollapseMinutes int
	// DefaultStartHour/DefaultEndHour bound the visible window when
	// there are no events to derive it from.
	DefaultStartHour int
	DefaultEndHour   int
}

const (
	defaultPixelsPerHour  = 60.0
	defaultGapHeight      = 24.0
	defaultMinEventHeight = 18.0
	defaultCollapseMin    = 60
	defaultStartHour      = 6
	defaultEndHour        = 23
)

func (o Options) withDefaults() Options {
	if o.PixelsPerHour <= 0 {
		o.PixelsPerHour = defaultPixelsPerHour
	}
	if o.GapHeight <= 0 {
		o.GapHeight = defaultGapHeight
	}
	if o.MinEventHeight <= 0 {
		o.MinEventHeight = defaultMinEventHeight
	}
	if o.CollapseMinutes <= 0 {
		o.CollapseMinutes = defaultCollapseMin
	}
	if o.DefaultEndHour <= o.DefaultStartHour {
		o.DefaultStartHour = defaultStartHour
		o.DefaultEndHour = defaultEndHour
	}
	return o
}

type SegmentKind string

const (
	SegmentVisible SegmentKind = "visible"
	SegmentGap     SegmentKind = "gap"
)

// Segment is one piece of the compressed vertical timeline, in
// minutes-of-day. Visible segments render at PixelsPerHour scale; gap
// segments render at the fixed GapHeight.
type Segment struct {
	Kind        SegmentKind `json:"kind"`
	StartMinute int         `json:"startMinute"`
	EndMinute   int         `json:"endMinute"`
	Height      float64     `json:"height"`
}

// Placement is the per-event layout output. It lives beside the event,
// keyed by ID, never written onto the event record: laying the same
// collection out twice with different week windows must not leave stale
// fields behind.
type Placement struct {
	DayIndex  int     `json:"dayIndex"`
	Top       float64 `json:"top"`
	Height    float64 `json:"height"`
	ColIndex  int     `json:"colIndex"`
	TotalCols int     `json:"totalCols"`
}

// WeekLayout is the full output of one layout pass.
type WeekLayout struct {
	WeekStart    time.Time            `json:"weekStart"`
	VisibleStart int                  `json:"visibleStart"`
	VisibleEnd   int                  `json:"visibleEnd"`
	Segments     []Segment            `json:"segments"`
	Placements   map[string]Placement `json:"placements"`

	opts Options
}

// ComputeWeek lays out the events that fall inside
// [weekStart, weekStart+7d). weekStart must already be normalized to
// Monday 00:00 (model.WeekStartOf). Events outside the window get no
// placement.
func ComputeWeek(events []model.Event, weekStart time.Time, opts Options) *WeekLayout {
	opts = opts.withDefaults()
	weekEnd := weekStart.AddDate(0, 0, 7)

	// Keep insertion index: the packing tie-break for equal start times
	// is original order, so results are reproducible.
	type indexed struct {
		ev  model.Event
		idx int
	}
	var week []indexed
	for i, ev := range events {
		if ev.Start.Before(weekStart) || !ev.Start.Before(weekEnd) {
			continue
		}
		week = append(week, indexed{ev: ev, idx: i})
	}

	w := &WeekLayout{
		WeekStart:  weekStart,
		Placements: make(map[string]Placement, len(week)),
		opts:       opts,
	}

	// Global visible window in minutes-of-day: floor-to-hour of the
	// earliest start, ceil-to-hour of the latest end, across the whole
	// displayed set. Empty set falls back to the configured default.
	var used [][2]int
	w.VisibleStart = opts.DefaultStartHour * 60
	w.VisibleEnd = opts.DefaultEndHour * 60
	if len(week) > 0 {
		first := true
		for _, it := range week {
			s, e := minuteSpan(it.ev)
			if first {
				w.VisibleStart, w.VisibleEnd = s, e
				first = false
				continue
			}
			if s < w.VisibleStart {
				w.VisibleStart = s
			}
			if e > w.VisibleEnd {
				w.VisibleEnd = e
			}
		}
		w.VisibleStart = w.VisibleStart / 60 * 60
		w.VisibleEnd = ceilHour(w.VisibleEnd)

		for _, it := range week {
			s, e := minuteSpan(it.ev)
			s, e = clip(s, e, w.VisibleStart, w.VisibleEnd)
			if s < e {
				used = append(used, [2]int{s, e})
			}
		}
	}

	w.Segments = buildSegments(mergeIntervals(used), w.VisibleStart, w.VisibleEnd, opts)

	// Per-day greedy column packing.
	byDay := make(map[int][]indexed)
	for _, it := range week {
		d := model.DayIndex(it.ev.Start)
		byDay[d] = append(byDay[d], it)
	}

	for _, day := range byDay {
		sort.SliceStable(day, func(a, b int) bool {
			if !day[a].ev.Start.Equal(day[b].ev.Start) {
				return day[a].ev.Start.Before(day[b].ev.Start)
			}
			return day[a].idx < day[b].idx
		})

		// columns[c] is the end time of the last event placed in lane c.
		var colEnds []time.Time
		colOf := make(map[string]int, len(day))
		for _, it := range day {
			placed := false
			for c := range colEnds {
				if !colEnds[c].After(it.ev.Start) {
					colEnds[c] = it.ev.End
					colOf[it.ev.ID] = c
					placed = true
					break
				}
			}
			if !placed {
				colEnds = append(colEnds, it.ev.End)
				colOf[it.ev.ID] = len(colEnds) - 1
			}
		}

		total := len(colEnds)
		for _, it := range day {
			s, e := minuteSpan(it.ev)
			s, e = clip(s, e, w.VisibleStart, w.VisibleEnd)
			top := w.YForMinute(s)
			height := w.YForMinute(e) - top
			if height < opts.MinEventHeight {
				height = opts.MinEventHeight
			}
			w.Placements[it.ev.ID] = Placement{
				DayIndex:  model.DayIndex(it.ev.Start),
				Top:       top,
				Height:    height,
				ColIndex:  colOf[it.ev.ID],
				TotalCols: total,
			}
		}
	}

	return w
}

// YForMinute maps a minute-of-day onto a vertical offset by walking the
// segment list. Within a visible segment the mapping is linear in
// elapsed time; a minute inside a gap maps to the gap's top (gaps are
// free of event boundaries by construction). The mapping is monotonic
// non-decreasing over the visible window.
func (w *WeekLayout) YForMinute(min int) float64 {
	y := 0.0
	for _, seg := range w.Segments {
		if min < seg.StartMinute {
			return y
		}
		if min < seg.EndMinute {
			if seg.Kind == SegmentGap {
				return y
			}
			span := float64(seg.EndMinute - seg.StartMinute)
			return y + float64(min-seg.StartMinute)/span*seg.Height
		}
		y += seg.Height
	}
	return y
}

// TotalHeight is the rendered height of the whole compressed timeline.
func (w *WeekLayout) TotalHeight() float64 {
	h := 0.0
	for _, seg := range w.Segments {
		h += seg.Height
	}
	return h
}

// minuteSpan projects an event onto minutes-of-day, discarding which
// day it falls on. An event running past midnight clamps at 24:00.
func minuteSpan(ev model.Event) (int, int) {
	s := ev.Start.Hour()*60 + ev.Start.Minute()
	e := s + int(ev.End.Sub(ev.Start).Minutes())
	if e > minutesPerDay {
		e = minutesPerDay
	}
	return s, e
}

func clip(s, e, lo, hi int) (int, int) {
	if s < lo {
		s = lo
	}
	if e > hi {
		e = hi
	}
	return s, e
}

func ceilHour(min int) int {
	if min%60 == 0 {
		return min
	}
	return (min/60 + 1) * 60
}

// mergeIntervals unions the used [start,end) intervals: sort by start,
// merge while the next start is <= the running end.
func mergeIntervals(in [][2]int) [][2]int {
	if len(in) == 0 {
		return nil
	}
	sort.Slice(in, func(a, b int) bool { return in[a][0] < in[b][0] })

	out := [][2]int{in[0]}
	for _, iv := range in[1:] {
		last := &out[len(out)-1]
		if iv[0] <= last[1] {
			if iv[1] > last[1] {
				last[1] = iv[1]
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// buildSegments walks the merged used intervals left to right across
// the visible window. Idle stretches of at least CollapseMinutes become
// fixed-height gap markers; shorter ones stay visible at true scale so
// the grid does not fill up with tiny markers. With no events at all
// the whole window is one visible segment.
func buildSegments(merged [][2]int, lo, hi int, opts Options) []Segment {
	visible := func(s, e int) Segment {
		return Segment{
			Kind:        SegmentVisible,
			StartMinute: s,
			EndMinute:   e,
			Height:      float64(e-s) / 60.0 * opts.PixelsPerHour,
		}
	}

	if len(merged) == 0 {
		return []Segment{visible(lo, hi)}
	}

	var segs []Segment
	cursor := lo
	for _, iv := range merged {
		if idle := iv[0] - cursor; idle > 0 {
			if idle >= opts.CollapseMinutes {
				segs = append(segs, Segment{
					Kind:        SegmentGap,
					StartMinute: cursor,
					EndMinute:   iv[0],
					Height:      opts.GapHeight,
				})
			} else {
				segs = append(segs, visible(cursor, iv[0]))
			}
		}
		segs = append(segs, visible(iv[0], iv[1]))
		cursor = iv[1]
	}
	if cursor < hi {
		// Trailing space up to the ceil-to-hour boundary is always
		// under an hour, so it renders at scale.
		if hi-cursor >= opts.CollapseMinutes {
			segs = append(segs, Segment{
				Kind:        SegmentGap,
				StartMinute: cursor,
				EndMinute:   hi,
				Height:      opts.GapHeight,
			})
		} else {
			segs = append(segs, visible(cursor, hi))
		}
	}
	return segs
}
