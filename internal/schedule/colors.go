package schedule

import "weekgrid/internal/model"

// ColorMap assigns a palette pair to each distinct title in first-seen
// order, cycling through the fixed 8-entry palette. It is owned by the
// caller and passed explicitly into decoding so that a bulk reparse
// (fresh map) and a single manual insertion (map rebuilt from the live
// collection) share one assignment rule. Assignment is order-dependent
// but stable within one pass.
type ColorMap struct {
	byTitle map[string]model.ColorPair
	next    int
}

func NewColorMap() *ColorMap {
	return &ColorMap{byTitle: make(map[string]model.ColorPair)}
}

// Assign returns the pair already bound to title, or binds the next
// palette slot to it. Titles differing only by case or whitespace are
// distinct keys.
func (m *ColorMap) Assign(title string) model.ColorPair {
	if pair, ok := m.byTitle[title]; ok {
		return pair
	}
	pair := model.Palette[m.next%len(model.Palette)]
	m.byTitle[title] = pair
	m.next++
	return pair
}

// SeedFrom replays the titles of existing events into the map so that a
// subsequent Assign for a new title continues the cycle rather than
// restarting at slot zero.
func (m *ColorMap) SeedFrom(events []model.Event) {
	for _, ev := range events {
		if _, ok := m.byTitle[ev.Title]; ok {
			continue
		}
		m.byTitle[ev.Title] = ev.Color
		m.next++
	}
}

// Len reports the number of distinct titles seen.
func (m *ColorMap) Len() int {
	return len(m.byTitle)
}
