package schedule

import (
	"errors"
	"strconv"
	"sync"
	"time"

	applog "weekgrid/internal/log"
	"weekgrid/internal/model"
	"weekgrid/internal/tabular"
)

var ErrNotFound = errors.New("event not found")

// Draft carries the user-editable fields of an event for manual
// create/edit operations. ID and color are assigned by the store.
type Draft struct {
	Start       time.Time
	End         time.Time
	Title       string
	Description string
	Capacity    int
	Total       int
	Waiting     int
	Price       float64
}

// Store is the single-owner in-memory event collection. There is no
// persistence; the collection lives for the process. Mutation is either
// whole-collection replacement (reparse) or a single insert/update/
// delete. The mutex exists because the HTTP mux serves reads
// concurrently, not because the domain needs finer-grained locking.
type Store struct {
	mu     sync.RWMutex
	events []model.Event
}

func NewStore() *Store {
	return &Store{}
}

// ReplaceFromText parses raw CSV/TSV text (header row included) and
// replaces the entire collection with the decoded events. Decoding is
// all-or-nothing: on a format error the current collection is left
// untouched and the row-level error is returned for display.
func (s *Store) ReplaceFromText(text string) (int, error) {
	rows := tabular.Parse(text)
	var data [][]string
	if len(rows) > 1 {
		data = rows[1:]
	}

	colors := NewColorMap()
	events, err := DecodeRows(data, colors)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.events = events
	s.mu.Unlock()

	applog.Info("schedule replaced",
		"dialect", tabular.DetectDialect(text).String(),
		"rows", len(data),
		"events", len(events),
		"titles", colors.Len(),
	)
	return len(events), nil
}

// Events returns a copy of the collection in insertion order.
func (s *Store) Events() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func (s *Store) Get(id string) (model.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ev := range s.events {
		if ev.ID == id {
			return ev, true
		}
	}
	return model.Event{}, false
}

// WeekStart returns the Monday 00:00 of the earliest event's week, or
// the zero time for an empty collection.
func (s *Store) WeekStart() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return DeriveWeekStart(s.events)
}

// Create validates the draft and appends a new event. The color map is
// rebuilt from the live collection first so the new title continues the
// palette cycle exactly as a full reparse would have assigned it.
func (s *Store) Create(d Draft) (model.Event, error) {
	if err := validateDraft(d); err != nil {
		return model.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	colors := NewColorMap()
	colors.SeedFrom(s.events)

	ev := model.Event{
		ID:          strconv.FormatInt(time.Now().UnixNano(), 10),
		Start:       d.Start,
		End:         d.End,
		Title:       d.Title,
		Description: d.Description,
		Capacity:    d.Capacity,
		Total:       d.Total,
		Waiting:     d.Waiting,
		Price:       d.Price,
		Color:       colors.Assign(d.Title),
	}
	s.events = append(s.events, ev)
	return ev, nil
}

// Update validates the draft and overwrites the identified event,
// keeping its ID. Colors are re-derived for the whole collection since
// a retitle can change the first-seen order.
func (s *Store) Update(id string, d Draft) (model.Event, error) {
	if err := validateDraft(d); err != nil {
		return model.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.events {
		if s.events[i].ID != id {
			continue
		}
		s.events[i] = model.Event{
			ID:          id,
			Start:       d.Start,
			End:         d.End,
			Title:       d.Title,
			Description: d.Description,
			Capacity:    d.Capacity,
			Total:       d.Total,
			Waiting:     d.Waiting,
			Price:       d.Price,
		}
		s.rebuildColorsLocked()
		return s.events[i], nil
	}
	return model.Event{}, ErrNotFound
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.events {
		if s.events[i].ID != id {
			continue
		}
		s.events = append(s.events[:i], s.events[i+1:]...)
		s.rebuildColorsLocked()
		return nil
	}
	return ErrNotFound
}

// rebuildColorsLocked reassigns every event's color from a fresh map in
// collection order, so palette slots stay consistent with what a full
// reparse of the current collection would produce.
func (s *Store) rebuildColorsLocked() {
	colors := NewColorMap()
	for i := range s.events {
		s.events[i].Color = colors.Assign(s.events[i].Title)
	}
}

func validateDraft(d Draft) error {
	if d.Title == "" {
		return errors.New("title is required")
	}
	if d.Start.IsZero() || d.End.IsZero() {
		return errors.New("start and end are required")
	}
	if !d.Start.Before(d.End) {
		return errors.New("event must end after it starts")
	}
	return nil
}
