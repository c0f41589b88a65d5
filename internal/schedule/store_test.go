package schedule

import (
	"testing"
	"time"

	"weekgrid/internal/model"
)

const sampleTSV = "start\tend\ttitle\tdesc\tcap\ttotal\twait\tprice\n" +
	"1/9/2025 9:00\t1/9/2025 10:00\tYoga\t\t10\t1\t0\t5\n" +
	"1/9/2025 9:30\t1/9/2025 10:30\tPilates\t\t10\t1\t0\t5\n"

func TestStore_ReplaceFromText(t *testing.T) {
	s := NewStore()
	n, err := s.ReplaceFromText(sampleTSV)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if n != 2 || s.Len() != 2 {
		t.Fatalf("expected 2 events, got n=%d len=%d", n, s.Len())
	}

	want := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.Local)
	if got := s.WeekStart(); !got.Equal(want) {
		t.Fatalf("expected week start %v, got %v", want, got)
	}
}

func TestStore_ReplaceFailureLeavesCollectionUntouched(t *testing.T) {
	s := NewStore()
	if _, err := s.ReplaceFromText(sampleTSV); err != nil {
		t.Fatalf("seed parse failed: %v", err)
	}

	bad := "h1\th2\th3\th4\th5\th6\th7\th8\n" +
		"1/9/2025 9:00\t1/9/2025 10:00\tYoga\t\t10\t1\n"
	_, err := s.ReplaceFromText(bad)
	if err == nil {
		t.Fatal("expected decode error")
	}
	want := "Row 2: Not enough columns. Expected 8, found 6."
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
	if s.Len() != 2 {
		t.Fatalf("collection must be untouched after failed parse, len=%d", s.Len())
	}
}

func TestStore_CreateValidation(t *testing.T) {
	s := NewStore()
	start := time.Date(2025, time.September, 1, 9, 0, 0, 0, time.Local)

	cases := []struct {
		name  string
		draft Draft
	}{
		{"missing title", Draft{Start: start, End: start.Add(time.Hour)}},
		{"missing times", Draft{Title: "X"}},
		{"end equals start", Draft{Title: "X", Start: start, End: start}},
		{"end before start", Draft{Title: "X", Start: start, End: start.Add(-time.Hour)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.Create(tc.draft); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
	if s.Len() != 0 {
		t.Fatalf("no record may be created on validation failure, len=%d", s.Len())
	}
}

func TestStore_CreateContinuesPaletteCycle(t *testing.T) {
	s := NewStore()
	if _, err := s.ReplaceFromText(sampleTSV); err != nil {
		t.Fatalf("seed parse failed: %v", err)
	}

	start := time.Date(2025, time.September, 2, 9, 0, 0, 0, time.Local)
	ev, err := s.Create(Draft{Title: "Spin", Start: start, End: start.Add(time.Hour)})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	// Yoga and Pilates hold slots 0 and 1; the new title continues at 2.
	if ev.Color != model.Palette[2] {
		t.Fatalf("expected palette slot 2, got %+v", ev.Color)
	}
	if ev.ID == "" {
		t.Fatal("expected generated id")
	}

	// An existing title reuses its pair instead of advancing the cycle.
	ev2, err := s.Create(Draft{Title: "Yoga", Start: start, End: start.Add(time.Hour)})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if ev2.Color != model.Palette[0] {
		t.Fatalf("expected Yoga to keep slot 0, got %+v", ev2.Color)
	}
}

func TestStore_UpdateAndDelete(t *testing.T) {
	s := NewStore()
	start := time.Date(2025, time.September, 1, 9, 0, 0, 0, time.Local)
	ev, err := s.Create(Draft{Title: "Yoga", Start: start, End: start.Add(time.Hour)})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := s.Update(ev.ID, Draft{Title: "Hot Yoga", Start: start, End: start.Add(2 * time.Hour)})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.ID != ev.ID || updated.Title != "Hot Yoga" {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	// Colors are rebuilt over the current collection, so the sole title
	// holds slot 0 again.
	if updated.Color != model.Palette[0] {
		t.Fatalf("expected rebuilt color slot 0, got %+v", updated.Color)
	}

	if _, err := s.Update("nope", Draft{Title: "X", Start: start, End: start.Add(time.Hour)}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Delete(ev.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := s.Delete(ev.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty collection, len=%d", s.Len())
	}
}
