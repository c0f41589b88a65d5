package export

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"weekgrid/internal/model"
)

func TestGridICS(t *testing.T) {
	events := []model.Event{
		{
			ID:          "1",
			Title:       "Yoga",
			Description: "mat class",
			Start:       time.Date(2025, time.September, 1, 9, 0, 0, 0, time.Local),
			End:         time.Date(2025, time.September, 1, 10, 0, 0, 0, time.Local),
			Capacity:    10,
			Total:       3,
			Price:       5,
		},
	}

	out := GridICS(events)
	for _, want := range []string{"BEGIN:VCALENDAR", "BEGIN:VEVENT", "SUMMARY:Yoga", "END:VCALENDAR"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "capacity 10") {
		t.Fatalf("metadata missing from description:\n%s", out)
	}
}

func TestGridICS_Empty(t *testing.T) {
	out := GridICS(nil)
	if !strings.Contains(out, "BEGIN:VCALENDAR") || strings.Contains(out, "BEGIN:VEVENT") {
		t.Fatalf("empty collection must yield an event-free calendar:\n%s", out)
	}
}

func TestGridPDF(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 32, 16))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	var out bytes.Buffer
	if err := GridPDF(&out, pngBuf.Bytes(), PDFOptions{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !bytes.HasPrefix(out.Bytes(), []byte("%PDF")) {
		t.Fatal("output is not a PDF document")
	}
}

func TestGridPDF_EmptyImage(t *testing.T) {
	var out bytes.Buffer
	if err := GridPDF(&out, nil, PDFOptions{}); err == nil {
		t.Fatal("expected error for empty image")
	}
}
