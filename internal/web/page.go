package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"weekgrid/internal/export"
	"weekgrid/internal/layout"
	applog "weekgrid/internal/log"
)

//go:embed templates/calendar.html
var templateFS embed.FS

var calendarTmpl = template.Must(template.ParseFS(templateFS, "templates/calendar.html"))

var dayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// boxView is one absolutely positioned event box. Horizontal placement
// comes from the column packing: each event takes 1/totalCols of the
// day column, offset by its column index.
type boxView struct {
	Title    string
	Time     string
	Meta     string
	Top      float64
	Height   float64
	LeftPct  float64
	WidthPct float64
	BG       string
	FG       string
}

type dayView struct {
	Name  string
	Date  string
	Boxes []boxView
}

// railView is one entry of the compressed time rail on the left edge.
type railView struct {
	Gap    bool
	Label  string
	Height float64
}

type pageData struct {
	WeekLabel   string
	TotalHeight float64
	Rail        []railView
	Days        []dayView
}

// handleCalendar renders the week grid as a static HTML page. This page
// is the rendering surface for the capture pipeline; the root element
// carries data-ready="true" so the headless browser knows when to
// screenshot.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	weekStart, err := s.resolveWeek(r.URL.Query().Get("week"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	events := s.store.Events()
	wl := layout.ComputeWeek(events, weekStart, s.layoutOptions())

	data := pageData{
		WeekLabel:   fmt.Sprintf("Week of %s", weekStart.Format("2 January 2006")),
		TotalHeight: wl.TotalHeight(),
	}

	for _, seg := range wl.Segments {
		rv := railView{Height: seg.Height}
		if seg.Kind == layout.SegmentGap {
			rv.Gap = true
			rv.Label = "⋯"
		} else {
			rv.Label = minuteLabel(seg.StartMinute)
		}
		data.Rail = append(data.Rail, rv)
	}

	days := make([]dayView, 7)
	for d := range days {
		date := weekStart.AddDate(0, 0, d)
		days[d] = dayView{Name: dayNames[d], Date: date.Format("2 Jan")}
	}
	for _, ev := range events {
		p, ok := wl.Placements[ev.ID]
		if !ok {
			continue
		}
		widthPct := 100.0 / float64(p.TotalCols)
		box := boxView{
			Title:    ev.Title,
			Time:     fmt.Sprintf("%s–%s", ev.Start.Format("15:04"), ev.End.Format("15:04")),
			Top:      p.Top,
			Height:   p.Height,
			LeftPct:  widthPct * float64(p.ColIndex),
			WidthPct: widthPct,
			BG:       ev.Color.Background,
			FG:       ev.Color.Foreground,
		}
		if ev.Capacity > 0 {
			box.Meta = fmt.Sprintf("%d/%d", ev.Total, ev.Capacity)
		}
		days[p.DayIndex].Boxes = append(days[p.DayIndex].Boxes, box)
	}
	data.Days = days

	var buf bytes.Buffer
	if err := calendarTmpl.Execute(&buf, data); err != nil {
		applog.Error("calendar template failed", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func minuteLabel(min int) string {
	return fmt.Sprintf("%d:%02d", min/60, min%60)
}

// Preview returns the last captured grid image, if any.
func (s *Server) Preview() ([]byte, bool) {
	s.previewMu.RLock()
	defer s.previewMu.RUnlock()
	if len(s.preview) == 0 {
		return nil, false
	}
	return s.preview, true
}

// handlePreview serves the last captured grid image from memory.
func (s *Server) handlePreview(w http.ResponseWriter, _ *http.Request) {
	s.previewMu.RLock()
	png := s.preview
	s.previewMu.RUnlock()

	if len(png) == 0 {
		http.Error(w, "no preview captured yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// handleExportICS serializes the collection as an iCalendar feed.
func (s *Server) handleExportICS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="schedule.ics"`)
	_, _ = w.Write([]byte(export.GridICS(s.store.Events())))
}

// handleExportPDF captures the calendar page and assembles a single-page
// PDF around the image. A missing or stuck headless browser is reported
// once as 503; there is no fallback rendering path.
func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	png, err := s.capture(r.Context(), r.URL.Query().Get("week"))
	if err != nil {
		applog.Error("pdf export capture failed", err)
		writeError(w, http.StatusServiceUnavailable, "calendar capture unavailable")
		return
	}

	var buf bytes.Buffer
	err = export.GridPDF(&buf, png, export.PDFOptions{
		Orientation: s.cfg.PDF.Orientation,
		PageSize:    s.cfg.PDF.PageSize,
		MarginMM:    s.cfg.PDF.MarginMM,
	})
	if err != nil {
		applog.Error("pdf assembly failed", err)
		writeError(w, http.StatusInternalServerError, "failed to assemble PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="weekgrid.pdf"`)
	_, _ = buf.WriteTo(w)
}

// RefreshPreview captures the calendar page and stores the image for
// /preview.png. Called by the cron refresh in serve mode.
func (s *Server) RefreshPreview(ctx context.Context) error {
	png, err := s.capture(ctx, "")
	if err != nil {
		return err
	}
	applog.Info("preview refreshed", "bytes", len(png))
	return nil
}

func (s *Server) capture(ctx context.Context, week string) ([]byte, error) {
	if s.captureFn == nil {
		return nil, fmt.Errorf("capture is not configured")
	}
	url := "http://" + s.cfg.Listen + "/calendar"
	if week != "" {
		url += "?week=" + week
	}

	timeout := time.Duration(s.cfg.Capture.TimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	png, err := s.captureFn(ctx, url)
	if err != nil {
		return nil, err
	}

	// Keep the preview warm as a side effect of any successful capture.
	s.previewMu.Lock()
	s.preview = png
	s.previewMu.Unlock()
	return png, nil
}
