// Package web exposes the schedule over HTTP: a JSON API for import and
// event lifecycle, the layout output for renderers, the server-rendered
// calendar grid page, and the image/PDF export endpoints.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"weekgrid/internal/config"
	"weekgrid/internal/layout"
	applog "weekgrid/internal/log"
	"weekgrid/internal/model"
	"weekgrid/internal/schedule"
)

// maxImportBytes bounds the accepted upload size; schedule files are
// small and anything larger is a mistake.
const maxImportBytes = 4 << 20

// Server serves the API and the calendar grid page over one ServeMux.
type Server struct {
	cfg   *config.Config
	store *schedule.Store
	mux   *http.ServeMux

	// Last captured grid image, held in memory only; there is no
	// persistence anywhere in this application.
	previewMu sync.RWMutex
	preview   []byte

	// captureFn is swapped out in tests.
	captureFn CaptureFunc
}

// CaptureFunc produces a PNG of the given URL. The production value
// wraps internal/capture; tests substitute a stub.
type CaptureFunc func(ctx context.Context, url string) ([]byte, error)

// NewServer constructs a Server around the shared store.
func NewServer(cfg *config.Config, store *schedule.Store, captureFn CaptureFunc) *Server {
	s := &Server{
		cfg:       cfg,
		store:     store,
		captureFn: captureFn,
	}
	s.mux = http.NewServeMux()
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler, wrapped with basic auth when
// configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		applog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /api/import", s.handleImport)
	s.mux.HandleFunc("GET /api/events", s.handleListEvents)
	s.mux.HandleFunc("POST /api/events", s.handleCreateEvent)
	s.mux.HandleFunc("PUT /api/events/{id}", s.handleUpdateEvent)
	s.mux.HandleFunc("DELETE /api/events/{id}", s.handleDeleteEvent)
	s.mux.HandleFunc("GET /api/layout", s.handleLayout)

	s.mux.HandleFunc("GET /calendar", s.handleCalendar)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)
	s.mux.HandleFunc("GET /export.ics", s.handleExportICS)
	s.mux.HandleFunc("GET /export.pdf", s.handleExportPDF)
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers with HTTP Basic Auth. /health
// stays open, and /calendar is reachable from loopback without
// credentials so the local capture browser can render it.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		if r.URL.Path == "/calendar" && isLoopback(r.RemoteAddr) {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="weekgrid", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return false
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleImport replaces the whole collection from a raw CSV/TSV body.
// A format error leaves the collection untouched and comes back as a
// 422 carrying the row-level message for display.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		writeError(w, http.StatusBadRequest, "empty input")
		return
	}

	n, err := s.store.ReplaceFromText(string(body))
	if err != nil {
		applog.Warn("import rejected", "reason", err.Error())
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp := struct {
		Imported  int    `json:"imported"`
		WeekStart string `json:"week_start,omitempty"`
	}{Imported: n}
	if ws := s.store.WeekStart(); !ws.IsZero() {
		resp.WeekStart = ws.Format("2006-01-02")
	}
	writeJSON(w, http.StatusOK, resp)
}

// eventDTO is the JSON view of an event. Start/end use the same
// D/M/YYYY H:mm wall-clock form as the tabular input.
type eventDTO struct {
	ID          string          `json:"id"`
	Start       string          `json:"start"`
	End         string          `json:"end"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Capacity    int             `json:"capacity"`
	Total       int             `json:"total"`
	Waiting     int             `json:"waiting"`
	Price       float64         `json:"price"`
	Color       model.ColorPair `json:"color"`
}

func toDTO(ev model.Event) eventDTO {
	return eventDTO{
		ID:          ev.ID,
		Start:       model.FormatStamp(ev.Start),
		End:         model.FormatStamp(ev.End),
		Title:       ev.Title,
		Description: ev.Description,
		Capacity:    ev.Capacity,
		Total:       ev.Total,
		Waiting:     ev.Waiting,
		Price:       ev.Price,
		Color:       ev.Color,
	}
}

func (s *Server) handleListEvents(w http.ResponseWriter, _ *http.Request) {
	events := s.store.Events()
	dtos := make([]eventDTO, 0, len(events))
	for _, ev := range events {
		dtos = append(dtos, toDTO(ev))
	}
	writeJSON(w, http.StatusOK, struct {
		Events []eventDTO `json:"events"`
	}{Events: dtos})
}

// draftRequest is the JSON body for manual create/edit.
type draftRequest struct {
	Start       string  `json:"start"`
	End         string  `json:"end"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Capacity    int     `json:"capacity"`
	Total       int     `json:"total"`
	Waiting     int     `json:"waiting"`
	Price       float64 `json:"price"`
}

func (dr draftRequest) toDraft() (schedule.Draft, error) {
	d := schedule.Draft{
		Title:       dr.Title,
		Description: dr.Description,
		Capacity:    dr.Capacity,
		Total:       dr.Total,
		Waiting:     dr.Waiting,
		Price:       dr.Price,
	}
	if dr.Start != "" {
		t, err := schedule.ParseStamp(dr.Start)
		if err != nil {
			return d, fmt.Errorf("invalid start %q", dr.Start)
		}
		d.Start = t
	}
	if dr.End != "" {
		t, err := schedule.ParseStamp(dr.End)
		if err != nil {
			return d, fmt.Errorf("invalid end %q", dr.End)
		}
		d.End = t
	}
	return d, nil
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	draft, ok := s.decodeDraft(w, r)
	if !ok {
		return
	}
	ev, err := s.store.Create(draft)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toDTO(ev))
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	draft, ok := s.decodeDraft(w, r)
	if !ok {
		return
	}
	ev, err := s.store.Update(r.PathValue("id"), draft)
	if err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toDTO(ev))
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.PathValue("id")); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decodeDraft(w http.ResponseWriter, r *http.Request) (schedule.Draft, bool) {
	var dr draftRequest
	if err := json.NewDecoder(r.Body).Decode(&dr); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return schedule.Draft{}, false
	}
	draft, err := dr.toDraft()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return schedule.Draft{}, false
	}
	return draft, true
}

// layoutResponse is the layout output contract consumed by renderers:
// per-event placements plus the compressed timeline segments.
type layoutResponse struct {
	WeekStart    string                      `json:"week_start"`
	VisibleStart int                         `json:"visible_start"`
	VisibleEnd   int                         `json:"visible_end"`
	TotalHeight  float64                     `json:"total_height"`
	Segments     []layout.Segment            `json:"segments"`
	Placements   map[string]layout.Placement `json:"placements"`
	Events       []eventDTO                  `json:"events"`
}

// handleLayout runs a full layout pass for the requested week (default:
// the week of the earliest event, falling back to the current week) and
// returns placements and segments.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	weekStart, err := s.resolveWeek(r.URL.Query().Get("week"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events := s.store.Events()
	wl := layout.ComputeWeek(events, weekStart, s.layoutOptions())

	dtos := make([]eventDTO, 0, len(events))
	for _, ev := range events {
		if _, ok := wl.Placements[ev.ID]; ok {
			dtos = append(dtos, toDTO(ev))
		}
	}

	writeJSON(w, http.StatusOK, layoutResponse{
		WeekStart:    weekStart.Format("2006-01-02"),
		VisibleStart: wl.VisibleStart,
		VisibleEnd:   wl.VisibleEnd,
		TotalHeight:  wl.TotalHeight(),
		Segments:     wl.Segments,
		Placements:   wl.Placements,
		Events:       dtos,
	})
}

// resolveWeek picks the week window: an explicit ?week=YYYY-MM-DD is
// normalized to its Monday; otherwise the earliest event's week, or the
// current week for an empty collection.
func (s *Server) resolveWeek(param string) (time.Time, error) {
	if param != "" {
		t, err := time.ParseInLocation("2006-01-02", param, time.Local)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid week %q, want YYYY-MM-DD", param)
		}
		return model.WeekStartOf(t), nil
	}
	if ws := s.store.WeekStart(); !ws.IsZero() {
		return ws, nil
	}
	return model.WeekStartOf(time.Now()), nil
}

func (s *Server) layoutOptions() layout.Options {
	lc := s.cfg.Layout
	return layout.Options{
		PixelsPerHour:    lc.PixelsPerHour,
		GapHeight:        lc.GapHeight,
		MinEventHeight:   lc.MinEventHeight,
		CollapseMinutes:  lc.CollapseMinutes,
		DefaultStartHour: lc.DefaultStartHour,
		DefaultEndHour:   lc.DefaultEndHour,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		applog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
