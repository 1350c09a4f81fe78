package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"networkbrain/internal/calendar"
	"networkbrain/internal/gapi"
)

// defaultCalendarWindow is used when the caller does not bound the query.
const defaultCalendarWindow = 30 * 24 * time.Hour

// CalendarHandler exposes calendar sync endpoints.
type CalendarHandler struct {
	service *calendar.Service
	logger  *slog.Logger
}

// NewCalendarHandler creates a handler.
func NewCalendarHandler(service *calendar.Service, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{service: service, logger: logger}
}

// Events handles GET /api/calendar/events?timeMin&timeMax: it syncs the
// window from Google and returns the normalized events.
func (h *CalendarHandler) Events(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeError(w, http.StatusServiceUnavailable, "Google client is not configured")
		return
	}
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	window, err := parseWindow(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Sync(r.Context(), user.Email, window)
	if err != nil {
		h.handleSyncError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": eventsOrEmpty(result.Events)})
}

// Sync handles POST /api/calendar/sync with an explicit window, returning a
// sync summary.
func (h *CalendarHandler) Sync(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeError(w, http.StatusServiceUnavailable, "Google client is not configured")
		return
	}
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	var payload struct {
		TimeMin *time.Time `json:"timeMin"`
		TimeMax *time.Time `json:"timeMax"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	window := defaultWindow()
	if payload.TimeMin != nil {
		window.Start = *payload.TimeMin
	}
	if payload.TimeMax != nil {
		window.End = *payload.TimeMax
	}
	if !window.End.After(window.Start) {
		writeError(w, http.StatusBadRequest, "timeMax must be after timeMin")
		return
	}

	result, err := h.service.Sync(r.Context(), user.Email, window)
	if err != nil {
		h.handleSyncError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events":          eventsOrEmpty(result.Events),
		"profilesCreated": result.ProfilesCreated,
		"attendeesLinked": result.AttendeesLinked,
	})
}

func (h *CalendarHandler) handleSyncError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gapi.ErrReauthorizationRequired):
		writeError(w, http.StatusUnauthorized, "Google access has expired, please reconnect your account")
	case errors.Is(err, gapi.ErrTransient):
		writeError(w, http.StatusBadGateway, "Google Calendar is temporarily unavailable, please retry")
	case errors.Is(err, gapi.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "invalid calendar query")
	default:
		h.logger.Error("calendar sync failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to sync calendar")
	}
}

func defaultWindow() gapi.Window {
	now := time.Now().UTC()
	return gapi.Window{Start: now, End: now.Add(defaultCalendarWindow)}
}

func parseWindow(values url.Values) (gapi.Window, error) {
	window := defaultWindow()

	if raw := strings.TrimSpace(values.Get("timeMin")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return gapi.Window{}, fmt.Errorf("timeMin must be an RFC3339 timestamp")
		}
		window.Start = parsed
	}
	if raw := strings.TrimSpace(values.Get("timeMax")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return gapi.Window{}, fmt.Errorf("timeMax must be an RFC3339 timestamp")
		}
		window.End = parsed
	}
	if !window.End.After(window.Start) {
		return gapi.Window{}, fmt.Errorf("timeMax must be after timeMin")
	}
	return window, nil
}

func eventsOrEmpty(events []calendar.Event) []calendar.Event {
	if events == nil {
		return []calendar.Event{}
	}
	return events
}
