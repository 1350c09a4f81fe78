package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"networkbrain/internal/gapi"
	"networkbrain/internal/mail"
)

// GmailHandler exposes delegated send endpoints.
type GmailHandler struct {
	service *mail.Service
	logger  *slog.Logger
}

// NewGmailHandler creates a handler.
func NewGmailHandler(service *mail.Service, logger *slog.Logger) *GmailHandler {
	return &GmailHandler{service: service, logger: logger}
}

// Send handles POST /api/gmail/send: delivers a message from the admin's
// account and records it in the send history.
func (h *GmailHandler) Send(w http.ResponseWriter, r *http.Request) {
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
		To      string `json:"to"`
		Subject string `json:"subject"`
		Body    string `json:"body"`
		CC      string `json:"cc"`
		BCC     string `json:"bcc"`
		HTML    bool   `json:"isHtml"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	entry, err := h.service.Send(r.Context(), user.Email, gapi.MailRequest{
		To:      payload.To,
		Subject: payload.Subject,
		Body:    payload.Body,
		CC:      payload.CC,
		BCC:     payload.BCC,
		HTML:    payload.HTML,
	})
	if err != nil {
		switch {
		case errors.Is(err, gapi.ErrBadRequest):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, gapi.ErrReauthorizationRequired):
			writeError(w, http.StatusUnauthorized, "Google access has expired, please reconnect your account")
		case errors.Is(err, gapi.ErrTransient):
			writeError(w, http.StatusBadGateway, "Gmail is temporarily unavailable, please retry")
		default:
			h.logger.Error("gmail send failed", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to send email")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"messageId": entry.MessageID,
		"log":       entry,
	})
}

// History handles GET /api/gmail/history?profileId&limit.
func (h *GmailHandler) History(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeError(w, http.StatusServiceUnavailable, "Google client is not configured")
		return
	}
	opts := mail.ListOptions{}

	if raw := strings.TrimSpace(r.URL.Query().Get("profileId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid profileId filter")
			return
		}
		opts.ProfileID = &id
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit filter")
			return
		}
		opts.Limit = &value
	}

	history, err := h.service.History(r.Context(), opts)
	if err != nil {
		h.logger.Error("list email history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load send history")
		return
	}
	if history == nil {
		history = []mail.EmailLog{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"emails": history})
}
