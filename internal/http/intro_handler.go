package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"networkbrain/internal/intros"
)

// IntroHandler exposes introduction CRUD and lifecycle endpoints.
type IntroHandler struct {
	service *intros.Service
	logger  *slog.Logger
}

// NewIntroHandler creates a handler.
func NewIntroHandler(service *intros.Service, logger *slog.Logger) *IntroHandler {
	return &IntroHandler{service: service, logger: logger}
}

// List returns introductions, optionally filtered by status or profile.
func (h *IntroHandler) List(w http.ResponseWriter, r *http.Request) {
	opts := intros.ListOptions{}

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status := intros.Status(raw)
		opts.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("profileId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid profileId filter")
			return
		}
		opts.ProfileID = &id
	}

	list, err := h.service.List(r.Context(), opts)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	if list == nil {
		list = []intros.Intro{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"intros": list})
}

// Create stores a new introduction.
func (h *IntroHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		FromProfile uuid.UUID `json:"fromProfile"`
		ToProfile   uuid.UUID `json:"toProfile"`
		Rationale   string    `json:"rationale"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	intro, err := h.service.Create(r.Context(), intros.CreateIntroInput{
		FromProfile: payload.FromProfile,
		ToProfile:   payload.ToProfile,
		Rationale:   payload.Rationale,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, intro)
}

// Get returns a single introduction.
func (h *IntroHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	intro, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, intro)
}

// Update modifies an introduction's editable fields.
func (h *IntroHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	raw := map[string]json.RawMessage{}
	if err := decodeJSONBody(w, r, &raw); err != nil {
		writeJSONError(w, err)
		return
	}

	var payload struct {
		Rationale *string `json:"rationale"`
	}
	if err := decodeInto(raw, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := intros.UpdateIntroInput{}
	if _, ok := raw["rationale"]; ok {
		input.Rationale = payload.Rationale
	}

	intro, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, intro)
}

// Transition handles POST /api/intros/{id}/status.
func (h *IntroHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	intro, err := h.service.Transition(r.Context(), id, intros.Status(payload.Status))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, intro)
}

// Delete removes an introduction.
func (h *IntroHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *IntroHandler) handleServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, intros.ErrNotFound) {
		writeError(w, http.StatusNotFound, "introduction not found")
		return
	}
	if errors.Is(err, intros.ErrValidation) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.Error("intro service error", "error", err)
	writeError(w, http.StatusInternalServerError, "unexpected error")
}
