package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"networkbrain/internal/importer"
	"networkbrain/internal/profiles"
)

// ProfileHandler exposes profile CRUD and CSV import endpoints.
type ProfileHandler struct {
	service  *profiles.Service
	importer *importer.CSVImporter
	logger   *slog.Logger
}

// NewProfileHandler creates a handler.
func NewProfileHandler(service *profiles.Service, imp *importer.CSVImporter, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{service: service, importer: imp, logger: logger}
}

// List returns profiles, optionally filtered by query.
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	opts := profiles.ListOptions{}
	const maxListLimit = 200

	if rawQuery := strings.TrimSpace(r.URL.Query().Get("query")); rawQuery != "" {
		query := rawQuery
		opts.Query = &query
	}
	if rawLimit := strings.TrimSpace(r.URL.Query().Get("limit")); rawLimit != "" {
		value, err := strconv.Atoi(rawLimit)
		if err != nil || value <= 0 || value > maxListLimit {
			writeError(w, http.StatusBadRequest, "invalid limit filter")
			return
		}
		opts.Limit = &value
	}

	list, err := h.service.List(r.Context(), opts)
	if err != nil {
		h.logger.Error("list profiles", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list profiles")
		return
	}
	if list == nil {
		list = []profiles.Profile{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": list})
}

// Create stores a new profile.
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		FullName    string `json:"fullName"`
		Email       string `json:"email"`
		Company     string `json:"company"`
		Role        string `json:"role"`
		Location    string `json:"location"`
		LinkedInURL string `json:"linkedinUrl"`
		HowMet      string `json:"howMet"`
		Interests   string `json:"interests"`
		Notes       string `json:"notes"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	profile, err := h.service.Create(r.Context(), profiles.CreateProfileInput{
		FullName:    payload.FullName,
		Email:       payload.Email,
		Company:     payload.Company,
		Role:        payload.Role,
		Location:    payload.Location,
		LinkedInURL: payload.LinkedInURL,
		HowMet:      payload.HowMet,
		Interests:   payload.Interests,
		Notes:       payload.Notes,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, profile)
}

// Get returns a single profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	profile, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// Update modifies a profile. Only fields present in the body are changed.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
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
		FullName    *string `json:"fullName"`
		Email       *string `json:"email"`
		Company     *string `json:"company"`
		Role        *string `json:"role"`
		Location    *string `json:"location"`
		LinkedInURL *string `json:"linkedinUrl"`
		HowMet      *string `json:"howMet"`
		Interests   *string `json:"interests"`
		Notes       *string `json:"notes"`
	}
	if err := decodeInto(raw, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := profiles.UpdateProfileInput{}
	if _, ok := raw["fullName"]; ok {
		input.FullName = payload.FullName
	}
	if _, ok := raw["email"]; ok {
		input.Email = payload.Email
	}
	if _, ok := raw["company"]; ok {
		input.Company = payload.Company
	}
	if _, ok := raw["role"]; ok {
		input.Role = payload.Role
	}
	if _, ok := raw["location"]; ok {
		input.Location = payload.Location
	}
	if _, ok := raw["linkedinUrl"]; ok {
		input.LinkedInURL = payload.LinkedInURL
	}
	if _, ok := raw["howMet"]; ok {
		input.HowMet = payload.HowMet
	}
	if _, ok := raw["interests"]; ok {
		input.Interests = payload.Interests
	}
	if _, ok := raw["notes"]; ok {
		input.Notes = payload.Notes
	}

	profile, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// Delete removes a profile.
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

const maxCSVUploadBytes int64 = 5 << 20

// ImportCSV handles POST /api/import with a multipart CSV of profiles.
func (h *ProfileHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	if h.importer == nil {
		writeError(w, http.StatusNotImplemented, "CSV import is not available")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCSVUploadBytes)
	if err := r.ParseMultipartForm(maxCSVUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("CSV upload is too large (max %d bytes)", maxErr.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid CSV upload")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "CSV file is required")
		return
	}
	defer func() { _ = file.Close() }()

	summary, err := h.importer.Import(r.Context(), file)
	if err != nil {
		if errors.Is(err, importer.ErrInvalidCSV) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("csv import failed", "error", err)
		writeError(w, http.StatusInternalServerError, "bulk import failed")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *ProfileHandler) handleServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, profiles.ErrNotFound) {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	if errors.Is(err, profiles.ErrValidation) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.Error("profile service error", "error", err)
	writeError(w, http.StatusInternalServerError, "unexpected error")
}

func decodeInto(raw map[string]json.RawMessage, payload any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, payload)
}
