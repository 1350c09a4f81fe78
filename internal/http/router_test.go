package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"networkbrain/internal/gapi"
	"networkbrain/internal/importer"
	"networkbrain/internal/profiles"
)

func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.AddCookie(env.sessionCookie(t))

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody[map[string]string](t, rec)
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestMetricsEndpointCountsRequests(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	env.handler.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "networkbrain_http_requests_total") {
		t.Error("expected request counter in metrics output")
	}
}

func TestExtensionCORSAllowsConfiguredOrigin(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/token-exchange", nil)
	req.Header.Set("Origin", "chrome-extension://abc123")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "chrome-extension://abc123" {
		t.Errorf("expected allow-origin for configured extension, got %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("expected allow-credentials on extension preflight")
	}
}

func TestExtensionCORSRejectsUnknownOrigin(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/token-exchange", nil)
	req.Header.Set("Origin", "chrome-extension://evil")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no allow-origin for unknown extension, got %q", got)
	}
}

func TestProfileCRUDThroughRouter(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/profiles", map[string]any{
		"fullName": "Dana Smith",
		"email":    "Dana@Example.com",
		"company":  "Acme",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[profiles.Profile](t, rec)
	if created.Email != "dana@example.com" {
		t.Errorf("expected normalized email, got %q", created.Email)
	}

	rec = env.do(t, http.MethodGet, "/api/profiles/"+created.ID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPut, "/api/profiles/"+created.ID.String(), map[string]any{
		"company": "Initech",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody[profiles.Profile](t, rec)
	if updated.Company != "Initech" {
		t.Errorf("expected updated company, got %q", updated.Company)
	}
	if updated.FullName != "Dana Smith" {
		t.Errorf("partial update should keep name, got %q", updated.FullName)
	}

	rec = env.do(t, http.MethodGet, "/api/profiles?query=initech", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	list := decodeBody[struct {
		Profiles []profiles.Profile `json:"profiles"`
	}](t, rec)
	if len(list.Profiles) != 1 {
		t.Fatalf("expected 1 profile matching query, got %d", len(list.Profiles))
	}

	rec = env.do(t, http.MethodDelete, "/api/profiles/"+created.ID.String(), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/profiles/"+created.ID.String(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", rec.Code)
	}
}

func TestProfileCreateRejectsUnknownFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/profiles", map[string]any{
		"fullName": "Dana Smith",
		"surprise": true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}

func TestCSVImportThroughRouter(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "contacts.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fmt.Fprintln(part, "Full Name,Email,Company")
	fmt.Fprintln(part, "Avery Lee,avery@example.com,Globex")
	fmt.Fprintln(part, "Morgan Wu,morgan@example.com,Initech")
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(env.sessionCookie(t))
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	summary := decodeBody[importer.Summary](t, rec)
	if summary.Imported != 2 {
		t.Errorf("expected 2 imported rows, got %d", summary.Imported)
	}

	query := "avery"
	listed, err := env.profiles.List(req.Context(), profiles.ListOptions{Query: &query})
	if err != nil {
		t.Fatalf("list profiles: %v", err)
	}
	if len(listed) != 1 {
		t.Errorf("expected imported profile to be searchable, got %d matches", len(listed))
	}
}

type introResponse struct {
	ID          uuid.UUID `json:"id"`
	FromProfile uuid.UUID `json:"fromProfile"`
	ToProfile   uuid.UUID `json:"toProfile"`
	Status      string    `json:"status"`
	Rationale   string    `json:"rationale"`
}

func TestIntroLifecycleThroughRouter(t *testing.T) {
	env := newTestEnv(t)

	alice, err := env.profiles.Create(t.Context(), profiles.CreateProfileInput{FullName: "Alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("create alice: %v", err)
	}
	bob, err := env.profiles.Create(t.Context(), profiles.CreateProfileInput{FullName: "Bob", Email: "bob@example.com"})
	if err != nil {
		t.Fatalf("create bob: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/api/intros", map[string]any{
		"fromProfile": alice.ID,
		"toProfile":   bob.ID,
		"rationale":   "both into distributed systems",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	intro := decodeBody[introResponse](t, rec)
	if intro.Status != "suggested" {
		t.Fatalf("expected new intro to be suggested, got %q", intro.Status)
	}

	// suggested -> completed skips the lifecycle and must be rejected.
	rec = env.do(t, http.MethodPost, "/api/intros/"+intro.ID.String()+"/status", map[string]any{
		"status": "completed",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for skipped transition, got %d", rec.Code)
	}

	for _, next := range []string{"drafted", "sent", "completed"} {
		rec = env.do(t, http.MethodPost, "/api/intros/"+intro.ID.String()+"/status", map[string]any{
			"status": next,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("transition to %s: expected 200, got %d: %s", next, rec.Code, rec.Body.String())
		}
		intro = decodeBody[introResponse](t, rec)
		if intro.Status != next {
			t.Fatalf("expected status %s, got %q", next, intro.Status)
		}
	}

	// Terminal state rejects further changes.
	rec = env.do(t, http.MethodPost, "/api/intros/"+intro.ID.String()+"/status", map[string]any{
		"status": "declined",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 after terminal state, got %d", rec.Code)
	}
}

func TestCalendarEventsThroughRouter(t *testing.T) {
	env := newTestEnv(t)

	start := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	env.lister.events = []gapi.Event{{
		GoogleEventID: "evt-1",
		Title:         "Coffee with Dana",
		Start:         start,
		Attendees: []gapi.Attendee{
			{Email: "dana@example.com", DisplayName: "Dana Smith"},
		},
	}}

	rec := env.do(t, http.MethodGet, "/api/calendar/events", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody[struct {
		Events []map[string]any `json:"events"`
	}](t, rec)
	if len(body.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(body.Events))
	}

	// The attendee without a matching profile is created during sync.
	attendeeEmail := "dana@example.com"
	matches, err := env.profiles.List(t.Context(), profiles.ListOptions{Query: &attendeeEmail})
	if err != nil {
		t.Fatalf("list profiles: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected attendee profile to be created, got %d matches", len(matches))
	}
}

func TestCalendarSyncMapsExpiredGrantTo401(t *testing.T) {
	env := newTestEnv(t)
	env.lister.err = gapi.ErrReauthorizationRequired

	rec := env.do(t, http.MethodPost, "/api/calendar/sync", map[string]any{})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired grant, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "reconnect") {
		t.Errorf("expected reconnect hint, got %s", rec.Body.String())
	}
}

func TestGmailSendThroughRouter(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.profiles.Create(t.Context(), profiles.CreateProfileInput{
		FullName: "Dana Smith",
		Email:    "dana@example.com",
	}); err != nil {
		t.Fatalf("create profile: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/api/gmail/send", map[string]any{
		"to":      "dana@example.com",
		"subject": "Intro",
		"body":    "Hi Dana",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody[struct {
		Success   bool   `json:"success"`
		MessageID string `json:"messageId"`
	}](t, rec)
	if !body.Success || body.MessageID != "msg-1" {
		t.Errorf("unexpected send response: %+v", body)
	}

	rec = env.do(t, http.MethodGet, "/api/gmail/history", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", rec.Code)
	}
	history := decodeBody[struct {
		Emails []map[string]any `json:"emails"`
	}](t, rec)
	if len(history.Emails) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(history.Emails))
	}
}

func TestGmailSendMapsTransientFailureTo502(t *testing.T) {
	env := newTestEnv(t)
	env.sender.err = gapi.ErrTransient

	rec := env.do(t, http.MethodPost, "/api/gmail/send", map[string]any{
		"to":      "dana@example.com",
		"subject": "Intro",
		"body":    "Hi Dana",
	})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for transient failure, got %d: %s", rec.Code, rec.Body.String())
	}
}
