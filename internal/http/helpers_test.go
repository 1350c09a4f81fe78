package http

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"log/slog"

	"golang.org/x/oauth2"

	"networkbrain/internal/auth"
	"networkbrain/internal/calendar"
	"networkbrain/internal/config"
	"networkbrain/internal/gapi"
	"networkbrain/internal/importer"
	"networkbrain/internal/intros"
	"networkbrain/internal/mail"
	"networkbrain/internal/metrics"
	"networkbrain/internal/profiles"
)

const testAdminEmail = "admin@example.com"

type fakeAuthenticator struct {
	exchangeToken  *oauth2.Token
	exchangeClaims *auth.GoogleClaims
	exchangeErr    error
	verifyClaims   *auth.GoogleClaims
	verifyErr      error
	revokeErr      error
}

func (f *fakeAuthenticator) AuthURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?access_type=offline&prompt=consent&state=" + state
}

func (f *fakeAuthenticator) Exchange(_ context.Context, _ string) (*oauth2.Token, *auth.GoogleClaims, error) {
	if f.exchangeErr != nil {
		return nil, nil, f.exchangeErr
	}
	return f.exchangeToken, f.exchangeClaims, nil
}

func (f *fakeAuthenticator) VerifyIDToken(_ context.Context, _ string) (*auth.GoogleClaims, error) {
	return f.verifyClaims, f.verifyErr
}

func (f *fakeAuthenticator) Revoke(_ context.Context, _ string) error {
	return f.revokeErr
}

func adminClaims() *auth.GoogleClaims {
	return &auth.GoogleClaims{
		Sub:           "google-sub-1",
		Email:         testAdminEmail,
		EmailVerified: true,
		Name:          "Admin Person",
	}
}

func adminToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}
}

type testEnv struct {
	cfg      config.Config
	auth     *auth.Service
	profiles *profiles.Service
	store    *auth.InMemoryStore
	google   *fakeAuthenticator
	lister   *fakeEventLister
	sender   *fakeMailSender
	handler  http.Handler
}

type fakeEventLister struct {
	events []gapi.Event
	err    error
}

func (f *fakeEventLister) ListEvents(_ context.Context, _ string, _ gapi.Window) ([]gapi.Event, error) {
	return f.events, f.err
}

type fakeMailSender struct {
	messageID string
	err       error
}

func (f *fakeMailSender) SendMail(_ context.Context, _ string, _ gapi.MailRequest) (string, error) {
	return f.messageID, f.err
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sessions, err := auth.NewSessionIssuer("test-secret")
	if err != nil {
		t.Fatalf("session issuer: %v", err)
	}

	google := &fakeAuthenticator{
		exchangeToken:  adminToken(),
		exchangeClaims: adminClaims(),
		verifyClaims:   adminClaims(),
	}
	store := auth.NewInMemoryStore()
	allowlist := auth.NewAllowlist([]string{testAdminEmail})
	authSvc := auth.NewService(google, store, sessions, allowlist, logger)

	profileSvc := profiles.NewService(profiles.NewInMemoryRepository(nil))
	introSvc := intros.NewService(intros.NewInMemoryRepository(), profileSvc)
	lister := &fakeEventLister{}
	sender := &fakeMailSender{messageID: "msg-1"}
	calendarSvc := calendar.NewService(lister, calendar.NewInMemoryRepository(), profileSvc, logger)
	mailSvc := mail.NewService(sender, mail.NewInMemoryRepository(), profileSvc, logger)

	cfg := config.Config{
		Environment:      "development",
		BaseURL:          "http://localhost:8080",
		AdminEmails:      []string{testAdminEmail},
		AllowedOrigins:   []string{"http://localhost:3000"},
		ExtensionOrigins: []string{"chrome-extension://abc123"},
	}

	handler := NewRouter(cfg, Services{
		Auth:     authSvc,
		Profiles: profileSvc,
		Intros:   introSvc,
		Calendar: calendarSvc,
		Mail:     mailSvc,
		Importer: importer.NewCSVImporter(profileSvc),
		Metrics:  metrics.New(),
	}, logger)

	return &testEnv{
		cfg:      cfg,
		auth:     authSvc,
		profiles: profileSvc,
		store:    store,
		google:   google,
		lister:   lister,
		sender:   sender,
		handler:  handler,
	}
}

func (env *testEnv) sessionToken(t *testing.T) string {
	t.Helper()
	token, err := env.auth.Sessions().Issue(auth.SessionUser{Email: testAdminEmail, Sub: "google-sub-1"})
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	return token
}

func (env *testEnv) sessionCookie(t *testing.T) *http.Cookie {
	return &http.Cookie{Name: sessionCookieName, Value: env.sessionToken(t)}
}
