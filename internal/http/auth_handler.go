package http

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"networkbrain/internal/auth"
)

const (
	sessionCookieName = "nb_session"
	sessionCookieTTL  = 24 * time.Hour

	oauthStateCookieName = "nb_oauth_state"
	oauthStateCookieTTL  = 10 * time.Minute
)

// AuthHandler exposes the Google OAuth lifecycle endpoints.
type AuthHandler struct {
	service      *auth.Service
	logger       *slog.Logger
	secureCookie bool
	baseURL      string
}

// NewAuthHandler creates a handler. baseURL is the externally visible origin
// used for post-auth redirects.
func NewAuthHandler(service *auth.Service, baseURL, env string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service:      service,
		logger:       logger,
		secureCookie: !strings.EqualFold(env, "development"),
		baseURL:      strings.TrimSuffix(baseURL, "/"),
	}
}

// Login handles GET /api/auth/google/login.
// Redirects the admin to Google's consent screen with a CSRF state cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := auth.GenerateState()
	if err != nil {
		h.logger.Error("failed to generate state", "error", err)
		h.redirectLoginError(w, r, "Could not start Google sign-in")
		return
	}

	authURL, err := h.service.LoginURL(state)
	if err != nil {
		h.logger.Error("login unavailable", "error", err)
		h.redirectLoginError(w, r, "Google sign-in is not configured")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    state,
		Path:     "/api/auth",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(oauthStateCookieTTL.Seconds()),
	})

	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback handles GET /api/auth/google/callback.
// Verifies the CSRF state, exchanges the code, and mints the session cookie.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	h.clearStateCookie(w)

	if providerErr := r.URL.Query().Get("error"); providerErr != "" {
		h.logger.Warn("oauth callback returned provider error", "error", providerErr)
		h.redirectLoginError(w, r, "Google sign-in was cancelled")
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookieName)
	if err != nil || stateCookie.Value == "" {
		h.redirectLoginError(w, r, "Sign-in session expired, please try again")
		return
	}
	state := r.URL.Query().Get("state")
	if subtle.ConstantTimeCompare([]byte(state), []byte(stateCookie.Value)) != 1 {
		h.logger.Warn("oauth callback state mismatch")
		h.redirectLoginError(w, r, "Sign-in could not be verified, please try again")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.redirectLoginError(w, r, "Missing authorization code")
		return
	}

	session, user, err := h.service.HandleCallback(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUnauthorized):
			h.redirectLoginError(w, r, "This Google account is not authorized")
		case errors.Is(err, auth.ErrConfiguration):
			h.redirectLoginError(w, r, "Google sign-in is not configured")
		default:
			h.logger.Error("oauth callback failed", "error", err)
			h.redirectLoginError(w, r, "Google sign-in failed, please try again")
		}
		return
	}

	h.setSessionCookie(w, session)
	h.logger.Info("session issued", "email", user.Email)
	http.Redirect(w, r, h.baseURL+"/dashboard", http.StatusFound)
}

// Status handles GET /api/auth/google/status for an authenticated session.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	status, err := h.service.Status(r.Context(), *user)
	if err != nil {
		h.logger.Error("status lookup failed", "email", user.Email, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load connection status")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// Revoke handles POST /api/auth/google/revoke for an authenticated session.
func (h *AuthHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	result, err := h.service.Revoke(r.Context(), user.Email)
	if err != nil {
		h.logger.Error("revoke failed", "email", user.Email, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to revoke Google access")
		return
	}

	// The session stays valid: revoking the Google grant disconnects the
	// delegated APIs but does not log the admin out.
	payload := map[string]any{"success": result.Revoked}
	if result.RemoteRevoked {
		payload["message"] = result.Message
	} else {
		payload["warning"] = result.Message
	}
	writeJSON(w, http.StatusOK, payload)
}

// TokenExchange handles POST /api/auth/token-exchange for extension clients:
// a Google ID token in, an app session JWT out.
func (h *AuthHandler) TokenExchange(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Token string `json:"token"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}
	if strings.TrimSpace(payload.Token) == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	session, err := h.service.ExchangeIDToken(r.Context(), payload.Token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUnauthorized):
			writeError(w, http.StatusForbidden, "this Google account is not authorized")
		case errors.Is(err, auth.ErrConfiguration):
			writeError(w, http.StatusServiceUnavailable, "Google sign-in is not configured")
		default:
			h.logger.Warn("token exchange rejected", "error", err)
			writeError(w, http.StatusUnauthorized, "invalid token")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"jwt": session})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, session string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionCookieTTL.Seconds()),
	})
}

func (h *AuthHandler) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    "",
		Path:     "/api/auth",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func (h *AuthHandler) redirectLoginError(w http.ResponseWriter, r *http.Request, message string) {
	target := h.baseURL + "/login?error=" + url.QueryEscape(message)
	http.Redirect(w, r, target, http.StatusFound)
}
