package gapi

import (
	"errors"
	"net"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// ErrReauthorizationRequired indicates the delegated grant is no longer
// usable (expired or revoked with no working refresh token); the admin must
// reconnect Google. Surfaced distinctly so the UI can prompt a reconnect
// instead of a generic retry.
var ErrReauthorizationRequired = errors.New("google reauthorization required")

// ErrTransient indicates a network failure or provider 5xx; a bounded retry
// at the caller's discretion is safe.
var ErrTransient = errors.New("transient google api failure")

// ErrBadRequest indicates invalid caller input (e.g. missing recipient).
var ErrBadRequest = errors.New("bad request")

// ErrSend indicates Gmail rejected the message.
var ErrSend = errors.New("gmail send failed")

// permanentGrantMarkers are OAuth error strings that mean the grant is dead
// and refreshing will never succeed.
var permanentGrantMarkers = []string{
	"invalid_grant",
	"invalid_client",
	"unauthorized_client",
	"token has been expired or revoked",
	"revoked",
}

func isPermanentGrantError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range permanentGrantMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// classifyError maps a provider call failure onto the package's error
// taxonomy. Unrecognized errors pass through unchanged.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 401 || apiErr.Code == 403:
			return errorWithCause(ErrReauthorizationRequired, err)
		case apiErr.Code == 400:
			return errorWithCause(ErrBadRequest, err)
		case apiErr.Code >= 500:
			return errorWithCause(ErrTransient, err)
		}
		return err
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if isPermanentGrantError(retrieveErr) {
			return errorWithCause(ErrReauthorizationRequired, err)
		}
		if retrieveErr.Response != nil && retrieveErr.Response.StatusCode >= 500 {
			return errorWithCause(ErrTransient, err)
		}
		return errorWithCause(ErrReauthorizationRequired, err)
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return errorWithCause(ErrTransient, err)
	}

	if isPermanentGrantError(err) {
		return errorWithCause(ErrReauthorizationRequired, err)
	}

	return err
}

// errorWithCause keeps both the sentinel and the provider's message visible.
type classifiedError struct {
	sentinel error
	cause    error
}

func errorWithCause(sentinel, cause error) error {
	return &classifiedError{sentinel: sentinel, cause: cause}
}

func (e *classifiedError) Error() string {
	return e.sentinel.Error() + ": " + e.cause.Error()
}

func (e *classifiedError) Is(target error) bool {
	return errors.Is(e.sentinel, target)
}

func (e *classifiedError) Unwrap() error {
	return e.cause
}
