package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSignedIn means no session and no cached token exist for the provider.
	ErrNotSignedIn = errors.New("provider account is not connected")
	// ErrUnauthorized means the token was rejected even after a refresh attempt.
	ErrUnauthorized = errors.New("provider session expired, reauthentication is required")
	// ErrTokenMissing means an auth flow completed without returning a token.
	ErrTokenMissing = errors.New("authentication completed but no access token was returned")

	ErrInvalidRequest  = errors.New("unable to prepare provider request")
	ErrInvalidResponse = errors.New("provider returned an invalid response")

	// ErrMissingConfiguration and ErrInvalidClientConfiguration indicate
	// misconfigured app credentials. They fail fast and are never retried.
	ErrMissingConfiguration       = errors.New("provider client credentials are not configured")
	ErrInvalidClientConfiguration = errors.New("provider client configuration is invalid")
)

// ApiError is a non-401 HTTP failure from a provider API.
type ApiError struct {
	StatusCode int
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("provider API failed with status code %d", e.StatusCode)
}

// IsRecoverableAuthError reports whether err indicates an invalid session
// that a new sign-in would fix. The orchestrator swallows these per provider;
// everything else propagates to the caller.
func IsRecoverableAuthError(err error) bool {
	return errors.Is(err, ErrNotSignedIn) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrTokenMissing)
}
