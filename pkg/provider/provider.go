package provider

import (
	"context"
	"fmt"
	"time"
)

// Type identifies a single source of calendar events.
type Type string

const (
	TypeNone    Type = "none"
	TypeLocal   Type = "local"
	TypeGoogle  Type = "google"
	TypeOutlook Type = "outlook"
)

func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeNone, TypeLocal, TypeGoogle, TypeOutlook:
		return Type(s), nil
	}
	return TypeNone, fmt.Errorf("unknown calendar provider: %q", s)
}

// Client is the capability every provider variant offers: fetching events
// within a time window. Implementations resolve the current user from ctx.
type Client interface {
	FetchEventsInWindow(ctx context.Context, from time.Time, to time.Time) ([]SyncedEvent, error)
}

// CloudClient extends Client for OAuth-backed providers.
type CloudClient interface {
	Client

	// AccountEmail returns the signed-in account's email, or "" when the
	// user is not signed in.
	AccountEmail(ctx context.Context) (string, error)

	// SignOut clears the provider session and stored credential. Idempotent.
	SignOut(ctx context.Context) error
}

// EventCache persists the last successfully fetched event list per provider.
// It is an offline display fallback only, never a source of truth.
type EventCache interface {
	StoreEvents(ctx context.Context, userId int, p Type, events []CalendarEvent) error
	LoadEvents(ctx context.Context, userId int, p Type) ([]CalendarEvent, error)
}
