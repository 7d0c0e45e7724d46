package provider

import (
	"context"
	"time"
)

// StubClient is an in-memory Client for tests.
type StubClient struct {
	Events     []SyncedEvent
	Err        error
	FetchCalls int
}

func (s *StubClient) FetchEventsInWindow(_ context.Context, _ time.Time, _ time.Time) ([]SyncedEvent, error) {
	s.FetchCalls++
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Events, nil
}

// StubCloudClient extends StubClient with a fixed account email.
type StubCloudClient struct {
	StubClient
	Email        string
	SignedOut    bool
	SignOutCalls int
}

func (s *StubCloudClient) AccountEmail(_ context.Context) (string, error) {
	if s.SignedOut {
		return "", nil
	}
	return s.Email, nil
}

func (s *StubCloudClient) SignOut(_ context.Context) error {
	s.SignedOut = true
	s.SignOutCalls++
	return nil
}
