package credentials

import (
	"context"
	"sync"

	"github.com/Sachamoyne/Contactly/pkg/provider"
)

type stubKey struct {
	userId int
	p      provider.Type
}

// StubStore is an in-memory Store for tests.
type StubStore struct {
	mu    sync.Mutex
	creds map[stubKey]Credential

	SaveCalls  int
	ClearCalls int
}

func NewStubStore() *StubStore {
	return &StubStore{creds: make(map[stubKey]Credential)}
}

func (s *StubStore) Save(_ context.Context, userId int, p provider.Type, cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SaveCalls++
	s.creds[stubKey{userId, p}] = cred
	return nil
}

func (s *StubStore) Read(_ context.Context, userId int, p provider.Type) (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[stubKey{userId, p}]
	if !ok {
		return nil, nil
	}
	return &cred, nil
}

func (s *StubStore) Clear(_ context.Context, userId int, p provider.Type) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ClearCalls++
	delete(s.creds, stubKey{userId, p})
	return nil
}
