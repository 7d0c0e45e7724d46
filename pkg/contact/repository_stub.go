package contact

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// RepositoryStub is an in-memory Repository for tests.
type RepositoryStub struct {
	mu       sync.Mutex
	contacts map[uuid.UUID]Contact
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{contacts: make(map[uuid.UUID]Contact)}
}

func (r *RepositoryStub) Store(_ context.Context, _ int, contact Contact) (Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if contact.ID == uuid.Nil {
		contact.ID = uuid.New()
	}
	r.contacts[contact.ID] = contact
	return contact, nil
}

func (r *RepositoryStub) Update(_ context.Context, _ int, contact Contact) (Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contacts[contact.ID]; !ok {
		return Contact{}, ErrContactNotFound
	}
	r.contacts[contact.ID] = contact
	return contact, nil
}

func (r *RepositoryStub) Delete(_ context.Context, _ int, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.contacts, id)
	return nil
}

func (r *RepositoryStub) FindById(_ context.Context, _ int, id uuid.UUID) (Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	contact, ok := r.contacts[id]
	if !ok {
		return Contact{}, ErrContactNotFound
	}
	return contact, nil
}

func (r *RepositoryStub) FindAll(_ context.Context, _ int) ([]Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	contacts := make([]Contact, 0, len(r.contacts))
	for _, contact := range r.contacts {
		contacts = append(contacts, contact)
	}
	return contacts, nil
}
