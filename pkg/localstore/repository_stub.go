package localstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RepositoryStub is an in-memory Repository for tests.
type RepositoryStub struct {
	mu          sync.Mutex
	events      map[uuid.UUID]Event
	permissions map[int]Permission
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		events:      make(map[uuid.UUID]Event),
		permissions: make(map[int]Permission),
	}
}

func (r *RepositoryStub) StoreEvent(_ context.Context, _ int, event Event) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	r.events[event.ID] = event
	return event, nil
}

func (r *RepositoryStub) UpdateEvent(_ context.Context, _ int, event Event) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[event.ID]; !ok {
		return Event{}, ErrEventNotFound
	}
	r.events[event.ID] = event
	return event, nil
}

func (r *RepositoryStub) DeleteEvent(_ context.Context, _ int, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.events, id)
	return nil
}

func (r *RepositoryStub) FindEvents(_ context.Context, _ int, from time.Time, to time.Time) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]Event, 0)
	for _, event := range r.events {
		if !event.StartTime.Before(from) && event.StartTime.Before(to) {
			events = append(events, event)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].StartTime.Before(events[j].StartTime) })
	return events, nil
}

func (r *RepositoryStub) FindAllEvents(_ context.Context, _ int) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]Event, 0, len(r.events))
	for _, event := range r.events {
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].StartTime.Before(events[j].StartTime) })
	return events, nil
}

func (r *RepositoryStub) GetPermission(_ context.Context, userId int) (Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	permission, ok := r.permissions[userId]
	if !ok {
		return PermissionNotDetermined, nil
	}
	return permission, nil
}

func (r *RepositoryStub) SetPermission(_ context.Context, userId int, permission Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.permissions[userId] = permission
	return nil
}
