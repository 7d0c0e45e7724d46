package aggregator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sachamoyne/Contactly/internal/utils"
	"github.com/Sachamoyne/Contactly/pkg/profile"
	"github.com/Sachamoyne/Contactly/pkg/provider"
	log "github.com/sirupsen/logrus"
)

const todayWindow = 24 * time.Hour

type Service interface {
	// FetchTodayEvents builds the unified timeline for the next 24 hours
	// across all of the user's active providers. A failing provider is
	// skipped, its message lands in LastError and the remaining providers
	// still contribute.
	FetchTodayEvents(ctx context.Context) ([]provider.CalendarEvent, error)
	FetchEventsInWindow(ctx context.Context, from time.Time, to time.Time) ([]provider.CalendarEvent, error)
	LastEvents(ctx context.Context) ([]provider.CalendarEvent, error)
	LastError(ctx context.Context) (string, error)
	CachedEvents(ctx context.Context) ([]provider.CalendarEvent, error)
}

type ServiceImpl struct {
	clients     map[provider.Type]provider.Client
	userService profile.Service
	cache       provider.EventCache
	clock       utils.Clock

	mu         sync.RWMutex
	lastEvents map[int][]provider.CalendarEvent
	lastError  map[int]string
}

func NewService(clients map[provider.Type]provider.Client, userService profile.Service, cache provider.EventCache, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{
		clients:     clients,
		userService: userService,
		cache:       cache,
		clock:       clock,
		lastEvents:  make(map[int][]provider.CalendarEvent),
		lastError:   make(map[int]string),
	}
}

func (s *ServiceImpl) FetchTodayEvents(ctx context.Context) ([]provider.CalendarEvent, error) {
	now := s.clock.Now()
	return s.FetchEventsInWindow(ctx, now, now.Add(todayWindow))
}

func (s *ServiceImpl) FetchEventsInWindow(ctx context.Context, from time.Time, to time.Time) ([]provider.CalendarEvent, error) {
	userId, err := profile.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	active, err := s.userService.ActiveCalendarProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve active calendar providers: %w", err)
	}

	merged := make([]provider.CalendarEvent, 0)
	errorMessage := ""
	for _, providerType := range active {
		client, ok := s.clients[providerType]
		if !ok {
			log.Warnf("no client registered for calendar provider %s", providerType)
			continue
		}
		events, err := client.FetchEventsInWindow(ctx, from, to)
		if err != nil {
			log.Warnf("calendar provider %s failed for user %d: %v", providerType, userId, err)
			errorMessage = err.Error()
			continue
		}
		for _, event := range events {
			merged = append(merged, event.CalendarEvent())
		}
	}

	merged = provider.DedupedAndSorted(merged,
		func(e provider.CalendarEvent) string { return e.Title },
		func(e provider.CalendarEvent) time.Time { return e.StartTime })

	s.mu.Lock()
	s.lastEvents[userId] = merged
	s.lastError[userId] = errorMessage
	s.mu.Unlock()

	return merged, nil
}

// LastEvents returns the result of the most recent fetch without touching
// any provider.
func (s *ServiceImpl) LastEvents(ctx context.Context) ([]provider.CalendarEvent, error) {
	userId, err := profile.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	events, ok := s.lastEvents[userId]
	if !ok {
		return []provider.CalendarEvent{}, nil
	}
	return events, nil
}

// LastError returns the message of the provider failure observed during the
// most recent fetch, empty when every provider succeeded. When several
// providers fail the last one wins.
func (s *ServiceImpl) LastError(ctx context.Context) (string, error) {
	userId, err := profile.CurrentId(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get current user: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError[userId], nil
}

// CachedEvents merges the last persisted snapshots of all active cloud
// providers. Used when live fetching is not possible.
func (s *ServiceImpl) CachedEvents(ctx context.Context) ([]provider.CalendarEvent, error) {
	userId, err := profile.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if s.cache == nil {
		return []provider.CalendarEvent{}, nil
	}

	active, err := s.userService.ActiveCalendarProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve active calendar providers: %w", err)
	}

	merged := make([]provider.CalendarEvent, 0)
	for _, providerType := range active {
		events, err := s.cache.LoadEvents(ctx, userId, providerType)
		if err != nil {
			log.Warnf("failed to load cached events for provider %s: %v", providerType, err)
			continue
		}
		merged = append(merged, events...)
	}

	return provider.DedupedAndSorted(merged,
		func(e provider.CalendarEvent) string { return e.Title },
		func(e provider.CalendarEvent) time.Time { return e.StartTime }), nil
}
