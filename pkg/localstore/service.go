package localstore

import (
	"context"
	"fmt"
	"time"

	"github.com/Sachamoyne/Contactly/internal/event_bus"
	"github.com/Sachamoyne/Contactly/pkg/profile"
	"github.com/Sachamoyne/Contactly/pkg/provider"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Service is the local-store provider client. Access is permission-gated:
// without a granted permission fetches return an empty list, not an error.
type Service struct {
	repo Repository
	bus  *event_bus.EventBus
}

func NewService(repo Repository, bus *event_bus.EventBus) *Service {
	return &Service{repo: repo, bus: bus}
}

func (s *Service) FetchEventsInWindow(ctx context.Context, from time.Time, to time.Time) ([]provider.SyncedEvent, error) {
	userId, err := profile.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	permission, err := s.repo.GetPermission(ctx, userId)
	if err != nil || permission != PermissionGranted {
		log.Debugf("local calendar access not granted for user %d (%s)", userId, permission)
		return []provider.SyncedEvent{}, nil
	}

	events, err := s.repo.FindEvents(ctx, userId, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch local events: %w", err)
	}

	synced := make([]provider.SyncedEvent, 0, len(events))
	for _, event := range events {
		synced = append(synced, toSyncedEvent(event))
	}
	return synced, nil
}

// Permission returns the current user's tri-state access status.
func (s *Service) Permission(ctx context.Context) (Permission, error) {
	userId, err := profile.CurrentId(ctx)
	if err != nil {
		return PermissionNotDetermined, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.GetPermission(ctx, userId)
}

// RequestAccess asks for local calendar access. Granting is modeled as an
// explicit user decision; a previously denied state stays denied until the
// user flips it through SetPermission.
func (s *Service) RequestAccess(ctx context.Context) (bool, error) {
	userId, err := profile.CurrentId(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get current user: %w", err)
	}
	permission, err := s.repo.GetPermission(ctx, userId)
	if err != nil {
		return false, err
	}
	if permission == PermissionDenied {
		return false, nil
	}
	if err := s.repo.SetPermission(ctx, userId, PermissionGranted); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) SetPermission(ctx context.Context, permission Permission) error {
	userId, err := profile.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.SetPermission(ctx, userId, permission)
}

func (s *Service) AddEvent(ctx context.Context, event Event) (Event, error) {
	userId, err := profile.CurrentId(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("failed to get current user: %w", err)
	}
	event.AttendeeEmails = provider.NormalizeEmails(event.AttendeeEmails)
	stored, err := s.repo.StoreEvent(ctx, userId, event)
	if err != nil {
		return Event{}, err
	}
	s.notifyChanged(ctx, userId)
	return stored, nil
}

func (s *Service) UpdateEvent(ctx context.Context, event Event) (Event, error) {
	userId, err := profile.CurrentId(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("failed to get current user: %w", err)
	}
	event.AttendeeEmails = provider.NormalizeEmails(event.AttendeeEmails)
	updated, err := s.repo.UpdateEvent(ctx, userId, event)
	if err != nil {
		return Event{}, err
	}
	s.notifyChanged(ctx, userId)
	return updated, nil
}

func (s *Service) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	userId, err := profile.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	if err := s.repo.DeleteEvent(ctx, userId, id); err != nil {
		return err
	}
	s.notifyChanged(ctx, userId)
	return nil
}

func (s *Service) GetEvents(ctx context.Context, from time.Time, to time.Time) ([]Event, error) {
	userId, err := profile.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.FindEvents(ctx, userId, from, to)
}

func (s *Service) notifyChanged(ctx context.Context, userId int) {
	if s.bus == nil {
		return
	}
	err := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.LocalCalendarChangedEvent, event_bus.LocalCalendarChanged{UserId: userId}))
	if err != nil {
		log.Errorf("failed to publish local calendar change: %v", err)
	}
}

func toSyncedEvent(event Event) provider.SyncedEvent {
	return provider.SyncedEvent{
		ID:             event.ID.String(),
		Title:          event.Title,
		StartTime:      event.StartTime,
		EndTime:        event.EndTime,
		Location:       event.Location,
		AttendeeEmails: provider.NormalizeEmails(event.AttendeeEmails),
	}
}
