package localstore

import (
	"context"
	"testing"
	"time"

	"github.com/Sachamoyne/Contactly/internal/event_bus"
	"github.com/Sachamoyne/Contactly/pkg/profile"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func setupLocalServiceTest(t *testing.T) (*Service, *RepositoryStub, context.Context) {
	t.Helper()
	repo := NewRepositoryStub()
	service := NewService(repo, event_bus.NewEventBus())
	ctx := profile.WithUser(context.Background(), profile.User{Id: 1, Uid: "test-user"})
	return service, repo, ctx
}

func localEvent(title string, start time.Time, attendees ...string) Event {
	return Event{
		Title:          title,
		StartTime:      start,
		EndTime:        start.Add(time.Hour),
		AttendeeEmails: attendees,
	}
}

func TestPermissionLifecycle(t *testing.T) {
	t.Run("starts as not determined", func(t *testing.T) {
		service, _, ctx := setupLocalServiceTest(t)

		permission, err := service.Permission(ctx)

		assert.NoError(t, err)
		assert.Equal(t, PermissionNotDetermined, permission)
	})

	t.Run("requesting access grants it", func(t *testing.T) {
		service, _, ctx := setupLocalServiceTest(t)

		granted, err := service.RequestAccess(ctx)

		assert.NoError(t, err)
		assert.True(t, granted)

		permission, err := service.Permission(ctx)
		assert.NoError(t, err)
		assert.Equal(t, PermissionGranted, permission)
	})

	t.Run("a denied permission stays denied on request", func(t *testing.T) {
		service, _, ctx := setupLocalServiceTest(t)
		assert.NoError(t, service.SetPermission(ctx, PermissionDenied))

		granted, err := service.RequestAccess(ctx)

		assert.NoError(t, err)
		assert.False(t, granted)

		permission, err := service.Permission(ctx)
		assert.NoError(t, err)
		assert.Equal(t, PermissionDenied, permission)
	})
}

func TestFetchEventsInWindow(t *testing.T) {
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	t.Run("returns an empty list without granted access", func(t *testing.T) {
		service, _, ctx := setupLocalServiceTest(t)
		_, err := service.AddEvent(ctx, localEvent("Hidden", from.Add(10*time.Hour)))
		assert.NoError(t, err)

		events, err := service.FetchEventsInWindow(ctx, from, to)

		assert.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("returns an empty list when access was denied", func(t *testing.T) {
		service, _, ctx := setupLocalServiceTest(t)
		assert.NoError(t, service.SetPermission(ctx, PermissionDenied))

		events, err := service.FetchEventsInWindow(ctx, from, to)

		assert.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("returns events inside the window once granted", func(t *testing.T) {
		service, _, ctx := setupLocalServiceTest(t)
		assert.NoError(t, service.SetPermission(ctx, PermissionGranted))
		_, err := service.AddEvent(ctx, localEvent("Inside", from.Add(10*time.Hour), " Anna@Example.com ", "anna@example.com"))
		assert.NoError(t, err)
		_, err = service.AddEvent(ctx, localEvent("Outside", to.Add(time.Hour)))
		assert.NoError(t, err)

		events, err := service.FetchEventsInWindow(ctx, from, to)

		assert.NoError(t, err)
		assert.Len(t, events, 1)
		assert.Equal(t, "Inside", events[0].Title)
		// attendees are normalized and deduplicated
		assert.Equal(t, []string{"anna@example.com"}, events[0].AttendeeEmails)
	})
}

func TestEventCRUD(t *testing.T) {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	t.Run("update replaces a stored event", func(t *testing.T) {
		service, _, ctx := setupLocalServiceTest(t)
		created, err := service.AddEvent(ctx, localEvent("Original", start))
		assert.NoError(t, err)

		created.Title = "Renamed"
		updated, err := service.UpdateEvent(ctx, created)

		assert.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Title)
	})

	t.Run("updating a missing event fails", func(t *testing.T) {
		service, _, ctx := setupLocalServiceTest(t)
		event := localEvent("Ghost", start)
		event.ID = uuid.New()

		_, err := service.UpdateEvent(ctx, event)

		assert.ErrorIs(t, err, ErrEventNotFound)
	})

	t.Run("delete removes the event", func(t *testing.T) {
		service, _, ctx := setupLocalServiceTest(t)
		created, err := service.AddEvent(ctx, localEvent("Doomed", start))
		assert.NoError(t, err)

		assert.NoError(t, service.DeleteEvent(ctx, created.ID))

		events, err := service.GetEvents(ctx, start.Add(-time.Hour), start.Add(time.Hour))
		assert.NoError(t, err)
		assert.Empty(t, events)
	})
}
