package meeting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sachamoyne/Contactly/internal/event_bus"
	"github.com/Sachamoyne/Contactly/pkg/contact"
	"github.com/Sachamoyne/Contactly/pkg/localstore"
	"github.com/Sachamoyne/Contactly/pkg/manualmeeting"
	"github.com/Sachamoyne/Contactly/pkg/profile"
	"github.com/Sachamoyne/Contactly/pkg/provider"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type serviceFixture struct {
	service     *ServiceImpl
	ctx         context.Context
	google      *provider.StubCloudClient
	outlook     *provider.StubCloudClient
	local       *provider.StubClient
	contactRepo *contact.RepositoryStub
	manualRepo  *manualmeeting.RepositoryStub
}

func setupServiceTest(t *testing.T, providers []provider.Type, profileEmail string) *serviceFixture {
	t.Helper()

	userRepo := profile.NewStubRepository()
	userService := profile.NewService(userRepo)
	user, err := userService.CreateUser(context.Background(), profile.User{
		Uid:         "test-user",
		DisplayName: "Test User",
		Email:       profileEmail,
		Settings: profile.Settings{
			Timezone:          "UTC",
			CalendarProviders: providers,
		},
	})
	assert.NoError(t, err)
	ctx := profile.WithUser(context.Background(), user)

	google := &provider.StubCloudClient{Email: "me@gmail.com"}
	outlook := &provider.StubCloudClient{Email: "me@outlook.com"}
	local := &provider.StubClient{}
	clients := map[provider.Type]provider.Client{
		provider.TypeGoogle:  google,
		provider.TypeOutlook: outlook,
		provider.TypeLocal:   local,
	}

	contactRepo := contact.NewRepositoryStub()
	manualRepo := manualmeeting.NewRepositoryStub()
	service := NewService(clients, userService, contact.NewService(contactRepo), manualRepo)

	return &serviceFixture{
		service:     service,
		ctx:         ctx,
		google:      google,
		outlook:     outlook,
		local:       local,
		contactRepo: contactRepo,
		manualRepo:  manualRepo,
	}
}

func meetingEvent(id string, title string, start time.Time, attendees ...string) provider.SyncedEvent {
	return provider.SyncedEvent{
		ID:             id,
		Title:          title,
		StartTime:      start,
		EndTime:        start.Add(time.Hour),
		AttendeeEmails: attendees,
	}
}

func TestSyncMeetingEvents(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	start := date.Add(10 * time.Hour)

	t.Run("no active providers yields an empty list", func(t *testing.T) {
		f := setupServiceTest(t, nil, "me@example.com")

		meetings, err := f.service.SyncMeetingEvents(f.ctx, date)

		assert.NoError(t, err)
		assert.Empty(t, meetings)
		assert.Zero(t, f.google.FetchCalls)
	})

	t.Run("merges events across providers", func(t *testing.T) {
		f := setupServiceTest(t, []provider.Type{provider.TypeLocal, provider.TypeGoogle}, "me@gmail.com")
		f.local.Events = []provider.SyncedEvent{
			meetingEvent("l1", "Lunch", start.Add(2*time.Hour), "me@gmail.com", "anna@example.com"),
		}
		f.google.Events = []provider.SyncedEvent{
			meetingEvent("g1", "Standup", start, "me@gmail.com", "bob@example.com"),
		}

		meetings, err := f.service.SyncMeetingEvents(f.ctx, date)

		assert.NoError(t, err)
		assert.Len(t, meetings, 2)
		assert.Equal(t, "Standup", meetings[0].Title)
		assert.Equal(t, "Lunch", meetings[1].Title)
	})

	t.Run("deduplicates same title and start across providers", func(t *testing.T) {
		f := setupServiceTest(t, []provider.Type{provider.TypeGoogle, provider.TypeOutlook}, "")
		f.google.Events = []provider.SyncedEvent{
			meetingEvent("g1", "Standup", start, "me@gmail.com", "anna@example.com"),
		}
		f.outlook.Events = []provider.SyncedEvent{
			meetingEvent("o1", "standup", start, "me@gmail.com", "anna@example.com"),
		}

		meetings, err := f.service.SyncMeetingEvents(f.ctx, date)

		assert.NoError(t, err)
		assert.Len(t, meetings, 1)
	})

	t.Run("skips providers that need sign in", func(t *testing.T) {
		f := setupServiceTest(t, []provider.Type{provider.TypeGoogle, provider.TypeOutlook}, "")
		f.google.Err = provider.ErrNotSignedIn
		f.outlook.Events = []provider.SyncedEvent{
			meetingEvent("o1", "Planning", start, "me@outlook.com", "anna@example.com"),
		}

		meetings, err := f.service.SyncMeetingEvents(f.ctx, date)

		assert.NoError(t, err)
		assert.Len(t, meetings, 1)
		assert.Equal(t, "Planning", meetings[0].Title)
	})

	t.Run("propagates non-auth provider failures", func(t *testing.T) {
		f := setupServiceTest(t, []provider.Type{provider.TypeGoogle}, "")
		f.google.Err = &provider.ApiError{StatusCode: 500}

		_, err := f.service.SyncMeetingEvents(f.ctx, date)

		assert.Error(t, err)
		var apiErr *provider.ApiError
		assert.True(t, errors.As(err, &apiErr))
	})

	t.Run("all providers signed out yields an empty list", func(t *testing.T) {
		f := setupServiceTest(t, []provider.Type{provider.TypeGoogle, provider.TypeOutlook}, "")
		f.google.Err = provider.ErrNotSignedIn
		f.outlook.Err = provider.ErrUnauthorized

		meetings, err := f.service.SyncMeetingEvents(f.ctx, date)

		assert.NoError(t, err)
		assert.Empty(t, meetings)
	})

	t.Run("denied local permission and signed out cloud yield an empty list", func(t *testing.T) {
		f := setupServiceTest(t, []provider.Type{provider.TypeLocal, provider.TypeGoogle}, "me@example.com")
		localService := localstore.NewService(localstore.NewRepositoryStub(), event_bus.NewEventBus())
		assert.NoError(t, localService.SetPermission(f.ctx, localstore.PermissionDenied))
		f.service.clients[provider.TypeLocal] = localService
		f.google.Err = provider.ErrNotSignedIn

		meetings, err := f.service.SyncMeetingEvents(f.ctx, date)

		assert.NoError(t, err)
		assert.Empty(t, meetings)
	})

	t.Run("cloud account email takes priority over profile email", func(t *testing.T) {
		f := setupServiceTest(t, []provider.Type{provider.TypeGoogle}, "profile@example.com")
		// only the google account address must be stripped from attendees
		f.google.Events = []provider.SyncedEvent{
			meetingEvent("g1", "Review", start, "me@gmail.com", "profile@example.com"),
		}

		meetings, err := f.service.SyncMeetingEvents(f.ctx, date)

		assert.NoError(t, err)
		assert.Len(t, meetings, 1)
		assert.Equal(t, []string{"profile@example.com"}, meetings[0].AttendeeEmails)
	})

	t.Run("falls back to profile email when no cloud provider is active", func(t *testing.T) {
		f := setupServiceTest(t, []provider.Type{provider.TypeLocal}, "me@example.com")
		f.local.Events = []provider.SyncedEvent{
			meetingEvent("l1", "Coffee", start, "me@example.com", "anna@example.com"),
		}

		meetings, err := f.service.SyncMeetingEvents(f.ctx, date)

		assert.NoError(t, err)
		assert.Len(t, meetings, 1)
		assert.Equal(t, []string{"anna@example.com"}, meetings[0].AttendeeEmails)
	})

	t.Run("links attendees to contacts", func(t *testing.T) {
		f := setupServiceTest(t, []provider.Type{provider.TypeGoogle}, "")
		created, err := f.service.contactService.Create(f.ctx, contact.Contact{FirstName: "Anna", Email: "anna@example.com"})
		assert.NoError(t, err)
		f.google.Events = []provider.SyncedEvent{
			meetingEvent("g1", "Sync", start, "me@gmail.com", "anna@example.com"),
		}

		meetings, err := f.service.SyncMeetingEvents(f.ctx, date)

		assert.NoError(t, err)
		assert.Len(t, meetings, 1)
		assert.NotNil(t, meetings[0].LinkedContact)
		assert.Equal(t, created.ID, meetings[0].LinkedContact.ID)
	})
}

func TestManualMeetings(t *testing.T) {
	t.Run("add and read back by contact", func(t *testing.T) {
		f := setupServiceTest(t, nil, "")
		created, err := f.service.contactService.Create(f.ctx, contact.Contact{FirstName: "Anna", Email: "anna@example.com"})
		assert.NoError(t, err)

		meeting, err := f.service.AddManualMeeting(f.ctx, manualmeeting.ManualMeeting{
			ContactID: created.ID,
			Date:      time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC),
			Occasion:  "Dinner",
		})
		assert.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, meeting.ID)

		meetings, err := f.service.ManualMeetings(f.ctx, created.ID)
		assert.NoError(t, err)
		assert.Len(t, meetings, 1)
		assert.Equal(t, "Dinner", meetings[0].Occasion)
	})

	t.Run("rejects meetings with an unknown contact", func(t *testing.T) {
		f := setupServiceTest(t, nil, "")

		_, err := f.service.AddManualMeeting(f.ctx, manualmeeting.ManualMeeting{
			ContactID: uuid.New(),
			Date:      time.Now(),
		})

		assert.Error(t, err)
	})

	t.Run("resolves the contact behind a meeting", func(t *testing.T) {
		f := setupServiceTest(t, nil, "")
		created, err := f.service.contactService.Create(f.ctx, contact.Contact{FirstName: "Bob", Email: "bob@example.com"})
		assert.NoError(t, err)
		meeting, err := f.service.AddManualMeeting(f.ctx, manualmeeting.ManualMeeting{
			ContactID: created.ID,
			Date:      time.Now(),
		})
		assert.NoError(t, err)

		found, err := f.service.ContactForMeeting(f.ctx, meeting.ID)

		assert.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
	})
}
