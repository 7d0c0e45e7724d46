package google

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sachamoyne/Contactly/pkg/credentials"
	"github.com/Sachamoyne/Contactly/pkg/profile"
	"github.com/Sachamoyne/Contactly/pkg/provider"
	"github.com/stretchr/testify/assert"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const eventsPayload = `{"items":[
	{"id":"g1","summary":"Standup","start":{"dateTime":"2026-03-02T10:00:00Z"},"end":{"dateTime":"2026-03-02T10:30:00Z"}}
]}`

type clientFixture struct {
	client     *Client
	creds      *credentials.StubStore
	ctx        context.Context
	tokenHits  *atomic.Int32
	calendarFn func(w http.ResponseWriter, r *http.Request)
}

func setupClientTest(t *testing.T) *clientFixture {
	t.Helper()

	f := &clientFixture{
		creds:     credentials.NewStubStore(),
		ctx:       profile.WithUser(context.Background(), profile.User{Id: 1, Uid: "test-user"}),
		tokenHits: &atomic.Int32{},
	}

	calendarServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calendarFn(w, r)
	}))
	t.Cleanup(calendarServer.Close)

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.tokenHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"refreshed-token","token_type":"Bearer","refresh_token":"new-refresh","expires_in":3600}`))
	}))
	t.Cleanup(tokenServer.Close)

	f.client = &Client{
		creds: f.creds,
		oauthConfig: &oauth2.Config{
			ClientID:     "test-client.apps.googleusercontent.com",
			ClientSecret: "secret",
			Endpoint:     oauth2.Endpoint{TokenURL: tokenServer.URL},
		},
		serviceOptions: []option.ClientOption{option.WithEndpoint(calendarServer.URL)},
	}
	return f
}

func respondEvents(status int, body string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestClientFetchEventsInWindow(t *testing.T) {
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	t.Run("returns ErrNotSignedIn without stored credentials", func(t *testing.T) {
		f := setupClientTest(t)
		f.calendarFn = respondEvents(http.StatusOK, eventsPayload)

		_, err := f.client.FetchEventsInWindow(f.ctx, from, to)

		assert.ErrorIs(t, err, provider.ErrNotSignedIn)
		assert.Zero(t, f.tokenHits.Load())
	})

	t.Run("fetches events with a valid access token", func(t *testing.T) {
		f := setupClientTest(t)
		var seenAuth string
		f.calendarFn = func(w http.ResponseWriter, r *http.Request) {
			seenAuth = r.Header.Get("Authorization")
			respondEvents(http.StatusOK, eventsPayload)(w, r)
		}
		saveCred(t, f, credentials.Credential{AccessToken: "valid-token", Expiry: time.Now().Add(time.Hour)})

		events, err := f.client.FetchEventsInWindow(f.ctx, from, to)

		assert.NoError(t, err)
		assert.Len(t, events, 1)
		assert.Equal(t, "Standup", events[0].Title)
		assert.Equal(t, "Bearer valid-token", seenAuth)
		assert.Zero(t, f.tokenHits.Load())
	})

	t.Run("silently refreshes an expired token before the request", func(t *testing.T) {
		f := setupClientTest(t)
		var seenAuth string
		f.calendarFn = func(w http.ResponseWriter, r *http.Request) {
			seenAuth = r.Header.Get("Authorization")
			respondEvents(http.StatusOK, eventsPayload)(w, r)
		}
		saveCred(t, f, credentials.Credential{
			AccessToken:  "stale-token",
			RefreshToken: "refresh-token",
			Expiry:       time.Now().Add(-time.Minute),
		})

		events, err := f.client.FetchEventsInWindow(f.ctx, from, to)

		assert.NoError(t, err)
		assert.Len(t, events, 1)
		assert.Equal(t, "Bearer refreshed-token", seenAuth)
		assert.Equal(t, int32(1), f.tokenHits.Load())

		stored, err := f.creds.Read(f.ctx, 1, provider.TypeGoogle)
		assert.NoError(t, err)
		assert.Equal(t, "refreshed-token", stored.AccessToken)
		assert.Equal(t, "new-refresh", stored.RefreshToken)
	})

	t.Run("retries exactly once after a 401", func(t *testing.T) {
		f := setupClientTest(t)
		var calendarHits atomic.Int32
		f.calendarFn = func(w http.ResponseWriter, r *http.Request) {
			if calendarHits.Add(1) == 1 {
				respondEvents(http.StatusUnauthorized, `{"error":{"code":401}}`)(w, r)
				return
			}
			respondEvents(http.StatusOK, eventsPayload)(w, r)
		}
		saveCred(t, f, credentials.Credential{
			AccessToken:  "revoked-token",
			RefreshToken: "refresh-token",
			Expiry:       time.Now().Add(time.Hour),
		})

		events, err := f.client.FetchEventsInWindow(f.ctx, from, to)

		assert.NoError(t, err)
		assert.Len(t, events, 1)
		assert.Equal(t, int32(2), calendarHits.Load())
		assert.Equal(t, int32(1), f.tokenHits.Load())
	})

	t.Run("a persistent 401 surfaces as ErrUnauthorized", func(t *testing.T) {
		f := setupClientTest(t)
		f.calendarFn = respondEvents(http.StatusUnauthorized, `{"error":{"code":401}}`)
		saveCred(t, f, credentials.Credential{
			AccessToken:  "revoked-token",
			RefreshToken: "refresh-token",
			Expiry:       time.Now().Add(time.Hour),
		})

		_, err := f.client.FetchEventsInWindow(f.ctx, from, to)

		assert.ErrorIs(t, err, provider.ErrUnauthorized)
		assert.Equal(t, int32(1), f.tokenHits.Load())
	})

	t.Run("server failures surface as an ApiError", func(t *testing.T) {
		f := setupClientTest(t)
		f.calendarFn = respondEvents(http.StatusInternalServerError, `{"error":{"code":500}}`)
		saveCred(t, f, credentials.Credential{AccessToken: "valid-token", Expiry: time.Now().Add(time.Hour)})

		_, err := f.client.FetchEventsInWindow(f.ctx, from, to)

		var apiErr *provider.ApiError
		assert.True(t, errors.As(err, &apiErr))
		assert.Equal(t, 500, apiErr.StatusCode)
	})
}

func saveCred(t *testing.T, f *clientFixture, cred credentials.Credential) {
	t.Helper()
	assert.NoError(t, f.creds.Save(context.Background(), 1, provider.TypeGoogle, cred))
	f.creds.SaveCalls = 0
}

func TestMapItems(t *testing.T) {
	timed := func(value string) *gcal.EventDateTime {
		return &gcal.EventDateTime{DateTime: value}
	}

	t.Run("drops events without a start time", func(t *testing.T) {
		events := mapItems([]*gcal.Event{
			{Id: "no-start", Summary: "Ghost"},
			{Id: "ok", Summary: "Real", Start: timed("2026-03-02T10:00:00Z"), End: timed("2026-03-02T11:00:00Z")},
		})

		assert.Len(t, events, 1)
		assert.Equal(t, "ok", events[0].ID)
	})

	t.Run("a missing end defaults to one hour after the start", func(t *testing.T) {
		events := mapItems([]*gcal.Event{
			{Id: "open-ended", Summary: "Call", Start: timed("2026-03-02T10:00:00Z")},
		})

		assert.Len(t, events, 1)
		assert.Equal(t, events[0].StartTime.Add(time.Hour), events[0].EndTime)
	})

	t.Run("an empty title gets the default", func(t *testing.T) {
		events := mapItems([]*gcal.Event{
			{Id: "untitled", Summary: "  ", Start: timed("2026-03-02T10:00:00Z"), End: timed("2026-03-02T11:00:00Z")},
		})

		assert.Len(t, events, 1)
		assert.Equal(t, "Meeting", events[0].Title)
	})

	t.Run("all-day dates are accepted", func(t *testing.T) {
		events := mapItems([]*gcal.Event{
			{Id: "all-day", Summary: "Offsite", Start: &gcal.EventDateTime{Date: "2026-03-02"}, End: &gcal.EventDateTime{Date: "2026-03-03"}},
		})

		assert.Len(t, events, 1)
		assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), events[0].StartTime)
	})

	t.Run("attendee emails are normalized", func(t *testing.T) {
		events := mapItems([]*gcal.Event{
			{
				Id:      "with-guests",
				Summary: "Sync",
				Start:   timed("2026-03-02T10:00:00Z"),
				End:     timed("2026-03-02T11:00:00Z"),
				Attendees: []*gcal.EventAttendee{
					{Email: " Anna@Example.com "},
					{Email: "anna@example.com"},
				},
			},
		})

		assert.Len(t, events, 1)
		assert.Equal(t, []string{"anna@example.com"}, events[0].AttendeeEmails)
	})

	t.Run("an event without an id gets a generated one", func(t *testing.T) {
		events := mapItems([]*gcal.Event{
			{Summary: "Anonymous", Start: timed("2026-03-02T10:00:00Z"), End: timed("2026-03-02T11:00:00Z")},
		})

		assert.Len(t, events, 1)
		assert.NotEmpty(t, events[0].ID)
	})
}
