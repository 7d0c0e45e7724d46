package outlook

import (
	"context"
	"encoding/json"
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
)

const eventsPayload = `{"value":[
	{"id":"o1","subject":"Standup",
	 "start":{"dateTime":"2026-03-02T10:00:00.0000000","timeZone":"UTC"},
	 "end":{"dateTime":"2026-03-02T10:30:00.0000000","timeZone":"UTC"}}
]}`

type clientFixture struct {
	client    *Client
	creds     *credentials.StubStore
	ctx       context.Context
	tokenHits *atomic.Int32
	graphFn   func(w http.ResponseWriter, r *http.Request)
}

func setupClientTest(t *testing.T) *clientFixture {
	t.Helper()

	f := &clientFixture{
		creds:     credentials.NewStubStore(),
		ctx:       profile.WithUser(context.Background(), profile.User{Id: 1, Uid: "test-user"}),
		tokenHits: &atomic.Int32{},
	}

	graphServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.graphFn(w, r)
	}))
	t.Cleanup(graphServer.Close)

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.tokenHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"refreshed-token","token_type":"Bearer","refresh_token":"new-refresh","expires_in":3600}`))
	}))
	t.Cleanup(tokenServer.Close)

	f.client = &Client{
		creds: f.creds,
		oauthConfig: &oauth2.Config{
			ClientID:     "5a0f2c4e-8f30-4d4e-9f2a-111111111111",
			ClientSecret: "secret",
			Endpoint:     oauth2.Endpoint{TokenURL: tokenServer.URL},
		},
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    graphServer.URL,
	}
	return f
}

func respondJSON(status int, body string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func saveCred(t *testing.T, f *clientFixture, cred credentials.Credential) {
	t.Helper()
	assert.NoError(t, f.creds.Save(context.Background(), 1, provider.TypeOutlook, cred))
}

func TestClientFetchEventsInWindow(t *testing.T) {
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	t.Run("returns ErrNotSignedIn without stored credentials", func(t *testing.T) {
		f := setupClientTest(t)
		f.graphFn = respondJSON(http.StatusOK, eventsPayload)

		_, err := f.client.FetchEventsInWindow(f.ctx, from, to)

		assert.ErrorIs(t, err, provider.ErrNotSignedIn)
		assert.Zero(t, f.tokenHits.Load())
	})

	t.Run("queries the events endpoint with window and paging parameters", func(t *testing.T) {
		f := setupClientTest(t)
		var seen *http.Request
		f.graphFn = func(w http.ResponseWriter, r *http.Request) {
			seen = r.Clone(context.Background())
			respondJSON(http.StatusOK, eventsPayload)(w, r)
		}
		saveCred(t, f, credentials.Credential{AccessToken: "valid-token", Expiry: time.Now().Add(time.Hour)})

		events, err := f.client.FetchEventsInWindow(f.ctx, from, to)

		assert.NoError(t, err)
		assert.Len(t, events, 1)
		assert.Equal(t, "Standup", events[0].Title)

		assert.Equal(t, "/me/events", seen.URL.Path)
		assert.Equal(t, "Bearer valid-token", seen.Header.Get("Authorization"))
		assert.Equal(t, `outlook.timezone="UTC"`, seen.Header.Get("Prefer"))
		query := seen.URL.Query()
		assert.Equal(t, "id,subject,location,start,end,attendees", query.Get("$select"))
		assert.Equal(t, "start/dateTime", query.Get("$orderby"))
		assert.Equal(t, "250", query.Get("$top"))
		assert.Equal(t, "start/dateTime ge '2026-03-02T00:00:00' and start/dateTime lt '2026-03-03T00:00:00'", query.Get("$filter"))
	})

	t.Run("silently refreshes an expired token before the request", func(t *testing.T) {
		f := setupClientTest(t)
		var seenAuth string
		f.graphFn = func(w http.ResponseWriter, r *http.Request) {
			seenAuth = r.Header.Get("Authorization")
			respondJSON(http.StatusOK, eventsPayload)(w, r)
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

		stored, err := f.creds.Read(f.ctx, 1, provider.TypeOutlook)
		assert.NoError(t, err)
		assert.Equal(t, "refreshed-token", stored.AccessToken)
		assert.Equal(t, "new-refresh", stored.RefreshToken)
	})

	t.Run("retries exactly once after a 401", func(t *testing.T) {
		f := setupClientTest(t)
		var graphHits atomic.Int32
		f.graphFn = func(w http.ResponseWriter, r *http.Request) {
			if graphHits.Add(1) == 1 {
				respondJSON(http.StatusUnauthorized, `{"error":{"code":"InvalidAuthenticationToken"}}`)(w, r)
				return
			}
			respondJSON(http.StatusOK, eventsPayload)(w, r)
		}
		saveCred(t, f, credentials.Credential{
			AccessToken:  "revoked-token",
			RefreshToken: "refresh-token",
			Expiry:       time.Now().Add(time.Hour),
		})

		events, err := f.client.FetchEventsInWindow(f.ctx, from, to)

		assert.NoError(t, err)
		assert.Len(t, events, 1)
		assert.Equal(t, int32(2), graphHits.Load())
		assert.Equal(t, int32(1), f.tokenHits.Load())
	})

	t.Run("a persistent 401 surfaces as ErrUnauthorized", func(t *testing.T) {
		f := setupClientTest(t)
		f.graphFn = respondJSON(http.StatusUnauthorized, `{"error":{"code":"InvalidAuthenticationToken"}}`)
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
		f.graphFn = respondJSON(http.StatusServiceUnavailable, `{"error":{"code":"ServiceUnavailable"}}`)
		saveCred(t, f, credentials.Credential{AccessToken: "valid-token", Expiry: time.Now().Add(time.Hour)})

		_, err := f.client.FetchEventsInWindow(f.ctx, from, to)

		var apiErr *provider.ApiError
		assert.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	})
}

func TestParseGraphTime(t *testing.T) {
	t.Run("parses fractional seconds", func(t *testing.T) {
		parsed, ok := parseGraphTime(graphDateTime{DateTime: "2026-03-02T10:00:00.1234567", TimeZone: "UTC"})

		assert.True(t, ok)
		assert.Equal(t, 2026, parsed.Year())
		assert.Equal(t, 10, parsed.Hour())
	})

	t.Run("honors a named time zone", func(t *testing.T) {
		parsed, ok := parseGraphTime(graphDateTime{DateTime: "2026-03-02T10:00:00", TimeZone: "Europe/Warsaw"})

		assert.True(t, ok)
		assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), parsed.UTC())
	})

	t.Run("an unknown zone falls back to UTC", func(t *testing.T) {
		parsed, ok := parseGraphTime(graphDateTime{DateTime: "2026-03-02T10:00:00", TimeZone: "Not/AZone"})

		assert.True(t, ok)
		assert.Equal(t, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), parsed.UTC())
	})

	t.Run("accepts RFC3339 values", func(t *testing.T) {
		parsed, ok := parseGraphTime(graphDateTime{DateTime: "2026-03-02T10:00:00+01:00"})

		assert.True(t, ok)
		assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), parsed.UTC())
	})

	t.Run("rejects an empty value", func(t *testing.T) {
		_, ok := parseGraphTime(graphDateTime{})

		assert.False(t, ok)
	})
}

func TestMapItems(t *testing.T) {
	timed := func(value string) graphDateTime {
		return graphDateTime{DateTime: value, TimeZone: "UTC"}
	}

	t.Run("drops events without a start time", func(t *testing.T) {
		events := mapItems([]graphEvent{
			{Id: "no-start", Subject: "Ghost"},
			{Id: "ok", Subject: "Real", Start: timed("2026-03-02T10:00:00"), End: timed("2026-03-02T11:00:00")},
		})

		assert.Len(t, events, 1)
		assert.Equal(t, "ok", events[0].ID)
	})

	t.Run("a missing end defaults to one hour after the start", func(t *testing.T) {
		events := mapItems([]graphEvent{
			{Id: "open-ended", Subject: "Call", Start: timed("2026-03-02T10:00:00")},
		})

		assert.Len(t, events, 1)
		assert.Equal(t, events[0].StartTime.Add(time.Hour), events[0].EndTime)
	})

	t.Run("an empty subject gets the default title", func(t *testing.T) {
		events := mapItems([]graphEvent{
			{Id: "untitled", Subject: "  ", Start: timed("2026-03-02T10:00:00"), End: timed("2026-03-02T11:00:00")},
		})

		assert.Len(t, events, 1)
		assert.Equal(t, "Meeting", events[0].Title)
	})

	t.Run("attendee emails are normalized", func(t *testing.T) {
		var event graphEvent
		err := json.Unmarshal([]byte(`{
			"id":"with-guests","subject":"Sync",
			"start":{"dateTime":"2026-03-02T10:00:00","timeZone":"UTC"},
			"end":{"dateTime":"2026-03-02T11:00:00","timeZone":"UTC"},
			"attendees":[
				{"emailAddress":{"address":" Anna@Example.com ","name":"Anna"}},
				{"emailAddress":{"address":"anna@example.com","name":"Anna"}}
			]
		}`), &event)
		assert.NoError(t, err)

		events := mapItems([]graphEvent{event})

		assert.Len(t, events, 1)
		assert.Equal(t, []string{"anna@example.com"}, events[0].AttendeeEmails)
	})
}
