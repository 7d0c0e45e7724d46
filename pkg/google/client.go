package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sachamoyne/Contactly/internal/config"
	"github.com/Sachamoyne/Contactly/pkg/credentials"
	"github.com/Sachamoyne/Contactly/pkg/profile"
	"github.com/Sachamoyne/Contactly/pkg/provider"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	maxResults     = 250
	defaultTitle   = "Meeting"
	eventFields    = "items(id,summary,location,start,end,attendees(email,self))"
	dateOnlyLayout = "2006-01-02"
)

// Client reads the signed-in user's primary Google calendar. Tokens come from
// the credential store; an expired access token is refreshed silently before
// the request, and a 401 response triggers exactly one forced refresh and
// retry before the caller sees ErrUnauthorized.
type Client struct {
	creds       credentials.Store
	cache       provider.EventCache
	oauthConfig *oauth2.Config

	// extra options appended when building the Calendar service, so tests can
	// point it at a local server
	serviceOptions []option.ClientOption
}

func NewClient(creds credentials.Store, cache provider.EventCache, cfg config.Application) *Client {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.Google.ClientId,
		ClientSecret: cfg.Google.ClientSecret,
		Endpoint:     googleoauth.Endpoint,
		Scopes:       []string{gcal.CalendarReadonlyScope},
	}
	return &Client{creds: creds, cache: cache, oauthConfig: oauthConfig}
}

func (c *Client) FetchEventsInWindow(ctx context.Context, from time.Time, to time.Time) ([]provider.SyncedEvent, error) {
	userId, err := profile.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	cred, err := c.creds.Read(ctx, userId, provider.TypeGoogle)
	if err != nil {
		return nil, err
	}
	if cred == nil || (cred.AccessToken == "" && cred.RefreshToken == "") {
		return nil, provider.ErrNotSignedIn
	}

	accessToken, err := c.validAccessToken(ctx, userId, cred)
	if err != nil {
		return nil, err
	}

	items, err := c.listEvents(ctx, accessToken, from, to)
	if errors.Is(err, provider.ErrUnauthorized) {
		refreshed, refreshErr := c.refreshAccessToken(ctx, userId, cred)
		if refreshErr != nil {
			log.Warnf("Google token refresh after 401 failed for user %d: %v", userId, refreshErr)
			return nil, provider.ErrUnauthorized
		}
		items, err = c.listEvents(ctx, refreshed, from, to)
	}
	if err != nil {
		return nil, err
	}

	events := mapItems(items)
	c.storeInCache(ctx, userId, events)
	return events, nil
}

func (c *Client) AccountEmail(ctx context.Context) (string, error) {
	userId, err := profile.CurrentId(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get current user: %w", err)
	}
	cred, err := c.creds.Read(ctx, userId, provider.TypeGoogle)
	if err != nil || cred == nil {
		return "", err
	}
	return cred.AccountEmail, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	userId, err := profile.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return c.creds.Clear(ctx, userId, provider.TypeGoogle)
}

// validAccessToken returns a usable access token. An expired token is
// refreshed when a refresh token exists; when the refresh fails the cached
// access token is still returned so the request itself can decide.
func (c *Client) validAccessToken(ctx context.Context, userId int, cred *credentials.Credential) (string, error) {
	expired := !cred.Expiry.IsZero() && cred.Expiry.Before(time.Now())
	if expired && cred.RefreshToken != "" {
		refreshed, err := c.refreshAccessToken(ctx, userId, cred)
		if err == nil {
			return refreshed, nil
		}
		log.Warnf("silent Google token refresh failed for user %d: %v", userId, err)
	}
	if cred.AccessToken != "" {
		return cred.AccessToken, nil
	}
	return "", provider.ErrNotSignedIn
}

func (c *Client) refreshAccessToken(ctx context.Context, userId int, cred *credentials.Credential) (string, error) {
	if cred.RefreshToken == "" {
		return "", provider.ErrTokenMissing
	}
	// an expiry in the past forces TokenSource to hit the token endpoint
	source := c.oauthConfig.TokenSource(ctx, &oauth2.Token{
		RefreshToken: cred.RefreshToken,
		Expiry:       time.Now().Add(-time.Hour),
	})
	token, err := source.Token()
	if err != nil {
		return "", fmt.Errorf("unable to refresh Google token: %w", err)
	}
	if token.AccessToken == "" {
		return "", provider.ErrTokenMissing
	}

	refreshToken := token.RefreshToken
	if refreshToken == "" {
		refreshToken = cred.RefreshToken
	}
	cred.AccessToken = token.AccessToken
	cred.RefreshToken = refreshToken
	cred.Expiry = token.Expiry

	err = c.creds.Save(ctx, userId, provider.TypeGoogle, *cred)
	if err != nil {
		log.Errorf("failed to persist refreshed Google token for user %d: %v", userId, err)
	}
	return token.AccessToken, nil
}

func (c *Client) listEvents(ctx context.Context, accessToken string, from time.Time, to time.Time) ([]*gcal.Event, error) {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	options := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, c.serviceOptions...)
	service, err := gcal.NewService(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to build Google Calendar client: %w", err)
	}

	result, err := service.Events.List("primary").
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxResults).
		Fields(googleapi.Field(eventFields)).
		Context(ctx).
		Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			if apiErr.Code == 401 {
				return nil, provider.ErrUnauthorized
			}
			return nil, &provider.ApiError{StatusCode: apiErr.Code}
		}
		return nil, fmt.Errorf("%w: %v", provider.ErrInvalidResponse, err)
	}
	return result.Items, nil
}

func (c *Client) storeInCache(ctx context.Context, userId int, events []provider.SyncedEvent) {
	if c.cache == nil {
		return
	}
	cached := make([]provider.CalendarEvent, 0, len(events))
	for _, event := range events {
		cached = append(cached, event.CalendarEvent())
	}
	if err := c.cache.StoreEvents(ctx, userId, provider.TypeGoogle, cached); err != nil {
		log.Warnf("failed to cache Google events for user %d: %v", userId, err)
	}
}

func mapItems(items []*gcal.Event) []provider.SyncedEvent {
	events := make([]provider.SyncedEvent, 0, len(items))
	for _, item := range items {
		start, ok := parseEventTime(item.Start)
		if !ok {
			log.Debugf("skipping Google event without a start time: %s", item.Id)
			continue
		}
		end, ok := parseEventTime(item.End)
		if !ok {
			end = start.Add(time.Hour)
		}

		title := strings.TrimSpace(item.Summary)
		if title == "" {
			title = defaultTitle
		}
		id := item.Id
		if id == "" {
			id = uuid.New().String()
		}

		attendees := make([]string, 0, len(item.Attendees))
		for _, attendee := range item.Attendees {
			attendees = append(attendees, attendee.Email)
		}

		events = append(events, provider.SyncedEvent{
			ID:             id,
			Title:          title,
			StartTime:      start,
			EndTime:        end,
			Location:       item.Location,
			AttendeeEmails: provider.NormalizeEmails(attendees),
		})
	}
	return events
}

func parseEventTime(t *gcal.EventDateTime) (time.Time, bool) {
	if t == nil {
		return time.Time{}, false
	}
	if t.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, t.DateTime)
		if err == nil {
			return parsed, true
		}
	}
	if t.Date != "" {
		parsed, err := time.Parse(dateOnlyLayout, t.Date)
		if err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
