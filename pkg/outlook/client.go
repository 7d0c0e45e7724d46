package outlook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Sachamoyne/Contactly/internal/config"
	"github.com/Sachamoyne/Contactly/pkg/credentials"
	"github.com/Sachamoyne/Contactly/pkg/profile"
	"github.com/Sachamoyne/Contactly/pkg/provider"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

const (
	defaultBaseURL = "https://graph.microsoft.com/v1.0"
	requestTimeout = 15 * time.Second
	maxResults     = 250
	defaultTitle   = "Meeting"

	// Graph emits local times without a zone offset, the zone travels in a
	// separate field
	graphTimeLayout         = "2006-01-02T15:04:05"
	graphTimeFractionLayout = "2006-01-02T15:04:05.9999999"
)

// Client reads the signed-in user's Outlook calendar through Microsoft Graph.
// Tokens come from the credential store; an expired access token is refreshed
// silently before the request, and a 401 response triggers exactly one forced
// refresh and retry before the caller sees ErrUnauthorized.
type Client struct {
	creds       credentials.Store
	cache       provider.EventCache
	oauthConfig *oauth2.Config
	httpClient  *http.Client

	// overridable so tests can point the client at a local server
	baseURL string
}

func NewClient(creds credentials.Store, cache provider.EventCache, cfg config.Application) *Client {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.Microsoft.ClientId,
		ClientSecret: cfg.Microsoft.ClientSecret,
		Endpoint:     microsoft.AzureADEndpoint("common"),
		Scopes:       []string{"https://graph.microsoft.com/Calendars.Read", "offline_access"},
	}
	return &Client{
		creds:       creds,
		cache:       cache,
		oauthConfig: oauthConfig,
		httpClient:  &http.Client{Timeout: requestTimeout},
		baseURL:     defaultBaseURL,
	}
}

func (c *Client) FetchEventsInWindow(ctx context.Context, from time.Time, to time.Time) ([]provider.SyncedEvent, error) {
	userId, err := profile.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	cred, err := c.creds.Read(ctx, userId, provider.TypeOutlook)
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
			log.Warnf("Outlook token refresh after 401 failed for user %d: %v", userId, refreshErr)
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
	cred, err := c.creds.Read(ctx, userId, provider.TypeOutlook)
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
	return c.creds.Clear(ctx, userId, provider.TypeOutlook)
}

func (c *Client) validAccessToken(ctx context.Context, userId int, cred *credentials.Credential) (string, error) {
	expired := !cred.Expiry.IsZero() && cred.Expiry.Before(time.Now())
	if expired && cred.RefreshToken != "" {
		refreshed, err := c.refreshAccessToken(ctx, userId, cred)
		if err == nil {
			return refreshed, nil
		}
		log.Warnf("silent Outlook token refresh failed for user %d: %v", userId, err)
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
	source := c.oauthConfig.TokenSource(ctx, &oauth2.Token{
		RefreshToken: cred.RefreshToken,
		Expiry:       time.Now().Add(-time.Hour),
	})
	token, err := source.Token()
	if err != nil {
		return "", fmt.Errorf("unable to refresh Microsoft token: %w", err)
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

	err = c.creds.Save(ctx, userId, provider.TypeOutlook, *cred)
	if err != nil {
		log.Errorf("failed to persist refreshed Microsoft token for user %d: %v", userId, err)
	}
	return token.AccessToken, nil
}

type graphDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type graphEvent struct {
	Id       string        `json:"id"`
	Subject  string        `json:"subject"`
	Start    graphDateTime `json:"start"`
	End      graphDateTime `json:"end"`
	Location struct {
		DisplayName string `json:"displayName"`
	} `json:"location"`
	Attendees []struct {
		EmailAddress struct {
			Address string `json:"address"`
			Name    string `json:"name"`
		} `json:"emailAddress"`
	} `json:"attendees"`
}

func (c *Client) listEvents(ctx context.Context, accessToken string, from time.Time, to time.Time) ([]graphEvent, error) {
	query := url.Values{}
	query.Set("$select", "id,subject,location,start,end,attendees")
	query.Set("$orderby", "start/dateTime")
	query.Set("$top", fmt.Sprintf("%d", maxResults))
	query.Set("$filter", fmt.Sprintf("start/dateTime ge '%s' and start/dateTime lt '%s'",
		from.UTC().Format(graphTimeLayout), to.UTC().Format(graphTimeLayout)))

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/me/events?"+query.Encode(), nil)
	if err != nil {
		log.Errorf("Failed to create request: %v", err)
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Prefer", `outlook.timezone="UTC"`)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Errorf("Failed to execute request: %v", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, provider.ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		log.Errorf("Microsoft Graph returned non-OK status: %d", resp.StatusCode)
		return nil, &provider.ApiError{StatusCode: resp.StatusCode}
	}

	var response struct {
		Value []graphEvent `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		log.Errorf("Failed to decode response: %v", err)
		return nil, fmt.Errorf("%w: %v", provider.ErrInvalidResponse, err)
	}

	return response.Value, nil
}

func (c *Client) storeInCache(ctx context.Context, userId int, events []provider.SyncedEvent) {
	if c.cache == nil {
		return
	}
	cached := make([]provider.CalendarEvent, 0, len(events))
	for _, event := range events {
		cached = append(cached, event.CalendarEvent())
	}
	if err := c.cache.StoreEvents(ctx, userId, provider.TypeOutlook, cached); err != nil {
		log.Warnf("failed to cache Outlook events for user %d: %v", userId, err)
	}
}

func mapItems(items []graphEvent) []provider.SyncedEvent {
	events := make([]provider.SyncedEvent, 0, len(items))
	for _, item := range items {
		start, ok := parseGraphTime(item.Start)
		if !ok {
			log.Debugf("skipping Outlook event without a start time: %s", item.Id)
			continue
		}
		end, ok := parseGraphTime(item.End)
		if !ok {
			end = start.Add(time.Hour)
		}

		title := strings.TrimSpace(item.Subject)
		if title == "" {
			title = defaultTitle
		}
		id := item.Id
		if id == "" {
			id = uuid.New().String()
		}

		attendees := make([]string, 0, len(item.Attendees))
		for _, attendee := range item.Attendees {
			attendees = append(attendees, attendee.EmailAddress.Address)
		}

		events = append(events, provider.SyncedEvent{
			ID:             id,
			Title:          title,
			StartTime:      start,
			EndTime:        end,
			Location:       item.Location.DisplayName,
			AttendeeEmails: provider.NormalizeEmails(attendees),
		})
	}
	return events
}

func parseGraphTime(t graphDateTime) (time.Time, bool) {
	if t.DateTime == "" {
		return time.Time{}, false
	}
	location := time.UTC
	if t.TimeZone != "" && t.TimeZone != "UTC" {
		if loaded, err := time.LoadLocation(t.TimeZone); err == nil {
			location = loaded
		} else {
			log.Debugf("unknown Graph time zone %q, assuming UTC", t.TimeZone)
		}
	}
	for _, layout := range []string{graphTimeFractionLayout, graphTimeLayout, time.RFC3339} {
		if parsed, err := time.ParseInLocation(layout, t.DateTime, location); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
