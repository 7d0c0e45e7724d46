package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Sachamoyne/Contactly/pkg/provider"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// PgEventCache keeps the last successfully fetched event list per user and
// provider. It backs the offline fallback: when a live fetch is impossible
// the previous snapshot is still served.
type PgEventCache struct {
	db *pgxpool.Pool
}

func NewPgEventCache(db *pgxpool.Pool) *PgEventCache {
	return &PgEventCache{db: db}
}

func (c *PgEventCache) StoreEvents(ctx context.Context, userId int, providerType provider.Type, events []provider.CalendarEvent) error {
	payload, err := json.Marshal(events)
	if err != nil {
		return err
	}
	query := `INSERT INTO event_cache (user_id, provider, payload, updated_at) VALUES ($1, $2, $3, now())
				ON CONFLICT (user_id, provider) DO UPDATE SET payload = $3, updated_at = now()`
	_, err = c.db.Exec(ctx, query, userId, string(providerType), string(payload))
	if err != nil {
		log.Errorf("failed to cache events for user %d provider %s: %v", userId, providerType, err)
		return err
	}
	return nil
}

func (c *PgEventCache) LoadEvents(ctx context.Context, userId int, providerType provider.Type) ([]provider.CalendarEvent, error) {
	var payload string
	err := c.db.QueryRow(ctx, "SELECT payload FROM event_cache WHERE user_id = $1 AND provider = $2",
		userId, string(providerType)).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return []provider.CalendarEvent{}, nil
	} else if err != nil {
		log.Errorf("failed to load cached events for user %d provider %s: %v", userId, providerType, err)
		return nil, err
	}

	events := make([]provider.CalendarEvent, 0)
	if err := json.Unmarshal([]byte(payload), &events); err != nil {
		log.Warnf("discarding malformed event cache for user %d provider %s: %v", userId, providerType, err)
		return []provider.CalendarEvent{}, nil
	}
	return events, nil
}

// StubEventCache is an in-memory provider.EventCache for tests.
type StubEventCache struct {
	mu         sync.Mutex
	entries    map[string][]provider.CalendarEvent
	StoreCalls int
}

func NewStubEventCache() *StubEventCache {
	return &StubEventCache{entries: make(map[string][]provider.CalendarEvent)}
}

func (c *StubEventCache) StoreEvents(_ context.Context, userId int, providerType provider.Type, events []provider.CalendarEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.StoreCalls++
	c.entries[cacheKey(userId, providerType)] = events
	return nil
}

func (c *StubEventCache) LoadEvents(_ context.Context, userId int, providerType provider.Type) ([]provider.CalendarEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	events, ok := c.entries[cacheKey(userId, providerType)]
	if !ok {
		return []provider.CalendarEvent{}, nil
	}
	return events, nil
}

func cacheKey(userId int, providerType provider.Type) string {
	return fmt.Sprintf("%d|%s", userId, providerType)
}
