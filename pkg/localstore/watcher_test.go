package localstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Sachamoyne/Contactly/internal/event_bus"
	"github.com/Sachamoyne/Contactly/pkg/profile"
	"github.com/stretchr/testify/assert"
)

type refreshRecorder struct {
	mu       sync.Mutex
	received []event_bus.LocalCalendarRefreshed
}

func (r *refreshRecorder) record(e event_bus.EventT[event_bus.LocalCalendarRefreshed]) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.received = append(r.received, e.Data)
	return nil
}

func (r *refreshRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.received)
}

func setupWatcherTest(t *testing.T, debounce time.Duration) (*Service, *refreshRecorder, context.Context) {
	t.Helper()
	repo := NewRepositoryStub()
	bus := event_bus.NewEventBus()
	service := NewService(repo, bus)
	watcher := NewWatcher(repo, bus, debounce)
	t.Cleanup(watcher.Close)

	recorder := &refreshRecorder{}
	unsubscribe := event_bus.SubscribeTyped[event_bus.LocalCalendarRefreshed](bus, event_bus.LocalCalendarRefreshedEvent, recorder.record)
	t.Cleanup(unsubscribe)

	ctx := profile.WithUser(context.Background(), profile.User{Id: 1, Uid: "test-user"})
	return service, recorder, ctx
}

func TestWatcherDebouncesBursts(t *testing.T) {
	service, recorder, ctx := setupWatcherTest(t, 50*time.Millisecond)
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	// three quick mutations must collapse into a single refresh
	_, err := service.AddEvent(ctx, localEvent("One", start))
	assert.NoError(t, err)
	_, err = service.AddEvent(ctx, localEvent("Two", start.Add(time.Hour)))
	assert.NoError(t, err)
	_, err = service.AddEvent(ctx, localEvent("Three", start.Add(2*time.Hour)))
	assert.NoError(t, err)

	assert.Eventually(t, func() bool { return recorder.count() == 1 }, time.Second, 10*time.Millisecond)

	// and no further refresh arrives afterwards
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, 1, recorder.count())
}

func TestWatcherSkipsUnchangedContent(t *testing.T) {
	service, recorder, ctx := setupWatcherTest(t, 30*time.Millisecond)
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	created, err := service.AddEvent(ctx, localEvent("Stable", start))
	assert.NoError(t, err)
	assert.Eventually(t, func() bool { return recorder.count() == 1 }, time.Second, 10*time.Millisecond)

	// an update that does not change the fingerprinted fields stays silent
	_, err = service.UpdateEvent(ctx, created)
	assert.NoError(t, err)
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, 1, recorder.count())

	// a real change publishes again
	created.Title = "Changed"
	_, err = service.UpdateEvent(ctx, created)
	assert.NoError(t, err)
	assert.Eventually(t, func() bool { return recorder.count() == 2 }, time.Second, 10*time.Millisecond)
}

func TestFingerprint(t *testing.T) {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	t.Run("same content gives the same fingerprint", func(t *testing.T) {
		a := []Event{localEvent("One", start)}
		b := []Event{localEvent("One", start)}
		assert.Equal(t, Fingerprint(a), Fingerprint(b))
	})

	t.Run("title change gives a different fingerprint", func(t *testing.T) {
		a := []Event{localEvent("One", start)}
		b := []Event{localEvent("Two", start)}
		assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
	})

	t.Run("attendee changes are not part of the fingerprint", func(t *testing.T) {
		a := []Event{localEvent("One", start, "anna@example.com")}
		b := []Event{localEvent("One", start, "bob@example.com")}
		assert.Equal(t, Fingerprint(a), Fingerprint(b))
	})
}
