package localstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/Sachamoyne/Contactly/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

const DefaultDebounce = 450 * time.Millisecond

// Watcher coalesces bursts of local calendar change notifications. Each
// change signal resets a single pending timer per user; when the timer fires
// the content fingerprint is recomputed and a refresh event is published only
// if the fingerprint actually differs. Callers can therefore tell "data
// changed" from "nothing changed" without diffing events themselves.
type Watcher struct {
	repo     Repository
	bus      *event_bus.EventBus
	debounce time.Duration

	mu           sync.Mutex
	timers       map[int]*time.Timer
	fingerprints map[int]string

	unsubscribe func()
}

func NewWatcher(repo Repository, bus *event_bus.EventBus, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{
		repo:         repo,
		bus:          bus,
		debounce:     debounce,
		timers:       make(map[int]*time.Timer),
		fingerprints: make(map[int]string),
	}
	w.unsubscribe = event_bus.SubscribeTyped[event_bus.LocalCalendarChanged](bus, event_bus.LocalCalendarChangedEvent,
		func(e event_bus.EventT[event_bus.LocalCalendarChanged]) error {
			w.scheduleRefresh(e.Data.UserId)
			return nil
		})
	return w
}

// Close stops listening for change notifications and cancels pending timers.
func (w *Watcher) Close() {
	if w.unsubscribe != nil {
		w.unsubscribe()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for userId, timer := range w.timers {
		timer.Stop()
		delete(w.timers, userId)
	}
}

func (w *Watcher) scheduleRefresh(userId int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.timers[userId]; ok {
		timer.Stop()
	}
	w.timers[userId] = time.AfterFunc(w.debounce, func() {
		w.refresh(userId)
	})
}

func (w *Watcher) refresh(userId int) {
	w.mu.Lock()
	delete(w.timers, userId)
	previous := w.fingerprints[userId]
	w.mu.Unlock()

	ctx := context.Background()
	events, err := w.repo.FindAllEvents(ctx, userId)
	if err != nil {
		log.Errorf("failed to recompute local calendar fingerprint for user %d: %v", userId, err)
		return
	}
	fingerprint := Fingerprint(events)

	w.mu.Lock()
	w.fingerprints[userId] = fingerprint
	w.mu.Unlock()

	if fingerprint == previous {
		log.Debugf("local calendar content unchanged for user %d", userId)
		return
	}

	err = w.bus.Publish(event_bus.NewEvent(ctx, event_bus.LocalCalendarRefreshedEvent,
		event_bus.LocalCalendarRefreshed{UserId: userId, Fingerprint: fingerprint}))
	if err != nil {
		log.Errorf("failed to publish local calendar refresh for user %d: %v", userId, err)
	}
}

// Fingerprint hashes the ordered concatenation of (title, start, end,
// location) across all events.
func Fingerprint(events []Event) string {
	h := sha256.New()
	for _, event := range events {
		h.Write([]byte(event.Title))
		h.Write([]byte("|"))
		h.Write([]byte(event.StartTime.UTC().Format(time.RFC3339Nano)))
		h.Write([]byte("|"))
		h.Write([]byte(event.EndTime.UTC().Format(time.RFC3339Nano)))
		h.Write([]byte("|"))
		h.Write([]byte(event.Location))
		h.Write([]byte("\n"))
	}
	return hex.EncodeToString(h.Sum(nil))
}
