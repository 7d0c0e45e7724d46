package aggregator

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Sachamoyne/Contactly/pkg/provider"
)

type Handler struct {
	service Service
}

type EventDTO struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"start"`
	EndTime   time.Time `json:"end"`
	Location  string    `json:"location,omitempty"`
}

type timelineDTO struct {
	Events    []EventDTO `json:"events"`
	LastError string     `json:"lastError,omitempty"`
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// TodayEvents triggers a live fetch across all active providers and returns
// the merged timeline together with the last provider failure, if any.
func (h *Handler) TodayEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.FetchTodayEvents(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	lastError, err := h.service.LastError(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeTimeline(w, events, lastError)
}

// CachedEvents serves the last persisted snapshot without touching any
// provider.
func (h *Handler) CachedEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.CachedEvents(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeTimeline(w, events, "")
}

func (h *Handler) writeTimeline(w http.ResponseWriter, events []provider.CalendarEvent, lastError string) {
	dtos := make([]EventDTO, 0, len(events))
	for _, event := range events {
		dtos = append(dtos, EventDTO{
			ID:        event.ID,
			Title:     event.Title,
			StartTime: event.StartTime,
			EndTime:   event.EndTime,
			Location:  event.Location,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(timelineDTO{Events: dtos, LastError: lastError}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
