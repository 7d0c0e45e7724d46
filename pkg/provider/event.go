package provider

import (
	"slices"
	"strings"
	"time"
)

// CalendarEvent is the canonical, provider-agnostic event used for display.
// Values are regenerated on every fetch and never mutated in place.
type CalendarEvent struct {
	ID        string
	Title     string
	StartTime time.Time
	EndTime   time.Time
	Location  string
}

// SyncedEvent is what a provider client produces from a raw payload.
// AttendeeEmails is always normalized: trimmed, lower-cased, deduplicated
// and sorted.
type SyncedEvent struct {
	ID             string
	Title          string
	StartTime      time.Time
	EndTime        time.Time
	Location       string
	AttendeeEmails []string
}

func (e SyncedEvent) CalendarEvent() CalendarEvent {
	return CalendarEvent{
		ID:        e.ID,
		Title:     e.Title,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		Location:  e.Location,
	}
}

// NormalizeEmail trims whitespace and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeEmails normalizes all addresses, drops empty ones and returns a
// sorted list without duplicates.
func NormalizeEmails(emails []string) []string {
	normalized := make([]string, 0, len(emails))
	for _, email := range emails {
		e := NormalizeEmail(email)
		if e == "" {
			continue
		}
		if !slices.Contains(normalized, e) {
			normalized = append(normalized, e)
		}
	}
	slices.Sort(normalized)
	return normalized
}
