package relevance

import (
	"testing"
	"time"

	"github.com/Sachamoyne/Contactly/pkg/contact"
	"github.com/Sachamoyne/Contactly/pkg/provider"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func syncedEvent(title string, attendees ...string) provider.SyncedEvent {
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	return provider.SyncedEvent{
		ID:             title,
		Title:          title,
		StartTime:      start,
		EndTime:        start.Add(time.Hour),
		AttendeeEmails: attendees,
	}
}

func testContact(firstName string, email string) contact.Contact {
	return contact.Contact{
		ID:        uuid.New(),
		FirstName: firstName,
		Email:     email,
	}
}

func TestRelevantMeetings(t *testing.T) {
	analyzer := Analyzer{}

	t.Run("discards events with one or zero attendees", func(t *testing.T) {
		events := []provider.SyncedEvent{
			syncedEvent("Focus block"),
			syncedEvent("1:1 with nobody", "me@example.com"),
			syncedEvent("Standup", "me@example.com", "anna@example.com"),
		}

		meetings := analyzer.RelevantMeetings(events, nil, "me@example.com")

		assert.Len(t, meetings, 1)
		assert.Equal(t, "Standup", meetings[0].Title)
	})

	t.Run("removes the current user from attendees", func(t *testing.T) {
		events := []provider.SyncedEvent{
			syncedEvent("Standup", "me@example.com", "anna@example.com", "bob@example.com"),
		}

		meetings := analyzer.RelevantMeetings(events, nil, "ME@Example.com")

		assert.Len(t, meetings, 1)
		assert.Equal(t, []string{"anna@example.com", "bob@example.com"}, meetings[0].AttendeeEmails)
	})

	t.Run("discards events that only contain the current user", func(t *testing.T) {
		events := []provider.SyncedEvent{
			syncedEvent("Duplicated self", "me@example.com", "ME@example.com "),
		}

		meetings := analyzer.RelevantMeetings(events, nil, "me@example.com")

		assert.Empty(t, meetings)
	})

	t.Run("links the first attendee matching a contact", func(t *testing.T) {
		anna := testContact("Anna", "anna@example.com")
		bob := testContact("Bob", "bob@example.com")
		events := []provider.SyncedEvent{
			syncedEvent("Planning", "me@example.com", "zed@example.com", "bob@example.com", "anna@example.com"),
		}

		meetings := analyzer.RelevantMeetings(events, []contact.Contact{bob, anna}, "me@example.com")

		assert.Len(t, meetings, 1)
		// attendees are sorted, so anna comes before bob
		assert.NotNil(t, meetings[0].LinkedContact)
		assert.Equal(t, anna.ID, meetings[0].LinkedContact.ID)
	})

	t.Run("skips unmatched attendees until one matches a contact", func(t *testing.T) {
		bob := testContact("Bob", "bob@example.com")
		events := []provider.SyncedEvent{
			syncedEvent("Planning", "bob@example.com", "anna@example.com"),
		}

		// anna sorts first but is not a contact; bob must still be linked
		meetings := analyzer.RelevantMeetings(events, []contact.Contact{bob}, "")

		assert.Len(t, meetings, 1)
		assert.NotNil(t, meetings[0].LinkedContact)
		assert.Equal(t, bob.ID, meetings[0].LinkedContact.ID)
	})

	t.Run("keeps meetings without a matching contact", func(t *testing.T) {
		events := []provider.SyncedEvent{
			syncedEvent("External call", "me@example.com", "stranger@example.com"),
		}

		meetings := analyzer.RelevantMeetings(events, []contact.Contact{testContact("Anna", "anna@example.com")}, "me@example.com")

		assert.Len(t, meetings, 1)
		assert.Nil(t, meetings[0].LinkedContact)
	})

	t.Run("duplicate contact emails are last write wins", func(t *testing.T) {
		first := testContact("First", "shared@example.com")
		second := testContact("Second", "shared@example.com")
		events := []provider.SyncedEvent{
			syncedEvent("Catch-up", "me@example.com", "shared@example.com"),
		}

		meetings := analyzer.RelevantMeetings(events, []contact.Contact{first, second}, "me@example.com")

		assert.Len(t, meetings, 1)
		assert.NotNil(t, meetings[0].LinkedContact)
		assert.Equal(t, second.ID, meetings[0].LinkedContact.ID)
	})

	t.Run("no current user email keeps all attendees", func(t *testing.T) {
		events := []provider.SyncedEvent{
			syncedEvent("Group session", "anna@example.com", "bob@example.com"),
		}

		meetings := analyzer.RelevantMeetings(events, nil, "")

		assert.Len(t, meetings, 1)
		assert.Equal(t, []string{"anna@example.com", "bob@example.com"}, meetings[0].AttendeeEmails)
	})
}
