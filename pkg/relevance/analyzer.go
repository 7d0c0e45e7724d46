package relevance

import (
	"time"

	"github.com/Sachamoyne/Contactly/pkg/contact"
	"github.com/Sachamoyne/Contactly/pkg/provider"
)

// MeetingEvent is a synced event enriched with a linked contact and the
// attendee list minus the current user. It is recomputed on every refresh
// and never persisted, so it stays consistent when contacts change.
type MeetingEvent struct {
	ID             string
	Title          string
	StartTime      time.Time
	EndTime        time.Time
	LinkedContact  *contact.Contact
	AttendeeEmails []string
}

// Analyzer decides which synced events are relevant meetings and links them
// to contacts. It is a pure function of its inputs: no I/O, no state.
type Analyzer struct{}

// RelevantMeetings keeps events with at least one attendee other than the
// current user and links each to the first attendee (in sorted attendee
// order) that matches a contact email. Events whose linked contact cannot be
// resolved are still returned; unmatched meetings remain visible.
//
// The output is unsorted. Sorting and deduplication belong to the callers.
func (Analyzer) RelevantMeetings(events []provider.SyncedEvent, contacts []contact.Contact, currentUserEmail string) []MeetingEvent {
	contactsByEmail := indexByEmail(contacts)
	ownEmail := provider.NormalizeEmail(currentUserEmail)

	meetings := make([]MeetingEvent, 0, len(events))
	for _, event := range events {
		attendees := provider.NormalizeEmails(event.AttendeeEmails)
		// A meeting needs at least one other party.
		if len(attendees) <= 1 {
			continue
		}

		otherAttendees := attendees
		if ownEmail != "" {
			otherAttendees = make([]string, 0, len(attendees))
			for _, email := range attendees {
				if email != ownEmail {
					otherAttendees = append(otherAttendees, email)
				}
			}
			if len(otherAttendees) == 0 {
				continue
			}
		}

		var linked *contact.Contact
		for _, email := range otherAttendees {
			if c, ok := contactsByEmail[email]; ok {
				linked = &c
				break
			}
		}

		meetings = append(meetings, MeetingEvent{
			ID:             event.ID,
			Title:          event.Title,
			StartTime:      event.StartTime,
			EndTime:        event.EndTime,
			LinkedContact:  linked,
			AttendeeEmails: otherAttendees,
		})
	}
	return meetings
}

// indexByEmail builds the lookup once per call; duplicate emails are
// last-write-wins.
func indexByEmail(contacts []contact.Contact) map[string]contact.Contact {
	index := make(map[string]contact.Contact, len(contacts))
	for _, c := range contacts {
		email := provider.NormalizeEmail(c.Email)
		if email != "" {
			index[email] = c
		}
	}
	return index
}
