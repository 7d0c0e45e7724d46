package manualmeeting

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RepositoryStub is an in-memory Repository for tests.
type RepositoryStub struct {
	mu       sync.Mutex
	meetings map[uuid.UUID]ManualMeeting
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{meetings: make(map[uuid.UUID]ManualMeeting)}
}

func (r *RepositoryStub) Store(_ context.Context, _ int, meeting ManualMeeting) (ManualMeeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if meeting.ID == uuid.Nil {
		meeting.ID = uuid.New()
	}
	r.meetings[meeting.ID] = meeting
	return meeting, nil
}

func (r *RepositoryStub) Update(_ context.Context, _ int, meeting ManualMeeting) (ManualMeeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.meetings[meeting.ID]; !ok {
		return ManualMeeting{}, ErrMeetingNotFound
	}
	r.meetings[meeting.ID] = meeting
	return meeting, nil
}

func (r *RepositoryStub) Delete(_ context.Context, _ int, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.meetings, id)
	return nil
}

func (r *RepositoryStub) FindById(_ context.Context, _ int, id uuid.UUID) (ManualMeeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	meeting, ok := r.meetings[id]
	if !ok {
		return ManualMeeting{}, ErrMeetingNotFound
	}
	return meeting, nil
}

func (r *RepositoryStub) FindByContact(_ context.Context, _ int, contactId uuid.UUID) ([]ManualMeeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	meetings := make([]ManualMeeting, 0)
	for _, meeting := range r.meetings {
		if meeting.ContactID == contactId {
			meetings = append(meetings, meeting)
		}
	}
	sort.Slice(meetings, func(i, j int) bool { return meetings[j].Date.Before(meetings[i].Date) })
	return meetings, nil
}

func (r *RepositoryStub) FindByDate(_ context.Context, _ int, date time.Time) ([]ManualMeeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	meetings := make([]ManualMeeting, 0)
	for _, meeting := range r.meetings {
		if !meeting.Date.Before(dayStart) && meeting.Date.Before(dayEnd) {
			meetings = append(meetings, meeting)
		}
	}
	sort.Slice(meetings, func(i, j int) bool { return meetings[i].Date.Before(meetings[j].Date) })
	return meetings, nil
}
