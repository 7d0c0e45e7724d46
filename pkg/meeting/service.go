package meeting

import (
	"context"
	"fmt"
	"time"

	"github.com/Sachamoyne/Contactly/pkg/contact"
	"github.com/Sachamoyne/Contactly/pkg/manualmeeting"
	"github.com/Sachamoyne/Contactly/pkg/profile"
	"github.com/Sachamoyne/Contactly/pkg/provider"
	"github.com/Sachamoyne/Contactly/pkg/relevance"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	// SyncMeetingEvents fans out to every active calendar provider, filters
	// the results down to actual meetings and links attendees to contacts.
	// A provider that merely needs the user to sign in again is skipped;
	// any other failure aborts the sync.
	SyncMeetingEvents(ctx context.Context, date time.Time) ([]relevance.MeetingEvent, error)

	ManualMeetings(ctx context.Context, contactId uuid.UUID) ([]manualmeeting.ManualMeeting, error)
	ManualMeetingsOnDate(ctx context.Context, date time.Time) ([]manualmeeting.ManualMeeting, error)
	AddManualMeeting(ctx context.Context, meeting manualmeeting.ManualMeeting) (manualmeeting.ManualMeeting, error)
	UpdateManualMeeting(ctx context.Context, meeting manualmeeting.ManualMeeting) (manualmeeting.ManualMeeting, error)
	DeleteManualMeeting(ctx context.Context, id uuid.UUID) error
	ContactForMeeting(ctx context.Context, meetingId uuid.UUID) (contact.Contact, error)
}

type ServiceImpl struct {
	clients        map[provider.Type]provider.Client
	userService    profile.Service
	contactService contact.Service
	manualRepo     manualmeeting.Repository
	analyzer       relevance.Analyzer
}

func NewService(
	clients map[provider.Type]provider.Client,
	userService profile.Service,
	contactService contact.Service,
	manualRepo manualmeeting.Repository,
) *ServiceImpl {
	return &ServiceImpl{
		clients:        clients,
		userService:    userService,
		contactService: contactService,
		manualRepo:     manualRepo,
	}
}

func (s *ServiceImpl) SyncMeetingEvents(ctx context.Context, date time.Time) ([]relevance.MeetingEvent, error) {
	active, err := s.userService.ActiveCalendarProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve active calendar providers: %w", err)
	}
	if len(active) == 0 {
		return []relevance.MeetingEvent{}, nil
	}

	from := startOfDay(date)
	to := from.Add(24 * time.Hour)

	synced := make([]provider.SyncedEvent, 0)
	for _, providerType := range active {
		client, ok := s.clients[providerType]
		if !ok {
			log.Warnf("no client registered for calendar provider %s", providerType)
			continue
		}
		events, err := client.FetchEventsInWindow(ctx, from, to)
		if err != nil {
			if provider.IsRecoverableAuthError(err) {
				// the user just is not signed in to this provider; the
				// remaining sources still produce a timeline
				log.Debugf("skipping calendar provider %s: %v", providerType, err)
				continue
			}
			return nil, fmt.Errorf("calendar provider %s failed: %w", providerType, err)
		}
		synced = append(synced, events...)
	}

	contacts, err := s.contactService.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	currentEmail := s.currentUserEmail(ctx, active)
	meetings := s.analyzer.RelevantMeetings(synced, contacts, currentEmail)

	return provider.DedupedAndSorted(meetings,
		func(m relevance.MeetingEvent) string { return m.Title },
		func(m relevance.MeetingEvent) time.Time { return m.StartTime }), nil
}

// currentUserEmail picks the address used to strip the user out of attendee
// lists. The signed-in account of the first active cloud provider wins; the
// profile email is the fallback.
func (s *ServiceImpl) currentUserEmail(ctx context.Context, active []provider.Type) string {
	for _, providerType := range active {
		client, ok := s.clients[providerType]
		if !ok {
			continue
		}
		cloud, ok := client.(provider.CloudClient)
		if !ok {
			continue
		}
		email, err := cloud.AccountEmail(ctx)
		if err != nil {
			log.Debugf("unable to read account email for provider %s: %v", providerType, err)
			continue
		}
		if email != "" {
			return provider.NormalizeEmail(email)
		}
	}

	currentUser, err := s.userService.GetCurrentUser(ctx)
	if err != nil {
		log.Debugf("unable to read current user profile: %v", err)
		return ""
	}
	return provider.NormalizeEmail(currentUser.Email)
}

func (s *ServiceImpl) ManualMeetings(ctx context.Context, contactId uuid.UUID) ([]manualmeeting.ManualMeeting, error) {
	userId, err := profile.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.manualRepo.FindByContact(ctx, userId, contactId)
}

func (s *ServiceImpl) ManualMeetingsOnDate(ctx context.Context, date time.Time) ([]manualmeeting.ManualMeeting, error) {
	userId, err := profile.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.manualRepo.FindByDate(ctx, userId, date)
}

func (s *ServiceImpl) AddManualMeeting(ctx context.Context, meeting manualmeeting.ManualMeeting) (manualmeeting.ManualMeeting, error) {
	userId, err := profile.CurrentId(ctx)
	if err != nil {
		return manualmeeting.ManualMeeting{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if meeting.ContactID != uuid.Nil {
		if _, err := s.contactService.Get(ctx, meeting.ContactID); err != nil {
			return manualmeeting.ManualMeeting{}, fmt.Errorf("unknown contact %s: %w", meeting.ContactID, err)
		}
	}
	return s.manualRepo.Store(ctx, userId, meeting)
}

func (s *ServiceImpl) UpdateManualMeeting(ctx context.Context, meeting manualmeeting.ManualMeeting) (manualmeeting.ManualMeeting, error) {
	userId, err := profile.CurrentId(ctx)
	if err != nil {
		return manualmeeting.ManualMeeting{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.manualRepo.Update(ctx, userId, meeting)
}

func (s *ServiceImpl) DeleteManualMeeting(ctx context.Context, id uuid.UUID) error {
	userId, err := profile.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return s.manualRepo.Delete(ctx, userId, id)
}

// ContactForMeeting resolves the contact a manual meeting was logged with.
func (s *ServiceImpl) ContactForMeeting(ctx context.Context, meetingId uuid.UUID) (contact.Contact, error) {
	userId, err := profile.CurrentId(ctx)
	if err != nil {
		return contact.Contact{}, fmt.Errorf("failed to get current user: %w", err)
	}
	meeting, err := s.manualRepo.FindById(ctx, userId, meetingId)
	if err != nil {
		return contact.Contact{}, err
	}
	return s.contactService.Get(ctx, meeting.ContactID)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
