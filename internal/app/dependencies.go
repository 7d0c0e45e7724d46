package app

import (
	"time"

	"github.com/Sachamoyne/Contactly/internal/config"
	"github.com/Sachamoyne/Contactly/internal/event_bus"
	"github.com/Sachamoyne/Contactly/internal/utils"
	"github.com/Sachamoyne/Contactly/pkg/aggregator"
	"github.com/Sachamoyne/Contactly/pkg/contact"
	"github.com/Sachamoyne/Contactly/pkg/credentials"
	"github.com/Sachamoyne/Contactly/pkg/google"
	"github.com/Sachamoyne/Contactly/pkg/localstore"
	"github.com/Sachamoyne/Contactly/pkg/manualmeeting"
	"github.com/Sachamoyne/Contactly/pkg/meeting"
	"github.com/Sachamoyne/Contactly/pkg/outlook"
	"github.com/Sachamoyne/Contactly/pkg/profile"
	"github.com/Sachamoyne/Contactly/pkg/provider"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	EventBus *event_bus.EventBus

	UserService profile.Service
	UserHandler *profile.Handler

	CredentialStore credentials.Store

	GoogleAuth   *google.GoogleAuth
	GoogleClient *google.Client

	OutlookAuth   *outlook.OutlookAuth
	OutlookClient *outlook.Client

	LocalRepo    localstore.Repository
	LocalService *localstore.Service
	LocalWatcher *localstore.Watcher
	LocalHandler *localstore.Handler

	EventCache        provider.EventCache
	AggregatorService aggregator.Service
	AggregatorHandler *aggregator.Handler

	ContactRepo    contact.Repository
	ContactService contact.Service
	ContactHandler *contact.Handler

	ManualMeetingRepo manualmeeting.Repository
	MeetingService    meeting.Service
	MeetingHandler    *meeting.Handler

	Clock utils.Clock
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.EventBus = event_bus.NewEventBus()
	deps.Clock = &utils.SystemClock{}

	deps.UserService = profile.NewService(profile.NewRepository(db))
	deps.UserHandler = profile.NewHandler(deps.UserService)

	deps.CredentialStore = credentials.NewStore(db)
	deps.EventCache = aggregator.NewPgEventCache(db)

	deps.GoogleAuth = google.NewGoogleAuth(db, deps.CredentialStore, deps.UserService, cfg)
	deps.GoogleClient = google.NewClient(deps.CredentialStore, deps.EventCache, cfg)

	deps.OutlookAuth = outlook.NewOutlookAuth(db, deps.CredentialStore, deps.UserService, cfg)
	deps.OutlookClient = outlook.NewClient(deps.CredentialStore, deps.EventCache, cfg)

	deps.LocalRepo = localstore.NewRepository(db)
	deps.LocalService = localstore.NewService(deps.LocalRepo, deps.EventBus)
	deps.LocalWatcher = localstore.NewWatcher(deps.LocalRepo, deps.EventBus,
		time.Duration(cfg.Calendar.DebounceMillis)*time.Millisecond)
	deps.LocalHandler = localstore.NewHandler(deps.LocalService)

	clients := map[provider.Type]provider.Client{
		provider.TypeLocal:   deps.LocalService,
		provider.TypeGoogle:  deps.GoogleClient,
		provider.TypeOutlook: deps.OutlookClient,
	}

	deps.AggregatorService = aggregator.NewService(clients, deps.UserService, deps.EventCache, deps.Clock)
	deps.AggregatorHandler = aggregator.NewHandler(deps.AggregatorService)

	deps.ContactRepo = contact.NewRepository(db)
	deps.ContactService = contact.NewService(deps.ContactRepo)
	deps.ContactHandler = contact.NewHandler(deps.ContactService)

	deps.ManualMeetingRepo = manualmeeting.NewRepository(db)
	deps.MeetingService = meeting.NewService(clients, deps.UserService, deps.ContactService, deps.ManualMeetingRepo)
	deps.MeetingHandler = meeting.NewHandler(deps.MeetingService)

	return deps
}
