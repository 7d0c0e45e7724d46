package app

import (
	"github.com/Sachamoyne/Contactly/internal/config"
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// User management
	r.HandleFunc("/api/user/current", deps.UserHandler.CurrentUser).Methods("GET")
	r.HandleFunc("/api/user/current", deps.UserHandler.UpdateUser).Methods("PUT")
	r.HandleFunc("/api/user", deps.UserHandler.CreateUser).Methods("POST")

	// Contacts
	r.HandleFunc("/api/contact", deps.ContactHandler.ListContacts).Methods("GET")
	r.HandleFunc("/api/contact", deps.ContactHandler.CreateContact).Methods("POST")
	r.HandleFunc("/api/contact/{contactId}", deps.ContactHandler.GetContact).Methods("GET")
	r.HandleFunc("/api/contact/{contactId}", deps.ContactHandler.UpdateContact).Methods("PUT")
	r.HandleFunc("/api/contact/{contactId}", deps.ContactHandler.DeleteContact).Methods("DELETE")

	// Unified calendar timeline
	r.HandleFunc("/api/calendar/today", deps.AggregatorHandler.TodayEvents).Methods("GET")
	r.HandleFunc("/api/calendar/cached", deps.AggregatorHandler.CachedEvents).Methods("GET")

	// Meetings
	r.HandleFunc("/api/meeting/sync", deps.MeetingHandler.SyncMeetings).Methods("GET")
	r.HandleFunc("/api/meeting/manual", deps.MeetingHandler.ManualMeetingsOnDate).Queries("date", "{date}").Methods("GET")
	r.HandleFunc("/api/meeting/manual", deps.MeetingHandler.CreateManualMeeting).Methods("POST")
	r.HandleFunc("/api/meeting/manual/{meetingId}", deps.MeetingHandler.UpdateManualMeeting).Methods("PUT")
	r.HandleFunc("/api/meeting/manual/{meetingId}", deps.MeetingHandler.DeleteManualMeeting).Methods("DELETE")
	r.HandleFunc("/api/meeting/manual/{meetingId}/contact", deps.MeetingHandler.ContactForMeeting).Methods("GET")
	r.HandleFunc("/api/contact/{contactId}/meetings", deps.MeetingHandler.ManualMeetingsForContact).Methods("GET")

	// Local calendar store
	r.HandleFunc("/api/calendar/local/permission", deps.LocalHandler.GetPermission).Methods("GET")
	r.HandleFunc("/api/calendar/local/permission/request", deps.LocalHandler.RequestAccess).Methods("POST")
	r.HandleFunc("/api/calendar/local/permission", deps.LocalHandler.SetPermission).Methods("PUT")
	r.HandleFunc("/api/calendar/local/event", deps.LocalHandler.GetEvents).Queries("from", "{from}", "to", "{to}").Methods("GET")
	r.HandleFunc("/api/calendar/local/event", deps.LocalHandler.CreateEvent).Methods("POST")
	r.HandleFunc("/api/calendar/local/event/{eventId}", deps.LocalHandler.UpdateEvent).Methods("PUT")
	r.HandleFunc("/api/calendar/local/event/{eventId}", deps.LocalHandler.DeleteEvent).Methods("DELETE")

	// Google integration
	r.HandleFunc("/api/integrations/google/auth/login", deps.GoogleAuth.OAuthLogin).Methods("GET")
	r.HandleFunc("/api/integrations/google/auth/logout", deps.GoogleAuth.OAuthLogout).Methods("DELETE")
	r.HandleFunc("/api/integrations/google/auth/callback", deps.GoogleAuth.OAuthCallback).Methods("GET")
	r.HandleFunc("/api/integrations/google/auth", deps.GoogleAuth.IsAuthenticated).Methods("GET")

	// Outlook integration
	r.HandleFunc("/api/integrations/outlook/auth/login", deps.OutlookAuth.OAuthLogin).Methods("GET")
	r.HandleFunc("/api/integrations/outlook/auth/logout", deps.OutlookAuth.OAuthLogout).Methods("DELETE")
	r.HandleFunc("/api/integrations/outlook/auth/callback", deps.OutlookAuth.OAuthCallback).Methods("GET")
	r.HandleFunc("/api/integrations/outlook/auth", deps.OutlookAuth.IsAuthenticated).Methods("GET")
}
