package meeting

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Sachamoyne/Contactly/internal/rest"
	"github.com/Sachamoyne/Contactly/pkg/contact"
	"github.com/Sachamoyne/Contactly/pkg/manualmeeting"
	"github.com/Sachamoyne/Contactly/pkg/relevance"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const dateLayout = "2006-01-02"

type Handler struct {
	service Service
}

type MeetingEventDTO struct {
	ID             string           `json:"id"`
	Title          string           `json:"title"`
	StartTime      time.Time        `json:"start"`
	EndTime        time.Time        `json:"end"`
	AttendeeEmails []string         `json:"attendeeEmails"`
	LinkedContact  *LinkedContactDTO `json:"linkedContact,omitempty"`
}

type LinkedContactDTO struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type ManualMeetingDTO struct {
	ID        string    `json:"id"`
	ContactID string    `json:"contactId"`
	Date      time.Time `json:"date"`
	Occasion  string    `json:"occasion"`
	Notes     string    `json:"notes"`
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// SyncMeetings returns the relevant meetings for a day. The date query
// parameter defaults to today.
func (h *Handler) SyncMeetings(w http.ResponseWriter, r *http.Request) {
	date := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			h.badRequest(w, "Invalid date format", "'date' must be in YYYY-MM-DD format")
			return
		}
		date = parsed
	}

	meetings, err := h.service.SyncMeetingEvents(r.Context(), date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]MeetingEventDTO, 0, len(meetings))
	for _, meeting := range meetings {
		dtos = append(dtos, meetingToDTO(meeting))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) ManualMeetingsForContact(w http.ResponseWriter, r *http.Request) {
	contactId, err := uuid.Parse(mux.Vars(r)["contactId"])
	if err != nil {
		h.badRequest(w, "Invalid contact id", "")
		return
	}

	meetings, err := h.service.ManualMeetings(r.Context(), contactId)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeManualMeetings(w, meetings)
}

func (h *Handler) ManualMeetingsOnDate(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
	if err != nil {
		h.badRequest(w, "Invalid date format", "'date' must be in YYYY-MM-DD format")
		return
	}

	meetings, err := h.service.ManualMeetingsOnDate(r.Context(), date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeManualMeetings(w, meetings)
}

func (h *Handler) CreateManualMeeting(w http.ResponseWriter, r *http.Request) {
	var dto ManualMeetingDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	meeting, err := dtoToManualMeeting(dto)
	if err != nil {
		h.badRequest(w, "Invalid contact id", "")
		return
	}

	created, err := h.service.AddManualMeeting(r.Context(), meeting)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(manualMeetingToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) UpdateManualMeeting(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["meetingId"])
	if err != nil {
		h.badRequest(w, "Invalid meeting id", "")
		return
	}

	var dto ManualMeetingDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	meeting, err := dtoToManualMeeting(dto)
	if err != nil {
		h.badRequest(w, "Invalid contact id", "")
		return
	}
	meeting.ID = id

	updated, err := h.service.UpdateManualMeeting(r.Context(), meeting)
	if err != nil {
		if errors.Is(err, manualmeeting.ErrMeetingNotFound) {
			http.Error(w, "meeting not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(manualMeetingToDTO(updated)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) DeleteManualMeeting(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["meetingId"])
	if err != nil {
		h.badRequest(w, "Invalid meeting id", "")
		return
	}
	if err := h.service.DeleteManualMeeting(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ContactForMeeting(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["meetingId"])
	if err != nil {
		h.badRequest(w, "Invalid meeting id", "")
		return
	}

	found, err := h.service.ContactForMeeting(r.Context(), id)
	if err != nil {
		if errors.Is(err, manualmeeting.ErrMeetingNotFound) || errors.Is(err, contact.ErrContactNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(LinkedContactDTO{
		ID:       found.ID.String(),
		FullName: found.FullName(),
		Email:    found.Email,
	}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) writeManualMeetings(w http.ResponseWriter, meetings []manualmeeting.ManualMeeting) {
	dtos := make([]ManualMeetingDTO, 0, len(meetings))
	for _, meeting := range meetings {
		dtos = append(dtos, manualMeetingToDTO(meeting))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) badRequest(w http.ResponseWriter, message string, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	if err := json.NewEncoder(w).Encode(rest.ErrorResponse{Error: message, Details: details}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func meetingToDTO(meeting relevance.MeetingEvent) MeetingEventDTO {
	dto := MeetingEventDTO{
		ID:             meeting.ID,
		Title:          meeting.Title,
		StartTime:      meeting.StartTime,
		EndTime:        meeting.EndTime,
		AttendeeEmails: meeting.AttendeeEmails,
	}
	if meeting.LinkedContact != nil {
		dto.LinkedContact = &LinkedContactDTO{
			ID:       meeting.LinkedContact.ID.String(),
			FullName: meeting.LinkedContact.FullName(),
			Email:    meeting.LinkedContact.Email,
		}
	}
	return dto
}

func manualMeetingToDTO(meeting manualmeeting.ManualMeeting) ManualMeetingDTO {
	return ManualMeetingDTO{
		ID:        meeting.ID.String(),
		ContactID: meeting.ContactID.String(),
		Date:      meeting.Date,
		Occasion:  meeting.Occasion,
		Notes:     meeting.Notes,
	}
}

func dtoToManualMeeting(dto ManualMeetingDTO) (manualmeeting.ManualMeeting, error) {
	var contactId uuid.UUID
	var err error
	if dto.ContactID != "" {
		contactId, err = uuid.Parse(dto.ContactID)
		if err != nil {
			return manualmeeting.ManualMeeting{}, err
		}
	}
	id := uuid.Nil
	if dto.ID != "" {
		if parsed, parseErr := uuid.Parse(dto.ID); parseErr == nil {
			id = parsed
		}
	}
	return manualmeeting.ManualMeeting{
		ID:        id,
		ContactID: contactId,
		Date:      dto.Date,
		Occasion:  dto.Occasion,
		Notes:     dto.Notes,
	}, nil
}
