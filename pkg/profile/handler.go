package profile

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Sachamoyne/Contactly/internal/rest"
	"github.com/Sachamoyne/Contactly/pkg/provider"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service Service
}

type UserDTO struct {
	Uid               string   `json:"uid"`
	DisplayName       string   `json:"displayName"`
	Email             string   `json:"email"`
	Timezone          string   `json:"timezone"`
	CalendarProvider  string   `json:"calendarProvider"`
	CalendarProviders []string `json:"calendarProviders"`
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetCurrentUser(r.Context())
	if err != nil {
		if errors.Is(err, ErrNoUser) || errors.Is(err, ErrUserNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(userToDTO(user)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var dto UserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := dtoToUser(dto)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		if encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{Error: err.Error()}); encodeErr != nil {
			http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
		}
		return
	}

	created, err := h.service.CreateUser(r.Context(), user)
	if err != nil {
		log.Errorf("failed to create user: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(userToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var dto UserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := dtoToUser(dto)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		if encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{Error: err.Error()}); encodeErr != nil {
			http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
		}
		return
	}

	updated, err := h.service.UpdateUser(r.Context(), user)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(userToDTO(updated)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func userToDTO(user User) UserDTO {
	providers := make([]string, 0, len(user.Settings.CalendarProviders))
	for _, p := range user.Settings.CalendarProviders {
		providers = append(providers, string(p))
	}
	calendarProvider := user.Settings.CalendarProvider
	if calendarProvider == "" {
		calendarProvider = provider.TypeNone
	}
	return UserDTO{
		Uid:               user.Uid,
		DisplayName:       user.DisplayName,
		Email:             user.Email,
		Timezone:          user.Settings.Timezone,
		CalendarProvider:  string(calendarProvider),
		CalendarProviders: providers,
	}
}

func dtoToUser(dto UserDTO) (User, error) {
	calendarProvider := provider.TypeNone
	if dto.CalendarProvider != "" {
		parsed, err := provider.ParseType(dto.CalendarProvider)
		if err != nil {
			return User{}, err
		}
		calendarProvider = parsed
	}
	var providers []provider.Type
	for _, raw := range dto.CalendarProviders {
		p, err := provider.ParseType(raw)
		if err != nil {
			return User{}, err
		}
		providers = append(providers, p)
	}
	return User{
		Uid:         dto.Uid,
		DisplayName: dto.DisplayName,
		Email:       dto.Email,
		Settings: Settings{
			Timezone:          dto.Timezone,
			CalendarProvider:  calendarProvider,
			CalendarProviders: providers,
		},
	}, nil
}
