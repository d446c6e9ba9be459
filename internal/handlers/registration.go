package handlers

import (
	"net/http"

	"github.com/eventdesk/apiserver/internal/services"
	"github.com/eventdesk/apiserver/types"
)

// RegistrationRequest is the contact snapshot a user submits to register.
type RegistrationRequest struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	ContactNumber string `json:"contact_number"`
	Address       string `json:"address"`
}

type RegistrationListResponse struct {
	Items []types.Registration `json:"items"`
}

type RegistrationStatusResponse struct {
	EventID    int  `json:"event_id"`
	Registered bool `json:"registered"`
}

// ListRegistrations returns the registrants of an event to its owner.
func (h *EventHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "eventID", "event")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	registrations, err := h.eventService.ListRegistrants(r.Context(), id, userID)
	if err != nil {
		writeServiceError(w, err, "event", "failed to list registrations")
		return
	}

	writeJSON(w, http.StatusOK, RegistrationListResponse{Items: registrations})
}

// Register registers the current user for an event.
func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "eventID", "event")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req RegistrationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	reg, err := h.eventService.Register(r.Context(), services.RegistrationInput{
		EventID:       id,
		UserID:        userID,
		Username:      req.Username,
		Email:         req.Email,
		ContactNumber: req.ContactNumber,
		Address:       req.Address,
	})
	if err != nil {
		writeServiceError(w, err, "event", "failed to register")
		return
	}

	writeJSON(w, http.StatusCreated, reg)
}

// RegistrationStatus reports whether the current user is registered.
func (h *EventHandler) RegistrationStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "eventID", "event")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	registered, err := h.eventService.IsRegistered(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, err, "event", "failed to check registration")
		return
	}

	writeJSON(w, http.StatusOK, RegistrationStatusResponse{EventID: id, Registered: registered})
}
