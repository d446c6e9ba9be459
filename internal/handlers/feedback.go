package handlers

import (
	"net/http"

	"github.com/eventdesk/apiserver/internal/services"
	"github.com/eventdesk/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// FeedbackHandler provides HTTP handlers for event feedback.
type FeedbackHandler struct {
	feedbackService *services.FeedbackService
}

func NewFeedbackHandler(feedbackService *services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

// FeedbackRouter registers feedback routes on the given router. Every route
// requires authentication.
func FeedbackRouter(r chi.Router, feedbackService *services.FeedbackService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewFeedbackHandler(feedbackService)

	r.Use(authMiddleware)
	r.Post("/", handler.CreateFeedback)
	r.Get("/mine", handler.ListMyFeedback)
	r.Patch("/{feedbackID}", handler.UpdateFeedback)
	r.Delete("/{feedbackID}", handler.DeleteFeedback)
}

type CreateFeedbackRequest struct {
	EventID int    `json:"event_id"`
	Review  string `json:"review"`
}

type UpdateFeedbackRequest struct {
	Review string `json:"review"`
}

type FeedbackListResponse struct {
	Items []types.Feedback `json:"items"`
}

func (h *FeedbackHandler) CreateFeedback(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateFeedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	fb, err := h.feedbackService.Create(r.Context(), userID, req.EventID, req.Review)
	if err != nil {
		writeServiceError(w, err, "event", "failed to create feedback")
		return
	}

	writeJSON(w, http.StatusCreated, fb)
}

func (h *FeedbackHandler) ListMyFeedback(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	items, err := h.feedbackService.ListByUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "feedback", "failed to list feedback")
		return
	}

	writeJSON(w, http.StatusOK, FeedbackListResponse{Items: items})
}

func (h *FeedbackHandler) UpdateFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "feedbackID", "feedback")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdateFeedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	fb, err := h.feedbackService.Update(r.Context(), id, userID, req.Review)
	if err != nil {
		writeServiceError(w, err, "feedback", "failed to update feedback")
		return
	}

	writeJSON(w, http.StatusOK, fb)
}

func (h *FeedbackHandler) DeleteFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "feedbackID", "feedback")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.feedbackService.Delete(r.Context(), id, userID); err != nil {
		writeServiceError(w, err, "feedback", "failed to delete feedback")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListEventFeedback returns the feedback left on an event.
func (h *EventHandler) ListEventFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "eventID", "event")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.feedbackService.ListByEvent(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "event", "failed to list feedback")
		return
	}

	writeJSON(w, http.StatusOK, FeedbackListResponse{Items: items})
}
