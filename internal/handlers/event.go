package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/eventdesk/apiserver/internal/notifier"
	"github.com/eventdesk/apiserver/internal/services"
	"github.com/eventdesk/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// EventHandler provides HTTP handlers for events and their registrations.
type EventHandler struct {
	eventService    *services.EventService
	feedbackService *services.FeedbackService
}

func NewEventHandler(eventService *services.EventService, feedbackService *services.FeedbackService) *EventHandler {
	return &EventHandler{
		eventService:    eventService,
		feedbackService: feedbackService,
	}
}

// EventRouter registers event routes on the given router.
func EventRouter(
	r chi.Router,
	eventService *services.EventService,
	feedbackService *services.FeedbackService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewEventHandler(eventService, feedbackService)

	r.Get("/", handler.ListEvents)
	r.With(authMiddleware).Get("/mine", handler.ListMyEvents)
	r.With(authMiddleware).Post("/", handler.CreateEvent)
	r.Route("/{eventID}", func(r chi.Router) {
		r.Get("/", handler.GetEvent)
		r.With(authMiddleware).Put("/", handler.UpdateEvent)
		r.With(authMiddleware).Delete("/", handler.DeleteEvent)
		r.Get("/completion", handler.CheckCompletion)
		r.Get("/feedback", handler.ListEventFeedback)
		r.Route("/registrations", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/", handler.ListRegistrations)
			r.Post("/", handler.Register)
			r.Get("/me", handler.RegistrationStatus)
		})
	})
}

func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	var (
		events []types.Event
		err    error
	)
	if raw := strings.TrimSpace(r.URL.Query().Get("owner_id")); raw != "" {
		ownerID, convErr := strconv.Atoi(raw)
		if convErr != nil || ownerID < 1 {
			writeError(w, http.StatusBadRequest, "invalid owner id")
			return
		}
		events, err = h.eventService.ReadEventsByOwner(r.Context(), ownerID)
	} else {
		events, err = h.eventService.ReadAllEvents(r.Context())
	}
	if err != nil {
		writeServiceError(w, err, "event", "failed to list events")
		return
	}

	writeJSON(w, http.StatusOK, EventListResponse{Items: events})
}

func (h *EventHandler) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	events, err := h.eventService.ReadEventsByOwner(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "event", "failed to list events")
		return
	}

	writeJSON(w, http.StatusOK, EventListResponse{Items: events})
}

func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "eventID", "event")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := h.eventService.GetEvent(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "event", "failed to fetch event")
		return
	}

	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req EventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.eventService.CreateEvent(r.Context(), userID, req.input())
	if err != nil {
		writeServiceError(w, err, "event", "failed to create event")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizeOwner(w, r)
	if !ok {
		return
	}

	var req EventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	result, err := h.eventService.UpdateEvent(r.Context(), id, req.input())
	if err != nil {
		writeServiceError(w, err, "event", "failed to update event")
		return
	}

	message := "event updated and registrants notified"
	if len(result.Deliveries) == 0 {
		message = "event updated; no registrants for this event"
	}
	writeJSON(w, http.StatusOK, UpdateEventResponse{
		Message:      message,
		Event:        result.Event,
		Notification: summarize(result.Deliveries),
	})
}

func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizeOwner(w, r)
	if !ok {
		return
	}

	result, err := h.eventService.DeleteEvent(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "event", "failed to delete event")
		return
	}

	message := "event deleted and registrants notified"
	if result.Registrants == 0 {
		message = "event deleted; no registrants for this event"
	}
	writeJSON(w, http.StatusOK, DeleteEventResponse{
		Message:      message,
		Deleted:      result.Deleted,
		Registrants:  result.Registrants,
		Notification: summarize(result.Deliveries),
		ArchiveKey:   result.ArchiveKey,
	})
}

func (h *EventHandler) CheckCompletion(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "eventID", "event")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status, err := h.eventService.CheckEventComplete(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "event", "failed to check event")
		return
	}

	writeJSON(w, http.StatusOK, CompletionResponse{
		EventID:       status.EventID,
		Complete:      status.Complete,
		NoRegistrants: status.NoRegistrants,
		Registrants:   status.Registrants,
	})
}

// authorizeOwner resolves the event id and checks that the caller owns the
// event. It writes the error response itself and reports whether to continue.
func (h *EventHandler) authorizeOwner(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := parseIDParam(r, "eventID", "event")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}
	if _, err := h.eventService.Authorize(r.Context(), id, userID); err != nil {
		writeServiceError(w, err, "event", "failed to fetch event")
		return 0, false
	}
	return id, true
}

// EventRequest is the JSON payload for creating or updating an event.
type EventRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Date        types.Date `json:"date"`
	Time        string     `json:"time"`
	Location    string     `json:"location"`
	Capacity    *int       `json:"capacity"`
}

func (req EventRequest) input() services.EventInput {
	return services.EventInput{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
		Location:    req.Location,
		Capacity:    req.Capacity,
	}
}

type EventListResponse struct {
	Items []types.Event `json:"items"`
}

// NotificationSummary reports how a fan-out went, listing failed recipients.
// Transport errors are logged by the notifier and not echoed to clients.
type NotificationSummary struct {
	Sent   int              `json:"sent"`
	Failed []FailedDelivery `json:"failed"`
}

type FailedDelivery struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

type UpdateEventResponse struct {
	Message      string              `json:"message"`
	Event        types.Event         `json:"event"`
	Notification NotificationSummary `json:"notification"`
}

type DeleteEventResponse struct {
	Message      string              `json:"message"`
	Deleted      int64               `json:"deleted"`
	Registrants  int                 `json:"registrants"`
	Notification NotificationSummary `json:"notification"`
	ArchiveKey   string              `json:"archive_key,omitempty"`
}

type CompletionResponse struct {
	EventID       int  `json:"event_id"`
	Complete      bool `json:"complete"`
	NoRegistrants bool `json:"no_registrants"`
	Registrants   int  `json:"registrants"`
}

func summarize(deliveries []notifier.Delivery) NotificationSummary {
	summary := NotificationSummary{Failed: []FailedDelivery{}}
	for _, d := range deliveries {
		if d.Delivered() {
			summary.Sent++
			continue
		}
		summary.Failed = append(summary.Failed, FailedDelivery{
			Email: d.Recipient.Email,
			Error: "delivery failed",
		})
	}
	return summary
}
