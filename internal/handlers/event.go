package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"chosei-backend/internal/middleware"
	"chosei-backend/internal/models"
	"chosei-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const minTitleLength = 3

// EventHandler handles event, participation and attendance HTTP
// requests.
type EventHandler struct {
	eventService *services.EventService
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService *services.EventService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
	}
}

// EventRequest is the body for creating or updating an event
type EventRequest struct {
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Candidates  []string `json:"candidates"`
}

// validate enforces the presentation-boundary rules: the service
// layer trusts its callers.
func (req *EventRequest) validate() string {
	if len(req.Title) < minTitleLength {
		return "title must be at least 3 characters"
	}
	if len(req.Candidates) == 0 {
		return "at least one candidate is required"
	}
	for _, candidate := range req.Candidates {
		if _, err := time.Parse(time.RFC3339, candidate); err != nil {
			return "candidates must be ISO-8601 timestamps"
		}
	}
	return ""
}

func eventIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "event_id"), 10, 64)
	return id, err == nil
}

// CreateEvent handles POST /api/v1/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, msg, http.StatusBadRequest)
		return
	}

	event, err := h.eventService.CreateEvent(ctx, userID, req.Title, req.Description, req.Candidates)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create event")
		respondError(w, "Failed to create event", http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("user_id", userID).
		Int64("event_id", event.ID).
		Msg("Event created")

	respondJSON(w, event, http.StatusCreated)
}

// ListEvents handles GET /api/v1/events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	events, err := h.eventService.GetEvents(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list events")
		respondError(w, "Failed to list events", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]interface{}{"events": events}, http.StatusOK)
}

// ListHoldingEvents handles GET /api/v1/events/holding
func (h *EventHandler) ListHoldingEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	events, err := h.eventService.GetHoldingEvents(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list holding events")
		respondError(w, "Failed to list holding events", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]interface{}{"events": events}, http.StatusOK)
}

// GetEvent handles GET /api/v1/events/{event_id}. Opening an event
// joins the viewer implicitly; the join is idempotent.
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	eventID, ok := eventIDParam(r)
	if !ok {
		respondError(w, "invalid event id", http.StatusBadRequest)
		return
	}

	result, err := h.eventService.ParticipateInEvent(ctx, userID, eventID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Int64("event_id", eventID).Msg("Failed to join event")
		respondError(w, "Failed to join event", statusFromError(err))
		return
	}
	if result.Status == services.EventNotFound {
		respondError(w, "event not found", http.StatusNotFound)
		return
	}
	if result.Status == services.Joined {
		log.Info().
			Str("user_id", userID).
			Int64("event_id", eventID).
			Msg("User joined event")
	}

	detail, err := h.eventService.GetEvent(ctx, eventID)
	if err != nil {
		log.Error().Err(err).Int64("event_id", eventID).Msg("Failed to get event")
		respondError(w, "Failed to get event", statusFromError(err))
		return
	}

	respondJSON(w, detail, http.StatusOK)
}

// UpdateEvent handles PUT /api/v1/events/{event_id}. Updating resets
// every participant's attendance.
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	eventID, ok := eventIDParam(r)
	if !ok {
		respondError(w, "invalid event id", http.StatusBadRequest)
		return
	}

	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, msg, http.StatusBadRequest)
		return
	}

	event, err := h.eventService.UpdateEvent(ctx, eventID, userID, req.Title, req.Description, req.Candidates)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Int64("event_id", eventID).Msg("Failed to update event")
		respondError(w, "Failed to update event", statusFromError(err))
		return
	}

	log.Info().
		Str("user_id", userID).
		Int64("event_id", eventID).
		Msg("Event updated, attendance reset")

	respondJSON(w, event, http.StatusOK)
}

// DeleteEvent handles DELETE /api/v1/events/{event_id}
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	eventID, ok := eventIDParam(r)
	if !ok {
		respondError(w, "invalid event id", http.StatusBadRequest)
		return
	}

	if err := h.eventService.DeleteEvent(ctx, eventID, userID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Int64("event_id", eventID).Msg("Failed to delete event")
		respondError(w, "Failed to delete event", statusFromError(err))
		return
	}

	log.Info().
		Str("user_id", userID).
		Int64("event_id", eventID).
		Msg("Event deleted")

	w.WriteHeader(http.StatusNoContent)
}

// Withdraw handles DELETE /api/v1/participants/{participant_id}
func (h *EventHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	participantID, err := strconv.ParseInt(chi.URLParam(r, "participant_id"), 10, 64)
	if err != nil {
		respondError(w, "invalid participant id", http.StatusBadRequest)
		return
	}

	if err := h.eventService.WithdrawEvent(ctx, participantID, userID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Int64("participant_id", participantID).Msg("Failed to withdraw")
		respondError(w, "Failed to withdraw", statusFromError(err))
		return
	}

	log.Info().
		Str("user_id", userID).
		Int64("participant_id", participantID).
		Msg("Participant withdrew")

	w.WriteHeader(http.StatusNoContent)
}

// AttendanceRequest overwrites a participant's attendance vector and
// remarks wholesale.
type AttendanceRequest struct {
	Attendance []models.AttendanceStatus `json:"attendance"`
	Remarks    string                    `json:"remarks"`
}

// UpdateAttendance handles PUT /api/v1/participants/{participant_id}/attendance
func (h *EventHandler) UpdateAttendance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	participantID, err := strconv.ParseInt(chi.URLParam(r, "participant_id"), 10, 64)
	if err != nil {
		respondError(w, "invalid participant id", http.StatusBadRequest)
		return
	}

	var req AttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	for _, status := range req.Attendance {
		if !status.Valid() {
			respondError(w, "attendance values must be attending, absent or undecided", http.StatusBadRequest)
			return
		}
	}

	if err := h.eventService.UpdateAttendance(ctx, participantID, userID, req.Attendance, req.Remarks); err != nil {
		log.Error().Err(err).Str("user_id", userID).Int64("participant_id", participantID).Msg("Failed to update attendance")
		respondError(w, "Failed to update attendance", statusFromError(err))
		return
	}

	log.Info().
		Str("user_id", userID).
		Int64("participant_id", participantID).
		Msg("Attendance updated")

	w.WriteHeader(http.StatusNoContent)
}
