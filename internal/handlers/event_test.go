package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"chosei-backend/internal/middleware"
	"chosei-backend/internal/models"
	"chosei-backend/internal/repository"
	"chosei-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Minimal in-memory stores behind the service interfaces, enough to
// drive the event endpoints end to end.

type memEventStore struct {
	nextID       int64
	events       map[int64]*models.Event
	participants *memParticipantStore
}

func (m *memEventStore) Create(_ context.Context, event *models.Event) error {
	m.nextID++
	event.ID = m.nextID
	clone := *event
	m.events[event.ID] = &clone
	return nil
}

func (m *memEventStore) GetByID(_ context.Context, id int64) (*models.Event, error) {
	event, ok := m.events[id]
	if !ok {
		return nil, fmt.Errorf("event %d: %w", id, repository.ErrNotFound)
	}
	clone := *event
	return &clone, nil
}

func (m *memEventStore) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := m.events[id]
	return ok, nil
}

func (m *memEventStore) UpdateWithReset(_ context.Context, event *models.Event) error {
	stored, ok := m.events[event.ID]
	if !ok {
		return fmt.Errorf("event %d: %w", event.ID, repository.ErrNotFound)
	}
	stored.Title = event.Title
	stored.Description = event.Description
	stored.Candidates = event.Candidates
	for _, row := range m.participants.rows {
		if row.EventID == event.ID {
			row.Attendance = []models.AttendanceStatus{}
			row.Remarks = ""
		}
	}
	return nil
}

func (m *memEventStore) Delete(_ context.Context, id int64) error {
	if _, ok := m.events[id]; !ok {
		return fmt.Errorf("event %d: %w", id, repository.ErrNotFound)
	}
	for participantID, row := range m.participants.rows {
		if row.EventID == id {
			delete(m.participants.rows, participantID)
		}
	}
	delete(m.events, id)
	return nil
}

func (m *memEventStore) ListByHolder(_ context.Context, holderID string) ([]*models.Event, error) {
	var events []*models.Event
	for _, event := range m.events {
		if event.HolderID == holderID {
			clone := *event
			events = append(events, &clone)
		}
	}
	return events, nil
}

func (m *memEventStore) ListByParticipant(_ context.Context, userID string) ([]*models.EventSummary, error) {
	var summaries []*models.EventSummary
	for _, row := range m.participants.rows {
		if row.UserID != userID {
			continue
		}
		if event, ok := m.events[row.EventID]; ok {
			summaries = append(summaries, &models.EventSummary{
				ID:        event.ID,
				Title:     event.Title,
				CreatedAt: event.CreatedAt,
			})
		}
	}
	return summaries, nil
}

type memParticipantStore struct {
	nextID int64
	rows   map[int64]*models.Participant
}

func (m *memParticipantStore) Create(_ context.Context, participant *models.Participant) error {
	m.nextID++
	participant.ID = m.nextID
	clone := *participant
	m.rows[participant.ID] = &clone
	return nil
}

func (m *memParticipantStore) GetByID(_ context.Context, id int64) (*models.Participant, error) {
	row, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("participant %d: %w", id, repository.ErrNotFound)
	}
	clone := *row
	return &clone, nil
}

func (m *memParticipantStore) GetByEventAndUser(_ context.Context, eventID int64, userID string) (*models.Participant, error) {
	for _, row := range m.rows {
		if row.EventID == eventID && row.UserID == userID {
			clone := *row
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("participant: %w", repository.ErrNotFound)
}

func (m *memParticipantStore) ListByEvent(_ context.Context, eventID int64) ([]*models.ParticipantView, error) {
	var views []*models.ParticipantView
	for _, row := range m.rows {
		if row.EventID == eventID {
			views = append(views, &models.ParticipantView{Participant: *row})
		}
	}
	return views, nil
}

func (m *memParticipantStore) ListPushTokensByEvent(_ context.Context, _ int64, _ string) (map[string]string, error) {
	return map[string]string{}, nil
}

func (m *memParticipantStore) UpdateAttendance(_ context.Context, id int64, attendance []models.AttendanceStatus, remarks string) error {
	row, ok := m.rows[id]
	if !ok {
		return fmt.Errorf("participant %d: %w", id, repository.ErrNotFound)
	}
	row.Attendance = attendance
	row.Remarks = remarks
	return nil
}

func (m *memParticipantStore) Delete(_ context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return fmt.Errorf("participant %d: %w", id, repository.ErrNotFound)
	}
	delete(m.rows, id)
	return nil
}

// newTestRouter wires the event handler behind a router that injects
// the given user as the authenticated caller.
func newTestRouter(svc *services.EventService, userID string) http.Handler {
	h := NewEventHandler(svc)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUserID(req.Context(), userID)))
		})
	})
	r.Post("/api/v1/events", h.CreateEvent)
	r.Get("/api/v1/events/{event_id}", h.GetEvent)
	r.Put("/api/v1/events/{event_id}", h.UpdateEvent)
	r.Delete("/api/v1/events/{event_id}", h.DeleteEvent)
	return r
}

func newEventService() (*services.EventService, *memEventStore) {
	participants := &memParticipantStore{rows: make(map[int64]*models.Participant)}
	events := &memEventStore{events: make(map[int64]*models.Event), participants: participants}
	return services.NewEventService(events, participants), events
}

func TestCreateEventHandler_ValidatesTitle(t *testing.T) {
	svc, _ := newEventService()
	router := newTestRouter(svc, "holder")

	body, _ := json.Marshal(map[string]interface{}{
		"title":      "ab",
		"candidates": []string{"2026-09-10T19:00:00Z"},
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateEventHandler_RejectsBadCandidates(t *testing.T) {
	svc, _ := newEventService()
	router := newTestRouter(svc, "holder")

	body, _ := json.Marshal(map[string]interface{}{
		"title":      "team dinner",
		"candidates": []string{"next friday"},
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetEventHandler_MissingEventIs404(t *testing.T) {
	svc, _ := newEventService()
	router := newTestRouter(svc, "u1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events/999", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetEventHandler_JoinsAndReturnsDetail(t *testing.T) {
	svc, _ := newEventService()
	event, err := svc.CreateEvent(context.Background(), "holder", "team dinner", nil,
		[]string{"2026-09-10T19:00:00Z", "2026-09-11T19:00:00Z"})
	require.NoError(t, err)

	router := newTestRouter(svc, "u1")
	url := fmt.Sprintf("/api/v1/events/%d", event.ID)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var detail struct {
		Event        models.Event `json:"event"`
		Participants []struct {
			UserID string `json:"user_id"`
		} `json:"participants"`
		MaxAttendance []int `json:"max_attendance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, event.ID, detail.Event.ID)
	require.Len(t, detail.Participants, 1)
	assert.Equal(t, "u1", detail.Participants[0].UserID)
	assert.Equal(t, []int{0, 1}, detail.MaxAttendance)

	// Opening the page again must not create a second row.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Len(t, detail.Participants, 1)
}

func TestUpdateEventHandler_NonHolderIs403(t *testing.T) {
	svc, _ := newEventService()
	event, err := svc.CreateEvent(context.Background(), "holder", "team dinner", nil,
		[]string{"2026-09-10T19:00:00Z"})
	require.NoError(t, err)

	router := newTestRouter(svc, "intruder")
	body, _ := json.Marshal(map[string]interface{}{
		"title":      "hijacked",
		"candidates": []string{"2026-09-10T19:00:00Z"},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut,
		fmt.Sprintf("/api/v1/events/%d", event.ID), bytes.NewReader(body)))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteEventHandler(t *testing.T) {
	svc, store := newEventService()
	event, err := svc.CreateEvent(context.Background(), "holder", "team dinner", nil,
		[]string{"2026-09-10T19:00:00Z"})
	require.NoError(t, err)

	router := newTestRouter(svc, "holder")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete,
		fmt.Sprintf("/api/v1/events/%d", event.ID), nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, found := store.events[event.ID]
	assert.False(t, found)

	// A second delete finds nothing.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete,
		fmt.Sprintf("/api/v1/events/%d", event.ID), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventRequestValidate(t *testing.T) {
	valid := EventRequest{
		Title:      "新歓コンパ",
		Candidates: []string{"2026-04-05T18:00:00Z"},
	}
	assert.Empty(t, valid.validate())

	noCandidates := EventRequest{Title: "新歓コンパ"}
	assert.NotEmpty(t, noCandidates.validate())
}
