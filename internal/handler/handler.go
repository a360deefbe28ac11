// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/eventhub/internal/auth"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"github.com/Shivanand-hulikatti/eventhub/internal/registration"
	"github.com/Shivanand-hulikatti/eventhub/internal/repository"
	"github.com/Shivanand-hulikatti/eventhub/internal/service"
	"github.com/go-chi/chi/v5"
)

// EventHandler holds all HTTP handlers for the event discovery API.
type EventHandler struct {
	svc    *service.EventService
	logger *slog.Logger
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc *service.EventService, logger *slog.Logger) *EventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHandler{svc: svc, logger: logger}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps domain errors onto HTTP statuses. Unknown errors
// are logged and reported as 500 without leaking their text.
func (h *EventHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var verr *service.ValidationError
	var remoteErr *registration.RemoteError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "you are not allowed to do that")
	case errors.Is(err, registration.ErrEventFull):
		writeError(w, http.StatusConflict, "event is full")
	case errors.As(err, &remoteErr):
		writeError(w, http.StatusConflict, remoteErr.Message)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "event not found")
	default:
		h.logger.Error(fallback, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// ListEvents handles GET /events?q=&category=
// Returns upcoming events matching the optional query and category.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	category := model.Category(r.URL.Query().Get("category"))

	events, err := h.svc.SearchEvents(r.Context(), query, category)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to list events")
		return
	}

	writeJSON(w, http.StatusOK, events)
}

// CreateEvent handles POST /events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.CreateEvent(r.Context(), auth.IdentityFrom(r.Context()), req)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to create event")
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// GetEvent handles GET /events/{id}
// Returns the event, its organizer and the caller's registration state.
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	detail, err := h.svc.GetEventDetail(r.Context(), id, auth.IdentityFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to get event")
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// DeleteEvent handles DELETE /events/{id}
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.DeleteEvent(r.Context(), auth.IdentityFrom(r.Context()), id); err != nil {
		h.writeServiceError(w, r, err, "failed to delete event")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ToggleRegistration handles POST /events/{id}/registration
// The body is the registration state the caller currently displays; the
// response is the state after flipping it once.
func (h *EventHandler) ToggleRegistration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req model.ToggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	current := model.RegistrationState{Registered: req.Registered, Count: req.Count}
	state, err := h.svc.ToggleRegistration(r.Context(), auth.IdentityFrom(r.Context()), id, current)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to update registration")
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// ListRegistrations handles GET /events/{id}/registrations
func (h *EventHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	regs, err := h.svc.ListRegistrations(r.Context(), auth.IdentityFrom(r.Context()), id)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to list registrations")
		return
	}

	if regs == nil {
		regs = []model.Registration{}
	}

	writeJSON(w, http.StatusOK, regs)
}

// GetProfile handles GET /me
func (h *EventHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProfile(r.Context(), auth.IdentityFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to get profile")
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// UpdateProfile handles PUT /me
func (h *EventHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	p, err := h.svc.UpdateProfile(r.Context(), auth.IdentityFrom(r.Context()), req)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// ListMyEvents handles GET /me/events
func (h *EventHandler) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListMyEvents(r.Context(), auth.IdentityFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to list events")
		return
	}

	if events == nil {
		events = []model.Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
