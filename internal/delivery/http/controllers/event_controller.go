package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventlottery/internal/delivery/http/helpers"
	"eventlottery/internal/delivery/http/middleware"
	"eventlottery/internal/domain"
)

// setNames maps URL path segments to membership states.
var setNames = map[string]domain.MembershipState{
	"waitlist":         domain.StateWaiting,
	"winners":          domain.StateWinners,
	"replacement-pool": domain.StateReplacementPool,
	"accepted":         domain.StateAccepted,
	"cancelled":        domain.StateCancelled,
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	Location          string `json:"location"`
	EventDateTime     string `json:"event_date_time"`
	RegistrationOpen  string `json:"registration_open"`
	RegistrationClose string `json:"registration_close"`
	MaxCapacity       *int   `json:"max_capacity"`
}

// Validate implements helpers.Validator.
func (r *CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, "name is required")
	}
	return errs
}

// CreateEvent godoc
// @Summary Create an event
// @Description Creates an event owned by the calling device. The caller becomes the organizer and cannot join its own waitlist.
// @Tags events
// @Accept json
// @Produce json
// @Param X-Device-ID header string true "Caller device id"
// @Param body body controllers.CreateEventRequest true "Event fields"
// @Success 201 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := middleware.DeviceIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	event := domain.NewEvent(
		req.Name, req.Description, req.Location,
		req.EventDateTime, req.RegistrationOpen, req.RegistrationClose,
		deviceID, req.MaxCapacity,
	)
	if err := c.Service.CreateEvent(r.Context(), event); err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// ListEvents godoc
// @Summary List events
// @Description Lists all events, or only the given organizer's when organizer_id is set.
// @Tags events
// @Produce json
// @Param organizer_id query string false "Filter by organizer"
// @Success 200 {object} helpers.APIResponse
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	organizerID := r.URL.Query().Get("organizer_id")

	var (
		events []*domain.Event
		err    error
	)
	if organizerID != "" {
		events, err = c.Service.ListEventsByOrganizer(r.Context(), organizerID)
	} else {
		events, err = c.Service.ListEvents(r.Context())
	}
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// GetEvent godoc
// @Summary Get one event
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}

	event, err := c.Service.GetEvent(r.Context(), eventID)
	if err != nil {
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Applies a partial update. Only the organizer may mutate the event.
// @Tags events
// @Accept json
// @Produce json
// @Param X-Device-ID header string true "Caller device id"
// @Param eventID path string true "Event ID"
// @Param body body domain.EventUpdate true "Fields to change"
// @Success 200 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /events/{eventID} [patch]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	deviceID, ok := middleware.DeviceIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	var upd domain.EventUpdate
	if !helpers.DecodeAndValidate(w, r, &upd) {
		return
	}

	event, err := c.Service.UpdateEvent(r.Context(), eventID, deviceID, upd)
	if err != nil {
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// ListMembers godoc
// @Summary List one membership set of an event
// @Description setName is one of waitlist, winners, replacement-pool, accepted, cancelled.
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID"
// @Param setName path string true "Membership set"
// @Success 200 {object} helpers.APIResponse
// @Router /events/{eventID}/members/{setName} [get]
func (c *EventController) ListMembers(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	state, ok := setNames[r.PathValue("setName")]
	if eventID == "" || !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "unknown membership set")
		return
	}

	entries, err := c.Service.ListMembers(r.Context(), eventID, state)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, entries)
}

// MemberCounts godoc
// @Summary Per-set membership counts for an event
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse
// @Router /events/{eventID}/counts [get]
func (c *EventController) MemberCounts(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}

	counts, err := c.Service.MemberCounts(r.Context(), eventID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, counts)
}
