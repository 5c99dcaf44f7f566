package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"eventlottery/internal/delivery/http/helpers"
	"eventlottery/internal/delivery/http/middleware"
	"eventlottery/internal/domain"
	"eventlottery/internal/services"
)

type WaitlistController struct {
	Logger      *slog.Logger
	Events      domain.EventService
	Enrollment  domain.EnrollmentService
	Draw        domain.DrawService
	Invitations domain.InvitationService
}

func NewWaitlistController(
	logger *slog.Logger,
	events domain.EventService,
	enrollment domain.EnrollmentService,
	draw domain.DrawService,
	invitations domain.InvitationService,
) *WaitlistController {
	return &WaitlistController{
		Logger:      logger,
		Events:      events,
		Enrollment:  enrollment,
		Draw:        draw,
		Invitations: invitations,
	}
}

// organizerEvent loads the event and verifies the caller organizes it. On any
// failure the response has been written and the returned event is nil.
func (c *WaitlistController) organizerEvent(w http.ResponseWriter, r *http.Request) *domain.Event {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return nil
	}
	deviceID, ok := middleware.DeviceIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return nil
	}
	event, err := c.Events.GetEvent(r.Context(), eventID)
	if err != nil {
		helpers.WriteDomainError(w, err)
		return nil
	}
	if event.OrganizerID != deviceID {
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "only the organizer may do this")
		return nil
	}
	return event
}

// Join godoc
// @Summary Join an event's waitlist
// @Description Validates organizer self-join, profile registration, duplicate membership, registration window, and capacity, in that order.
// @Tags waitlist
// @Produce json
// @Param X-Device-ID header string true "Caller device id"
// @Param eventID path string true "Event ID"
// @Success 201 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 422 {object} helpers.APIResponse "error.code: unprocessable"
// @Failure 428 {object} helpers.APIResponse "error.code: profile_incomplete"
// @Router /events/{eventID}/waitlist [post]
func (c *WaitlistController) Join(w http.ResponseWriter, r *http.Request) {
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

	event, err := c.Events.GetEvent(r.Context(), eventID)
	if err != nil {
		helpers.WriteDomainError(w, err)
		return
	}

	if err := c.Enrollment.Join(r.Context(), event, deviceID); err != nil {
		if !isBusinessRejection(err) {
			c.Logger.ErrorContext(r.Context(), "join failed", "event_id", eventID, "device_id", deviceID, "err", err)
		}
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, map[string]string{"status": "joined"})
}

// Leave godoc
// @Summary Leave an event's waitlist
// @Tags waitlist
// @Produce json
// @Param X-Device-ID header string true "Caller device id"
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not on waitlist)"
// @Router /events/{eventID}/waitlist [delete]
func (c *WaitlistController) Leave(w http.ResponseWriter, r *http.Request) {
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

	if err := c.Enrollment.Leave(r.Context(), eventID, deviceID); err != nil {
		if !isBusinessRejection(err) {
			c.Logger.ErrorContext(r.Context(), "leave failed", "event_id", eventID, "device_id", deviceID, "err", err)
		}
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "left"})
}

// RunDrawRequest is the request body for POST /events/{eventID}/draw.
type RunDrawRequest struct {
	NumWinners          int  `json:"num_winners"`
	ReplacementPoolSize *int `json:"replacement_pool_size"`
}

// Validate implements helpers.Validator.
func (r *RunDrawRequest) Validate() []string {
	var errs []string
	if r.NumWinners <= 0 {
		errs = append(errs, "num_winners must be greater than zero")
	}
	if r.ReplacementPoolSize != nil && *r.ReplacementPoolSize < 0 {
		errs = append(errs, "replacement_pool_size cannot be negative")
	}
	return errs
}

// RunDraw godoc
// @Summary Run the lottery draw
// @Description Organizer only. Shuffles the waiting list, moves winners and the replacement pool atomically, then notifies winners. Defaults to a pool of 3.
// @Tags waitlist
// @Accept json
// @Produce json
// @Param X-Device-ID header string true "Caller device id"
// @Param eventID path string true "Event ID"
// @Param body body controllers.RunDrawRequest true "Draw parameters"
// @Success 200 {object} helpers.APIResponse
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (draw in progress)"
// @Failure 422 {object} helpers.APIResponse "error.code: unprocessable (no entrants)"
// @Router /events/{eventID}/draw [post]
func (c *WaitlistController) RunDraw(w http.ResponseWriter, r *http.Request) {
	event := c.organizerEvent(w, r)
	if event == nil {
		return
	}

	var req RunDrawRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	poolSize := services.DefaultReplacementPoolSize
	if req.ReplacementPoolSize != nil {
		poolSize = *req.ReplacementPoolSize
	}

	result, err := c.Draw.RunDraw(r.Context(), event.ID, req.NumWinners, poolSize)
	if err != nil {
		if !isBusinessRejection(err) {
			c.Logger.ErrorContext(r.Context(), "draw failed", "event_id", event.ID, "err", err)
		}
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

// PromoteRequest is the request body for POST /events/{eventID}/promotions.
// An empty device_id promotes the first entry of the replacement pool.
type PromoteRequest struct {
	DeviceID string `json:"device_id"`
}

// Promote godoc
// @Summary Promote a replacement-pool entrant to winners
// @Description Organizer only. Used after a winner declines. With no device_id the first pool entry is promoted.
// @Tags waitlist
// @Accept json
// @Produce json
// @Param X-Device-ID header string true "Caller device id"
// @Param eventID path string true "Event ID"
// @Param body body controllers.PromoteRequest true "Pool entrant to promote"
// @Success 200 {object} helpers.APIResponse
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not in pool)"
// @Failure 422 {object} helpers.APIResponse "error.code: unprocessable (empty pool)"
// @Router /events/{eventID}/promotions [post]
func (c *WaitlistController) Promote(w http.ResponseWriter, r *http.Request) {
	event := c.organizerEvent(w, r)
	if event == nil {
		return
	}

	var req PromoteRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	promoted, err := c.Draw.PromoteFromCancelled(r.Context(), event.ID, req.DeviceID)
	if err != nil {
		if !isBusinessRejection(err) {
			c.Logger.ErrorContext(r.Context(), "promotion failed", "event_id", event.ID, "err", err)
		}
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"promoted_device_id": promoted})
}

// NotifyCancelledRequest is the request body for POST /events/{eventID}/cancelled-notifications.
type NotifyCancelledRequest struct {
	Message string `json:"message"`
}

// Validate implements helpers.Validator.
func (r *NotifyCancelledRequest) Validate() []string {
	if r.Message == "" {
		return []string{"message is required"}
	}
	return nil
}

// NotifyCancelled godoc
// @Summary Notify all cancelled entrants
// @Description Organizer only. Sends a cancelled-category notification to every entrant in the cancelled set.
// @Tags waitlist
// @Accept json
// @Produce json
// @Param X-Device-ID header string true "Caller device id"
// @Param eventID path string true "Event ID"
// @Param body body controllers.NotifyCancelledRequest true "Message text"
// @Success 200 {object} helpers.APIResponse
// @Router /events/{eventID}/cancelled-notifications [post]
func (c *WaitlistController) NotifyCancelled(w http.ResponseWriter, r *http.Request) {
	event := c.organizerEvent(w, r)
	if event == nil {
		return
	}

	var req NotifyCancelledRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	sent, failed, err := c.Draw.NotifyCancelled(r.Context(), event.ID, req.Message)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "cancelled broadcast failed", "event_id", event.ID, "err", err)
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]int{"sent": sent, "failed": failed})
}

// RespondRequest is the request body for POST /events/{eventID}/response.
type RespondRequest struct {
	NotificationID string `json:"notification_id"`
	Accept         bool   `json:"accept"`
}

// Validate implements helpers.Validator.
func (r *RespondRequest) Validate() []string {
	if r.NotificationID == "" {
		return []string{"notification_id is required"}
	}
	return nil
}

// Respond godoc
// @Summary Accept or decline a winner invitation
// @Description Moves the caller from winners to accepted or cancelled and marks the originating notification. When the notification update fails after the move, the outcome reports the partial completion; the move is not rolled back.
// @Tags waitlist
// @Accept json
// @Produce json
// @Param X-Device-ID header string true "Caller device id"
// @Param eventID path string true "Event ID"
// @Param body body controllers.RespondRequest true "Response"
// @Success 200 {object} helpers.APIResponse
// @Router /events/{eventID}/response [post]
func (c *WaitlistController) Respond(w http.ResponseWriter, r *http.Request) {
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

	var req RespondRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	outcome, err := c.Invitations.Respond(r.Context(), eventID, deviceID, req.NotificationID, req.Accept)
	if err != nil {
		if !isBusinessRejection(err) {
			c.Logger.ErrorContext(r.Context(), "invitation response failed", "event_id", eventID, "device_id", deviceID, "err", err)
		}
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, outcome)
}

// isBusinessRejection reports whether err is an expected rule rejection that
// does not need error-level logging.
func isBusinessRejection(err error) bool {
	for _, sentinel := range []error{
		domain.ErrInvalidInput, domain.ErrForbidden, domain.ErrProfileIncomplete,
		domain.ErrAlreadyJoined, domain.ErrNotOnWaitlist, domain.ErrWindowClosed,
		domain.ErrEventFull, domain.ErrNoEntrants, domain.ErrEmptyPool,
		domain.ErrInvalidState, domain.ErrDrawInProgress, domain.ErrNotFound,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
