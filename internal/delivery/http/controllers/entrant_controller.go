package controllers

import (
	"log/slog"
	"net/http"

	"eventlottery/internal/delivery/http/helpers"
	"eventlottery/internal/delivery/http/middleware"
	"eventlottery/internal/domain"
)

type EntrantController struct {
	Logger  *slog.Logger
	Service domain.EntrantService
}

func NewEntrantController(logger *slog.Logger, svc domain.EntrantService) *EntrantController {
	return &EntrantController{
		Logger:  logger,
		Service: svc,
	}
}

// GetProfile godoc
// @Summary Get the caller's profile
// @Tags entrants
// @Produce json
// @Param X-Device-ID header string true "Caller device id"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /entrants/me [get]
func (c *EntrantController) GetProfile(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := middleware.DeviceIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	profile, err := c.Service.GetProfile(r.Context(), deviceID)
	if err != nil {
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, profile)
}

// UpsertProfile godoc
// @Summary Create or update the caller's profile
// @Description Merge semantics: omitted fields keep their stored value. First write creates the profile.
// @Tags entrants
// @Accept json
// @Produce json
// @Param X-Device-ID header string true "Caller device id"
// @Param body body domain.EntrantUpdate true "Profile fields"
// @Success 200 {object} helpers.APIResponse
// @Router /entrants/me [put]
func (c *EntrantController) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := middleware.DeviceIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	var upd domain.EntrantUpdate
	if !helpers.DecodeAndValidate(w, r, &upd) {
		return
	}

	profile, err := c.Service.UpsertProfile(r.Context(), deviceID, upd)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, profile)
}

// ClearProfile godoc
// @Summary Clear the caller's profile
// @Description Blanks the personal fields and resets the registered flag. The row itself is kept so inbox and membership history survive.
// @Tags entrants
// @Produce json
// @Param X-Device-ID header string true "Caller device id"
// @Success 200 {object} helpers.APIResponse
// @Router /entrants/me [delete]
func (c *EntrantController) ClearProfile(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := middleware.DeviceIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	if err := c.Service.ClearProfile(r.Context(), deviceID); err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// ListNotifications godoc
// @Summary List the caller's notifications, newest first
// @Tags entrants
// @Produce json
// @Param X-Device-ID header string true "Caller device id"
// @Success 200 {object} helpers.APIResponse
// @Router /entrants/me/notifications [get]
func (c *EntrantController) ListNotifications(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := middleware.DeviceIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	notifications, err := c.Service.ListNotifications(r.Context(), deviceID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, notifications)
}

// MarkNotificationRead godoc
// @Summary Mark one notification as read
// @Tags entrants
// @Produce json
// @Param X-Device-ID header string true "Caller device id"
// @Param notificationID path string true "Notification ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /entrants/me/notifications/{notificationID} [patch]
func (c *EntrantController) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := middleware.DeviceIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	notificationID := r.PathValue("notificationID")
	if notificationID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing notificationID")
		return
	}

	if err := c.Service.MarkNotificationRead(r.Context(), deviceID, notificationID); err != nil {
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "read"})
}

// GetBanned godoc
// @Summary Check whether an entrant is banned
// @Description A device id that never registered reads as not banned.
// @Tags admin
// @Produce json
// @Param X-Device-ID header string true "Caller device id"
// @Param deviceID path string true "Entrant device id"
// @Success 200 {object} helpers.APIResponse
// @Router /admin/entrants/{deviceID}/ban [get]
func (c *EntrantController) GetBanned(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("deviceID")
	if deviceID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing deviceID")
		return
	}

	banned, err := c.Service.IsBanned(r.Context(), deviceID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]any{"device_id": deviceID, "banned": banned})
}

// BanRequest is the request body for PUT /admin/entrants/{deviceID}/ban.
type BanRequest struct {
	Banned bool `json:"banned"`
}

// SetBanned godoc
// @Summary Ban or unban an entrant
// @Description Administrative flag. Banned entrants keep their memberships but clients hide registration actions.
// @Tags admin
// @Accept json
// @Produce json
// @Param X-Device-ID header string true "Caller device id"
// @Param deviceID path string true "Entrant device id"
// @Param body body controllers.BanRequest true "Ban flag"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /admin/entrants/{deviceID}/ban [put]
func (c *EntrantController) SetBanned(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("deviceID")
	if deviceID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing deviceID")
		return
	}

	var req BanRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	if err := c.Service.SetBanned(r.Context(), deviceID, req.Banned); err != nil {
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]any{"device_id": deviceID, "banned": req.Banned})
}
