package middleware

import (
	"context"
	"net/http"
	"strings"

	h "eventlottery/internal/delivery/http/helpers"
)

// DeviceIDHeader carries the caller's stable opaque device identifier. It is
// the only identity this service knows about.
const DeviceIDHeader = "X-Device-ID"

type contextKey string

const deviceIDKey contextKey = "deviceID"

// SetDeviceID returns a context with the device ID set. Used by the identity
// middleware and by tests.
func SetDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, deviceIDKey, deviceID)
}

// DeviceIDFromContext returns the caller's device ID from the context, if
// present.
func DeviceIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(deviceIDKey).(string)
	return id, ok
}

// RequireDevice returns a wrapper that reads the device id header and sets it
// in the request context. If the header is missing or blank, it responds with
// 401 and does not call next.
func RequireDevice() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			deviceID := strings.TrimSpace(r.Header.Get(DeviceIDHeader))
			if deviceID == "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing "+DeviceIDHeader+" header")
				return
			}
			r = r.WithContext(SetDeviceID(r.Context(), deviceID))
			next(w, r)
		}
	}
}
