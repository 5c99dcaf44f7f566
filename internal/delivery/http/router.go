package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventlottery/internal/delivery/http/controllers"
	"eventlottery/internal/delivery/http/middleware"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	eventController *controllers.EventController,
	waitlistController *controllers.WaitlistController,
	entrantController *controllers.EntrantController,
) *http.ServeMux {
	mux := http.NewServeMux()
	device := middleware.RequireDevice()

	// Events
	mux.HandleFunc("POST /events", device(eventController.CreateEvent))
	mux.HandleFunc("GET /events", eventController.ListEvents)
	mux.HandleFunc("GET /events/{eventID}", eventController.GetEvent)
	mux.HandleFunc("PATCH /events/{eventID}", device(eventController.UpdateEvent))
	mux.HandleFunc("GET /events/{eventID}/members/{setName}", device(eventController.ListMembers))
	mux.HandleFunc("GET /events/{eventID}/counts", device(eventController.MemberCounts))

	// Waitlist lifecycle
	mux.HandleFunc("POST /events/{eventID}/waitlist", device(waitlistController.Join))
	mux.HandleFunc("DELETE /events/{eventID}/waitlist", device(waitlistController.Leave))
	mux.HandleFunc("POST /events/{eventID}/draw", device(waitlistController.RunDraw))
	mux.HandleFunc("POST /events/{eventID}/promotions", device(waitlistController.Promote))
	mux.HandleFunc("POST /events/{eventID}/cancelled-notifications", device(waitlistController.NotifyCancelled))
	mux.HandleFunc("POST /events/{eventID}/response", device(waitlistController.Respond))

	// Entrants
	mux.HandleFunc("GET /entrants/me", device(entrantController.GetProfile))
	mux.HandleFunc("PUT /entrants/me", device(entrantController.UpsertProfile))
	mux.HandleFunc("DELETE /entrants/me", device(entrantController.ClearProfile))
	mux.HandleFunc("GET /entrants/me/notifications", device(entrantController.ListNotifications))
	mux.HandleFunc("PATCH /entrants/me/notifications/{notificationID}", device(entrantController.MarkNotificationRead))

	// Admin
	mux.HandleFunc("GET /admin/entrants/{deviceID}/ban", device(entrantController.GetBanned))
	mux.HandleFunc("PUT /admin/entrants/{deviceID}/ban", device(entrantController.SetBanned))

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
