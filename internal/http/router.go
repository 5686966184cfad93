package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"evbooking/internal/http/handlers"
	"evbooking/internal/notifier"
)

// RouterDeps groups everything the router mounts.
type RouterDeps struct {
	Bookings *handlers.BookingsHandler
	Stations *handlers.StationsHandler
	QR       *handlers.QRHandler
	Hub      *notifier.Hub
	Auth     func(http.Handler) http.Handler
}

// NewRouter registers endpoints.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handlers.NewHealthHandler())
	if deps.Hub != nil {
		r.Get("/ws", deps.Hub.HandleWS)
	}

	r.Group(func(r chi.Router) {
		r.Use(deps.Auth)

		r.Route("/stations", func(r chi.Router) {
			r.Get("/", deps.Stations.HandleList)
			r.Post("/", deps.Stations.HandleCreate)
			r.Get("/{id}", deps.Stations.HandleGet)
			r.Patch("/{id}", deps.Stations.HandleUpdate)
			r.Get("/{id}/availability", deps.Stations.HandleAvailability)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", deps.Bookings.HandleCreate)
			r.Get("/me", deps.Bookings.HandleListMine)
			r.Get("/{id}", deps.Bookings.HandleGet)
			r.Patch("/{id}", deps.Bookings.HandleUpdate)
			r.Post("/{id}/approve", deps.Bookings.HandleApprove)
			r.Post("/{id}/reject", deps.Bookings.HandleReject)
			r.Post("/{id}/cancel", deps.Bookings.HandleCancel)
			r.Post("/{id}/start", deps.Bookings.HandleStart)
			r.Post("/{id}/complete", deps.Bookings.HandleComplete)
			r.Post("/{id}/no-show", deps.Bookings.HandleNoShow)
		})

		r.Post("/qr/validate", deps.QR.HandleValidate)
	})

	return r
}
