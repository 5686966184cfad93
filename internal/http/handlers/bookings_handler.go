package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"evbooking/internal/http/middleware"
	"evbooking/internal/models"
	"evbooking/internal/service"
)

// BookingsHandler exposes the booking lifecycle over HTTP.
type BookingsHandler struct {
	lifecycle *service.Lifecycle
	logger    *zap.Logger
}

// NewBookingsHandler builds handler set.
func NewBookingsHandler(lifecycle *service.Lifecycle, logger *zap.Logger) *BookingsHandler {
	return &BookingsHandler{lifecycle: lifecycle, logger: logger}
}

type createBookingRequest struct {
	StationID     string    `json:"station_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	VehicleNumber string    `json:"vehicle_number"`
	VehicleType   string    `json:"vehicle_type"`
	EstimatedMins int       `json:"estimated_minutes"`
}

type updateBookingRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type completeRequest struct {
	EnergyKWh float64 `json:"energy_kwh"`
}

// HandleCreate handles POST /bookings.
func (h *BookingsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor")
		return
	}
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.StationID == "" {
		writeError(w, http.StatusBadRequest, "station_id is required")
		return
	}

	booking, err := h.lifecycle.Create(r.Context(), actor, service.CreateInput{
		StationID:     req.StationID,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		VehicleNumber: req.VehicleNumber,
		VehicleType:   req.VehicleType,
		EstimatedMins: req.EstimatedMins,
	})
	if err != nil {
		h.logger.Info("create booking rejected", zap.Error(err))
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

// HandleListMine handles GET /bookings/me.
func (h *BookingsHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor")
		return
	}
	bookings, err := h.lifecycle.ListByUser(r.Context(), actor.UserID, 50)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bookings": bookings})
}

// HandleGet handles GET /bookings/{id}. Owners see only their own bookings.
func (h *BookingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor")
		return
	}
	booking, err := h.lifecycle.GetBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !actor.Role.Privileged() && booking.UserID != actor.UserID {
		writeError(w, http.StatusForbidden, "not your booking")
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// HandleUpdate handles PATCH /bookings/{id} moving the window.
func (h *BookingsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor")
		return
	}
	var req updateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	booking, err := h.lifecycle.Update(r.Context(), actor, chi.URLParam(r, "id"), req.StartTime, req.EndTime)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// HandleApprove handles POST /bookings/{id}/approve.
func (h *BookingsHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor models.Actor, id string) (*models.Booking, error) {
		return h.lifecycle.Approve(r.Context(), actor, id)
	})
}

// HandleReject handles POST /bookings/{id}/reject.
func (h *BookingsHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	h.transition(w, r, func(actor models.Actor, id string) (*models.Booking, error) {
		return h.lifecycle.Reject(r.Context(), actor, id, req.Reason)
	})
}

// HandleCancel handles POST /bookings/{id}/cancel.
func (h *BookingsHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	h.transition(w, r, func(actor models.Actor, id string) (*models.Booking, error) {
		return h.lifecycle.Cancel(r.Context(), actor, id, req.Reason)
	})
}

// HandleStart handles POST /bookings/{id}/start.
func (h *BookingsHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor models.Actor, id string) (*models.Booking, error) {
		return h.lifecycle.Start(r.Context(), actor, id)
	})
}

// HandleComplete handles POST /bookings/{id}/complete.
func (h *BookingsHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	h.transition(w, r, func(actor models.Actor, id string) (*models.Booking, error) {
		return h.lifecycle.Complete(r.Context(), actor, id, req.EnergyKWh)
	})
}

// HandleNoShow handles POST /bookings/{id}/no-show.
func (h *BookingsHandler) HandleNoShow(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor models.Actor, id string) (*models.Booking, error) {
		return h.lifecycle.MarkNoShow(r.Context(), actor, id)
	})
}

func (h *BookingsHandler) transition(w http.ResponseWriter, r *http.Request, fn func(models.Actor, string) (*models.Booking, error)) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor")
		return
	}
	booking, err := fn(actor, chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Info("transition rejected", zap.String("booking_id", chi.URLParam(r, "id")), zap.Error(err))
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}
