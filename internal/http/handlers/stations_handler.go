package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"evbooking/internal/http/middleware"
	"evbooking/internal/models"
	"evbooking/internal/repository"
	"evbooking/internal/service"
)

// StationsHandler exposes station administration and availability checks.
type StationsHandler struct {
	stations *repository.StationRepository
	checker  *service.AvailabilityChecker
	logger   *zap.Logger
}

// NewStationsHandler builds handler set.
func NewStationsHandler(stations *repository.StationRepository, checker *service.AvailabilityChecker, logger *zap.Logger) *StationsHandler {
	return &StationsHandler{stations: stations, checker: checker, logger: logger}
}

type stationRequest struct {
	Name           string  `json:"name"`
	Location       string  `json:"location"`
	ConnectorType  string  `json:"connector_type"`
	PowerKW        float64 `json:"power_kw"`
	PricePerKWh    float64 `json:"price_per_kwh"`
	TotalSlots     int     `json:"total_slots"`
	Status         string  `json:"status"`
	MaxBookingMins int     `json:"max_booking_minutes"`
}

// HandleList handles GET /stations.
func (h *StationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	stations, err := h.stations.ListStations(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stations": stations})
}

// HandleGet handles GET /stations/{id}.
func (h *StationsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	station, err := h.stations.GetStation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, station)
}

// HandleCreate handles POST /stations. Privileged only.
func (h *StationsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok || !actor.Role.Privileged() {
		writeError(w, http.StatusForbidden, "operator role required")
		return
	}
	var req stationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	station, err := stationFromRequest(&req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	station.ID = uuid.NewString()
	if station.Status == "" {
		station.Status = models.StationActive
	}

	if err := h.stations.CreateStation(r.Context(), station); err != nil {
		h.logger.Error("create station failed", zap.Error(err))
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, station)
}

// HandleUpdate handles PATCH /stations/{id}. Privileged only. Slot counts
// are not accepted here; capacity moves only through the booking lifecycle.
func (h *StationsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok || !actor.Role.Privileged() {
		writeError(w, http.StatusForbidden, "operator role required")
		return
	}
	station, err := h.stations.GetStation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req stationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	applyStationUpdate(station, &req)
	if !station.ConnectorType.Valid() {
		writeDomainError(w, models.E(models.KindInvalidArgument, "unknown connector type %q", station.ConnectorType))
		return
	}
	if !station.Status.Valid() {
		writeDomainError(w, models.E(models.KindInvalidArgument, "unknown station status %q", station.Status))
		return
	}

	if err := h.stations.UpdateStation(r.Context(), station); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, station)
}

// HandleAvailability handles GET /stations/{id}/availability. Conflicting
// bookings belong to other users, so non-privileged callers see only the
// booking ids and windows, never the holder or vehicle.
func (h *StationsHandler) HandleAvailability(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	start, err := time.Parse(time.RFC3339, query.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start time")
		return
	}
	end, err := time.Parse(time.RFC3339, query.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end time")
		return
	}

	availability, err := h.checker.Check(r.Context(), chi.URLParam(r, "id"), start, end, query.Get("exclude"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok || !actor.Role.Privileged() {
		writeJSON(w, http.StatusOK, redactAvailability(availability))
		return
	}
	writeJSON(w, http.StatusOK, availability)
}

type conflictWindow struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type availabilityView struct {
	Available bool             `json:"available"`
	Conflicts []conflictWindow `json:"conflicts,omitempty"`
}

func redactAvailability(av *models.Availability) availabilityView {
	view := availabilityView{Available: av.Available}
	for _, b := range av.Conflicts {
		view.Conflicts = append(view.Conflicts, conflictWindow{
			ID:        b.ID,
			StartTime: b.StartTime,
			EndTime:   b.EndTime,
		})
	}
	return view
}

func stationFromRequest(req *stationRequest) (*models.Station, error) {
	connector := models.ConnectorType(req.ConnectorType)
	if !connector.Valid() {
		return nil, models.E(models.KindInvalidArgument, "unknown connector type %q", req.ConnectorType)
	}
	if req.TotalSlots <= 0 {
		return nil, models.E(models.KindInvalidArgument, "total_slots must be positive")
	}
	status := models.StationStatus(req.Status)
	if req.Status != "" && !status.Valid() {
		return nil, models.E(models.KindInvalidArgument, "unknown station status %q", req.Status)
	}
	return &models.Station{
		Name:           req.Name,
		Location:       req.Location,
		ConnectorType:  connector,
		PowerKW:        req.PowerKW,
		PricePerKWh:    req.PricePerKWh,
		TotalSlots:     req.TotalSlots,
		Status:         status,
		MaxBookingMins: req.MaxBookingMins,
	}, nil
}

func applyStationUpdate(station *models.Station, req *stationRequest) {
	if req.Name != "" {
		station.Name = req.Name
	}
	if req.Location != "" {
		station.Location = req.Location
	}
	if req.ConnectorType != "" {
		station.ConnectorType = models.ConnectorType(req.ConnectorType)
	}
	if req.PowerKW > 0 {
		station.PowerKW = req.PowerKW
	}
	if req.PricePerKWh > 0 {
		station.PricePerKWh = req.PricePerKWh
	}
	if req.Status != "" {
		station.Status = models.StationStatus(req.Status)
	}
	if req.MaxBookingMins > 0 {
		station.MaxBookingMins = req.MaxBookingMins
	}
}
