package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"evbooking/internal/http/middleware"
	"evbooking/internal/qr"
)

// QRHandler validates scanned passes at the physical station.
type QRHandler struct {
	passes *qr.Service
	logger *zap.Logger
}

// NewQRHandler builds handler.
func NewQRHandler(passes *qr.Service, logger *zap.Logger) *QRHandler {
	return &QRHandler{passes: passes, logger: logger}
}

type validateRequest struct {
	Token string `json:"token"`
}

// HandleValidate handles POST /qr/validate. Privileged only: the scan
// happens on the operator's hardware.
func (h *QRHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok || !actor.Role.Privileged() {
		writeError(w, http.StatusForbidden, "operator role required")
		return
	}
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	booking, err := h.passes.Validate(r.Context(), req.Token)
	if err != nil {
		h.logger.Info("qr validation rejected", zap.Error(err))
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":   true,
		"booking": booking,
	})
}
