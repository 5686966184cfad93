package handlers

import (
	"encoding/json"
	"net/http"

	"evbooking/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps business-rule rejections to HTTP statuses. Errors
// without a kind are storage faults and come back as 500 so callers can
// retry them, unlike rule rejections.
func writeDomainError(w http.ResponseWriter, err error) {
	kind, ok := models.KindOf(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	status := http.StatusBadRequest
	switch kind {
	case models.KindNotFound:
		status = http.StatusNotFound
	case models.KindUnauthorized:
		status = http.StatusForbidden
	case models.KindSlotConflict, models.KindCapacityExhausted, models.KindAlreadyTerminal, models.KindCutoffExceeded:
		status = http.StatusConflict
	case models.KindInvalidWindow, models.KindOutOfBookingWindow, models.KindInvalidArgument:
		status = http.StatusBadRequest
	}

	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  string(kind),
	})
}
