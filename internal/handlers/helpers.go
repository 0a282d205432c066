package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	svc "github.com/stakeq/stakeq/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps service errors onto HTTP statuses; anything untyped is a 500
// with the detail kept server-side.
func writeErr(w http.ResponseWriter, err error) {
	if se, ok := svc.AsServiceError(err); ok {
		writeJSON(w, statusFor(se.Code), map[string]any{"error": se.Message, "code": se.Code})
		return
	}
	log.Printf("internal error: %v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
}

func statusFor(code svc.ErrorCode) int {
	switch code {
	case svc.ErrorInvalid:
		return http.StatusBadRequest
	case svc.ErrorUnauthorized:
		return http.StatusUnauthorized
	case svc.ErrorForbidden:
		return http.StatusForbidden
	case svc.ErrorNotFound:
		return http.StatusNotFound
	case svc.ErrorState, svc.ErrorConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return false
	}
	return true
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
