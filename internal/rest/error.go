package rest

import (
	"encoding/json"
	"net/http"

	"github.com/rallypoint/rallypoint/pkg/backend"
	log "github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

// WriteError writes a JSON ErrorResponse with the given status.
func WriteError(w http.ResponseWriter, status int, message string, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encodeErr := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   message,
		Details: details,
	})
	if encodeErr != nil {
		log.Errorf("failed to encode error response: %v", encodeErr)
	}
}

// WriteFailure writes a classified backend failure with the status matching its kind.
func WriteFailure(w http.ResponseWriter, failure *backend.Failure) {
	if failure == nil {
		failure = backend.NewFailure(backend.KindUnknown, http.StatusText(http.StatusInternalServerError))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusFor(failure.Kind))
	encodeErr := json.NewEncoder(w).Encode(ErrorResponse{
		Error: failure.Message,
		Code:  failure.Code,
	})
	if encodeErr != nil {
		log.Errorf("failed to encode error response: %v", encodeErr)
	}
}

func StatusFor(kind backend.Kind) int {
	switch kind {
	case backend.KindValidation:
		return http.StatusBadRequest
	case backend.KindUnauthenticated:
		return http.StatusUnauthorized
	case backend.KindPermission:
		return http.StatusForbidden
	case backend.KindNotFound:
		return http.StatusNotFound
	case backend.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON encodes body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

// DecodeJSON decodes the request body into dst, writing a 400 and returning false when it is malformed.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return false
	}
	return true
}
