// Package httpx holds the JSON response helpers shared by every handler.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"buildboard-backend/internal/apperr"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteRawJSON writes an already-encoded body.
func WriteRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidInput:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes {"error": code, "message": reason}. Storage failures are
// logged with the underlying error and reported generically.
func WriteError(w http.ResponseWriter, log *logrus.Entry, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindStorageFailure && log != nil {
		log.WithError(err).Error("request failed")
	}
	WriteJSON(w, StatusOf(err), errorBody{
		Error:   kind.Code(),
		Message: apperr.ReasonOf(err),
	})
}

// DecodeJSON decodes the request body into dst, reporting InvalidInput on failure.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.InvalidInput("invalid json")
	}
	return nil
}
