// Package render writes and reads the JSON bodies shared by the REST API and
// the GraphQL gateway.
package render

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// MaxBodyBytes caps request bodies. Avatars are the largest payload.
const MaxBodyBytes = 1 << 20

// JSON writes data with the given status
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// Decode reads at most MaxBodyBytes of JSON from the request into dst
func Decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

// DecodeStatus is the HTTP status for a Decode failure
func DecodeStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
