package helpers

import (
	"encoding/json"
	"net/http"
)

// WriteJSON sets Content-Type to application/json, writes statusCode, and
// encodes v as the whole response body.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the error's message, JSON-encoded, as the whole body.
// There is no error envelope: clients receive the failing error as-is.
func WriteError(w http.ResponseWriter, statusCode int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(err.Error())
}
