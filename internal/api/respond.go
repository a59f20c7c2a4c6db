package api

import (
	"encoding/json"
	"net/http"

	"github.com/adsbdb/adsbdb-go/internal/apperr"
)

// envelope wraps every response body, success or failure, in a single
// "response" field, matching the original wire format.
type envelope struct {
	Response any `json:"response"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Response: payload})
}

func writeOK(w http.ResponseWriter, payload any) {
	writeJSON(w, http.StatusOK, payload)
}

// writeNoBody writes a bodiless 200 OK, matching the original's PATCH
// routes (update_routes.rs:196,250), which return no payload on success.
func writeNoBody(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
}

// writeErr maps err onto its HTTP status and writes its message as the
// response payload. Non-*apperr.Error values are treated as internal
// failures.
func writeErr(w http.ResponseWriter, err error) {
	if e, ok := apperr.As(err); ok {
		writeJSON(w, e.Status(), e.Error())
		return
	}
	writeJSON(w, http.StatusInternalServerError, "internal error")
}
