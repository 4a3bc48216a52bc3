package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the uniform JSON body for every API response: exactly one of
// Data or Error is set, discriminated by OK.
type Envelope struct {
	OK    bool       `json:"ok"`
	Data  any        `json:"data,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
}

// ErrorBody carries the client-visible failure. Details is only populated
// for validation failures (per-field messages); everything else stays a
// single generic message.
type ErrorBody struct {
	Message string `json:"message"`
	Details any    `json:"details"`
}

// WriteData writes a success envelope with the given status code.
func WriteData(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, Envelope{OK: true, Data: data})
}

// WriteError writes a failure envelope. At most one details value is used.
func WriteError(w http.ResponseWriter, code int, message string, details ...any) {
	body := &ErrorBody{Message: message}
	if len(details) > 0 {
		body.Details = details[0]
	}
	writeJSON(w, code, Envelope{OK: false, Error: body})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// Required for responses carrying tokens.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
