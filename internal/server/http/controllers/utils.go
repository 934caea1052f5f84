package controllers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// Helper functions for common HTTP responses

// writeJSON writes a 200 JSON response with the given data.
func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

// writeJSONStatus writes a JSON response with the given status code.
func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a failure body: the human message, a stable code and
// the underlying detail.
func writeError(w http.ResponseWriter, status int, code, message, details string) {
	writeJSONStatus(w, status, errorResp{Success: false, Error: message, Code: code, Details: details})
}

// allowMethods rejects requests whose method is not listed. Returns false
// when a response was written.
func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Método no permitido", r.Method)
	return false
}

// decodeBody decodes a bounded JSON body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

const maxBodyBytes = 64 << 10

// parseLimit parses a limit string and returns a valid limit value.
//
// Returns def for empty strings or invalid values.
func parseLimit(limitStr string, def int) int {
	if limitStr == "" {
		return def
	}
	if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
		return limit
	}
	return def
}

// requireAdmin wraps h with a bearer token check. An empty token disables
// the check.
func requireAdmin(token string, h http.HandlerFunc) http.HandlerFunc {
	if token == "" {
		return h
	}
	want := []byte("Bearer " + token)
	return func(w http.ResponseWriter, r *http.Request) {
		got := []byte(r.Header.Get("Authorization"))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="palabra"`)
			writeError(w, http.StatusUnauthorized, "unauthorized", "No autorizado", "missing or invalid bearer token")
			return
		}
		h(w, r)
	}
}
