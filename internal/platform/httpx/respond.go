package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error         string   `json:"error"`
	Code          string   `json:"code"`
	Message       string   `json:"message,omitempty"`
	AcceptedRoles []string `json:"accepted_roles,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// DecodeJSON decodes a JSON request body of at most maxBytes into target.
// Unknown fields are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, target any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return NewError(ErrValidation, "invalid_body", "invalid request body")
	}
	return nil
}

// QueryLimit parses the "limit" query parameter, falling back to def and
// capping at max.
func QueryLimit(r *http.Request, def, max int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, NewError(ErrValidation, "invalid_limit", fmt.Sprintf("limit must be a positive integer, got %q", raw))
	}
	if n > max {
		n = max
	}
	return n, nil
}
