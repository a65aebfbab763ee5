package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/maastricht-university/vocal-indicators/history"
)

// MaxBodyBytes caps every request body. It leaves room for a full-length
// fluency transcript plus an indicator vector.
const MaxBodyBytes = 1 << 20

// writeJSON marshals v as JSON and writes it with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Warn("encode response")
	}
}

// writeError writes the {"error","code"} envelope.
func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// decodeJSON decodes a size-capped body into v. On failure it has already
// answered: 413 past MaxBodyBytes, 400 otherwise.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.writeError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", err.Error())
		return false
	}
	s.writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
	return false
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// queryList splits a comma separated query parameter, dropping blanks.
func queryList(r *http.Request, name string) []string {
	out := []string{}
	for _, s := range strings.Split(r.URL.Query().Get(name), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// storeError maps history validation errors to 400 and anything else to 500.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, history.ErrInvalidPatient),
		errors.Is(err, history.ErrInvalidPeriod),
		errors.Is(err, history.ErrUnknownTask),
		errors.Is(err, history.ErrUnknownCondition):
		s.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	default:
		s.log.WithError(err).Error("history store")
		s.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
