package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bilancio/internal/core"
)

// timeNow is swapped out in tests.
var timeNow = time.Now

// userIDHeader selects the acting user. Absent means the single-user
// local default.
const userIDHeader = "X-User-ID"

const defaultUserID int64 = 1

func userIDFrom(r *http.Request) (int64, error) {
	v := strings.TrimSpace(r.Header.Get(userIDHeader))
	if v == "" {
		return defaultUserID, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: bad %s header", core.ErrInvalidInput, userIDHeader)
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func readJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	return nil
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrAlreadyApplied):
		return http.StatusConflict
	case errors.Is(err, core.ErrInvalidInput),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyName):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}

// pathID extracts the numeric segment following prefix, e.g. the 42 in
// /debts/42. A trailing suffix beyond the ID must match rest exactly.
func pathID(path, prefix, rest string) (int64, error) {
	tail := strings.TrimPrefix(path, prefix)
	if tail == path {
		return 0, core.ErrNotFound
	}
	if rest != "" {
		var ok bool
		tail, ok = strings.CutSuffix(tail, rest)
		if !ok {
			return 0, core.ErrNotFound
		}
	}
	id, err := strconv.ParseInt(strings.Trim(tail, "/"), 10, 64)
	if err != nil || id < 1 {
		return 0, core.ErrNotFound
	}
	return id, nil
}
