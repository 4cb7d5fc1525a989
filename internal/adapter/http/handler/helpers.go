package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/iho/stockledger/internal/adapter/http/dto"
	"github.com/iho/stockledger/internal/adapter/http/middleware"
	"github.com/iho/stockledger/internal/domain"
)

const dateLayout = "2006-01-02"

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError writes err with the status it maps to.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeJSON(w, mapDomainError(err), dto.ErrorResponse{
		Error:   message,
		Message: err.Error(),
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoLedgerHistory):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateSKU):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, domain.ErrProductInactive):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidMovement):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidProduct):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidDateRange):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientRole):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// decodeAndValidate decodes a JSON body into v and checks its tags. On
// failure it writes a 400 and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}

	if err := dto.Validate(v); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:  "validation failed",
			Fields: dto.FieldErrors(err),
		})
		return false
	}

	return true
}

// requireActor returns the actor resolved by the auth middleware.
func requireActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "no actor on request")
	}
	return actor, ok
}

// writeEntries answers a movement request. Entries written before a failure
// are always reported. A stale projection is not a failure: the entries are
// final, so it is answered with 202 and a warning.
func writeEntries(w http.ResponseWriter, entries []*domain.LedgerEntry, err error, message string) {
	if err == nil {
		writeJSON(w, http.StatusCreated, dto.MovementResponse{
			Entries: dto.LedgerEntriesFromDomain(entries),
		})
		return
	}

	var stale *domain.ProjectionStaleError
	if errors.As(err, &stale) {
		writeJSON(w, http.StatusAccepted, dto.MovementResponse{
			Entries: dto.LedgerEntriesFromDomain(entries),
			Warning: err.Error(),
		})
		return
	}

	resp := dto.ErrorResponse{
		Error:   message,
		Message: err.Error(),
	}
	if len(entries) > 0 {
		resp.Applied = dto.LedgerEntriesFromDomain(entries)
	}
	writeJSON(w, mapDomainError(err), resp)
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parseBoolQuery parses a boolean query parameter, defaulting to false.
func parseBoolQuery(r *http.Request, key string) bool {
	b, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && b
}

// parseTimeQuery accepts RFC 3339 or a plain date. A plain date used as an
// upper bound covers the whole day.
func parseTimeQuery(r *http.Request, key string, upperBound bool) (*time.Time, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return &t, nil
	}

	t, err := time.Parse(dateLayout, val)
	if err != nil {
		return nil, fmt.Errorf("%s must be RFC 3339 or YYYY-MM-DD, got %q", key, val)
	}
	if upperBound {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// parsePeriod reads the from and to query parameters. Missing bounds are
// left zero for the use case to default.
func parsePeriod(r *http.Request) (time.Time, time.Time, error) {
	var from, to time.Time

	f, err := parseTimeQuery(r, "from", false)
	if err != nil {
		return from, to, err
	}
	t, err := parseTimeQuery(r, "to", true)
	if err != nil {
		return from, to, err
	}

	if f != nil {
		from = *f
	}
	if t != nil {
		to = *t
	}
	return from, to, nil
}
