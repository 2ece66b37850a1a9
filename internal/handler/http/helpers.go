package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/production-orders/internal/apperr"
)

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

// respondWithError sends a JSON error body.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON sends a JSON body.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrInvalidTransition):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError maps err to a status code. Internal failures answer
// with fallback and keep their detail in the log.
func respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	statusCode := mapErrorToStatusCode(err)

	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		log.Warn().Err(err).Msg(fallback)
		respondWithJSON(w, statusCode, ValidationErrorResponse{
			Error:   "Validation failed",
			Details: ve.Fields,
		})
		return
	}

	if statusCode == http.StatusInternalServerError {
		log.Error().Err(err).Msg(fallback)
		respondWithError(w, statusCode, fallback)
		return
	}

	log.Warn().Err(err).Int("status", statusCode).Msg(fallback)
	respondWithError(w, statusCode, apperr.Message(err, fallback))
}

// decodeJSON decodes a single JSON object from the request body and rejects
// unknown fields. An empty body is accepted when allowEmpty is set.
func decodeJSON(r *http.Request, dst interface{}, allowEmpty bool) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	err := decoder.Decode(dst)
	if errors.Is(err, io.EOF) && allowEmpty {
		return nil
	}
	return err
}

const dateOnly = "2006-01-02"

// parseDate accepts RFC3339 timestamps and plain dates. A plain date used as
// an inclusive upper bound covers the whole day.
func parseDate(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(dateOnly, raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// parseRange reads the start and end query parameters.
func parseRange(r *http.Request) (start, end *time.Time, err error) {
	q := r.URL.Query()
	start, err = parseDate(q.Get("start"), false)
	if err != nil {
		return nil, nil, apperr.Validation("start", "must be an RFC3339 timestamp or YYYY-MM-DD date")
	}
	end, err = parseDate(q.Get("end"), true)
	if err != nil {
		return nil, nil, apperr.Validation("end", "must be an RFC3339 timestamp or YYYY-MM-DD date")
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, apperr.Validation("end", "must not be before start")
	}
	return start, end, nil
}
