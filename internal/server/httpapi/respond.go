package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/dmitrijs2005/animeflix/internal/common"
)

// statusClientClosedRequest records requests the client gave up on. Nothing
// reads the response, so it only shows up in logs and metrics.
const statusClientClosedRequest = 499

type errorBody struct {
	Error string `json:"error"`
}

type validationBody struct {
	Errors []common.FieldError `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, s string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(s))
}

// writeError is the single place errors become HTTP responses. Anything not
// in the taxonomy is logged in full and reported as a bare 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *common.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, validationBody{Errors: verr.Fields})
	case errors.Is(err, common.ErrInvalidInput):
		writeJSON(w, http.StatusUnprocessableEntity, validationBody{Errors: []common.FieldError{
			{Rule: "invalid", Message: err.Error()},
		}})
	case errors.Is(err, common.ErrDuplicateAccount):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, common.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrUnauthenticated),
		errors.Is(err, common.ErrTokenMalformed),
		errors.Is(err, common.ErrTokenExpired):
		w.Header().Set("WWW-Authenticate", common.BearerScheme)
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
	case errors.Is(err, common.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden"})
	case errors.Is(err, common.ErrStoreUnavailable):
		h.logger.Warn(r.Context(), "store unavailable", "error", err)
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "service temporarily unavailable"})
	case errors.Is(err, context.Canceled):
		h.logger.Debug(r.Context(), "request abandoned by client", "method", r.Method, "path", r.URL.Path)
		w.WriteHeader(statusClientClosedRequest)
	default:
		h.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}

// decodeJSON reads a size-limited JSON body into v. Malformed bodies are
// reported as invalid input on the "body" field.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &common.ValidationError{Fields: []common.FieldError{{
			Field:   "body",
			Rule:    "json",
			Message: "request body is not valid JSON: " + err.Error(),
		}}}
	}
	return nil
}

const maxBodyBytes = 1 << 20
