package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/yourorg/tastebook/internal/domain"
	"github.com/yourorg/tastebook/internal/tenant"
)

func init() {
	// ratings and prices are JSON numbers on the wire
	decimal.MarshalJSONWithoutQuotes = true
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Detail string            `json:"detail"`
	Errors map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the domain error taxonomy onto HTTP
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrProtected):
		return http.StatusConflict
	case errors.Is(err, tenant.ErrNoActor):
		return http.StatusUnauthorized
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Detail: http.StatusText(status)}

	switch status {
	case http.StatusBadRequest:
		resp.Detail = "validation failed"
		resp.Errors = domain.FieldErrors(err)
	case http.StatusForbidden, http.StatusConflict:
		resp.Detail = err.Error()
	case http.StatusInternalServerError:
		log.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	writeJSON(w, status, resp)
}
