package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/evcraddock/luxury-estates/internal/collection"
	"github.com/evcraddock/luxury-estates/internal/inquiry"
	"github.com/evcraddock/luxury-estates/internal/ordering"
	"github.com/evcraddock/luxury-estates/internal/property"
	"github.com/evcraddock/luxury-estates/internal/proptype"
)

type errorResponse struct {
	Error   string `json:"error"`
	Applied *int   `json:"applied,omitempty"`
	Total   *int   `json:"total,omitempty"`
}

// statusFor maps a store or service error to an HTTP status.
func statusFor(err error) int {
	var partial *collection.PartialReorderError
	switch {
	case errors.As(err, &partial):
		return http.StatusBadGateway
	case errors.Is(err, collection.ErrNotFound), errors.Is(err, inquiry.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ordering.ErrIndexOutOfRange),
		errors.Is(err, property.ErrInvalid),
		errors.Is(err, proptype.ErrEmptyName),
		errors.Is(err, inquiry.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, proptype.ErrNameTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// apiError writes err as a JSON error with its mapped status. Internal
// errors are logged and not echoed to the caller.
func apiError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var partial *collection.PartialReorderError
	if errors.As(err, &partial) {
		resp.Applied = &partial.Applied
		resp.Total = &partial.Total
		slog.Error("partial reorder", "path", r.URL.Path, "applied", partial.Applied, "total", partial.Total, "error", partial.Err)
	}
	if status == http.StatusInternalServerError {
		slog.Error("api request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		resp.Error = "internal error"
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}

// apiMessage writes a JSON error with an explicit status.
func apiMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: msg})
}

// apiJSON writes v with the given status.
func apiJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

// orEmpty keeps empty lists encoding as [] rather than null.
func orEmpty[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
