package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/scanventory/internal/application"
	"github.com/example/scanventory/internal/gateway"
	"github.com/example/scanventory/internal/session"
)

var (
	errBadRequestBody     = errors.New("invalid request body")
	errInvalidReservation = errors.New("invalid reservation id")
	errMissingBearer      = errors.New("bearer token required")
	errMissingPin         = errors.New("operator pin required")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := statusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).WarnContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var (
		vErr   *application.ValidationError
		apiErr *gateway.APIError
	)
	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_REQUIRED",
			Message:   withReason(statusMessage(http.StatusUnauthorized), err),
		})
	case errors.Is(err, application.ErrInvalidPin):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{ErrorCode: "PIN_INVALID", Message: "operator pin does not match"})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: statusMessage(http.StatusNotFound)})
	case errors.As(err, &vErr):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			Message: statusMessage(http.StatusUnprocessableEntity),
			Errors:  vErr.FieldErrors,
		})
	case errors.Is(err, application.ErrBackendUnavailable):
		r.writeJSON(ctx, w, http.StatusBadGateway, errorResponse{ErrorCode: "BACKEND_UNAVAILABLE", Message: "reservation backend unreachable"})
	case errors.As(err, &apiErr):
		status := http.StatusBadGateway
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			status = http.StatusConflict
		}
		r.writeJSON(ctx, w, status, errorResponse{ErrorCode: "BACKEND_REJECTED", Message: withReason("request rejected by the reservation backend", err)})
	case errors.Is(err, session.ErrEmptyToken):
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Message: "token must not be empty"})
	case errors.Is(err, session.ErrStationStopped):
		r.writeJSON(ctx, w, http.StatusServiceUnavailable, errorResponse{Message: "station is shutting down"})
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "unhandled service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: statusMessage(http.StatusInternalServerError)})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func withReason(message string, err error) string {
	if reason := gateway.Reason(err); reason != "" {
		return message + ": " + reason
	}
	return message
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "the request is malformed"
	case http.StatusUnauthorized:
		return "authentication required"
	case http.StatusForbidden:
		return "operation not permitted"
	case http.StatusNotFound:
		return "resource not found"
	case http.StatusUnprocessableEntity:
		return "the request contains invalid fields"
	default:
		return "internal server error"
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
