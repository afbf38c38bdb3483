package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/scanventory/internal/gateway"
	"github.com/example/scanventory/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	return logging.Scoped(ctx, base, "service", serviceName, operation, attrs...)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUnauthorized), errors.Is(err, gateway.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound), errors.Is(err, gateway.ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidPin):
		return "invalid_pin"
	case errors.Is(err, ErrBackendUnavailable), errors.Is(err, gateway.ErrTransport):
		return "backend_unavailable"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		return "backend_rejected"
	}

	return "unexpected"
}
