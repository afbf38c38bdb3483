package http

import (
	"context"
	"log/slog"

	"github.com/example/scanventory/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// handlerLogger scopes the request logger to a handler operation and adds the
// bearer principal when one was authenticated.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	if principal, ok := PrincipalFromContext(ctx); ok && principal.UserID != "" {
		attrs = append(attrs, "principal_id", principal.UserID)
	}
	return logging.Scoped(ctx, fallback, "handler", handlerName, operation, attrs...)
}
