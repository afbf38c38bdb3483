package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/scanventory/internal/application"
)

const (
	requestIDHeader   = "X-Request-ID"
	operatorPinHeader = "X-Operator-Pin"
)

// PinVerifier checks operator PINs.
type PinVerifier interface {
	Enabled() bool
	Verify(pin string) error
}

// RequireOperatorPin rejects requests whose X-Operator-Pin header does not
// match. It passes everything through when the verifier is disabled.
func RequireOperatorPin(verifier PinVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil || !verifier.Enabled() {
				next.ServeHTTP(w, r)
				return
			}
			pin := strings.TrimSpace(r.Header.Get(operatorPinHeader))
			if pin == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingPin)
				return
			}
			if err := verifier.Verify(pin); err != nil {
				if !errors.Is(err, application.ErrInvalidPin) {
					responder.loggerFor(r.Context()).ErrorContext(r.Context(), "operator pin verification failed", "error", err)
				}
				responder.handleServiceError(r.Context(), w, application.ErrInvalidPin)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireBearer parses the Authorization header into a principal and stores
// it in the request context.
func RequireBearer(now func() time.Time, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)
	if now == nil {
		now = time.Now
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingBearer)
				return
			}
			principal, err := application.PrincipalFromToken(token, now())
			if err != nil {
				responder.handleServiceError(r.Context(), w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

// RequestLogger attaches a request scoped logger carrying a request id. An
// incoming X-Request-ID header is reused, otherwise a UUID is generated.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)

			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			logger.DebugContext(ctx, "request started")
			next.ServeHTTP(recorder, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "status", recorder.status, "duration", time.Since(start))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func extractBearerToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
