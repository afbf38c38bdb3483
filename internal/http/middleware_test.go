package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/example/scanventory/internal/application"
)

type stubPinVerifier struct {
	enabled bool
	pin     string
	calls   int
}

func (s *stubPinVerifier) Enabled() bool { return s.enabled }

func (s *stubPinVerifier) Verify(pin string) error {
	s.calls++
	if pin != s.pin {
		return application.ErrInvalidPin
	}
	return nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireOperatorPin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		verifier       *stubPinVerifier
		header         string
		expectedStatus int
	}{
		{name: "disabled verifier passes through", verifier: &stubPinVerifier{}, expectedStatus: http.StatusNoContent},
		{name: "missing pin", verifier: &stubPinVerifier{enabled: true, pin: "4711"}, expectedStatus: http.StatusUnauthorized},
		{name: "wrong pin", verifier: &stubPinVerifier{enabled: true, pin: "4711"}, header: "1234", expectedStatus: http.StatusForbidden},
		{name: "matching pin", verifier: &stubPinVerifier{enabled: true, pin: "4711"}, header: " 4711 ", expectedStatus: http.StatusNoContent},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			handler := RequireOperatorPin(tc.verifier, slog.New(slog.DiscardHandler))(okHandler())
			req := httptest.NewRequest(http.MethodPost, "/scans", nil)
			if tc.header != "" {
				req.Header.Set(operatorPinHeader, tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.expectedStatus {
				t.Fatalf("expected status %d, got %d (%s)", tc.expectedStatus, rec.Code, rec.Body.String())
			}
		})
	}

	t.Run("nil verifier passes through", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		RequireOperatorPin(nil, nil)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/keys", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected pass through, got %d", rec.Code)
		}
	})
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestRequireBearer(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	valid := signedToken(t, jwt.MapClaims{"user_id": float64(7), "username": "mmuster", "exp": now.Add(time.Hour).Unix()})
	expired := signedToken(t, jwt.MapClaims{"user_id": float64(7), "exp": now.Add(-time.Hour).Unix()})

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{name: "missing header", expectedStatus: http.StatusUnauthorized},
		{name: "basic auth", header: "Basic Zm9vOmJhcg==", expectedStatus: http.StatusUnauthorized},
		{name: "malformed token", header: "Bearer malformed", expectedStatus: http.StatusUnauthorized},
		{name: "expired token", header: "Bearer " + expired, expectedStatus: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer " + valid, expectedStatus: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + valid, expectedStatus: http.StatusOK},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var seen application.Principal
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				principal, ok := PrincipalFromContext(r.Context())
				if !ok {
					t.Fatalf("expected principal in context")
				}
				seen = principal
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/reservations/manual", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			RequireBearer(clock, slog.New(slog.DiscardHandler))(next).ServeHTTP(rec, req)

			if rec.Code != tc.expectedStatus {
				t.Fatalf("expected status %d, got %d (%s)", tc.expectedStatus, rec.Code, rec.Body.String())
			}
			if tc.expectedStatus == http.StatusOK {
				if seen.UserID != "7" || seen.Token != valid {
					t.Fatalf("unexpected principal %+v", seen)
				}
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	t.Run("reuses incoming request id", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		var fromContext *slog.Logger
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fromContext = LoggerFromContext(r.Context())
			w.WriteHeader(http.StatusTeapot)
		})

		req := httptest.NewRequest(http.MethodGet, "/session", nil)
		req.Header.Set(requestIDHeader, "req-42")
		rec := httptest.NewRecorder()
		RequestLogger(base)(next).ServeHTTP(rec, req)

		if fromContext == nil {
			t.Fatal("expected request logger in context")
		}
		if got := rec.Header().Get(requestIDHeader); got != "req-42" {
			t.Fatalf("expected echoed request id, got %q", got)
		}

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		var completed map[string]any
		if err := json.Unmarshal([]byte(lines[len(lines)-1]), &completed); err != nil {
			t.Fatalf("failed to decode log line: %v", err)
		}
		if completed["request_id"] != "req-42" || completed["path"] != "/session" {
			t.Fatalf("unexpected log attributes %v", completed)
		}
		if status, _ := completed["status"].(float64); int(status) != http.StatusTeapot {
			t.Fatalf("expected logged status %d, got %v", http.StatusTeapot, completed["status"])
		}
	})

	t.Run("generates a uuid when absent", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		RequestLogger(slog.New(slog.DiscardHandler))(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		if _, err := uuid.Parse(rec.Header().Get(requestIDHeader)); err != nil {
			t.Fatalf("expected generated uuid, got %q: %v", rec.Header().Get(requestIDHeader), err)
		}
	})
}
