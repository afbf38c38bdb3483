package application

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestPrincipalFromToken(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC)

	t.Run("reads backend claims", func(t *testing.T) {
		t.Parallel()
		token := signToken(t, jwt.MapClaims{
			"user_id":  float64(42),
			"username": "mmuster",
			"role":     "user",
			"exp":      now.Add(time.Hour).Unix(),
		})

		principal, err := PrincipalFromToken("Bearer "+token, now)
		if err != nil {
			t.Fatalf("PrincipalFromToken returned error: %v", err)
		}
		if principal.UserID != "42" || principal.Username != "mmuster" || principal.Role != "user" {
			t.Fatalf("unexpected principal %+v", principal)
		}
		if principal.Token != token {
			t.Fatalf("expected bare token to be kept")
		}
	})

	t.Run("falls back to subject", func(t *testing.T) {
		t.Parallel()
		principal, err := PrincipalFromToken(signToken(t, jwt.MapClaims{"sub": "u-9"}), now)
		if err != nil {
			t.Fatalf("PrincipalFromToken returned error: %v", err)
		}
		if principal.UserID != "u-9" {
			t.Fatalf("expected subject as user id, got %q", principal.UserID)
		}
	})

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "bearer only", token: "Bearer "},
		{name: "garbage", token: "not-a-jwt"},
		{name: "expired", token: signToken(t, jwt.MapClaims{"user_id": "1", "exp": now.Add(-time.Minute).Unix()})},
		{name: "no user", token: signToken(t, jwt.MapClaims{"role": "admin"})},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := PrincipalFromToken(tc.token, now); !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}
