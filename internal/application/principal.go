package application

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// accessClaims mirrors the claims the reservation backend puts in its access
// tokens.
type accessClaims struct {
	UserID   any    `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// PrincipalFromToken reads the acting user from a bearer token. The signature
// is not checked here; the backend verifies it on every forwarded request.
// Expired tokens are rejected so the caller gets a local 401 instead of a
// backend round trip.
func PrincipalFromToken(token string, now time.Time) (Principal, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return Principal{}, ErrUnauthorized
	}

	var claims accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil && !exp.After(now) {
		return Principal{}, fmt.Errorf("%w: token expired", ErrUnauthorized)
	}

	principal := Principal{
		UserID:   claimString(claims.UserID),
		Username: claims.Username,
		Role:     claims.Role,
		Token:    token,
	}
	if principal.UserID == "" {
		principal.UserID = claims.Subject
	}
	if principal.UserID == "" && principal.Username == "" {
		return Principal{}, fmt.Errorf("%w: token carries no user", ErrUnauthorized)
	}
	return principal, nil
}

func claimString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case nil:
		return ""
	}
	return fmt.Sprint(value)
}
