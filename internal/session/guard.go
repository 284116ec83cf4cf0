package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/chatify/edge-server-go/internal/errors"
)

// TokenExpiry extracts the exp claim from a bearer token without verifying
// its signature. The gateway, like the browser it replaces, does not hold
// the backend's signing secret; the backend stays the final authority and
// may still reject an ostensibly valid token.
func TokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, err
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, fmt.Errorf("token has no exp claim")
	}
	return exp.Time, nil
}

// Validate is the local, optimistic authentication check: no network call is
// made. A missing, undecodable, or expired token all degrade to an
// unauthenticated result; this function never panics.
func Validate(token string) error {
	if token == "" {
		return apperrors.Unauthorized("Missing authentication token")
	}

	exp, err := TokenExpiry(token)
	if err != nil {
		return apperrors.InvalidToken("Malformed authentication token").WithCause(err)
	}

	// exp is seconds precision upstream; the comparison follows the client
	// convention of exp*1000 against wall-clock milliseconds.
	if exp.UnixMilli() <= time.Now().UnixMilli() {
		return apperrors.TokenExpired()
	}
	return nil
}

// IsAuthenticated reports whether the token would grant access to protected
// views right now.
func IsAuthenticated(token string) bool {
	return Validate(token) == nil
}
