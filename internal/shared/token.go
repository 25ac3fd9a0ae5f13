package shared

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// TokenClaims are the claims the identity endpoint puts in a session token.
type TokenClaims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// ParseTokenClaims decodes the claims of a session token without verifying its signature.
//
// The signing secret lives with the identity endpoint; the client only reads the claims.
func ParseTokenClaims(token string) (*TokenClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: token is empty", ErrInvalidArgument)
	}

	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: malformed token: %v", ErrInvalidArgument, err)
	}
	return claims, nil
}

// ExpiredAt reports whether the token has an expiry at or before now.
func (c *TokenClaims) ExpiredAt(now time.Time) bool {
	if c == nil || c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}
