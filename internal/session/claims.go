package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/plmware/forecast-api/internal/domain"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims is the user information carried in the upstream-issued token.
// The token is minted and signature-checked by the upstream backend; this
// service only reads the payload to scope requests and gate role checks,
// so it parses without verifying the signature.
type Claims struct {
	UserID string
	Name   string
	Role   domain.Role
	Exp    int64
}

// Decode parses the claims out of a token without verifying its
// signature. Any structural problem is an error; callers treat a token
// that cannot be decoded the same as an expired one.
func Decode(tokenString string) (*Claims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	c := &Claims{
		UserID: extractString(claims, "user_id", "sub"),
		Name:   extractString(claims, "name"),
		Role:   domain.Role(extractString(claims, "role")),
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("%w: missing exp claim", ErrInvalidToken)
	}
	c.Exp = exp.Unix()

	if c.UserID == "" {
		return nil, fmt.Errorf("%w: missing user_id claim", ErrInvalidToken)
	}

	return c, nil
}

// ExpiresAt returns the expiry instant of the claims
func (c *Claims) ExpiresAt() time.Time {
	return time.Unix(c.Exp, 0)
}

// IsExpired reports whether a token is expired as of now. A token that
// cannot be decoded counts as expired; expiry failures never fail open.
func IsExpired(tokenString string, now time.Time) bool {
	c, err := Decode(tokenString)
	if err != nil {
		return true
	}
	return !c.ExpiresAt().After(now)
}

func extractString(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		if val, ok := claims[key]; ok {
			if str, ok := val.(string); ok && str != "" {
				return str
			}
		}
	}
	return ""
}
