// Package tokens issues and validates the HS256 bearer tokens that carry
// request identity end to end (§4.2).
package tokens

import (
	stderrors "errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sys3222/akshare-mcp-adapter/internal/errors"
)

// Claims is the JWT payload: subject is the username, issued/expiry times
// bound the token's validity window.
type Claims struct {
	jwt.RegisteredClaims
}

// Issuer signs and validates tokens with one HS256 secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer builds an Issuer. secret must be at least 32 bytes (enforced at
// config load, not here) and ttl is the lifetime stamped on newly issued
// tokens.
func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	return &Issuer{secret: secret, ttl: ttl}
}

// Issue mints a signed token for username, valid from now for the
// Issuer's configured TTL.
func (i *Issuer) Issue(username string) (string, time.Time, error) {
	now := time.Now().UTC()
	expiry := now.Add(i.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, errors.Internal("failed to sign token", err)
	}
	return signed, expiry, nil
}

// Validate parses and verifies raw, returning the subject username on
// success. Malformed tokens, bad signatures, and expired tokens map to
// three distinct Kinds (§4.2); C10's auth middleware collapses them to a
// single coarse 401 at the HTTP boundary (§4.10(iv)) but callers of
// Validate itself can still distinguish the failure mode.
func (i *Issuer) Validate(raw string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return i.secret, nil
	})
	if err != nil {
		switch {
		case stderrors.Is(err, jwt.ErrTokenExpired):
			return "", errors.TokenExpired("token expired")
		case stderrors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", errors.TokenInvalidSignature("bad token signature")
		case stderrors.Is(err, jwt.ErrTokenMalformed):
			return "", errors.TokenMalformed("malformed token")
		default:
			return "", errors.Unauthorized("invalid token")
		}
	}
	if !token.Valid {
		return "", errors.Unauthorized("invalid token")
	}
	if claims.Subject == "" {
		return "", errors.Unauthorized("token missing subject")
	}
	return claims.Subject, nil
}
