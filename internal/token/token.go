// Package token issues and verifies signed, self-contained tokens carrying a
// {user id, email} payload. Two issuers are configured per process, one for
// short-lived access tokens and one for long-lived refresh tokens, each with
// its own secret and lifetime.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Payload is what callers put into a token. It exists only inside a signed
// token; it is never persisted.
type Payload struct {
	UserID uuid.UUID
	Email  string
}

// Claims is what verification returns: the payload plus the embedded times.
type Claims struct {
	UserID    uuid.UUID
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issuer produces and verifies signed tokens. Implementations are selected by
// configuration: JWT HS256 or PASETO v4.local.
type Issuer interface {
	Issue(payload Payload) (string, error)
	Verify(token string) (*Claims, error)
}

// Backends accepted by NewIssuer.
const (
	BackendJWT    = "jwt"
	BackendPaseto = "paseto"
)

// NewIssuer builds an issuer for the given backend. The lifetime is given in
// milliseconds and embedded in tokens as whole seconds (floor). Invalid
// configuration is an error here so startup fails fast.
func NewIssuer(backend, secret string, lifetimeMs int64) (Issuer, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	if lifetimeMs < 1000 {
		return nil, fmt.Errorf("token lifetime must be at least 1000 ms, got %d", lifetimeMs)
	}

	lifetime := time.Duration(lifetimeMs/1000) * time.Second

	switch backend {
	case BackendJWT:
		return newJWTIssuer([]byte(secret), lifetime), nil
	case BackendPaseto:
		return newPasetoIssuer([]byte(secret), lifetime)
	default:
		return nil, fmt.Errorf("unknown token backend %q", backend)
	}
}
