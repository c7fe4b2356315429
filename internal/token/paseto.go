package token

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

// pasetoIssuer encrypts v4.local tokens with a 32-byte symmetric key
// (XChaCha20-Poly1305).
type pasetoIssuer struct {
	key      paseto.V4SymmetricKey
	lifetime time.Duration
}

func newPasetoIssuer(secret []byte, lifetime time.Duration) (*pasetoIssuer, error) {
	if len(secret) != 32 {
		return nil, fmt.Errorf("paseto key must be exactly 32 bytes, got %d", len(secret))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &pasetoIssuer{key: key, lifetime: lifetime}, nil
}

func (i *pasetoIssuer) Issue(payload Payload) (string, error) {
	now := time.Now()

	t := paseto.NewToken()
	t.SetIssuedAt(now)
	t.SetExpiration(now.Add(i.lifetime))
	t.SetString("id", payload.UserID.String())
	t.SetString("email", payload.Email)

	return t.V4Encrypt(i.key, nil), nil
}

func (i *pasetoIssuer) Verify(tokenStr string) (*Claims, error) {
	parser := paseto.NewParser()

	t, err := parser.ParseV4Local(i.key, tokenStr, nil)
	if err != nil {
		// The parser validates expiration by default; a rule error on an
		// otherwise authentic token means it expired.
		var ruleErr *paseto.RuleError
		if errors.As(err, &ruleErr) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	rawID, err := t.GetString("id")
	if err != nil {
		return nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	email, err := t.GetString("email")
	if err != nil {
		return nil, ErrInvalidToken
	}

	issuedAt, err := t.GetIssuedAt()
	if err != nil {
		return nil, ErrInvalidToken
	}
	expiresAt, err := t.GetExpiration()
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Claims{
		UserID:    userID,
		Email:     email,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}
