package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// jwtClaims mirrors the wire payload: the user id travels in "id" and the
// email in "email", alongside the registered iat/exp claims.
type jwtClaims struct {
	Email  string `json:"email"`
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// jwtIssuer signs HS256 tokens with a shared secret.
type jwtIssuer struct {
	secret   []byte
	lifetime time.Duration
}

func newJWTIssuer(secret []byte, lifetime time.Duration) *jwtIssuer {
	return &jwtIssuer{secret: secret, lifetime: lifetime}
}

func (i *jwtIssuer) Issue(payload Payload) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		Email:  payload.Email,
		UserID: payload.UserID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			// iat/exp have second granularity; the unique token id keeps two
			// tokens issued within the same second distinct, so rotating a
			// refresh token always invalidates the previous one.
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.lifetime)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (i *jwtIssuer) Verify(tokenStr string) (*Claims, error) {
	var claims jwtClaims
	parsed, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}

	return &Claims{
		UserID:    userID,
		Email:     claims.Email,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
