package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"tasktracker/internal/config"
)

// RefreshTokenExtractor pulls the presented refresh token out of an inbound
// request. Two transports exist in the wild for this API: a Refresh cookie
// and a JSON body field. The session handlers are agnostic; the concrete
// strategy is chosen once from configuration.
type RefreshTokenExtractor interface {
	Extract(r *http.Request) (string, error)
}

// NewRefreshTokenExtractor selects the extractor for the configured source.
func NewRefreshTokenExtractor(source config.RefreshTokenSource) (RefreshTokenExtractor, error) {
	switch source {
	case config.RefreshFromCookie:
		return CookieExtractor{}, nil
	case config.RefreshFromBody:
		return BodyExtractor{}, nil
	default:
		return nil, fmt.Errorf("unknown refresh token source %q", source)
	}
}

// CookieExtractor reads the refresh token from the Refresh cookie.
type CookieExtractor struct{}

func (CookieExtractor) Extract(r *http.Request) (string, error) {
	cookie, err := r.Cookie(RefreshTokenCookieName)
	if err != nil || cookie.Value == "" {
		return "", ErrRefreshTokenMissing
	}
	return strings.TrimSpace(cookie.Value), nil
}

// BodyExtractor reads the refresh token from a JSON body: {"refreshToken": "..."}.
type BodyExtractor struct{}

type refreshTokenBody struct {
	RefreshToken string `json:"refreshToken"`
}

func (BodyExtractor) Extract(r *http.Request) (string, error) {
	var body refreshTokenBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return "", ErrRefreshTokenMissing
	}
	token := strings.TrimSpace(body.RefreshToken)
	if token == "" {
		return "", ErrRefreshTokenMissing
	}
	return token, nil
}
