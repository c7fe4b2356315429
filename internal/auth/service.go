package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"tasktracker/internal/logging"
	"tasktracker/internal/password"
	"tasktracker/internal/token"
	"tasktracker/internal/user"
)

// UserStore is the persistence seam the session service consumes.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	Update(ctx context.Context, id uuid.UUID, patch user.Patch) (*user.User, error)
}

// SessionResult is what a successful login or refresh hands back to the
// transport layer. Expirations are plaintext milliseconds matching the
// configured values; the tokens themselves embed whole seconds.
type SessionResult struct {
	User                  user.SerializedUser `json:"user"`
	AccessToken           string              `json:"accessToken"`
	RefreshToken          string              `json:"refreshToken"`
	AccessTokenExpiresIn  int64               `json:"accessTokenExpiresIn"`
	RefreshTokenExpiresIn int64               `json:"refreshTokenExpiresIn"`
}

// Service orchestrates the session lifecycle: login verifies credentials and
// issues a token pair, refresh verifies the presented refresh token against
// the stored hash and reissues, logout clears the stored hash. Every login
// and refresh rotates the stored refresh-token hash, invalidating the
// previous refresh token.
type Service struct {
	store         UserStore
	hasher        *password.Hasher
	accessIssuer  token.Issuer
	refreshIssuer token.Issuer
	logger        *logging.Logger

	accessExpirationMs  int64
	refreshExpirationMs int64
}

func NewService(
	store UserStore,
	hasher *password.Hasher,
	accessIssuer token.Issuer,
	refreshIssuer token.Issuer,
	logger *logging.Logger,
	accessExpirationMs int64,
	refreshExpirationMs int64,
) *Service {
	return &Service{
		store:               store,
		hasher:              hasher,
		accessIssuer:        accessIssuer,
		refreshIssuer:       refreshIssuer,
		logger:              logger,
		accessExpirationMs:  accessExpirationMs,
		refreshExpirationMs: refreshExpirationMs,
	}
}

// Login verifies the credentials and, on success, issues a fresh token pair
// and rotates the stored refresh-token hash. Every failure before issuance
// collapses into ErrInvalidCredentials so callers cannot probe for account
// existence.
func (s *Service) Login(ctx context.Context, email, plaintextPassword string) (*SessionResult, error) {
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Error("login failed: user lookup", "error", err.Error())
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(plaintextPassword, u.PasswordHash) {
		s.logger.Error("login failed: password mismatch")
		return nil, ErrInvalidCredentials
	}

	return s.issueSession(ctx, u)
}

// Refresh verifies the presented refresh token against the hash stored for
// userID and, on success, behaves exactly like a login: new token pair, new
// stored hash. A user without a stored hash and a nonexistent user are
// indistinguishable to the caller.
func (s *Service) Refresh(ctx context.Context, presentedRefreshToken string, userID uuid.UUID) (*SessionResult, error) {
	u, err := s.store.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error("refresh failed: user lookup", "error", err.Error())
		return nil, ErrInvalidCredentials
	}

	if u.RefreshTokenHash == nil {
		s.logger.Error("refresh failed: no stored refresh token", "user_id", userID)
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(presentedRefreshToken, *u.RefreshTokenHash) {
		s.logger.Error("refresh failed: token does not match stored hash", "user_id", userID)
		return nil, ErrInvalidCredentials
	}

	return s.issueSession(ctx, u)
}

// Logout clears the stored refresh-token hash, immediately invalidating any
// future refresh attempt. Persistence failure is surfaced: logout is
// confirmable, not best-effort.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.store.Update(ctx, userID, user.Patch{RefreshTokenHash: user.HashNull()}); err != nil {
		s.logger.Error("logout failed: could not clear refresh token", "error", err.Error(), "user_id", userID)
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}

// issueSession is the rotation point shared by login and refresh: issue both
// tokens, hash the new refresh token, and overwrite the stored hash. Any
// failure here must surface; a partial success is never returned.
func (s *Service) issueSession(ctx context.Context, u *user.User) (*SessionResult, error) {
	payload := token.Payload{UserID: u.ID, Email: u.Email}

	accessToken, err := s.accessIssuer.Issue(payload)
	if err != nil {
		s.logger.Error("failed to issue access token", "error", err.Error(), "user_id", u.ID)
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refreshToken, err := s.refreshIssuer.Issue(payload)
	if err != nil {
		s.logger.Error("failed to issue refresh token", "error", err.Error(), "user_id", u.ID)
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	refreshTokenHash, err := s.hasher.Hash(refreshToken)
	if err != nil {
		s.logger.Error("failed to hash refresh token", "error", err.Error(), "user_id", u.ID)
		return nil, fmt.Errorf("failed to hash refresh token: %w", err)
	}

	updated, err := s.store.Update(ctx, u.ID, user.Patch{RefreshTokenHash: user.HashValue(refreshTokenHash)})
	if err != nil {
		s.logger.Error("failed to persist rotated refresh token", "error", err.Error(), "user_id", u.ID)
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	return &SessionResult{
		User:                  updated.Serialize(),
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		AccessTokenExpiresIn:  s.accessExpirationMs,
		RefreshTokenExpiresIn: s.refreshExpirationMs,
	}, nil
}
