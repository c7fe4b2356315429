package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"tasktracker/internal/config"
	"tasktracker/internal/httputil"
	"tasktracker/internal/logging"
	"tasktracker/internal/token"
)

// Handler contains HTTP handlers for the session endpoints. It owns the
// transport concerns the session service is agnostic to: request decoding,
// the refresh-token extraction strategy, and cookies.
type Handler struct {
	service       *Service
	refreshIssuer token.Issuer
	extractor     RefreshTokenExtractor
	logger        *logging.Logger
	useCookies    bool
	secureCookies bool
	authConfig    config.AuthConfig
}

func NewHandler(
	service *Service,
	refreshIssuer token.Issuer,
	extractor RefreshTokenExtractor,
	logger *logging.Logger,
	authConfig config.AuthConfig,
	isProduction bool,
) *Handler {
	return &Handler{
		service:       service,
		refreshIssuer: refreshIssuer,
		extractor:     extractor,
		logger:        logger,
		useCookies:    authConfig.RefreshTokenSource == config.RefreshFromCookie,
		secureCookies: isProduction,
		authConfig:    authConfig,
	}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MessageResponse represents a confirmation message
type MessageResponse struct {
	Message string `json:"message"`
}

// Login handles user login
// @Summary      Login user
// @Description  Verify credentials and receive a token pair with expirations
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} SessionResult
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      401 {object} httputil.ErrorResponse "Credential is not valid"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondSessionError(w, logger, "login", err)
		return
	}

	logger.Info("user logged in", "user_id", result.User.ID)

	h.respondSession(w, result)
}

// Refresh handles refresh-token rotation
// @Summary      Refresh token pair
// @Description  Present a valid refresh token to receive a new token pair; the old refresh token is invalidated
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200 {object} SessionResult
// @Failure      401 {object} httputil.ErrorResponse "Credential is not valid"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	presented, err := h.extractor.Extract(r)
	if err != nil {
		logger.Warn("refresh token missing from request")
		httputil.RespondErrorWithCode(w, InvalidCredentialsMessage, httputil.CodeRefreshTokenMissing, http.StatusUnauthorized)
		return
	}

	// The signature check recovers the user id; whether this exact token is
	// still the active one is decided against the stored hash.
	claims, err := h.refreshIssuer.Verify(presented)
	if err != nil {
		logger.Warn("refresh token failed verification", "error", err.Error())
		httputil.RespondErrorWithCode(w, InvalidCredentialsMessage, httputil.CodeInvalidCredentials, http.StatusUnauthorized)
		return
	}

	result, err := h.service.Refresh(r.Context(), presented, claims.UserID)
	if err != nil {
		h.respondSessionError(w, logger, "refresh", err)
		return
	}

	logger.Info("session refreshed", "user_id", result.User.ID)

	h.respondSession(w, result)
}

// Logout handles user logout
// @Summary      Logout user
// @Description  Clear the stored refresh-token hash, invalidating future refresh attempts
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} MessageResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	if err := h.service.Logout(r.Context(), userID); err != nil {
		logger.Error("logout failed", "error", err.Error(), "user_id", userID)
		httputil.RespondErrorWithCode(w, "unable to log out", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	if h.useCookies {
		ClearSessionCookies(w, h.secureCookies)
	}

	email, _ := GetUserEmailFromContext(r.Context())
	logger.Info("user logged out", "user_id", userID, "email", email)

	httputil.RespondJSON(w, MessageResponse{Message: "Logged out successfully"}, http.StatusOK)
}

func (h *Handler) respondSession(w http.ResponseWriter, result *SessionResult) {
	if h.useCookies {
		SetSessionCookies(w, result.AccessToken, result.RefreshToken, h.secureCookies,
			h.authConfig.AccessTokenDuration(), h.authConfig.RefreshTokenDuration())
	}
	httputil.RespondJSON(w, result, http.StatusOK)
}

func (h *Handler) respondSessionError(w http.ResponseWriter, logger *logging.Logger, operation string, err error) {
	if errors.Is(err, ErrInvalidCredentials) {
		logger.Warn(operation+" rejected", "error", err.Error())
		httputil.RespondErrorWithCode(w, InvalidCredentialsMessage, httputil.CodeInvalidCredentials, http.StatusUnauthorized)
		return
	}
	logger.Error(operation+" failed", "error", err.Error())
	httputil.RespondErrorWithCode(w, "failed to "+operation, httputil.CodeInternalError, http.StatusInternalServerError)
}
