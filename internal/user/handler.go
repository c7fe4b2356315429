package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tasktracker/internal/httputil"
	"tasktracker/internal/logging"
)

var (
	ErrEmailRequired      = errors.New("email is required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
)

// Handler contains HTTP handlers for user endpoints
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// CreateRequest represents the registration request body
type CreateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateRequest represents a partial user update. Absent fields are left
// unchanged.
type UpdateRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func validateCredentials(email, password string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if len(email) > 254 {
		return ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmailFormat
	}
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	return nil
}

// Create handles user registration
// @Summary      Create a new user
// @Description  Register a new user account with email and password
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body CreateRequest true "Registration credentials"
// @Success      201 {object} SerializedUser
// @Failure      400 {object} httputil.ErrorResponse "Invalid request or validation error"
// @Failure      409 {object} httputil.ErrorResponse "Email already exists"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /users [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid create user request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := validateCredentials(req.Email, req.Password); err != nil {
		logger.Warn("user validation failed", "error", err.Error())
		code := httputil.CodeInvalidRequestBody
		switch {
		case errors.Is(err, ErrEmailRequired):
			code = httputil.CodeEmailRequired
		case errors.Is(err, ErrInvalidEmailFormat):
			code = httputil.CodeInvalidEmailFormat
		case errors.Is(err, ErrPasswordRequired):
			code = httputil.CodePasswordRequired
		case errors.Is(err, ErrPasswordTooShort):
			code = httputil.CodePasswordTooShort
		}
		httputil.RespondErrorWithCode(w, err.Error(), code, http.StatusBadRequest)
		return
	}

	created, err := h.repo.Create(r.Context(), CreateUser{Email: req.Email, Password: req.Password})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			logger.Warn("user creation failed: email already exists")
			httputil.RespondErrorWithCode(w, "email already exists", httputil.CodeEmailAlreadyExists, http.StatusConflict)
			return
		}
		logger.Error("user creation failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to create user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user created", "user_id", created.ID)

	httputil.RespondJSON(w, created.Serialize(), http.StatusCreated)
}

// List handles listing all users
// @Summary      Get all users
// @Description  List all registered users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} SerializedUser
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /users [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	users, err := h.repo.List(r.Context())
	if err != nil {
		logger.Error("failed to list users", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list users", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, users, http.StatusOK)
}

// Update handles partial user updates
// @Summary      Update a user
// @Description  Apply a partial update to a user. Absent fields are untouched.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string        true "User ID"
// @Param        request body UpdateRequest true "Fields to update"
// @Success      200 {object} SerializedUser
// @Failure      400 {object} httputil.ErrorResponse "Invalid request"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /users/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid user id", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid update user request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	updated, err := h.repo.Update(r.Context(), id, Patch{Email: req.Email, Password: req.Password})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		if errors.Is(err, ErrDuplicateEmail) {
			httputil.RespondErrorWithCode(w, "email already exists", httputil.CodeEmailAlreadyExists, http.StatusConflict)
			return
		}
		logger.Error("user update failed", "error", err.Error(), "user_id", id)
		httputil.RespondErrorWithCode(w, "failed to update user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user updated", "user_id", id)

	httputil.RespondJSON(w, updated.Serialize(), http.StatusOK)
}
