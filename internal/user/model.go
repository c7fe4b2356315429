package user

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"tasktracker/internal/database"
)

// User is the domain model, including secret material. It never leaves the
// process: remote callers only ever see a SerializedUser.
type User struct {
	ID               uuid.UUID
	Email            string
	PasswordHash     string
	RefreshTokenHash *string // nil means no active session
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SerializedUser is the subset of User that is safe to return to remote
// callers. Password hash and refresh-token hash are deliberately absent.
type SerializedUser struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Serialize strips the secret fields for transport.
func (u *User) Serialize() SerializedUser {
	return SerializedUser{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// CreateUser is the draft for a new account. The plaintext password is hashed
// before anything is written.
type CreateUser struct {
	Email    string
	Password string
}

// Patch describes a partial update. A nil field is left unchanged. The
// refresh-token hash is tri-state: nil leaves it untouched, an invalid
// NullString clears it, a valid one sets it.
type Patch struct {
	Email            *string
	Password         *string
	RefreshTokenHash *sql.NullString
}

// HashValue returns a patch field that sets the refresh-token hash.
func HashValue(hash string) *sql.NullString {
	return &sql.NullString{String: hash, Valid: true}
}

// HashNull returns a patch field that clears the refresh-token hash,
// invalidating any future refresh attempt.
func HashNull() *sql.NullString {
	return &sql.NullString{}
}

func fromRow(row *database.User) *User {
	return &User{
		ID:               row.ID,
		Email:            row.Email,
		PasswordHash:     row.PasswordHash,
		RefreshTokenHash: row.RefreshTokenHash,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}
