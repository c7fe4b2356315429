package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"tasktracker/internal/database"
	"tasktracker/internal/logging"
	"tasktracker/internal/password"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Repository owns the users table. Every mutation runs inside an explicit
// transaction: commit on success, rollback on any failure, release always.
type Repository struct {
	db     *bun.DB
	hasher *password.Hasher
	logger *logging.Logger
}

func NewRepository(db *bun.DB, hasher *password.Hasher, logger *logging.Logger) *Repository {
	return &Repository{db: db, hasher: hasher, logger: logger}
}

// Create hashes the draft password and inserts the user inside a transaction.
// The returned User carries the password hash for in-process callers;
// handlers must serialize before responding.
func (r *Repository) Create(ctx context.Context, draft CreateUser) (*User, error) {
	passwordHash, err := r.hasher.Hash(draft.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	now := time.Now()
	row := &database.User{
		ID:           uuid.New(),
		Email:        draft.Email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
		r.rollback(tx)
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		r.rollback(tx)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return fromRow(row), nil
}

// Update loads the user inside a transaction, applies only the fields present
// in patch, and saves. A missing id rolls back and returns ErrNotFound.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch Patch) (*User, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	row := new(database.User)
	if err := tx.NewSelect().Model(row).Where("u.id = ?", id).Scan(ctx); err != nil {
		r.rollback(tx)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if patch.Email != nil {
		row.Email = *patch.Email
	}
	if patch.Password != nil {
		passwordHash, err := r.hasher.Hash(*patch.Password)
		if err != nil {
			r.rollback(tx)
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		row.PasswordHash = passwordHash
	}
	if patch.RefreshTokenHash != nil {
		if patch.RefreshTokenHash.Valid {
			value := patch.RefreshTokenHash.String
			row.RefreshTokenHash = &value
		} else {
			row.RefreshTokenHash = nil
		}
	}
	row.UpdatedAt = time.Now()

	if _, err := tx.NewUpdate().Model(row).WherePK().Exec(ctx); err != nil {
		r.rollback(tx)
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		r.rollback(tx)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return fromRow(row), nil
}

// GetByEmail retrieves a user by exact email match. Soft-deleted rows are
// excluded by the model's soft-delete filter.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := new(database.User)
	err := r.db.NewSelect().Model(row).Where("u.email = ?", email).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return fromRow(row), nil
}

// GetByID retrieves a user by id, excluding soft-deleted rows.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := new(database.User)
	err := r.db.NewSelect().Model(row).Where("u.id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return fromRow(row), nil
}

// List returns all non-deleted users.
func (r *Repository) List(ctx context.Context) ([]SerializedUser, error) {
	var rows []database.User
	if err := r.db.NewSelect().Model(&rows).Order("created_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]SerializedUser, 0, len(rows))
	for i := range rows {
		users = append(users, fromRow(&rows[i]).Serialize())
	}
	return users, nil
}

// Delete soft-deletes the user: the row keeps existing with a deletion
// timestamp and disappears from every read path.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	res, err := tx.NewDelete().Model((*database.User)(nil)).Where("u.id = ?", id).Exec(ctx)
	if err != nil {
		r.rollback(tx)
		return fmt.Errorf("failed to delete user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		r.rollback(tx)
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		r.rollback(tx)
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		r.rollback(tx)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// rollback is best-effort: commit or rollback must have happened before
// release, and a failed rollback is logged rather than crashing the request.
func (r *Repository) rollback(tx bun.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		r.logger.Error("failed to roll back transaction", "error", err.Error())
	}
}
