package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"tasktracker/internal/database"
	"tasktracker/internal/logging"
)

var ErrNotFound = errors.New("task not found")

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Repository owns the tasks table. Every operation is scoped to a user id:
// a task belonging to someone else is indistinguishable from a missing one.
// Mutations run inside explicit transactions like the user repository.
type Repository struct {
	db     *bun.DB
	logger *logging.Logger
}

func NewRepository(db *bun.DB, logger *logging.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// Create inserts a task for the given user inside a transaction.
func (r *Repository) Create(ctx context.Context, userID uuid.UUID, draft CreateTask) (*Task, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	now := time.Now()
	row := &database.Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       draft.Title,
		Description: draft.Description,
		DueDate:     draft.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
		r.rollback(tx)
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		r.rollback(tx)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	task := fromRow(row)
	return &task, nil
}

// List returns one page of the user's tasks, newest first, with the total
// count across all pages. Page numbers are 1-based; out-of-range pages return
// an empty data slice, not an error.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, page, limit int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	var rows []database.Task
	total, err := r.db.NewSelect().
		Model(&rows).
		Where("t.user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		ScanAndCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]Task, 0, len(rows))
	for i := range rows {
		tasks = append(tasks, fromRow(&rows[i]))
	}

	return &Page{
		Data:       tasks,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// Get retrieves one of the user's tasks by id.
func (r *Repository) Get(ctx context.Context, userID, taskID uuid.UUID) (*Task, error) {
	row := new(database.Task)
	err := r.db.NewSelect().
		Model(row).
		Where("t.id = ?", taskID).
		Where("t.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	task := fromRow(row)
	return &task, nil
}

// Update loads the user's task inside a transaction, applies only the fields
// present in patch, and saves.
func (r *Repository) Update(ctx context.Context, userID, taskID uuid.UUID, patch Patch) (*Task, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	row := new(database.Task)
	err = tx.NewSelect().
		Model(row).
		Where("t.id = ?", taskID).
		Where("t.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		r.rollback(tx)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load task: %w", err)
	}

	if patch.Title != nil {
		row.Title = *patch.Title
	}
	if patch.Description != nil {
		row.Description = *patch.Description
	}
	if patch.DueDate != nil {
		row.DueDate = *patch.DueDate
	}
	if patch.Completed != nil {
		row.Completed = *patch.Completed
	}
	row.UpdatedAt = time.Now()

	if _, err := tx.NewUpdate().Model(row).WherePK().Exec(ctx); err != nil {
		r.rollback(tx)
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		r.rollback(tx)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	task := fromRow(row)
	return &task, nil
}

// Delete soft-deletes one of the user's tasks.
func (r *Repository) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	res, err := tx.NewDelete().
		Model((*database.Task)(nil)).
		Where("t.id = ?", taskID).
		Where("t.user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		r.rollback(tx)
		return fmt.Errorf("failed to delete task: %w", err)
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

func (r *Repository) rollback(tx bun.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		r.logger.Error("failed to roll back transaction", "error", err.Error())
	}
}
