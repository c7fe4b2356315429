package task

import (
	"time"

	"github.com/google/uuid"

	"tasktracker/internal/database"
)

// Task is a single tracked item, always owned by exactly one user.
type Task struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateTask is the draft for a new task.
type CreateTask struct {
	Title       string
	Description string
	DueDate     time.Time
}

// Patch describes a partial task update. A nil field is left unchanged.
type Patch struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Completed   *bool
}

// Page is one page of a user's tasks, with enough metadata for clients to
// render pagination controls.
type Page struct {
	Data       []Task `json:"data"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	Total      int    `json:"total"`
	TotalPages int    `json:"totalPages"`
}

func fromRow(row *database.Task) Task {
	return Task{
		ID:          row.ID,
		UserID:      row.UserID,
		Title:       row.Title,
		Description: row.Description,
		DueDate:     row.DueDate,
		Completed:   row.Completed,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
