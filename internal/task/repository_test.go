package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktracker/internal/database"
	"tasktracker/internal/logging"
)

var taskColumns = []string{"id", "user_id", "title", "description", "due_date", "completed", "created_at", "updated_at", "deleted_at"}

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return NewRepository(database.NewBunDB(sqlDB), logging.NewLogger(true)), mock
}

func storedTaskRow(t *testing.T, id, userID uuid.UUID, title string, completed bool) *sqlmock.Rows {
	t.Helper()
	now := time.Now()
	return sqlmock.NewRows(taskColumns).
		AddRow(id.String(), userID.String(), title, "some description", now.Add(24*time.Hour), completed, now, now, nil)
}

func TestCreateCommitsOnSuccess(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID := uuid.New()

	mock.ExpectBegin()
	// bun appends RETURNING for the nullzero/default columns it did not set.
	mock.ExpectQuery(`INSERT INTO "tasks"`).
		WillReturnRows(sqlmock.NewRows([]string{"completed", "deleted_at"}).AddRow(false, nil))
	mock.ExpectCommit()

	created, err := repo.Create(context.Background(), userID, CreateTask{
		Title:       "Write report",
		Description: "quarterly numbers",
		DueDate:     time.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, userID, created.UserID, "a task is always owned by its creator")
	assert.Equal(t, "Write report", created.Title)
	assert.False(t, created.Completed)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRollsBackOnInsertFailure(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "tasks"`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), uuid.New(), CreateTask{Title: "doomed"})
	require.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListReturnsPageWithTotals(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID := uuid.New()

	// ScanAndCount may issue the data and count queries in either order.
	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery(`SELECT "t"\."id"`).
		WillReturnRows(storedTaskRow(t, uuid.New(), userID, "newest", false))
	mock.ExpectQuery(`SELECT count`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	page, err := repo.List(context.Background(), userID, 2, 10)
	require.NoError(t, err)

	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.Limit)
	assert.Equal(t, 11, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "newest", page.Data[0].Title)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListClampsPageAndLimit(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery(`SELECT "t"\."id"`).WillReturnRows(sqlmock.NewRows(taskColumns))
	mock.ExpectQuery(`SELECT count`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	page, err := repo.List(context.Background(), uuid.New(), -3, 100000)
	require.NoError(t, err)

	assert.Equal(t, 1, page.Page)
	assert.Equal(t, MaxPageLimit, page.Limit)
	assert.Equal(t, 0, page.Total)
	assert.Empty(t, page.Data)
}

func TestGetScopedToOwner(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID := uuid.New()
	taskID := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM "tasks"(.+)user_id`).
		WillReturnRows(storedTaskRow(t, taskID, userID, "mine", true))

	task, err := repo.Get(context.Background(), userID, taskID)
	require.NoError(t, err)

	assert.Equal(t, taskID, task.ID)
	assert.Equal(t, userID, task.UserID)
	assert.True(t, task.Completed)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissingTaskReturnsNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	// Someone else's task and a nonexistent one are the same empty result.
	mock.ExpectQuery(`SELECT (.+) FROM "tasks"`).
		WillReturnRows(sqlmock.NewRows(taskColumns))

	_, err := repo.Get(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAppliesOnlyPresentFields(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID := uuid.New()
	taskID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "tasks"`).
		WillReturnRows(storedTaskRow(t, taskID, userID, "old title", false))
	mock.ExpectExec(`UPDATE "tasks"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	completed := true
	updated, err := repo.Update(context.Background(), userID, taskID, Patch{Completed: &completed})
	require.NoError(t, err)

	assert.True(t, updated.Completed)
	assert.Equal(t, "old title", updated.Title, "absent patch fields are untouched")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMissingTaskRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "tasks"`).WillReturnRows(sqlmock.NewRows(taskColumns))
	mock.ExpectRollback()

	title := "new title"
	_, err := repo.Update(context.Background(), uuid.New(), uuid.New(), Patch{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSoftDeletes(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tasks" (.+)deleted_at`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingTaskRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tasks" (.+)deleted_at`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
