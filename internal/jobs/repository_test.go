package jobs_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/revitview/internal/jobs"
	"github.com/JaimeStill/revitview/pkg/pagination"
)

var jobColumns = []string{
	"id", "filename", "status", "progress", "message", "urn", "error", "created_at", "updated_at",
}

func newRepo(t *testing.T) (jobs.System, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return jobs.New(db, discardLogger(), pageConfig()), mock
}

func TestRepoCreate(t *testing.T) {
	store, mock := newRepo(t)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO jobs(id, filename, status, progress, message)")).
		WithArgs(id, "tower.rvt", "starting", "Starting processing...").
		WillReturnRows(sqlmock.NewRows(jobColumns).
			AddRow(id.String(), "tower.rvt", "starting", 0, "Starting processing...", nil, nil, now, now))
	mock.ExpectCommit()

	j, err := store.Create(context.Background(), jobs.CreateCommand{ID: id, Filename: "tower.rvt"})
	require.NoError(t, err)

	assert.Equal(t, id, j.ID)
	assert.Equal(t, jobs.StatusStarting, j.Status)
	assert.Nil(t, j.URN)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepoCreateDuplicate(t *testing.T) {
	store, mock := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO jobs").WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	_, err := store.Create(context.Background(), jobs.CreateCommand{ID: uuid.New(), Filename: "tower.rvt"})
	assert.ErrorIs(t, err, jobs.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepoRecord(t *testing.T) {
	store, mock := newRepo(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("status = COALESCE($2, status)")).
		WithArgs(id, "translating", 50, "Translating model to SVF format...", nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Record(context.Background(), id,
		jobs.Stage(jobs.StatusTranslating, 50, "Translating model to SVF format..."))
	require.NoError(t, err)

	mock.ExpectExec("UPDATE jobs SET").
		WithArgs(id, nil, nil, nil, "dXJu", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Record(context.Background(), id, jobs.Update{}.WithURN("dXJu")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepoRecordNotFound(t *testing.T) {
	store, mock := newRepo(t)

	mock.ExpectExec("UPDATE jobs SET").WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Record(context.Background(), uuid.New(), jobs.Stage(jobs.StatusFailed, 0, "x"))
	assert.ErrorIs(t, err, jobs.ErrNotFound)
}

func TestRepoFind(t *testing.T) {
	store, mock := newRepo(t)
	id := uuid.New()
	now := time.Now().UTC()
	urn := "dXJu"

	mock.ExpectQuery(regexp.QuoteMeta("FROM public.jobs j WHERE j.id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(jobColumns).
			AddRow(id.String(), "tower.rvt", "completed", 100, "SVF model ready for viewing", urn, nil, now, now))

	j, err := store.Find(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, jobs.StatusCompleted, j.Status)
	require.NotNil(t, j.URN)
	assert.Equal(t, urn, *j.URN)

	mock.ExpectQuery("FROM public.jobs j").WillReturnError(sql.ErrNoRows)

	_, err = store.Find(context.Background(), uuid.New())
	assert.ErrorIs(t, err, jobs.ErrNotFound)
}

func TestRepoList(t *testing.T) {
	store, mock := newRepo(t)
	now := time.Now().UTC()
	completed := jobs.StatusCompleted

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM public.jobs j WHERE j.status = $1")).
		WithArgs("completed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY j.created_at DESC LIMIT 2 OFFSET 2")).
		WithArgs("completed").
		WillReturnRows(sqlmock.NewRows(jobColumns).
			AddRow(uuid.NewString(), "a.rvt", "completed", 100, "done", "dXJu", nil, now, now))

	result, err := store.List(
		context.Background(),
		pagination.PageRequest{Page: 2, PageSize: 2},
		jobs.Filters{Status: &completed},
	)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.TotalPages)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "a.rvt", result.Data[0].Filename)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepoDelete(t *testing.T) {
	store, mock := newRepo(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM jobs WHERE id = $1")).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.Delete(context.Background(), id))

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM jobs").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	assert.ErrorIs(t, store.Delete(context.Background(), uuid.New()), jobs.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepoRecordCheckViolation(t *testing.T) {
	store, mock := newRepo(t)

	mock.ExpectExec("UPDATE jobs SET").
		WillReturnError(&pgconn.PgError{Code: "23514", ConstraintName: "jobs_progress_check"})

	err := store.Record(context.Background(), uuid.New(), jobs.Stage(jobs.StatusUploading, 120, "x"))
	assert.ErrorIs(t, err, jobs.ErrInvalidUpdate)
	assert.Equal(t, 400, jobs.MapHTTPStatus(err))
}
