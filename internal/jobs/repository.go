package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/revitview/pkg/pagination"
	"github.com/JaimeStill/revitview/pkg/query"
	"github.com/JaimeStill/revitview/pkg/repository"
)

var storeErrors = repository.ErrorMap{
	NotFound:  ErrNotFound,
	Duplicate: ErrDuplicate,
	Invalid:   ErrInvalidUpdate,
}

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a job repository backed by the jobs table.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "jobs", "store", "postgres"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Job, error) {
	id := cmd.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	q := `
		INSERT INTO jobs(id, filename, status, progress, message)
		VALUES ($1, $2, $3, 0, $4)
		RETURNING id, filename, status, progress, message, urn, error, created_at, updated_at`

	j, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Job, error) {
		return repository.QueryOne(ctx, tx, scanJob, q, id, cmd.Filename, StatusStarting, MessageStarting)
	})
	if err != nil {
		return nil, storeErrors.Map(err)
	}

	r.logger.Info("job created", "id", j.ID, "filename", j.Filename)
	return &j, nil
}

func (r *repo) Record(ctx context.Context, id uuid.UUID, u Update) error {
	q := `
		UPDATE jobs SET
			status = COALESCE($2, status),
			progress = COALESCE($3, progress),
			message = COALESCE($4, message),
			urn = COALESCE($5, urn),
			error = COALESCE($6, error),
			updated_at = NOW()
		WHERE id = $1`

	var status *string
	if u.Status != nil {
		s := string(*u.Status)
		status = &s
	}

	err := repository.ExecOne(ctx, r.db, q, id, status, u.Progress, u.Message, u.URN, u.Error)
	return storeErrors.Map(err)
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Job, error) {
	q := fmt.Sprintf(
		"SELECT %s FROM %s WHERE j.id = $1",
		projection.Columns(),
		projection.Table(),
	)

	j, err := repository.QueryOne(ctx, r.db, scanJob, q, id)
	if err != nil {
		return nil, storeErrors.Map(err)
	}
	return &j, nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Job], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Filename")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderBy(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.Count(ctx, r.db, countSQL, countArgs...)
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	jobs, err := repository.QueryMany(ctx, r.db, scanJob, pageSQL, pageArgs...)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}

	return pagination.NewPageResult(jobs, total, page), nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecOne(ctx, tx, "DELETE FROM jobs WHERE id = $1", id)
	})
	if err != nil {
		return storeErrors.Map(err)
	}

	r.logger.Info("job deleted", "id", id)
	return nil
}
