package jobs

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/revitview/pkg/pagination"
	"github.com/JaimeStill/revitview/pkg/query"
)

type memory struct {
	mu         sync.RWMutex
	jobs       map[uuid.UUID]*Job
	logger     *slog.Logger
	pagination pagination.Config
	now        func() time.Time
}

// NewMemory creates a volatile job store. Records do not survive a restart.
func NewMemory(logger *slog.Logger, pagination pagination.Config) System {
	return &memory{
		jobs:       make(map[uuid.UUID]*Job),
		logger:     logger.With("system", "jobs", "store", "memory"),
		pagination: pagination,
		now:        time.Now,
	}
}

func (m *memory) Handler() *Handler {
	return NewHandler(m, m.logger, m.pagination)
}

func (m *memory) Create(ctx context.Context, cmd CreateCommand) (*Job, error) {
	id := cmd.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[id]; ok {
		return nil, ErrDuplicate
	}

	now := m.now().UTC()
	j := &Job{
		ID:        id,
		Filename:  cmd.Filename,
		Status:    StatusStarting,
		Message:   MessageStarting,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.jobs[id] = j

	m.logger.Info("job created", "id", id, "filename", cmd.Filename)
	out := *j
	return &out, nil
}

func (m *memory) Record(ctx context.Context, id uuid.UUID, u Update) error {
	if err := u.validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}

	u.apply(j)
	j.UpdatedAt = m.now().UTC()
	return nil
}

func (m *memory) Find(ctx context.Context, id uuid.UUID) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *j
	return &out, nil
}

func (m *memory) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Job], error) {
	page.Normalize(m.pagination)

	m.mu.RLock()
	matched := make([]Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		if !filters.match(j) {
			continue
		}
		if page.Search != nil && !strings.Contains(
			strings.ToLower(j.Filename),
			strings.ToLower(*page.Search),
		) {
			continue
		}
		matched = append(matched, *j)
	}
	m.mu.RUnlock()

	sortJobs(matched, page.Sort)

	total := len(matched)
	start := min(page.Offset(), total)
	end := min(start+page.PageSize, total)

	return pagination.NewPageResult(matched[start:end], total, page), nil
}

func (m *memory) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(m.jobs, id)

	m.logger.Info("job deleted", "id", id)
	return nil
}

func sortJobs(jobs []Job, fields []query.SortField) {
	if len(fields) == 0 {
		fields = []query.SortField{defaultSort}
	}

	slices.SortStableFunc(jobs, func(a, b Job) int {
		for _, f := range fields {
			c := compareField(a, b, f.Field)
			if f.Descending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}

func compareField(a, b Job, field string) int {
	switch field {
	case "Filename":
		return cmp.Compare(a.Filename, b.Filename)
	case "Status":
		return cmp.Compare(a.Status, b.Status)
	case "Progress":
		return cmp.Compare(a.Progress, b.Progress)
	case "CreatedAt":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "UpdatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
	return 0
}
