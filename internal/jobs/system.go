package jobs

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/revitview/pkg/pagination"
)

// Sink receives stage transitions for a job.
type Sink interface {
	Record(ctx context.Context, id uuid.UUID, u Update) error
}

// System defines the public contract for job record operations.
type System interface {
	Sink

	Handler() *Handler

	Create(ctx context.Context, cmd CreateCommand) (*Job, error)
	Find(ctx context.Context, id uuid.UUID) (*Job, error)
	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Job], error)
	Delete(ctx context.Context, id uuid.UUID) error
}
