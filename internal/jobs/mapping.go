package jobs

import (
	"github.com/JaimeStill/revitview/pkg/query"
	"github.com/JaimeStill/revitview/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "jobs", "j").
	Project("id", "ID").
	Project("filename", "Filename").
	Project("status", "Status").
	Project("progress", "Progress").
	Project("message", "Message").
	Project("urn", "URN").
	Project("error", "Error").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for job queries.
// Nil fields are ignored.
type Filters struct {
	Status *Status `json:"status,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	if f.Status == nil {
		return b
	}
	return b.WhereEquals("Status", string(*f.Status))
}

func (f Filters) match(j *Job) bool {
	return f.Status == nil || j.Status == *f.Status
}

func scanJob(s repository.Scanner) (Job, error) {
	var j Job
	err := s.Scan(
		&j.ID,
		&j.Filename,
		&j.Status,
		&j.Progress,
		&j.Message,
		&j.URN,
		&j.Error,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	return j, err
}
