package jobs

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the stage of a processing job.
type Status string

const (
	StatusStarting    Status = "starting"
	StatusUploading   Status = "uploading"
	StatusTranslating Status = "translating"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// MessageStarting is the message a job is created with.
const MessageStarting = "Starting processing..."

// Job is the record of one uploaded model moving through the pipeline.
type Job struct {
	ID        uuid.UUID `json:"job_id"`
	Filename  string    `json:"filename"`
	Status    Status    `json:"status"`
	Progress  int       `json:"progress"`
	Message   string    `json:"message"`
	URN       *string   `json:"urn"`
	Error     *string   `json:"error"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Update is a partial change to a job. Nil fields are left unchanged.
type Update struct {
	Status   *Status
	Progress *int
	Message  *string
	URN      *string
	Error    *string
}

// Stage builds an Update that moves a job to status with progress and message.
func Stage(status Status, progress int, message string) Update {
	return Update{
		Status:   &status,
		Progress: &progress,
		Message:  &message,
	}
}

// WithURN returns u with the URN set.
func (u Update) WithURN(urn string) Update {
	u.URN = &urn
	return u
}

// WithError returns u with the error text set.
func (u Update) WithError(text string) Update {
	u.Error = &text
	return u
}

func (u Update) validate() error {
	if u.Progress != nil && (*u.Progress < 0 || *u.Progress > 100) {
		return fmt.Errorf("%w: progress %d outside 0-100", ErrInvalidUpdate, *u.Progress)
	}
	return nil
}

func (u Update) apply(j *Job) {
	if u.Status != nil {
		j.Status = *u.Status
	}
	if u.Progress != nil {
		j.Progress = *u.Progress
	}
	if u.Message != nil {
		j.Message = *u.Message
	}
	if u.URN != nil {
		urn := *u.URN
		j.URN = &urn
	}
	if u.Error != nil {
		text := *u.Error
		j.Error = &text
	}
}

// CreateCommand carries the data needed to register a new job.
// A zero ID is replaced with a generated one.
type CreateCommand struct {
	ID       uuid.UUID
	Filename string
}
