package api

import (
	"github.com/JaimeStill/revitview/internal/config"
	"github.com/JaimeStill/revitview/internal/jobs"
	"github.com/JaimeStill/revitview/internal/pipeline"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Jobs     jobs.System
	Pipeline *pipeline.Runtime
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	var jobsSystem jobs.System
	if runtime.JobStore == config.StorePostgres && runtime.Database != nil {
		jobsSystem = jobs.New(
			runtime.Database.Connection(),
			runtime.Logger,
			runtime.Pagination,
		)
	} else {
		jobsSystem = jobs.NewMemory(runtime.Logger, runtime.Pagination)
	}

	return &Domain{
		Jobs: jobsSystem,
		Pipeline: pipeline.NewRuntime(
			&runtime.Pipeline,
			runtime.APS,
			jobsSystem,
			runtime.Logger,
		),
	}
}
