package job

import (
	"context"
	"time"
)

// Job is the read-only view of a posting that the application lifecycle
// needs. Posting CRUD lives outside this module.
type Job struct {
	ID        string
	CompanyID string
	Title     string
	Active    bool
	CreatedAt time.Time
}

// Directory resolves job postings by id.
type Directory interface {
	GetJob(ctx context.Context, id string) (Job, error)
}
