// Package storage defines the persistence interfaces for the recruiting
// layer. The document store is the sole arbiter of consistency: every engine
// operation is one logical read-modify-write against it, serialized per
// aggregate through optimistic versioning.
package storage

import (
	"context"
	"time"

	"github.com/talenthive/recruiting_layer/internal/app/domain/application"
	"github.com/talenthive/recruiting_layer/internal/app/domain/candidate"
	"github.com/talenthive/recruiting_layer/internal/app/domain/job"
)

// Filter selects applications for list queries. Zero values mean "no
// constraint". Results are ordered by creation time, newest first.
type Filter struct {
	CompanyID   string
	JobID       string
	CandidateID string
	Status      application.Status
	MinScore    int

	// IncludeDeleted admits soft-deleted records; off by default.
	IncludeDeleted bool

	// Page is 1-indexed. Limit 0 means no pagination.
	Page  int
	Limit int
}

// Offset converts the 1-indexed page to a row offset.
func (f Filter) Offset() int {
	if f.Page <= 1 || f.Limit <= 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// ApplicationStore persists Application aggregates.
//
// CreateApplication enforces (jobID, candidateID) uniqueness at the store
// level and fails with a Conflict error on a duplicate, so two concurrent
// submissions can never both win.
//
// UpdateApplication applies only when the stored version matches the version
// on the incoming aggregate, failing with a StaleWrite error otherwise; the
// stored version increments on success.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, app application.Application) (application.Application, error)
	GetApplication(ctx context.Context, id string) (application.Application, error)
	GetApplicationByJobAndCandidate(ctx context.Context, jobID, candidateID string) (application.Application, error)
	UpdateApplication(ctx context.Context, app application.Application) (application.Application, error)
	ListApplications(ctx context.Context, filter Filter) ([]application.Application, int, error)
	SoftDeleteApplication(ctx context.Context, id string, at time.Time) error
	HardDeleteApplication(ctx context.Context, id string) error
}

// JobStore resolves and seeds job reference records. Posting CRUD is owned
// by another service; this module only reads them.
type JobStore interface {
	job.Directory
	PutJob(ctx context.Context, j job.Job) error
}

// CandidateStore resolves and seeds candidate reference records.
type CandidateStore interface {
	candidate.Directory
	PutCandidate(ctx context.Context, c candidate.Candidate) error
}
