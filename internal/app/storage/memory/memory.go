// Package memory provides a thread-safe in-memory implementation of the
// storage interfaces. It is intended for tests and prototyping and mirrors
// the consistency rules of the SQL store: a unique (job, candidate) index
// and version-checked updates.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talenthive/recruiting_layer/internal/app/domain/application"
	"github.com/talenthive/recruiting_layer/internal/app/domain/candidate"
	"github.com/talenthive/recruiting_layer/internal/app/domain/job"
	"github.com/talenthive/recruiting_layer/internal/app/storage"
	"github.com/talenthive/recruiting_layer/internal/errors"
)

// Memory is an in-memory store implementing ApplicationStore, JobStore and
// CandidateStore.
type Memory struct {
	mu         sync.RWMutex
	apps       map[string]application.Application
	pairIndex  map[string]string // jobID+"\x00"+candidateID -> application id
	jobs       map[string]job.Job
	candidates map[string]candidate.Candidate
}

var _ storage.ApplicationStore = (*Memory)(nil)
var _ storage.JobStore = (*Memory)(nil)
var _ storage.CandidateStore = (*Memory)(nil)

// New creates an empty in-memory store.
func New() *Memory {
	return &Memory{
		apps:       make(map[string]application.Application),
		pairIndex:  make(map[string]string),
		jobs:       make(map[string]job.Job),
		candidates: make(map[string]candidate.Candidate),
	}
}

func pairKey(jobID, candidateID string) string {
	return jobID + "\x00" + candidateID
}

// ApplicationStore implementation ---------------------------------------------

func (m *Memory) CreateApplication(_ context.Context, app application.Application) (application.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := pairKey(app.JobID, app.CandidateID)
	if _, exists := m.pairIndex[key]; exists {
		return application.Application{}, errors.Conflict("application already exists for this job and candidate").
			WithDetail("jobId", app.JobID).
			WithDetail("candidateId", app.CandidateID)
	}

	if app.ID == "" {
		app.ID = uuid.NewString()
	} else if _, exists := m.apps[app.ID]; exists {
		return application.Application{}, errors.Conflict("application id already exists").WithDetail("id", app.ID)
	}

	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now
	app.Version = 1

	m.apps[app.ID] = app.Clone()
	m.pairIndex[key] = app.ID
	return app.Clone(), nil
}

func (m *Memory) GetApplication(_ context.Context, id string) (application.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	app, ok := m.apps[id]
	if !ok || app.Deleted() {
		return application.Application{}, errors.NotFoundf("application %s not found", id)
	}
	return app.Clone(), nil
}

func (m *Memory) GetApplicationByJobAndCandidate(_ context.Context, jobID, candidateID string) (application.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.pairIndex[pairKey(jobID, candidateID)]
	if !ok {
		return application.Application{}, errors.NotFound("application not found")
	}
	return m.apps[id].Clone(), nil
}

func (m *Memory) UpdateApplication(_ context.Context, app application.Application) (application.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	original, ok := m.apps[app.ID]
	if !ok || original.Deleted() {
		return application.Application{}, errors.NotFoundf("application %s not found", app.ID)
	}
	if app.Version != original.Version {
		return application.Application{}, errors.StaleWrite("application was modified concurrently").
			WithDetail("id", app.ID)
	}

	// Core references and creation metadata are immutable.
	app.JobID = original.JobID
	app.CandidateID = original.CandidateID
	app.CompanyID = original.CompanyID
	app.CreatedAt = original.CreatedAt
	app.Metadata = original.Metadata

	app.Version = original.Version + 1
	app.UpdatedAt = time.Now().UTC()

	m.apps[app.ID] = app.Clone()
	return app.Clone(), nil
}

func (m *Memory) ListApplications(_ context.Context, filter storage.Filter) ([]application.Application, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]application.Application, 0)
	for _, app := range m.apps {
		if !matches(app, filter) {
			continue
		}
		matched = append(matched, app.Clone())
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if filter.Limit > 0 {
		offset := filter.Offset()
		if offset >= total {
			return []application.Application{}, total, nil
		}
		end := offset + filter.Limit
		if end > total {
			end = total
		}
		matched = matched[offset:end]
	}
	return matched, total, nil
}

func matches(app application.Application, f storage.Filter) bool {
	if app.Deleted() && !f.IncludeDeleted {
		return false
	}
	if f.CompanyID != "" && app.CompanyID != f.CompanyID {
		return false
	}
	if f.JobID != "" && app.JobID != f.JobID {
		return false
	}
	if f.CandidateID != "" && app.CandidateID != f.CandidateID {
		return false
	}
	if f.Status != "" && app.Status != f.Status {
		return false
	}
	if f.MinScore > 0 && app.Score < f.MinScore {
		return false
	}
	return true
}

func (m *Memory) SoftDeleteApplication(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, ok := m.apps[id]
	if !ok || app.Deleted() {
		return errors.NotFoundf("application %s not found", id)
	}

	at = at.UTC()
	app.DeletedAt = &at
	app.Archived = true
	app.Version++
	app.UpdatedAt = at
	m.apps[id] = app
	return nil
}

func (m *Memory) HardDeleteApplication(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, ok := m.apps[id]
	if !ok {
		return errors.NotFoundf("application %s not found", id)
	}
	delete(m.apps, id)
	delete(m.pairIndex, pairKey(app.JobID, app.CandidateID))
	return nil
}

// JobStore implementation ------------------------------------------------------

func (m *Memory) GetJob(_ context.Context, id string) (job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[id]
	if !ok {
		return job.Job{}, errors.NotFoundf("job %s not found", id)
	}
	return j, nil
}

func (m *Memory) PutJob(_ context.Context, j job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if j.ID == "" {
		return errors.Validation("job id is required")
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now().UTC()
	}
	m.jobs[j.ID] = j
	return nil
}

// CandidateStore implementation ------------------------------------------------

func (m *Memory) GetCandidate(_ context.Context, id string) (candidate.Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.candidates[id]
	if !ok {
		return candidate.Candidate{}, errors.NotFoundf("candidate %s not found", id)
	}
	return c, nil
}

func (m *Memory) PutCandidate(_ context.Context, c candidate.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.ID == "" {
		return errors.Validation("candidate id is required")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	m.candidates[c.ID] = c
	return nil
}
