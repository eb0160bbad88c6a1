package candidate

import (
	"context"
	"time"
)

// Candidate is the read-only view of a candidate profile that the
// application lifecycle needs. Profile CRUD lives outside this module.
type Candidate struct {
	ID        string
	UserID    string
	Headline  string
	ResumeURL string
	CreatedAt time.Time
}

// HasResume reports whether a resume is on file.
func (c Candidate) HasResume() bool { return c.ResumeURL != "" }

// Directory resolves candidate profiles by id.
type Directory interface {
	GetCandidate(ctx context.Context, id string) (Candidate, error)
}
