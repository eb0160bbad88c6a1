// Package application defines the Application aggregate: the record of one
// candidate applying to one job, together with its status history, scoring
// breakdown, interviews and attached documents. The aggregate is one
// consistency unit; stores persist and version it as a whole.
package application

import "time"

// Application is the aggregate root. JobID, CandidateID and CompanyID are
// set once at submission and never change. At most one application exists
// per (JobID, CandidateID) pair.
type Application struct {
	ID          string `json:"id"`
	JobID       string `json:"jobId"`
	CandidateID string `json:"candidateId"`
	CompanyID   string `json:"companyId"`

	CoverLetter string     `json:"coverLetter,omitempty"`
	Documents   []Document `json:"documents"`

	Status        Status        `json:"status"`
	StatusHistory []StatusEntry `json:"statusHistory,omitempty"`

	Score   int            `json:"score"`
	Scoring ScoringDetails `json:"scoringDetails"`

	Interviews []Interview `json:"interviews"`

	Metadata  Metadata  `json:"metadata"`
	Analytics Analytics `json:"analytics"`

	Archived  bool       `json:"isArchived"`
	DeletedAt *time.Time `json:"-"`
	Version   int64      `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Document types for the dedicated resume and cover letter slots. Anything
// else is a supplementary file.
const (
	DocTypeResume      = "resume"
	DocTypeCoverLetter = "cover_letter"
)

// Document is one attached file. The URL references an object in attachment
// storage.
type Document struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// StatusEntry records one status change. History is append-only and always
// starts with the submission entry.
type StatusEntry struct {
	Status    Status              `json:"status"`
	ChangedAt time.Time           `json:"changedAt"`
	ChangedBy string              `json:"changedBy,omitempty"`
	Notes     string              `json:"notes,omitempty"`
	Metadata  StatusEntryMetadata `json:"metadata"`
}

// StatusEntryMetadata carries per-entry signals. Confirmed is false for
// rejection and withdrawal entries.
type StatusEntryMetadata struct {
	Confirmed     bool     `json:"confirmed"`
	AISuggestions []string `json:"aiSuggestions,omitempty"`
}

// Metadata is submission provenance, captured once and immutable thereafter.
type Metadata struct {
	IPAddress         string      `json:"ipAddress,omitempty"`
	UserAgent         string      `json:"userAgent,omitempty"`
	ApplicationSource string      `json:"applicationSource,omitempty"`
	AIAnalysis        *AIAnalysis `json:"aiAnalysis,omitempty"`
}

// AIAnalysis is an optional machine-generated signal set attached at
// submission time.
type AIAnalysis struct {
	Score     int      `json:"score"`
	Keywords  []string `json:"keywords,omitempty"`
	Sentiment string   `json:"sentiment,omitempty"`
}

// Analytics tracks read-side usage of the application record.
type Analytics struct {
	ViewCount         int                  `json:"viewCount"`
	LastViewed        *time.Time           `json:"lastViewed,omitempty"`
	StatusChangeDates map[Status]time.Time `json:"statusChangeDates,omitempty"`
}

// Deleted reports whether the application has been soft-deleted.
func (a *Application) Deleted() bool { return a.DeletedAt != nil }

// ResumeAttached reports whether a resume document is attached to the
// application itself, as opposed to living on the candidate profile.
func (a Application) ResumeAttached() bool {
	for _, d := range a.Documents {
		if d.Type == DocTypeResume {
			return true
		}
	}
	return false
}

// DocumentAt returns the index of the document occupying the typed slot, or
// -1 when the slot is empty.
func (a Application) DocumentAt(docType string) int {
	for i, d := range a.Documents {
		if d.Type == docType {
			return i
		}
	}
	return -1
}

// Sanitized returns a copy suitable for API responses. Status history is
// included only on request.
func (a Application) Sanitized(includeHistory bool) Application {
	out := a.Clone()
	if !includeHistory {
		out.StatusHistory = nil
	}
	return out
}

// StampStatusChange records the transition timestamp for analytics.
func (a *Application) StampStatusChange(status Status, at time.Time) {
	if a.Analytics.StatusChangeDates == nil {
		a.Analytics.StatusChangeDates = make(map[Status]time.Time)
	}
	a.Analytics.StatusChangeDates[status] = at
}

// LogView bumps the read-side view counter.
func (a *Application) LogView(at time.Time) {
	a.Analytics.ViewCount++
	a.Analytics.LastViewed = &at
}

// Clone returns a deep copy so store snapshots cannot alias caller state.
func (a Application) Clone() Application {
	out := a

	if a.Documents != nil {
		out.Documents = make([]Document, len(a.Documents))
		copy(out.Documents, a.Documents)
	}
	if a.StatusHistory != nil {
		out.StatusHistory = make([]StatusEntry, len(a.StatusHistory))
		for i, e := range a.StatusHistory {
			e.Metadata.AISuggestions = append([]string(nil), e.Metadata.AISuggestions...)
			out.StatusHistory[i] = e
		}
	}
	if a.Interviews != nil {
		out.Interviews = make([]Interview, len(a.Interviews))
		for i, iv := range a.Interviews {
			iv.Attendees = append([]Attendee(nil), iv.Attendees...)
			out.Interviews[i] = iv
		}
	}
	if a.Metadata.AIAnalysis != nil {
		analysis := *a.Metadata.AIAnalysis
		analysis.Keywords = append([]string(nil), analysis.Keywords...)
		out.Metadata.AIAnalysis = &analysis
	}
	if a.Analytics.StatusChangeDates != nil {
		dates := make(map[Status]time.Time, len(a.Analytics.StatusChangeDates))
		for k, v := range a.Analytics.StatusChangeDates {
			dates[k] = v
		}
		out.Analytics.StatusChangeDates = dates
	}
	if a.Analytics.LastViewed != nil {
		lv := *a.Analytics.LastViewed
		out.Analytics.LastViewed = &lv
	}
	if a.DeletedAt != nil {
		del := *a.DeletedAt
		out.DeletedAt = &del
	}
	return out
}
