package application

import "github.com/talenthive/recruiting_layer/internal/errors"

// Status is the workflow stage of an application.
type Status string

const (
	StatusSubmitted    Status = "submitted"
	StatusUnderReview  Status = "under_review"
	StatusShortlisted  Status = "shortlisted"
	StatusInterviewing Status = "interviewing"
	StatusOfferPending Status = "offer_pending"
	StatusHired        Status = "hired"
	StatusRejected     Status = "rejected"
	StatusWithdrawn    Status = "withdrawn"
)

// Transitions maps each status to the statuses it may move to. Terminal
// statuses map to an empty list.
type Transitions map[Status][]Status

// DefaultTransitions returns the legal status graph. The returned table is
// loaded once at startup and treated as immutable afterwards.
func DefaultTransitions() Transitions {
	return Transitions{
		StatusSubmitted:    {StatusUnderReview, StatusRejected, StatusWithdrawn},
		StatusUnderReview:  {StatusShortlisted, StatusRejected, StatusWithdrawn},
		StatusShortlisted:  {StatusInterviewing, StatusRejected, StatusWithdrawn},
		StatusInterviewing: {StatusOfferPending, StatusRejected, StatusWithdrawn},
		StatusOfferPending: {StatusHired, StatusRejected, StatusWithdrawn},
		StatusHired:        {},
		StatusRejected:     {},
		StatusWithdrawn:    {},
	}
}

// Statuses lists every known status.
func Statuses() []Status {
	return []Status{
		StatusSubmitted, StatusUnderReview, StatusShortlisted, StatusInterviewing,
		StatusOfferPending, StatusHired, StatusRejected, StatusWithdrawn,
	}
}

// TransitionValidator checks status changes against an immutable transition
// table. It is a pure function of (current, requested) with no side effects.
type TransitionValidator struct {
	table Transitions
}

// NewTransitionValidator builds a validator over the given table. A nil
// table means the default graph.
func NewTransitionValidator(table Transitions) *TransitionValidator {
	if table == nil {
		table = DefaultTransitions()
	}
	return &TransitionValidator{table: table}
}

// Known reports whether s appears in the transition table.
func (v *TransitionValidator) Known(s Status) bool {
	_, ok := v.table[s]
	return ok
}

// Terminal reports whether s has no outgoing transitions.
func (v *TransitionValidator) Terminal(s Status) bool {
	allowed, ok := v.table[s]
	return ok && len(allowed) == 0
}

// Validate returns nil when the transition from -> to is legal. Same-state
// requests are rejected here; the idempotent no-op short-circuit is the
// engine's concern, before validation.
func (v *TransitionValidator) Validate(from, to Status) error {
	if !v.Known(to) {
		return errors.Validationf("unknown status %q", to)
	}
	allowed, ok := v.table[from]
	if !ok {
		return errors.Validationf("unknown status %q", from)
	}
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return errors.InvalidTransition(string(from), string(to))
}
