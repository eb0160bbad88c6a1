package applications

import (
	"context"
	"time"

	"github.com/talenthive/recruiting_layer/internal/app/domain/application"
	"github.com/talenthive/recruiting_layer/internal/app/metrics"
	"github.com/talenthive/recruiting_layer/internal/app/notify"
	"github.com/talenthive/recruiting_layer/internal/errors"
)

const maxAttendees = 5

// InterviewInput describes one interview round to schedule.
type InterviewInput struct {
	Type        application.InterviewType
	ScheduledAt time.Time
	Location    string
	Attendees   []AttendeeInput
	Notes       string
}

// AttendeeInput names one interviewer. Role defaults to "Interviewer".
type AttendeeInput struct {
	UserID string
	Role   string
}

func (in InterviewInput) validate() error {
	if in.Type == "" {
		return errors.Validation("interviewType is required")
	}
	if !application.KnownInterviewType(in.Type) {
		return errors.Validationf("unknown interview type %q", in.Type)
	}
	if in.ScheduledAt.IsZero() {
		return errors.Validation("scheduledAt is required")
	}
	if !in.ScheduledAt.After(time.Now()) {
		return errors.Validation("scheduledAt must be in the future")
	}
	if len(in.Attendees) == 0 {
		return errors.Validation("at least one attendee is required")
	}
	if len(in.Attendees) > maxAttendees {
		return errors.Validationf("at most %d attendees are allowed", maxAttendees)
	}
	seen := make(map[string]bool, len(in.Attendees))
	for _, a := range in.Attendees {
		if a.UserID == "" {
			return errors.Validation("attendee userId is required")
		}
		if seen[a.UserID] {
			return errors.Validationf("duplicate attendee %s", a.UserID)
		}
		seen[a.UserID] = true
	}
	return nil
}

// ScheduleInterview appends an interview round to the application. It never
// changes the status; moving to "interviewing" is a separate, explicit
// status change.
func (s *Service) ScheduleInterview(ctx context.Context, id string, input InterviewInput) (application.Interview, error) {
	if err := input.validate(); err != nil {
		return application.Interview{}, err
	}

	interview := application.Interview{
		ScheduledAt:   input.ScheduledAt.UTC(),
		InterviewType: input.Type,
		Location:      input.Location,
		Result:        application.ResultPending,
		Template:      application.TemplateFor(input.Type),
		Notes:         input.Notes,
	}
	if interview.Location == "" {
		interview.Location = "To be determined"
	}
	for _, a := range input.Attendees {
		role := a.Role
		if role == "" {
			role = "Interviewer"
		}
		interview.Attendees = append(interview.Attendees, application.Attendee{UserID: a.UserID, Role: role})
	}

	updated, err := s.mutate(ctx, id, func(app *application.Application) error {
		app.Interviews = append(app.Interviews, interview)
		s.rescore(app, s.resumePresent(ctx, *app))
		return nil
	})
	if err != nil {
		return application.Interview{}, err
	}

	metrics.RecordInterviewScheduled(string(input.Type))
	s.log.WithField("application", id).WithField("type", input.Type).Info("interview scheduled")
	s.publish(ctx, notify.Event{
		Type:          notify.EventInterviewScheduled,
		ApplicationID: updated.ID,
		JobID:         updated.JobID,
		CandidateID:   updated.CandidateID,
		CompanyID:     updated.CompanyID,
		Payload: map[string]interface{}{
			"interviewType": string(input.Type),
			"scheduledAt":   interview.ScheduledAt,
			"location":      interview.Location,
		},
	})
	return updated.Interviews[len(updated.Interviews)-1], nil
}
