package applications

import (
	"context"
	"testing"
	"time"

	"github.com/talenthive/recruiting_layer/internal/app/domain/application"
	"github.com/talenthive/recruiting_layer/internal/app/notify"
	"github.com/talenthive/recruiting_layer/internal/errors"
)

func TestScheduleInterview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	app := env.submit(t, "j1", "c1", "")

	when := time.Now().Add(48 * time.Hour)
	interview, err := env.svc.ScheduleInterview(ctx, app.ID, InterviewInput{
		Type:        application.InterviewVideo,
		ScheduledAt: when,
		Attendees:   []AttendeeInput{{UserID: "hr-1"}, {UserID: "eng-1", Role: "Hiring Manager"}},
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	if interview.Location != "To be determined" {
		t.Fatalf("location default missing: %q", interview.Location)
	}
	if interview.Result != application.ResultPending {
		t.Fatalf("result = %s", interview.Result)
	}
	if interview.Template != "Video conference link will be shared" {
		t.Fatalf("template = %q", interview.Template)
	}
	if interview.Attendees[0].Role != "Interviewer" || interview.Attendees[1].Role != "Hiring Manager" {
		t.Fatalf("attendee roles wrong: %+v", interview.Attendees)
	}

	got, _ := env.svc.Get(ctx, app.ID, false)
	if got.Status != application.StatusSubmitted {
		t.Fatalf("scheduling must not change status, got %s", got.Status)
	}
	// 50 base + 10 resume + 5 for the interview.
	if got.Score != 65 {
		t.Fatalf("score = %d, want 65", got.Score)
	}
	if env.notifier.count(notify.EventInterviewScheduled) != 1 {
		t.Fatal("interview event not published")
	}
}

func TestScheduleInterviewValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	app := env.submit(t, "j1", "c1", "")
	future := time.Now().Add(24 * time.Hour)

	cases := []struct {
		name  string
		input InterviewInput
	}{
		{"missing type", InterviewInput{ScheduledAt: future, Attendees: []AttendeeInput{{UserID: "hr-1"}}}},
		{"unknown type", InterviewInput{Type: "seance", ScheduledAt: future, Attendees: []AttendeeInput{{UserID: "hr-1"}}}},
		{"missing date", InterviewInput{Type: application.InterviewPhone, Attendees: []AttendeeInput{{UserID: "hr-1"}}}},
		{"past date", InterviewInput{Type: application.InterviewPhone, ScheduledAt: time.Now().Add(-time.Hour), Attendees: []AttendeeInput{{UserID: "hr-1"}}}},
		{"no attendees", InterviewInput{Type: application.InterviewPhone, ScheduledAt: future}},
		{"too many attendees", InterviewInput{Type: application.InterviewPhone, ScheduledAt: future, Attendees: []AttendeeInput{
			{UserID: "a"}, {UserID: "b"}, {UserID: "c"}, {UserID: "d"}, {UserID: "e"}, {UserID: "f"},
		}}},
		{"duplicate attendees", InterviewInput{Type: application.InterviewPhone, ScheduledAt: future, Attendees: []AttendeeInput{
			{UserID: "hr-1"}, {UserID: "hr-1"},
		}}},
	}
	for _, tc := range cases {
		if _, err := env.svc.ScheduleInterview(ctx, app.ID, tc.input); !errors.IsKind(err, errors.KindValidation) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}

	got, _ := env.svc.Get(ctx, app.ID, false)
	if len(got.Interviews) != 0 {
		t.Fatalf("rejected input left an interview behind: %+v", got.Interviews)
	}
}

func TestScheduleInterviewMissingApplication(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.ScheduleInterview(context.Background(), "nope", InterviewInput{
		Type:        application.InterviewPhone,
		ScheduledAt: time.Now().Add(time.Hour),
		Attendees:   []AttendeeInput{{UserID: "hr-1"}},
	})
	if !errors.IsKind(err, errors.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
