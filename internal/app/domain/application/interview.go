package application

import "time"

// InterviewType classifies how an interview is conducted.
type InterviewType string

const (
	InterviewPhone     InterviewType = "phone"
	InterviewVideo     InterviewType = "video"
	InterviewOnsite    InterviewType = "onsite"
	InterviewTechnical InterviewType = "technical_test"
)

// InterviewResult is the recorded outcome of an interview.
type InterviewResult string

const (
	ResultPending InterviewResult = "pending"
	ResultPass    InterviewResult = "pass"
	ResultFail    InterviewResult = "fail"
)

// Interview is one scheduled interview round. Scheduling never changes the
// application status; moving to "interviewing" is a separate, explicit
// status change.
type Interview struct {
	ScheduledAt   time.Time       `json:"scheduledAt"`
	InterviewType InterviewType   `json:"interviewType"`
	Location      string          `json:"location"`
	Attendees     []Attendee      `json:"attendees"`
	Feedback      string          `json:"feedback,omitempty"`
	Result        InterviewResult `json:"result"`
	Template      string          `json:"template,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

// Attendee is one interviewer on an interview.
type Attendee struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// KnownInterviewType reports whether t is one of the supported types.
func KnownInterviewType(t InterviewType) bool {
	switch t {
	case InterviewPhone, InterviewVideo, InterviewOnsite, InterviewTechnical:
		return true
	default:
		return false
	}
}

var interviewTemplates = map[InterviewType]string{
	InterviewPhone:     "Standard phone screening questions",
	InterviewVideo:     "Video conference link will be shared",
	InterviewOnsite:    "Bring your ID and portfolio",
	InterviewTechnical: "Coding challenge will be provided",
}

// TemplateFor returns the briefing text for an interview type.
func TemplateFor(t InterviewType) string {
	if tpl, ok := interviewTemplates[t]; ok {
		return tpl
	}
	return "General interview questions"
}
