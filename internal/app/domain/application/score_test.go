package application

import "testing"

func TestScoreWeights_SubmissionScenario(t *testing.T) {
	w := DefaultScoreWeights()

	// Resume on file plus a 250-character cover letter at submission time.
	details, score := w.Compute(ScoreInputs{
		ResumePresent:     true,
		CoverLetterLength: 250,
		Status:            StatusSubmitted,
	})
	if score != 75 {
		t.Fatalf("expected score 75, got %d", score)
	}
	if details.ResumeScore != 10 || details.CoverLetterScore != 15 || details.BonusPoints != 50 {
		t.Fatalf("unexpected breakdown: %+v", details)
	}
}

func TestScoreWeights_ScoreEqualsClampedComponentSum(t *testing.T) {
	w := DefaultScoreWeights()

	inputs := []ScoreInputs{
		{},
		{ResumePresent: true},
		{CoverLetterLength: 500, Status: StatusShortlisted},
		{ResumePresent: true, CoverLetterLength: 250, Status: StatusShortlisted, InterviewCount: 4},
		{InterviewCount: 30},
	}
	for _, in := range inputs {
		details, score := w.Compute(in)
		want := details.Total()
		if want > w.MaxScore {
			want = w.MaxScore
		}
		if score != want {
			t.Fatalf("inputs %+v: score %d does not match clamped sum %d", in, score, want)
		}
		if score < 0 || score > 100 {
			t.Fatalf("inputs %+v: score %d out of bounds", in, score)
		}
	}
}

func TestScoreWeights_Clamp(t *testing.T) {
	w := DefaultScoreWeights()

	_, score := w.Compute(ScoreInputs{
		ResumePresent:     true,
		CoverLetterLength: 1000,
		Status:            StatusShortlisted,
		InterviewCount:    10,
	})
	if score != 100 {
		t.Fatalf("expected clamp at 100, got %d", score)
	}
}

func TestScoreWeights_Monotonic(t *testing.T) {
	w := DefaultScoreWeights()

	base := ScoreInputs{CoverLetterLength: 100, Status: StatusUnderReview, InterviewCount: 1}
	_, baseline := w.Compute(base)

	withResume := base
	withResume.ResumePresent = true
	if _, s := w.Compute(withResume); s < baseline {
		t.Fatalf("adding a resume decreased score: %d < %d", s, baseline)
	}

	withLetter := base
	withLetter.CoverLetterLength = 300
	if _, s := w.Compute(withLetter); s < baseline {
		t.Fatalf("longer cover letter decreased score: %d < %d", s, baseline)
	}

	withInterview := base
	withInterview.InterviewCount++
	if _, s := w.Compute(withInterview); s < baseline {
		t.Fatalf("extra interview decreased score: %d < %d", s, baseline)
	}
}

func TestScoreWeights_CoverLetterThresholdIsStrict(t *testing.T) {
	w := DefaultScoreWeights()

	details, _ := w.Compute(ScoreInputs{CoverLetterLength: 200})
	if details.CoverLetterScore != 0 {
		t.Fatalf("200 characters should not earn the cover letter bonus")
	}
	details, _ = w.Compute(ScoreInputs{CoverLetterLength: 201})
	if details.CoverLetterScore != w.CoverLetter {
		t.Fatalf("201 characters should earn the cover letter bonus")
	}
}

func TestTemplateFor(t *testing.T) {
	if got := TemplateFor(InterviewTechnical); got != "Coding challenge will be provided" {
		t.Fatalf("unexpected template: %q", got)
	}
	if got := TemplateFor(InterviewType("chess_match")); got != "General interview questions" {
		t.Fatalf("unknown type should fall back to the generic template, got %q", got)
	}
}
