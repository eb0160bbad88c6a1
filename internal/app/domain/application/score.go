package application

// ScoringDetails is the component breakdown behind Score. Every component is
// non-negative and Score is always min(MaxScore, sum of components), so the
// total can be recomputed from the breakdown at any time.
type ScoringDetails struct {
	ResumeScore      int `json:"resumeScore"`
	CoverLetterScore int `json:"coverLetterScore"`
	InterviewScore   int `json:"interviewScore"`
	BonusPoints      int `json:"bonusPoints"`
}

// Total sums the components without clamping.
func (d ScoringDetails) Total() int {
	return d.ResumeScore + d.CoverLetterScore + d.InterviewScore + d.BonusPoints
}

// ScoreWeights parameterizes the scoring calculator. Loaded once at startup
// and immutable afterwards.
type ScoreWeights struct {
	Base             int `yaml:"base"`
	Resume           int `yaml:"resume"`
	CoverLetter      int `yaml:"coverLetter"`
	CoverLetterMin   int `yaml:"coverLetterMinLength"`
	ShortlistedBonus int `yaml:"shortlistedBonus"`
	PerInterview     int `yaml:"perInterview"`
	MaxScore         int `yaml:"maxScore"`
}

// DefaultScoreWeights returns the stock weights: base 50, +10 for a resume,
// +15 for a cover letter over 200 characters, +20 while shortlisted, +5 per
// interview, clamped to 100.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Base:             50,
		Resume:           10,
		CoverLetter:      15,
		CoverLetterMin:   200,
		ShortlistedBonus: 20,
		PerInterview:     5,
		MaxScore:         100,
	}
}

// ScoreInputs are the lifecycle signals the calculator inspects. The
// calculator is pure: it looks only at the values passed here.
type ScoreInputs struct {
	ResumePresent     bool
	CoverLetterLength int
	Status            Status
	InterviewCount    int
}

// Compute derives the scoring breakdown and clamped total from the inputs.
// Adding a positive signal never decreases the result.
func (w ScoreWeights) Compute(in ScoreInputs) (ScoringDetails, int) {
	details := ScoringDetails{BonusPoints: w.Base}

	if in.ResumePresent {
		details.ResumeScore = w.Resume
	}
	if in.CoverLetterLength > w.CoverLetterMin {
		details.CoverLetterScore = w.CoverLetter
	}
	if in.Status == StatusShortlisted {
		details.BonusPoints += w.ShortlistedBonus
	}
	if in.InterviewCount > 0 {
		details.InterviewScore = in.InterviewCount * w.PerInterview
	}

	score := details.Total()
	if score > w.MaxScore {
		score = w.MaxScore
	}
	if score < 0 {
		score = 0
	}
	return details, score
}
