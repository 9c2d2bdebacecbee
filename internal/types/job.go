package types

// JobDescription is the structured job posting extracted from raw text.
// Qualifications and keywords are short atomic phrases taken only from what
// the posting explicitly states.
type JobDescription struct {
	Location                 string   `json:"location,omitempty"`
	Responsibilities         []string `json:"responsibilities"`
	MustHaveQualifications   []string `json:"must_have_qualifications"`
	NiceToHaveQualifications []string `json:"nice_to_have_qualifications"`
	Keywords                 []string `json:"keywords"`
}

// SkillMatchResult holds the outcome of matching resume skills against a
// job description. The matched and missing sets partition the requested
// qualifications for each tier; scores are in [0,1] rounded to 3 decimals.
type SkillMatchResult struct {
	MatchedMustHave   []string `json:"matched_must_have"`
	MissingMustHave   []string `json:"missing_must_have"`
	MatchedNiceToHave []string `json:"matched_nice_to_have"`
	MissingNiceToHave []string `json:"missing_nice_to_have"`
	MustHaveScore     float64  `json:"must_have_score"`
	NiceToHaveScore   float64  `json:"nice_to_have_score"`
	FinalScore        float64  `json:"final_score"`
}
