package types

// Message roles for generator conversations
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged entry in a stage conversation log
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Verdict is the human input that resumes a suspended review stage.
// Tailoring reviews use Approved/Feedback; the ingestion review instead
// carries the full corrected resume record.
type Verdict struct {
	Approved     bool          `json:"approved"`
	Feedback     string        `json:"feedback,omitempty"`
	EditedResume *ResumeRecord `json:"edited_resume,omitempty"`
}
