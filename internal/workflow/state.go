// Package workflow implements the multi-stage tailoring engine with
// human-in-the-loop checkpointing. Runs advance through an explicit stage
// sequence; review stages suspend the run by returning instead of blocking,
// and a durable run record lets a later process resume where it stopped.
package workflow

import (
	"encoding/json"

	"github.com/jonathan/resume-tailor/internal/types"
)

// State is the single accumulator for a run. Source inputs are set before
// the run starts; derived fields stay unset until their stage produces them.
// The per-loop conversation logs are append-only and drive redo routing.
type State struct {
	// Source inputs
	RawJobText    string              `json:"raw_job_text,omitempty"`
	RawResumeText string              `json:"raw_resume_text,omitempty"`
	Resume        *types.ResumeRecord `json:"resume,omitempty"`

	// Derived per stage
	JobDesc             *types.JobDescription   `json:"job_desc,omitempty"`
	SkillMatch          *types.SkillMatchResult `json:"skill_match,omitempty"`
	SelectedProjects    []types.Project         `json:"selected_projects,omitempty"`
	SelectedSkills      []types.SkillCategory   `json:"selected_skills,omitempty"`
	RewrittenProjects   []types.Project         `json:"rewritten_projects,omitempty"`
	RewrittenExperience []types.Experience      `json:"rewritten_experience,omitempty"`
	Tailored            *types.ResumeRecord     `json:"tailored,omitempty"`

	// Conversation logs for the four review loops
	ProjectLog           []types.Message `json:"project_log,omitempty"`
	SkillLog             []types.Message `json:"skill_log,omitempty"`
	ProjectRewriteLog    []types.Message `json:"project_rewrite_log,omitempty"`
	ExperienceRewriteLog []types.Message `json:"experience_rewrite_log,omitempty"`
}

// Clone returns a deep copy of the state via a JSON round trip, matching
// exactly what a store persists and reloads.
func (s *State) Clone() (*State, error) {
	if s == nil {
		return nil, nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var out State
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
