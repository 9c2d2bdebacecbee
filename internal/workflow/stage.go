package workflow

import (
	"context"
	"fmt"

	"github.com/jonathan/resume-tailor/internal/types"
)

// StageID identifies a stage within a workflow. StageNone marks completion.
type StageID string

// StageNone is the terminal successor: a run whose current stage is
// StageNone is complete.
const StageNone StageID = ""

// Tailoring workflow stages
const (
	StageParseJD                 StageID = "parse_jd"
	StageMatchSkills             StageID = "match_skills"
	StageSelectProjects          StageID = "select_projects"
	StageReviewProjects          StageID = "review_projects"
	StageSelectSkills            StageID = "select_skills"
	StageReviewSkills            StageID = "review_skills"
	StageRewriteProjects         StageID = "rewrite_projects"
	StageReviewProjectRewrite    StageID = "review_project_rewrite"
	StageRewriteExperience       StageID = "rewrite_experience"
	StageReviewExperienceRewrite StageID = "review_experience_rewrite"
	StageAssemble                StageID = "assemble"
)

// Ingestion workflow stages
const (
	StageExtractResume    StageID = "extract_resume"
	StageReviewExtraction StageID = "review_extraction"
)

// Kind distinguishes automated stages from human review checkpoints
type Kind string

const (
	KindAutomated Kind = "automated"
	KindReview    Kind = "review"
)

// Stage is one step of a workflow. Automated stages implement Run, Next and
// optionally Output (the stage's product, for progress events). Review stages
// implement Propose (the suspension payload), Apply (verdict handling, which
// must validate before mutating state) and Route (successor from the
// conversation log).
type Stage struct {
	ID    StageID
	Label string
	Kind  Kind

	// Automated
	Run    func(ctx context.Context, s *State) error
	Next   StageID
	Output func(s *State) any

	// Review
	Propose func(s *State) map[string]any
	Apply   func(s *State, v types.Verdict) error
	Route   func(s *State) StageID
}

// Workflow is a named, immutable set of stages with a fixed entry point
type Workflow struct {
	Name   string
	First  StageID
	stages map[StageID]*Stage
}

// New assembles a workflow and checks that every declared successor exists.
func New(name string, first StageID, stages ...*Stage) (*Workflow, error) {
	w := &Workflow{Name: name, First: first, stages: make(map[StageID]*Stage, len(stages))}
	for _, stage := range stages {
		if _, dup := w.stages[stage.ID]; dup {
			return nil, fmt.Errorf("workflow %s: duplicate stage %q", name, stage.ID)
		}
		w.stages[stage.ID] = stage
	}
	if _, ok := w.stages[first]; !ok {
		return nil, fmt.Errorf("workflow %s: first stage %q not defined", name, first)
	}
	for _, stage := range w.stages {
		if stage.Kind == KindAutomated && stage.Next != StageNone {
			if _, ok := w.stages[stage.Next]; !ok {
				return nil, fmt.Errorf("workflow %s: stage %q points at undefined stage %q", name, stage.ID, stage.Next)
			}
		}
	}
	return w, nil
}

// MustNew is New, panicking on a malformed definition. Workflow definitions
// are static, so a failure here is a programming error.
func MustNew(name string, first StageID, stages ...*Stage) *Workflow {
	w, err := New(name, first, stages...)
	if err != nil {
		panic(err)
	}
	return w
}

// Stage looks up a stage by id
func (w *Workflow) Stage(id StageID) (*Stage, bool) {
	stage, ok := w.stages[id]
	return stage, ok
}

// routeAfterReview implements redo-or-advance: a conversation log whose last
// entry is a user message carries unaddressed feedback, so the producing
// stage runs again; otherwise the run advances.
func routeAfterReview(log []types.Message, redo, advance StageID) StageID {
	if len(log) > 0 && log[len(log)-1].Role == types.RoleUser {
		return redo
	}
	return advance
}
