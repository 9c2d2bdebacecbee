package workflow

import (
	"context"
	"fmt"

	"github.com/jonathan/resume-tailor/internal/llm"
	"github.com/jonathan/resume-tailor/internal/prompts"
	"github.com/jonathan/resume-tailor/internal/types"
)

// IngestWorkflowName identifies the resume ingestion workflow in run records
const IngestWorkflowName = "ingest"

// NewIngestionWorkflow builds the two-stage resume ingestion workflow:
// structured extraction from raw text, then a single review whose verdict is
// the edited record itself. The review is unconditionally final; there is no
// redo loop.
func NewIngestionWorkflow(gen llm.Generator) *Workflow {
	return MustNew(IngestWorkflowName, StageExtractResume,
		&Stage{
			ID:    StageExtractResume,
			Label: "Extracting resume",
			Kind:  KindAutomated,
			Next:  StageReviewExtraction,
			Run: func(ctx context.Context, s *State) error {
				messages := []types.Message{
					{Role: types.RoleSystem, Content: prompts.MustGet("ingestion.json", "extract_system")},
					{Role: types.RoleUser, Content: prompts.MustFormat("ingestion.json", "extract_user", map[string]string{
						"RawText": s.RawResumeText,
					})},
				}
				var resume types.ResumeRecord
				if err := gen.GenerateStructured(ctx, llm.TierStandard, messages, "resume_record", &resume); err != nil {
					return err
				}
				s.Resume = &resume
				return nil
			},
			Output: func(s *State) any { return s.Resume },
		},
		&Stage{
			ID:    StageReviewExtraction,
			Label: "Reviewing extracted resume",
			Kind:  KindReview,
			Propose: func(s *State) map[string]any {
				return map[string]any{
					"resume":  s.Resume,
					"message": "Please review and edit your extracted resume data.",
				}
			},
			Apply: func(s *State, v types.Verdict) error {
				if v.EditedResume == nil {
					return fmt.Errorf("extraction review requires the edited resume record: %w", ErrInvalidVerdict)
				}
				s.Resume = v.EditedResume
				return nil
			},
			Route: func(s *State) StageID { return StageNone },
		},
	)
}
