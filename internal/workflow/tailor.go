package workflow

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jonathan/resume-tailor/internal/llm"
	"github.com/jonathan/resume-tailor/internal/matching"
	"github.com/jonathan/resume-tailor/internal/prompts"
	"github.com/jonathan/resume-tailor/internal/types"
)

// TailorWorkflowName identifies the tailoring workflow in run records
const TailorWorkflowName = "tailor"

// NewTailorWorkflow builds the resume tailoring workflow over the given
// generator: JD parsing, skill matching, then four propose/review loops
// (project selection, skill selection, project rewrite, experience rewrite)
// and a final pure assembly.
func NewTailorWorkflow(gen llm.Generator) *Workflow {
	return MustNew(TailorWorkflowName, StageParseJD,
		&Stage{
			ID:    StageParseJD,
			Label: "Parsing job description",
			Kind:  KindAutomated,
			Next:  StageMatchSkills,
			Run: func(ctx context.Context, s *State) error {
				messages := []types.Message{
					{Role: types.RoleSystem, Content: prompts.MustGet("tailor.json", "jd_parsing_system")},
					{Role: types.RoleUser, Content: prompts.MustFormat("tailor.json", "jd_parsing_user", map[string]string{
						"JobText": s.RawJobText,
					})},
				}
				var jd types.JobDescription
				if err := gen.GenerateStructured(ctx, llm.TierStandard, messages, "job_description", &jd); err != nil {
					return err
				}
				s.JobDesc = &jd
				return nil
			},
			Output: func(s *State) any { return s.JobDesc },
		},
		&Stage{
			ID:    StageMatchSkills,
			Label: "Matching skills",
			Kind:  KindAutomated,
			Next:  StageSelectProjects,
			Run: func(ctx context.Context, s *State) error {
				return matchSkills(ctx, gen, s)
			},
			Output: func(s *State) any { return s.SkillMatch },
		},
		&Stage{
			ID:    StageSelectProjects,
			Label: "Selecting projects",
			Kind:  KindAutomated,
			Next:  StageReviewProjects,
			Run: func(ctx context.Context, s *State) error {
				seed := []types.Message{
					{Role: types.RoleSystem, Content: prompts.MustGet("tailor.json", "project_selection_system")},
					{Role: types.RoleUser, Content: prompts.MustFormat("tailor.json", "project_selection_user", map[string]string{
						"Keywords":        strings.Join(s.JobDesc.Keywords, ", "),
						"MatchedMustHave": strings.Join(s.SkillMatch.MatchedMustHave, ", "),
						"Projects":        mustJSON(s.Resume.Projects),
					})},
				}
				var out struct {
					Projects []types.Project `json:"projects"`
				}
				if err := runProposal(ctx, gen, llm.TierStandard, &s.ProjectLog, seed, "project_selection", &out); err != nil {
					return err
				}
				s.SelectedProjects = out.Projects
				return nil
			},
			Output: func(s *State) any { return s.SelectedProjects },
		},
		reviewStage(StageReviewProjects, "Reviewing selected projects",
			StageSelectProjects, StageSelectSkills,
			func(s *State) map[string]any {
				return map[string]any{
					"selected_projects": s.SelectedProjects,
					"message":           "Review the selected projects. Approve or provide feedback.",
				}
			},
			func(s *State) *[]types.Message { return &s.ProjectLog },
		),
		&Stage{
			ID:    StageSelectSkills,
			Label: "Selecting skills",
			Kind:  KindAutomated,
			Next:  StageReviewSkills,
			Run: func(ctx context.Context, s *State) error {
				seed := []types.Message{
					{Role: types.RoleSystem, Content: prompts.MustGet("tailor.json", "skill_selection_system")},
					{Role: types.RoleUser, Content: prompts.MustFormat("tailor.json", "skill_selection_user", map[string]string{
						"Keywords":        strings.Join(s.JobDesc.Keywords, ", "),
						"MatchedMustHave": strings.Join(s.SkillMatch.MatchedMustHave, ", "),
						"MissingMustHave": strings.Join(s.SkillMatch.MissingMustHave, ", "),
						"Skills":          mustJSON(s.Resume.Skills),
					})},
				}
				var out struct {
					Skills []types.SkillCategory `json:"skills"`
				}
				if err := runProposal(ctx, gen, llm.TierStandard, &s.SkillLog, seed, "skill_selection", &out); err != nil {
					return err
				}
				s.SelectedSkills = out.Skills
				return nil
			},
			Output: func(s *State) any { return s.SelectedSkills },
		},
		reviewStage(StageReviewSkills, "Reviewing selected skills",
			StageSelectSkills, StageRewriteProjects,
			func(s *State) map[string]any {
				return map[string]any{
					"selected_skills": s.SelectedSkills,
					"message":         "Review the selected skills. Approve or provide feedback.",
				}
			},
			func(s *State) *[]types.Message { return &s.SkillLog },
		),
		&Stage{
			ID:    StageRewriteProjects,
			Label: "Rewriting project bullets",
			Kind:  KindAutomated,
			Next:  StageReviewProjectRewrite,
			Run: func(ctx context.Context, s *State) error {
				seed := []types.Message{
					{Role: types.RoleSystem, Content: prompts.MustGet("tailor.json", "project_rewrite_system")},
					{Role: types.RoleUser, Content: prompts.MustFormat("tailor.json", "project_rewrite_user", map[string]string{
						"Keywords":        strings.Join(s.JobDesc.Keywords, ", "),
						"MatchedMustHave": strings.Join(s.SkillMatch.MatchedMustHave, ", "),
						"Projects":        mustJSON(s.SelectedProjects),
					})},
				}
				var out struct {
					Projects []types.Project `json:"projects"`
				}
				if err := runProposal(ctx, gen, llm.TierAdvanced, &s.ProjectRewriteLog, seed, "project_rewrite", &out); err != nil {
					return err
				}
				s.RewrittenProjects = out.Projects
				return nil
			},
			Output: func(s *State) any { return s.RewrittenProjects },
		},
		reviewStage(StageReviewProjectRewrite, "Reviewing rewritten projects",
			StageRewriteProjects, StageRewriteExperience,
			func(s *State) map[string]any {
				return map[string]any{
					"rewritten_projects": s.RewrittenProjects,
					"message":            "Review the rewritten projects. Approve or provide feedback.",
				}
			},
			func(s *State) *[]types.Message { return &s.ProjectRewriteLog },
		),
		&Stage{
			ID:    StageRewriteExperience,
			Label: "Rewriting experience bullets",
			Kind:  KindAutomated,
			Next:  StageReviewExperienceRewrite,
			Run: func(ctx context.Context, s *State) error {
				seed := []types.Message{
					{Role: types.RoleSystem, Content: prompts.MustGet("tailor.json", "experience_rewrite_system")},
					{Role: types.RoleUser, Content: prompts.MustFormat("tailor.json", "experience_rewrite_user", map[string]string{
						"Keywords":        strings.Join(s.JobDesc.Keywords, ", "),
						"MatchedMustHave": strings.Join(s.SkillMatch.MatchedMustHave, ", "),
						"Experience":      mustJSON(s.Resume.Experience),
					})},
				}
				var out struct {
					Experience []types.Experience `json:"experience"`
				}
				if err := runProposal(ctx, gen, llm.TierAdvanced, &s.ExperienceRewriteLog, seed, "experience_rewrite", &out); err != nil {
					return err
				}
				s.RewrittenExperience = out.Experience
				return nil
			},
			Output: func(s *State) any { return s.RewrittenExperience },
		},
		reviewStage(StageReviewExperienceRewrite, "Reviewing rewritten experience",
			StageRewriteExperience, StageAssemble,
			func(s *State) map[string]any {
				return map[string]any{
					"rewritten_experience": s.RewrittenExperience,
					"message":              "Review the rewritten experience. Approve or provide feedback.",
				}
			},
			func(s *State) *[]types.Message { return &s.ExperienceRewriteLog },
		),
		&Stage{
			ID:    StageAssemble,
			Label: "Assembling resume",
			Kind:  KindAutomated,
			Next:  StageNone,
			Run: func(ctx context.Context, s *State) error {
				tailored := s.Resume.Clone()
				tailored.Projects = s.RewrittenProjects
				tailored.Skills = s.SelectedSkills
				tailored.Experience = s.RewrittenExperience
				s.Tailored = tailored
				return nil
			},
			Output: func(s *State) any { return s.Tailored },
		},
	)
}

// matchSkills computes exact skill intersections, escalating to the
// generator only when something is unmatched. Promotions are guarded so the
// result always partitions the requested skills.
func matchSkills(ctx context.Context, gen llm.Generator, s *State) error {
	must := matching.Normalize(s.JobDesc.MustHaveQualifications)
	nice := matching.Normalize(s.JobDesc.NiceToHaveQualifications)
	resume := matching.FlattenResumeSkills(s.Resume.Skills)

	matchedMust, missingMust := matching.Partition(must, resume)
	matchedNice, missingNice := matching.Partition(nice, resume)

	if len(missingMust)+len(missingNice) > 0 {
		messages := []types.Message{
			{Role: types.RoleSystem, Content: prompts.MustGet("tailor.json", "skill_match_system")},
			{Role: types.RoleUser, Content: prompts.MustFormat("tailor.json", "skill_match_user", map[string]string{
				"ResumeSkills":      strings.Join(resume, ", "),
				"MissingMustHave":   strings.Join(missingMust, ", "),
				"MissingNiceToHave": strings.Join(missingNice, ", "),
			})},
		}
		var semantic struct {
			MatchedMustHave   []string `json:"matched_must_have"`
			MatchedNiceToHave []string `json:"matched_nice_to_have"`
		}
		if err := gen.GenerateStructured(ctx, llm.TierLite, messages, "semantic_match", &semantic); err != nil {
			return err
		}
		matchedMust, missingMust = matching.Promote(matchedMust, missingMust, semantic.MatchedMustHave)
		matchedNice, missingNice = matching.Promote(matchedNice, missingNice, semantic.MatchedNiceToHave)
	}

	result := matching.Result(matchedMust, missingMust, matchedNice, missingNice)
	s.SkillMatch = &result
	return nil
}

// runProposal drives one proposal turn of a review loop. A fresh loop seeds
// the conversation with its system and user messages; a redo reuses the
// accumulated log, whose tail is the latest human feedback. The decoded
// response is appended as the assistant turn either way, so the log keeps
// the full history across rejections.
func runProposal(ctx context.Context, gen llm.Generator, tier llm.ModelTier, log *[]types.Message, seed []types.Message, schemaName string, out any) error {
	messages := *log
	fresh := len(messages) == 0
	if fresh {
		messages = seed
	}
	if err := gen.GenerateStructured(ctx, tier, messages, schemaName, out); err != nil {
		return err
	}
	encoded, err := json.Marshal(out)
	if err != nil {
		return err
	}
	*log = append(messages, types.Message{Role: types.RoleAssistant, Content: string(encoded)})
	return nil
}

// reviewStage builds a human review checkpoint. A rejection appends exactly
// one feedback message to the loop's log, which routes the run back to the
// producing stage; approval leaves the log alone and advances.
func reviewStage(id StageID, label string, redo, advance StageID, payload func(*State) map[string]any, log func(*State) *[]types.Message) *Stage {
	return &Stage{
		ID:      id,
		Label:   label,
		Kind:    KindReview,
		Propose: payload,
		Apply: func(s *State, v types.Verdict) error {
			if !v.Approved {
				entry := types.Message{
					Role: types.RoleUser,
					Content: prompts.MustFormat("tailor.json", "feedback", map[string]string{
						"Feedback": v.Feedback,
					}),
				}
				*log(s) = append(*log(s), entry)
			}
			return nil
		},
		Route: func(s *State) StageID {
			return routeAfterReview(*log(s), redo, advance)
		},
	}
}

// mustJSON renders a value as compact JSON for prompt interpolation
func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
