package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-tailor/internal/fetch"
	"github.com/jonathan/resume-tailor/internal/llm"
	"github.com/jonathan/resume-tailor/internal/observability"
	"github.com/jonathan/resume-tailor/internal/rendering"
	"github.com/jonathan/resume-tailor/internal/types"
	"github.com/jonathan/resume-tailor/internal/workflow"
)

// automatedStageCount is the number of non-review stages in the tailoring
// workflow, used to size the progress bar
const automatedStageCount = 7

var (
	tailorResumePath string
	tailorJobID      string
	tailorJobURL     string
	tailorJobFile    string
	tailorOutput     string
	tailorVerbose    bool
)

var tailorCmd = &cobra.Command{
	Use:   "tailor",
	Short: "Tailor a resume to a job posting interactively",
	Long: `Run the tailoring workflow locally against a resume JSON file and a job
posting, reviewing each checkpoint on the terminal. The run suspends at every
review stage; approve to advance or type feedback to redo the stage.`,
	RunE: runTailor,
}

func init() {
	tailorCmd.Flags().StringVar(&tailorResumePath, "resume", "", "Path to the resume JSON file (required)")
	tailorCmd.Flags().StringVar(&tailorJobID, "job-id", "", "LinkedIn job posting ID to fetch")
	tailorCmd.Flags().StringVar(&tailorJobURL, "job-url", "", "Job posting URL on another board (Greenhouse, Lever, Workday)")
	tailorCmd.Flags().StringVar(&tailorJobFile, "job-file", "", "Path to a file with the job description text")
	tailorCmd.Flags().StringVar(&tailorOutput, "output", "resume.pdf", "Path for the rendered PDF")
	tailorCmd.Flags().BoolVar(&tailorVerbose, "verbose", false, "Print stage outputs as they are produced")
	_ = tailorCmd.MarkFlagRequired("resume")
	rootCmd.AddCommand(tailorCmd)
}

func runTailor(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	resume, err := loadResumeFile(tailorResumePath)
	if err != nil {
		return err
	}
	jobText, err := loadJobText(ctx)
	if err != nil {
		return err
	}

	client, err := llm.NewGeminiClient(ctx, llm.DefaultConfig(), apiKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer client.Close()

	engine := workflow.NewEngine(workflow.NewMemoryStore(), workflow.NewTailorWorkflow(client))
	printer := observability.NewPrinter(os.Stdout)
	bar := progressbar.Default(automatedStageCount, "Tailoring")
	onProgress := func(event workflow.ProgressEvent) {
		switch event.Phase {
		case workflow.PhaseStart:
			bar.Describe(event.Label)
		case workflow.PhaseComplete:
			_ = bar.Add(1)
		}
	}

	runID := uuid.New().String()
	outcome, err := engine.Start(ctx, workflow.StartRequest{
		RunID:      runID,
		Workflow:   workflow.TailorWorkflowName,
		State:      &workflow.State{RawJobText: jobText, Resume: resume},
		OnProgress: onProgress,
	})

	stdin := bufio.NewScanner(os.Stdin)
	for err == nil && outcome.Suspended {
		_ = bar.Clear()
		printCheckpoint(printer, outcome)

		verdict, readErr := readVerdict(stdin)
		if readErr != nil {
			return readErr
		}
		outcome, err = engine.Resume(ctx, workflow.ResumeRequest{
			RunID:      runID,
			Verdict:    verdict,
			OnProgress: onProgress,
		})
	}
	if err != nil {
		return err
	}
	_ = bar.Finish()
	fmt.Println()

	if tailorVerbose {
		printer.PrintSkillMatch(outcome.State.SkillMatch)
	}
	return writePDF(ctx, outcome.State.Tailored)
}

func loadResumeFile(path string) (*types.ResumeRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read resume file: %w", err)
	}
	var resume types.ResumeRecord
	if err := json.Unmarshal(data, &resume); err != nil {
		return nil, fmt.Errorf("invalid resume JSON: %w", err)
	}
	if resume.Name == "" {
		return nil, fmt.Errorf("resume file is missing a name")
	}
	return &resume, nil
}

func loadJobText(ctx context.Context) (string, error) {
	switch {
	case tailorJobFile != "":
		data, err := os.ReadFile(tailorJobFile)
		if err != nil {
			return "", fmt.Errorf("failed to read job file: %w", err)
		}
		return string(data), nil
	case tailorJobID != "":
		posting, err := fetch.FetchJobPosting(ctx, tailorJobID, fetch.DefaultOptions())
		if err != nil {
			return "", fmt.Errorf("failed to fetch job posting: %w", err)
		}
		fmt.Printf("Fetched %s at %s\n", posting.Title, posting.Company)
		return posting.DescriptionText, nil
	case tailorJobURL != "":
		posting, err := fetch.FetchJobURL(ctx, tailorJobURL, fetch.DefaultOptions())
		if err != nil {
			return "", fmt.Errorf("failed to fetch job posting: %w", err)
		}
		return posting.DescriptionText, nil
	default:
		return "", fmt.Errorf("one of --job-id, --job-url or --job-file is required")
	}
}

// printCheckpoint shows what the suspended run proposes for review
func printCheckpoint(printer *observability.Printer, outcome *workflow.Outcome) {
	if tailorVerbose {
		switch outcome.Stage {
		case workflow.StageReviewProjects:
			printer.PrintJobDescription(outcome.State.JobDesc)
			printer.PrintSkillMatch(outcome.State.SkillMatch)
			printer.PrintProjects("SELECTED PROJECTS", outcome.State.SelectedProjects)
		case workflow.StageReviewSkills:
			printer.PrintSkills(outcome.State.SelectedSkills)
		case workflow.StageReviewProjectRewrite:
			printer.PrintProjects("REWRITTEN PROJECTS", outcome.State.RewrittenProjects)
		case workflow.StageReviewExperienceRewrite:
			printer.PrintExperience(outcome.State.RewrittenExperience)
		}
		return
	}

	var pretty map[string]json.RawMessage
	if err := json.Unmarshal(outcome.Payload, &pretty); err == nil {
		if data, err := json.MarshalIndent(pretty, "", "  "); err == nil {
			fmt.Println(string(data))
			return
		}
	}
	fmt.Println(string(outcome.Payload))
}

// readVerdict prompts for an approval; any answer other than yes is treated
// as feedback for a redo
func readVerdict(stdin *bufio.Scanner) (types.Verdict, error) {
	fmt.Print("Approve? [y] yes / anything else is feedback for a redo: ")
	if !stdin.Scan() {
		if err := stdin.Err(); err != nil {
			return types.Verdict{}, err
		}
		return types.Verdict{}, fmt.Errorf("input closed before the review was answered")
	}

	answer := strings.TrimSpace(stdin.Text())
	switch strings.ToLower(answer) {
	case "y", "yes", "":
		return types.Verdict{Approved: true}, nil
	default:
		return types.Verdict{Approved: false, Feedback: answer}, nil
	}
}

func writePDF(ctx context.Context, tailored *types.ResumeRecord) error {
	tex, err := rendering.Render(tailored)
	if err != nil {
		return fmt.Errorf("failed to render LaTeX: %w", err)
	}
	pdf, err := rendering.CompilePDF(ctx, tex)
	if err != nil {
		return fmt.Errorf("failed to compile PDF: %w", err)
	}
	if err := os.WriteFile(tailorOutput, pdf, 0o644); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	fmt.Printf("Wrote tailored resume to %s\n", tailorOutput)
	return nil
}
