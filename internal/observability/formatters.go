// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-tailor/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// listSection appends up to maxItemsToShow items under a heading
func listSection(sb *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(heading + ":\n")
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-maxItemsToShow))
	}
}

// PrintJobDescription outputs a human-readable summary of the parsed posting.
func (p *Printer) PrintJobDescription(jd *types.JobDescription) {
	if jd == nil {
		return
	}

	var sb strings.Builder
	if jd.Location != "" {
		sb.WriteString(fmt.Sprintf("Location: %s\n\n", jd.Location))
	}
	listSection(&sb, "Must-have", jd.MustHaveQualifications)
	listSection(&sb, "Nice-to-have", jd.NiceToHaveQualifications)
	listSection(&sb, "Keywords", jd.Keywords)

	p.printBox("PARSED JOB DESCRIPTION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSkillMatch outputs the skill match partitions and scores.
func (p *Printer) PrintSkillMatch(match *types.SkillMatchResult) {
	if match == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Must-have score:    %.3f\n", match.MustHaveScore))
	sb.WriteString(fmt.Sprintf("Nice-to-have score: %.3f\n", match.NiceToHaveScore))
	sb.WriteString(fmt.Sprintf("Final score:        %.3f\n\n", match.FinalScore))
	listSection(&sb, "Matched must-have", match.MatchedMustHave)
	listSection(&sb, "Missing must-have", match.MissingMustHave)
	listSection(&sb, "Missing nice-to-have", match.MissingNiceToHave)

	p.printBox("SKILL MATCH", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintProjects outputs a project list, one line per project.
func (p *Printer) PrintProjects(title string, projects []types.Project) {
	if len(projects) == 0 {
		return
	}

	var sb strings.Builder
	for _, project := range projects {
		sb.WriteString(fmt.Sprintf("• %s (%d bullets)\n", project.Name, len(project.Bullets)))
	}
	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSkills outputs selected skill categories.
func (p *Printer) PrintSkills(categories []types.SkillCategory) {
	if len(categories) == 0 {
		return
	}

	var sb strings.Builder
	for _, category := range categories {
		skills := strings.Join(category.Skills, ", ")
		if len(skills) > 40 {
			skills = skills[:37] + "..."
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", category.Category, skills))
	}
	p.printBox("SELECTED SKILLS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintExperience outputs rewritten experience entries.
func (p *Printer) PrintExperience(entries []types.Experience) {
	if len(entries) == 0 {
		return
	}

	var sb strings.Builder
	for _, entry := range entries {
		sb.WriteString(fmt.Sprintf("• %s @ %s (%d bullets)\n", entry.Role, entry.Company, len(entry.Bullets)))
	}
	p.printBox("REWRITTEN EXPERIENCE", strings.TrimSuffix(sb.String(), "\n"))
}
