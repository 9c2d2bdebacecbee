package rendering

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// CompilationTimeout is the maximum time to wait for LaTeX compilation
const CompilationTimeout = 30 * time.Second

// CompilePDF compiles LaTeX source to PDF bytes using pdflatex in a
// temporary directory. Requires a LaTeX distribution on the host.
func CompilePDF(ctx context.Context, texSource string) ([]byte, error) {
	if _, err := exec.LookPath("pdflatex"); err != nil {
		return nil, &CompilationError{
			Message: "pdflatex not found in PATH. Please install a LaTeX distribution (e.g., TeX Live, MiKTeX)",
			Cause:   err,
		}
	}

	workDir, err := os.MkdirTemp("", "resume-pdf-*")
	if err != nil {
		return nil, &CompilationError{Message: "failed to create temporary working directory", Cause: err}
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	texPath := filepath.Join(workDir, "resume.tex")
	if err := os.WriteFile(texPath, []byte(texSource), 0644); err != nil {
		return nil, &CompilationError{Message: "failed to write LaTeX source", Cause: err}
	}

	ctx, cancel := context.WithTimeout(ctx, CompilationTimeout)
	defer cancel()

	// -interaction=nonstopmode prevents interactive prompts
	cmd := exec.CommandContext(ctx, "pdflatex", "-interaction=nonstopmode", "-output-directory", workDir, texPath)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	// pdflatex exits non-zero on recoverable warnings; the PDF's existence
	// is what decides success
	pdfPath := filepath.Join(workDir, "resume.pdf")
	pdf, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, &CompilationError{
			Message:   "LaTeX compilation failed: PDF was not generated",
			LogOutput: stdout.String() + stderr.String(),
			Cause:     runErr,
		}
	}
	return pdf, nil
}
