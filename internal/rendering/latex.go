package rendering

import (
	_ "embed"
	"strings"
	"text/template"

	"github.com/jonathan/resume-tailor/internal/types"
)

//go:embed resume.tex.tmpl
var resumeTemplate string

var tmpl = template.Must(template.New("resume").Funcs(template.FuncMap{
	"escape": EscapeLaTeX,
	"joinEscaped": func(items []string, sep string) string {
		escaped := make([]string, len(items))
		for i, item := range items {
			escaped[i] = EscapeLaTeX(item)
		}
		return strings.Join(escaped, sep)
	},
}).Parse(resumeTemplate))

// Render produces the LaTeX source for a resume record
func Render(resume *types.ResumeRecord) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, resume); err != nil {
		return "", &TemplateError{Message: "failed to execute template", Cause: err}
	}
	return sb.String(), nil
}
