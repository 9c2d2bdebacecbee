package rendering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLaTeX_EmptyString(t *testing.T) {
	assert.Equal(t, "", EscapeLaTeX(""))
}

func TestEscapeLaTeX_NoSpecialCharacters(t *testing.T) {
	text := "This is normal text with no special characters"
	assert.Equal(t, text, EscapeLaTeX(text))
}

func TestEscapeLaTeX_SpecialCharacters(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"backslash", `test\backslash`, `test\textbackslash{}backslash`},
		{"braces", "text{with}braces", `text\{with\}braces`},
		{"ampersand", "R&D", `R\&D`},
		{"percent", "improved by 40%", `improved by 40\%`},
		{"dollar", "$1M revenue", `\$1M revenue`},
		{"hash", "C# developer", `C\# developer`},
		{"underscore", "snake_case", `snake\_case`},
		{"caret", "x^2", `x\textasciicircum{}2`},
		{"tilde", "~user", `\textasciitilde{}user`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EscapeLaTeX(tt.input))
		})
	}
}
