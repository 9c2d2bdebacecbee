package llm

import "fmt"

// GenerationError represents a failed generator invocation: provider errors,
// empty responses, or output that failed schema validation or decoding.
type GenerationError struct {
	Schema  string
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generation failed (%s): %s: %v", e.Schema, e.Message, e.Cause)
	}
	return fmt.Sprintf("generation failed (%s): %s", e.Schema, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
