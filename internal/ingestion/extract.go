package ingestion

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractionError reports an upload that could not be turned into text
type ExtractionError struct {
	Filename string
	Message  string
	Cause    error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to extract text from %s: %s: %v", e.Filename, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to extract text from %s: %s", e.Filename, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// ExtractText converts an uploaded resume file to clean plain text.
// Plain-text and Markdown files pass through cleaning; HTML exports are
// stripped to their visible text. Anything else is rejected.
func ExtractText(data []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".txt", ".md", ".markdown", "":
		text := CleanText(string(data))
		if text == "" {
			return "", &ExtractionError{Filename: filename, Message: "file contains no text"}
		}
		return text, nil

	case ".html", ".htm":
		text, err := htmlToText(data)
		if err != nil {
			return "", &ExtractionError{Filename: filename, Message: "could not parse HTML", Cause: err}
		}
		if text == "" {
			return "", &ExtractionError{Filename: filename, Message: "document contains no text"}
		}
		return text, nil

	default:
		return "", &ExtractionError{Filename: filename, Message: fmt.Sprintf("unsupported file type %q", ext)}
	}
}

// htmlToText strips markup and returns the document's visible text, with
// block elements separated by newlines.
func htmlToText(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, noscript").Remove()

	var sb strings.Builder
	doc.Find("body *").Each(func(_ int, sel *goquery.Selection) {
		// Only leaf-level text, so nested blocks are not duplicated
		if sel.Children().Length() > 0 {
			return
		}
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	})

	text := sb.String()
	if text == "" {
		// Documents without a body still may carry bare text
		text = doc.Text()
	}
	return CleanText(text), nil
}
