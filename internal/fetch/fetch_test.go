package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html><body><h1>Test</h1></body></html>"))
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Contains(t, result.HTML, "<h1>Test</h1>")
	assert.Equal(t, http.StatusOK, result.StatusCode)
}

func TestURL_InvalidURL(t *testing.T) {
	_, err := URL(context.Background(), "not-a-valid-url", nil)
	require.Error(t, err)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "invalid URL")
}

func TestURL_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.Error(t, err)
	// The body is still returned alongside the error
	require.NotNil(t, result)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
}

func TestExtractMainText(t *testing.T) {
	html := `<html><body>
		<nav>Navigation</nav>
		<main><p>Looking for   a Go developer.</p></main>
		<footer>Footer text</footer>
	</body></html>`

	text, err := ExtractMainText(html, []string{"main"})
	require.NoError(t, err)
	assert.Contains(t, text, "Go developer")
	assert.NotContains(t, text, "Navigation")
	assert.NotContains(t, text, "Footer")
}

const samplePostingHTML = `<html><body>
	<div class="top-card-layout__card">
		<a href="/company/acme"><img alt=" Acme Corp " src="logo.png"></a>
	</div>
	<div class="top-card-layout__entity-info">
		<a href="/jobs/view/123"> Senior Go Engineer </a>
	</div>
	<div class="show-more-less-html__markup">
		<p>We build backend systems in Go.</p>
		<ul><li>5+ years experience</li></ul>
	</div>
</body></html>`

func TestParseJobPosting(t *testing.T) {
	posting, err := parseJobPosting("123", samplePostingHTML)
	require.NoError(t, err)

	assert.Equal(t, "123", posting.JobID)
	assert.Equal(t, "Acme Corp", posting.Company)
	assert.Equal(t, "Senior Go Engineer", posting.Title)
	assert.Contains(t, posting.DescriptionText, "backend systems in Go")
	assert.Contains(t, posting.DescriptionText, "5+ years experience")
	assert.Contains(t, posting.DescriptionHTML, "show-more-less-html__markup")
}

func TestParseJobPosting_MissingDescription(t *testing.T) {
	_, err := parseJobPosting("123", "<html><body><p>nothing here</p></body></html>")
	assert.Error(t, err)
}

func TestParseJobPosting_MissingCompanyAndTitle(t *testing.T) {
	html := `<div class="show-more-less-html__markup"><p>Just a description.</p></div>`

	posting, err := parseJobPosting("456", html)
	require.NoError(t, err)
	assert.Empty(t, posting.Company)
	assert.Empty(t, posting.Title)
	assert.Contains(t, posting.DescriptionText, "Just a description.")
}

func TestShouldUseBrowser(t *testing.T) {
	assert.True(t, ShouldUseBrowser("short"))
	assert.True(t, ShouldUseBrowser(""))

	long := make([]byte, MinContentLength+1)
	for i := range long {
		long[i] = 'a'
	}
	assert.False(t, ShouldUseBrowser(string(long)))
}
