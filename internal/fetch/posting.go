package fetch

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// guestEndpoint is LinkedIn's unauthenticated job posting API
const guestEndpoint = "https://www.linkedin.com/jobs-guest/jobs/api/jobPosting/%s"

// JobPosting is a scraped job posting
type JobPosting struct {
	JobID           string
	Title           string
	Company         string
	DescriptionHTML string
	DescriptionText string
}

// FetchJobPosting fetches a LinkedIn posting by job id and scrapes the company,
// title and description. When the plain HTTP response carries too little
// content the page is re-rendered in a headless browser.
func FetchJobPosting(ctx context.Context, jobID string, opts *Options) (*JobPosting, error) {
	targetURL := fmt.Sprintf(guestEndpoint, jobID)

	result, err := URL(ctx, targetURL, opts)
	if err != nil && result == nil {
		return nil, err
	}

	posting, parseErr := parseJobPosting(jobID, result.HTML)
	if parseErr == nil && !ShouldUseBrowser(posting.DescriptionText) {
		return posting, nil
	}

	// Thin or unparseable response: the posting likely needs JS rendering
	html, browserErr := WithBrowser(ctx, targetURL, DefaultTimeout)
	if browserErr != nil {
		if parseErr != nil {
			return nil, &Error{URL: targetURL, Message: "could not scrape posting", Cause: parseErr}
		}
		return posting, nil
	}
	if rendered, err := parseJobPosting(jobID, html); err == nil {
		return rendered, nil
	}
	if parseErr != nil {
		return nil, &Error{URL: targetURL, Message: "could not scrape posting", Cause: parseErr}
	}
	return posting, nil
}

// FetchJobURL fetches a posting from an arbitrary job board URL. The board is
// detected from the host so extraction can use its selector set; pages that
// come back too thin are re-rendered in a headless browser.
func FetchJobURL(ctx context.Context, urlStr string, opts *Options) (*JobPosting, error) {
	platform := DetectPlatform(urlStr)

	result, err := URL(ctx, urlStr, opts)
	if err != nil && result == nil {
		return nil, err
	}

	text, extractErr := extractPostingText(result.HTML, platform)
	if extractErr == nil && !ShouldUseBrowser(text) {
		return &JobPosting{DescriptionHTML: result.HTML, DescriptionText: text}, nil
	}

	html, browserErr := WithBrowser(ctx, urlStr, DefaultTimeout)
	if browserErr == nil {
		if rendered, err := extractPostingText(html, platform); err == nil && rendered != "" {
			return &JobPosting{DescriptionHTML: html, DescriptionText: rendered}, nil
		}
	}
	if extractErr != nil {
		return nil, &Error{URL: urlStr, Message: "could not extract posting text", Cause: extractErr}
	}
	if text == "" {
		return nil, &Error{URL: urlStr, Message: "posting contains no text"}
	}
	return &JobPosting{DescriptionHTML: result.HTML, DescriptionText: text}, nil
}

// extractPostingText strips board noise before extracting the main text
func extractPostingText(html string, platform Platform) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	for _, selector := range PlatformNoiseSelectors(platform) {
		doc.Find(selector).Remove()
	}
	cleaned, err := goquery.OuterHtml(doc.Selection)
	if err != nil {
		return "", err
	}
	return ExtractMainText(cleaned, PlatformContentSelectors(platform))
}

// parseJobPosting scrapes the guest endpoint markup
func parseJobPosting(jobID, html string) (*JobPosting, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	posting := &JobPosting{JobID: jobID}

	if alt, ok := doc.Find("div.top-card-layout__card a img").First().Attr("alt"); ok {
		posting.Company = strings.TrimSpace(alt)
	}
	posting.Title = strings.TrimSpace(doc.Find("div.top-card-layout__entity-info a").First().Text())

	description := doc.Find("div.show-more-less-html__markup").First()
	if description.Length() == 0 {
		return nil, fmt.Errorf("no job description markup found")
	}
	if descHTML, err := goquery.OuterHtml(description); err == nil {
		posting.DescriptionHTML = descHTML
	}
	posting.DescriptionText = cleanWhitespace(description.Text())
	if posting.DescriptionText == "" {
		return nil, fmt.Errorf("job description is empty")
	}
	return posting, nil
}
