package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-tailor/internal/types"
)

const extractedResumeJSON = `{
	"name": "Jane Doe",
	"email": "jane@example.com",
	"experience": [{"company": "Acme", "role": "Developer", "bullets": ["Built internal tools"]}],
	"projects": [{"name": "P1", "bullets": ["Wrote a scraper"]}],
	"skills": [{"category": "Languages", "skills": ["Go"]}]
}`

// uploadResume posts a multipart text file to the ingestion endpoint
func uploadResume(t *testing.T, s *Server, token, filename, content string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/ingest", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)
	return rec
}

// interruptEvent pulls the data payload of the SSE interrupt event out of a
// streamed response body
func interruptEvent(t *testing.T, body string) map[string]json.RawMessage {
	t.Helper()

	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if line != "event: interrupt" {
			continue
		}
		require.Greater(t, len(lines), i+1)
		data := strings.TrimPrefix(lines[i+1], "data: ")
		var event map[string]json.RawMessage
		require.NoError(t, json.Unmarshal([]byte(data), &event))
		return event
	}
	t.Fatalf("no interrupt event in response body:\n%s", body)
	return nil
}

func TestIngestFlow(t *testing.T) {
	s, store, gen := newTestServer(t)
	token := registerUser(t, s)

	gen.respond("resume_record", extractedResumeJSON)
	rec := uploadResume(t, s, token, "resume.txt", "Jane Doe\njane@example.com\nDeveloper at Acme")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "event: progress")
	assert.Contains(t, body, `"stage":"extract_resume"`)

	event := interruptEvent(t, body)
	var runID string
	require.NoError(t, json.Unmarshal(event["run_id"], &runID))
	require.NotEmpty(t, runID)

	var stage string
	require.NoError(t, json.Unmarshal(event["stage"], &stage))
	assert.Equal(t, "review_extraction", stage)

	var payload struct {
		Resume  *types.ResumeRecord `json:"resume"`
		Message string              `json:"message"`
	}
	require.NoError(t, json.Unmarshal(event["payload"], &payload))
	require.NotNil(t, payload.Resume)
	assert.Equal(t, "Jane Doe", payload.Resume.Name)
	assert.NotEmpty(t, payload.Message)

	// The user corrects a bullet before approving
	edited := payload.Resume.Clone()
	edited.Projects[0].Bullets = []string{"Wrote a concurrent scraper"}

	rec = doJSON(t, s, http.MethodPost, "/api/ingest/"+runID, token,
		types.Verdict{Approved: true, EditedResume: edited})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	saved := store.resumes
	require.Len(t, saved, 1)
	for _, resume := range saved {
		assert.Equal(t, []string{"Wrote a concurrent scraper"}, resume.Data.Projects[0].Bullets)
	}
}

func TestIngest_MissingFile(t *testing.T) {
	s, _, _ := newTestServer(t)
	token := registerUser(t, s)

	rec := doJSON(t, s, http.MethodPost, "/api/ingest", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestContinue_UnknownRun(t *testing.T) {
	s, _, _ := newTestServer(t)
	token := registerUser(t, s)

	rec := doJSON(t, s, http.MethodPost, "/api/ingest/no-such-run", token,
		types.Verdict{Approved: true, EditedResume: sampleResume()})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIngestContinue_RequiresEditedResume(t *testing.T) {
	s, _, gen := newTestServer(t)
	token := registerUser(t, s)

	gen.respond("resume_record", extractedResumeJSON)
	rec := uploadResume(t, s, token, "resume.txt", "Jane Doe\nDeveloper at Acme")
	require.Equal(t, http.StatusOK, rec.Code)

	event := interruptEvent(t, rec.Body.String())
	var runID string
	require.NoError(t, json.Unmarshal(event["run_id"], &runID))

	rec = doJSON(t, s, http.MethodPost, "/api/ingest/"+runID, token,
		types.Verdict{Approved: true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The run stays suspended, so a corrected verdict still lands
	rec = doJSON(t, s, http.MethodPost, "/api/ingest/"+runID, token,
		types.Verdict{Approved: true, EditedResume: sampleResume()})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
