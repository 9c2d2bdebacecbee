package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-tailor/internal/db"
	"github.com/jonathan/resume-tailor/internal/types"
)

func sampleResume() *types.ResumeRecord {
	return &types.ResumeRecord{
		Name:  "Jane Doe",
		Email: "jane@example.com",
		Experience: []types.Experience{
			{Company: "Acme", Role: "Developer", Bullets: []string{"Built internal tools"}},
		},
		Projects: []types.Project{
			{Name: "P1", Bullets: []string{"Wrote a scraper"}},
			{Name: "P2", Bullets: []string{"Wrote a cache"}},
		},
		Skills: []types.SkillCategory{
			{Category: "Languages", Skills: []string{"Go"}},
			{Category: "Infrastructure", Skills: []string{"Postgres"}},
		},
	}
}

func TestResumeLifecycle(t *testing.T) {
	s, _, _ := newTestServer(t)
	token := registerUser(t, s)

	rec := doJSON(t, s, http.MethodGet, "/api/resume", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s, http.MethodPut, "/api/resume", token, sampleResume())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var saved db.Resume
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.Equal(t, "Jane Doe", saved.Data.Name)

	rec = doJSON(t, s, http.MethodGet, "/api/resume", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched db.Resume
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, saved.ID, fetched.ID)
	assert.Len(t, fetched.Data.Projects, 2)

	rec = doJSON(t, s, http.MethodDelete, "/api/resume", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/resume", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutResume_RequiresName(t *testing.T) {
	s, _, _ := newTestServer(t)
	token := registerUser(t, s)

	record := sampleResume()
	record.Name = ""
	rec := doJSON(t, s, http.MethodPut, "/api/resume", token, record)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResume_IsolatedPerUser(t *testing.T) {
	s, _, _ := newTestServer(t)
	alice := registerUser(t, s)
	bob := registerUser(t, s)

	rec := doJSON(t, s, http.MethodPut, "/api/resume", alice, sampleResume())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/resume", bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
