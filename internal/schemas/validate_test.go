package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateJobDescription(t *testing.T) {
	valid := []byte(`{
		"location": "Remote",
		"responsibilities": ["Build backend services"],
		"must_have_qualifications": ["Go", "PostgreSQL"],
		"nice_to_have_qualifications": ["Kubernetes"],
		"keywords": ["backend", "api"]
	}`)
	assert.NoError(t, Validate("job_description", valid))

	missing := []byte(`{"location": "Remote"}`)
	err := Validate("job_description", missing)
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "job_description", ve.Schema)
	assert.NotEmpty(t, ve.Errors)
}

func TestValidateProjectSelectionLimit(t *testing.T) {
	tooMany := []byte(`{"projects": [
		{"name": "a", "bullets": []},
		{"name": "b", "bullets": []},
		{"name": "c", "bullets": []},
		{"name": "d", "bullets": []}
	]}`)
	err := Validate("project_selection", tooMany)
	assert.Error(t, err)

	three := []byte(`{"projects": [
		{"name": "a", "bullets": ["did a thing"]},
		{"name": "b", "bullets": []},
		{"name": "c", "bullets": []}
	]}`)
	assert.NoError(t, Validate("project_selection", three))
}

func TestValidateResumeRecord(t *testing.T) {
	valid := []byte(`{
		"name": "Ada Lovelace",
		"email": "ada@example.com",
		"education": [{"institution": "University of London", "degree": "BSc"}],
		"experience": [{"company": "Analytical Engines", "role": "Engineer", "bullets": ["Wrote the first program"]}],
		"projects": [],
		"skills": [{"category": "Languages", "skills": ["Go"]}]
	}`)
	assert.NoError(t, Validate("resume_record", valid))

	noName := []byte(`{
		"name": "",
		"email": "ada@example.com",
		"education": [],
		"experience": [],
		"projects": [],
		"skills": []
	}`)
	assert.Error(t, Validate("resume_record", noName))
}

func TestValidateUnknownSchema(t *testing.T) {
	err := Validate("nonexistent", []byte(`{}`))
	require.Error(t, err)

	var le *SchemaLoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "nonexistent", le.Name)
}

func TestValidateRejectsMalformedDocument(t *testing.T) {
	err := Validate("job_description", []byte(`not json`))
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	names, err := List()
	require.NoError(t, err)
	assert.Contains(t, names, "job_description")
	assert.Contains(t, names, "resume_record")
	assert.Contains(t, names, "semantic_match")
}
