package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-tailor/internal/config"
	"github.com/jonathan/resume-tailor/internal/db"
	"github.com/jonathan/resume-tailor/internal/fetch"
	"github.com/jonathan/resume-tailor/internal/llm"
	"github.com/jonathan/resume-tailor/internal/types"
	"github.com/jonathan/resume-tailor/internal/workflow"
)

// fakeStore is an in-memory implementation of the server's persistence
// interfaces for handler tests
type fakeStore struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*db.User
	emails  map[string]uuid.UUID
	resumes map[uuid.UUID]*db.Resume
	apps    map[uuid.UUID]*db.Application
	steps   map[uuid.UUID][]db.ApplicationStep
	pdfs    map[uuid.UUID][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   make(map[uuid.UUID]*db.User),
		emails:  make(map[string]uuid.UUID),
		resumes: make(map[uuid.UUID]*db.Resume),
		apps:    make(map[uuid.UUID]*db.Application),
		steps:   make(map[uuid.UUID][]db.ApplicationStep),
		pdfs:    make(map[uuid.UUID][]byte),
	}
}

func (f *fakeStore) CheckEmailExists(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, exists := f.emails[email]
	return exists, nil
}

func (f *fakeStore) CreateUser(_ context.Context, name, email string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	now := time.Now()
	f.users[id] = &db.User{ID: id, Name: name, Email: email, CreatedAt: now, UpdatedAt: now}
	f.emails[email] = id
	return id, nil
}

func (f *fakeStore) UpdatePassword(_ context.Context, userID uuid.UUID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return fmt.Errorf("user not found: %s", userID)
	}
	user.PasswordHash = passwordHash
	user.PasswordSet = true
	return nil
}

func (f *fakeStore) GetUser(_ context.Context, userID uuid.UUID) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.emails[email]
	if !ok {
		return nil, nil
	}
	copied := *f.users[id]
	return &copied, nil
}

func (f *fakeStore) SaveResume(_ context.Context, userID uuid.UUID, record *types.ResumeRecord) (*db.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.resumes[userID]
	if !ok {
		existing = &db.Resume{ID: uuid.New(), UserID: userID, CreatedAt: time.Now()}
	}
	existing.Data = record.Clone()
	existing.UpdatedAt = time.Now()
	f.resumes[userID] = existing
	return existing, nil
}

func (f *fakeStore) GetResumeByUser(_ context.Context, userID uuid.UUID) (*db.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	resume, ok := f.resumes[userID]
	if !ok {
		return nil, nil
	}
	return resume, nil
}

func (f *fakeStore) DeleteResume(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.resumes[userID]; !ok {
		return fmt.Errorf("resume not found for user: %s", userID)
	}
	delete(f.resumes, userID)
	return nil
}

func (f *fakeStore) CreateApplication(_ context.Context, input *db.ApplicationInput) (*db.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	app := &db.Application{
		ID:        uuid.New(),
		UserID:    input.UserID,
		JobURL:    input.JobURL,
		Company:   input.Company,
		RoleTitle: input.RoleTitle,
		Status:    input.Status,
		RunID:     input.RunID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.apps[app.ID] = app
	return app, nil
}

func (f *fakeStore) GetApplication(_ context.Context, id, userID uuid.UUID) (*db.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	app, ok := f.apps[id]
	if !ok || app.UserID != userID {
		return nil, nil
	}
	copied := *app
	return &copied, nil
}

func (f *fakeStore) ListApplications(_ context.Context, userID uuid.UUID) ([]db.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var apps []db.Application
	for _, app := range f.apps {
		if app.UserID == userID {
			apps = append(apps, *app)
		}
	}
	return apps, nil
}

func (f *fakeStore) DeleteApplication(_ context.Context, id, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	app, ok := f.apps[id]
	if !ok || app.UserID != userID {
		return fmt.Errorf("application not found: %s", id)
	}
	delete(f.apps, id)
	delete(f.steps, id)
	return nil
}

func (f *fakeStore) UpdateApplicationNode(_ context.Context, id uuid.UUID, node, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	app, ok := f.apps[id]
	if !ok {
		return fmt.Errorf("application not found: %s", id)
	}
	app.CurrentNode = node
	app.Status = status
	return nil
}

func (f *fakeStore) ClaimApplication(_ context.Context, id, userID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	app, ok := f.apps[id]
	if !ok || app.UserID != userID {
		return false, nil
	}
	if app.Status != types.AppStatusInterrupted {
		return false, nil
	}
	app.Status = types.AppStatusTailoring
	return true, nil
}

func (f *fakeStore) SetApplicationStatus(_ context.Context, id, userID uuid.UUID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	app, ok := f.apps[id]
	if !ok || app.UserID != userID {
		return fmt.Errorf("application not found: %s", id)
	}
	app.Status = status
	return nil
}

func (f *fakeStore) CompleteApplication(_ context.Context, id uuid.UUID, skillMatch *types.SkillMatchResult, tailored *types.ResumeRecord, pdf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	app, ok := f.apps[id]
	if !ok {
		return fmt.Errorf("application not found: %s", id)
	}
	app.Status = types.AppStatusTailored
	app.SkillMatch, _ = json.Marshal(skillMatch)
	app.TailoredResume, _ = json.Marshal(tailored)
	app.HasPDF = len(pdf) > 0
	f.pdfs[id] = pdf
	return nil
}

func (f *fakeStore) MarkApplicationErrored(_ context.Context, id uuid.UUID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	app, ok := f.apps[id]
	if !ok {
		return fmt.Errorf("application not found: %s", id)
	}
	app.Status = types.AppStatusErrored
	app.ErrorMessage = &message
	return nil
}

func (f *fakeStore) GetApplicationPDF(_ context.Context, id, userID uuid.UUID) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	app, ok := f.apps[id]
	if !ok || app.UserID != userID {
		return nil, nil
	}
	return f.pdfs[id], nil
}

func (f *fakeStore) AddApplicationStep(_ context.Context, applicationID uuid.UUID, node, label string, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var raw json.RawMessage
	if data != nil {
		raw, _ = json.Marshal(data)
	}
	f.steps[applicationID] = append(f.steps[applicationID], db.ApplicationStep{
		ID:            uuid.New(),
		ApplicationID: applicationID,
		Node:          node,
		Label:         label,
		Data:          raw,
		CreatedAt:     time.Now(),
	})
	return nil
}

func (f *fakeStore) ListApplicationSteps(_ context.Context, applicationID uuid.UUID) ([]db.ApplicationStep, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]db.ApplicationStep(nil), f.steps[applicationID]...), nil
}

// fakeGenerator serves scripted JSON responses keyed by schema name
type fakeGenerator struct {
	mu        sync.Mutex
	responses map[string][]string
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{responses: make(map[string][]string)}
}

func (g *fakeGenerator) respond(schemaName, response string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.responses[schemaName] = append(g.responses[schemaName], response)
}

func (g *fakeGenerator) GenerateStructured(_ context.Context, _ llm.ModelTier, _ []types.Message, schemaName string, out any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	queue := g.responses[schemaName]
	if len(queue) == 0 {
		return &llm.GenerationError{Schema: schemaName, Message: "no scripted response"}
	}
	g.responses[schemaName] = queue[1:]
	return json.Unmarshal([]byte(queue[0]), out)
}

// newTestServer wires a Server over in-memory fakes. Background tailoring
// runs inline so assertions after a request see its effects.
func newTestServer(t *testing.T) (*Server, *fakeStore, *fakeGenerator) {
	t.Helper()

	store := newFakeStore()
	gen := newFakeGenerator()

	jwtService := NewJWTService(&config.JWTConfig{Secret: "test-secret", ExpirationHours: 1})
	userService := NewUserService(store, &config.PasswordConfig{BcryptCost: 10})

	s := &Server{
		users:       store,
		resumes:     store,
		apps:        store,
		engine:      workflow.NewEngine(workflow.NewMemoryStore(), workflow.NewTailorWorkflow(gen), workflow.NewIngestionWorkflow(gen)),
		jwtService:  jwtService,
		userService: userService,
		fetchPosting: func(_ context.Context, jobID string) (*fetch.JobPosting, error) {
			return &fetch.JobPosting{
				JobID:           jobID,
				Title:           "Backend Engineer",
				Company:         "Acme",
				DescriptionText: "Build Go services against Postgres.",
			}, nil
		},
		renderPDF: func(_ context.Context, _ *types.ResumeRecord) ([]byte, error) {
			return []byte("%PDF-1.5 test"), nil
		},
		spawn: func(fn func()) { fn() },
	}
	s.authHandler = NewAuthHandler(userService, jwtService)
	return s, store, gen
}

// doJSON issues a request against the route table and returns the recorder
func doJSON(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)
	return rec
}

// registerUser registers a fresh account and returns its auth token
func registerUser(t *testing.T, s *Server) string {
	t.Helper()

	rec := doJSON(t, s, http.MethodPost, "/api/users", "", types.CreateUserRequest{
		Name:     "Jane Doe",
		Email:    "jane-" + uuid.New().String() + "@example.com",
		Password: "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp types.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	s, _, _ := newTestServer(t)

	for _, path := range []string{"/api/users/me", "/api/resume", "/api/applications"} {
		rec := doJSON(t, s, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}
