package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Status is the lifecycle state of a run record
type Status string

const (
	StatusRunning   Status = "running"
	StatusSuspended Status = "suspended"
	StatusCompleted Status = "completed"
	StatusErrored   Status = "errored"
)

// RunRecord is the durable snapshot of a run. Everything needed to resume
// after a process restart lives here.
type RunRecord struct {
	RunID        string          `json:"run_id"`
	Workflow     string          `json:"workflow"`
	Status       Status          `json:"status"`
	CurrentStage StageID         `json:"current_stage"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	State        *State          `json:"state"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// RunStore persists run records. Create fails with ErrRunExists on a
// duplicate id; Load fails with ErrUnknownRun when the id is absent.
type RunStore interface {
	Create(ctx context.Context, rec *RunRecord) error
	Save(ctx context.Context, rec *RunRecord) error
	Load(ctx context.Context, runID string) (*RunRecord, error)
}

// MemoryStore is an in-memory RunStore for tests and the CLI. Records are
// held JSON-encoded so loads see exactly what a database would return.
type MemoryStore struct {
	mu   sync.Mutex
	runs map[string][]byte
}

// NewMemoryStore creates an empty in-memory run store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string][]byte)}
}

// Create stores a new record, rejecting duplicate run ids
func (m *MemoryStore) Create(ctx context.Context, rec *RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.runs[rec.RunID]; exists {
		return fmt.Errorf("run %s: %w", rec.RunID, ErrRunExists)
	}
	return m.put(rec)
}

// Save overwrites the record for the run id
func (m *MemoryStore) Save(ctx context.Context, rec *RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.put(rec)
}

// Load returns a deep copy of the stored record
func (m *MemoryStore) Load(ctx context.Context, runID string) (*RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, exists := m.runs[runID]
	if !exists {
		return nil, fmt.Errorf("run %s: %w", runID, ErrUnknownRun)
	}
	var rec RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", runID, err)
	}
	return &rec, nil
}

func (m *MemoryStore) put(rec *RunRecord) error {
	rec.UpdatedAt = time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.UpdatedAt
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode run %s: %w", rec.RunID, err)
	}
	m.runs[rec.RunID] = data
	return nil
}
