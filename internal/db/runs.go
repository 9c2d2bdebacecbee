package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jonathan/resume-tailor/internal/workflow"
)

// uniqueViolation is the PostgreSQL error code for duplicate keys
const uniqueViolation = "23505"

// RunStore persists workflow run records in the workflow_runs table.
// It implements workflow.RunStore.
type RunStore struct {
	db *DB
}

// NewRunStore creates a RunStore backed by the given database
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

var _ workflow.RunStore = (*RunStore)(nil)

// Create inserts a new run record, rejecting duplicate run ids
func (s *RunStore) Create(ctx context.Context, rec *workflow.RunRecord) error {
	state, err := json.Marshal(rec.State)
	if err != nil {
		return fmt.Errorf("failed to marshal run state: %w", err)
	}

	err = s.db.pool.QueryRow(ctx,
		`INSERT INTO workflow_runs (run_id, workflow, status, current_stage, payload, state)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		rec.RunID, rec.Workflow, rec.Status, rec.CurrentStage, []byte(rec.Payload), state,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("run %s: %w", rec.RunID, workflow.ErrRunExists)
		}
		return fmt.Errorf("failed to create run %s: %w", rec.RunID, err)
	}
	return nil
}

// Save overwrites the record for the run id
func (s *RunStore) Save(ctx context.Context, rec *workflow.RunRecord) error {
	state, err := json.Marshal(rec.State)
	if err != nil {
		return fmt.Errorf("failed to marshal run state: %w", err)
	}

	err = s.db.pool.QueryRow(ctx,
		`UPDATE workflow_runs
		 SET status = $1, current_stage = $2, payload = $3, state = $4, updated_at = NOW()
		 WHERE run_id = $5
		 RETURNING updated_at`,
		rec.Status, rec.CurrentStage, []byte(rec.Payload), state, rec.RunID,
	).Scan(&rec.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return fmt.Errorf("run %s: %w", rec.RunID, workflow.ErrUnknownRun)
		}
		return fmt.Errorf("failed to save run %s: %w", rec.RunID, err)
	}
	return nil
}

// Load retrieves the record for the run id
func (s *RunStore) Load(ctx context.Context, runID string) (*workflow.RunRecord, error) {
	var rec workflow.RunRecord
	var payload, state []byte

	err := s.db.pool.QueryRow(ctx,
		`SELECT run_id, workflow, status, current_stage, payload, state, created_at, updated_at
		 FROM workflow_runs WHERE run_id = $1`,
		runID,
	).Scan(&rec.RunID, &rec.Workflow, &rec.Status, &rec.CurrentStage, &payload, &state,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("run %s: %w", runID, workflow.ErrUnknownRun)
		}
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}

	rec.Payload = json.RawMessage(payload)
	rec.State = &workflow.State{}
	if err := json.Unmarshal(state, rec.State); err != nil {
		return nil, fmt.Errorf("failed to decode run %s state: %w", runID, err)
	}
	return &rec, nil
}
