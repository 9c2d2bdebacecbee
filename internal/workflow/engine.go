package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/resume-tailor/internal/types"
)

// Phase of a progress event: a stage was entered, or an automated stage
// finished and produced output.
const (
	PhaseStart    = "start"
	PhaseComplete = "complete"
)

// ProgressEvent reports run progress to an observer
type ProgressEvent struct {
	RunID  string          `json:"run_id"`
	Stage  StageID         `json:"stage"`
	Label  string          `json:"label"`
	Phase  string          `json:"phase"`
	Output json.RawMessage `json:"output,omitempty"`
}

// ProgressFunc receives progress events. Callbacks run synchronously on the
// engine's goroutine; slow observers slow the run.
type ProgressFunc func(event ProgressEvent)

// Outcome is the result of driving a run as far as it can go without human
// input: either a suspension at a review stage or completion.
type Outcome struct {
	Suspended bool
	Stage     StageID
	Payload   json.RawMessage
	State     *State
}

// StartRequest begins a new run
type StartRequest struct {
	RunID      string
	Workflow   string
	State      *State
	OnProgress ProgressFunc
}

// ResumeRequest applies a verdict to a suspended run. Stage, when set, names
// the review the verdict answers; a mismatch with the run's suspended stage
// fails the request, so a replayed verdict can never land on a later review.
type ResumeRequest struct {
	RunID      string
	Stage      StageID
	Verdict    types.Verdict
	OnProgress ProgressFunc
}

// Engine drives workflow runs against a run store. A run is strictly
// sequential; the engine never executes two stages of the same run
// concurrently, and concurrency across runs is the store's concern.
type Engine struct {
	store     RunStore
	workflows map[string]*Workflow
}

// NewEngine creates an engine over the given store and workflow definitions
func NewEngine(store RunStore, workflows ...*Workflow) *Engine {
	byName := make(map[string]*Workflow, len(workflows))
	for _, w := range workflows {
		byName[w.Name] = w
	}
	return &Engine{store: store, workflows: byName}
}

// Start creates a durable run record and executes stages until the run
// suspends at a review stage or completes.
func (e *Engine) Start(ctx context.Context, req StartRequest) (*Outcome, error) {
	wf, ok := e.workflows[req.Workflow]
	if !ok {
		return nil, fmt.Errorf("unknown workflow %q", req.Workflow)
	}

	state := req.State
	if state == nil {
		state = &State{}
	}
	rec := &RunRecord{
		RunID:        req.RunID,
		Workflow:     wf.Name,
		Status:       StatusRunning,
		CurrentStage: wf.First,
		State:        state,
	}
	if err := e.store.Create(ctx, rec); err != nil {
		return nil, err
	}
	return e.run(ctx, wf, rec, req.OnProgress)
}

// Resume loads a suspended run, applies the verdict at its review stage and
// executes onward. The verdict is validated before any state mutation: an
// invalid verdict leaves the run suspended exactly as it was.
func (e *Engine) Resume(ctx context.Context, req ResumeRequest) (*Outcome, error) {
	rec, err := e.store.Load(ctx, req.RunID)
	if err != nil {
		return nil, err
	}
	if rec.Status != StatusSuspended {
		return nil, fmt.Errorf("run %s has status %s: %w", rec.RunID, rec.Status, ErrNotSuspended)
	}
	if req.Stage != "" && req.Stage != rec.CurrentStage {
		return nil, fmt.Errorf("run %s is suspended at %s, not %s: %w",
			rec.RunID, rec.CurrentStage, req.Stage, ErrNotSuspended)
	}

	wf, ok := e.workflows[rec.Workflow]
	if !ok {
		return nil, fmt.Errorf("run %s references unknown workflow %q", rec.RunID, rec.Workflow)
	}
	stage, ok := wf.Stage(rec.CurrentStage)
	if !ok || stage.Kind != KindReview {
		return nil, fmt.Errorf("run %s suspended at non-review stage %q", rec.RunID, rec.CurrentStage)
	}

	if err := stage.Apply(rec.State, req.Verdict); err != nil {
		return nil, err
	}

	rec.CurrentStage = stage.Route(rec.State)
	rec.Status = StatusRunning
	// A review routing straight to the end completes the run; run() below
	// never enters its loop for StageNone
	if rec.CurrentStage == StageNone {
		rec.Status = StatusCompleted
	}
	rec.Payload = nil
	if err := e.store.Save(ctx, rec); err != nil {
		return nil, err
	}
	return e.run(ctx, wf, rec, req.OnProgress)
}

// run executes stages from the record's current position. Every transition
// is persisted before the next stage executes, so a crash resumes cleanly.
func (e *Engine) run(ctx context.Context, wf *Workflow, rec *RunRecord, onProgress ProgressFunc) (*Outcome, error) {
	emit := func(event ProgressEvent) {
		if onProgress != nil {
			event.RunID = rec.RunID
			onProgress(event)
		}
	}

	for rec.CurrentStage != StageNone {
		stage, ok := wf.Stage(rec.CurrentStage)
		if !ok {
			e.markErrored(ctx, rec)
			return nil, fmt.Errorf("run %s: undefined stage %q", rec.RunID, rec.CurrentStage)
		}

		emit(ProgressEvent{Stage: stage.ID, Label: stage.Label, Phase: PhaseStart})

		if stage.Kind == KindReview {
			payload, err := json.Marshal(stage.Propose(rec.State))
			if err != nil {
				e.markErrored(ctx, rec)
				return nil, fmt.Errorf("run %s: stage %s payload: %w", rec.RunID, stage.ID, err)
			}
			rec.Status = StatusSuspended
			rec.Payload = payload
			if err := e.store.Save(ctx, rec); err != nil {
				return nil, err
			}
			return &Outcome{Suspended: true, Stage: stage.ID, Payload: payload, State: rec.State}, nil
		}

		if err := stage.Run(ctx, rec.State); err != nil {
			e.markErrored(ctx, rec)
			return nil, fmt.Errorf("run %s: stage %s: %w", rec.RunID, stage.ID, err)
		}

		var output json.RawMessage
		if stage.Output != nil {
			if data, err := json.Marshal(stage.Output(rec.State)); err == nil {
				output = data
			}
		}
		emit(ProgressEvent{Stage: stage.ID, Label: stage.Label, Phase: PhaseComplete, Output: output})

		rec.CurrentStage = stage.Next
		if rec.CurrentStage == StageNone {
			rec.Status = StatusCompleted
		}
		if err := e.store.Save(ctx, rec); err != nil {
			return nil, err
		}
	}

	return &Outcome{State: rec.State}, nil
}

// markErrored persists the errored status with state as of the last
// successful stage. Best effort: the stage error is what propagates.
func (e *Engine) markErrored(ctx context.Context, rec *RunRecord) {
	rec.Status = StatusErrored
	_ = e.store.Save(ctx, rec)
}
