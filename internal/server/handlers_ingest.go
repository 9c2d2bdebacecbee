package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-tailor/internal/ingestion"
	"github.com/jonathan/resume-tailor/internal/server/middleware"
	"github.com/jonathan/resume-tailor/internal/types"
	"github.com/jonathan/resume-tailor/internal/workflow"
)

// maxUploadBytes caps resume uploads
const maxUploadBytes = 10 << 20

// handleIngest accepts a resume file upload, runs the extraction workflow
// and streams progress as SSE. The stream ends with an interrupt event
// carrying the run id and the extracted record awaiting review.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	_ = userID // ownership is established when the reviewed record is saved

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "missing file upload")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	text, err := ingestion.ExtractText(data, header.Filename)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	text = ingestion.CleanText(text)
	if text == "" {
		s.errorResponse(w, http.StatusBadRequest, "uploaded file contains no text")
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	runID := uuid.New().String()
	events := make(chan workflow.ProgressEvent, 16)

	var outcome *workflow.Outcome
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		defer close(events)
		var runErr error
		outcome, runErr = s.engine.Start(ctx, workflow.StartRequest{
			RunID:    runID,
			Workflow: workflow.IngestWorkflowName,
			State:    &workflow.State{RawResumeText: text},
			OnProgress: func(event workflow.ProgressEvent) {
				select {
				case events <- event:
				case <-ctx.Done():
				}
			},
		})
		return runErr
	})

	for event := range events {
		sse.WriteEvent("progress", event) //nolint:errcheck
	}
	if err := g.Wait(); err != nil {
		sse.WriteError(err.Error())
		return
	}

	if outcome.Suspended {
		sse.WriteInterrupt(runID, string(outcome.Stage), outcome.Payload)
		return
	}
	sse.WriteComplete(runID, string(workflow.StatusCompleted))
}

// handleIngestContinue applies the reviewed record to a suspended ingestion
// run and saves the result as the user's resume.
func (s *Server) handleIngestContinue(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	runID := r.PathValue("run_id")

	var verdict types.Verdict
	if err := json.NewDecoder(r.Body).Decode(&verdict); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	outcome, err := s.engine.Resume(r.Context(), workflow.ResumeRequest{
		RunID:   runID,
		Stage:   workflow.StageReviewExtraction,
		Verdict: verdict,
	})
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if outcome.Suspended || outcome.State.Resume == nil {
		s.errorResponse(w, http.StatusInternalServerError, "ingestion run did not produce a resume")
		return
	}

	resume, err := s.resumes.SaveResume(r.Context(), userID, outcome.State.Resume)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, resume)
}
