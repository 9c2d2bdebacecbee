package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-tailor/internal/db"
	"github.com/jonathan/resume-tailor/internal/server/middleware"
	"github.com/jonathan/resume-tailor/internal/types"
	"github.com/jonathan/resume-tailor/internal/workflow"
)

// tailorRunTimeout bounds a background tailoring run between checkpoints
const tailorRunTimeout = 10 * time.Minute

// ApplicationStore is the persistence surface for applications and their
// step projections
type ApplicationStore interface {
	CreateApplication(ctx context.Context, input *db.ApplicationInput) (*db.Application, error)
	GetApplication(ctx context.Context, id, userID uuid.UUID) (*db.Application, error)
	ListApplications(ctx context.Context, userID uuid.UUID) ([]db.Application, error)
	DeleteApplication(ctx context.Context, id, userID uuid.UUID) error
	UpdateApplicationNode(ctx context.Context, id uuid.UUID, node, status string) error
	ClaimApplication(ctx context.Context, id, userID uuid.UUID) (bool, error)
	SetApplicationStatus(ctx context.Context, id, userID uuid.UUID, status string) error
	CompleteApplication(ctx context.Context, id uuid.UUID, skillMatch *types.SkillMatchResult, tailored *types.ResumeRecord, pdf []byte) error
	MarkApplicationErrored(ctx context.Context, id uuid.UUID, message string) error
	GetApplicationPDF(ctx context.Context, id, userID uuid.UUID) ([]byte, error)
	AddApplicationStep(ctx context.Context, applicationID uuid.UUID, node, label string, data any) error
	ListApplicationSteps(ctx context.Context, applicationID uuid.UUID) ([]db.ApplicationStep, error)
}

// applicationDetail is an application plus its recorded step outputs
type applicationDetail struct {
	*db.Application
	Steps []db.ApplicationStep `json:"steps"`
}

// handleCreateApplication fetches the posting, creates the application row
// and starts the tailoring run in the background. The client follows
// progress through the application detail endpoint.
func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req types.CreateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	resume, err := s.resumes.GetResumeByUser(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if resume == nil {
		s.errorResponse(w, http.StatusPreconditionFailed, "store a resume before tailoring")
		return
	}

	posting, err := s.fetchPosting(r.Context(), req.JobID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	runID := uuid.New().String()
	app, err := s.apps.CreateApplication(r.Context(), &db.ApplicationInput{
		UserID:    userID,
		JobURL:    "https://www.linkedin.com/jobs/view/" + req.JobID,
		Company:   posting.Company,
		RoleTitle: posting.Title,
		Status:    types.AppStatusTailoring,
		RunID:     runID,
	})
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	state := &workflow.State{
		RawJobText: posting.DescriptionText,
		Resume:     resume.Data,
	}
	s.spawn(func() {
		s.runTailoring(app.ID, func(ctx context.Context, onProgress workflow.ProgressFunc) (*workflow.Outcome, error) {
			return s.engine.Start(ctx, workflow.StartRequest{
				RunID:      runID,
				Workflow:   workflow.TailorWorkflowName,
				State:      state,
				OnProgress: onProgress,
			})
		})
	})

	s.jsonResponse(w, http.StatusAccepted, app)
}

// handleContinueApplication applies a review verdict to a suspended
// tailoring run and drives it onward in the background.
func (s *Server) handleContinueApplication(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	app, ok := s.loadOwnedApplication(w, r, userID)
	if !ok {
		return
	}

	var req struct {
		types.Verdict
		Stage string `json:"stage,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// The stage names the review the verdict answers; a request that omits
	// it answers whatever review the application is shown to be waiting on
	stage := req.Stage
	if stage == "" {
		stage = app.CurrentNode
	} else if stage != app.CurrentNode {
		s.errorResponse(w, http.StatusConflict, "application is not awaiting review at "+stage)
		return
	}

	// Atomic claim: of two concurrent resume requests only one proceeds
	claimed, err := s.apps.ClaimApplication(r.Context(), app.ID, userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !claimed {
		s.errorResponse(w, http.StatusConflict, "application is not awaiting review")
		return
	}

	runID := app.RunID
	verdict := req.Verdict
	s.spawn(func() {
		s.runTailoring(app.ID, func(ctx context.Context, onProgress workflow.ProgressFunc) (*workflow.Outcome, error) {
			return s.engine.Resume(ctx, workflow.ResumeRequest{
				RunID:      runID,
				Stage:      workflow.StageID(stage),
				Verdict:    verdict,
				OnProgress: onProgress,
			})
		})
	})

	app.Status = types.AppStatusTailoring
	s.jsonResponse(w, http.StatusAccepted, app)
}

// runTailoring drives a tailoring run to its next checkpoint and projects
// progress onto the application row and its steps
func (s *Server) runTailoring(appID uuid.UUID, drive func(context.Context, workflow.ProgressFunc) (*workflow.Outcome, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), tailorRunTimeout)
	defer cancel()

	outcome, err := drive(ctx, func(event workflow.ProgressEvent) {
		switch event.Phase {
		case workflow.PhaseStart:
			if err := s.apps.UpdateApplicationNode(ctx, appID, string(event.Stage), types.AppStatusTailoring); err != nil {
				log.Printf("[tailor] failed to update node for %s: %v", appID, err)
			}
		case workflow.PhaseComplete:
			if err := s.apps.AddApplicationStep(ctx, appID, string(event.Stage), event.Label, event.Output); err != nil {
				log.Printf("[tailor] failed to record step for %s: %v", appID, err)
			}
		}
	})
	if err != nil {
		log.Printf("[tailor] run for application %s failed: %v", appID, err)
		if errors.Is(err, workflow.ErrNotSuspended) {
			// A concurrent verdict got there first; the run record is
			// untouched, so leave the application as the winner left it
			return
		}
		if dbErr := s.apps.MarkApplicationErrored(ctx, appID, err.Error()); dbErr != nil {
			log.Printf("[tailor] failed to mark application %s errored: %v", appID, dbErr)
		}
		return
	}

	if outcome.Suspended {
		if err := s.apps.UpdateApplicationNode(ctx, appID, string(outcome.Stage), types.AppStatusInterrupted); err != nil {
			log.Printf("[tailor] failed to suspend application %s: %v", appID, err)
		}
		return
	}

	pdf, err := s.renderPDF(ctx, outcome.State.Tailored)
	if err != nil {
		log.Printf("[tailor] failed to render PDF for %s: %v", appID, err)
		if dbErr := s.apps.MarkApplicationErrored(ctx, appID, err.Error()); dbErr != nil {
			log.Printf("[tailor] failed to mark application %s errored: %v", appID, dbErr)
		}
		return
	}
	if err := s.apps.CompleteApplication(ctx, appID, outcome.State.SkillMatch, outcome.State.Tailored, pdf); err != nil {
		log.Printf("[tailor] failed to complete application %s: %v", appID, err)
	}
}

// handleListApplications returns the user's applications
func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	apps, err := s.apps.ListApplications(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if apps == nil {
		apps = []db.Application{}
	}
	s.jsonResponse(w, http.StatusOK, apps)
}

// handleGetApplication returns an application with its recorded steps
func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	app, ok := s.loadOwnedApplication(w, r, userID)
	if !ok {
		return
	}

	steps, err := s.apps.ListApplicationSteps(r.Context(), app.ID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if steps == nil {
		steps = []db.ApplicationStep{}
	}
	s.jsonResponse(w, http.StatusOK, applicationDetail{Application: app, Steps: steps})
}

// handleUpdateApplicationStatus sets a user-facing status such as applied
// or rejected. It never touches the run itself.
func (s *Server) handleUpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid application id")
		return
	}

	var req types.UpdateApplicationStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	if err := s.apps.SetApplicationStatus(r.Context(), id, userID, req.Status); err != nil {
		s.errorResponse(w, http.StatusNotFound, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": req.Status})
}

// handleDeleteApplication deletes an application and its steps
func (s *Server) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid application id")
		return
	}

	if err := s.apps.DeleteApplication(r.Context(), id, userID); err != nil {
		s.errorResponse(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleApplicationPDF serves the rendered resume PDF
func (s *Server) handleApplicationPDF(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid application id")
		return
	}

	pdf, err := s.apps.GetApplicationPDF(r.Context(), id, userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(pdf) == 0 {
		s.errorResponse(w, http.StatusNotFound, "no PDF available for this application")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="resume.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// loadOwnedApplication resolves the path id to an application owned by the
// user, writing the error response itself when that fails
func (s *Server) loadOwnedApplication(w http.ResponseWriter, r *http.Request, userID uuid.UUID) (*db.Application, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid application id")
		return nil, false
	}

	app, err := s.apps.GetApplication(r.Context(), id, userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	if app == nil {
		s.errorResponse(w, http.StatusNotFound, "application not found")
		return nil, false
	}
	return app, true
}
