package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-tailor/internal/types"
)

const applicationColumns = `id, user_id, job_url, company, role_title, status, run_id,
	current_node, skill_match, tailored_resume, error_message,
	resume_pdf IS NOT NULL AS has_pdf, created_at, updated_at`

// CreateApplication creates a new application record
func (db *DB) CreateApplication(ctx context.Context, input *ApplicationInput) (*Application, error) {
	var app Application
	err := db.pool.QueryRow(ctx,
		`INSERT INTO applications (user_id, job_url, company, role_title, status, run_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+applicationColumns,
		input.UserID, input.JobURL, input.Company, input.RoleTitle, input.Status, input.RunID,
	).Scan(&app.ID, &app.UserID, &app.JobURL, &app.Company, &app.RoleTitle, &app.Status,
		&app.RunID, &app.CurrentNode, &app.SkillMatch, &app.TailoredResume,
		&app.ErrorMessage, &app.HasPDF, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	return &app, nil
}

// GetApplication retrieves an application owned by the given user.
// Returns nil without error when absent.
func (db *DB) GetApplication(ctx context.Context, id, userID uuid.UUID) (*Application, error) {
	var app Application
	err := db.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&app.ID, &app.UserID, &app.JobURL, &app.Company, &app.RoleTitle, &app.Status,
		&app.RunID, &app.CurrentNode, &app.SkillMatch, &app.TailoredResume,
		&app.ErrorMessage, &app.HasPDF, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return &app, nil
}

// ListApplications retrieves the user's applications, newest first. The
// heavy columns (tailored resume, skill match) are omitted from listings.
func (db *DB) ListApplications(ctx context.Context, userID uuid.UUID) ([]Application, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, job_url, company, role_title, status, run_id, current_node,
		        error_message, resume_pdf IS NOT NULL AS has_pdf, created_at, updated_at
		 FROM applications WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		var app Application
		if err := rows.Scan(&app.ID, &app.UserID, &app.JobURL, &app.Company, &app.RoleTitle,
			&app.Status, &app.RunID, &app.CurrentNode, &app.ErrorMessage, &app.HasPDF,
			&app.CreatedAt, &app.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, app)
	}
	return apps, nil
}

// DeleteApplication deletes an application and its steps (via cascade)
func (db *DB) DeleteApplication(ctx context.Context, id, userID uuid.UUID) error {
	result, err := db.pool.Exec(ctx,
		`DELETE FROM applications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("application not found: %s", id)
	}
	return nil
}

// UpdateApplicationNode records the stage a tailoring run is currently on
func (db *DB) UpdateApplicationNode(ctx context.Context, id uuid.UUID, node, status string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE applications SET current_node = $1, status = $2, updated_at = NOW() WHERE id = $3`,
		node, status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update application node: %w", err)
	}
	return nil
}

// ClaimApplication atomically moves an owned application from interrupted
// back to tailoring. Returns false when the application is not currently
// awaiting review, so concurrent resume requests race for a single claim.
func (db *DB) ClaimApplication(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	result, err := db.pool.Exec(ctx,
		`UPDATE applications SET status = $1, updated_at = NOW()
		 WHERE id = $2 AND user_id = $3 AND status = $4`,
		types.AppStatusTailoring, id, userID, types.AppStatusInterrupted,
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim application: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// SetApplicationStatus sets a user-facing status on an owned application
func (db *DB) SetApplicationStatus(ctx context.Context, id, userID uuid.UUID, status string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE applications SET status = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3`,
		status, id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to set application status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("application not found: %s", id)
	}
	return nil
}

// CompleteApplication stores the tailoring outputs and marks the
// application tailored
func (db *DB) CompleteApplication(ctx context.Context, id uuid.UUID, skillMatch *types.SkillMatchResult, tailored *types.ResumeRecord, pdf []byte) error {
	matchJSON, err := json.Marshal(skillMatch)
	if err != nil {
		return fmt.Errorf("failed to marshal skill match: %w", err)
	}
	resumeJSON, err := json.Marshal(tailored)
	if err != nil {
		return fmt.Errorf("failed to marshal tailored resume: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`UPDATE applications
		 SET status = $1, skill_match = $2, tailored_resume = $3, resume_pdf = $4,
		     error_message = NULL, updated_at = NOW()
		 WHERE id = $5`,
		types.AppStatusTailored, matchJSON, resumeJSON, pdf, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete application: %w", err)
	}
	return nil
}

// MarkApplicationErrored records a tailoring failure
func (db *DB) MarkApplicationErrored(ctx context.Context, id uuid.UUID, message string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE applications SET status = $1, error_message = $2, updated_at = NOW() WHERE id = $3`,
		types.AppStatusErrored, message, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark application errored: %w", err)
	}
	return nil
}

// GetApplicationPDF retrieves the compiled PDF for an owned application.
// Returns nil without error when no PDF has been stored.
func (db *DB) GetApplicationPDF(ctx context.Context, id, userID uuid.UUID) ([]byte, error) {
	var pdf []byte
	err := db.pool.QueryRow(ctx,
		`SELECT resume_pdf FROM applications WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&pdf)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application pdf: %w", err)
	}
	return pdf, nil
}

// AddApplicationStep appends a stage output record for an application
func (db *DB) AddApplicationStep(ctx context.Context, applicationID uuid.UUID, node, label string, data any) error {
	var dataJSON []byte
	if data != nil {
		var err error
		dataJSON, err = json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal step data: %w", err)
		}
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO application_steps (application_id, node, label, data) VALUES ($1, $2, $3, $4)`,
		applicationID, node, label, dataJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to add application step %s: %w", node, err)
	}
	return nil
}

// ListApplicationSteps retrieves all recorded steps for an application in order
func (db *DB) ListApplicationSteps(ctx context.Context, applicationID uuid.UUID) ([]ApplicationStep, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, application_id, node, label, data, created_at
		 FROM application_steps WHERE application_id = $1 ORDER BY created_at`,
		applicationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list application steps: %w", err)
	}
	defer rows.Close()

	var steps []ApplicationStep
	for rows.Next() {
		var step ApplicationStep
		if err := rows.Scan(&step.ID, &step.ApplicationID, &step.Node, &step.Label,
			&step.Data, &step.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan application step: %w", err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}
