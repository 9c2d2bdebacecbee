package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-tailor/internal/types"
)

// SaveResume stores or replaces the user's resume record
func (db *DB) SaveResume(ctx context.Context, userID uuid.UUID, record *types.ResumeRecord) (*Resume, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resume: %w", err)
	}

	var resume Resume
	var stored []byte
	err = db.pool.QueryRow(ctx,
		`INSERT INTO resumes (user_id, data)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
		 RETURNING id, user_id, data, created_at, updated_at`,
		userID, data,
	).Scan(&resume.ID, &resume.UserID, &stored, &resume.CreatedAt, &resume.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save resume: %w", err)
	}

	resume.Data = &types.ResumeRecord{}
	if err := json.Unmarshal(stored, resume.Data); err != nil {
		return nil, fmt.Errorf("failed to decode stored resume: %w", err)
	}
	return &resume, nil
}

// GetResumeByUser retrieves the user's resume. Returns nil without error
// when the user has not stored one yet.
func (db *DB) GetResumeByUser(ctx context.Context, userID uuid.UUID) (*Resume, error) {
	var resume Resume
	var data []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, data, created_at, updated_at FROM resumes WHERE user_id = $1`,
		userID,
	).Scan(&resume.ID, &resume.UserID, &data, &resume.CreatedAt, &resume.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}

	resume.Data = &types.ResumeRecord{}
	if err := json.Unmarshal(data, resume.Data); err != nil {
		return nil, fmt.Errorf("failed to decode resume: %w", err)
	}
	return &resume, nil
}

// DeleteResume removes the user's resume
func (db *DB) DeleteResume(ctx context.Context, userID uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM resumes WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete resume: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("resume not found for user: %s", userID)
	}
	return nil
}
