package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Application represents a job application and its tailoring run
type Application struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	JobURL         string          `json:"job_url"`
	Company        string          `json:"company,omitempty"`
	RoleTitle      string          `json:"role_title,omitempty"`
	Status         string          `json:"status"`
	RunID          string          `json:"run_id,omitempty"`
	CurrentNode    string          `json:"current_node,omitempty"`
	SkillMatch     json.RawMessage `json:"skill_match,omitempty"`
	TailoredResume json.RawMessage `json:"tailored_resume,omitempty"`
	ErrorMessage   *string         `json:"error_message,omitempty"`
	HasPDF         bool            `json:"has_pdf"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ApplicationInput holds the fields needed to create an application
type ApplicationInput struct {
	UserID    uuid.UUID
	JobURL    string
	Company   string
	RoleTitle string
	Status    string
	RunID     string
}

// ApplicationStep is one recorded stage output from a tailoring run
type ApplicationStep struct {
	ID            uuid.UUID       `json:"id"`
	ApplicationID uuid.UUID       `json:"application_id"`
	Node          string          `json:"node"`
	Label         string          `json:"label,omitempty"`
	Data          json.RawMessage `json:"data,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}
