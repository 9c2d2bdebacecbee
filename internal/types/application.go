package types

import "github.com/go-playground/validator/v10"

// Application run statuses. Tailoring runs move tailoring → interrupted
// (awaiting review) → tailored; user-facing statuses like "applied" are set
// explicitly after tailoring finishes.
const (
	AppStatusTailoring   = "tailoring"
	AppStatusInterrupted = "interrupted"
	AppStatusTailored    = "tailored"
	AppStatusErrored     = "errored"
)

// CreateApplicationRequest starts tailoring against a job posting
type CreateApplicationRequest struct {
	JobID string `json:"job_id" validate:"required"`
}

// UpdateApplicationStatusRequest sets a user-facing application status
// (e.g. "applied", "rejected"). It never touches a running tailoring run.
type UpdateApplicationStatusRequest struct {
	Status string `json:"status" validate:"required,min=1"`
}

// Validate validates the CreateApplicationRequest using the validator.
func (r *CreateApplicationRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the UpdateApplicationStatusRequest using the validator.
func (r *UpdateApplicationStatusRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
