package workflow

import "errors"

var (
	// ErrRunExists is returned by Start when the run id is already taken
	ErrRunExists = errors.New("run already exists")
	// ErrUnknownRun is returned by Resume when no run record matches the id
	ErrUnknownRun = errors.New("unknown run")
	// ErrNotSuspended is returned by Resume when the run is not awaiting review
	ErrNotSuspended = errors.New("run is not suspended")
	// ErrInvalidVerdict is returned when a verdict is malformed for the
	// suspended stage; the run stays suspended and its state is untouched
	ErrInvalidVerdict = errors.New("invalid verdict")
)
