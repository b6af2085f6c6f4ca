package studio

import (
	"errors"
	"fmt"
)

var (
	// ErrSceneBusy is returned when a regeneration for the same scene is
	// already in flight.
	ErrSceneBusy = errors.New("scene image regeneration already in progress")

	// ErrNoProduction is returned by Project operations that need a
	// rendered production before one exists.
	ErrNoProduction = errors.New("project has no rendered production")

	// ErrEmptySynopsis is returned when planning is asked for without a
	// synopsis.
	ErrEmptySynopsis = errors.New("synopsis is empty")
)

// MalformedPlanError reports a planner response that could not be turned
// into a script. Raw holds a truncated copy of the response.
type MalformedPlanError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *MalformedPlanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed plan: %s: %v", e.Reason, e.Err)
	}
	return "malformed plan: " + e.Reason
}

func (e *MalformedPlanError) Unwrap() error {
	return e.Err
}
