// Package jobutil holds shared helpers for asynchronous job lifecycles.
package jobutil

import (
	"context"

	"github.com/rs/zerolog/log"
)

// ErrorWriter persists a job failure. jobs.Registry.Fail is one.
type ErrorWriter func(ctx context.Context, projectID, jobID, errMsg string) error

// SetJobError logs the failure and delegates persistence to write.
func SetJobError(ctx context.Context, projectID, jobID, msg string, write ErrorWriter) error {
	log.Error().
		Str("job", jobID).
		Str("project", projectID).
		Str("error", msg).
		Msg("Job failed")
	return write(ctx, projectID, jobID, msg)
}
