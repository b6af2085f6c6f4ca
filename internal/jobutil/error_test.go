package jobutil

import (
	"context"
	"errors"
	"testing"
)

func TestSetJobError(t *testing.T) {
	var gotProject, gotJob, gotMsg string
	write := func(_ context.Context, projectID, jobID, msg string) error {
		gotProject, gotJob, gotMsg = projectID, jobID, msg
		return nil
	}
	if err := SetJobError(context.Background(), "p1", "render-1", "plan failed", write); err != nil {
		t.Fatalf("SetJobError: %v", err)
	}
	if gotProject != "p1" || gotJob != "render-1" || gotMsg != "plan failed" {
		t.Errorf("writer got %q %q %q", gotProject, gotJob, gotMsg)
	}

	sentinel := errors.New("store down")
	err := SetJobError(context.Background(), "p1", "render-1", "x", func(context.Context, string, string, string) error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Errorf("expected writer error, got %v", err)
	}
}
