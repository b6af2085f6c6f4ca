package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestGenerateID(t *testing.T) {
	id := GenerateID(RenderPrefix)
	if !strings.HasPrefix(id, "render-") {
		t.Fatalf("id %q missing prefix", id)
	}
	if !ValidID(strings.TrimPrefix(id, "render-")) {
		t.Errorf("suffix of %q is not a uuid", id)
	}
	if GenerateID(RenderPrefix) == id {
		t.Error("ids should be unique")
	}
}

func TestValidID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{NewProjectID(), true},
		{"", false},
		{"../etc/passwd", false},
		{"6ba7b8109dad11d180b400c04fd430c8", false},
		{"urn:uuid:6ba7b810-9dad-11d1-80b4-00c04fd430c8", false},
	}
	for _, tt := range tests {
		if got := ValidID(tt.id); got != tt.want {
			t.Errorf("ValidID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()

	job, err := r.Start("p1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if job.Status != StatusRunning || !r.Running("p1") {
		t.Fatalf("job = %+v", job)
	}
	if _, err := r.Start("p1"); !errors.Is(err, ErrJobRunning) {
		t.Fatalf("second Start: got %v, want ErrJobRunning", err)
	}

	r.Progress("p1", job.ID, "images", 1, 3, "scene 1 of 3")
	r.Progress("p1", "render-stale", "images", 3, 3, "ignored")

	got, _ := r.Get("p1")
	if got.Done != 1 || got.Total != 3 || got.Phase != "images" {
		t.Errorf("progress = %+v", got)
	}
	if len(got.Messages) != 1 || got.Messages[0] != "scene 1 of 3" {
		t.Errorf("messages = %v", got.Messages)
	}

	got.Messages[0] = "mutated"
	again, _ := r.Get("p1")
	if again.Messages[0] != "scene 1 of 3" {
		t.Error("Get should return a copy")
	}

	r.Complete("p1", job.ID)
	done, _ := r.Get("p1")
	if done.Status != StatusComplete || done.FinishedAt == nil {
		t.Errorf("completed job = %+v", done)
	}

	next, err := r.Start("p1")
	if err != nil {
		t.Fatalf("Start after completion: %v", err)
	}
	if err := r.Fail(context.Background(), "p1", next.ID, "boom"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	failed, _ := r.Get("p1")
	if failed.Status != StatusError || failed.Error != "boom" {
		t.Errorf("failed job = %+v", failed)
	}

	r.Forget("p1")
	if _, ok := r.Get("p1"); ok {
		t.Error("Forget should drop the job")
	}
}

func TestRegistryBoundsMessages(t *testing.T) {
	r := NewRegistry()
	job, _ := r.Start("p")
	for i := range maxMessages + 10 {
		r.Progress("p", job.ID, "images", i, maxMessages+10, fmt.Sprintf("msg %d", i))
	}
	got, _ := r.Get("p")
	if len(got.Messages) != maxMessages {
		t.Fatalf("len(messages) = %d", len(got.Messages))
	}
	if got.Messages[0] != "msg 10" {
		t.Errorf("oldest message = %q", got.Messages[0])
	}
}
