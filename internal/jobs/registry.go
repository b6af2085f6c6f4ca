package jobs

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// ErrJobRunning is returned when a project already has a running job.
var ErrJobRunning = errors.New("a render job is already running for this project")

// maxMessages bounds the progress log kept per job.
const maxMessages = 200

// Job is a snapshot of one render job.
type Job struct {
	ID         string     `json:"id"`
	ProjectID  string     `json:"projectId"`
	Status     Status     `json:"status"`
	Phase      string     `json:"phase,omitempty"`
	Done       int        `json:"done"`
	Total      int        `json:"total"`
	Messages   []string   `json:"messages"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// Registry keeps the latest job per project in memory.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*Job
	now  func() time.Time
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job), now: time.Now}
}

// Start registers a new running job for projectID, replacing any finished
// one.
func (r *Registry) Start(projectID string) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.jobs[projectID]; ok && cur.Status == StatusRunning {
		return cur.snapshot(), ErrJobRunning
	}
	j := &Job{
		ID:        GenerateID(RenderPrefix),
		ProjectID: projectID,
		Status:    StatusRunning,
		Messages:  []string{},
		StartedAt: r.now().UTC(),
	}
	r.jobs[projectID] = j
	return j.snapshot(), nil
}

// Progress records a progress message on the job if it is still the
// project's current job.
func (r *Registry) Progress(projectID, jobID, phase string, done, total int, msg string) {
	r.update(projectID, jobID, func(j *Job) {
		j.Phase = phase
		j.Done = done
		j.Total = total
		if msg == "" {
			return
		}
		j.Messages = append(j.Messages, msg)
		if over := len(j.Messages) - maxMessages; over > 0 {
			j.Messages = slices.Delete(j.Messages, 0, over)
		}
	})
}

// Complete marks the job finished.
func (r *Registry) Complete(projectID, jobID string) {
	r.update(projectID, jobID, func(j *Job) {
		j.Status = StatusComplete
		t := r.now().UTC()
		j.FinishedAt = &t
	})
}

// Fail marks the job failed. Its signature matches jobutil.ErrorWriter.
func (r *Registry) Fail(_ context.Context, projectID, jobID, msg string) error {
	r.update(projectID, jobID, func(j *Job) {
		j.Status = StatusError
		j.Error = msg
		t := r.now().UTC()
		j.FinishedAt = &t
	})
	return nil
}

// Get returns the latest job for projectID.
func (r *Registry) Get(projectID string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[projectID]
	if !ok {
		return Job{}, false
	}
	return j.snapshot(), true
}

// Running reports whether projectID has a running job.
func (r *Registry) Running(projectID string) bool {
	j, ok := r.Get(projectID)
	return ok && j.Status == StatusRunning
}

// Forget drops the job record for projectID.
func (r *Registry) Forget(projectID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, projectID)
}

func (r *Registry) update(projectID, jobID string, fn func(*Job)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[projectID]
	if !ok || j.ID != jobID {
		return
	}
	fn(j)
}

func (j *Job) snapshot() Job {
	c := *j
	c.Messages = slices.Clone(j.Messages)
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		c.FinishedAt = &t
	}
	return c
}
