// Package jobs tracks asynchronous render jobs and issues ids for projects
// and jobs.
package jobs

import "github.com/google/uuid"

// Id prefixes.
const (
	RenderPrefix = "render-"
)

// NewProjectID returns a random project id.
func NewProjectID() string {
	return uuid.NewString()
}

// GenerateID creates a random job ID with the given prefix. The prefix
// should include a trailing dash, e.g. "render-".
func GenerateID(prefix string) string {
	return prefix + uuid.NewString()
}

// ValidID reports whether id has the form returned by NewProjectID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}
