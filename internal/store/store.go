// Package store persists Cinema Studio projects: the configuration, the
// synopsis inputs and text, and the rendered production with its image and
// narration assets.
//
// Three implementations share one record layout (record.go):
//   - MemoryStore keeps projects in process memory.
//   - SQLiteStore keeps the project document in a TEXT column and every
//     asset in a BLOB column of a side table.
//   - DynamoStore keeps the document in a single-table DynamoDB item
//     (PK = PROJECT#{id}, SK = META) and asset bytes in a BlobStore (S3).
package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/fpang/cinema-studio/internal/production"
)

// ErrNotFound is returned when a project id has no stored record.
var ErrNotFound = errors.New("project not found")

// Project is one stored production run. State is nil until the first
// successful render.
type Project struct {
	ID            string                   `json:"id"`
	Configuration production.Configuration `json:"configuration"`
	SynopsisInput production.SynopsisInput `json:"synopsisInput"`
	Synopsis      string                   `json:"synopsis"`
	State         *production.State        `json:"-"`
	CreatedAt     time.Time                `json:"createdAt"`
	UpdatedAt     time.Time                `json:"updatedAt"`
}

// Summary is the listing view of a project.
type Summary struct {
	ID         string    `json:"id"`
	Title      string    `json:"title,omitempty"`
	Rendered   bool      `json:"rendered"`
	SceneCount int       `json:"sceneCount"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ProjectStore defines the persistence interface for projects.
// Each method is safe for concurrent use.
type ProjectStore interface {
	// PutProject creates or replaces a project, assets included. CreatedAt
	// is set on first write and UpdatedAt on every write.
	PutProject(ctx context.Context, p *Project) error

	// GetProject returns the project or ErrNotFound.
	GetProject(ctx context.Context, id string) (*Project, error)

	// ListProjects returns every project, most recently updated first.
	ListProjects(ctx context.Context) ([]Summary, error)

	// DeleteProject removes the project and its assets, or returns ErrNotFound.
	DeleteProject(ctx context.Context, id string) error
}

// Summarize builds the listing view of p.
func Summarize(p *Project) Summary {
	s := Summary{ID: p.ID, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt}
	if p.State != nil {
		s.Rendered = true
		s.Title = p.State.Script.Title
		s.SceneCount = len(p.State.Script.Scenes)
	}
	return s
}

// stamp sets the write timestamps on p.
func stamp(p *Project, now time.Time) {
	now = now.UTC().Truncate(time.Millisecond)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

func sortSummaries(list []Summary) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].UpdatedAt.Equal(list[j].UpdatedAt) {
			return list[i].UpdatedAt.After(list[j].UpdatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
