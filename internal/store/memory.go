package store

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore keeps projects in process memory. Projects are lost on exit.
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[string]*Project
	now      func() time.Time
}

var _ ProjectStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{projects: make(map[string]*Project), now: time.Now}
}

func (s *MemoryStore) PutProject(_ context.Context, p *Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp(p, s.now())
	s.projects[p.ID] = clone(p)
	return nil
}

func (s *MemoryStore) GetProject(_ context.Context, id string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(p), nil
}

func (s *MemoryStore) ListProjects(_ context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]Summary, 0, len(s.projects))
	for _, p := range s.projects {
		list = append(list, Summarize(p))
	}
	sortSummaries(list)
	return list, nil
}

func (s *MemoryStore) DeleteProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return ErrNotFound
	}
	delete(s.projects, id)
	return nil
}

// clone copies the mutable parts of p. State is copy-on-write and shared.
func clone(p *Project) *Project {
	c := *p
	c.Configuration.Genres = slices.Clone(p.Configuration.Genres)
	return &c
}
