package api

import (
	"context"
	"fmt"
	"sync"

	"github.com/fpang/cinema-studio/internal/store"
	"github.com/fpang/cinema-studio/internal/studio"
)

// session is the live form of a stored project. record holds everything
// but the production, which lives in project.
type session struct {
	mu      sync.Mutex
	record  store.Project
	project *studio.Project
	deleted bool
}

// snapshot returns the stored fields and the current production.
func (ss *session) snapshot() store.Project {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	rec := ss.record
	rec.State = ss.project.State()
	return rec
}

// session returns the live session for id, loading it from the store on
// first use.
func (s *Server) session(ctx context.Context, id string) (*session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		return sess, nil
	}

	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	sess = s.newSession(p)
	s.sessions[id] = sess
	return sess, nil
}

func (s *Server) newSession(p *store.Project) *session {
	sess := &session{record: *p, project: studio.NewProject(s.studio)}
	sess.project.Restore(p.State)
	sess.record.State = nil
	return sess
}

// commit applies mutate to the stored fields and writes the project with
// its current production through to the store. Commits on one session are
// serialized and each writes the production as of its own turn, so the
// last write always carries every change committed before it.
func (s *Server) commit(ctx context.Context, sess *session, mutate func(*store.Project)) (store.Project, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.deleted {
		return store.Project{}, store.ErrNotFound
	}

	rec := sess.record
	if mutate != nil {
		mutate(&rec)
	}
	rec.State = sess.project.State()
	if err := s.store.PutProject(ctx, &rec); err != nil {
		return store.Project{}, fmt.Errorf("save project %s: %w", rec.ID, err)
	}

	saved := rec
	rec.State = nil
	sess.record = rec
	return saved, nil
}

// drop forgets the session after the project is deleted.
func (s *Server) drop(sess *session) {
	sess.mu.Lock()
	sess.deleted = true
	id := sess.record.ID
	sess.mu.Unlock()

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	s.jobs.Forget(id)
}
