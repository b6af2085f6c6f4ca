// Package api exposes the studio pipeline and the project store over HTTP.
// The same handler serves the local web server and the Lambda function.
package api

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/fpang/cinema-studio/internal/export"
	"github.com/fpang/cinema-studio/internal/jobs"
	"github.com/fpang/cinema-studio/internal/s3util"
	"github.com/fpang/cinema-studio/internal/store"
	"github.com/fpang/cinema-studio/internal/studio"
	"github.com/rs/zerolog/log"
)

// Publisher uploads an export archive and returns a download link.
// *s3util.ArchivePublisher implements it.
type Publisher interface {
	Publish(ctx context.Context, key string, data []byte) (*s3util.Published, error)
}

// Server is the HTTP API. Each project loaded by a request is kept as a
// live studio.Project so regenerations and edits on the same project are
// serialized in one place; every committed change is written through to
// the store.
type Server struct {
	studio    *studio.Studio
	store     store.ProjectStore
	jobs      *jobs.Registry
	export    export.Options
	publisher Publisher
	syncJobs  bool

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu       sync.Mutex
	sessions map[string]*session
}

// Option customizes a Server.
type Option func(*Server)

// WithExportOptions sets the archive encoding.
func WithExportOptions(opts export.Options) Option {
	return func(s *Server) { s.export = opts }
}

// WithPublisher enables POST /api/projects/{id}/publish.
func WithPublisher(p Publisher) Option {
	return func(s *Server) { s.publisher = p }
}

// WithSynchronousJobs makes render requests run to completion before
// responding. Lambda needs this since work after the response is frozen.
func WithSynchronousJobs() Option {
	return func(s *Server) { s.syncJobs = true }
}

// New creates a Server.
func New(st *studio.Studio, ps store.ProjectStore, opts ...Option) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		studio:   st,
		store:    ps,
		jobs:     jobs.NewRegistry(),
		baseCtx:  ctx,
		cancel:   cancel,
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API routes wrapped in logging and metrics middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.HandleFunc("POST /api/projects", s.handleCreateProject)
	mux.HandleFunc("GET /api/projects", s.handleListProjects)
	mux.HandleFunc("GET /api/projects/{id}", s.withProject(s.handleGetProject))
	mux.HandleFunc("DELETE /api/projects/{id}", s.withProject(s.handleDeleteProject))

	mux.HandleFunc("POST /api/projects/{id}/synopsis", s.withProject(s.handleDraftSynopsis))
	mux.HandleFunc("PUT /api/projects/{id}/synopsis", s.withProject(s.handlePutSynopsis))

	mux.HandleFunc("POST /api/projects/{id}/render", s.withProject(s.handleStartRender))
	mux.HandleFunc("GET /api/projects/{id}/render", s.withProject(s.handleRenderStatus))

	mux.HandleFunc("PATCH /api/projects/{id}/scenes/{sceneId}", s.withProject(s.handleEditScene))
	mux.HandleFunc("POST /api/projects/{id}/scenes/{sceneId}/regenerate", s.withProject(s.handleRegenerate))
	mux.HandleFunc("GET /api/projects/{id}/scenes/{sceneId}/image", s.withProject(s.handleSceneImage))

	mux.HandleFunc("POST /api/projects/{id}/narration", s.withProject(s.handleResynthesize))
	mux.HandleFunc("GET /api/projects/{id}/narration", s.withProject(s.handleNarration))

	mux.HandleFunc("GET /api/projects/{id}/export", s.withProject(s.handleExport))
	mux.HandleFunc("POST /api/projects/{id}/publish", s.withProject(s.handlePublish))

	return withLogging(withMetrics(mux))
}

// Close cancels running render jobs and waits for them to stop.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// projectHandler receives the loaded session of the {id} in the path.
type projectHandler func(w http.ResponseWriter, r *http.Request, sess *session)

func (s *Server) withProject(h projectHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !jobs.ValidID(id) {
			httpError(w, http.StatusNotFound, "project not found")
			return
		}
		sess, err := s.session(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			httpError(w, http.StatusNotFound, "project not found")
			return
		}
		if err != nil {
			log.Error().Err(err).Str("project", id).Msg("Failed to load project")
			httpError(w, http.StatusInternalServerError, "failed to load project")
			return
		}
		h(w, r, sess)
	}
}

// statusFor maps pipeline and store errors to HTTP status codes.
func statusFor(err error) int {
	var malformed *studio.MalformedPlanError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, studio.ErrSceneBusy),
		errors.Is(err, studio.ErrNoProduction),
		errors.Is(err, jobs.ErrJobRunning),
		errors.Is(err, export.ErrNothingToExport):
		return http.StatusConflict
	case errors.Is(err, studio.ErrEmptySynopsis):
		return http.StatusBadRequest
	case errors.As(err, &malformed):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
