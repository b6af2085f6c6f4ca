package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fpang/cinema-studio/internal/jobs"
	"github.com/fpang/cinema-studio/internal/production"
	"github.com/fpang/cinema-studio/internal/store"
	"github.com/rs/zerolog/log"
)

type createProjectRequest struct {
	Configuration production.Configuration `json:"configuration"`
	SynopsisInput production.SynopsisInput `json:"synopsisInput"`
	Synopsis      string                   `json:"synopsis"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	req := createProjectRequest{Configuration: production.DefaultConfiguration()}
	if err := decodeBody(w, r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Configuration.Validate(); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := &store.Project{
		ID:            jobs.NewProjectID(),
		Configuration: req.Configuration,
		SynopsisInput: req.SynopsisInput,
		Synopsis:      strings.TrimSpace(req.Synopsis),
	}
	if err := s.store.PutProject(r.Context(), p); err != nil {
		log.Error().Err(err).Msg("Failed to create project")
		httpError(w, http.StatusInternalServerError, "failed to create project")
		return
	}

	sess := s.newSession(p)
	s.mu.Lock()
	s.sessions[p.ID] = sess
	s.mu.Unlock()

	log.Info().
		Str("project", p.ID).
		Int("scene_count", p.Configuration.SceneCount).
		Str("tone", string(p.Configuration.Tone)).
		Msg("Project created")
	respondJSON(w, http.StatusCreated, s.projectView(sess, *p))
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListProjects(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list projects")
		httpError(w, http.StatusInternalServerError, "failed to list projects")
		return
	}
	if list == nil {
		list = []store.Summary{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"projects": list})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request, sess *session) {
	respondJSON(w, http.StatusOK, s.projectView(sess, sess.snapshot()))
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request, sess *session) {
	id := r.PathValue("id")
	if err := s.store.DeleteProject(r.Context(), id); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Error().Err(err).Str("project", id).Msg("Failed to delete project")
		httpError(w, http.StatusInternalServerError, "failed to delete project")
		return
	}
	s.drop(sess)
	log.Info().Str("project", id).Msg("Project deleted")
	w.WriteHeader(http.StatusNoContent)
}

type draftSynopsisRequest struct {
	SynopsisInput *production.SynopsisInput `json:"synopsisInput"`
}

// handleDraftSynopsis asks the text model for a synopsis from the stored
// (or supplied) brainstorming fields and saves it as the project synopsis.
func (s *Server) handleDraftSynopsis(w http.ResponseWriter, r *http.Request, sess *session) {
	var req draftSynopsisRequest
	if err := decodeBody(w, r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	current := sess.snapshot()
	input := current.SynopsisInput
	if req.SynopsisInput != nil {
		input = *req.SynopsisInput
	}

	synopsis, err := s.studio.DraftSynopsis(r.Context(), current.Configuration, input)
	if err != nil {
		log.Error().Err(err).Str("project", current.ID).Msg("Synopsis draft failed")
		httpError(w, http.StatusBadGateway, "synopsis generation failed: "+err.Error())
		return
	}

	saved, err := s.commit(r.Context(), sess, func(p *store.Project) {
		p.SynopsisInput = input
		p.Synopsis = synopsis
	})
	if err != nil {
		httpError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.projectView(sess, saved))
}

type putSynopsisRequest struct {
	Synopsis string `json:"synopsis"`
}

func (s *Server) handlePutSynopsis(w http.ResponseWriter, r *http.Request, sess *session) {
	var req putSynopsisRequest
	if err := decodeBody(w, r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := s.commit(r.Context(), sess, func(p *store.Project) {
		p.Synopsis = strings.TrimSpace(req.Synopsis)
	})
	if err != nil {
		httpError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.projectView(sess, saved))
}
