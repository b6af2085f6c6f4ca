package api

import (
	"errors"
	"net/http"

	"github.com/fpang/cinema-studio/internal/production"
	"github.com/fpang/cinema-studio/internal/studio"
	"github.com/rs/zerolog/log"
)

type editSceneRequest struct {
	Content     *string `json:"content"`
	ImagePrompt *string `json:"imagePrompt"`
}

// sceneTarget parses {sceneId} and requires a rendered production. It does
// not check that the scene exists.
func sceneTarget(w http.ResponseWriter, r *http.Request, sess *session) (int, bool) {
	id, err := sceneIDParam(r)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	if sess.project.State() == nil {
		httpError(w, http.StatusConflict, studio.ErrNoProduction.Error())
		return 0, false
	}
	return id, true
}

// unchangedIfUnknown answers a scene patch that names no scene with the
// current project, leaving it untouched.
func (s *Server) unchangedIfUnknown(w http.ResponseWriter, sess *session, id int) bool {
	if sess.project.State().SceneIndex(id) >= 0 {
		return false
	}
	log.Debug().Int("scene_id", id).Msg("Scene not in production; nothing to change")
	respondJSON(w, http.StatusOK, s.projectView(sess, sess.snapshot()))
	return true
}

func (s *Server) respondScene(w http.ResponseWriter, sess *session, projectID string, state *production.State, id int) {
	sc, ok := state.Scene(id)
	if !ok {
		httpError(w, http.StatusNotFound, "scene not found")
		return
	}
	respondJSON(w, http.StatusOK, newSceneView(projectID, sc, sess.project.Busy(id)))
}

func (s *Server) handleEditScene(w http.ResponseWriter, r *http.Request, sess *session) {
	id, ok := sceneTarget(w, r, sess)
	if !ok {
		return
	}
	var req editSceneRequest
	if err := decodeBody(w, r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	patch := production.ScenePatch{Content: req.Content, ImagePrompt: req.ImagePrompt}
	if patch.Empty() {
		httpError(w, http.StatusBadRequest, "content or imagePrompt is required")
		return
	}
	if s.unchangedIfUnknown(w, sess, id) {
		return
	}

	if _, err := sess.project.EditScene(id, patch); err != nil {
		httpError(w, statusFor(err), err.Error())
		return
	}
	saved, err := s.commit(r.Context(), sess, nil)
	if err != nil {
		httpError(w, statusFor(err), err.Error())
		return
	}
	s.respondScene(w, sess, saved.ID, saved.State, id)
}

// handleRegenerate re-renders one scene image from its current prompt.
// A second request for the same scene while one is pending gets 409.
func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request, sess *session) {
	id, ok := sceneTarget(w, r, sess)
	if !ok || s.unchangedIfUnknown(w, sess, id) {
		return
	}
	if _, err := sess.project.RegenerateImage(r.Context(), id); err != nil {
		if !errors.Is(err, studio.ErrSceneBusy) {
			log.Warn().Err(err).Int("scene_id", id).Msg("Regenerate failed")
		}
		httpError(w, statusFor(err), err.Error())
		return
	}
	saved, err := s.commit(r.Context(), sess, nil)
	if err != nil {
		httpError(w, statusFor(err), err.Error())
		return
	}
	s.respondScene(w, sess, saved.ID, saved.State, id)
}

func (s *Server) handleSceneImage(w http.ResponseWriter, r *http.Request, sess *session) {
	id, ok := sceneTarget(w, r, sess)
	if !ok {
		return
	}
	sc, found := sess.project.State().Scene(id)
	if !found {
		httpError(w, http.StatusNotFound, "scene not found")
		return
	}
	if !sc.HasImage() {
		httpError(w, http.StatusNotFound, "scene has no image")
		return
	}
	respondBytes(w, sc.Image.MIMEType, sc.Image.Data)
}
