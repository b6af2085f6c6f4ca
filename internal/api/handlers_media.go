package api

import (
	"mime"
	"net/http"
	"strings"

	"github.com/fpang/cinema-studio/internal/export"
	"github.com/fpang/cinema-studio/internal/production"
	"github.com/fpang/cinema-studio/internal/s3util"
	"github.com/fpang/cinema-studio/internal/store"
	"github.com/fpang/cinema-studio/internal/studio"
	"github.com/rs/zerolog/log"
)

type resynthesizeRequest struct {
	Voice       string  `json:"voice"`
	Instruction *string `json:"instruction"`
}

// handleResynthesize rebuilds the narration from the current scene text.
// A voice or instruction in the body replaces the project's voice settings
// before synthesis.
func (s *Server) handleResynthesize(w http.ResponseWriter, r *http.Request, sess *session) {
	var req resynthesizeRequest
	if err := decodeBody(w, r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg := sess.snapshot().Configuration
	if req.Voice != "" {
		v, ok := production.ParseVoice(req.Voice)
		if !ok {
			httpError(w, http.StatusBadRequest, "unknown voice "+req.Voice)
			return
		}
		cfg.Voice = v
	}
	if req.Instruction != nil {
		cfg.VoiceInstruction = strings.TrimSpace(*req.Instruction)
	}

	if _, err := sess.project.Resynthesize(r.Context(), cfg.VoiceConfig()); err != nil {
		httpError(w, statusFor(err), err.Error())
		return
	}
	saved, err := s.commit(r.Context(), sess, func(p *store.Project) {
		p.Configuration.Voice = cfg.Voice
		p.Configuration.VoiceInstruction = cfg.VoiceInstruction
	})
	if err != nil {
		httpError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.projectView(sess, saved))
}

func (s *Server) handleNarration(w http.ResponseWriter, r *http.Request, sess *session) {
	state := sess.project.State()
	if state == nil {
		httpError(w, http.StatusConflict, studio.ErrNoProduction.Error())
		return
	}
	if state.Narration == nil || len(state.Narration.Data) == 0 {
		httpError(w, http.StatusNotFound, "project has no narration")
		return
	}
	respondBytes(w, state.Narration.MIMEType, state.Narration.Data)
}

// archive packages the current production and names it after the title.
func (s *Server) archive(sess *session) ([]byte, string, error) {
	state := sess.project.State()
	data, err := export.Package(state, s.export)
	if err != nil {
		return nil, "", err
	}
	return data, export.ArchiveName(state.Script.Title), nil
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, sess *session) {
	data, name, err := s.archive(sess)
	if err != nil {
		httpError(w, statusFor(err), err.Error())
		return
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	respondBytes(w, s3util.ArchiveContentType, data)
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request, sess *session) {
	if s.publisher == nil {
		httpError(w, http.StatusNotImplemented, "publishing is not configured")
		return
	}
	data, name, err := s.archive(sess)
	if err != nil {
		httpError(w, statusFor(err), err.Error())
		return
	}

	id := r.PathValue("id")
	pub, err := s.publisher.Publish(r.Context(), s3util.ArchiveKey(id, name), data)
	if err != nil {
		log.Error().Err(err).Str("project", id).Msg("Publish failed")
		httpError(w, http.StatusBadGateway, "publish failed")
		return
	}
	respondJSON(w, http.StatusOK, pub)
}
