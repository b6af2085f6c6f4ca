package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/fpang/cinema-studio/internal/jobs"
	"github.com/fpang/cinema-studio/internal/jobutil"
	"github.com/fpang/cinema-studio/internal/store"
	"github.com/fpang/cinema-studio/internal/studio"
	"github.com/rs/zerolog/log"
)

type startRenderRequest struct {
	Synopsis string `json:"synopsis"`
}

// handleStartRender plans a script from the project synopsis and renders
// it. The job runs in the background unless the server is synchronous;
// poll GET .../render for progress.
func (s *Server) handleStartRender(w http.ResponseWriter, r *http.Request, sess *session) {
	var req startRenderRequest
	if err := decodeBody(w, r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	current := sess.snapshot()
	if s.jobs.Running(current.ID) {
		httpError(w, http.StatusConflict, jobs.ErrJobRunning.Error())
		return
	}
	if synopsis := strings.TrimSpace(req.Synopsis); synopsis != "" {
		saved, err := s.commit(r.Context(), sess, func(p *store.Project) { p.Synopsis = synopsis })
		if err != nil {
			httpError(w, statusFor(err), err.Error())
			return
		}
		current = saved
	}
	if strings.TrimSpace(current.Synopsis) == "" {
		httpError(w, http.StatusBadRequest, studio.ErrEmptySynopsis.Error())
		return
	}
	if err := current.Configuration.Validate(); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := s.jobs.Start(current.ID)
	if err != nil {
		httpError(w, statusFor(err), err.Error())
		return
	}

	if s.syncJobs {
		s.runRender(r.Context(), sess, current, job.ID)
		final, _ := s.jobs.Get(current.ID)
		respondJSON(w, http.StatusOK, final)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runRender(s.baseCtx, sess, current, job.ID)
	}()
	respondJSON(w, http.StatusAccepted, job)
}

// runRender executes plan then render for one job and records the outcome
// in the job registry.
func (s *Server) runRender(ctx context.Context, sess *session, p store.Project, jobID string) {
	fail := func(msg string) {
		_ = jobutil.SetJobError(ctx, p.ID, jobID, msg, s.jobs.Fail)
	}

	s.jobs.Progress(p.ID, jobID, "plan", 0, p.Configuration.SceneCount, "planning script")
	script, err := s.studio.Plan(ctx, p.Configuration, p.Synopsis)
	if err != nil {
		fail(fmt.Sprintf("planning failed: %v", err))
		return
	}
	s.jobs.Progress(p.ID, jobID, "plan", 0, len(script.Scenes),
		fmt.Sprintf("planned %d scenes: %s", len(script.Scenes), script.Title))

	progress := func(ev studio.Progress) {
		s.jobs.Progress(p.ID, jobID, string(ev.Phase), ev.Done, ev.Total, ev.Message)
	}
	if _, err := sess.project.Render(ctx, *script, p.Configuration.VoiceConfig(), progress); err != nil {
		fail(fmt.Sprintf("render failed: %v", err))
		return
	}

	if _, err := s.commit(ctx, sess, nil); err != nil {
		fail(fmt.Sprintf("saving render failed: %v", err))
		return
	}
	s.jobs.Complete(p.ID, jobID)
	log.Info().Str("project", p.ID).Str("job", jobID).Msg("Render job complete")
}

func (s *Server) handleRenderStatus(w http.ResponseWriter, r *http.Request, sess *session) {
	job, ok := s.jobs.Get(r.PathValue("id"))
	if !ok {
		httpError(w, http.StatusNotFound, "no render job for this project")
		return
	}
	respondJSON(w, http.StatusOK, job)
}
