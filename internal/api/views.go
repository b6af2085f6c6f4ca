package api

import (
	"fmt"

	"github.com/fpang/cinema-studio/internal/jobs"
	"github.com/fpang/cinema-studio/internal/production"
	"github.com/fpang/cinema-studio/internal/store"
	"github.com/fpang/cinema-studio/internal/studio"
)

type sceneView struct {
	ID          int    `json:"id"`
	Label       string `json:"label"`
	Content     string `json:"content"`
	ImagePrompt string `json:"imagePrompt"`
	HasImage    bool   `json:"hasImage"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Busy        bool   `json:"busy"`
}

type productionView struct {
	Title        string      `json:"title"`
	Scenes       []sceneView `json:"scenes"`
	HasNarration bool        `json:"hasNarration"`
	NarrationURL string      `json:"narrationUrl,omitempty"`
}

type projectView struct {
	store.Project
	Production *productionView `json:"production,omitempty"`
	Job        *jobs.Job       `json:"job,omitempty"`
}

func newSceneView(projectID string, sc production.Scene, busy bool) sceneView {
	v := sceneView{
		ID:          sc.ID,
		Label:       sc.Label,
		Content:     sc.Content,
		ImagePrompt: sc.ImagePrompt,
		HasImage:    sc.HasImage(),
		Busy:        busy,
	}
	if v.HasImage {
		v.ImageURL = fmt.Sprintf("/api/projects/%s/scenes/%d/image", projectID, sc.ID)
	}
	return v
}

func productionViewOf(id string, project *studio.Project, state *production.State) *productionView {
	if state == nil {
		return nil
	}
	v := &productionView{
		Title:  state.Script.Title,
		Scenes: make([]sceneView, len(state.Script.Scenes)),
	}
	for i, sc := range state.Script.Scenes {
		v.Scenes[i] = newSceneView(id, sc, project.Busy(sc.ID))
	}
	if state.Narration != nil && len(state.Narration.Data) > 0 {
		v.HasNarration = true
		v.NarrationURL = fmt.Sprintf("/api/projects/%s/narration", id)
	}
	return v
}

func (s *Server) projectView(sess *session, p store.Project) projectView {
	v := projectView{Project: p, Production: productionViewOf(p.ID, sess.project, p.State)}
	if job, ok := s.jobs.Get(p.ID); ok {
		v.Job = &job
	}
	return v
}
