package studio

import (
	"context"
	"sync"

	"github.com/fpang/cinema-studio/internal/production"
	"github.com/rs/zerolog/log"
)

// Project holds the live production state of one project and commits the
// results of pipeline operations to it. Commits are serialized; remote calls
// run outside the lock.
//
// A regeneration merges its image onto the state current at completion
// time, not the snapshot it started from, so edits made while the call was
// in flight are kept. Only one regeneration per scene may be pending.
type Project struct {
	studio *Studio

	mu       sync.Mutex
	state    *production.State
	inflight map[int]bool
}

// NewProject creates an empty project.
func NewProject(s *Studio) *Project {
	return &Project{studio: s, inflight: make(map[int]bool)}
}

// State returns the current production, or nil before the first render.
// The value must be treated as read-only.
func (p *Project) State() *production.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Restore replaces the production wholesale, e.g. after loading it from a
// store.
func (p *Project) Restore(state *production.State) {
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()
}

// Reset discards the production.
func (p *Project) Reset() {
	p.Restore(nil)
}

// Render runs the full render and commits the result. On error the prior
// production is kept.
func (p *Project) Render(ctx context.Context, script production.ScriptResult, voice production.VoiceConfig, progress ProgressFunc) (*production.State, error) {
	next, err := p.studio.Render(ctx, script, voice, progress)
	if err != nil {
		return nil, err
	}
	p.Restore(next)
	return next, nil
}

// EditScene applies a local edit and commits it. Unknown ids are ignored.
func (p *Project) EditScene(id int, patch production.ScenePatch) (*production.State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == nil {
		return nil, ErrNoProduction
	}
	p.state = production.EditScene(p.state, id, patch)
	return p.state, nil
}

// Busy reports whether a regeneration is pending for the scene.
func (p *Project) Busy(id int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inflight[id]
}

// RegenerateImage re-renders one scene from the prompt in effect now and
// commits the new image. It returns ErrSceneBusy when a regeneration for the
// same scene is already pending. An unknown id is a no-op.
func (p *Project) RegenerateImage(ctx context.Context, id int) (*production.State, error) {
	p.mu.Lock()
	if p.state == nil {
		p.mu.Unlock()
		return nil, ErrNoProduction
	}
	sc, ok := p.state.Scene(id)
	if !ok {
		state := p.state
		p.mu.Unlock()
		return state, nil
	}
	if p.inflight[id] {
		p.mu.Unlock()
		log.Warn().Int("scene_id", id).Msg("Rejected regenerate: scene already busy")
		return nil, ErrSceneBusy
	}
	p.inflight[id] = true
	p.mu.Unlock()

	img := p.studio.renderScene(ctx, sc)

	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inflight, id)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.state == nil {
		return nil, ErrNoProduction
	}
	p.state = production.WithSceneImage(p.state, id, img)
	return p.state, nil
}

// Resynthesize rebuilds the narration from the current scene contents and
// commits only the new track.
func (p *Project) Resynthesize(ctx context.Context, voice production.VoiceConfig) (*production.State, error) {
	snapshot := p.State()
	if snapshot == nil {
		return nil, ErrNoProduction
	}

	text := production.NarrationText(voice.Instruction, snapshot.Script.Scenes)
	audio := p.studio.synthesize(ctx, text, voice.Voice)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.state == nil {
		return nil, ErrNoProduction
	}
	p.state = production.WithNarration(p.state, audio)
	return p.state, nil
}
