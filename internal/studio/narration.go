package studio

import (
	"context"

	"github.com/fpang/cinema-studio/internal/production"
	"github.com/rs/zerolog/log"
)

// Resynthesize rebuilds the narration from the state's current scene
// contents and the given voice settings. Only Narration is replaced; it is
// nil when synthesis fails. A nil state is returned as nil.
func (s *Studio) Resynthesize(ctx context.Context, state *production.State, voice production.VoiceConfig) *production.State {
	if state == nil {
		return nil
	}
	text := production.NarrationText(voice.Instruction, state.Script.Scenes)
	log.Info().
		Str("voice", voice.Voice.Key()).
		Int("text_length", len(text)).
		Msg("Resynthesizing narration")
	return production.WithNarration(state, s.synthesize(ctx, text, voice.Voice))
}

// RegenerateImage renders the scene's current image prompt again and
// replaces only that scene's image, nil on failure. An unknown id returns
// state itself without any remote call.
func (s *Studio) RegenerateImage(ctx context.Context, state *production.State, id int) *production.State {
	sc, ok := state.Scene(id)
	if !ok {
		log.Debug().Int("scene_id", id).Msg("Regenerate ignored for unknown scene")
		return state
	}
	return production.WithSceneImage(state, id, s.renderScene(ctx, sc))
}
