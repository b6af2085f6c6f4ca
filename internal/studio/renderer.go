package studio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fpang/cinema-studio/internal/assets"
	"github.com/fpang/cinema-studio/internal/metrics"
	"github.com/fpang/cinema-studio/internal/production"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Phase names a stage of the render.
type Phase string

const (
	PhaseImages    Phase = "images"
	PhaseNarration Phase = "narration"
)

// Progress is an advisory status update. Done and Total count scene images
// and are zero for narration events.
type Progress struct {
	Phase   Phase  `json:"phase"`
	Done    int    `json:"done"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

// ProgressFunc receives progress updates. Calls are serialized and made on
// the goroutine that called Render.
type ProgressFunc func(Progress)

// Render produces one image per scene and one narration track for the
// whole script. The image and narration phases run concurrently. A failed
// image leaves that scene's Image nil and a failed narration leaves
// Narration nil; neither fails the render. The only error is the context's,
// in which case no state is returned.
func (s *Studio) Render(ctx context.Context, script production.ScriptResult, voice production.VoiceConfig, progress ProgressFunc) (*production.State, error) {
	start := time.Now()
	total := len(script.Scenes)
	images := make([]*production.Asset, total)
	var narration *production.Asset

	log.Info().
		Str("title", script.Title).
		Int("scenes", total).
		Str("concurrency", s.concurrency.String()).
		Str("voice", voice.Voice.Key()).
		Msg("Starting render")

	events := make(chan Progress)

	var phases errgroup.Group
	phases.Go(func() error {
		s.renderImages(ctx, script.Scenes, images, events)
		return nil
	})
	phases.Go(func() error {
		events <- Progress{Phase: PhaseNarration, Message: "synthesizing narration"}
		narration = s.synthesize(ctx, production.NarrationText(voice.Instruction, script.Scenes), voice.Voice)
		return nil
	})
	go func() {
		_ = phases.Wait()
		close(events)
	}()

	done := 0
	for ev := range events {
		if ev.Phase == PhaseImages {
			done++
			ev.Done, ev.Total = done, total
			ev.Message = fmt.Sprintf("scene %d of %d", done, total)
		}
		if progress != nil {
			progress(ev)
		}
	}

	if err := ctx.Err(); err != nil {
		log.Warn().Err(err).Msg("Render canceled")
		return nil, err
	}

	scenes := make([]production.Scene, total)
	copy(scenes, script.Scenes)
	failed := 0
	for i := range scenes {
		scenes[i].Image = images[i]
		if images[i] == nil {
			failed++
		}
	}

	metrics.Studio().
		Dimension("Operation", "render").
		Since("RenderMs", start).
		Metric("SceneCount", float64(total), metrics.UnitCount).
		Metric("SceneImageFailures", float64(failed), metrics.UnitCount).
		Flush()

	log.Info().
		Int("scenes", total).
		Int("image_failures", failed).
		Bool("narration", narration != nil).
		Dur("duration", time.Since(start)).
		Msg("Render complete")

	return &production.State{
		Script:    production.ScriptResult{Title: script.Title, Scenes: scenes},
		Narration: narration,
	}, nil
}

// renderImages fills images by scene position under the concurrency
// policy and sends one event per finished scene.
func (s *Studio) renderImages(ctx context.Context, scenes []production.Scene, images []*production.Asset, events chan<- Progress) {
	var g errgroup.Group
	g.SetLimit(s.concurrency.groupLimit())
	for i := range scenes {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			images[i] = s.renderScene(ctx, scenes[i])
			events <- Progress{Phase: PhaseImages}
			return nil
		})
	}
	_ = g.Wait()
}

// renderScene requests one still for the scene's prompt. Any failure is
// logged and reported as nil.
func (s *Studio) renderScene(ctx context.Context, sc production.Scene) *production.Asset {
	start := time.Now()
	img, err := s.gw.CompleteImage(ctx, assets.ScenePrompt(sc.ImagePrompt), s.image)

	rec := metrics.Studio().
		Dimension("Operation", "scene_image").
		Since("SceneImageMs", start)

	if err == nil && (img == nil || len(img.Data) == 0) {
		err = errors.New("empty image response")
	}
	if err != nil {
		rec.Count("SceneImageFailed").Flush()
		log.Warn().Err(err).
			Int("scene_id", sc.ID).
			Dur("duration", time.Since(start)).
			Msg("Scene image generation failed; leaving scene without image")
		return nil
	}

	rec.Count("SceneImageRendered").Metric("SceneImageBytes", float64(len(img.Data)), metrics.UnitBytes).Flush()
	log.Debug().
		Int("scene_id", sc.ID).
		Int("bytes", len(img.Data)).
		Str("mime_type", img.MIMEType).
		Dur("duration", time.Since(start)).
		Msg("Scene image rendered")
	return img
}

// synthesize reads text with the given voice. Any failure is logged and
// reported as nil.
func (s *Studio) synthesize(ctx context.Context, text string, voice production.VoiceName) *production.Asset {
	start := time.Now()
	audio, err := s.gw.SynthesizeSpeech(ctx, text, voice.Key())

	rec := metrics.Studio().
		Dimension("Operation", "narration").
		Since("NarrationMs", start)

	if err == nil && (audio == nil || len(audio.Data) == 0) {
		err = errors.New("empty audio response")
	}
	if err != nil {
		rec.Count("NarrationFailed").Flush()
		log.Warn().Err(err).
			Str("voice", voice.Key()).
			Int("text_length", len(text)).
			Msg("Narration synthesis failed; continuing without narration")
		return nil
	}

	rec.Count("NarrationRendered").Metric("NarrationBytes", float64(len(audio.Data)), metrics.UnitBytes).Flush()
	log.Info().
		Str("voice", voice.Key()).
		Int("bytes", len(audio.Data)).
		Dur("duration", time.Since(start)).
		Msg("Narration synthesized")
	return audio
}
