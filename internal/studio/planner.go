package studio

import (
	"context"
	"fmt"
	"strings"

	"github.com/fpang/cinema-studio/internal/assets"
	"github.com/fpang/cinema-studio/internal/jsonutil"
	"github.com/fpang/cinema-studio/internal/production"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// ScriptSchema is the response schema sent with every planning request.
func ScriptSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title": {Type: genai.TypeString},
			"scenes": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"id":          {Type: genai.TypeInteger},
						"label":       {Type: genai.TypeString},
						"content":     {Type: genai.TypeString},
						"imagePrompt": {Type: genai.TypeString},
					},
					Required: []string{"id", "label", "content", "imagePrompt"},
				},
			},
		},
		Required: []string{"title", "scenes"},
	}
}

// planResponse mirrors ScriptSchema with pointer fields so absent keys can
// be told apart from empty values.
type planResponse struct {
	Title  *string      `json:"title"`
	Scenes *[]planScene `json:"scenes"`
}

type planScene struct {
	ID          *int    `json:"id"`
	Label       *string `json:"label"`
	Content     *string `json:"content"`
	ImagePrompt *string `json:"imagePrompt"`
}

// DraftSynopsis asks the text model for a roughly 1000 character synopsis
// built from the brainstorming fields. Errors are returned as is.
func (s *Studio) DraftSynopsis(ctx context.Context, cfg production.Configuration, in production.SynopsisInput) (string, error) {
	genres := make([]string, 0, len(cfg.Genres))
	for _, g := range cfg.Genres {
		genres = append(genres, string(g))
	}

	prompt := assets.RenderSynopsisPrompt(assets.SynopsisPromptData{
		Genres:      genres,
		Tone:        string(cfg.Tone),
		Subject:     in.Subject,
		Protagonist: in.Protagonist,
		Background:  in.Background,
		Incident:    in.Incident,
		Emotion:     in.Emotion,
	})

	text, err := s.gw.CompleteText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to draft synopsis: %w", err)
	}

	synopsis := strings.TrimSpace(text)
	log.Info().
		Int("genres", len(genres)).
		Int("synopsis_length", len([]rune(synopsis))).
		Msg("Synopsis drafted")
	return synopsis, nil
}

// Plan splits the synopsis into cfg.SceneCount scenes with one structured
// completion. A response that is not valid JSON, lacks a required field or
// repeats a scene id yields *MalformedPlanError. The returned scene count
// is whatever the model produced.
func (s *Studio) Plan(ctx context.Context, cfg production.Configuration, synopsis string) (*production.ScriptResult, error) {
	synopsis = strings.TrimSpace(synopsis)
	if synopsis == "" {
		return nil, ErrEmptySynopsis
	}
	if cfg.SceneCount < production.MinSceneCount || cfg.SceneCount > production.MaxSceneCount {
		return nil, fmt.Errorf("scene count %d out of range [%d, %d]",
			cfg.SceneCount, production.MinSceneCount, production.MaxSceneCount)
	}

	prompt := assets.RenderScriptPrompt(assets.ScriptPromptData{
		Synopsis:   synopsis,
		SceneCount: cfg.SceneCount,
		Tone:       string(cfg.Tone),
	})

	log.Info().
		Int("scene_count", cfg.SceneCount).
		Int("synopsis_length", len(synopsis)).
		Msg("Planning script")

	raw, err := s.gw.CompleteStructured(ctx, prompt, ScriptSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to plan script: %w", err)
	}

	script, err := parsePlan(raw)
	if err != nil {
		log.Error().Err(err).Str("response", jsonutil.Preview(raw, 500)).Msg("Failed to parse planner response")
		return nil, err
	}

	if len(script.Scenes) != cfg.SceneCount {
		log.Warn().
			Int("requested", cfg.SceneCount).
			Int("returned", len(script.Scenes)).
			Msg("Planner returned a different scene count; keeping the scenes as returned")
	}
	log.Info().
		Str("title", script.Title).
		Int("scenes", len(script.Scenes)).
		Msg("Script planned")
	return script, nil
}

// parsePlan converts a planner response into a ScriptResult.
func parsePlan(raw string) (*production.ScriptResult, error) {
	preview := jsonutil.Preview(raw, 200)
	malformed := func(reason string, err error) error {
		return &MalformedPlanError{Reason: reason, Raw: preview, Err: err}
	}

	resp, err := jsonutil.Decode[planResponse](raw)
	if err != nil {
		return nil, malformed("response is not valid JSON", err)
	}
	if resp.Title == nil {
		return nil, malformed(`missing required field "title"`, nil)
	}
	if resp.Scenes == nil {
		return nil, malformed(`missing required field "scenes"`, nil)
	}
	if len(*resp.Scenes) == 0 {
		return nil, malformed("script has no scenes", nil)
	}

	script := &production.ScriptResult{
		Title:  strings.TrimSpace(*resp.Title),
		Scenes: make([]production.Scene, 0, len(*resp.Scenes)),
	}
	seen := make(map[int]bool, len(*resp.Scenes))
	for i, ps := range *resp.Scenes {
		field := ""
		switch {
		case ps.ID == nil:
			field = "id"
		case ps.Label == nil:
			field = "label"
		case ps.Content == nil:
			field = "content"
		case ps.ImagePrompt == nil:
			field = "imagePrompt"
		}
		if field != "" {
			return nil, malformed(fmt.Sprintf("scene %d is missing required field %q", i+1, field), nil)
		}
		if seen[*ps.ID] {
			return nil, malformed(fmt.Sprintf("duplicate scene id %d", *ps.ID), nil)
		}
		seen[*ps.ID] = true

		script.Scenes = append(script.Scenes, production.Scene{
			ID:          *ps.ID,
			Label:       *ps.Label,
			Content:     *ps.Content,
			ImagePrompt: *ps.ImagePrompt,
		})
	}
	return script, nil
}
