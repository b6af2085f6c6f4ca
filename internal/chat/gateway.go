// Package chat is the Gemini gateway: text completion, JSON-schema
// constrained completion, image generation and speech synthesis over
// google.golang.org/genai.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fpang/cinema-studio/internal/metrics"
	"github.com/fpang/cinema-studio/internal/production"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// ErrMissingCredential is returned before any remote call when no API key
// was supplied.
var ErrMissingCredential = errors.New("gemini API key is not configured")

// Errors for responses that carry no usable payload.
var (
	ErrEmptyResponse = errors.New("gemini returned an empty response")
	ErrNoImage       = errors.New("gemini response contains no image")
	ErrNoAudio       = errors.New("gemini response contains no audio")
)

// ImageOptions are the rendering hints passed with an image request.
// Empty fields leave the model default in place.
type ImageOptions struct {
	AspectRatio string
	SizeHint    string
}

// Gateway talks to the Gemini API with a credential captured at
// construction. It is safe for concurrent use.
type Gateway struct {
	client *genai.Client
	models Models
}

// Option customizes a Gateway.
type Option func(*Gateway)

// WithModels overrides the model used per capability. Empty fields keep
// the defaults.
func WithModels(m Models) Option {
	return func(g *Gateway) { g.models = m.withDefaults() }
}

// NewGateway creates a Gemini client bound to apiKey.
func NewGateway(ctx context.Context, apiKey string, opts ...Option) (*Gateway, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingCredential
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	g := &Gateway{client: client, models: DefaultModels()}
	for _, opt := range opts {
		opt(g)
	}

	log.Debug().
		Str("text_model", g.models.Text).
		Str("image_model", g.models.Image).
		Str("tts_model", g.models.Speech).
		Msg("Gemini gateway ready")
	return g, nil
}

// Client exposes the underlying SDK client, e.g. for key validation.
func (g *Gateway) Client() *genai.Client { return g.client }

// Models reports the models in use.
func (g *Gateway) Models() Models { return g.models }

// CompleteText sends a free-form prompt and returns the response text.
func (g *Gateway) CompleteText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.generate(ctx, "text", g.models.Text, prompt, nil)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// CompleteStructured asks for JSON conforming to schema and returns the raw
// response text. Parsing is left to the caller.
func (g *Gateway) CompleteStructured(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	resp, err := g.generate(ctx, "structured", g.models.Text, prompt, cfg)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// CompleteImage generates a single image for prompt and returns the first
// inline image part of the response.
func (g *Gateway) CompleteImage(ctx context.Context, prompt string, opts ImageOptions) (*production.Asset, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage)},
	}
	if opts.AspectRatio != "" || opts.SizeHint != "" {
		cfg.ImageConfig = &genai.ImageConfig{
			AspectRatio: opts.AspectRatio,
			ImageSize:   opts.SizeHint,
		}
	}

	resp, err := g.generate(ctx, "image", g.models.Image, prompt, cfg)
	if err != nil {
		return nil, err
	}
	blob := firstInlineData(resp, "image/")
	if blob == nil {
		return nil, ErrNoImage
	}
	return &production.Asset{Data: blob.Data, MIMEType: blob.MIMEType}, nil
}

// SynthesizeSpeech reads text aloud with the named prebuilt voice and
// returns a WAV asset.
func (g *Gateway) SynthesizeSpeech(ctx context.Context, text, voiceName string) (*production.Asset, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityAudio)},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voiceName},
			},
		},
	}

	resp, err := g.generate(ctx, "speech", g.models.Speech, text, cfg)
	if err != nil {
		return nil, err
	}
	blob := firstInlineData(resp, "audio/")
	if blob == nil || len(blob.Data) == 0 {
		return nil, ErrNoAudio
	}
	return speechAsset(blob), nil
}

// generate performs one GenerateContent call with logging and metrics.
func (g *Gateway) generate(ctx context.Context, capability, model, prompt string, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	log.Debug().
		Str("capability", capability).
		Str("model", model).
		Int("prompt_length", len(prompt)).
		Str("prompt", truncateString(prompt, 120)).
		Msg("Sending request to Gemini")

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	elapsed := time.Since(start)

	rec := metrics.Studio().
		Dimension("Capability", capability).
		Metric("GeminiLatencyMs", float64(elapsed.Milliseconds()), metrics.UnitMilliseconds).
		Property("model", model)

	if err != nil {
		rec.Count("GeminiErrors").Flush()
		log.Error().Err(err).
			Str("capability", capability).
			Str("model", model).
			Dur("duration", elapsed).
			Msg("Gemini request failed")
		return nil, fmt.Errorf("gemini %s request failed: %w", capability, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		rec.Count("GeminiEmptyResponses").Flush()
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return nil, fmt.Errorf("%w: blocked (%s)", ErrEmptyResponse, resp.PromptFeedback.BlockReason)
		}
		return nil, ErrEmptyResponse
	}
	rec.Count("GeminiCalls").Flush()

	log.Debug().
		Str("capability", capability).
		Dur("duration", elapsed).
		Msg("Received response from Gemini")
	return resp, nil
}

// firstInlineData returns the first inline blob whose MIME type starts with
// prefix, searching every candidate in order.
func firstInlineData(resp *genai.GenerateContentResponse, prefix string) *genai.Blob {
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil {
				continue
			}
			if strings.HasPrefix(strings.ToLower(part.InlineData.MIMEType), prefix) {
				return part.InlineData
			}
		}
	}
	return nil
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
