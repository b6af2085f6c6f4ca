package cli

import (
	"context"

	"github.com/fpang/cinema-studio/internal/auth"
	"github.com/fpang/cinema-studio/internal/chat"
	"github.com/fpang/cinema-studio/internal/config"
	"github.com/fpang/cinema-studio/internal/studio"
	"github.com/rs/zerolog/log"
)

// InitGateway creates and validates a Gemini gateway using the key from the
// config file, GEMINI_API_KEY or the GPG credentials file, in that order.
// Exits fatally on failure.
func InitGateway(ctx context.Context, cfg *config.Config) *chat.Gateway {
	apiKey := cfg.Models.APIKey
	if apiKey == "" {
		key, err := auth.GetAPIKey()
		if err != nil {
			HandleValidationError(&auth.ValidationError{Type: auth.ErrTypeNoKey, Message: "no API key", Err: err})
		}
		apiKey = key
	}

	gw, err := chat.NewGateway(ctx, apiKey, chat.WithModels(cfg.ChatModels()))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Gemini gateway")
	}
	log.Info().Msg("connection successful - Gemini gateway initialized")

	if err := auth.ValidateAPIKey(ctx, gw.Client().Models, gw.Models().Text); err != nil {
		HandleValidationError(err)
	}
	log.Info().Msg("API key validation complete - ready for operations")
	return gw
}

// NewStudio builds the pipeline with the render settings from cfg.
func NewStudio(gw studio.Gateway, cfg *config.Config) *studio.Studio {
	return studio.New(gw,
		studio.WithConcurrency(cfg.Concurrency()),
		studio.WithImageOptions(cfg.ImageOptions()),
	)
}
