// Package main is the Lambda entry point for the Cinema Studio API.
//
// It serves the same handler as studio-web behind API Gateway (HTTP API,
// payload v2). Projects live in DynamoDB with their assets in S3, and
// render requests run to completion before the response since the
// execution environment is frozen between invocations.
//
// Environment:
//
//	CINEMA_DYNAMO_TABLE  project table (required)
//	CINEMA_ASSET_BUCKET  asset and export bucket (required)
//	SSM_API_KEY_PARAM    SSM parameter holding the Gemini key
//	GEMINI_API_KEY       overrides the SSM parameter when set
package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"

	"github.com/fpang/cinema-studio/internal/api"
	"github.com/fpang/cinema-studio/internal/chat"
	"github.com/fpang/cinema-studio/internal/config"
	"github.com/fpang/cinema-studio/internal/lambdaboot"
	"github.com/fpang/cinema-studio/internal/logging"
	"github.com/fpang/cinema-studio/internal/s3util"
	"github.com/fpang/cinema-studio/internal/studio"
	"github.com/rs/zerolog/log"
)

// Build identity, set with -ldflags at release time.
var commitHash = "dev"

var adapter *httpadapter.HandlerAdapterV2

func init() {
	initStart := time.Now()
	logging.Init()

	cfg, err := config.FromEnv(config.BackendDynamo)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.Storage.Backend != config.BackendDynamo {
		log.Fatal().Str("backend", cfg.Storage.Backend).Msg("Lambda requires the dynamo backend")
	}

	aws := lambdaboot.InitAWS()
	if err := lambdaboot.LoadGeminiKey(context.Background(), aws.SSM); err != nil {
		log.Fatal().Err(err).Msg("Failed to load Gemini API key")
	}
	if cfg.Models.APIKey == "" {
		cfg.Models.APIKey = os.Getenv(lambdaboot.APIKeyEnv)
	}

	gw, err := chat.NewGateway(context.Background(), cfg.Models.APIKey, chat.WithModels(cfg.ChatModels()))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini gateway")
	}
	st := studio.New(gw,
		studio.WithConcurrency(cfg.Concurrency()),
		studio.WithImageOptions(cfg.ImageOptions()),
	)

	s3c := lambdaboot.InitS3(aws.Config, cfg.Storage.AssetBucket)
	projects := lambdaboot.InitDynamo(aws.Config, cfg.Storage.DynamoTable, s3c.Bucket)

	server := api.New(st, projects,
		api.WithSynchronousJobs(),
		api.WithExportOptions(cfg.ExportOptions()),
		api.WithPublisher(&s3util.ArchivePublisher{
			Bucket:    s3c.Bucket,
			Presigner: s3c.Presigner,
			TTL:       cfg.PresignTTL(),
		}),
	)
	adapter = httpadapter.NewV2(server.Handler())

	models := gw.Models()
	lambdaboot.StartupLog("studio-lambda", initStart).
		CommitHash(commitHash).
		Model("text", models.Text).
		Model("image", models.Image).
		Model("tts", models.Speech).
		Resource("table", cfg.Storage.DynamoTable).
		Resource("bucket", cfg.Storage.AssetBucket).
		Resource("ssm_api_key", logging.EnvOrDefault(lambdaboot.APIKeyParamEnv, "default")).
		Config("render", cfg.Concurrency().String()).
		Config("presign_minutes", strconv.Itoa(cfg.Export.PresignMinutes)).
		Log()
}

func main() {
	lambda.Start(adapter.ProxyWithContext)
}
