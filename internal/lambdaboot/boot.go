// Package lambdaboot provides the Lambda cold-start bootstrap: AWS config,
// the S3 asset bucket, the DynamoDB project store, the SSM-held Gemini key
// and startup logging.
package lambdaboot

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/fpang/cinema-studio/internal/logging"
	"github.com/fpang/cinema-studio/internal/s3util"
	"github.com/fpang/cinema-studio/internal/store"
)

// Environment variables read during bootstrap.
const (
	APIKeyEnv      = "GEMINI_API_KEY"
	APIKeyParamEnv = "SSM_API_KEY_PARAM"

	defaultAPIKeyParam = "/cinema-studio/prod/gemini-api-key"
)

// AWSClients holds the core AWS SDK clients.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// S3Clients holds the asset bucket and its presigner.
type S3Clients struct {
	Bucket    *s3util.Bucket
	Presigner *s3.PresignClient
}

// InitAWS loads the default AWS config and returns it along with common clients.
func InitAWS() AWSClients {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config: cfg,
		SSM:    ssm.NewFromConfig(cfg),
	}
}

// InitS3 creates an S3 client bound to bucket plus a presigner. Fatals if
// bucket is empty.
func InitS3(cfg aws.Config, bucket string) S3Clients {
	if bucket == "" {
		log.Fatal().Msg("Asset bucket is required (CINEMA_ASSET_BUCKET)")
	}
	client := s3.NewFromConfig(cfg)
	return S3Clients{
		Bucket:    s3util.NewBucket(client, bucket),
		Presigner: s3.NewPresignClient(client),
	}
}

// InitDynamo creates a DynamoDB project store whose assets live in blobs.
// Fatals if table is empty.
func InitDynamo(cfg aws.Config, table string, blobs store.BlobStore) *store.DynamoStore {
	if table == "" {
		log.Fatal().Msg("DynamoDB table is required (CINEMA_DYNAMO_TABLE)")
	}
	return store.NewDynamoStore(dynamodb.NewFromConfig(cfg), table, blobs)
}

// ParameterGetter is the subset of *ssm.Client used to read the key.
type ParameterGetter interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// LoadGeminiKey fetches the Gemini API key from SSM Parameter Store into
// GEMINI_API_KEY unless it is already set. The parameter name comes from
// SSM_API_KEY_PARAM.
func LoadGeminiKey(ctx context.Context, client ParameterGetter) error {
	if os.Getenv(APIKeyEnv) != "" {
		return nil
	}
	paramName := os.Getenv(APIKeyParamEnv)
	if paramName == "" {
		paramName = defaultAPIKeyParam
	}

	ssmStart := time.Now()
	result, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &paramName,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("read %s from SSM: %w", paramName, err)
	}
	if result.Parameter == nil || aws.ToString(result.Parameter.Value) == "" {
		return fmt.Errorf("SSM parameter %s is empty", paramName)
	}
	if err := os.Setenv(APIKeyEnv, *result.Parameter.Value); err != nil {
		return fmt.Errorf("set %s: %w", APIKeyEnv, err)
	}
	log.Debug().Str("param", paramName).Dur("elapsed", time.Since(ssmStart)).Msg("Gemini API key loaded from SSM")
	return nil
}

// StartupLog is a convenience wrapper for the startup logger.
func StartupLog(name string, initStart time.Time) *logging.StartupLogger {
	return logging.NewStartupLogger(name).InitDuration(time.Since(initStart))
}
