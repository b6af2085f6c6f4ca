package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fpang/cinema-studio/internal/metrics"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// ValidationErrorType categorizes validation failures.
type ValidationErrorType int

const (
	ErrTypeNoKey ValidationErrorType = iota
	ErrTypeInvalidKey
	ErrTypeNetworkError
	ErrTypeQuotaExceeded
	ErrTypeUnknown
)

// String returns the metric dimension value for the type.
func (t ValidationErrorType) String() string {
	switch t {
	case ErrTypeNoKey:
		return "no_key"
	case ErrTypeInvalidKey:
		return "invalid"
	case ErrTypeNetworkError:
		return "network_error"
	case ErrTypeQuotaExceeded:
		return "quota"
	default:
		return "unknown"
	}
}

// ValidationError represents a specific type of API key validation failure.
type ValidationError struct {
	Type    ValidationErrorType
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Generator is the part of the Gemini SDK used to validate a key.
// *genai.Models satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ValidateAPIKey makes a minimal request with the given model and returns a
// *ValidationError describing why the key cannot be used, or nil.
func ValidateAPIKey(ctx context.Context, gen Generator, model string) error {
	log.Debug().Str("model", model).Msg("Validating API key with Gemini API")

	start := time.Now()
	resp, err := gen.GenerateContent(ctx, model, genai.Text("hi"), nil)

	var valErr *ValidationError
	switch {
	case err != nil:
		valErr = classifyError(err)
	case resp == nil || len(resp.Candidates) == 0:
		valErr = &ValidationError{Type: ErrTypeUnknown, Message: "API returned empty response"}
	}

	result := "success"
	if valErr != nil {
		result = valErr.Type.String()
	}
	metrics.Studio().
		Dimension("Result", result).
		Since("ApiKeyValidationMs", start).
		Count("ApiKeyValidationResult").
		Flush()

	if valErr != nil {
		log.Error().Err(valErr).Str("result", result).Msg("API key validation failed")
		return valErr
	}
	log.Info().Dur("duration", time.Since(start)).Msg("API key validated successfully")
	return nil
}

// messagePatterns classifies errors that are not *genai.APIError by
// substrings of their message. The first match wins.
var messagePatterns = []struct {
	typ      ValidationErrorType
	message  string
	patterns []string
}{
	{ErrTypeInvalidKey, "API key is invalid or has been revoked",
		[]string{"api key not valid", "invalid api key", "api_key_invalid", "permission denied"}},
	{ErrTypeQuotaExceeded, "API quota exceeded or rate limited",
		[]string{"quota", "resource exhausted", "rate limit"}},
	{ErrTypeNetworkError, "Network error - check your internet connection",
		[]string{"connection", "network", "timeout", "dial", "no such host", "unreachable"}},
}

// classifyError analyzes an error and returns a ValidationError with the
// appropriate type.
func classifyError(err error) *ValidationError {
	if err == nil {
		return nil
	}

	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return classifyAPIError(apiErr)
	}

	lower := strings.ToLower(err.Error())
	for _, mp := range messagePatterns {
		for _, p := range mp.patterns {
			if strings.Contains(lower, p) {
				return &ValidationError{Type: mp.typ, Message: mp.message, Err: err}
			}
		}
	}
	return &ValidationError{Type: ErrTypeUnknown, Message: "Failed to validate API key", Err: err}
}

// classifyAPIError categorizes a Google API error by HTTP status.
func classifyAPIError(err *genai.APIError) *ValidationError {
	switch err.Code {
	case 400:
		return &ValidationError{Type: ErrTypeInvalidKey, Message: "Bad request - API key may be malformed", Err: err}
	case 401, 403:
		return &ValidationError{Type: ErrTypeInvalidKey, Message: "API key is invalid, expired, or lacks permissions", Err: err}
	case 429:
		return &ValidationError{Type: ErrTypeQuotaExceeded, Message: "API rate limit exceeded - try again later", Err: err}
	case 500, 502, 503, 504:
		return &ValidationError{Type: ErrTypeNetworkError, Message: "Gemini API server error - try again later", Err: err}
	default:
		return &ValidationError{Type: ErrTypeUnknown, Message: err.Message, Err: err}
	}
}
