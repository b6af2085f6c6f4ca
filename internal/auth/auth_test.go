package auth

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fpang/cinema-studio/internal/metrics"
	"google.golang.org/genai"
)

func TestGetAPIKeyFromEnv(t *testing.T) {
	const testKey = "test-api-key-12345"
	t.Setenv("GEMINI_API_KEY", testKey)

	key, err := GetAPIKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != testKey {
		t.Errorf("expected key %q, got %q", testKey, key)
	}
}

func TestGetAPIKeyNoSource(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("HOME", t.TempDir())

	_, err := GetAPIKey()
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestGetCredentialPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := getCredentialPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := filepath.Join(home, ".cinema-studio", "credentials.gpg")
	if path != expected {
		t.Errorf("expected path %q, got %q", expected, path)
	}
}

func TestGetFromGPGFileNotFound(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if _, err := getFromGPG(); err == nil {
		t.Error("expected error when credentials file does not exist")
	}
}

func TestPassphraseFile(t *testing.T) {
	loose, strict, empty := t.TempDir(), t.TempDir(), t.TempDir()
	if err := os.WriteFile(filepath.Join(loose, passphraseName), []byte("pw"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(filepath.Join(loose, passphraseName), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(strict, passphraseName), []byte("pw"), 0o600); err != nil {
		t.Fatal(err)
	}

	if got := passphraseFile(empty, loose); got != "" {
		t.Errorf("expected no passphrase file, got %q", got)
	}
	want := filepath.Join(strict, passphraseName)
	if got := passphraseFile(empty, loose, strict); got != want {
		t.Errorf("passphraseFile = %q, want %q", got, want)
	}
}

func TestGPGArgs(t *testing.T) {
	got := strings.Join(gpgArgs("/c.gpg", ""), " ")
	if got != "--decrypt --quiet /c.gpg" {
		t.Errorf("interactive args = %q", got)
	}
	got = strings.Join(gpgArgs("/c.gpg", "/p"), " ")
	if got != "--decrypt --quiet --pinentry-mode loopback --passphrase-file /p /c.gpg" {
		t.Errorf("loopback args = %q", got)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ValidationErrorType
	}{
		{"api 403", &genai.APIError{Code: 403, Message: "denied"}, ErrTypeInvalidKey},
		{"api 429", &genai.APIError{Code: 429}, ErrTypeQuotaExceeded},
		{"api 503", &genai.APIError{Code: 503}, ErrTypeNetworkError},
		{"api 418", &genai.APIError{Code: 418, Message: "teapot"}, ErrTypeUnknown},
		{"invalid key text", errors.New("API key not valid. Please pass a valid API key."), ErrTypeInvalidKey},
		{"quota text", errors.New("Resource exhausted"), ErrTypeQuotaExceeded},
		{"dial", errors.New("dial tcp: lookup generativelanguage.googleapis.com: no such host"), ErrTypeNetworkError},
		{"other", errors.New("something odd"), ErrTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err)
			if got.Type != tt.want {
				t.Errorf("classifyError() type = %v, want %v", got.Type, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Error("classified error should wrap the original")
			}
		})
	}
}

type stubGenerator struct {
	resp *genai.GenerateContentResponse
	err  error
}

func (s stubGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return s.resp, s.err
}

func TestValidateAPIKey(t *testing.T) {
	defer metrics.SetOutput(io.Discard)()

	ok := stubGenerator{resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}}
	if err := ValidateAPIKey(context.Background(), ok, "m"); err != nil {
		t.Errorf("expected success, got %v", err)
	}

	var valErr *ValidationError
	empty := stubGenerator{resp: &genai.GenerateContentResponse{}}
	if err := ValidateAPIKey(context.Background(), empty, "m"); !errors.As(err, &valErr) || valErr.Type != ErrTypeUnknown {
		t.Errorf("expected unknown validation error, got %v", err)
	}

	denied := stubGenerator{err: &genai.APIError{Code: 401}}
	if err := ValidateAPIKey(context.Background(), denied, "m"); !errors.As(err, &valErr) || valErr.Type != ErrTypeInvalidKey {
		t.Errorf("expected invalid key error, got %v", err)
	}
}
