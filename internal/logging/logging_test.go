package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestStartupLoggerLog(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	prevLevel := zerolog.GlobalLevel()
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	defer func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	}()

	NewStartupLogger("studio-web").
		CommitHash("abc123").
		Model("text", "gemini-3-pro-preview").
		Resource("sqlite", "/tmp/studio.db").
		Resource("bucket", "").
		Feature("zstd", true).
		Config("port", "8080").
		Log()

	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("startup event is not JSON: %v\n%s", err, buf.String())
	}
	process := doc["process"].(map[string]any)
	if process["name"] != "studio-web" || process["commitHash"] != "abc123" {
		t.Errorf("unexpected process block %v", process)
	}
	resources := doc["resources"].(map[string]any)
	if _, ok := resources["bucket"]; ok {
		t.Error("empty resources should be skipped")
	}
	if resources["sqlite"] != "/tmp/studio.db" {
		t.Errorf("unexpected resources %v", resources)
	}
	if doc["features"].(map[string]any)["zstd"] != true {
		t.Error("feature flag missing")
	}
	if doc["message"] != "Startup complete" {
		t.Errorf("unexpected message %v", doc["message"])
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("CINEMA_TEST_VALUE", "")
	if got := EnvOrDefault("CINEMA_TEST_VALUE", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}
	t.Setenv("CINEMA_TEST_VALUE", "set")
	if got := EnvOrDefault("CINEMA_TEST_VALUE", "fallback"); got != "set" {
		t.Errorf("expected set, got %q", got)
	}
}
