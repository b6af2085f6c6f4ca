package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fpang/cinema-studio/internal/config"
	"github.com/fpang/cinema-studio/internal/export"
	"github.com/fpang/cinema-studio/internal/studio"
)

// isolate clears every variable Load reads and points HOME at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	for _, key := range []string{
		config.PathEnv, "GEMINI_API_KEY", "GEMINI_TEXT_MODEL", "GEMINI_IMAGE_MODEL", "GEMINI_TTS_MODEL",
		"CINEMA_RENDER_CONCURRENCY", "CINEMA_STORE", "CINEMA_SQLITE_PATH", "CINEMA_DYNAMO_TABLE", "CINEMA_ASSET_BUCKET",
	} {
		t.Setenv(key, "")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWhenFileAbsent(t *testing.T) {
	home := isolate(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(home, ".config", "cinema-studio", "config.toml"); resolved != want {
		t.Fatalf("resolved = %q, want %q", resolved, want)
	}
	if cfg.Storage.Backend != config.BackendSQLite {
		t.Errorf("backend = %q", cfg.Storage.Backend)
	}
	if want := filepath.Join(home, ".local", "share", "cinema-studio", "projects.db"); cfg.Storage.SQLitePath != want {
		t.Errorf("sqlite path = %q, want %q", cfg.Storage.SQLitePath, want)
	}
	if cfg.Concurrency() != studio.Parallel(4) {
		t.Errorf("concurrency = %v", cfg.Concurrency())
	}
	if cfg.ExportOptions().Compression != export.Deflate {
		t.Errorf("compression = %q", cfg.ExportOptions().Compression)
	}
	if cfg.PresignTTL() != 15*time.Minute {
		t.Errorf("presign ttl = %v", cfg.PresignTTL())
	}
	if cfg.Addr() != ":8080" {
		t.Errorf("addr = %q", cfg.Addr())
	}
	if m := cfg.ChatModels(); m.Text != "" || m.Image != "" || m.Speech != "" {
		t.Errorf("expected empty model overrides, got %+v", m)
	}
}

func TestLoadFromFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
[models]
text = "gemini-3-flash-preview"

[render]
policy = "sequential"
aspect_ratio = "9:16"

[export]
compression = "zstd"

[storage]
backend = "memory"

[server]
port = 9090
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.ChatModels().Text != "gemini-3-flash-preview" {
		t.Errorf("text model = %q", cfg.ChatModels().Text)
	}
	if cfg.Concurrency() != studio.Sequential {
		t.Errorf("concurrency = %v", cfg.Concurrency())
	}
	if opts := cfg.ImageOptions(); opts.AspectRatio != "9:16" || opts.SizeHint != "1K" {
		t.Errorf("image options = %+v", opts)
	}
	if cfg.ExportOptions().Compression != export.Zstd {
		t.Errorf("compression = %q", cfg.ExportOptions().Compression)
	}
	if cfg.Storage.Backend != config.BackendMemory || cfg.Server.Port != 9090 {
		t.Errorf("unexpected storage/server %+v %+v", cfg.Storage, cfg.Server)
	}
}

func TestLoadUsesPathEnv(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "[server]\nport = 7000\n")
	t.Setenv(config.PathEnv, path)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path || cfg.Server.Port != 7000 {
		t.Fatalf("resolved = %q exists = %v port = %d", resolved, exists, cfg.Server.Port)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
[models]
api_key = "from-file"
image = "file-image"

[storage]
backend = "sqlite"
`)
	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("GEMINI_IMAGE_MODEL", "env-image")
	t.Setenv("CINEMA_RENDER_CONCURRENCY", "0")
	t.Setenv("CINEMA_STORE", "dynamo")
	t.Setenv("CINEMA_DYNAMO_TABLE", "projects")
	t.Setenv("CINEMA_ASSET_BUCKET", "assets")

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Models.APIKey != "from-env" || cfg.ChatModels().Image != "env-image" {
		t.Errorf("models = %+v", cfg.Models)
	}
	if cfg.Concurrency() != studio.Parallel(0) {
		t.Errorf("concurrency = %v", cfg.Concurrency())
	}
	if cfg.Storage.Backend != config.BackendDynamo || cfg.Storage.DynamoTable != "projects" || cfg.Storage.AssetBucket != "assets" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
		want string
	}{
		{name: "policy", body: "[render]\npolicy = \"burst\"\n", want: "render.policy"},
		{name: "limit", body: "[render]\nlimit = -2\n", want: "render.limit"},
		{name: "compression", body: "[export]\ncompression = \"lzma\"\n", want: "export.compression"},
		{name: "backend", body: "[storage]\nbackend = \"postgres\"\n", want: "storage.backend"},
		{name: "dynamo without table", body: "[storage]\nbackend = \"dynamo\"\n", want: "dynamo_table"},
		{name: "port", body: "[server]\nport = 70000\n", want: "server.port"},
		{name: "unknown key", body: "[render]\nthreads = 3\n", want: "parse config"},
		{name: "concurrency env", env: map[string]string{"CINEMA_RENDER_CONCURRENCY": "lots"}, want: "CINEMA_RENDER_CONCURRENCY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, _, _, err := config.Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestSampleConfigLoads(t *testing.T) {
	isolate(t)
	cfg, _, exists, err := config.Load(writeConfig(t, config.SampleConfig()))
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	def := config.Default()
	if cfg.Render != def.Render || cfg.Export != def.Export || cfg.Server != def.Server {
		t.Errorf("sample diverges from defaults: %+v", cfg)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if string(data) != config.SampleConfig() {
		t.Error("written sample differs from embedded sample")
	}
	if err := config.CreateSample(path); err == nil {
		t.Error("expected error when sample already exists")
	}
}

func TestFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("HOME", "")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("CINEMA_DYNAMO_TABLE", "projects")
	t.Setenv("CINEMA_ASSET_BUCKET", "assets")
	t.Setenv("CINEMA_RENDER_CONCURRENCY", "sequential")

	cfg, err := config.FromEnv(config.BackendDynamo)
	if err != nil {
		t.Fatalf("FromEnv returned error: %v", err)
	}
	if cfg.Storage.Backend != config.BackendDynamo || cfg.Storage.DynamoTable != "projects" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Models.APIKey != "key" || cfg.Concurrency() != studio.Sequential {
		t.Errorf("models %+v concurrency %v", cfg.Models, cfg.Concurrency())
	}

	t.Setenv("CINEMA_ASSET_BUCKET", "")
	if _, err := config.FromEnv(config.BackendDynamo); err == nil {
		t.Error("expected an error without an asset bucket")
	}
}
