// Package config loads Cinema Studio settings from a TOML file, a .env file
// and the process environment, in increasing order of precedence.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fpang/cinema-studio/internal/chat"
	"github.com/fpang/cinema-studio/internal/export"
	"github.com/fpang/cinema-studio/internal/studio"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// PathEnv names the environment variable that points at the config file
// when no --config flag is given.
const PathEnv = "CINEMA_CONFIG"

// Storage backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendDynamo = "dynamo"
)

// Models selects the Gemini model per capability. Empty fields fall back to
// the gateway defaults.
type Models struct {
	APIKey string `toml:"api_key"`
	Text   string `toml:"text"`
	Image  string `toml:"image"`
	Speech string `toml:"tts"`
}

// Render controls the asset renderer.
type Render struct {
	// Policy is "sequential" or "parallel".
	Policy string `toml:"policy"`
	// Limit bounds parallel image requests; 0 means unbounded.
	Limit       int    `toml:"limit"`
	AspectRatio string `toml:"aspect_ratio"`
	ImageSize   string `toml:"image_size"`
}

// Export controls archive encoding and publishing.
type Export struct {
	Compression    string `toml:"compression"`
	PresignMinutes int    `toml:"presign_minutes"`
}

// Storage selects where projects are persisted.
type Storage struct {
	Backend     string `toml:"backend"`
	SQLitePath  string `toml:"sqlite_path"`
	DynamoTable string `toml:"dynamo_table"`
	AssetBucket string `toml:"asset_bucket"`
}

// Server configures the local HTTP server.
type Server struct {
	Port int `toml:"port"`
}

// Config encapsulates all configuration values.
type Config struct {
	Models  Models  `toml:"models"`
	Render  Render  `toml:"render"`
	Export  Export  `toml:"export"`
	Storage Storage `toml:"storage"`
	Server  Server  `toml:"server"`
}

// DefaultConfigPath returns the absolute path of the default config file.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load reads .env from the working directory, then locates and parses the
// config file and applies environment overrides. An explicit path wins over
// CINEMA_CONFIG, which wins over the default location. A missing file is not
// an error; the returned bool reports whether one was read.
func Load(path string) (*Config, string, bool, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, "", false, err
	}

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// FromEnv builds a Config from the defaults, the given storage backend and
// environment overrides, without reading .env or a config file.
func FromEnv(backend string) (*Config, error) {
	cfg := Default()
	cfg.Storage.Backend = backend
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv(PathEnv))
	}
	if path == "" {
		path = defaultConfigPath
	}

	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %q is a directory", expanded)
	}
	return expanded, true, nil
}

// ChatModels returns the gateway model selection.
func (c *Config) ChatModels() chat.Models {
	return chat.Models{Text: c.Models.Text, Image: c.Models.Image, Speech: c.Models.Speech}
}

// Concurrency returns the renderer's fan-out policy.
func (c *Config) Concurrency() studio.Concurrency {
	// Validate has already accepted the policy.
	cc, _ := studio.ParseConcurrency(c.Render.Policy, c.Render.Limit)
	return cc
}

// ImageOptions returns the per-scene image request options.
func (c *Config) ImageOptions() chat.ImageOptions {
	return chat.ImageOptions{AspectRatio: c.Render.AspectRatio, SizeHint: c.Render.ImageSize}
}

// ExportOptions returns the archive encoding options.
func (c *Config) ExportOptions() export.Options {
	comp, _ := export.ParseCompression(c.Export.Compression)
	return export.Options{Compression: comp}
}

// PresignTTL is the lifetime of a published archive link.
func (c *Config) PresignTTL() time.Duration {
	return time.Duration(c.Export.PresignMinutes) * time.Minute
}

// Addr is the listen address for the local server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// CreateSample writes the annotated sample configuration to path, creating
// parent directories. An existing file is left untouched.
func CreateSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
