package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// applyEnv overlays environment variables on values read from the file.
func (c *Config) applyEnv() error {
	if v, ok := lookup("GEMINI_API_KEY"); ok {
		c.Models.APIKey = v
	}
	if v, ok := lookup("GEMINI_TEXT_MODEL"); ok {
		c.Models.Text = v
	}
	if v, ok := lookup("GEMINI_IMAGE_MODEL"); ok {
		c.Models.Image = v
	}
	if v, ok := lookup("GEMINI_TTS_MODEL"); ok {
		c.Models.Speech = v
	}
	if v, ok := lookup("CINEMA_RENDER_CONCURRENCY"); ok {
		if err := c.Render.setConcurrency(v); err != nil {
			return err
		}
	}
	if v, ok := lookup("CINEMA_STORE"); ok {
		c.Storage.Backend = v
	}
	if v, ok := lookup("CINEMA_SQLITE_PATH"); ok {
		c.Storage.SQLitePath = v
	}
	if v, ok := lookup("CINEMA_DYNAMO_TABLE"); ok {
		c.Storage.DynamoTable = v
	}
	if v, ok := lookup("CINEMA_ASSET_BUCKET"); ok {
		c.Storage.AssetBucket = v
	}
	return nil
}

// setConcurrency accepts "sequential", "parallel" or a parallel limit
// ("0" for unbounded).
func (r *Render) setConcurrency(value string) error {
	switch strings.ToLower(value) {
	case "sequential", "parallel":
		r.Policy = strings.ToLower(value)
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fmt.Errorf("CINEMA_RENDER_CONCURRENCY: want sequential, parallel or a non-negative limit, got %q", value)
	}
	r.Policy = "parallel"
	r.Limit = n
	return nil
}

func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func (c *Config) normalize() error {
	c.Models.APIKey = strings.TrimSpace(c.Models.APIKey)
	c.Render.Policy = strings.ToLower(strings.TrimSpace(c.Render.Policy))
	if c.Render.Policy == "" {
		c.Render.Policy = defaultRenderPolicy
	}
	if strings.TrimSpace(c.Render.AspectRatio) == "" {
		c.Render.AspectRatio = defaultAspectRatio
	}
	if strings.TrimSpace(c.Render.ImageSize) == "" {
		c.Render.ImageSize = defaultImageSize
	}
	c.Export.Compression = strings.ToLower(strings.TrimSpace(c.Export.Compression))
	if c.Export.Compression == "" {
		c.Export.Compression = defaultCompression
	}
	if c.Export.PresignMinutes == 0 {
		c.Export.PresignMinutes = defaultPresignMinute
	}
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaultStoreBackend
	}
	if strings.TrimSpace(c.Storage.SQLitePath) == "" {
		c.Storage.SQLitePath = defaultSQLitePath
	}
	if c.Storage.Backend == BackendSQLite {
		var err error
		if c.Storage.SQLitePath, err = expandPath(c.Storage.SQLitePath); err != nil {
			return fmt.Errorf("storage.sqlite_path: %w", err)
		}
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultServerPort
	}
	return nil
}
