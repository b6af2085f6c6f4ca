package config

import (
	"fmt"

	"github.com/fpang/cinema-studio/internal/export"
	"github.com/fpang/cinema-studio/internal/studio"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if _, err := studio.ParseConcurrency(c.Render.Policy, c.Render.Limit); err != nil {
		return fmt.Errorf("render.policy: %w", err)
	}
	if c.Render.Limit < 0 {
		return fmt.Errorf("render.limit must be >= 0, got %d", c.Render.Limit)
	}
	if _, err := export.ParseCompression(c.Export.Compression); err != nil {
		return fmt.Errorf("export.compression: %w", err)
	}
	if c.Export.PresignMinutes < 1 || c.Export.PresignMinutes > 7*24*60 {
		return fmt.Errorf("export.presign_minutes must be between 1 and 10080, got %d", c.Export.PresignMinutes)
	}
	switch c.Storage.Backend {
	case BackendMemory, BackendSQLite:
	case BackendDynamo:
		if c.Storage.DynamoTable == "" {
			return fmt.Errorf("storage.dynamo_table is required for the dynamo backend")
		}
		if c.Storage.AssetBucket == "" {
			return fmt.Errorf("storage.asset_bucket is required for the dynamo backend")
		}
	default:
		return fmt.Errorf("storage.backend: unknown backend %q (want memory, sqlite or dynamo)", c.Storage.Backend)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}
