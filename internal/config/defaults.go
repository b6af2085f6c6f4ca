package config

const (
	defaultConfigPath    = "~/.config/cinema-studio/config.toml"
	defaultRenderPolicy  = "parallel"
	defaultRenderLimit   = 4
	defaultAspectRatio   = "16:9"
	defaultImageSize     = "1K"
	defaultCompression   = "deflate"
	defaultStoreBackend  = BackendSQLite
	defaultSQLitePath    = "~/.local/share/cinema-studio/projects.db"
	defaultServerPort    = 8080
	defaultPresignMinute = 15
)

// Default returns a Config populated with the built-in values.
func Default() Config {
	return Config{
		Render: Render{
			Policy:      defaultRenderPolicy,
			Limit:       defaultRenderLimit,
			AspectRatio: defaultAspectRatio,
			ImageSize:   defaultImageSize,
		},
		Export: Export{
			Compression:    defaultCompression,
			PresignMinutes: defaultPresignMinute,
		},
		Storage: Storage{
			Backend:    defaultStoreBackend,
			SQLitePath: defaultSQLitePath,
		},
		Server: Server{
			Port: defaultServerPort,
		},
	}
}
