// Command studio-web serves the Cinema Studio HTTP API on localhost.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fpang/cinema-studio/internal/api"
	"github.com/fpang/cinema-studio/internal/cli"
	"github.com/fpang/cinema-studio/internal/config"
	"github.com/fpang/cinema-studio/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Build identity, set with -ldflags at release time.
var (
	commitHash = "dev"
	buildTime  = ""
)

// CLI flags
var (
	configFlag string
	portFlag   int
	storeFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "studio-web",
	Short: "Local HTTP API for Cinema Studio",
	Long: `Studio Web starts a local server exposing the production pipeline as a
JSON API: create projects, draft synopses, render in the background, edit
and regenerate scenes, resynthesize narration and download the package.

Examples:
  studio-web
  studio-web --port 9090
  studio-web --store memory`,
	Args: cobra.NoArgs,
	RunE: runMain,
}

func init() {
	rootCmd.Flags().StringVar(&configFlag, "config", "", "Config file (default $"+config.PathEnv+" or ~/.config/cinema-studio/config.toml)")
	rootCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (default server.port from the config, 8080)")
	rootCmd.Flags().StringVar(&storeFlag, "store", "", "Override storage.backend: memory, sqlite or dynamo")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) error {
	initStart := time.Now()
	logging.Init()

	cfg, path, exists, err := config.Load(configFlag)
	if err != nil {
		return err
	}
	if portFlag != 0 {
		cfg.Server.Port = portFlag
	}
	if storeFlag != "" {
		cfg.Storage.Backend = storeFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	st := cli.NewStudio(cli.InitGateway(ctx, cfg), cfg)

	backend, err := cli.OpenBackend(cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	opts := []api.Option{api.WithExportOptions(cfg.ExportOptions())}
	if backend.Publisher != nil {
		opts = append(opts, api.WithPublisher(backend.Publisher))
	}
	server := api.New(st, backend.Store, opts...)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.WithCORS(server.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Regeneration and narration requests wait on the model.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	models := cfg.ChatModels()
	logging.NewStartupLogger("studio-web").
		CommitHash(commitHash).
		BuildTime(buildTime).
		Model("text", models.Text).
		Model("image", models.Image).
		Model("tts", models.Speech).
		Resource("config", path).
		Resource(cfg.Storage.Backend, backend.Resource).
		Resource("bucket", cfg.Storage.AssetBucket).
		Feature("config_file", exists).
		Feature("publish", backend.Publisher != nil).
		Config("port", strconv.Itoa(cfg.Server.Port)).
		Config("render", cfg.Concurrency().String()).
		Config("compression", cfg.Export.Compression).
		InitDuration(time.Since(initStart)).
		Log()

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("HTTP shutdown incomplete")
		}
		server.Close()
	}()

	log.Info().Int("port", cfg.Server.Port).Msg("Starting web server")
	fmt.Printf("\n  Cinema Studio API: http://localhost:%d/api/health\n\n", cfg.Server.Port)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	<-done
	return nil
}
