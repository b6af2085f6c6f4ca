// Command cinema-cli drafts, plans, renders and packages short narrated
// productions from the terminal.
package main

import (
	"os"

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

var configFlag string

var rootCmd = &cobra.Command{
	Use:   "cinema-cli",
	Short: "AI-assisted short film production from the terminal",
	Long: `Cinema CLI turns a story idea into a narrated storyboard: it drafts a
synopsis with Gemini, splits it into scenes, renders one still per scene
plus a narration track, and packages everything into a zip archive.

Examples:
  cinema-cli produce --genre 4 --subject "a lighthouse keeper" -o ./out
  cinema-cli produce --synopsis-file story.txt --voice Puck --pick-output
  cinema-cli plan --synopsis-file story.txt --json > script.json
  cinema-cli render --script script.json
  cinema-cli projects list
  cinema-cli inspect The_Lighthouse_Cinema_Package.zip
  cinema-cli catalog`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default $"+config.PathEnv+" or ~/.config/cinema-studio/config.toml)")

	rootCmd.AddCommand(newProduceCmd())
	rootCmd.AddCommand(newPlanCmd())
	rootCmd.AddCommand(newRenderCmd())
	rootCmd.AddCommand(newProjectsCmd())
	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newConfigCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration selected by --config.
func loadConfig() (*config.Config, error) {
	cfg, path, exists, err := config.Load(configFlag)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("path", path).Bool("exists", exists).Msg("Configuration loaded")
	return cfg, nil
}

// startupLog records how this run is configured.
func startupLog(cfg *config.Config, resource string) {
	models := cfg.ChatModels()
	logging.NewStartupLogger("cinema-cli").
		CommitHash(commitHash).
		BuildTime(buildTime).
		Model("text", models.Text).
		Model("image", models.Image).
		Model("tts", models.Speech).
		Resource(cfg.Storage.Backend, resource).
		Config("render", cfg.Concurrency().String()).
		Config("compression", cfg.Export.Compression).
		Log()
}
