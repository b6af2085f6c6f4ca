package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fpang/cinema-studio/internal/production"
	"github.com/spf13/cobra"
)

// productionFlags are the wizard choices shared by produce and plan.
type productionFlags struct {
	genres      []string
	tone        string
	voice       string
	instruction string
	scenes      int
}

func (f *productionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.genres, "genre", "g", nil, "Genre label or catalog number (repeatable, see 'catalog')")
	cmd.Flags().StringVarP(&f.tone, "tone", "t", "", "Tone label or catalog number (default "+string(production.DefaultTone)+")")
	cmd.Flags().StringVarP(&f.voice, "voice", "v", "", "Narration voice name, e.g. Kore or Puck")
	cmd.Flags().StringVar(&f.instruction, "instruction", production.DefaultVoiceInstruction, "Style directive read before the narration")
	cmd.Flags().IntVarP(&f.scenes, "scenes", "n", production.DefaultSceneCount,
		fmt.Sprintf("Number of scenes (%d-%d)", production.MinSceneCount, production.MaxSceneCount))
}

// configuration builds and validates the production configuration.
// requireGenre is false for commands that never draft a synopsis.
func (f *productionFlags) configuration(requireGenre bool) (production.Configuration, error) {
	cfg := production.DefaultConfiguration()
	cfg.SceneCount = f.scenes
	cfg.VoiceInstruction = strings.TrimSpace(f.instruction)

	for _, g := range f.genres {
		genre, err := pick(g, production.Genres, production.ParseGenre)
		if err != nil {
			return cfg, fmt.Errorf("genre: %w", err)
		}
		cfg.Genres = append(cfg.Genres, genre)
	}
	if f.tone != "" {
		tone, err := pick(f.tone, production.Tones, production.ParseTone)
		if err != nil {
			return cfg, fmt.Errorf("tone: %w", err)
		}
		cfg.Tone = tone
	}
	if f.voice != "" {
		voice, err := pick(f.voice, production.Voices, production.ParseVoice)
		if err != nil {
			return cfg, fmt.Errorf("voice: %w", err)
		}
		cfg.Voice = voice
	}

	if !requireGenre && len(cfg.Genres) == 0 {
		cfg.Genres = []production.Genre{production.Genres[0]}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// pick resolves a catalog entry by label or by its 1-based position.
func pick[T ~string](s string, catalog []T, parse func(string) (T, bool)) (T, error) {
	s = strings.TrimSpace(s)
	if v, ok := parse(s); ok {
		return v, nil
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= len(catalog) {
		return catalog[n-1], nil
	}
	var zero T
	return zero, fmt.Errorf("unknown value %q (run 'cinema-cli catalog' for choices)", s)
}

// readSynopsisFile loads an uploaded synopsis; "-" reads stdin.
func readSynopsisFile(path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read synopsis: %w", err)
	}
	synopsis := strings.TrimSpace(string(data))
	if synopsis == "" {
		return "", fmt.Errorf("synopsis file %s is empty", path)
	}
	return synopsis, nil
}
