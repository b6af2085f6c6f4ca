package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fpang/cinema-studio/internal/cli"
	"github.com/fpang/cinema-studio/internal/config"
	"github.com/fpang/cinema-studio/internal/export"
	"github.com/fpang/cinema-studio/internal/production"
	"github.com/fpang/cinema-studio/internal/s3util"
	"github.com/fpang/cinema-studio/internal/store"
	"github.com/fpang/cinema-studio/internal/studio"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// outputFlags control where a finished production goes.
type outputFlags struct {
	path    string
	pick    bool
	save    bool
	publish bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.path, "output", "o", "", "Archive path or directory (default: ./<title>_Cinema_Package.zip)")
	cmd.Flags().BoolVar(&o.pick, "pick-output", false, "Choose the archive path in a native save dialog")
	cmd.Flags().BoolVar(&o.save, "save", false, "Save the project to the configured store")
	cmd.Flags().BoolVar(&o.publish, "publish", false, "Upload the archive to storage.asset_bucket and print a download link")
}

// renderScript renders every scene and the narration, printing progress.
func renderScript(ctx context.Context, st *studio.Studio, script production.ScriptResult, voice production.VoiceConfig) (*production.State, error) {
	fmt.Println()
	fmt.Printf("Rendering %d scenes with %s, narration by %s\n", len(script.Scenes), st.Concurrency(), voice.Voice.Key())

	start := time.Now()
	state, err := studio.NewProject(st).Render(ctx, script, voice, func(ev studio.Progress) {
		switch ev.Phase {
		case studio.PhaseImages:
			fmt.Printf("   🖼  images %d/%d\n", ev.Done, ev.Total)
		case studio.PhaseNarration:
			fmt.Printf("   🎙  %s\n", ev.Message)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	var rendered int
	for _, sc := range state.Script.Scenes {
		if sc.HasImage() {
			rendered++
		}
	}
	fmt.Printf("Rendered %d/%d images in %s", rendered, len(state.Script.Scenes), cli.FormatDurationShort(time.Since(start)))
	if state.Narration != nil {
		fmt.Printf(", narration %s", cli.FormatSize(len(state.Narration.Data)))
	} else {
		fmt.Print(", narration failed")
	}
	fmt.Println()
	printScript(state.Script)
	return state, nil
}

// deliver packages state, writes the archive and optionally saves and
// publishes the project.
func deliver(ctx context.Context, cfg *config.Config, out outputFlags, p *store.Project) error {
	data, err := export.Package(p.State, cfg.ExportOptions())
	if err != nil {
		return err
	}
	name := export.ArchiveName(p.State.Script.Title)

	path, err := outputPath(out, name)
	if err != nil {
		return err
	}
	if path != "" {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write archive: %w", err)
		}
		fmt.Printf("📦 %s (%s)\n", path, cli.FormatSize(len(data)))
	}

	if !out.save && !out.publish {
		return nil
	}
	backend, err := cli.OpenBackend(cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	if out.save {
		if err := backend.Store.PutProject(ctx, p); err != nil {
			return fmt.Errorf("save project: %w", err)
		}
		fmt.Printf("💾 saved as project %s (%s)\n", p.ID, backend.Resource)
	}
	if out.publish {
		if backend.Publisher == nil {
			return errors.New("--publish needs storage.asset_bucket in the config")
		}
		pub, err := backend.Publisher.Publish(ctx, s3util.ArchiveKey(p.ID, name), data)
		if err != nil {
			return err
		}
		fmt.Printf("🔗 %s (expires %s)\n", pub.URL, pub.ExpiresAt.Local().Format(time.Kitchen))
	}
	return nil
}

// outputPath resolves the archive destination. An empty path means the
// user cancelled the save dialog.
func outputPath(out outputFlags, name string) (string, error) {
	if !out.pick {
		return cli.ResolveOutputPath(out.path, name)
	}
	path, ok, err := cli.PickOutputPath(name)
	if err != nil {
		return "", err
	}
	if !ok {
		log.Warn().Msg("Save dialog cancelled; archive not written")
		return "", nil
	}
	return path, nil
}
