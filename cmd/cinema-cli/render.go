package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fpang/cinema-studio/internal/cli"
	"github.com/fpang/cinema-studio/internal/jobs"
	"github.com/fpang/cinema-studio/internal/production"
	"github.com/fpang/cinema-studio/internal/store"
	"github.com/spf13/cobra"
)

func newRenderCmd() *cobra.Command {
	var (
		pf         productionFlags
		out        outputFlags
		scriptFile string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render and package a script produced by 'plan --json'",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := readScript(scriptFile)
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pc, err := pf.configuration(false)
			if err != nil {
				return err
			}
			pc.SceneCount = min(max(len(script.Scenes), production.MinSceneCount), production.MaxSceneCount)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st := cli.NewStudio(cli.InitGateway(ctx, cfg), cfg)
			startupLog(cfg, "")

			state, err := renderScript(ctx, st, script, pc.VoiceConfig())
			if err != nil {
				return err
			}
			return deliver(ctx, cfg, out, &store.Project{
				ID:            jobs.NewProjectID(),
				Configuration: pc,
				State:         state,
			})
		},
	}

	pf.register(cmd)
	out.register(cmd)
	cmd.Flags().StringVar(&scriptFile, "script", "", "Script JSON file")
	_ = cmd.MarkFlagRequired("script")
	return cmd
}

// readScript loads a script and checks that its scenes are usable.
func readScript(path string) (production.ScriptResult, error) {
	var script production.ScriptResult
	data, err := os.ReadFile(path)
	if err != nil {
		return script, fmt.Errorf("read script: %w", err)
	}
	if err := json.Unmarshal(data, &script); err != nil {
		return script, fmt.Errorf("parse script %s: %w", path, err)
	}
	if len(script.Scenes) == 0 {
		return script, fmt.Errorf("script %s has no scenes", path)
	}
	seen := make(map[int]bool, len(script.Scenes))
	for i, sc := range script.Scenes {
		if seen[sc.ID] {
			return script, fmt.Errorf("script %s: duplicate scene id %d", path, sc.ID)
		}
		seen[sc.ID] = true
		if sc.ImagePrompt == "" {
			return script, fmt.Errorf("script %s: scene %d has no imagePrompt", path, i+1)
		}
	}
	return script, nil
}
