package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fpang/cinema-studio/internal/cli"
	"github.com/fpang/cinema-studio/internal/jobs"
	"github.com/fpang/cinema-studio/internal/production"
	"github.com/fpang/cinema-studio/internal/store"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newProduceCmd() *cobra.Command {
	var (
		pf           productionFlags
		out          outputFlags
		input        production.SynopsisInput
		synopsisFile string
		noPrompt     bool
	)

	cmd := &cobra.Command{
		Use:   "produce",
		Short: "Draft, plan, render and package a production",
		Long: `Produce runs the whole pipeline. The synopsis is drafted from the
brainstorming fields, or read from --synopsis-file when you already have
one. On a terminal, missing fields are asked for interactively.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pc, err := pf.configuration(synopsisFile == "")
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var synopsis string
			if synopsisFile != "" {
				if synopsis, err = readSynopsisFile(synopsisFile); err != nil {
					return err
				}
			} else if !noPrompt && input.Subject == "" && isatty.IsTerminal(os.Stdin.Fd()) {
				input = cli.NewPrompter(os.Stdin, os.Stdout).SynopsisInput(input)
			}

			st := cli.NewStudio(cli.InitGateway(ctx, cfg), cfg)
			startupLog(cfg, "")

			fmt.Println()
			fmt.Println("============================================")
			fmt.Println("🎥 Cinema Studio")
			fmt.Println("============================================")
			fmt.Printf("Genres: %v\n", pc.Genres)
			fmt.Printf("Tone: %s\n", pc.Tone)
			fmt.Printf("Voice: %s\n", pc.Voice)
			fmt.Printf("Scenes: %d\n", pc.SceneCount)
			fmt.Println("--------------------------------------------")

			if synopsis == "" {
				fmt.Println("✍️  Drafting synopsis...")
				if synopsis, err = st.DraftSynopsis(ctx, pc, input); err != nil {
					return err
				}
			}
			fmt.Println()
			fmt.Println(synopsis)

			fmt.Println()
			fmt.Println("🧭 Planning scenes...")
			script, err := st.Plan(ctx, pc, synopsis)
			if err != nil {
				return err
			}

			state, err := renderScript(ctx, st, *script, pc.VoiceConfig())
			if err != nil {
				return err
			}

			log.Info().Str("title", state.Script.Title).Msg("Production rendered")
			return deliver(ctx, cfg, out, &store.Project{
				ID:            jobs.NewProjectID(),
				Configuration: pc,
				SynopsisInput: input,
				Synopsis:      synopsis,
				State:         state,
			})
		},
	}

	pf.register(cmd)
	out.register(cmd)
	cmd.Flags().StringVar(&input.Subject, "subject", "", "What the story is about")
	cmd.Flags().StringVar(&input.Protagonist, "protagonist", "", "Who the story follows")
	cmd.Flags().StringVar(&input.Background, "background", "", "Setting and period")
	cmd.Flags().StringVar(&input.Incident, "incident", "", "The event that sets the story moving")
	cmd.Flags().StringVar(&input.Emotion, "emotion", "", "The emotional arc to aim for")
	cmd.Flags().StringVarP(&synopsisFile, "synopsis-file", "f", "", "Use this synopsis instead of drafting one (- for stdin)")
	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "Never ask for missing fields")
	return cmd
}
