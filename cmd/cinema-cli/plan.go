package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fpang/cinema-studio/internal/cli"
	"github.com/spf13/cobra"
)

func newPlanCmd() *cobra.Command {
	var (
		pf           productionFlags
		synopsisFile string
		synopsis     string
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Split a synopsis into scenes without rendering",
		Long: `Plan asks the text model for a scene breakdown of a synopsis. With --json
the script is printed in the format 'render --script' reads, so it can be
edited before rendering.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if synopsisFile != "" {
				text, err := readSynopsisFile(synopsisFile)
				if err != nil {
					return err
				}
				synopsis = text
			}
			if strings.TrimSpace(synopsis) == "" {
				return errors.New("a synopsis is required (--synopsis or --synopsis-file)")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pc, err := pf.configuration(false)
			if err != nil {
				return err
			}

			st := cli.NewStudio(cli.InitGateway(cmd.Context(), cfg), cfg)
			script, err := st.Plan(cmd.Context(), pc, synopsis)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(script)
			}
			printScript(*script)
			if len(script.Scenes) != pc.SceneCount {
				fmt.Printf("Note: asked for %d scenes, the model returned %d.\n", pc.SceneCount, len(script.Scenes))
			}
			return nil
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVarP(&synopsisFile, "synopsis-file", "f", "", "Read the synopsis from a file (- for stdin)")
	cmd.Flags().StringVarP(&synopsis, "synopsis", "s", "", "Synopsis text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the script as JSON")
	return cmd
}
