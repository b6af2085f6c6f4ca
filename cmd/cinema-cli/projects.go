package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fpang/cinema-studio/internal/cli"
	"github.com/fpang/cinema-studio/internal/store"
	"github.com/spf13/cobra"
)

func newProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List, inspect, export and delete saved projects",
	}
	cmd.AddCommand(newProjectsListCmd())
	cmd.AddCommand(newProjectsShowCmd())
	cmd.AddCommand(newProjectsExportCmd())
	cmd.AddCommand(newProjectsDeleteCmd())
	return cmd
}

// withStore opens the configured backend for the duration of fn.
func withStore(fn func(ctx context.Context, b *cli.Backend) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	b, err := cli.OpenBackend(cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(context.Background(), b)
}

func newProjectsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved projects, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, b *cli.Backend) error {
				list, err := b.Store.ListProjects(ctx)
				if err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Println("No saved projects.")
					return nil
				}
				fmt.Println(summaryTable(list))
				return nil
			})
		},
	}
}

func summaryTable(list []store.Summary) string {
	rows := make([][]string, 0, len(list))
	for _, s := range list {
		title := s.Title
		if title == "" {
			title = "(not rendered)"
		}
		rows = append(rows, []string{
			s.ID,
			preview(title, 40),
			strconv.Itoa(s.SceneCount),
			s.UpdatedAt.Local().Format(time.DateTime),
		})
	}
	return renderTable(
		[]string{"ID", "Title", "Scenes", "Updated"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func newProjectsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a saved project's synopsis and scenes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, b *cli.Backend) error {
				p, err := b.Store.GetProject(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("Project %s (created %s)\n", p.ID, p.CreatedAt.Local().Format(time.DateTime))
				fmt.Printf("Voice: %s\n", p.Configuration.Voice)
				if p.Synopsis != "" {
					fmt.Println()
					fmt.Println(p.Synopsis)
				}
				if p.State == nil {
					fmt.Println()
					fmt.Println("Not rendered yet.")
					return nil
				}
				printScript(p.State.Script)
				if p.State.Narration == nil {
					fmt.Println("No narration.")
				}
				return nil
			})
		},
	}
}

func newProjectsExportCmd() *cobra.Command {
	var out outputFlags
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write the archive of a saved project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return withStore(func(ctx context.Context, b *cli.Backend) error {
				p, err := b.Store.GetProject(ctx, args[0])
				if err != nil {
					return err
				}
				if p.State == nil {
					return fmt.Errorf("project %s has not been rendered", p.ID)
				}
				return deliver(ctx, cfg, outputFlags{path: out.path, pick: out.pick, publish: out.publish}, p)
			})
		},
	}
	cmd.Flags().StringVarP(&out.path, "output", "o", "", "Archive path or directory")
	cmd.Flags().BoolVar(&out.pick, "pick-output", false, "Choose the archive path in a native save dialog")
	cmd.Flags().BoolVar(&out.publish, "publish", false, "Upload the archive to storage.asset_bucket and print a download link")
	return cmd
}

func newProjectsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved project and its assets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, b *cli.Backend) error {
				err := b.Store.DeleteProject(ctx, args[0])
				if errors.Is(err, store.ErrNotFound) {
					fmt.Fprintf(os.Stderr, "No project %s.\n", args[0])
					return err
				}
				if err != nil {
					return err
				}
				fmt.Printf("Deleted %s\n", args[0])
				return nil
			})
		},
	}
}
