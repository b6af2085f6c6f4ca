package main

import (
	"fmt"

	"github.com/fpang/cinema-studio/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write the sample configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.CreateSample(path); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration source and settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(configFlag)
			if err != nil {
				return err
			}
			source := path
			if !exists {
				source += " (not found, using defaults)"
			}
			models := cfg.ChatModels()
			fmt.Println(renderTable([]string{"Setting", "Value"}, [][]string{
				{"file", source},
				{"models.text", models.Text},
				{"models.image", models.Image},
				{"models.tts", models.Speech},
				{"models.api_key", redact(cfg.Models.APIKey)},
				{"render", cfg.Concurrency().String()},
				{"render.aspect_ratio", cfg.Render.AspectRatio},
				{"export.compression", cfg.Export.Compression},
				{"storage.backend", cfg.Storage.Backend},
				{"storage.sqlite_path", cfg.Storage.SQLitePath},
				{"storage.dynamo_table", cfg.Storage.DynamoTable},
				{"storage.asset_bucket", cfg.Storage.AssetBucket},
				{"server.port", fmt.Sprint(cfg.Server.Port)},
			}, nil))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "sample",
		Short: "Print the sample configuration",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(config.SampleConfig())
		},
	})
	return cmd
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "(set)"
}
