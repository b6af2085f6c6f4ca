package main

import (
	"fmt"
	"strconv"

	"github.com/fpang/cinema-studio/internal/production"
	"github.com/spf13/cobra"
)

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the genres, tones and voices",
		Long: `Catalog prints every choice the production flags accept. Flags take
either the label or the number shown here.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Genres")
			fmt.Println(numbered(production.Genres, func(g production.Genre) []string {
				return []string{string(g)}
			}, "Genre"))

			fmt.Println("Tones")
			fmt.Println(numbered(production.Tones, func(t production.Tone) []string {
				marker := ""
				if t == production.DefaultTone {
					marker = "default"
				}
				return []string{string(t), marker}
			}, "Tone", ""))

			fmt.Println("Voices")
			fmt.Println(numbered(production.Voices, func(v production.VoiceName) []string {
				return []string{v.Key(), v.Description()}
			}, "Voice", "Description"))
		},
	}
}

func numbered[T any](items []T, cells func(T) []string, headers ...string) string {
	rows := make([][]string, 0, len(items))
	for i, item := range items {
		rows = append(rows, append([]string{strconv.Itoa(i + 1)}, cells(item)...))
	}
	return renderTable(append([]string{"#"}, headers...), rows, []columnAlignment{alignRight})
}
