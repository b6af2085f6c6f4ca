package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fpang/cinema-studio/internal/production"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range headers {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			WidthMax:    60,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// preview shortens s to limit runes on one line.
func preview(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

// sceneTable lists the scenes of a script and whether each has an image.
func sceneTable(script production.ScriptResult) string {
	rows := make([][]string, 0, len(script.Scenes))
	for _, sc := range script.Scenes {
		image := "-"
		if sc.HasImage() {
			image = sc.Image.MIMEType
		}
		rows = append(rows, []string{
			strconv.Itoa(sc.ID),
			sc.Label,
			preview(sc.Content, 48),
			image,
		})
	}
	return renderTable(
		[]string{"ID", "Label", "Narration", "Image"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	)
}

func printScript(script production.ScriptResult) {
	fmt.Println()
	fmt.Printf("🎬 %s (%d scenes)\n", script.Title, len(script.Scenes))
	fmt.Println(sceneTable(script))
}
