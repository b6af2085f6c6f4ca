package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fpang/cinema-studio/internal/cli"
	"github.com/fpang/cinema-studio/internal/export"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <archive.zip>",
		Short: "List the entries of a production package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			out, err := archiveTable(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			fmt.Println(out)
			return nil
		},
	}
}

func archiveTable(data []byte) (string, error) {
	zr, err := export.OpenArchive(data)
	if err != nil {
		return "", err
	}
	rows := make([][]string, 0, len(zr.File))
	for _, f := range zr.File {
		rows = append(rows, []string{
			f.Name,
			methodName(f.Method),
			cli.FormatSize(int(f.UncompressedSize64)),
			cli.FormatSize(int(f.CompressedSize64)),
		})
	}
	return renderTable(
		[]string{"Entry", "Method", "Size", "Stored"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
	), nil
}

func methodName(m uint16) string {
	switch m {
	case zip.Store:
		return "store"
	case zip.Deflate:
		return "deflate"
	case zstd.ZipMethodWinZip:
		return "zstd"
	default:
		return strconv.Itoa(int(m))
	}
}
