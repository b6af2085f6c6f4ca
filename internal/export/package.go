// Package export packages a production into a zip archive: the script as
// script.json, one scene_NN.png per rendered scene and narration.wav when
// narration exists.
//
// Package is a pure function of its input. Entry order, timestamps and
// compressor settings are fixed, so the same state always yields the same
// bytes.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/fpang/cinema-studio/internal/jsonutil"
	"github.com/fpang/cinema-studio/internal/production"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// Entry names.
const (
	ScriptEntry    = "script.json"
	NarrationEntry = "narration.wav"
)

// ErrNothingToExport is returned for a project without a production.
var ErrNothingToExport = errors.New("nothing to export: no production")

// entryTime is stamped on every entry.
var entryTime = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Compression selects the zip method used for every entry.
type Compression string

const (
	// Deflate is readable by every unzip tool.
	Deflate Compression = "deflate"
	// Zstd uses Zstandard (zip method 93). Smaller archives, but older
	// tools cannot open them.
	Zstd Compression = "zstd"
)

// ParseCompression accepts "deflate", "zstd" or empty (deflate).
func ParseCompression(s string) (Compression, error) {
	switch Compression(strings.ToLower(strings.TrimSpace(s))) {
	case "", Deflate:
		return Deflate, nil
	case Zstd:
		return Zstd, nil
	default:
		return "", fmt.Errorf("unknown compression %q (want deflate or zstd)", s)
	}
}

func (c Compression) method() uint16 {
	if c == Zstd {
		return zstd.ZipMethodWinZip
	}
	return zip.Deflate
}

// Options control archive encoding.
type Options struct {
	Compression Compression
}

// scriptFile is the layout of script.json.
type scriptFile struct {
	Title         string      `json:"title"`
	Scenes        []sceneFile `json:"scenes"`
	NarrationFile string      `json:"narrationFile,omitempty"`
}

type sceneFile struct {
	ID          int    `json:"id"`
	Label       string `json:"label"`
	Content     string `json:"content"`
	ImagePrompt string `json:"imagePrompt"`
	ImageFile   string `json:"imageFile,omitempty"`
}

type entry struct {
	name string
	data []byte
}

// SceneEntryName names the image entry of the scene at the given 0-based
// position.
func SceneEntryName(position int, ext string) string {
	return fmt.Sprintf("scene_%02d%s", position+1, ext)
}

// Package builds the archive for state. Scenes without an image are left
// out of the archive but stay in script.json.
func Package(state *production.State, opts Options) ([]byte, error) {
	if state == nil {
		return nil, ErrNothingToExport
	}

	entries, err := buildEntries(state)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})
	zw.RegisterCompressor(zstd.ZipMethodWinZip, zstd.ZipCompressor(
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(12)),
		zstd.WithEncoderConcurrency(1),
	))

	method := opts.Compression.method()
	for _, e := range entries {
		header := &zip.FileHeader{
			Name:     e.name,
			Method:   method,
			Modified: entryTime,
		}
		w, err := zw.CreateHeader(header)
		if err != nil {
			return nil, fmt.Errorf("create zip entry %s: %w", e.name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			return nil, fmt.Errorf("write zip entry %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip writer: %w", err)
	}

	log.Debug().
		Int("entries", len(entries)).
		Int("bytes", buf.Len()).
		Str("compression", string(opts.Compression)).
		Msg("Export archive built")
	return buf.Bytes(), nil
}

// buildEntries returns the archive entries in their fixed order.
func buildEntries(state *production.State) ([]entry, error) {
	doc := scriptFile{
		Title:  state.Script.Title,
		Scenes: make([]sceneFile, len(state.Script.Scenes)),
	}
	var images []entry

	for i, sc := range state.Script.Scenes {
		doc.Scenes[i] = sceneFile{
			ID:          sc.ID,
			Label:       sc.Label,
			Content:     sc.Content,
			ImagePrompt: sc.ImagePrompt,
		}
		if !sc.HasImage() {
			continue
		}
		data, ext := normalizeImage(sc.Image)
		name := SceneEntryName(i, ext)
		doc.Scenes[i].ImageFile = name
		images = append(images, entry{name: name, data: data})
	}

	if state.Narration != nil && len(state.Narration.Data) > 0 {
		doc.NarrationFile = NarrationEntry
	}

	script, err := jsonutil.MarshalPretty(doc)
	if err != nil {
		return nil, fmt.Errorf("encode script: %w", err)
	}

	entries := make([]entry, 0, len(images)+2)
	entries = append(entries, entry{name: ScriptEntry, data: script})
	entries = append(entries, images...)
	if doc.NarrationFile != "" {
		entries = append(entries, entry{name: NarrationEntry, data: state.Narration.Data})
	}
	return entries, nil
}

// ArchiveName returns the download name for a production titled title.
func ArchiveName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r):
			return -1
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		}
		return r
	}, title)
	name = strings.Trim(strings.TrimSpace(name), ".")

	if runes := []rune(name); len(runes) > 80 {
		name = strings.TrimSpace(string(runes[:80]))
	}
	if name == "" {
		name = "Untitled"
	}
	return name + "_Cinema_Package.zip"
}

// OpenArchive opens an archive produced by Package, including zstd ones.
func OpenArchive(data []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	zr.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())
	return zr, nil
}
