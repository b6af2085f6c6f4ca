package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fpang/cinema-studio/internal/config"
	"github.com/fpang/cinema-studio/internal/production"
	"github.com/fpang/cinema-studio/internal/store"
)

func TestFormatDurationShort(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{42 * time.Second, "0:42"},
		{3*time.Minute + 5*time.Second, "3:05"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}
	for _, tt := range tests {
		if got := FormatDurationShort(tt.in); got != tt.want {
			t.Errorf("FormatDurationShort(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 << 20, "3.0 MB"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.in); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveOutputPath(t *testing.T) {
	dir := t.TempDir()
	const name = "Film_Cinema_Package.zip"

	got, err := ResolveOutputPath(dir, name)
	if err != nil {
		t.Fatalf("directory: %v", err)
	}
	if got != filepath.Join(dir, name) {
		t.Errorf("directory output = %q", got)
	}

	file := filepath.Join(dir, "out.zip")
	if got, err := ResolveOutputPath(file, name); err != nil || got != file {
		t.Errorf("file output = %q, %v", got, err)
	}

	if _, err := ResolveOutputPath(filepath.Join(dir, "missing", "out.zip"), name); err == nil {
		t.Error("expected an error for a missing parent directory")
	}
}

func TestPrompterSynopsisInput(t *testing.T) {
	in := strings.NewReader("a lighthouse\n\n\na storm\n")
	var out bytes.Buffer
	p := NewPrompter(in, &out)

	got := p.SynopsisInput(production.SynopsisInput{Protagonist: "the keeper", Emotion: "hope"})
	want := production.SynopsisInput{
		Subject:     "a lighthouse",
		Protagonist: "the keeper",
		Incident:    "a storm",
		Emotion:     "hope",
	}
	if got != want {
		t.Errorf("SynopsisInput() = %+v, want %+v", got, want)
	}
	if !strings.Contains(out.String(), "Protagonist [the keeper]: ") {
		t.Errorf("prompt output missing default: %q", out.String())
	}
}

func TestOpenBackendLocal(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = config.BackendMemory
	b, err := OpenBackend(&cfg)
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := b.Store.(*store.MemoryStore); !ok || b.Publisher != nil {
		t.Errorf("unexpected memory backend %+v", b)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}

	cfg.Storage.Backend = config.BackendSQLite
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "db", "projects.db")
	b, err = OpenBackend(&cfg)
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	defer b.Close()
	if b.Resource != cfg.Storage.SQLitePath {
		t.Errorf("Resource = %q", b.Resource)
	}
}
