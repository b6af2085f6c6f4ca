package studio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/fpang/cinema-studio/internal/chat"
	"github.com/fpang/cinema-studio/internal/metrics"
	"github.com/fpang/cinema-studio/internal/production"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	restore := metrics.SetOutput(io.Discard)
	code := m.Run()
	restore()
	os.Exit(code)
}

// fakeGateway renders an image whose bytes are the full prompt it was
// given, so tests can tell which prompt produced which image.
type fakeGateway struct {
	mu sync.Mutex

	text          string
	textErr       error
	structured    string
	structuredErr error
	speechErr     error

	// failImagePrompts fails any image request whose prompt ends with one
	// of these scene prompts.
	failImagePrompts map[string]bool
	imageHook        func(prompt string)

	textPrompts  []string
	schemas      []*genai.Schema
	imagePrompts []string
	imageOpts    []chat.ImageOptions
	speechTexts  []string
	speechVoices []string
	active       int
	maxActive    int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{failImagePrompts: map[string]bool{}}
}

func (f *fakeGateway) CompleteText(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.textPrompts = append(f.textPrompts, prompt)
	return f.text, f.textErr
}

func (f *fakeGateway) CompleteStructured(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.textPrompts = append(f.textPrompts, prompt)
	f.schemas = append(f.schemas, schema)
	return f.structured, f.structuredErr
}

func (f *fakeGateway) CompleteImage(ctx context.Context, prompt string, opts chat.ImageOptions) (*production.Asset, error) {
	f.mu.Lock()
	f.imagePrompts = append(f.imagePrompts, prompt)
	f.imageOpts = append(f.imageOpts, opts)
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	hook := f.imageHook
	fail := false
	for p := range f.failImagePrompts {
		if strings.HasSuffix(prompt, p) {
			fail = true
		}
	}
	f.mu.Unlock()

	if hook != nil {
		hook(prompt)
	}

	f.mu.Lock()
	f.active--
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fail {
		return nil, errors.New("image generation failed")
	}
	return &production.Asset{Data: []byte(prompt), MIMEType: "image/png"}, nil
}

func (f *fakeGateway) SynthesizeSpeech(ctx context.Context, text, voiceName string) (*production.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.speechTexts = append(f.speechTexts, text)
	f.speechVoices = append(f.speechVoices, voiceName)
	if f.speechErr != nil {
		return nil, f.speechErr
	}
	return &production.Asset{Data: []byte("RIFF" + text), MIMEType: "audio/wav"}, nil
}

func (f *fakeGateway) setImageHook(hook func(string)) {
	f.mu.Lock()
	f.imageHook = hook
	f.mu.Unlock()
}

func (f *fakeGateway) imageCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.imagePrompts)
}

func (f *fakeGateway) speechCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.speechTexts)
}

// testScript returns a script with ids 1..n.
func testScript(n int) production.ScriptResult {
	script := production.ScriptResult{Title: "The Lighthouse"}
	for i := 1; i <= n; i++ {
		script.Scenes = append(script.Scenes, production.Scene{
			ID:          i,
			Label:       fmt.Sprintf("Scene %d", i),
			Content:     fmt.Sprintf("content %d", i),
			ImagePrompt: fmt.Sprintf("prompt %d", i),
		})
	}
	return script
}

func testVoice() production.VoiceConfig {
	return production.VoiceConfig{Voice: production.VoiceKore, Instruction: production.DefaultVoiceInstruction}
}
