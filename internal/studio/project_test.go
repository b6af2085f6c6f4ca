package studio

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/fpang/cinema-studio/internal/assets"
	"github.com/fpang/cinema-studio/internal/production"
)

func renderedProject(t *testing.T, gw *fakeGateway) *Project {
	t.Helper()
	p := NewProject(New(gw, WithConcurrency(Sequential)))
	if _, err := p.Render(context.Background(), testScript(5), testVoice(), nil); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return p
}

func TestRegenerateImageUnknownID(t *testing.T) {
	gw := newFakeGateway()
	state, err := New(gw).Render(context.Background(), testScript(5), testVoice(), nil)
	if err != nil {
		t.Fatal(err)
	}
	before := gw.imageCallCount()

	got := New(gw).RegenerateImage(context.Background(), state, 42)
	if got != state || !reflect.DeepEqual(got, state) {
		t.Error("expected the input state back for an unknown id")
	}
	if gw.imageCallCount() != before {
		t.Error("unknown id must not reach the gateway")
	}
}

func TestRegenerateImageReplacesOneScene(t *testing.T) {
	gw := newFakeGateway()
	s := New(gw)
	state, err := s.Render(context.Background(), testScript(5), testVoice(), nil)
	if err != nil {
		t.Fatal(err)
	}

	edited := "a storm over the cliffs"
	state = production.EditScene(state, 2, production.ScenePatch{ImagePrompt: &edited})
	next := s.RegenerateImage(context.Background(), state, 2)

	sc, _ := next.Scene(2)
	if string(sc.Image.Data) != assets.ScenePrompt(edited) {
		t.Errorf("expected image for the edited prompt, got %q", sc.Image.Data)
	}
	for i := range state.Script.Scenes {
		if state.Script.Scenes[i].ID == 2 {
			continue
		}
		if next.Script.Scenes[i].Image != state.Script.Scenes[i].Image {
			t.Errorf("scene %d image changed", state.Script.Scenes[i].ID)
		}
	}
	if next.Narration != state.Narration {
		t.Error("narration changed")
	}

	gw.failImagePrompts[edited] = true
	failed := s.RegenerateImage(context.Background(), next, 2)
	if sc, _ := failed.Scene(2); sc.Image != nil {
		t.Error("failed regeneration should leave the image nil")
	}
	if sc, _ := next.Scene(2); sc.Image == nil {
		t.Error("regeneration must not modify its input state")
	}
}

func TestResynthesizeUsesCurrentContent(t *testing.T) {
	gw := newFakeGateway()
	s := New(gw)
	state, err := s.Render(context.Background(), testScript(5), testVoice(), nil)
	if err != nil {
		t.Fatal(err)
	}

	content := "바다는 조용했다."
	state = production.EditScene(state, 4, production.ScenePatch{Content: &content})
	voice := production.VoiceConfig{Voice: production.VoiceFenrir, Instruction: "빠르게 읽어줘"}
	next := s.Resynthesize(context.Background(), state, voice)

	want := production.NarrationText("빠르게 읽어줘", state.Script.Scenes)
	if got := gw.speechTexts[len(gw.speechTexts)-1]; got != want {
		t.Errorf("narration text = %q, want %q", got, want)
	}
	if gw.speechVoices[len(gw.speechVoices)-1] != "Fenrir" {
		t.Errorf("expected Fenrir voice, got %q", gw.speechVoices[len(gw.speechVoices)-1])
	}
	if !reflect.DeepEqual(next.Script, state.Script) {
		t.Error("resynthesis must not touch scenes")
	}

	gw.speechErr = errors.New("tts down")
	if failed := s.Resynthesize(context.Background(), next, voice); failed.Narration != nil {
		t.Error("expected nil narration after failure")
	}
}

func TestProjectRequiresProduction(t *testing.T) {
	p := NewProject(New(newFakeGateway()))

	if _, err := p.RegenerateImage(context.Background(), 1); !errors.Is(err, ErrNoProduction) {
		t.Errorf("RegenerateImage: expected ErrNoProduction, got %v", err)
	}
	if _, err := p.EditScene(1, production.ScenePatch{}); !errors.Is(err, ErrNoProduction) {
		t.Errorf("EditScene: expected ErrNoProduction, got %v", err)
	}
	if _, err := p.Resynthesize(context.Background(), testVoice()); !errors.Is(err, ErrNoProduction) {
		t.Errorf("Resynthesize: expected ErrNoProduction, got %v", err)
	}
}

func TestProjectRenderFailureKeepsPriorState(t *testing.T) {
	gw := newFakeGateway()
	p := renderedProject(t, gw)
	prior := p.State()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Render(ctx, testScript(7), testVoice(), nil); err == nil {
		t.Fatal("expected error")
	}
	if p.State() != prior {
		t.Error("failed render replaced the production")
	}
}

// An edit issued while a regeneration for the same scene is in flight must
// survive, and the committed image must come from one of the two prompts.
func TestProjectEditDuringRegenerate(t *testing.T) {
	gw := newFakeGateway()
	p := renderedProject(t, gw)
	old, _ := p.State().Scene(3)
	othersBefore := p.State().Script.Scenes

	started := make(chan string, 1)
	release := make(chan struct{})
	gw.setImageHook(func(prompt string) {
		started <- prompt
		<-release
	})

	type result struct {
		state *production.State
		err   error
	}
	done := make(chan result, 1)
	go func() {
		st, err := p.RegenerateImage(context.Background(), 3)
		done <- result{st, err}
	}()

	issuedWith := <-started
	if issuedWith != assets.ScenePrompt(old.ImagePrompt) {
		t.Fatalf("regenerate issued with %q", issuedWith)
	}
	if !p.Busy(3) {
		t.Error("scene 3 should be busy")
	}

	if _, err := p.RegenerateImage(context.Background(), 3); !errors.Is(err, ErrSceneBusy) {
		t.Errorf("expected ErrSceneBusy for a second regenerate, got %v", err)
	}

	newPrompt := "new"
	if _, err := p.EditScene(3, production.ScenePatch{ImagePrompt: &newPrompt}); err != nil {
		t.Fatalf("EditScene() error = %v", err)
	}
	close(release)

	r := <-done
	if r.err != nil {
		t.Fatalf("RegenerateImage() error = %v", r.err)
	}
	sc, _ := r.state.Scene(3)
	if sc.ImagePrompt != newPrompt {
		t.Errorf("edit was lost: prompt = %q", sc.ImagePrompt)
	}
	img := string(sc.Image.Data)
	if img != assets.ScenePrompt(old.ImagePrompt) && img != assets.ScenePrompt(newPrompt) {
		t.Errorf("image %q matches neither prompt", img)
	}
	if p.State() != r.state {
		t.Error("returned state is not the committed state")
	}
	if p.Busy(3) {
		t.Error("scene 3 should no longer be busy")
	}

	for i, sc := range r.state.Script.Scenes {
		if sc.ID == 3 {
			continue
		}
		if !reflect.DeepEqual(sc, othersBefore[i]) {
			t.Errorf("scene %d changed", sc.ID)
		}
	}
}

func TestProjectRegenerateDifferentScenesConcurrently(t *testing.T) {
	gw := newFakeGateway()
	p := renderedProject(t, gw)

	started := make(chan string, 2)
	release := make(chan struct{})
	gw.setImageHook(func(prompt string) {
		started <- prompt
		<-release
	})

	errs := make(chan error, 2)
	for _, id := range []int{1, 2} {
		go func() {
			_, err := p.RegenerateImage(context.Background(), id)
			errs <- err
		}()
	}
	<-started
	<-started
	close(release)

	for range 2 {
		if err := <-errs; err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}
	for _, id := range []int{1, 2} {
		if sc, _ := p.State().Scene(id); !sc.HasImage() {
			t.Errorf("scene %d lost its image", id)
		}
	}
}

func TestProjectResynthesize(t *testing.T) {
	gw := newFakeGateway()
	p := renderedProject(t, gw)
	before := p.State()

	next, err := p.Resynthesize(context.Background(), production.VoiceConfig{Voice: production.VoicePuck})
	if err != nil {
		t.Fatalf("Resynthesize() error = %v", err)
	}
	if next.Narration == before.Narration {
		t.Error("expected a new narration track")
	}
	if !reflect.DeepEqual(next.Script, before.Script) {
		t.Error("scenes changed")
	}
}
