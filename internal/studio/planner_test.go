package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fpang/cinema-studio/internal/production"
)

func planJSON(n int) string {
	var scenes []string
	for i := 1; i <= n; i++ {
		scenes = append(scenes, fmt.Sprintf(
			`{"id":%d,"label":"장면 %d","content":"내용 %d","imagePrompt":"a harbor at dawn %d"}`, i, i, i, i))
	}
	return `{"title":"등대지기","scenes":[` + strings.Join(scenes, ",") + `]}`
}

func planConfig(sceneCount int) production.Configuration {
	cfg := production.DefaultConfiguration()
	cfg.Genres = []production.Genre{production.GenreMystery}
	cfg.SceneCount = sceneCount
	return cfg
}

func TestPlan(t *testing.T) {
	for _, n := range []int{production.MinSceneCount, 12, production.MaxSceneCount} {
		t.Run(fmt.Sprintf("%d scenes", n), func(t *testing.T) {
			gw := newFakeGateway()
			gw.structured = planJSON(n)

			script, err := New(gw).Plan(context.Background(), planConfig(n), "한 남자가 등대를 지킨다")
			if err != nil {
				t.Fatalf("Plan() error = %v", err)
			}
			if script.Title != "등대지기" {
				t.Errorf("unexpected title %q", script.Title)
			}
			if len(script.Scenes) != n {
				t.Fatalf("expected %d scenes, got %d", n, len(script.Scenes))
			}
			for i, sc := range script.Scenes {
				if sc.ID != i+1 || sc.Image != nil {
					t.Errorf("scene %d = %+v", i, sc)
				}
			}

			if len(gw.schemas) != 1 || gw.schemas[0] == nil {
				t.Fatal("expected one structured request with a schema")
			}
			if !strings.Contains(gw.textPrompts[0], fmt.Sprintf("정확히 %d개", n)) {
				t.Errorf("prompt does not request %d scenes:\n%s", n, gw.textPrompts[0])
			}
		})
	}
}

func TestPlanKeepsUpstreamSceneCount(t *testing.T) {
	gw := newFakeGateway()
	gw.structured = planJSON(3)

	script, err := New(gw).Plan(context.Background(), planConfig(5), "synopsis")
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(script.Scenes) != 3 {
		t.Errorf("expected the 3 scenes the model returned, got %d", len(script.Scenes))
	}
}

func TestPlanAcceptsFencedJSON(t *testing.T) {
	gw := newFakeGateway()
	gw.structured = "```json\n" + planJSON(5) + "\n```"

	if _, err := New(gw).Plan(context.Background(), planConfig(5), "synopsis"); err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
}

func TestPlanMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "죄송하지만 요청을 처리할 수 없습니다."},
		{"truncated", `{"title":"x","scenes":[{"id":1`},
		{"missing title", `{"scenes":[{"id":1,"label":"a","content":"b","imagePrompt":"c"}]}`},
		{"missing scenes", `{"title":"x"}`},
		{"null scenes", `{"title":"x","scenes":null}`},
		{"empty scenes", `{"title":"x","scenes":[]}`},
		{"scene without id", `{"title":"x","scenes":[{"label":"a","content":"b","imagePrompt":"c"}]}`},
		{"scene without prompt", `{"title":"x","scenes":[{"id":1,"label":"a","content":"b"}]}`},
		{"duplicate ids", `{"title":"x","scenes":[{"id":1,"label":"a","content":"b","imagePrompt":"c"},{"id":1,"label":"d","content":"e","imagePrompt":"f"}]}`},
		{"string id", `{"title":"x","scenes":[{"id":"one","label":"a","content":"b","imagePrompt":"c"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newFakeGateway()
			gw.structured = tt.raw

			script, err := New(gw).Plan(context.Background(), planConfig(5), "synopsis")
			var malformed *MalformedPlanError
			if !errors.As(err, &malformed) {
				t.Fatalf("expected MalformedPlanError, got %v", err)
			}
			if script != nil {
				t.Error("expected no script on malformed response")
			}
			if malformed.Raw == "" {
				t.Error("expected raw preview to be kept")
			}
		})
	}
}

func TestPlanGatewayErrorPropagates(t *testing.T) {
	gw := newFakeGateway()
	gw.structuredErr = errors.New("quota exceeded")

	_, err := New(gw).Plan(context.Background(), planConfig(5), "synopsis")
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected gateway error, got %v", err)
	}
	var malformed *MalformedPlanError
	if errors.As(err, &malformed) {
		t.Error("gateway failure must not be reported as a malformed plan")
	}
}

func TestPlanRejectsBadInput(t *testing.T) {
	gw := newFakeGateway()
	s := New(gw)

	if _, err := s.Plan(context.Background(), planConfig(5), "   "); !errors.Is(err, ErrEmptySynopsis) {
		t.Errorf("expected ErrEmptySynopsis, got %v", err)
	}
	if _, err := s.Plan(context.Background(), planConfig(21), "synopsis"); err == nil {
		t.Error("expected out of range scene count to fail")
	}
	if len(gw.textPrompts) != 0 {
		t.Errorf("expected no remote calls, got %d", len(gw.textPrompts))
	}
}

func TestDraftSynopsis(t *testing.T) {
	gw := newFakeGateway()
	gw.text = "  어느 겨울, 등대지기는 편지를 받는다.  \n"

	cfg := planConfig(5)
	cfg.Genres = []production.Genre{production.GenreMystery, production.GenreFamily}
	got, err := New(gw).DraftSynopsis(context.Background(), cfg, production.SynopsisInput{
		Subject:     "사라진 편지",
		Protagonist: "등대지기",
	})
	if err != nil {
		t.Fatalf("DraftSynopsis() error = %v", err)
	}
	if got != "어느 겨울, 등대지기는 편지를 받는다." {
		t.Errorf("unexpected synopsis %q", got)
	}

	prompt := gw.textPrompts[0]
	for _, want := range []string{string(production.GenreMystery), string(production.GenreFamily), "사라진 편지", "등대지기", string(cfg.Tone)} {
		if !strings.Contains(prompt, want) {
			t.Errorf("synopsis prompt missing %q", want)
		}
	}
}

func TestDraftSynopsisError(t *testing.T) {
	gw := newFakeGateway()
	gw.textErr = errors.New("boom")

	if _, err := New(gw).DraftSynopsis(context.Background(), planConfig(5), production.SynopsisInput{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestScriptSchema(t *testing.T) {
	schema := ScriptSchema()
	if strings.Join(schema.Required, ",") != "title,scenes" {
		t.Errorf("unexpected required fields %v", schema.Required)
	}
	item := schema.Properties["scenes"].Items
	for _, field := range []string{"id", "label", "content", "imagePrompt"} {
		if _, ok := item.Properties[field]; !ok {
			t.Errorf("scene schema missing %q", field)
		}
	}
}
