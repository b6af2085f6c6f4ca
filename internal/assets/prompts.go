// Package assets provides the prompt templates embedded in the binary.
//
// Templates are stored as text files under prompts/ and parsed once at
// startup, so a malformed template fails fast instead of at call time.
package assets

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"
)

// ImageStylePrefix is prepended to every scene image prompt so all scenes
// share the same cinematic look.
//
//go:embed prompts/image-style.txt
var ImageStylePrefix string

//go:embed prompts/synopsis.txt
var synopsisTemplate string

//go:embed prompts/script.txt
var scriptTemplate string

var funcs = template.FuncMap{
	"join": func(items []string, sep string) string { return strings.Join(items, sep) },
}

var (
	synopsisTmpl = template.Must(template.New("synopsis").Funcs(funcs).Parse(synopsisTemplate))
	scriptTmpl   = template.Must(template.New("script").Funcs(funcs).Parse(scriptTemplate))
)

// SynopsisPromptData is the data injected into the synopsis draft prompt.
type SynopsisPromptData struct {
	Genres      []string
	Tone        string
	Subject     string
	Protagonist string
	Background  string
	Incident    string
	Emotion     string
}

// ScriptPromptData is the data injected into the script planning prompt.
type ScriptPromptData struct {
	Synopsis   string
	SceneCount int
	Tone       string
}

// RenderSynopsisPrompt renders the synopsis draft prompt.
func RenderSynopsisPrompt(data SynopsisPromptData) string {
	return render(synopsisTmpl, data)
}

// RenderScriptPrompt renders the prompt asking for a scene-by-scene script.
func RenderScriptPrompt(data ScriptPromptData) string {
	return render(scriptTmpl, data)
}

// ScenePrompt wraps a scene's visual description in the fixed style prefix.
func ScenePrompt(imagePrompt string) string {
	return ImageStylePrefix + strings.TrimSpace(imagePrompt)
}

// render executes a pre-parsed template. Our templates only reference fields
// that always exist, so execution errors are not expected; whatever was
// rendered is returned either way.
func render(tmpl *template.Template, data any) string {
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}
