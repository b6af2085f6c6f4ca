// Package production holds the in-memory model of one Cinema Studio project:
// the configuration chosen before generation, the planned script, and the
// rendered assets.
//
// State values are treated as immutable. Every mutation derives a new State
// from the old one plus a delta (EditScene, WithSceneImage, WithNarration)
// so a caller can commit the result only after the asynchronous work that
// produced it has succeeded. Unchanged scenes and asset buffers are shared
// between the old and new value and must never be written in place.
package production

import (
	"encoding/base64"
	"strings"
)

// Asset is an owned, encoding-agnostic media buffer.
type Asset struct {
	Data     []byte
	MIMEType string
}

// DataURL renders the asset as a data: URL for display surfaces.
func (a *Asset) DataURL() string {
	if a == nil {
		return ""
	}
	return "data:" + a.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// Scene is one narrative beat of the script.
type Scene struct {
	ID          int    `json:"id"`
	Label       string `json:"label"`
	Content     string `json:"content"`
	ImagePrompt string `json:"imagePrompt"`

	// Image is nil while rendering is pending or after a failed render.
	Image *Asset `json:"-"`
}

// HasImage reports whether the scene has a rendered image.
func (s Scene) HasImage() bool {
	return s.Image != nil && len(s.Image.Data) > 0
}

// ScriptResult is the planner output: a title and scenes in narrative order.
type ScriptResult struct {
	Title  string  `json:"title"`
	Scenes []Scene `json:"scenes"`
}

// State is the full project: the script plus the optional narration track.
type State struct {
	Script    ScriptResult
	Narration *Asset
}

// SceneIndex returns the position of the scene with the given id, or -1.
func (s *State) SceneIndex(id int) int {
	if s == nil {
		return -1
	}
	for i := range s.Script.Scenes {
		if s.Script.Scenes[i].ID == id {
			return i
		}
	}
	return -1
}

// Scene returns a copy of the scene with the given id.
func (s *State) Scene(id int) (Scene, bool) {
	idx := s.SceneIndex(id)
	if idx < 0 {
		return Scene{}, false
	}
	return s.Script.Scenes[idx], true
}

// ScenePatch names the user-editable fields of a scene. Nil fields are left
// untouched.
type ScenePatch struct {
	Content     *string `json:"content,omitempty"`
	ImagePrompt *string `json:"imagePrompt,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ScenePatch) Empty() bool {
	return p.Content == nil && p.ImagePrompt == nil
}

// EditScene applies a local, user-made edit to one scene. It never touches
// the scene image or the narration and never triggers regeneration.
// An unknown id returns the input state unchanged.
func EditScene(s *State, id int, patch ScenePatch) *State {
	return replaceScene(s, id, func(sc *Scene) {
		if patch.Content != nil {
			sc.Content = *patch.Content
		}
		if patch.ImagePrompt != nil {
			sc.ImagePrompt = *patch.ImagePrompt
		}
	})
}

// WithSceneImage replaces the image of one scene. img may be nil to record
// a failed render. An unknown id returns the input state unchanged.
func WithSceneImage(s *State, id int, img *Asset) *State {
	return replaceScene(s, id, func(sc *Scene) {
		sc.Image = img
	})
}

// WithNarration replaces the narration track and leaves every scene as is.
func WithNarration(s *State, narration *Asset) *State {
	if s == nil {
		return nil
	}
	next := *s
	next.Narration = narration
	return &next
}

func replaceScene(s *State, id int, mutate func(*Scene)) *State {
	idx := s.SceneIndex(id)
	if idx < 0 {
		return s
	}
	scenes := make([]Scene, len(s.Script.Scenes))
	copy(scenes, s.Script.Scenes)
	mutate(&scenes[idx])

	next := *s
	next.Script.Scenes = scenes
	return &next
}

// NarrationText builds the single narration input for the whole script:
// the style instruction followed by every scene's content in scene order.
func NarrationText(instruction string, scenes []Scene) string {
	contents := make([]string, 0, len(scenes))
	for _, sc := range scenes {
		contents = append(contents, sc.Content)
	}
	body := strings.Join(contents, " ")

	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return body
	}
	return instruction + ". " + body
}
