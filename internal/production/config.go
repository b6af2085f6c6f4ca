package production

import (
	"errors"
	"fmt"
)

// Scene count bounds accepted by the planner.
const (
	MinSceneCount = 5
	MaxSceneCount = 20
)

// Defaults used when a new project is created without explicit choices.
const (
	DefaultSceneCount       = 5
	DefaultTone             = ToneFriendly
	DefaultVoice            = VoiceKore
	DefaultVoiceInstruction = "천천히 감정을 담아서 읽어줘"
)

// Configuration is fixed for one production run and set before generation.
type Configuration struct {
	Genres           []Genre   `json:"genres"`
	Tone             Tone      `json:"tone"`
	Voice            VoiceName `json:"voice"`
	VoiceInstruction string    `json:"voiceInstruction"`
	SceneCount       int       `json:"sceneCount"`
}

// DefaultConfiguration returns the configuration the wizard starts with.
// Genres are left empty; the user must pick at least one.
func DefaultConfiguration() Configuration {
	return Configuration{
		Tone:             DefaultTone,
		Voice:            DefaultVoice,
		VoiceInstruction: DefaultVoiceInstruction,
		SceneCount:       DefaultSceneCount,
	}
}

// VoiceConfig returns the narration settings carried by the configuration.
func (c Configuration) VoiceConfig() VoiceConfig {
	return VoiceConfig{Voice: c.Voice, Instruction: c.VoiceInstruction}
}

// Validate reports the first reason the configuration cannot start a run.
func (c Configuration) Validate() error {
	if len(c.Genres) == 0 {
		return errors.New("at least one genre must be selected")
	}
	for _, g := range c.Genres {
		if _, ok := ParseGenre(string(g)); !ok {
			return fmt.Errorf("unknown genre %q", g)
		}
	}
	if _, ok := ParseTone(string(c.Tone)); !ok {
		return fmt.Errorf("unknown tone %q", c.Tone)
	}
	if _, ok := ParseVoice(string(c.Voice)); !ok {
		return fmt.Errorf("unknown voice %q", c.Voice)
	}
	if c.SceneCount < MinSceneCount || c.SceneCount > MaxSceneCount {
		return fmt.Errorf("scene count %d out of range [%d, %d]", c.SceneCount, MinSceneCount, MaxSceneCount)
	}
	return nil
}

// VoiceConfig selects the narration voice and the style directive that is
// prepended to the narration text.
type VoiceConfig struct {
	Voice       VoiceName `json:"voice"`
	Instruction string    `json:"instruction"`
}

// SynopsisInput holds the free-text brainstorming fields used to draft a
// synopsis. Only Subject is recommended; all fields may be empty.
type SynopsisInput struct {
	Subject     string `json:"subject"`
	Protagonist string `json:"protagonist"`
	Background  string `json:"background"`
	Incident    string `json:"incident"`
	Emotion     string `json:"emotion"`
}
