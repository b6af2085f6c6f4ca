package chat

import "os"

// Gemini Model IDs
//
// | Model Name                  | API Model ID                  | Use Case                      |
// |-----------------------------|-------------------------------|-------------------------------|
// | Gemini 3 Pro (Preview)      | gemini-3-pro-preview          | Script planning, synopsis     |
// | Gemini 3 Flash (Preview)    | gemini-3-flash-preview        | Cheaper text fallback         |
// | Gemini 3 Pro Image          | gemini-3-pro-image-preview    | Scene stills                  |
// | Gemini 2.5 Flash Image      | gemini-2.5-flash-image        | Faster, lower-cost stills     |
// | Gemini 2.5 Flash TTS        | gemini-2.5-flash-preview-tts  | Narration                     |
const (
	ModelGemini3ProPreview   = "gemini-3-pro-preview"
	ModelGemini3FlashPreview = "gemini-3-flash-preview"
	ModelGemini3ProImage     = "gemini-3-pro-image-preview"
	ModelGemini25FlashImage  = "gemini-2.5-flash-image"
	ModelGemini25FlashTTS    = "gemini-2.5-flash-preview-tts"
)

// Defaults for each capability.
const (
	DefaultTextModel   = ModelGemini3ProPreview
	DefaultImageModel  = ModelGemini3ProImage
	DefaultSpeechModel = ModelGemini25FlashTTS
)

// Models names the model used for each gateway capability. Structured
// completion shares the text model.
type Models struct {
	Text   string `toml:"text"`
	Image  string `toml:"image"`
	Speech string `toml:"tts"`
}

// DefaultModels returns the built-in model choice.
func DefaultModels() Models {
	return Models{
		Text:   DefaultTextModel,
		Image:  DefaultImageModel,
		Speech: DefaultSpeechModel,
	}
}

// WithEnv overlays GEMINI_TEXT_MODEL, GEMINI_IMAGE_MODEL and GEMINI_TTS_MODEL
// on m. Empty fields are filled from the defaults.
func (m Models) WithEnv() Models {
	if env := os.Getenv("GEMINI_TEXT_MODEL"); env != "" {
		m.Text = env
	}
	if env := os.Getenv("GEMINI_IMAGE_MODEL"); env != "" {
		m.Image = env
	}
	if env := os.Getenv("GEMINI_TTS_MODEL"); env != "" {
		m.Speech = env
	}
	return m.withDefaults()
}

func (m Models) withDefaults() Models {
	d := DefaultModels()
	if m.Text == "" {
		m.Text = d.Text
	}
	if m.Image == "" {
		m.Image = d.Image
	}
	if m.Speech == "" {
		m.Speech = d.Speech
	}
	return m
}
