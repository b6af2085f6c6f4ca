package production

import "testing"

func TestConfigurationValidate(t *testing.T) {
	valid := DefaultConfiguration()
	valid.Genres = []Genre{GenreMystery}

	tests := []struct {
		name    string
		mutate  func(*Configuration)
		wantErr bool
	}{
		{"valid", func(c *Configuration) {}, false},
		{"no genres", func(c *Configuration) { c.Genres = nil }, true},
		{"unknown genre", func(c *Configuration) { c.Genres = []Genre{"western"} }, true},
		{"unknown tone", func(c *Configuration) { c.Tone = "shouting" }, true},
		{"unknown voice", func(c *Configuration) { c.Voice = "Nobody" }, true},
		{"too few scenes", func(c *Configuration) { c.SceneCount = 4 }, true},
		{"too many scenes", func(c *Configuration) { c.SceneCount = 21 }, true},
		{"max scenes", func(c *Configuration) { c.SceneCount = MaxSceneCount }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			c.Genres = append([]Genre(nil), valid.Genres...)
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestVoiceKey(t *testing.T) {
	if got := VoiceCharon.Key(); got != "Charon" {
		t.Errorf("expected Charon, got %q", got)
	}
	if got := VoiceCharon.Description(); got != "깊고 중후한 남성" {
		t.Errorf("unexpected description %q", got)
	}
}

func TestParseVoice(t *testing.T) {
	for _, in := range []string{"Zephyr", "zephyr", string(VoiceZephyr)} {
		v, ok := ParseVoice(in)
		if !ok || v != VoiceZephyr {
			t.Errorf("ParseVoice(%q) = %q, %v", in, v, ok)
		}
	}
	if _, ok := ParseVoice("Aoede"); ok {
		t.Error("expected unknown voice to fail")
	}
}
