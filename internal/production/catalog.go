package production

import "strings"

// Genre is a story genre tag shown in the first wizard step.
type Genre string

// Genre catalogue. Values are the labels sent to the model verbatim.
const (
	GenreMakjang    Genre = "충격적인 막장 사연"
	GenreHuman      Genre = "감동적인 휴먼 드라마"
	GenreTears      Genre = "눈물나는 인생 고백"
	GenreMystery    Genre = "미스터리 추리극"
	GenreThriller   Genre = "손에 땀을 쥐는 스릴러"
	GenreRevenge    Genre = "속 시원한 사이다 복수극"
	GenreYadam      Genre = "조선야담 (민담, 괴담)"
	GenreSF         Genre = "SF / 판타지 세계관"
	GenreHistory    Genre = "역사 / 시대극"
	GenreFamily     Genre = "가슴 따뜻한 가족 이야기"
	GenreLesson     Genre = "사연으로 배우는 인생교훈"
	GenreChallenge  Genre = "인생도전 (시니어 성장담)"
	GenreSurprise   Genre = "썰프라이즈 On TV"
	GenreAdaptation Genre = "드라마·영화 각색"
	GenreYongmun    Genre = "용문"
	GenreTrueCrime  Genre = "실화 바탕 사건사고"
	GenreRomance    Genre = "한국형 멜로 / 운명 로맨스"
	GenreGukbong    Genre = "국뽕 드라마"
)

// Genres lists every genre in display order.
var Genres = []Genre{
	GenreMakjang, GenreHuman, GenreTears, GenreMystery, GenreThriller,
	GenreRevenge, GenreYadam, GenreSF, GenreHistory, GenreFamily,
	GenreLesson, GenreChallenge, GenreSurprise, GenreAdaptation,
	GenreYongmun, GenreTrueCrime, GenreRomance, GenreGukbong,
}

// Tone is the narrative register of the script.
type Tone string

const (
	ToneFormal   Tone = "설명체 (-습니다)"
	ToneFriendly Tone = "친근체 (-요)"
	ToneNovel    Tone = "소설체 (-다)"
)

// Tones lists every tone in display order.
var Tones = []Tone{ToneFormal, ToneFriendly, ToneNovel}

// VoiceName is a prebuilt narration voice label. The first word of the
// label is the identifier the speech model expects.
type VoiceName string

const (
	VoiceKore   VoiceName = "Kore (표준 차분한 남성)"
	VoicePuck   VoiceName = "Puck (밝고 경쾌한 남성)"
	VoiceCharon VoiceName = "Charon (깊고 중후한 남성)"
	VoiceFenrir VoiceName = "Fenrir (강렬하고 날카로운 남성)"
	VoiceZephyr VoiceName = "Zephyr (부드러운 남성)"
)

// Voices lists every voice in display order.
var Voices = []VoiceName{VoiceKore, VoicePuck, VoiceCharon, VoiceFenrir, VoiceZephyr}

// Key returns the speech model voice identifier, e.g. "Kore".
func (v VoiceName) Key() string {
	key, _, _ := strings.Cut(strings.TrimSpace(string(v)), " ")
	return key
}

// Description returns the parenthesised description part of the label.
func (v VoiceName) Description() string {
	_, rest, ok := strings.Cut(string(v), " ")
	if !ok {
		return ""
	}
	return strings.Trim(strings.TrimSpace(rest), "()")
}

// ParseGenre matches a genre by its exact label.
func ParseGenre(s string) (Genre, bool) {
	for _, g := range Genres {
		if string(g) == s {
			return g, true
		}
	}
	return "", false
}

// ParseTone matches a tone by its exact label.
func ParseTone(s string) (Tone, bool) {
	for _, t := range Tones {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// ParseVoice matches a voice by full label or by key (case-insensitive),
// so both "Kore" and "Kore (표준 차분한 남성)" resolve to VoiceKore.
func ParseVoice(s string) (VoiceName, bool) {
	s = strings.TrimSpace(s)
	for _, v := range Voices {
		if string(v) == s || strings.EqualFold(v.Key(), s) {
			return v, true
		}
	}
	return "", false
}
