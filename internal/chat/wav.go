package chat

import (
	"bytes"
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/fpang/cinema-studio/internal/production"
	"google.golang.org/genai"
)

// The TTS models return headerless signed 16-bit little-endian PCM,
// advertised as e.g. "audio/L16;codec=pcm;rate=24000".
const (
	defaultSampleRate    = 24000
	defaultChannels      = 1
	defaultBitsPerSample = 16
)

// WAVMIMEType is the MIME type of synthesized narration assets.
const WAVMIMEType = "audio/wav"

// speechAsset converts a TTS blob into a WAV asset. Blobs that already
// carry a container format are passed through untouched.
func speechAsset(blob *genai.Blob) *production.Asset {
	mime := strings.ToLower(blob.MIMEType)
	if strings.Contains(mime, "wav") {
		return &production.Asset{Data: blob.Data, MIMEType: WAVMIMEType}
	}
	if !strings.HasPrefix(mime, "audio/l16") && !strings.Contains(mime, "pcm") {
		return &production.Asset{Data: blob.Data, MIMEType: blob.MIMEType}
	}
	rate, channels := pcmFormat(blob.MIMEType)
	return &production.Asset{
		Data:     WrapPCM(blob.Data, rate, channels, defaultBitsPerSample),
		MIMEType: WAVMIMEType,
	}
}

// pcmFormat reads the rate and channels parameters of an L16 MIME type,
// falling back to 24 kHz mono.
func pcmFormat(mime string) (rate, channels int) {
	rate, channels = defaultSampleRate, defaultChannels
	params := strings.Split(mime, ";")
	for _, p := range params[1:] {
		key, value, ok := strings.Cut(strings.TrimSpace(p), "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n <= 0 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "rate":
			rate = n
		case "channels":
			channels = n
		}
	}
	return rate, channels
}

// WrapPCM prepends a 44-byte RIFF/WAVE header describing little-endian
// linear PCM to the samples.
func WrapPCM(pcm []byte, sampleRate, channels, bitsPerSample int) []byte {
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))
	le := binary.LittleEndian

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, le, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(&buf, le, uint32(16))
	_ = binary.Write(&buf, le, uint16(1)) // PCM
	_ = binary.Write(&buf, le, uint16(channels))
	_ = binary.Write(&buf, le, uint32(sampleRate))
	_ = binary.Write(&buf, le, uint32(byteRate))
	_ = binary.Write(&buf, le, uint16(blockAlign))
	_ = binary.Write(&buf, le, uint16(bitsPerSample))

	buf.WriteString("data")
	_ = binary.Write(&buf, le, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}
