package export

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/fpang/cinema-studio/internal/production"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"
)

// normalizeImage returns PNG bytes for the asset and the entry extension.
// PNG input is passed through. Other decodable formats are re-encoded.
// Bytes that cannot be decoded are kept as is under an extension derived
// from the MIME type, never .png.
func normalizeImage(a *production.Asset) ([]byte, string) {
	_, format, err := image.DecodeConfig(bytes.NewReader(a.Data))
	if err == nil && format == "png" {
		return a.Data, ".png"
	}
	if err == nil {
		img, _, err := image.Decode(bytes.NewReader(a.Data))
		if err == nil {
			var buf bytes.Buffer
			if err := png.Encode(&buf, img); err == nil {
				return buf.Bytes(), ".png"
			}
		}
	}

	log.Warn().
		Str("mime_type", a.MIMEType).
		Int("bytes", len(a.Data)).
		Msg("Scene image could not be converted to PNG; exporting original bytes")
	return a.Data, extensionFor(a.MIMEType)
}

func extensionFor(mime string) string {
	switch mime {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".bin"
	}
}
