package Capture

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"Vistoria/Models"

	"github.com/disintegration/imaging"
)

// Captures arrive as data URLs straight off the device canvas. Anything wider
// than maxPhotoWidth is downscaled before storage to keep the record slot at
// a sane size.
const maxPhotoWidth = 1920

const jpegQuality = 80

// NormalizePhotoPayload decodes a base64 image payload, downscales it when
// oversized and re-encodes it as a JPEG data URL. Malformed payloads are a
// validation failure, not a server fault.
func NormalizePhotoPayload(payload string) (string, error) {
	raw := payload
	if idx := strings.Index(raw, ","); idx >= 0 && strings.HasPrefix(raw, "data:") {
		raw = raw[idx+1:]
	}
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: empty photo payload", Models.ErrValidationFailed)
	}

	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", fmt.Errorf("%w: photo payload is not valid base64", Models.ErrValidationFailed)
	}

	img, err := imaging.Decode(bytes.NewReader(decoded))
	if err != nil {
		return "", fmt.Errorf("%w: photo payload is not a decodable image", Models.ErrValidationFailed)
	}

	if img.Bounds().Dx() > maxPhotoWidth {
		img = imaging.Resize(img, maxPhotoWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", fmt.Errorf("encode photo: %w", err)
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
