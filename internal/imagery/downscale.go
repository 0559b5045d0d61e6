package imagery

import (
	"bytes"
	"encoding/base64"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/tripweaver/tripweaver/internal/llm"
)

const jpegQuality = 85

// Downscale shrinks a base64 data URL image so that neither side exceeds
// maxDim, re-encoding it as JPEG. Remote URLs, undecodable payloads and
// images already within bounds are returned unchanged.
func Downscale(url string, maxDim int) string {
	if maxDim <= 0 {
		return url
	}
	payload, ok := dataPayload(url)
	if !ok {
		return url
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return url
	}
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return url
	}
	b := img.Bounds()
	if b.Dx() <= maxDim && b.Dy() <= maxDim {
		return url
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Fit(img, maxDim, maxDim, imaging.Lanczos), imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return url
	}
	return llm.DataURL("image/jpeg", base64.StdEncoding.EncodeToString(buf.Bytes()))
}

func dataPayload(url string) (string, bool) {
	if !strings.HasPrefix(url, "data:") {
		return "", false
	}
	header, payload, ok := strings.Cut(url, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return "", false
	}
	return payload, true
}
