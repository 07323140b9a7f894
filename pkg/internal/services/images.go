package services

import (
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	"github.com/nfnt/resize"
)

// DecodeDataURL unpacks a base64 data URL ("data:image/jpeg;base64,...")
// into its bytes and content type. The capture client ships composited
// canvases in this form.
func DecodeDataURL(dataURL string) ([]byte, string, error) {
	header, payload, found := strings.Cut(dataURL, ",")
	if !found || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, "", fmt.Errorf("malformed data url")
	}

	contentType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	if len(contentType) == 0 {
		contentType = "application/octet-stream"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("unable to decode data url payload: %v", err)
	}
	return data, contentType, nil
}

// DownscaleCapture bounds a capture's longest edge to maxDim, preserving
// aspect ratio. Archival originals do not need full sensor resolution.
func DownscaleCapture(im image.Image, maxDim int) image.Image {
	b := im.Bounds()
	if b.Dx() <= maxDim && b.Dy() <= maxDim {
		return im
	}
	if b.Dx() >= b.Dy() {
		return resize.Resize(uint(maxDim), 0, im, resize.Lanczos3)
	}
	return resize.Resize(0, uint(maxDim), im, resize.Lanczos3)
}
