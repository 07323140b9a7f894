package services

import (
	"encoding/base64"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataURL(t *testing.T) {
	payload := []byte{0xff, 0xd8, 0xff}
	url := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(payload)

	data, contentType, err := DecodeDataURL(url)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, "image/jpeg", contentType)
}

func TestDecodeDataURLRejectsMalformed(t *testing.T) {
	for _, bad := range []string{
		"",
		"image/jpeg;base64,abcd",
		"data:image/jpeg,abcd",
		"data:image/jpeg;base64",
		"data:image/jpeg;base64,@@not-base64@@",
	} {
		_, _, err := DecodeDataURL(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestDownscaleCapture(t *testing.T) {
	wide := image.NewRGBA(image.Rect(0, 0, 1920, 1080))
	out := DownscaleCapture(wide, 1280)
	assert.Equal(t, 1280, out.Bounds().Dx())
	assert.Equal(t, 720, out.Bounds().Dy())

	tall := image.NewRGBA(image.Rect(0, 0, 1080, 1920))
	out = DownscaleCapture(tall, 1280)
	assert.Equal(t, 1280, out.Bounds().Dy())

	small := image.NewRGBA(image.Rect(0, 0, 640, 480))
	assert.Equal(t, small, DownscaleCapture(small, 1280))
}
