package compositor

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdjustIdentity(t *testing.T) {
	src := solidImage(8, 8, color.RGBA{R: 120, G: 90, B: 33, A: 255})
	out := Adjust(src, 1, 1)
	assert.Equal(t, color.RGBA{R: 120, G: 90, B: 33, A: 255}, pixelAt(out, 4, 4))
}

func TestAdjustBrightnessMultiplies(t *testing.T) {
	src := solidImage(8, 8, color.RGBA{R: 100, G: 100, B: 100, A: 255})
	out := Adjust(src, 1.5, 1)
	// Gray input is untouched by the saturation matrix.
	assert.Equal(t, color.RGBA{R: 150, G: 150, B: 150, A: 255}, pixelAt(out, 4, 4))
}

func TestAdjustBrightnessClamps(t *testing.T) {
	src := solidImage(8, 8, color.RGBA{R: 240, G: 240, B: 240, A: 255})
	out := Adjust(src, 2, 1)
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, pixelAt(out, 4, 4))
}

func TestAdjustDesaturateToLuma(t *testing.T) {
	src := solidImage(8, 8, color.RGBA{R: 255, A: 255})
	out := Adjust(src, 1, 0)
	got := pixelAt(out, 4, 4)
	// saturate(0) collapses pure red to its luma weight (0.213 * 255).
	assert.Equal(t, got.R, got.G)
	assert.Equal(t, got.G, got.B)
	assert.InDelta(t, 54, int(got.R), 1)
}

func TestAdjustLeavesAlpha(t *testing.T) {
	src := solidImage(8, 8, color.RGBA{R: 10, G: 10, B: 10, A: 255})
	out := Adjust(src, 1.2, 1.3)
	assert.Equal(t, uint8(255), pixelAt(out, 4, 4).A)
}
