package compositor

import (
	"image"
	"image/draw"
)

// Adjust applies the photo-layer color filter: a brightness multiplier
// followed by a saturation multiplier, matching the CSS filter functions
// brightness() and saturate() (feColorMatrix saturate coefficients
// 0.213/0.715/0.072). Frames and stickers are never passed through here.
func Adjust(src image.Image, brightness, saturation float64) *image.RGBA {
	out := toRGBA(src)
	if brightness == 1 && saturation == 1 {
		return out
	}

	sr := 0.213 + 0.787*saturation
	sg := 0.715 * (1 - saturation)
	sb := 0.072 * (1 - saturation)
	gr := 0.213 * (1 - saturation)
	gg := 0.715 + 0.285*saturation
	gb := 0.072 * (1 - saturation)
	br := 0.213 * (1 - saturation)
	bg := 0.715 * (1 - saturation)
	bb := 0.072 + 0.928*saturation

	pix := out.Pix
	for i := 0; i < len(pix); i += 4 {
		r := clampChannel(float64(pix[i]) * brightness)
		g := clampChannel(float64(pix[i+1]) * brightness)
		b := clampChannel(float64(pix[i+2]) * brightness)

		pix[i] = uint8(clampChannel(sr*r + sg*g + sb*b))
		pix[i+1] = uint8(clampChannel(gr*r + gg*g + gb*b))
		pix[i+2] = uint8(clampChannel(br*r + bg*g + bb*b))
	}

	return out
}

func clampChannel(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func toRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), src, b.Min, draw.Src)
	return out
}
