// Package compositor renders captured photos, a frame overlay and placed
// stickers into the two deliverables of a photobooth session: the raw
// composite (color-adjusted photos only) and the final composite (raw plus
// frame and stickers), both on a fixed-size portrait canvas.
package compositor

import (
	"bytes"
	"image"
	"image/jpeg"
	"math"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/pixelgrove/photobooth/pkg/internal/layout"
	"github.com/pixelgrove/photobooth/pkg/internal/models"
)

// Both snapshots are encoded lossy at high quality, not lossless.
const JPEGQuality = 95

// Sticker base size is a quarter of the canvas width before user scaling.
const stickerBaseRatio = 0.25

// Sticker is a placement resolved to a decoded decal image. Position is in
// percent of the canvas and is the pivot for rotation and scaling.
type Sticker struct {
	Image       image.Image
	XPct        float64
	YPct        float64
	Scale       float64
	RotationDeg float64
}

type Input struct {
	Layout  models.LayoutKind
	FrameID string

	// Photos are drawn in order, one per slot. A short list leaves the
	// remaining slots as background; extras beyond the geometry are ignored.
	Photos []image.Image

	// Frame is stretched to exactly fill the canvas. Nil skips the layer.
	Frame image.Image

	// Stickers render in list order; later entries land on top.
	Stickers []Sticker

	Brightness float64
	Saturation float64
}

type Output struct {
	Raw   image.Image
	Final image.Image
}

// Composite renders both snapshots from one committed base layer: the photo
// layer is drawn once, snapshotted as Raw, then the frame and stickers are
// drawn onto the same canvas to produce Final.
func Composite(in Input) Output {
	geom := layout.Resolve(in.Layout, in.FrameID)
	w, h := geom.Canvas.Width, geom.Canvas.Height

	dc := gg.NewContext(w, h)

	// Opaque white base guards against transparent captures leaving artifacts.
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	n := min(len(in.Photos), geom.MaxPhotos)
	for i := 0; i < n; i++ {
		photo := in.Photos[i]
		if photo == nil {
			continue
		}
		drawCovered(dc, photo, layout.SlotRect(geom, i), in.Layout == models.LayoutStrip, in.Brightness, in.Saturation)
	}

	raw := cloneImage(dc.Image())

	if in.Frame != nil {
		dc.DrawImage(scaleTo(in.Frame, w, h), 0, 0)
	}

	for _, s := range in.Stickers {
		drawSticker(dc, s, w, h)
	}

	return Output{Raw: raw, Final: dc.Image()}
}

// drawCovered scales the photo to cover its slot, centers it, and draws it.
// Strip slots get an explicit clip: the cover scale can overflow a slot and
// must not bleed into its neighbors. The single layout's photo exactly covers
// the canvas, so canvas bounds clip it on their own.
func drawCovered(dc *gg.Context, photo image.Image, slot image.Rectangle, clip bool, brightness, saturation float64) {
	b := photo.Bounds()
	scale, offX, offY := CoverFit(b.Dx(), b.Dy(), slot.Dx(), slot.Dy())

	dw := int(math.Round(float64(b.Dx()) * scale))
	dh := int(math.Round(float64(b.Dy()) * scale))
	x := slot.Min.X + int(math.Round(offX))
	y := slot.Min.Y + int(math.Round(offY))

	adjusted := Adjust(scaleTo(photo, dw, dh), brightness, saturation)

	if clip {
		// gg's Pop restores the matrix but keeps the mask, so the slot clip
		// must be dropped explicitly or it would intersect the next slot's
		// clip into nothing and mask out the frame and sticker layers too.
		dc.DrawRectangle(float64(slot.Min.X), float64(slot.Min.Y), float64(slot.Dx()), float64(slot.Dy()))
		dc.Clip()
		dc.DrawImage(adjusted, x, y)
		dc.ResetClip()
	} else {
		dc.DrawImage(adjusted, x, y)
	}
}

func drawSticker(dc *gg.Context, s Sticker, canvasW, canvasH int) {
	if s.Image == nil {
		return
	}

	scale := s.Scale
	if scale <= 0 {
		scale = 1
	}
	size := float64(canvasW) * stickerBaseRatio * scale
	px := s.XPct / 100 * float64(canvasW)
	py := s.YPct / 100 * float64(canvasH)

	decal := scaleTo(s.Image, int(math.Round(size)), int(math.Round(size)))

	// Each sticker's transform is isolated so rotations never compound.
	dc.Push()
	dc.RotateAbout(gg.Radians(s.RotationDeg), px, py)
	dc.DrawImageAnchored(decal, int(math.Round(px)), int(math.Round(py)), 0.5, 0.5)
	dc.Pop()
}

// CoverFit returns the scale and centering offsets that make an image of
// imgW x imgH cover a box of boxW x boxH. Offsets may be negative; the
// overflow is the caller's to clip.
func CoverFit(imgW, imgH, boxW, boxH int) (scale, offsetX, offsetY float64) {
	scale = math.Max(float64(boxW)/float64(imgW), float64(boxH)/float64(imgH))
	offsetX = (float64(boxW) - float64(imgW)*scale) / 2
	offsetY = (float64(boxH) - float64(imgH)*scale) / 2
	return scale, offsetX, offsetY
}

// RawPart renders one per-shot archival copy for strip sessions: the capture
// color-adjusted, no crop, no frame, no stickers.
func RawPart(photo image.Image, brightness, saturation float64) ([]byte, error) {
	return EncodeJPEG(Adjust(photo, brightness, saturation))
}

func EncodeJPEG(im image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, im, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func scaleTo(src image.Image, w, h int) image.Image {
	b := src.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

func cloneImage(src image.Image) *image.RGBA {
	return toRGBA(src)
}
