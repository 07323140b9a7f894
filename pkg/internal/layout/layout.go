// Package layout resolves frame layout geometry: how many photos a session
// captures and where each photo slot sits on the preview and on the final
// canvas. Frame artworks reserve different amounts of canvas for decoration,
// so the geometry is keyed by (layout kind, frame id).
package layout

import (
	"image"

	"github.com/pixelgrove/photobooth/pkg/internal/models"
)

// Final canvas sizes are fixed per layout kind.
const (
	SingleCanvasWidth = 1200
	StripCanvasWidth  = 600
	CanvasHeight      = 1800
)

// PreviewPadding is expressed in percent of the preview box, matching how the
// client lays out its live preview.
type PreviewPadding struct {
	TopPct     float64 `json:"pad_top_pct"`
	BottomPct  float64 `json:"pad_bottom_pct"`
	SidePct    float64 `json:"pad_side_pct"`
	GapPct     float64 `json:"gap_pct"`
	OffsetXPct float64 `json:"offset_x_pct"`
	OffsetYPct float64 `json:"offset_y_pct"`
}

// CanvasBox is expressed in absolute pixels of the final canvas.
type CanvasBox struct {
	Width   int `json:"width"`
	Height  int `json:"height"`
	Top     int `json:"pad_top"`
	Bottom  int `json:"pad_bottom"`
	Side    int `json:"pad_side"`
	Gap     int `json:"gap"`
	OffsetX int `json:"offset_x"`
	OffsetY int `json:"offset_y"`
}

type Geometry struct {
	MaxPhotos int            `json:"max_photos"`
	Preview   PreviewPadding `json:"preview"`
	Canvas    CanvasBox      `json:"canvas"`
}

var singleGeometry = Geometry{
	MaxPhotos: 1,
	Canvas:    CanvasBox{Width: SingleCanvasWidth, Height: CanvasHeight},
}

func stripGeometry(maxPhotos int, preview PreviewPadding, canvas CanvasBox) Geometry {
	canvas.Width = StripCanvasWidth
	canvas.Height = CanvasHeight
	return Geometry{MaxPhotos: maxPhotos, Preview: preview, Canvas: canvas}
}

var stripDefault = stripGeometry(3, PreviewPadding{}, CanvasBox{})

// Preview paddings follow the shipped frame artworks; only the two-slot frame
// (s8) reserves canvas pixels on the final render.
var stripByFrame = map[string]Geometry{
	"s1": stripGeometry(3, PreviewPadding{BottomPct: 6}, CanvasBox{}),
	"s2": stripGeometry(3, PreviewPadding{BottomPct: 6}, CanvasBox{}),
	"s3": stripGeometry(3, PreviewPadding{TopPct: 20, BottomPct: -12}, CanvasBox{}),
	"s4": stripGeometry(3, PreviewPadding{TopPct: 20, BottomPct: -12}, CanvasBox{}),
	"s5": stripGeometry(3, PreviewPadding{TopPct: 14, BottomPct: 1}, CanvasBox{}),
	"s6": stripGeometry(3, PreviewPadding{TopPct: 14, BottomPct: 1}, CanvasBox{}),
	"s7": stripGeometry(3, PreviewPadding{TopPct: 10, BottomPct: 2}, CanvasBox{}),
	"s8": stripGeometry(2,
		PreviewPadding{TopPct: 6, BottomPct: 1, SidePct: 6},
		CanvasBox{Top: 70, Bottom: 190, Side: 60},
	),
	"s9": stripGeometry(3, PreviewPadding{TopPct: 10, BottomPct: 2}, CanvasBox{}),
}

// Resolve maps (layout kind, frame id) to its geometry. It is total: single
// always yields the one-slot geometry, and unknown strip frame ids fall back
// to the default three-slot strip.
func Resolve(kind models.LayoutKind, frameID string) Geometry {
	if kind == models.LayoutSingle {
		return singleGeometry
	}
	if g, ok := stripByFrame[frameID]; ok {
		return g
	}
	return stripDefault
}

// SlotRect returns the canvas rectangle of photo slot i. Slots stack
// vertically between the top and bottom paddings, separated by the gap.
func SlotRect(g Geometry, i int) image.Rectangle {
	w := g.Canvas.Width - 2*g.Canvas.Side
	h := (g.Canvas.Height - g.Canvas.Top - g.Canvas.Bottom - g.Canvas.Gap*(g.MaxPhotos-1)) / g.MaxPhotos
	x := g.Canvas.Side + g.Canvas.OffsetX
	y := g.Canvas.Top + g.Canvas.OffsetY + i*(h+g.Canvas.Gap)
	return image.Rect(x, y, x+w, y+h)
}
