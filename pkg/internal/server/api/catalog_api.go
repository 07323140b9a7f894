package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pixelgrove/photobooth/pkg/internal/layout"
	"github.com/pixelgrove/photobooth/pkg/internal/models"
	"github.com/pixelgrove/photobooth/pkg/internal/services"
)

func listFrames(c *fiber.Ctx) error {
	kind := models.LayoutKind(c.Query("layout", string(models.LayoutStrip)))
	if kind != models.LayoutSingle && kind != models.LayoutStrip {
		return fiber.NewError(fiber.StatusBadRequest, "unknown layout kind")
	}

	frames, err := services.ListFrames(kind)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	// The geometry tells the client how many captures to collect and how to
	// pad its live preview per frame.
	type framedGeometry struct {
		models.Frame
		Geometry layout.Geometry `json:"geometry"`
	}
	out := make([]framedGeometry, 0, len(frames))
	for _, frame := range frames {
		out = append(out, framedGeometry{
			Frame:    frame,
			Geometry: layout.Resolve(kind, frame.ID),
		})
	}

	return c.JSON(fiber.Map{
		"frames": out,
	})
}

func listStickers(c *fiber.Ctx) error {
	stickers, err := services.ListStickers()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(fiber.Map{
		"stickers": stickers,
	})
}

// mintSession hands kiosk clients their session credentials. Nothing is
// stored: the session comes into being with its first uploaded asset.
func mintSession(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"session_id": services.NewSessionID(),
		"pin":        services.NewAccessPin(),
	})
}
