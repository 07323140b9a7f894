package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/pixelgrove/photobooth/pkg/internal/server/exts"
	"github.com/pixelgrove/photobooth/pkg/internal/services"
)

// openAlbum is the PIN-gated album lookup. A wrong PIN and an unknown
// session produce the same not-found answer so the response leaks nothing
// about which half of the pair was wrong.
func openAlbum(c *fiber.Ctx) error {
	var data struct {
		SessionID string `json:"sessionId" validate:"required,alphanum,max=16"`
		Pin       string `json:"pin" validate:"required,len=4,numeric"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	assets, err := services.AuthorizeAlbum(c.UserContext(), data.SessionID, data.Pin)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "photos not found or wrong pin")
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(fiber.Map{
		"photos": assets,
		"total":  len(assets),
	})
}
