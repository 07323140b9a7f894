package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/pixelgrove/photobooth/pkg/internal/server/exts"
	"github.com/pixelgrove/photobooth/pkg/internal/services"
)

func listSessionsForAdmin(c *fiber.Ctx) error {
	var data struct {
		Password string `json:"password" validate:"required"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}
	if !services.CheckAdminPassword(data.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	sessions, err := services.ListSessions(c.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(fiber.Map{
		"sessions": sessions,
	})
}

func deleteSessionForAdmin(c *fiber.Ctx) error {
	var data struct {
		Password  string `json:"password" validate:"required"`
		SessionID string `json:"sessionId" validate:"required,alphanum,max=16"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}
	if !services.CheckAdminPassword(data.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	deleted, err := services.DeleteSessionAssets(c.UserContext(), data.SessionID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	log.Info().Str("session", data.SessionID).Int("deleted", deleted).Msg("An album was deleted by the admin.")

	return c.JSON(fiber.Map{
		"success": true,
		"deleted": deleted,
	})
}
