package api

import (
	"github.com/gofiber/fiber/v2"
)

func MapAPIs(app *fiber.App, baseURL string) {
	api := app.Group(baseURL).Name("API")
	{
		api.Get("/frames", listFrames)
		api.Get("/stickers", listStickers)

		sessions := api.Group("/sessions").Name("Sessions API")
		{
			sessions.Get("/new", mintSession)
			sessions.Post("/finish", finishSession)
		}

		api.Post("/upload", uploadComposite)
		api.Post("/album", openAlbum)

		admin := api.Group("/admin").Name("Admin API")
		{
			admin.Post("/", listSessionsForAdmin)
			admin.Delete("/", deleteSessionForAdmin)
		}
	}
}
