package api

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/pixelgrove/photobooth/pkg/internal/models"
	"github.com/pixelgrove/photobooth/pkg/internal/server/exts"
	"github.com/pixelgrove/photobooth/pkg/internal/services"
)

// uploadComposite accepts pre-composited images from the capture client as
// base64 data URLs. The final composite is mandatory; the raw composite and
// the per-shot raw parts are best-effort archival copies, uploaded in
// parallel, and their failure never rolls back the final.
func uploadComposite(c *fiber.Ctx) error {
	var data struct {
		ImageFinal    string   `json:"imageFinal" validate:"required"`
		ImageRaw      string   `json:"imageRaw"`
		ImageRawParts []string `json:"imageRawParts"`
		SessionID     string   `json:"sessionId" validate:"required,alphanum,max=16"`
		Pin           string   `json:"pin" validate:"required,len=4,numeric"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	finalData, finalType, err := services.DecodeDataURL(data.ImageFinal)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	log.Info().Str("session", data.SessionID).Msg("Uploading a finished session...")

	ctx := c.UserContext()

	var wg sync.WaitGroup
	var finalAsset models.Asset
	var finalErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		finalAsset, finalErr = services.UploadAsset(ctx, finalData, finalType, data.SessionID, data.Pin, models.AssetKindFinal, 0)
	}()

	var rawURL *string
	if len(data.ImageRaw) > 0 {
		if rawData, rawType, err := services.DecodeDataURL(data.ImageRaw); err != nil {
			log.Warn().Err(err).Str("session", data.SessionID).Msg("Skipping malformed raw composite...")
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if asset, err := services.UploadAsset(ctx, rawData, rawType, data.SessionID, data.Pin, models.AssetKindRaw, 0); err != nil {
					log.Warn().Err(err).Str("session", data.SessionID).Msg("Raw composite upload failed, continuing without it...")
				} else {
					rawURL = lo.ToPtr(asset.URL)
				}
			}()
		}
	}

	rawPartURLs := make([]*string, len(data.ImageRawParts))
	for idx, part := range data.ImageRawParts {
		if len(part) == 0 {
			continue
		}
		partData, partType, err := services.DecodeDataURL(part)
		if err != nil {
			log.Warn().Err(err).Int("shot", idx+1).Msg("Skipping malformed raw part...")
			continue
		}
		wg.Add(1)
		go func(idx int, partData []byte, partType string) {
			defer wg.Done()
			if asset, err := services.UploadAsset(ctx, partData, partType, data.SessionID, data.Pin, models.AssetKindRawPart, idx+1); err != nil {
				log.Warn().Err(err).Int("shot", idx+1).Msg("Raw part upload failed, continuing without it...")
			} else {
				rawPartURLs[idx] = lo.ToPtr(asset.URL)
			}
		}(idx, partData, partType)
	}

	wg.Wait()

	if finalErr != nil {
		return fiber.NewError(fiber.StatusInternalServerError, finalErr.Error())
	}

	uploadedParts := lo.FilterMap(rawPartURLs, func(url *string, _ int) (string, bool) {
		return lo.FromPtr(url), url != nil
	})

	return c.JSON(fiber.Map{
		"success":         true,
		"url":             finalAsset.URL,
		"raw_url":         rawURL,
		"raw_parts_count": len(uploadedParts),
		"raw_parts_urls":  uploadedParts,
	})
}
