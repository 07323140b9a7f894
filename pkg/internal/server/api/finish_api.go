package api

import (
	"fmt"
	"image"
	"mime/multipart"
	"strconv"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/pixelgrove/photobooth/pkg/internal/compositor"
	"github.com/pixelgrove/photobooth/pkg/internal/layout"
	"github.com/pixelgrove/photobooth/pkg/internal/models"
	"github.com/pixelgrove/photobooth/pkg/internal/services"
)

// Archival originals are bounded to this edge before upload.
const originalMaxDimension = 1280

// finishSession is the server-side render path: it takes the raw captures
// plus the editing choices, composites the raw and final images, and fans
// the uploads out in parallel. Only the final composite is fatal on failure.
func finishSession(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	layoutKind := models.LayoutKind(c.FormValue("layout", string(models.LayoutStrip)))
	if layoutKind != models.LayoutSingle && layoutKind != models.LayoutStrip {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown layout kind: %s", layoutKind))
	}

	sessionID := c.FormValue("session_id")
	pin := c.FormValue("pin")
	if len(sessionID) == 0 || len(pin) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "session_id and pin are required")
	}

	files := form.File["photos"]
	if len(files) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "at least one photo is required")
	}

	frameID := c.FormValue("frame_id")
	brightness := parseMultiplier(c.FormValue("brightness"), 1)
	saturation := parseMultiplier(c.FormValue("saturation"), 1)

	var photos []image.Image
	for _, file := range files {
		im, err := decodeUpload(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unable to decode photo %s: %v", file.Filename, err))
		}
		photos = append(photos, im)
	}

	// A missing frame or sticker only costs its decorative layer.
	var frame image.Image
	if len(frameID) > 0 {
		if frame, err = services.LoadFrameImage(layoutKind, frameID); err != nil {
			log.Warn().Err(err).Str("frame", frameID).Msg("Frame overlay unavailable, compositing without it...")
		}
	}

	var stickers []compositor.Sticker
	if raw := c.FormValue("stickers"); len(raw) > 0 {
		var placements []models.StickerPlacement
		if err := jsoniter.UnmarshalFromString(raw, &placements); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unable to parse stickers: %v", err))
		}
		for _, p := range placements {
			decal, err := services.LoadStickerImage(p.Src)
			if err != nil {
				log.Warn().Err(err).Str("sticker", p.Src).Msg("Sticker decal unavailable, skipping...")
				continue
			}
			stickers = append(stickers, compositor.Sticker{
				Image:       decal,
				XPct:        p.X,
				YPct:        p.Y,
				Scale:       p.Scale,
				RotationDeg: p.Rotation,
			})
		}
	}

	out := compositor.Composite(compositor.Input{
		Layout:     layoutKind,
		FrameID:    frameID,
		Photos:     photos,
		Frame:      frame,
		Stickers:   stickers,
		Brightness: brightness,
		Saturation: saturation,
	})

	finalData, err := compositor.EncodeJPEG(out.Final)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	log.Info().Str("session", sessionID).Str("layout", string(layoutKind)).Int("photos", len(photos)).Msg("Session composited, uploading...")

	ctx := c.UserContext()

	var wg sync.WaitGroup
	var finalAsset models.Asset
	var finalErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		finalAsset, finalErr = services.UploadAsset(ctx, finalData, "image/jpeg", sessionID, pin, models.AssetKindFinal, 0)
	}()

	var rawURL *string
	rawPartURLs := make([]*string, len(photos))

	if layoutKind == models.LayoutSingle {
		if rawData, err := compositor.EncodeJPEG(out.Raw); err != nil {
			log.Warn().Err(err).Msg("Unable to encode raw composite, continuing without it...")
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if asset, err := services.UploadAsset(ctx, rawData, "image/jpeg", sessionID, pin, models.AssetKindRaw, 0); err != nil {
					log.Warn().Err(err).Msg("Raw composite upload failed, continuing without it...")
				} else {
					rawURL = lo.ToPtr(asset.URL)
				}
			}()
		}
	} else {
		geom := layout.Resolve(layoutKind, frameID)
		for idx, photo := range photos[:min(len(photos), geom.MaxPhotos)] {
			wg.Add(1)
			go func(idx int, photo image.Image) {
				defer wg.Done()
				partData, err := compositor.RawPart(photo, brightness, saturation)
				if err != nil {
					log.Warn().Err(err).Int("shot", idx+1).Msg("Unable to encode raw part, skipping...")
					return
				}
				if asset, err := services.UploadAsset(ctx, partData, "image/jpeg", sessionID, pin, models.AssetKindRawPart, idx+1); err != nil {
					log.Warn().Err(err).Int("shot", idx+1).Msg("Raw part upload failed, continuing without it...")
				} else {
					rawPartURLs[idx] = lo.ToPtr(asset.URL)
				}
			}(idx, photo)
		}
	}

	for idx, photo := range photos {
		wg.Add(1)
		go func(idx int, photo image.Image) {
			defer wg.Done()
			data, err := compositor.EncodeJPEG(services.DownscaleCapture(photo, originalMaxDimension))
			if err != nil {
				log.Warn().Err(err).Int("shot", idx+1).Msg("Unable to encode original capture, skipping...")
				return
			}
			if _, err := services.UploadAsset(ctx, data, "image/jpeg", sessionID, pin, models.AssetKindOriginal, 0); err != nil {
				log.Warn().Err(err).Int("shot", idx+1).Msg("Original capture upload failed, continuing without it...")
			}
		}(idx, photo)
	}

	wg.Wait()

	if finalErr != nil {
		return fiber.NewError(fiber.StatusInternalServerError, finalErr.Error())
	}

	uploadedParts := lo.FilterMap(rawPartURLs, func(url *string, _ int) (string, bool) {
		return lo.FromPtr(url), url != nil
	})

	return c.JSON(fiber.Map{
		"success":        true,
		"url":            finalAsset.URL,
		"raw_url":        rawURL,
		"raw_parts_urls": uploadedParts,
		"album_path":     fmt.Sprintf("/album/%s", strings.ToUpper(sessionID)),
	})
}

func decodeUpload(file *multipart.FileHeader) (image.Image, error) {
	reader, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	im, _, err := image.Decode(reader)
	return im, err
}

func parseMultiplier(raw string, fallback float64) float64 {
	if len(raw) == 0 {
		return fallback
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || val <= 0 {
		return fallback
	}
	return val
}
