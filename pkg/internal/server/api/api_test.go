package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"mime/multipart"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	localCache "github.com/pixelgrove/photobooth/pkg/internal/cache"
	"github.com/pixelgrove/photobooth/pkg/internal/models"
	"github.com/pixelgrove/photobooth/pkg/internal/services"
)

func TestMain(m *testing.M) {
	if err := localCache.NewStore(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newTestApp() *fiber.App {
	app := fiber.New(fiber.Config{
		JSONEncoder: jsoniter.ConfigCompatibleWithStandardLibrary.Marshal,
		JSONDecoder: jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal,
	})
	MapAPIs(app, "/api")
	return app
}

func seedAsset(store *services.MemoryStore, sessionID, pin string, kind models.AssetKind) {
	store.Seed(services.StoredObject{
		Key:       "photobooth_gallery/" + sessionID + "-" + string(kind),
		URL:       "https://store.example/" + sessionID + "-" + string(kind),
		Tags:      []string{models.SessionTag(sessionID), kind.Tag()},
		Metadata:  map[string]string{models.MetadataKeyPin: pin},
		CreatedAt: time.Now(),
	})
}

func postJSON(t *testing.T, app *fiber.App, method, path string, payload any) *http.Response {
	t.Helper()
	body, err := jsoniter.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(method, path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	require.NoError(t, jsoniter.NewDecoder(resp.Body).Decode(out))
}

func TestOpenAlbum(t *testing.T) {
	store := services.NewMemoryStore()
	services.DefaultStore = store
	seedAsset(store, "AB12", "0420", models.AssetKindFinal)

	app := newTestApp()

	resp := postJSON(t, app, http.MethodPost, "/api/album", fiber.Map{"sessionId": "AB12", "pin": "0420"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Photos []models.Asset `json:"photos"`
		Total  int            `json:"total"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, 1, body.Total)
	require.Len(t, body.Photos, 1)
	assert.Equal(t, models.AssetKindFinal, body.Photos[0].Kind)
}

func TestOpenAlbumWrongPinLooksLikeMissingSession(t *testing.T) {
	store := services.NewMemoryStore()
	services.DefaultStore = store
	seedAsset(store, "AB12", "0420", models.AssetKindFinal)

	app := newTestApp()

	wrongPin := postJSON(t, app, http.MethodPost, "/api/album", fiber.Map{"sessionId": "AB12", "pin": "9999"})
	wrongSession := postJSON(t, app, http.MethodPost, "/api/album", fiber.Map{"sessionId": "XX00", "pin": "0420"})

	assert.Equal(t, http.StatusNotFound, wrongPin.StatusCode)
	assert.Equal(t, http.StatusNotFound, wrongSession.StatusCode)
}

func TestOpenAlbumValidation(t *testing.T) {
	services.DefaultStore = services.NewMemoryStore()
	app := newTestApp()

	resp := postJSON(t, app, http.MethodPost, "/api/album", fiber.Map{"sessionId": "AB12"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, app, http.MethodPost, "/api/album", fiber.Map{"sessionId": "AB12", "pin": "042"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminListRequiresPassword(t *testing.T) {
	viper.Set("security.admin_password", "hunter2")
	defer viper.Set("security.admin_password", "")

	store := services.NewMemoryStore()
	services.DefaultStore = store
	services.InvalidateSessionIndex()
	seedAsset(store, "AB12", "0420", models.AssetKindFinal)

	app := newTestApp()

	denied := postJSON(t, app, http.MethodPost, "/api/admin", fiber.Map{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, denied.StatusCode)

	granted := postJSON(t, app, http.MethodPost, "/api/admin", fiber.Map{"password": "hunter2"})
	require.Equal(t, http.StatusOK, granted.StatusCode)

	var body struct {
		Sessions []models.Session `json:"sessions"`
	}
	decodeBody(t, granted, &body)
	require.Len(t, body.Sessions, 1)
	assert.Equal(t, "AB12", body.Sessions[0].ID)
	assert.Equal(t, "0420", body.Sessions[0].Pin)
}

func TestAdminDeleteSession(t *testing.T) {
	viper.Set("security.admin_password", "hunter2")
	defer viper.Set("security.admin_password", "")

	store := services.NewMemoryStore()
	services.DefaultStore = store
	seedAsset(store, "AB12", "0420", models.AssetKindFinal)
	seedAsset(store, "AB12", "0420", models.AssetKindRaw)

	app := newTestApp()

	denied := postJSON(t, app, http.MethodDelete, "/api/admin", fiber.Map{"password": "wrong", "sessionId": "AB12"})
	assert.Equal(t, http.StatusUnauthorized, denied.StatusCode)

	missingID := postJSON(t, app, http.MethodDelete, "/api/admin", fiber.Map{"password": "hunter2"})
	assert.Equal(t, http.StatusBadRequest, missingID.StatusCode)

	granted := postJSON(t, app, http.MethodDelete, "/api/admin", fiber.Map{"password": "hunter2", "sessionId": "AB12"})
	require.Equal(t, http.StatusOK, granted.StatusCode)

	var body struct {
		Deleted int `json:"deleted"`
	}
	decodeBody(t, granted, &body)
	assert.Equal(t, 2, body.Deleted)

	remaining, err := store.List(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestUploadComposite(t *testing.T) {
	store := services.NewMemoryStore()
	services.DefaultStore = store

	app := newTestApp()

	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8, 0xff})
	resp := postJSON(t, app, http.MethodPost, "/api/upload", fiber.Map{
		"imageFinal":    dataURL,
		"imageRaw":      dataURL,
		"imageRawParts": []string{dataURL, dataURL},
		"sessionId":     "AB12",
		"pin":           "0420",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success      bool     `json:"success"`
		URL          string   `json:"url"`
		RawURL       *string  `json:"raw_url"`
		RawPartsURLs []string `json:"raw_parts_urls"`
	}
	decodeBody(t, resp, &body)
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.URL)
	assert.NotNil(t, body.RawURL)
	assert.Len(t, body.RawPartsURLs, 2)

	objs, err := store.List(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, objs, 4)
}

func TestUploadCompositeRequiresFinal(t *testing.T) {
	services.DefaultStore = services.NewMemoryStore()
	app := newTestApp()

	resp := postJSON(t, app, http.MethodPost, "/api/upload", fiber.Map{
		"sessionId": "AB12",
		"pin":       "0420",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func newFinishRequest(t *testing.T, photoCount int, fields map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for i := 0; i < photoCount; i++ {
		part, err := writer.CreateFormFile("photos", fmt.Sprintf("capture-%d.png", i+1))
		require.NoError(t, err)
		im := image.NewRGBA(image.Rect(0, 0, 64, 48))
		draw.Draw(im, im.Bounds(), image.NewUniform(color.RGBA{R: uint8(40 * (i + 1)), A: 255}), image.Point{}, draw.Src)
		require.NoError(t, png.Encode(part, im))
	}
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, "/api/sessions/finish", &buf)
	require.NoError(t, err)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	return req
}

func objectsOfKind(objs []services.StoredObject, kind models.AssetKind) []services.StoredObject {
	var out []services.StoredObject
	for _, obj := range objs {
		if obj.HasTag(kind.Tag()) {
			out = append(out, obj)
		}
	}
	return out
}

func TestFinishSessionStrip(t *testing.T) {
	store := services.NewMemoryStore()
	services.DefaultStore = store

	app := newTestApp()

	req := newFinishRequest(t, 2, map[string]string{
		"layout":     "strip",
		"session_id": "AB12",
		"pin":        "0420",
		"brightness": "1.1",
		"saturation": "0.9",
		// An unknown decal only costs its layer.
		"stickers": `[{"src":"missing.png","x":50,"y":50,"scale":1,"rotation":30}]`,
	})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success      bool     `json:"success"`
		URL          string   `json:"url"`
		RawPartsURLs []string `json:"raw_parts_urls"`
		AlbumPath    string   `json:"album_path"`
	}
	decodeBody(t, resp, &body)
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.URL)
	assert.Len(t, body.RawPartsURLs, 2)
	assert.Equal(t, "/album/AB12", body.AlbumPath)

	objs, err := store.List(context.Background(), "", 0)
	require.NoError(t, err)

	finals := objectsOfKind(objs, models.AssetKindFinal)
	require.Len(t, finals, 1)
	assert.True(t, finals[0].HasTag(models.SessionTag("AB12")))
	assert.Equal(t, "0420", finals[0].Metadata[models.MetadataKeyPin])

	parts := objectsOfKind(objs, models.AssetKindRawPart)
	require.Len(t, parts, 2)
	indexes := []string{
		parts[0].Metadata[models.MetadataKeyShotIndex],
		parts[1].Metadata[models.MetadataKeyShotIndex],
	}
	assert.ElementsMatch(t, []string{"1", "2"}, indexes)

	assert.Len(t, objectsOfKind(objs, models.AssetKindOriginal), 2)
	assert.Empty(t, objectsOfKind(objs, models.AssetKindRaw))
}

func TestFinishSessionSingleUploadsRawComposite(t *testing.T) {
	store := services.NewMemoryStore()
	services.DefaultStore = store

	app := newTestApp()

	req := newFinishRequest(t, 1, map[string]string{
		"layout":     "single",
		"session_id": "CD34",
		"pin":        "7777",
	})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		RawURL *string `json:"raw_url"`
	}
	decodeBody(t, resp, &body)
	require.NotNil(t, body.RawURL)

	objs, err := store.List(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, objectsOfKind(objs, models.AssetKindRaw), 1)
	assert.Empty(t, objectsOfKind(objs, models.AssetKindRawPart))
}

// kindRejectingStore fails every put whose tags carry one of the rejected
// kinds, leaving the rest to the wrapped store.
type kindRejectingStore struct {
	*services.MemoryStore
	reject []models.AssetKind
}

func (s *kindRejectingStore) Put(ctx context.Context, key string, data []byte, contentType string, tags []string, metadata map[string]string) (services.StoredObject, error) {
	for _, kind := range s.reject {
		for _, tag := range tags {
			if tag == kind.Tag() {
				return services.StoredObject{}, errors.New("store rejected " + tag)
			}
		}
	}
	return s.MemoryStore.Put(ctx, key, data, contentType, tags, metadata)
}

func TestFinishSessionRawPartFailureIsNotFatal(t *testing.T) {
	inner := services.NewMemoryStore()
	services.DefaultStore = &kindRejectingStore{
		MemoryStore: inner,
		reject:      []models.AssetKind{models.AssetKindRawPart, models.AssetKindOriginal},
	}

	app := newTestApp()

	req := newFinishRequest(t, 2, map[string]string{
		"layout":     "strip",
		"session_id": "AB12",
		"pin":        "0420",
	})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success      bool     `json:"success"`
		URL          string   `json:"url"`
		RawPartsURLs []string `json:"raw_parts_urls"`
	}
	decodeBody(t, resp, &body)
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.URL)
	assert.Empty(t, body.RawPartsURLs)

	objs, err := inner.List(context.Background(), "", 0)
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.True(t, objs[0].HasTag(models.AssetKindFinal.Tag()))
}

func TestFinishSessionFinalFailureIsFatal(t *testing.T) {
	services.DefaultStore = &kindRejectingStore{
		MemoryStore: services.NewMemoryStore(),
		reject:      []models.AssetKind{models.AssetKindFinal},
	}

	app := newTestApp()

	req := newFinishRequest(t, 1, map[string]string{
		"layout":     "single",
		"session_id": "AB12",
		"pin":        "0420",
	})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestFinishSessionValidation(t *testing.T) {
	services.DefaultStore = services.NewMemoryStore()
	app := newTestApp()

	noPhotos := newFinishRequest(t, 0, map[string]string{
		"layout": "strip", "session_id": "AB12", "pin": "0420",
	})
	resp, err := app.Test(noPhotos, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	badLayout := newFinishRequest(t, 1, map[string]string{
		"layout": "diagonal", "session_id": "AB12", "pin": "0420",
	})
	resp, err = app.Test(badLayout, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	noSession := newFinishRequest(t, 1, map[string]string{"layout": "strip"})
	resp, err = app.Test(noSession, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMintSession(t *testing.T) {
	app := newTestApp()

	req, err := http.NewRequest(http.MethodGet, "/api/sessions/new", nil)
	require.NoError(t, err)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		SessionID string `json:"session_id"`
		Pin       string `json:"pin"`
	}
	decodeBody(t, resp, &body)
	assert.Len(t, body.SessionID, 4)
	assert.Len(t, body.Pin, 4)
}
