package services

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/pixelgrove/photobooth/pkg/internal/models"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// AssetsURLPrefix is where the catalog directory is mounted on the HTTP
// surface; catalog Src fields are paths under it.
const AssetsURLPrefix = "/assets"

func CatalogPath() string {
	if path := viper.GetString("catalog.path"); len(path) > 0 {
		return path
	}
	return "./assets"
}

// ListFrames scans the catalog for the frame overlays available to a layout
// kind. The file stem is the frame id that keys the layout geometry.
func ListFrames(kind models.LayoutKind) ([]models.Frame, error) {
	dir := filepath.Join(CatalogPath(), "frames", string(kind))
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("unable to scan frame catalog: %v", err)
	}

	var out []models.Frame
	for _, entry := range entries {
		if entry.IsDir() || !isImageFile(entry.Name()) {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		out = append(out, models.Frame{
			ID:     id,
			Layout: kind,
			Src:    fmt.Sprintf("%s/frames/%s/%s", AssetsURLPrefix, kind, entry.Name()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func ListStickers() ([]models.StickerDecal, error) {
	dir := filepath.Join(CatalogPath(), "stickers")
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("unable to scan sticker catalog: %v", err)
	}

	var out []models.StickerDecal
	for _, entry := range entries {
		if entry.IsDir() || !isImageFile(entry.Name()) {
			continue
		}
		out = append(out, models.StickerDecal{
			Name: strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
			Src:  fmt.Sprintf("%s/stickers/%s", AssetsURLPrefix, entry.Name()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// LoadFrameImage decodes a frame overlay by id. The id comes from client
// input, so it is reduced to a bare file stem before touching the disk.
func LoadFrameImage(kind models.LayoutKind, frameID string) (image.Image, error) {
	dir := filepath.Join(CatalogPath(), "frames", string(kind))
	stem := filepath.Base(frameID)

	for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif"} {
		im, err := decodeImageFile(filepath.Join(dir, stem+ext))
		if err == nil {
			return im, nil
		}
	}
	return nil, fmt.Errorf("frame %s not found in catalog", frameID)
}

// LoadStickerImage decodes a sticker decal from its catalog Src path.
func LoadStickerImage(src string) (image.Image, error) {
	rel := strings.TrimPrefix(src, AssetsURLPrefix+"/")
	rel = filepath.Clean(rel)
	if strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return nil, fmt.Errorf("invalid sticker path %s", src)
	}
	return decodeImageFile(filepath.Join(CatalogPath(), rel))
}

func decodeImageFile(path string) (image.Image, error) {
	reader, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	im, _, err := image.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("unable to decode %s: %v", path, err)
	}
	return im, nil
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return true
	}
	return false
}
