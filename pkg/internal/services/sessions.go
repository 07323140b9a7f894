package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/spf13/viper"

	localCache "github.com/pixelgrove/photobooth/pkg/internal/cache"
	"github.com/pixelgrove/photobooth/pkg/internal/models"
)

// ErrSessionNotFound deliberately does not distinguish a wrong session id
// from a wrong PIN.
var ErrSessionNotFound = errors.New("session not found or wrong pin")

// UploadError marks a store-side upload failure; the caller decides whether
// the failed asset kind is fatal for the whole finish action.
type UploadError struct {
	Kind models.AssetKind
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("unable to upload %s asset: %v", e.Kind, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

func GalleryFolder() string {
	if folder := viper.GetString("gallery.folder"); len(folder) > 0 {
		return folder
	}
	return "photobooth_gallery"
}

// GalleryMaxResults bounds every session listing. Sessions whose assets fall
// beyond the most recent N may be undercounted; this is a documented limit.
func GalleryMaxResults() int {
	if limit := viper.GetInt("gallery.max_results"); limit > 0 {
		return limit
	}
	return 500
}

func getSessionIndexCacheKey() any {
	return fmt.Sprintf("session-index#%s", GalleryFolder())
}

// UploadAsset stores one image tagged with the session id and its kind, with
// the access PIN attached as queryable metadata.
func UploadAsset(ctx context.Context, data []byte, contentType, sessionID, pin string, kind models.AssetKind, shotIndex int) (models.Asset, error) {
	key := fmt.Sprintf("%s/%s", GalleryFolder(), uuid.New().String())
	tags := []string{models.SessionTag(sessionID), kind.Tag()}

	metadata := map[string]string{models.MetadataKeyPin: pin}
	if kind == models.AssetKindRawPart && shotIndex > 0 {
		metadata[models.MetadataKeyShotIndex] = strconv.Itoa(shotIndex)
	}

	obj, err := DefaultStore.Put(ctx, key, data, contentType, tags, metadata)
	if err != nil {
		return models.Asset{}, &UploadError{Kind: kind, Err: err}
	}

	InvalidateSessionIndex()

	return assetFromObject(obj), nil
}

// GroupSessions materializes session views from a flat, newest-first object
// list: one session per distinct session tag, count over every tagged asset,
// PIN from the first asset carrying one with backfill when a later asset
// supplies it (metadata propagation to the store is not guaranteed atomic).
func GroupSessions(objs []StoredObject) []models.Session {
	byID := make(map[string]*models.Session)
	var order []string

	for _, obj := range objs {
		sessionID, ok := sessionIDFromTags(obj.Tags)
		if !ok {
			continue
		}
		pin := obj.Metadata[models.MetadataKeyPin]

		entry, seen := byID[sessionID]
		if !seen {
			entry = &models.Session{
				ID:           sessionID,
				Pin:          pin,
				Date:         obj.CreatedAt,
				ThumbnailURL: obj.URL,
			}
			byID[sessionID] = entry
			order = append(order, sessionID)
		}

		entry.Count++
		if obj.HasTag(models.AssetKindFinal.Tag()) {
			entry.FinalURL = lo.ToPtr(obj.URL)
		}
		if obj.HasTag(models.AssetKindRaw.Tag()) {
			entry.RawURL = lo.ToPtr(obj.URL)
		}
		if len(entry.Pin) == 0 && len(pin) > 0 {
			entry.Pin = pin
		}
	}

	out := make([]models.Session, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out
}

// ListSessions returns the grouped session views for the gallery, served from
// the session index cache when warm.
func ListSessions(ctx context.Context) ([]models.Session, error) {
	cacheManager := cache.New[any](localCache.S)
	marshal := marshaler.New(cacheManager)

	if val, err := marshal.Get(ctx, getSessionIndexCacheKey(), new([]models.Session)); err == nil {
		return *val.(*[]models.Session), nil
	}

	objs, err := DefaultStore.List(ctx, GalleryFolder(), GalleryMaxResults())
	if err != nil {
		return nil, fmt.Errorf("unable to list gallery objects: %v", err)
	}

	sessions := GroupSessions(objs)
	_ = marshal.Set(ctx, getSessionIndexCacheKey(), sessions)

	return sessions, nil
}

// FindSessionAssets is the sole authorization check for album access: an
// asset matches only when it carries both the session tag and the exact PIN
// metadata (string equality, no numeric coercion).
func FindSessionAssets(ctx context.Context, sessionID, pin string) ([]models.Asset, error) {
	objs, err := DefaultStore.List(ctx, GalleryFolder(), GalleryMaxResults())
	if err != nil {
		return nil, fmt.Errorf("unable to list gallery objects: %v", err)
	}

	tag := models.SessionTag(sessionID)
	var out []models.Asset
	for _, obj := range objs {
		if obj.HasTag(tag) && obj.Metadata[models.MetadataKeyPin] == pin {
			out = append(out, assetFromObject(obj))
		}
	}
	return out, nil
}

// DeleteSessionAssets irreversibly removes every asset carrying the session
// tag. There is no soft delete.
func DeleteSessionAssets(ctx context.Context, sessionID string) (int, error) {
	objs, err := DefaultStore.List(ctx, GalleryFolder(), 0)
	if err != nil {
		return 0, fmt.Errorf("unable to list gallery objects: %v", err)
	}

	tag := models.SessionTag(sessionID)
	var keys []string
	for _, obj := range objs {
		if obj.HasTag(tag) {
			keys = append(keys, obj.Key)
		}
	}
	if len(keys) == 0 {
		return 0, nil
	}

	if err := DefaultStore.Remove(ctx, keys); err != nil {
		return 0, fmt.Errorf("unable to delete session assets: %v", err)
	}

	InvalidateSessionIndex()

	return len(keys), nil
}

func InvalidateSessionIndex() {
	cacheManager := cache.New[any](localCache.S)
	marshal := marshaler.New(cacheManager)
	_ = marshal.Delete(context.Background(), getSessionIndexCacheKey())
}

// PrimeSessionIndex stores a pre-grouped session list in the index cache.
func PrimeSessionIndex(sessions []models.Session) {
	cacheManager := cache.New[any](localCache.S)
	marshal := marshaler.New(cacheManager)
	_ = marshal.Set(context.Background(), getSessionIndexCacheKey(), sessions)
}

func sessionIDFromTags(tags []string) (string, bool) {
	for _, tag := range tags {
		if strings.HasPrefix(tag, models.SessionTagPrefix) {
			return strings.TrimPrefix(tag, models.SessionTagPrefix), true
		}
	}
	return "", false
}

func assetFromObject(obj StoredObject) models.Asset {
	asset := models.Asset{
		Kind:      models.AssetKindOriginal,
		URL:       obj.URL,
		Pin:       obj.Metadata[models.MetadataKeyPin],
		CreatedAt: obj.CreatedAt,
	}
	if id, ok := sessionIDFromTags(obj.Tags); ok {
		asset.SessionID = id
	}
	for _, tag := range obj.Tags {
		if strings.HasPrefix(tag, models.AssetKindPrefix) {
			asset.Kind = models.AssetKind(strings.TrimPrefix(tag, models.AssetKindPrefix))
			break
		}
	}
	if raw, ok := obj.Metadata[models.MetadataKeyShotIndex]; ok {
		asset.ShotIndex, _ = strconv.Atoi(raw)
	}
	return asset
}
