package models

import (
	"strings"
	"time"
)

type LayoutKind string

const (
	LayoutSingle LayoutKind = "single"
	LayoutStrip  LayoutKind = "strip"
)

type AssetKind string

const (
	AssetKindFinal    AssetKind = "final"
	AssetKindRaw      AssetKind = "raw"
	AssetKindRawPart  AssetKind = "raw_part"
	AssetKindOriginal AssetKind = "original"
)

const (
	SessionTagPrefix = "session_"
	AssetKindPrefix  = "type_"

	MetadataKeyPin       = "access_pin"
	MetadataKeyShotIndex = "shot_index"
)

// Tag returns the store-side kind tag, e.g. "type_final".
func (k AssetKind) Tag() string {
	return AssetKindPrefix + string(k)
}

// SessionTag returns the grouping tag for a session id, e.g. "session_AB12".
// Session ids are case-insensitive; the canonical form is uppercase.
func SessionTag(sessionID string) string {
	return SessionTagPrefix + strings.ToUpper(sessionID)
}

// Asset is one stored image belonging to a session. It is a view over the
// asset store's tag/metadata index, not an independent record.
type Asset struct {
	Kind      AssetKind `json:"kind"`
	URL       string    `json:"url"`
	SessionID string    `json:"session_id"`
	Pin       string    `json:"-"`
	ShotIndex int       `json:"shot_index,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is a derived view materialized at query time by grouping the flat
// asset list on the session tag. There is no session record anywhere else.
type Session struct {
	ID           string    `json:"id"`
	Pin          string    `json:"pin"`
	Date         time.Time `json:"date"`
	FinalURL     *string   `json:"final_url"`
	RawURL       *string   `json:"raw_url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Count        int       `json:"count"`
}
