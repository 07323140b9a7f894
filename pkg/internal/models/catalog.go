package models

// Frame is a decorative overlay stretched over the full canvas of a final
// composite. Its id also selects the layout geometry for the session.
type Frame struct {
	ID     string     `json:"id"`
	Layout LayoutKind `json:"layout"`
	Src    string     `json:"src"`
}

// StickerDecal is a catalog entry for a placeable sticker image.
type StickerDecal struct {
	Name string `json:"name"`
	Src  string `json:"src"`
}

// StickerPlacement is the wire form of a user-placed sticker. Position is in
// percent of the canvas dimensions and doubles as the rotation/scale pivot.
// Placements are baked into the final composite and never persisted.
type StickerPlacement struct {
	Src      string  `json:"src" validate:"required"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Scale    float64 `json:"scale"`
	Rotation float64 `json:"rotation"`
}
