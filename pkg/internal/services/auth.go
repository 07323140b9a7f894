package services

import (
	"context"

	"github.com/spf13/viper"

	"github.com/pixelgrove/photobooth/pkg/internal/models"
)

// CheckAdminPassword gates the admin dashboard with the single configured
// shared secret. There is no token issuance; every admin request re-sends
// the password.
func CheckAdminPassword(password string) bool {
	secret := viper.GetString("security.admin_password")
	if len(secret) == 0 {
		return false
	}
	return password == secret
}

// AuthorizeAlbum performs the capability check for album access: the
// (sessionID, pin) pair must match at least one stored asset. A wrong PIN
// and an unknown session are indistinguishable to the caller.
func AuthorizeAlbum(ctx context.Context, sessionID, pin string) ([]models.Asset, error) {
	assets, err := FindSessionAssets(ctx, sessionID, pin)
	if err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return nil, ErrSessionNotFound
	}
	return assets, nil
}
