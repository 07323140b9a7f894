package services

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelgrove/photobooth/pkg/internal/models"
)

func TestCheckAdminPassword(t *testing.T) {
	viper.Set("security.admin_password", "hunter2")
	defer viper.Set("security.admin_password", "")

	assert.True(t, CheckAdminPassword("hunter2"))
	assert.False(t, CheckAdminPassword("Hunter2"))
	assert.False(t, CheckAdminPassword(""))
}

func TestCheckAdminPasswordUnsetSecretAlwaysFails(t *testing.T) {
	viper.Set("security.admin_password", "")

	// A blank configured secret must not open the gate to blank input.
	assert.False(t, CheckAdminPassword(""))
}

func TestAuthorizeAlbum(t *testing.T) {
	store := NewMemoryStore()
	DefaultStore = store
	store.Seed(seededObject("a", "AB12", "0420", models.AssetKindFinal, time.Now()))

	assets, err := AuthorizeAlbum(context.Background(), "AB12", "0420")
	require.NoError(t, err)
	assert.Len(t, assets, 1)

	_, err = AuthorizeAlbum(context.Background(), "AB12", "9999")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = AuthorizeAlbum(context.Background(), "XX00", "0420")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
