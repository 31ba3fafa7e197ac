package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("UPLOAD_URL_PREFIX", "media/")
	t.Setenv("BASE_URL", "https://shop.example.com/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 720*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 6, cfg.OTPLength)
	assert.True(t, cfg.OTPEcho)
	assert.Equal(t, int64(5<<20), cfg.MaxImageBytes)
	assert.Equal(t, 5, cfg.MaxImages)
	assert.Equal(t, "/media", cfg.UploadURLPrefix)
	assert.Equal(t, "https://shop.example.com", cfg.BaseURL)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORE_DRIVER", "memory")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidate(t *testing.T) {
	base := Config{
		StoreDriver:   "mongo",
		MongoURI:      "mongodb://localhost:27017",
		JWTSecret:     "x",
		TokenTTL:      time.Hour,
		OTPTTL:        time.Minute,
		OTPLength:     6,
		MaxImageBytes: 1,
		MaxImages:     5,
	}
	require.NoError(t, base.Validate())

	noURI := base
	noURI.MongoURI = ""
	assert.Error(t, noURI.Validate())

	badDriver := base
	badDriver.StoreDriver = "postgres"
	assert.Error(t, badDriver.Validate())

	shortCode := base
	shortCode.OTPLength = 2
	assert.Error(t, shortCode.Validate())
}
