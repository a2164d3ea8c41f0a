package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("ACADEF_AUTH_JWT_SECRET", "a-very-long-test-secret")
	t.Setenv("ACADEF_STORAGE_UPLOAD_DIR", "/tmp/acadef-uploads")
	t.Setenv("ACADEF_REGISTRATION_USERNAME_MAX_ATTEMPTS", "3")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/tmp/acadef-uploads", cfg.Storage.UploadDir)
	assert.Equal(t, int64(16<<20), cfg.Storage.MaxUploadSize)
	assert.ElementsMatch(t, []string{"pdf", "jpg", "jpeg", "png"}, cfg.Storage.AllowedExtensions)
	assert.Equal(t, 30*24*time.Hour, cfg.Registration.SigningLinkTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Registration.LegacySigningLinkTTL)
	assert.Equal(t, 3, cfg.Registration.UsernameMaxAttempts)
	assert.True(t, cfg.Registration.StrictTokenSigner)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("ACADEF_AUTH_JWT_SECRET", "")

	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:  ServerConfig{Port: 8080},
			Auth:    AuthConfig{JWTSecret: "0123456789abcdef"},
			Storage: StorageConfig{UploadDir: "./uploads"},
			Registration: RegistrationConfig{
				SigningLinkTTL:       time.Hour,
				LegacySigningLinkTTL: time.Hour,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, true},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
		{"no upload dir", func(c *Config) { c.Storage.UploadDir = "" }, true},
		{"zero link ttl", func(c *Config) { c.Registration.SigningLinkTTL = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
