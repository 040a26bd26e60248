package config

import (
	"runtime"
	"testing"
	"time"

	"github.com/dmitrijs2005/safepazz/internal/flagx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Empty(t, c.DatabaseDSN)
	assert.Equal(t, "secretKey", c.SecretKey)
	assert.Equal(t, 24*time.Hour, c.SessionTTL)
	assert.Equal(t, 24*time.Hour, c.RecoveryTTL)
	assert.Equal(t, 5, c.MaxFailedAttempts)
	assert.Equal(t, 7*24*time.Hour, c.ExpiringSoonWindow)
	assert.Equal(t, 10, c.BcryptCost)
	assert.Equal(t, runtime.NumCPU(), c.HashConcurrency)
	assert.Equal(t, 5*time.Second, c.ReadHeaderTimeout)
	assert.False(t, c.TrustProxyHeaders)
	assert.False(t, c.DevMode)

	// the built-in keys are for development only
	assert.Error(t, c.Validate())
	c.DevMode = true
	require.NoError(t, c.Validate())
}

func TestValidate_DefaultKeysOutsideDevMode(t *testing.T) {
	var c Config
	c.LoadDefaults()
	c.SecretKey = "a-real-signing-key"
	assert.Error(t, c.Validate(), "default encryption key")

	c.EncryptionKey = "a-real-encryption-key"
	assert.NoError(t, c.Validate())

	c.SecretKey = "secretKey"
	assert.Error(t, c.Validate(), "default secret key")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty secret", func(c *Config) { c.SecretKey = "" }},
		{"empty encryption key", func(c *Config) { c.EncryptionKey = "" }},
		{"zero session ttl", func(c *Config) { c.SessionTTL = 0 }},
		{"negative recovery ttl", func(c *Config) { c.RecoveryTTL = -time.Second }},
		{"no attempts", func(c *Config) { c.MaxFailedAttempts = 0 }},
		{"bcrypt cost too low", func(c *Config) { c.BcryptCost = 1 }},
		{"bcrypt cost too high", func(c *Config) { c.BcryptCost = 99 }},
		{"no rate limit", func(c *Config) { c.LoginRateLimit = 0 }},
		{"no hash workers", func(c *Config) { c.HashConcurrency = 0 }},
		{"no read header timeout", func(c *Config) { c.ReadHeaderTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			c.DevMode = true
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoad_Precedence(t *testing.T) {
	t.Setenv("SECRET_KEY", "from-env")
	t.Setenv("SAFEPAZZ_HTTP_ADDR", ":7000")

	path := writeTempJSON(t, "", "", map[string]any{
		"http_addr":   ":9000",
		"session_ttl": "2h",
	})

	cfg, err := load([]string{"-c", path, "-a", ":9999", "-dev"})
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.SecretKey)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.DevMode)
}

func TestLoad_RequiresKeysOutsideDevMode(t *testing.T) {
	t.Setenv(flagx.ConfigFileEnv, "")
	t.Setenv("DEV_MODE", "false")
	t.Setenv("SECRET_KEY", "")
	t.Setenv("ENCRYPTION_KEY", "")

	_, err := load(nil)
	assert.Error(t, err)

	t.Setenv("SECRET_KEY", "a-real-signing-key")
	t.Setenv("ENCRYPTION_KEY", "a-real-encryption-key")
	t.Setenv("TRUST_PROXY_HEADERS", "true")
	cfg, err := load(nil)
	require.NoError(t, err)
	assert.False(t, cfg.DevMode)
	assert.True(t, cfg.TrustProxyHeaders)
}

func TestLoad_InvalidFails(t *testing.T) {
	_, err := load([]string{"-b", "2"})
	assert.Error(t, err)

	t.Setenv("MAX_FAILED_ATTEMPTS", "many")
	_, err = load(nil)
	assert.Error(t, err)
}
