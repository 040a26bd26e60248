package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/safepazz/internal/flagx"
	"github.com/dmitrijs2005/safepazz/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations accept
// strings such as "24h" or integer nanoseconds. After unmarshalling, non-zero
// fields are copied into Config.
type JsonConfig struct {
	HTTPAddr           string         `json:"http_addr"`
	DatabaseDSN        string         `json:"database_dsn"`
	SecretKey          string         `json:"secret_key"`
	EncryptionKey      string         `json:"encryption_key"`
	EncryptionSalt     string         `json:"encryption_salt"`
	SessionTTL         timex.Duration `json:"session_ttl"`
	RecoveryTTL        timex.Duration `json:"recovery_ttl"`
	MaxFailedAttempts  int            `json:"max_failed_attempts"`
	ExpiringSoonWindow timex.Duration `json:"expiring_soon_window"`
	BcryptCost         int            `json:"bcrypt_cost"`
	HashConcurrency    int            `json:"hash_concurrency"`
	TOTPIssuer         string         `json:"totp_issuer"`
	LoginRateLimit     int            `json:"login_rate_limit"`
	LoginRateBurst     int            `json:"login_rate_burst"`
	ReadHeaderTimeout  timex.Duration `json:"read_header_timeout"`
	ShutdownTimeout    timex.Duration `json:"shutdown_timeout"`
	TrustProxyHeaders  *bool          `json:"trust_proxy_headers"`
	DevMode            *bool          `json:"dev_mode"`
}

// parseJSON loads the file named by -c/-config (or SAFEPAZZ_CONFIG) into
// config. Nothing happens when no file is named.
func parseJSON(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		return err
	}

	overlayString(&config.HTTPAddr, c.HTTPAddr)
	overlayString(&config.DatabaseDSN, c.DatabaseDSN)
	overlayString(&config.SecretKey, c.SecretKey)
	overlayString(&config.EncryptionKey, c.EncryptionKey)
	overlayString(&config.EncryptionSalt, c.EncryptionSalt)
	overlayString(&config.TOTPIssuer, c.TOTPIssuer)

	if c.SessionTTL.Duration > 0 {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.RecoveryTTL.Duration > 0 {
		config.RecoveryTTL = c.RecoveryTTL.Duration
	}
	if c.ExpiringSoonWindow.Duration > 0 {
		config.ExpiringSoonWindow = c.ExpiringSoonWindow.Duration
	}
	if c.ReadHeaderTimeout.Duration > 0 {
		config.ReadHeaderTimeout = c.ReadHeaderTimeout.Duration
	}
	if c.ShutdownTimeout.Duration > 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}

	overlayInt(&config.MaxFailedAttempts, c.MaxFailedAttempts)
	overlayInt(&config.BcryptCost, c.BcryptCost)
	overlayInt(&config.HashConcurrency, c.HashConcurrency)
	overlayInt(&config.LoginRateLimit, c.LoginRateLimit)
	overlayInt(&config.LoginRateBurst, c.LoginRateBurst)

	if c.TrustProxyHeaders != nil {
		config.TrustProxyHeaders = *c.TrustProxyHeaders
	}
	if c.DevMode != nil {
		config.DevMode = *c.DevMode
	}
	return nil
}

func overlayString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func overlayInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
