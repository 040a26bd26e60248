package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// dotenvFiles are loaded, when present, before environment variables are
// read. Variables already set in the process environment win.
var dotenvFiles = []string{".env"}

// parseEnv overlays values from environment variables:
//
//	SAFEPAZZ_HTTP_ADDR, DATABASE_DSN, SECRET_KEY, ENCRYPTION_KEY,
//	ENCRYPTION_SALT, SESSION_TTL, RECOVERY_TTL, MAX_FAILED_ATTEMPTS,
//	BCRYPT_COST, HASH_CONCURRENCY, TOTP_ISSUER, TRUST_PROXY_HEADERS, DEV_MODE
//
// Durations use time.ParseDuration syntax ("24h").
func parseEnv(cfg *Config) error {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	setString(&cfg.HTTPAddr, "SAFEPAZZ_HTTP_ADDR")
	setString(&cfg.DatabaseDSN, "DATABASE_DSN")
	setString(&cfg.SecretKey, "SECRET_KEY")
	setString(&cfg.EncryptionKey, "ENCRYPTION_KEY")
	setString(&cfg.EncryptionSalt, "ENCRYPTION_SALT")
	setString(&cfg.TOTPIssuer, "TOTP_ISSUER")

	if err := setDuration(&cfg.SessionTTL, "SESSION_TTL"); err != nil {
		return err
	}
	if err := setDuration(&cfg.RecoveryTTL, "RECOVERY_TTL"); err != nil {
		return err
	}
	if err := setInt(&cfg.MaxFailedAttempts, "MAX_FAILED_ATTEMPTS"); err != nil {
		return err
	}
	if err := setInt(&cfg.BcryptCost, "BCRYPT_COST"); err != nil {
		return err
	}
	if err := setInt(&cfg.HashConcurrency, "HASH_CONCURRENCY"); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("TRUST_PROXY_HEADERS"); ok {
		cfg.TrustProxyHeaders = v == "true"
	}
	if v, ok := os.LookupEnv("DEV_MODE"); ok {
		cfg.DevMode = v == "true"
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
