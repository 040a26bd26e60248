// Package config handles configuration for the SafePazz server: defaults,
// environment variables (optionally from a .env file), a JSON overlay and
// command-line flags, applied in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config holds runtime settings for the SafePazz server.
//
// Fields:
//   - HTTPAddr: bind address of the HTTP API.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects in-memory storage.
//   - SecretKey: HMAC secret for signing session tokens (HS256).
//   - EncryptionKey / EncryptionSalt: inputs to the argon2id derivation of
//     the key that seals stored credential secrets and TOTP secrets.
//   - SessionTTL / RecoveryTTL: lifetime of sessions and recovery tokens.
//   - MaxFailedAttempts: consecutive wrong master passwords before lockout.
//   - ExpiringSoonWindow: look-ahead used to flag credentials about to expire.
//   - BcryptCost / HashConcurrency: hashing cost and parallelism bound.
//   - TOTPIssuer: issuer shown in authenticator apps.
//   - LoginRateLimit / LoginRateBurst: per-IP requests per minute on login
//     and recovery routes.
//   - ReadHeaderTimeout: time allowed to read request headers.
//   - ShutdownTimeout: grace period for in-flight requests on shutdown.
//   - TrustProxyHeaders: take the client address from X-Forwarded-For,
//     X-Real-IP or True-Client-IP. Only enable behind a proxy that sets
//     them, otherwise clients choose their own address.
//   - DevMode: exposes internal error messages and recovery tokens. Never
//     enable in production.
type Config struct {
	HTTPAddr           string
	DatabaseDSN        string
	SecretKey          string
	EncryptionKey      string
	EncryptionSalt     string
	SessionTTL         time.Duration
	RecoveryTTL        time.Duration
	MaxFailedAttempts  int
	ExpiringSoonWindow time.Duration
	BcryptCost         int
	HashConcurrency    int
	TOTPIssuer         string
	LoginRateLimit     int
	LoginRateBurst     int
	ReadHeaderTimeout  time.Duration
	ShutdownTimeout    time.Duration
	TrustProxyHeaders  bool
	DevMode            bool
}

// Development keys set by LoadDefaults.
const (
	defaultSecretKey     = "secretKey"
	defaultEncryptionKey = "encryptionKey"
)

// LoadDefaults populates Config with development defaults.
// The keys are only accepted by Validate in dev mode.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.DatabaseDSN = ""
	c.SecretKey = defaultSecretKey
	c.EncryptionKey = defaultEncryptionKey
	c.EncryptionSalt = "safepazz"
	c.SessionTTL = 24 * time.Hour
	c.RecoveryTTL = 24 * time.Hour
	c.MaxFailedAttempts = 5
	c.ExpiringSoonWindow = 7 * 24 * time.Hour
	c.BcryptCost = 10
	c.HashConcurrency = runtime.NumCPU()
	c.TOTPIssuer = "SafePazz"
	c.LoginRateLimit = 30
	c.LoginRateBurst = 10
	c.ReadHeaderTimeout = 5 * time.Second
	c.ShutdownTimeout = 10 * time.Second
	c.TrustProxyHeaders = false
	c.DevMode = false
}

// Validate reports settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is required"))
	}
	if c.EncryptionKey == "" {
		errs = append(errs, errors.New("encryption key is required"))
	}
	if !c.DevMode && (c.SecretKey == defaultSecretKey || c.EncryptionKey == defaultEncryptionKey) {
		errs = append(errs, errors.New("default secret and encryption keys are only allowed in dev mode"))
	}
	if c.ReadHeaderTimeout <= 0 {
		errs = append(errs, errors.New("read header timeout must be positive"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("session ttl must be positive"))
	}
	if c.RecoveryTTL <= 0 {
		errs = append(errs, errors.New("recovery ttl must be positive"))
	}
	if c.MaxFailedAttempts < 1 {
		errs = append(errs, errors.New("max failed attempts must be at least 1"))
	}
	if c.LoginRateLimit < 1 || c.LoginRateBurst < 1 {
		errs = append(errs, errors.New("login rate limit and burst must be at least 1"))
	}
	if c.HashConcurrency < 1 {
		errs = append(errs, errors.New("hash concurrency must be at least 1"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be within [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost))
	}
	return errors.Join(errs...)
}

// LoadConfig builds a Config by applying defaults, then environment
// variables, then an optional JSON file and finally command-line flags.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg); err != nil {
		return nil, fmt.Errorf("env: %w", err)
	}
	if err := parseJSON(cfg, args); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
