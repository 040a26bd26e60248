package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/safepazz/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN; empty keeps in-memory storage
//	-s string   session token signing key
//	-k string   credential encryption key
//	-t int      session lifetime, minutes
//	-r int      recovery token lifetime, minutes
//	-m int      failed logins before lockout
//	-b int      bcrypt cost
//	-dev        development mode
//
// Arguments are first filtered with flagx.FilterArgs so flags owned by other
// components (such as -c) do not cause parse errors.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-k", "-t", "-r", "-m", "-b", "-dev"})

	fs := flag.NewFlagSet("safepazz", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "session token signing key")
	fs.StringVar(&config.EncryptionKey, "k", config.EncryptionKey, "credential encryption key")

	sessionTTL := fs.Int("t", int(config.SessionTTL.Minutes()), "session lifetime (in minutes)")
	recoveryTTL := fs.Int("r", int(config.RecoveryTTL.Minutes()), "recovery token lifetime (in minutes)")

	fs.IntVar(&config.MaxFailedAttempts, "m", config.MaxFailedAttempts, "failed logins before lockout")
	fs.IntVar(&config.BcryptCost, "b", config.BcryptCost, "bcrypt cost")
	fs.BoolVar(&config.DevMode, "dev", config.DevMode, "development mode")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
	config.RecoveryTTL = time.Duration(*recoveryTTL) * time.Minute
	return nil
}
