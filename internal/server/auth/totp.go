package auth

import (
	"fmt"
	"regexp"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

var codePattern = regexp.MustCompile(`^\d{6}$`)

// WellFormedCode reports whether code has the shape of a six digit one-time
// password. It is a cheap guard run before any verification.
func WellFormedCode(code string) bool {
	return codePattern.MatchString(code)
}

// TwoFactorVerifier enrolls accounts and checks their one-time codes.
type TwoFactorVerifier interface {
	// Enroll creates a new shared secret for account and returns it together
	// with a provisioning URI for authenticator apps.
	Enroll(account string) (secret string, uri string, err error)
	Verify(secret, code string, at time.Time) bool
}

// TOTPVerifier implements TwoFactorVerifier with RFC 6238 time-based codes.
type TOTPVerifier struct {
	Issuer string
	// Skew is the number of 30 second periods accepted on either side.
	Skew uint
}

func NewTOTPVerifier(issuer string) *TOTPVerifier {
	return &TOTPVerifier{Issuer: issuer, Skew: 1}
}

func (v *TOTPVerifier) opts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    30,
		Skew:      v.Skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

func (v *TOTPVerifier) Enroll(account string) (string, string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      v.Issuer,
		AccountName: account,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", fmt.Errorf("error generating OTP secret: %w", err)
	}
	return key.Secret(), key.URL(), nil
}

func (v *TOTPVerifier) Verify(secret, code string, at time.Time) bool {
	if !WellFormedCode(code) {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, at, v.opts())
	return err == nil && ok
}

// Code returns the code valid for secret at the given time.
func (v *TOTPVerifier) Code(secret string, at time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, at, v.opts())
}
