// Package policy holds the input rules of SafePazz: account registration,
// the master password policy and credential record limits. Every check
// returns a sentinel from the common package and the first failing check
// wins.
package policy

import (
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/safepazz/internal/common"
	"github.com/dmitrijs2005/safepazz/internal/server/models"
)

const (
	MaxEmailLength          = 255
	MinMasterPasswordLength = 12
	MinSecurityAnswerLength = 3
	MaxSecurityAnswerLength = 100
	MinInactivityTimeout    = 1
	MaxInactivityTimeout    = 60

	MaxTitleLength    = 100
	MaxSecretLength   = 255
	MaxUsernameLength = 255
	MaxURLLength      = 2048
	MaxNotesLength    = 5000
)

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern   = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
	upperPattern   = regexp.MustCompile(`[A-Z]`)
	lowerPattern   = regexp.MustCompile(`[a-z]`)
	digitPattern   = regexp.MustCompile(`[0-9]`)
	specialPattern = regexp.MustCompile(`[^A-Za-z0-9]`)
	obviousPattern = regexp.MustCompile(`(?i)123456|abcdef|password`)
)

func length(s string) int {
	return utf8.RuneCountInString(s)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Email checks the address shape (local@domain.tld) and its length.
func Email(email string) error {
	if !emailPattern.MatchString(email) {
		return common.ErrInvalidEmailFormat
	}
	if length(email) > MaxEmailLength {
		return common.ErrEmailTooLong
	}
	return nil
}

// MasterPassword applies the master password policy shared by registration
// and recovery.
func MasterPassword(pw string) error {
	switch {
	case length(pw) < MinMasterPasswordLength:
		return common.ErrMasterPasswordTooShort
	case !upperPattern.MatchString(pw):
		return common.ErrMasterPasswordMissingUppercase
	case !lowerPattern.MatchString(pw):
		return common.ErrMasterPasswordMissingLowercase
	case !digitPattern.MatchString(pw):
		return common.ErrMasterPasswordMissingNumber
	case !specialPattern.MatchString(pw):
		return common.ErrMasterPasswordMissingSpecialChar
	case obviousPattern.MatchString(pw):
		return common.ErrMasterPasswordTooObvious
	}
	return nil
}

// NewMasterPassword runs the policy and then compares the confirmation.
func NewMasterPassword(pw, confirm string) error {
	if err := MasterPassword(pw); err != nil {
		return err
	}
	if pw != confirm {
		return common.ErrPasswordConfirmationMismatch
	}
	return nil
}

func SecurityQuestion(q string) error {
	if blank(q) {
		return common.ErrSecurityQuestionRequired
	}
	return nil
}

func SecurityAnswer(a string) error {
	n := length(a)
	if n < MinSecurityAnswerLength {
		return common.ErrSecurityAnswerTooShort
	}
	if n > MaxSecurityAnswerLength {
		return common.ErrSecurityAnswerTooLong
	}
	return nil
}

// Phone is only checked when two-factor authentication is requested.
func Phone(twoFactor bool, phone *string) error {
	if !twoFactor {
		return nil
	}
	if phone == nil || *phone == "" {
		return common.ErrPhoneRequiredForTwoFactor
	}
	if !phonePattern.MatchString(*phone) {
		return common.ErrInvalidPhoneFormat
	}
	return nil
}

// InactivityTimeout resolves the requested timeout in minutes. Nil selects
// the default; any given value must lie within the allowed range.
func InactivityTimeout(minutes *int) (int, error) {
	if minutes == nil {
		return common.DefaultInactivityTimeout, nil
	}
	if *minutes < MinInactivityTimeout || *minutes > MaxInactivityTimeout {
		return 0, common.ErrInvalidInactivityTimeout
	}
	return *minutes, nil
}

func Title(title string) error {
	if blank(title) {
		return common.ErrTitleRequired
	}
	if length(title) > MaxTitleLength {
		return common.ErrTitleTooLong
	}
	return nil
}

// Secret validates the plaintext of a stored credential.
func Secret(pw string) error {
	if blank(pw) {
		return common.ErrPasswordRequired
	}
	if length(pw) > MaxSecretLength {
		return common.ErrPasswordTooLong
	}
	return nil
}

func Username(name string) error {
	if length(name) > MaxUsernameLength {
		return common.ErrUsernameTooLong
	}
	return nil
}

// URL accepts an empty string. Otherwise the value must be absolute and, for
// http and https, carry a host.
func URL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return common.ErrInvalidURL
	}
	if (u.Scheme == "http" || u.Scheme == "https") && u.Host == "" {
		return common.ErrInvalidURL
	}
	if length(raw) > MaxURLLength {
		return common.ErrURLTooLong
	}
	return nil
}

func Notes(notes string) error {
	if length(notes) > MaxNotesLength {
		return common.ErrNotesTooLong
	}
	return nil
}

// ExpirationDate requires a set expiration to be strictly after now.
func ExpirationDate(exp *time.Time, now time.Time) error {
	if exp == nil || exp.IsZero() {
		return nil
	}
	if !exp.After(now) {
		return common.ErrExpirationDateMustBeFuture
	}
	return nil
}

// CredentialInput validates a new credential record.
func CredentialInput(in *models.CredentialInput, now time.Time) error {
	checks := []func() error{
		func() error { return Title(in.Title) },
		func() error { return Secret(in.Password) },
		func() error { return Username(in.Username) },
		func() error { return URL(in.URL) },
		func() error { return Notes(in.Notes) },
		func() error { return ExpirationDate(in.ExpirationDate, now) },
	}
	return firstError(checks)
}

// CredentialPatch validates only the fields present in p.
func CredentialPatch(p *models.CredentialPatch, now time.Time) error {
	var checks []func() error
	if p.Title != nil {
		checks = append(checks, func() error { return Title(*p.Title) })
	}
	if p.Username != nil {
		checks = append(checks, func() error { return Username(*p.Username) })
	}
	if p.Password != nil {
		checks = append(checks, func() error { return Secret(*p.Password) })
	}
	if p.URL != nil {
		checks = append(checks, func() error { return URL(*p.URL) })
	}
	if p.Notes != nil {
		checks = append(checks, func() error { return Notes(*p.Notes) })
	}
	checks = append(checks, func() error { return ExpirationDate(p.ExpirationDate, now) })
	return firstError(checks)
}

func firstError(checks []func() error) error {
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}
