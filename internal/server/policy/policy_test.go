package policy

import (
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/safepazz/internal/common"
	"github.com/dmitrijs2005/safepazz/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestEmail(t *testing.T) {
	tests := []struct {
		email string
		want  error
	}{
		{"a@b.com", nil},
		{"first.last@sub.example.org", nil},
		{"", common.ErrInvalidEmailFormat},
		{"no-at.example.com", common.ErrInvalidEmailFormat},
		{"a@b", common.ErrInvalidEmailFormat},
		{"a b@c.com", common.ErrInvalidEmailFormat},
		{strings.Repeat("x", 250) + "@b.com", common.ErrEmailTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, Email(tt.email))
		})
	}
}

func TestMasterPassword_Order(t *testing.T) {
	tests := []struct {
		name string
		pw   string
		want error
	}{
		{"valid", "Str0ng!Passw0rd", nil},
		{"too short wins over everything", "abc", common.ErrMasterPasswordTooShort},
		{"missing upper", "str0ng!passw0rd", common.ErrMasterPasswordMissingUppercase},
		{"missing lower", "STR0NG!PASSW0RD", common.ErrMasterPasswordMissingLowercase},
		{"missing number", "Strong!Password", common.ErrMasterPasswordMissingNumber},
		{"missing special", "Str0ngPassw0rd", common.ErrMasterPasswordMissingSpecialChar},
		{"obvious password", "My!PASSWORD-is-9", common.ErrMasterPasswordTooObvious},
		{"obvious digits", "Xy!z123456abc", common.ErrMasterPasswordTooObvious},
		{"obvious letters", "AbcDef!9XyzQ", common.ErrMasterPasswordTooObvious},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MasterPassword(tt.pw))
		})
	}
}

func TestNewMasterPassword(t *testing.T) {
	assert.NoError(t, NewMasterPassword("Str0ng!Passw0rd", "Str0ng!Passw0rd"))
	assert.Equal(t, common.ErrPasswordConfirmationMismatch, NewMasterPassword("Str0ng!Passw0rd", "other"))
	assert.Equal(t, common.ErrMasterPasswordTooShort, NewMasterPassword("short", "other"))
}

func TestSecurityQuestionAndAnswer(t *testing.T) {
	assert.Equal(t, common.ErrSecurityQuestionRequired, SecurityQuestion("   "))
	assert.NoError(t, SecurityQuestion("pet name"))

	assert.Equal(t, common.ErrSecurityAnswerTooShort, SecurityAnswer("ab"))
	assert.NoError(t, SecurityAnswer("Rex"))
	assert.NoError(t, SecurityAnswer(strings.Repeat("a", 100)))
	assert.Equal(t, common.ErrSecurityAnswerTooLong, SecurityAnswer(strings.Repeat("a", 101)))
}

func TestPhone(t *testing.T) {
	assert.NoError(t, Phone(false, nil))
	assert.NoError(t, Phone(false, ptr("garbage")))
	assert.Equal(t, common.ErrPhoneRequiredForTwoFactor, Phone(true, nil))
	assert.Equal(t, common.ErrPhoneRequiredForTwoFactor, Phone(true, ptr("")))
	assert.Equal(t, common.ErrInvalidPhoneFormat, Phone(true, ptr("0123")))
	assert.Equal(t, common.ErrInvalidPhoneFormat, Phone(true, ptr("+1 555 0100")))
	assert.NoError(t, Phone(true, ptr("+15550100")))
}

func TestInactivityTimeout(t *testing.T) {
	got, err := InactivityTimeout(nil)
	require.NoError(t, err)
	assert.Equal(t, 15, got)

	_, err = InactivityTimeout(ptr(0))
	assert.Equal(t, common.ErrInvalidInactivityTimeout, err)

	got, err = InactivityTimeout(ptr(1))
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = InactivityTimeout(ptr(60))
	require.NoError(t, err)
	assert.Equal(t, 60, got)

	_, err = InactivityTimeout(ptr(61))
	assert.Equal(t, common.ErrInvalidInactivityTimeout, err)

	_, err = InactivityTimeout(ptr(-1))
	assert.Equal(t, common.ErrInvalidInactivityTimeout, err)
}

func TestURL(t *testing.T) {
	assert.NoError(t, URL(""))
	assert.NoError(t, URL("https://example.com/login"))
	assert.NoError(t, URL("mailto:a@b.com"))
	assert.Equal(t, common.ErrInvalidURL, URL("example.com"))
	assert.Equal(t, common.ErrInvalidURL, URL("https://"))
	assert.Equal(t, common.ErrInvalidURL, URL("http://[::1"))
	assert.Equal(t, common.ErrURLTooLong, URL("https://example.com/"+strings.Repeat("a", 2048)))
}

func TestCredentialInput(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	valid := func() models.CredentialInput {
		return models.CredentialInput{Title: "Bank", Password: "hunter2"}
	}

	tests := []struct {
		name   string
		mutate func(*models.CredentialInput)
		want   error
	}{
		{"valid", func(*models.CredentialInput) {}, nil},
		{"blank title", func(in *models.CredentialInput) { in.Title = "  " }, common.ErrTitleRequired},
		{"long title", func(in *models.CredentialInput) { in.Title = strings.Repeat("t", 101) }, common.ErrTitleTooLong},
		{"blank password", func(in *models.CredentialInput) { in.Password = "" }, common.ErrPasswordRequired},
		{"long password", func(in *models.CredentialInput) { in.Password = strings.Repeat("p", 256) }, common.ErrPasswordTooLong},
		{"long username", func(in *models.CredentialInput) { in.Username = strings.Repeat("u", 256) }, common.ErrUsernameTooLong},
		{"bad url", func(in *models.CredentialInput) { in.URL = "not a url" }, common.ErrInvalidURL},
		{"long notes", func(in *models.CredentialInput) { in.Notes = strings.Repeat("n", 5001) }, common.ErrNotesTooLong},
		{"past expiration", func(in *models.CredentialInput) { in.ExpirationDate = &past }, common.ErrExpirationDateMustBeFuture},
		{"expiration now", func(in *models.CredentialInput) { in.ExpirationDate = &now }, common.ErrExpirationDateMustBeFuture},
		{"future expiration", func(in *models.CredentialInput) { in.ExpirationDate = &future }, nil},
		{"title checked first", func(in *models.CredentialInput) { in.Title = ""; in.Password = "" }, common.ErrTitleRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			assert.Equal(t, tt.want, CredentialInput(&in, now))
		})
	}
}

func TestCredentialPatch(t *testing.T) {
	now := time.Now()

	assert.NoError(t, CredentialPatch(&models.CredentialPatch{}, now))
	assert.NoError(t, CredentialPatch(&models.CredentialPatch{Username: ptr(""), URL: ptr("")}, now))
	assert.NoError(t, CredentialPatch(&models.CredentialPatch{ExpirationDate: &time.Time{}}, now))

	assert.Equal(t, common.ErrTitleRequired, CredentialPatch(&models.CredentialPatch{Title: ptr("")}, now))
	assert.Equal(t, common.ErrPasswordRequired, CredentialPatch(&models.CredentialPatch{Password: ptr(" ")}, now))

	past := now.Add(-time.Minute)
	assert.Equal(t, common.ErrExpirationDateMustBeFuture,
		CredentialPatch(&models.CredentialPatch{ExpirationDate: &past}, now))
}
