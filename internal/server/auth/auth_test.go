package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/safepazz/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	t.Parallel()

	i, err := NewTokenIssuer([]byte("super-secret"))
	require.NoError(t, err)

	now := time.Now()
	tok, err := i.Issue("user-123", now, now.Add(time.Hour))
	require.NoError(t, err)

	claims, err := i.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenIssuer_UniqueTokens(t *testing.T) {
	t.Parallel()

	i, err := NewTokenIssuer([]byte("secret"))
	require.NoError(t, err)

	now := time.Now()
	a, err := i.Issue("u1", now, now.Add(time.Hour))
	require.NoError(t, err)
	b, err := i.Issue("u1", now, now.Add(time.Hour))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestTokenIssuer_ExpiredTokenStillParses(t *testing.T) {
	t.Parallel()

	i, err := NewTokenIssuer([]byte("secret"))
	require.NoError(t, err)

	past := time.Now().Add(-48 * time.Hour)
	tok, err := i.Issue("u1", past, past.Add(time.Hour))
	require.NoError(t, err)

	claims, err := i.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	t.Parallel()

	right, err := NewTokenIssuer([]byte("right-secret"))
	require.NoError(t, err)
	wrong, err := NewTokenIssuer([]byte("wrong-secret"))
	require.NoError(t, err)

	now := time.Now()
	tok, err := right.Issue("u1", now, now.Add(time.Hour))
	require.NoError(t, err)

	_, err = wrong.Parse(tok)
	assert.ErrorIs(t, err, common.ErrInvalidSession)

	_, err = right.Parse("garbage")
	assert.ErrorIs(t, err, common.ErrInvalidSession)

	_, err = right.Parse(tok + "x")
	assert.ErrorIs(t, err, common.ErrInvalidSession)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = right.Parse(unsigned)
	assert.ErrorIs(t, err, common.ErrInvalidSession)
}

func TestNewTokenIssuer_EmptySecret(t *testing.T) {
	_, err := NewTokenIssuer(nil)
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestWellFormedCode(t *testing.T) {
	assert.True(t, WellFormedCode("123456"))
	assert.False(t, WellFormedCode("12345"))
	assert.False(t, WellFormedCode("1234567"))
	assert.False(t, WellFormedCode("12a456"))
	assert.False(t, WellFormedCode(""))
}

func TestTOTPVerifier(t *testing.T) {
	v := NewTOTPVerifier("SafePazz")

	secret, uri, err := v.Enroll("a@b.com")
	require.NoError(t, err)
	assert.NotEmpty(t, secret)
	assert.True(t, strings.HasPrefix(uri, "otpauth://totp/"))
	assert.Contains(t, uri, "issuer=SafePazz")

	at := time.Date(2025, 5, 5, 12, 0, 0, 0, time.UTC)
	code, err := v.Code(secret, at)
	require.NoError(t, err)

	assert.True(t, v.Verify(secret, code, at))
	assert.True(t, v.Verify(secret, code, at.Add(30*time.Second)), "one period of skew")
	assert.False(t, v.Verify(secret, code, at.Add(5*time.Minute)))
	assert.False(t, v.Verify(secret, "abcdef", at))
	assert.False(t, v.Verify("not-base32!", "123456", at))
}
