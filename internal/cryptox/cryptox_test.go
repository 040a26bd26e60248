package cryptox

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndCompare(t *testing.T) {
	h := NewHasher(bcrypt.MinCost, 2)
	ctx := context.Background()

	hash, err := h.Hash(ctx, "Str0ng!Passw0rd")
	require.NoError(t, err)

	ok, err := h.Compare(ctx, hash, "Str0ng!Passw0rd")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Compare(ctx, hash, "str0ng!Passw0rd")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_LongSecretsAreNotTruncated(t *testing.T) {
	h := NewHasher(bcrypt.MinCost, 1)
	ctx := context.Background()

	base := strings.Repeat("a", 80)
	hash, err := h.Hash(ctx, base+"X")
	require.NoError(t, err)

	ok, err := h.Compare(ctx, hash, base+"Y")
	require.NoError(t, err)
	assert.False(t, ok, "secrets differing after byte 72 must not match")
}

func TestHasher_MalformedHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost, 1)
	_, err := h.Compare(context.Background(), []byte("not-a-hash"), "x")
	assert.Error(t, err)
}

func TestHasher_CancelledContext(t *testing.T) {
	h := NewHasher(bcrypt.MinCost, 1)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, h.sem.Acquire(context.Background(), 1))
	defer h.sem.Release(1)
	cancel()

	_, err := h.Hash(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHasher_CompareDummy(t *testing.T) {
	h := NewHasher(bcrypt.MinCost, 1)
	h.CompareDummy(context.Background(), "anything")
	assert.NotEmpty(t, h.dummy)
}

func TestDeriveKey_Deterministic(t *testing.T) {
	k1 := DeriveKey([]byte("secret"), []byte("salt-1"))
	k2 := DeriveKey([]byte("secret"), []byte("salt-1"))
	k3 := DeriveKey([]byte("secret"), []byte("salt-2"))

	assert.Len(t, k1, 32)
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}

func TestSealer_RoundTrip(t *testing.T) {
	s, err := NewSealer([]byte("server-key"), []byte("salt"))
	require.NoError(t, err)

	aad := []byte("user-1|cred-1")
	sealed, err := s.Seal([]byte("hunter2"), aad)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(sealed, []byte("hunter2")))

	plain, err := s.Open(sealed, aad)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", string(plain))
}

func TestSealer_FreshNoncePerSeal(t *testing.T) {
	s, err := NewSealer([]byte("server-key"), []byte("salt"))
	require.NoError(t, err)

	a, err := s.Seal([]byte("same"), nil)
	require.NoError(t, err)
	b, err := s.Seal([]byte("same"), nil)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSealer_RejectsTamperingAndWrongAAD(t *testing.T) {
	s, err := NewSealer([]byte("server-key"), []byte("salt"))
	require.NoError(t, err)

	sealed, err := s.Seal([]byte("hunter2"), []byte("owner-a"))
	require.NoError(t, err)

	_, err = s.Open(sealed, []byte("owner-b"))
	assert.Error(t, err)

	tampered := append([]byte(nil), sealed...)
	tampered[len(tampered)-1] ^= 0xff
	_, err = s.Open(tampered, []byte("owner-a"))
	assert.Error(t, err)

	_, err = s.Open(sealed[:4], []byte("owner-a"))
	assert.ErrorIs(t, err, ErrMalformedCiphertext)
}

func TestSealer_DifferentKeysCannotOpen(t *testing.T) {
	s1, err := NewSealer([]byte("key-1"), []byte("salt"))
	require.NoError(t, err)
	s2, err := NewSealer([]byte("key-2"), []byte("salt"))
	require.NoError(t, err)

	sealed, err := s1.Seal([]byte("x"), nil)
	require.NoError(t, err)
	_, err = s2.Open(sealed, nil)
	assert.Error(t, err)
}

func TestNewSealer_EmptyKey(t *testing.T) {
	_, err := NewSealer(nil, []byte("salt"))
	assert.ErrorIs(t, err, ErrEmptyKey)
}
