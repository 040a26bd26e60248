package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"

	"github.com/dmitrijs2005/safepazz/internal/common"
	"golang.org/x/crypto/argon2"
)

var (
	ErrEmptyKey            = errors.New("encryption key is empty")
	ErrMalformedCiphertext = errors.New("malformed ciphertext")
)

// DeriveKey stretches a configured secret into a 256-bit AES key with
// argon2id.
func DeriveKey(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, 32)
}

// Sealer encrypts and decrypts small secrets with AES-256-GCM.
//
// Sealed output is nonce || ciphertext || tag. The associated data passed to
// Seal must be passed unchanged to Open; binding it to the owning record
// prevents a ciphertext from being replayed into another record.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives the key from secret and salt and prepares the cipher.
// The key itself is never persisted.
func NewSealer(secret, salt []byte) (*Sealer, error) {
	if len(secret) == 0 {
		return nil, ErrEmptyKey
	}

	key := DeriveKey(secret, salt)
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext, authenticating aad alongside it.
func (s *Sealer) Seal(plaintext, aad []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, plaintext, aad), nil
}

// Open reverses Seal. It fails if sealed was tampered with or aad differs.
func (s *Sealer) Open(sealed, aad []byte) ([]byte, error) {
	ns := s.aead.NonceSize()
	if len(sealed) < ns+s.aead.Overhead() {
		return nil, ErrMalformedCiphertext
	}
	return s.aead.Open(nil, sealed[:ns], sealed[ns:], aad)
}
