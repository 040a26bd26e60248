// Package cryptox holds the server's cryptographic primitives: slow one-way
// hashing of master passwords and security answers, and authenticated
// encryption of stored credential secrets.
package cryptox

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/safepazz/internal/common"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// Hasher computes and verifies bcrypt hashes. The number of hashing
// operations running at once is bounded so that bursts of logins cannot
// starve the rest of the process of CPU.
type Hasher struct {
	cost int
	sem  *semaphore.Weighted

	dummyOnce sync.Once
	dummy     []byte
}

// NewHasher returns a Hasher using the given bcrypt cost and allowing at most
// concurrency simultaneous hash computations (minimum 1).
func NewHasher(cost, concurrency int) *Hasher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Hasher{cost: cost, sem: semaphore.NewWeighted(int64(concurrency))}
}

// prehash maps a secret of any length to 44 bytes, below bcrypt's 72 byte
// input limit.
func prehash(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

// Hash returns the bcrypt hash of secret. It blocks while the concurrency
// limit is reached and gives up when ctx is done.
func (h *Hasher) Hash(ctx context.Context, secret string) ([]byte, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer h.sem.Release(1)

	input := prehash(secret)
	defer common.WipeByteArray(input)

	hash, err := bcrypt.GenerateFromPassword(input, h.cost)
	if err != nil {
		return nil, fmt.Errorf("bcrypt: %w", err)
	}
	return hash, nil
}

// Compare reports whether secret matches hash. A mismatch is not an error;
// a malformed hash is.
func (h *Hasher) Compare(ctx context.Context, hash []byte, secret string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	input := prehash(secret)
	defer common.WipeByteArray(input)

	err := bcrypt.CompareHashAndPassword(hash, input)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("bcrypt: %w", err)
	}
}

// CompareDummy spends the same time as a real Compare without any stored
// hash. Login uses it for unknown accounts so timing does not reveal which
// emails are registered.
func (h *Hasher) CompareDummy(ctx context.Context, secret string) {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("safepazz-dummy-secret"), h.cost)
	})
	_, _ = h.Compare(ctx, h.dummy, secret)
}
