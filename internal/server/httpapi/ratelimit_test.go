package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIPRateLimiter_PerKeyBuckets(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(60, 2)
	l.Now = func() time.Time { return now }

	assert.True(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("2.2.2.2"), "other addresses have their own bucket")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("1.1.1.1"), "one token per second refills")
}

func TestIPRateLimiter_SweepsIdleEntries(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(60, 2)
	l.Now = func() time.Time { return now }

	l.Allow("1.1.1.1")
	l.Allow("2.2.2.2")
	assert.Equal(t, 2, l.size())

	now = now.Add(11 * time.Minute)
	l.Allow("3.3.3.3")
	assert.Equal(t, 1, l.size())
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.1.2.3:5555"
	assert.Equal(t, "10.1.2.3", clientIP(r))

	r.RemoteAddr = "10.1.2.3"
	assert.Equal(t, "10.1.2.3", clientIP(r))
}
