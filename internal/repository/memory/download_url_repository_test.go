package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDownloadURLRepository(t *testing.T) {
	r := NewDownloadURLRepository(time.Minute)

	fresh := DownloadURL{URL: "https://bucket/k?signature=a", ExpiresAt: time.Now().Add(15 * time.Minute)}
	r.Save("message", "k", fresh)

	got, ok := r.Get("message", "k")
	assert.True(t, ok)
	assert.Equal(t, fresh.URL, got.URL)

	// Same key under another kind is a different entry.
	_, ok = r.Get("chatbot", "k")
	assert.False(t, ok)

	r.Delete("message", "k")
	_, ok = r.Get("message", "k")
	assert.False(t, ok)

	// Too close to expiry to be worth caching.
	r.Save("message", "late", DownloadURL{URL: "x", ExpiresAt: time.Now().Add(30 * time.Second)})
	_, ok = r.Get("message", "late")
	assert.False(t, ok)
}
