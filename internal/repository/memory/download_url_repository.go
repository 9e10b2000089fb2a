package memory

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

type DownloadURL struct {
	URL       string
	ExpiresAt time.Time
}

// DownloadURLRepository caches issued download URLs per storage key so
// repeated requests for the same file return the same signed URL until it is
// close to expiring.
type DownloadURLRepository struct {
	cache *cache.Cache
	// URLs are dropped this long before they actually expire
	margin time.Duration
}

func NewDownloadURLRepository(margin time.Duration) *DownloadURLRepository {
	// Expired items are purged every 5 minutes
	c := cache.New(cache.NoExpiration, 5*time.Minute)
	return &DownloadURLRepository{
		cache:  c,
		margin: margin,
	}
}

func (r *DownloadURLRepository) Save(kind string, key string, url DownloadURL) {
	ttl := time.Until(url.ExpiresAt) - r.margin
	if ttl <= 0 {
		return
	}
	r.cache.Set(cacheKey(kind, key), url, ttl)
}

func (r *DownloadURLRepository) Get(kind string, key string) (DownloadURL, bool) {
	if x, found := r.cache.Get(cacheKey(kind, key)); found {
		return x.(DownloadURL), true
	}
	return DownloadURL{}, false
}

func (r *DownloadURLRepository) Delete(kind string, key string) {
	r.cache.Delete(cacheKey(kind, key))
}

func cacheKey(kind, key string) string {
	return fmt.Sprintf("%s:%s", kind, key)
}
