// Package cache stores raw ITIS responses so repeated builds of the same
// taxonomy do not hit the service again.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/mdwiz/mdwiz/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// keyPrefix is bumped whenever the cached representation changes.
const keyPrefix = "mdwiz:itis:v1:"

// CacheKey derives a key from a request URL including its query.
func CacheKey(requestURL string) string {
	hash := sha256.Sum256([]byte(requestURL))
	return keyPrefix + hex.EncodeToString(hash[:])
}

// New builds the cache described by cfg: nil when disabled, memory only
// when no directory is set, memory over disk otherwise.
func New(cfg model.CacheConfig) Cache {
	switch {
	case !cfg.Enabled:
		return nil
	case cfg.Dir == "":
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	default:
		return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
	}
}

// OpenDisk returns the disk layer described by cfg, or nil when responses
// are kept in memory only.
func OpenDisk(cfg model.CacheConfig) *DiskCache {
	if cfg.Dir == "" {
		return nil
	}
	return NewDiskCache(cfg.Dir, cfg.DiskTTL)
}
