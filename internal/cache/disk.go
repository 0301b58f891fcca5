package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DiskCache keeps one JSON file per key under dir.
type DiskCache struct {
	dir string
	ttl time.Duration
}

// NewDiskCache creates a new disk cache
func NewDiskCache(dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{
		dir: dir,
		ttl: ttl,
	}
}

type cacheEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Get returns the entry for key unless it is missing, unreadable or
// expired. Expired files are removed.
func (c *DiskCache) Get(key string) ([]byte, bool) {
	path := c.path(key)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false
	}

	return entry.Data, true
}

// Set stores value under key; a zero ttl uses the cache default.
func (c *DiskCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}

	data, err := json.Marshal(cacheEntry{
		Data:      value,
		ExpiresAt: time.Now().Add(ttl),
	})
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	// Write then rename so concurrent batch workers never read half a file.
	tmp, err := os.CreateTemp(c.dir, ".entry-*")
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cache file: %w", err)
	}

	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (c *DiskCache) Delete(key string) error {
	err := os.Remove(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Clear removes all cached files
func (c *DiskCache) Clear() error {
	return os.RemoveAll(c.dir)
}

// Dir returns the directory entries are kept in.
func (c *DiskCache) Dir() string {
	return c.dir
}

// DiskStats summarizes the entries on disk.
type DiskStats struct {
	Entries int
	Expired int
	Bytes   int64
}

// Stats counts the entries under the cache directory. A missing directory
// is an empty cache.
func (c *DiskCache) Stats() (DiskStats, error) {
	var stats DiskStats
	now := time.Now()
	err := c.eachEntry(func(path string, info fs.FileInfo, entry *cacheEntry) error {
		stats.Entries++
		stats.Bytes += info.Size()
		if entry == nil || now.After(entry.ExpiresAt) {
			stats.Expired++
		}
		return nil
	})
	return stats, err
}

// Prune removes expired and unreadable entries along with temp files left
// by interrupted writes. It returns the number of files removed.
func (c *DiskCache) Prune() (int, error) {
	removed := 0
	now := time.Now()
	err := c.eachEntry(func(path string, _ fs.FileInfo, entry *cacheEntry) error {
		if entry != nil && !now.After(entry.ExpiresAt) {
			return nil
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, err
	}

	temps, _ := filepath.Glob(filepath.Join(c.dir, ".entry-*"))
	for _, tmp := range temps {
		if err := os.Remove(tmp); err == nil {
			removed++
		}
	}
	return removed, nil
}

// eachEntry calls fn for every entry file; entry is nil when the file
// cannot be decoded.
func (c *DiskCache) eachEntry(fn func(path string, info fs.FileInfo, entry *cacheEntry) error) error {
	files, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cache dir: %w", err)
	}

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".cache") {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(c.dir, f.Name())

		var entry *cacheEntry
		if data, err := os.ReadFile(path); err == nil {
			var e cacheEntry
			if json.Unmarshal(data, &e) == nil {
				entry = &e
			}
		}
		if err := fn(path, info, entry); err != nil {
			return err
		}
	}
	return nil
}

// path maps a key to its file; the colons of the key prefix are not
// portable in file names.
func (c *DiskCache) path(key string) string {
	return filepath.Join(c.dir, strings.ReplaceAll(key, ":", "_")+".cache")
}
