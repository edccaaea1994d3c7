package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cache is a file-backed snapshot cache with a TTL. Entries are keyed by
// the SHA-256 of the page URL.
type Cache struct {
	dir string
	ttl time.Duration
}

// NewCache creates the cache directory if it does not exist.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir, ttl: ttl}, nil
}

func (c *Cache) key(pageURL string) string {
	hash := sha256.Sum256([]byte(pageURL))
	return fmt.Sprintf("%x", hash)
}

// Get returns the cached snapshot and true when present and not expired.
func (c *Cache) Get(pageURL string) ([]byte, bool) {
	path := filepath.Join(c.dir, c.key(pageURL))

	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) > c.ttl {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores a snapshot for the page URL.
func (c *Cache) Set(pageURL string, data []byte) error {
	path := filepath.Join(c.dir, c.key(pageURL))
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}
