package scanner

import (
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheEntry struct {
	size    int64
	modTime time.Time
	charset string
}

// DetectionCache remembers detected charsets by path. An entry is only
// used while the file's size and modification time are unchanged.
// A nil *DetectionCache is valid and caches nothing.
type DetectionCache struct {
	lru *lru.Cache[string, cacheEntry]
}

// NewDetectionCache returns a cache holding up to size entries, or nil
// when size <= 0.
func NewDetectionCache(size int) (*DetectionCache, error) {
	if size <= 0 {
		return nil, nil
	}
	c, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &DetectionCache{lru: c}, nil
}

// Get returns the cached charset for path if st still matches.
func (c *DetectionCache) Get(path string, st os.FileInfo) (string, bool) {
	if c == nil {
		return "", false
	}
	e, ok := c.lru.Get(path)
	if !ok || e.size != st.Size() || !e.modTime.Equal(st.ModTime()) {
		return "", false
	}
	return e.charset, true
}

// Add records charset for path as of st.
func (c *DetectionCache) Add(path string, st os.FileInfo, charset string) {
	if c == nil {
		return
	}
	c.lru.Add(path, cacheEntry{size: st.Size(), modTime: st.ModTime(), charset: charset})
}

// Len returns the number of cached entries.
func (c *DetectionCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

// Purge drops all entries.
func (c *DetectionCache) Purge() {
	if c != nil {
		c.lru.Purge()
	}
}
