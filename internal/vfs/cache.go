package vfs

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultStatCacheSize bounds the number of remembered existence checks.
const DefaultStatCacheSize = 4096

type statKey struct {
	path string
	dir  bool
}

// StatCache memoizes FileExists and DirectoryExists of a System. Writes
// and deletes through the cache invalidate the affected path.
type StatCache struct {
	System
	cache *lru.Cache[statKey, bool]
}

// NewStatCache wraps base with an LRU of size entries.
func NewStatCache(base System, size int) *StatCache {
	if size <= 0 {
		size = DefaultStatCacheSize
	}
	cache, err := lru.New[statKey, bool](size)
	if err != nil {
		// only returned for non-positive sizes
		panic(err)
	}
	return &StatCache{System: base, cache: cache}
}

// FileExists reports, from cache when possible, whether path is a file.
func (c *StatCache) FileExists(path string) bool {
	return c.lookup(statKey{path: path}, c.System.FileExists)
}

// DirectoryExists reports, from cache when possible, whether path is a
// directory.
func (c *StatCache) DirectoryExists(path string) bool {
	return c.lookup(statKey{path: path, dir: true}, c.System.DirectoryExists)
}

func (c *StatCache) lookup(key statKey, stat func(string) bool) bool {
	if v, ok := c.cache.Get(key); ok {
		return v
	}
	v := stat(key.path)
	c.cache.Add(key, v)
	return v
}

// WriteFile writes through and forgets the path.
func (c *StatCache) WriteFile(path string, data []byte) error {
	c.forget(path)
	return c.System.WriteFile(path, data)
}

// DeleteFile deletes through and forgets the path.
func (c *StatCache) DeleteFile(path string) error {
	c.forget(path)
	return c.System.DeleteFile(path)
}

// Purge drops every cached result, e.g. between watch cycles.
func (c *StatCache) Purge() {
	c.cache.Purge()
}

func (c *StatCache) forget(path string) {
	c.cache.Remove(statKey{path: path})
	c.cache.Remove(statKey{path: path, dir: true})
}
