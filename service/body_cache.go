package service

import (
	"context"
	"runtime"
	"sync"

	"github.com/ludo-technologies/irscn/internal/frontend"
)

// CachedManifest holds the decoded manifest of one file, or the error
// decoding it produced.
type CachedManifest struct {
	Manifest *frontend.Manifest
	LoadErr  error
}

// BodyCache stores decoded manifests so several passes over the same files
// decode each file once. Bodies themselves are rebuilt from the manifest on
// every use since interceptors mutate them.
// After Seal() is called the cache is read-only and safe for concurrent
// access without locks.
type BodyCache struct {
	results map[string]*CachedManifest
	sealed  bool
}

// NewBodyCache creates a new empty BodyCache.
func NewBodyCache() *BodyCache {
	return &BodyCache{
		results: make(map[string]*CachedManifest),
	}
}

// Put stores a decoded manifest. Ignored after Seal().
func (c *BodyCache) Put(filePath string, result *CachedManifest) {
	if c.sealed {
		return
	}
	c.results[filePath] = result
}

// Seal marks the cache as read-only.
func (c *BodyCache) Seal() {
	c.sealed = true
}

// Get retrieves a cached manifest. Returns (result, true) on hit.
func (c *BodyCache) Get(filePath string) (*CachedManifest, bool) {
	r, ok := c.results[filePath]
	return r, ok
}

// Len returns the number of entries in the cache.
func (c *BodyCache) Len() int {
	return len(c.results)
}

// BodyCacheAware is implemented by services that can accept a
// pre-populated cache.
type BodyCacheAware interface {
	SetBodyCache(cache *BodyCache)
}

// PopulateBodyCache decodes all files in parallel and returns a sealed
// cache. A concurrency of 0 means runtime.GOMAXPROCS(0).
func PopulateBodyCache(ctx context.Context, files []string, concurrency int) *BodyCache {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	results := make([]*CachedManifest, len(files))

	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)

	for i, filePath := range files {
		wg.Add(1)
		go func(idx int, fp string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[idx] = &CachedManifest{LoadErr: ctx.Err()}
				return
			}

			m, err := frontend.LoadFile(fp)
			results[idx] = &CachedManifest{Manifest: m, LoadErr: err}
		}(i, filePath)
	}

	wg.Wait()

	cache := NewBodyCache()
	for i, fp := range files {
		cache.Put(fp, results[i])
	}
	cache.Seal()

	return cache
}
