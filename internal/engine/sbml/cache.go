package sbml

import (
	"context"
	"os"
	"time"

	"msindex/internal/shared/util"
)

// ModelCache reuses parsed models while a file's size and modification time
// stay the same. Cached models are shared and must not be modified.
type ModelCache struct {
	entries *util.LRU[string, cachedModel]
}

type cachedModel struct {
	modTime time.Time
	size    int64
	model   *Model
}

func NewModelCache(capacity int) *ModelCache {
	return &ModelCache{entries: util.NewLRU[string, cachedModel](capacity)}
}

// Load returns the cached model for path or parses it again when the file
// changed since it was cached.
func (c *ModelCache) Load(path string) (*Model, error) {
	info, err := os.Stat(path)
	if err != nil {
		c.entries.Evict(path)
		return ReadFile(path)
	}
	if hit, ok := c.entries.Get(path); ok && hit.size == info.Size() && hit.modTime.Equal(info.ModTime()) {
		return hit.model, nil
	}

	m, err := ReadFile(path)
	if err != nil {
		c.entries.Evict(path)
		return nil, err
	}
	c.entries.Put(path, cachedModel{modTime: info.ModTime(), size: info.Size(), model: m})
	return m, nil
}

func (c *ModelCache) Len() int {
	return c.entries.Len()
}

// LoadAllCached is LoadAll reading through cache. A nil cache parses every
// file.
func LoadAllCached(ctx context.Context, paths []string, workers int, cache *ModelCache) ([]*Model, error) {
	read := ReadFile
	if cache != nil {
		read = cache.Load
	}
	return loadAll(ctx, paths, workers, read)
}
