package satchip

import (
	"context"

	"github.com/maypok86/otter/v2"
)

// A GridCache caches grids by their configuration. It is safe for concurrent
// use.
type GridCache struct {
	cache *otter.Cache[GridConfig, *Grid]
}

// NewGridCache returns a new GridCache holding at most size grids.
func NewGridCache(size int) (*GridCache, error) {
	cache, err := otter.New(&otter.Options[GridConfig, *Grid]{
		MaximumSize: max(size, 1),
	})
	if err != nil {
		return nil, err
	}
	return &GridCache{
		cache: cache,
	}, nil
}

// Get returns the grid built from config, building it if needed. Build
// errors are not cached.
func (c *GridCache) Get(ctx context.Context, config GridConfig) (*Grid, error) {
	gridCacheRequests.Inc()
	return c.cache.Get(ctx, config, otter.LoaderFunc[GridConfig, *Grid](buildGrid))
}

func buildGrid(ctx context.Context, config GridConfig) (*Grid, error) {
	gridCacheBuilds.Inc()
	return config.NewGrid()
}
