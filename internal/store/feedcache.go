package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// feedCacheKey holds the last good feed grid so a restart during a
// source outage still has data to show.
const feedCacheKey = "ledger_source_cache"

// SourceCache persists the most recent successfully fetched feed grid.
type SourceCache struct {
	kv *KV
}

func NewSourceCache(kv *KV) *SourceCache {
	return &SourceCache{kv: kv}
}

// LoadGrid returns the cached grid, or nil when nothing was ever cached.
func (c *SourceCache) LoadGrid(ctx context.Context) ([][]string, error) {
	raw, err := c.kv.Get(ctx, feedCacheKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var grid [][]string
	if err := json.Unmarshal([]byte(raw), &grid); err != nil {
		return nil, fmt.Errorf("decode cached feed: %w", err)
	}
	return grid, nil
}

// SaveGrid replaces the cached grid with the latest good fetch.
func (c *SourceCache) SaveGrid(ctx context.Context, grid [][]string) error {
	raw, err := json.Marshal(grid)
	if err != nil {
		return fmt.Errorf("encode feed cache: %w", err)
	}
	if err := c.kv.Set(ctx, feedCacheKey, string(raw)); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Feed grid cached", "rows", len(grid))
	return nil
}
