// Package worker runs the background refresh loops: pulling the ledger
// feed, re-quoting farm prices, and mirroring manual entries back to
// the source spreadsheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/luphoeux/dantaes/internal/core"
	"github.com/luphoeux/dantaes/internal/sheet"
)

// Ledger is the feed side of the controller.
type Ledger interface {
	ReplaceFeed(records []core.LedgerRecord)
	MarkStale()
}

// FarmCatalog receives the parsed farm list and names the items whose
// prices need refreshing.
type FarmCatalog interface {
	Replace(rows []sheet.FarmRow)
	ItemIDs() []int64
}

// PriceRefresher re-quotes a set of items. *pricing.Service implements it.
type PriceRefresher interface {
	RefreshPrices(ctx context.Context, itemIDs []int64) error
}

// FeedCache persists the last good feed grid across restarts.
// *store.SourceCache implements it.
type FeedCache interface {
	LoadGrid(ctx context.Context) ([][]string, error)
	SaveGrid(ctx context.Context, grid [][]string) error
}

// RefreshWorker drives the periodic feed and price refreshes. Price
// refreshes pause during the configured quiet hours; nobody is selling
// overnight and the proxy quota is better spent elsewhere.
type RefreshWorker struct {
	feed       sheet.Source
	farmsFeed  sheet.Source // nil when no farm catalogue is configured
	cache      FeedCache    // nil disables warm starts
	ledger     Ledger
	catalog    FarmCatalog
	prices     PriceRefresher
	quietStart int
	quietEnd   int
}

func NewRefreshWorker(feed, farmsFeed sheet.Source, cache FeedCache, ledger Ledger, catalog FarmCatalog, prices PriceRefresher, quietStart, quietEnd int) *RefreshWorker {
	return &RefreshWorker{
		feed:       feed,
		farmsFeed:  farmsFeed,
		cache:      cache,
		ledger:     ledger,
		catalog:    catalog,
		prices:     prices,
		quietStart: quietStart,
		quietEnd:   quietEnd,
	}
}

// SeedFromCache loads the last good grid into the ledger before the
// first fetch, flagged stale until a live refresh confirms it. A cold
// cache is not an error.
func (w *RefreshWorker) SeedFromCache(ctx context.Context) error {
	if w.cache == nil {
		return nil
	}
	grid, err := w.cache.LoadGrid(ctx)
	if err != nil {
		return fmt.Errorf("load feed cache: %w", err)
	}
	if len(grid) == 0 {
		return nil
	}
	records, ok := sheet.ParseGrid(grid)
	if !ok {
		return fmt.Errorf("parse cached feed: unrecognized layout")
	}
	w.ledger.ReplaceFeed(records)
	w.ledger.MarkStale()
	slog.InfoContext(ctx, "Ledger seeded from cached feed", "records", len(records))
	return nil
}

// RefreshFeed fetches and parses the ledger feed, swapping it in on
// success. On any failure the previous records stay served and the
// ledger is flagged stale.
func (w *RefreshWorker) RefreshFeed(ctx context.Context) error {
	grid, err := w.feed.Fetch(ctx)
	if err != nil {
		w.ledger.MarkStale()
		return fmt.Errorf("fetch feed: %w", err)
	}
	records, ok := sheet.ParseGrid(grid)
	if !ok {
		w.ledger.MarkStale()
		return fmt.Errorf("parse feed: unrecognized layout")
	}
	w.ledger.ReplaceFeed(records)

	if w.cache != nil {
		if err := w.cache.SaveGrid(ctx, grid); err != nil {
			slog.WarnContext(ctx, "Feed cache write failed", "error", err)
		}
	}

	if w.farmsFeed != nil {
		if err := w.refreshFarms(ctx); err != nil {
			slog.WarnContext(ctx, "Farm catalogue refresh failed", "error", err)
		}
	}
	return nil
}

func (w *RefreshWorker) refreshFarms(ctx context.Context) error {
	grid, err := w.farmsFeed.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch farms: %w", err)
	}
	rows, ok := sheet.ParseFarmsGrid(grid)
	if !ok {
		return fmt.Errorf("parse farms: unrecognized layout")
	}
	w.catalog.Replace(rows)
	slog.InfoContext(ctx, "Farm catalogue replaced", "rows", len(rows))
	return nil
}

// RefreshPrices re-quotes the farm catalogue unless inside quiet hours.
func (w *RefreshWorker) RefreshPrices(ctx context.Context, now time.Time) error {
	if w.inQuietHours(now) {
		slog.DebugContext(ctx, "Skipping price refresh during quiet hours", "hour", now.Hour())
		return nil
	}
	ids := w.catalog.ItemIDs()
	if len(ids) == 0 {
		return nil
	}
	return w.prices.RefreshPrices(ctx, ids)
}

func (w *RefreshWorker) inQuietHours(now time.Time) bool {
	h := now.Hour()
	if w.quietStart == w.quietEnd {
		return false
	}
	if w.quietStart < w.quietEnd {
		return h >= w.quietStart && h < w.quietEnd
	}
	// Window wraps midnight.
	return h >= w.quietStart || h < w.quietEnd
}

// Run drives both refresh loops until ctx is cancelled. The feed is
// fetched once immediately; prices wait for their first tick.
func (w *RefreshWorker) Run(ctx context.Context, feedInterval, priceInterval time.Duration) error {
	if err := w.RefreshFeed(ctx); err != nil {
		slog.ErrorContext(ctx, "Initial feed refresh failed", "error", err)
	}
	if err := w.RefreshPrices(ctx, time.Now()); err != nil {
		slog.ErrorContext(ctx, "Initial price refresh failed", "error", err)
	}

	feedTicker := time.NewTicker(feedInterval)
	defer feedTicker.Stop()
	priceTicker := time.NewTicker(priceInterval)
	defer priceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Refresh worker stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-feedTicker.C:
			if err := w.RefreshFeed(ctx); err != nil {
				slog.ErrorContext(ctx, "Feed refresh failed", "error", err)
			}
		case <-priceTicker.C:
			if err := w.RefreshPrices(ctx, time.Now()); err != nil {
				slog.ErrorContext(ctx, "Price refresh failed", "error", err)
			}
		}
	}
}
