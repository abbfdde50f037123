// Package ledger holds the in-memory view of the income ledger: the
// merged feed plus local entries, the active filters, and the query
// surface the HTTP handlers read from.
package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/luphoeux/dantaes/internal/core"
)

// OverridePersister is the durable side of manual entries. The SQLite
// override store implements it.
type OverridePersister interface {
	Load(ctx context.Context) ([]core.LedgerRecord, error)
	Append(ctx context.Context, r core.LedgerRecord) error
}

// Controller owns the merged record set and the two filter slices: the
// trend slice drives the summary, period series, and category views;
// the detail slice additionally narrows the per-day table when the user
// drills into a single item.
type Controller struct {
	mu        sync.RWMutex
	overrides OverridePersister

	feed   []core.LedgerRecord
	locals []core.LedgerRecord
	merged []core.LedgerRecord

	trend  core.FilterState
	detail core.FilterState

	stale     bool
	refreshed time.Time
}

func NewController(overrides OverridePersister) *Controller {
	return &Controller{
		overrides: overrides,
		trend:     core.NewFilterState(),
		detail:    core.NewFilterState(),
	}
}

// Restore loads persisted local entries into the merged set. Called once
// at startup, before the first feed fetch.
func (c *Controller) Restore(ctx context.Context) error {
	locals, err := c.overrides.Load(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locals = locals
	c.remerge()
	return nil
}

// ReplaceFeed swaps in a freshly parsed feed. It never runs on a failed
// fetch; callers keep the previous records and call MarkStale instead.
func (c *Controller) ReplaceFeed(records []core.LedgerRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.feed = records
	c.stale = false
	c.refreshed = time.Now()
	c.remerge()
	slog.Info("Feed replaced", "records", len(records), "locals", len(c.locals))
}

// MarkStale flags the current data as possibly outdated after a failed
// refresh. The records themselves stay served.
func (c *Controller) MarkStale() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stale = true
}

func (c *Controller) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stale
}

// RefreshedAt reports when the feed was last successfully replaced.
func (c *Controller) RefreshedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshed
}

// AppendLocal persists a manual entry and merges it into the working
// set. The entry is durable before this returns.
func (c *Controller) AppendLocal(ctx context.Context, r core.LedgerRecord) error {
	if err := c.overrides.Append(ctx, r); err != nil {
		return err
	}
	r.IsLocal = true
	r.Category = core.NormalizeCategory(r.Category)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locals = append(c.locals, r)
	c.remerge()
	return nil
}

// remerge rebuilds the merged slice, locals first so they win visual
// ties within the same date. Caller holds mu.
func (c *Controller) remerge() {
	merged := make([]core.LedgerRecord, 0, len(c.locals)+len(c.feed))
	merged = append(merged, c.locals...)
	merged = append(merged, c.feed...)
	core.SortRecords(merged)
	c.merged = merged
}

// SetDateRange applies a date window to both filter slices and resets
// pagination to the first page.
func (c *Controller) SetDateRange(from, to string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trend.DateFrom, c.trend.DateTo = from, to
	c.detail.DateFrom, c.detail.DateTo = from, to
	c.trend.CurrentPage = 1
	c.detail.CurrentPage = 1
}

// SetSearch applies a free-text filter to both slices and resets to the
// first page.
func (c *Controller) SetSearch(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trend.Search = q
	c.detail.Search = q
	c.trend.CurrentPage = 1
	c.detail.CurrentPage = 1
}

// SetTimeframe switches the trend bucketing granularity.
func (c *Controller) SetTimeframe(tf core.Timeframe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trend.Timeframe = tf
	c.detail.Timeframe = tf
	c.trend.CurrentPage = 1
	c.detail.CurrentPage = 1
}

// SetPage moves the detail table to the requested page. Requests outside
// [1, TotalPages] leave the current page unchanged.
func (c *Controller) SetPage(page int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	filtered := core.Filter(c.merged, c.detail)
	total := c.detail.TotalPages(len(core.DistinctDates(filtered)))
	if page < 1 || page > total {
		return
	}
	c.detail.CurrentPage = page
}

// DrillDown pins the detail slice to the single date selected from the
// trend view: dateFrom = dateTo = date, timeframe and the trend slice
// untouched, so the chart keeps its wider context while the table
// narrows. An empty date clears the pin, restoring the trend slice's
// bounds.
func (c *Controller) DrillDown(date string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if date == "" {
		c.detail.DateFrom = c.trend.DateFrom
		c.detail.DateTo = c.trend.DateTo
	} else {
		c.detail.DateFrom = date
		c.detail.DateTo = date
	}
	c.detail.CurrentPage = 1
}

// Reset clears both filter slices back to their defaults.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trend = core.NewFilterState()
	c.detail = core.NewFilterState()
}

// FilterStates returns copies of the active trend and detail filters.
func (c *Controller) FilterStates() (trend, detail core.FilterState) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.trend, c.detail
}

// Summary aggregates headline figures over the trend slice.
func (c *Controller) Summary() core.Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return core.Summarize(core.Filter(c.merged, c.trend))
}

// Trend returns the period series for the active timeframe over the
// trend slice.
func (c *Controller) Trend() core.PeriodSeries {
	c.mu.RLock()
	defer c.mu.RUnlock()
	filtered := core.Filter(c.merged, c.trend)
	return core.Aggregate(filtered, core.BucketForTimeframe(c.trend.Timeframe))
}

// Categories returns the top-n category shares over the trend slice.
func (c *Controller) Categories(n int) []core.CategoryShare {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return core.Categories(core.Filter(c.merged, c.trend), n)
}

// DetailPage is one page of the per-day detail table.
type DetailPage struct {
	Days       []core.DayGroup `json:"days"`
	Page       int             `json:"page"`
	TotalPages int             `json:"totalPages"`
}

// Detail returns the current page of day groups for the detail slice.
// Whole dates paginate together; a date never splits across pages.
func (c *Controller) Detail() DetailPage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	filtered := core.Filter(c.merged, c.detail)
	dates := core.DistinctDates(filtered)
	pageDates := c.detail.PageDates(dates)
	return DetailPage{
		Days:       core.GroupByDay(filtered, pageDates),
		Page:       c.detail.CurrentPage,
		TotalPages: c.detail.TotalPages(len(dates)),
	}
}

// ItemHistory returns the unit price series for one item over the trend
// slice, oldest first.
func (c *Controller) ItemHistory(name string) []core.PricePoint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return core.History(core.Filter(c.merged, c.trend), name)
}

// Records returns a copy of the merged record set with trend filters
// applied. Used by handlers that need the raw rows.
func (c *Controller) Records() []core.LedgerRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	filtered := core.Filter(c.merged, c.trend)
	out := make([]core.LedgerRecord, len(filtered))
	copy(out, filtered)
	return out
}
