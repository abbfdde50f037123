package core

import (
	"errors"
	"sort"
	"strings"
)

// DefaultCategory is assigned to records whose source row carries no
// category column. The grouping key is always lower-cased.
const DefaultCategory = "mat"

const (
	TimeframeDay   Timeframe = "day"
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
	TimeframeYear  Timeframe = "year"
)

type (
	// Timeframe selects the trend granularity. It only affects the bucket
	// width of the trend series, never the detail listing.
	Timeframe string

	// LedgerRecord is one normalized economic event: a sale or income entry
	// from the shared feed, or a manual entry from the local override store.
	// Records are immutable after creation.
	LedgerRecord struct {
		Name        string `json:"name"`
		Date        string `json:"date"` // canonical YYYY-MM-DD
		Category    string `json:"category"`
		Total       int64  `json:"total"` // whole gold
		Quantity    int64  `json:"quantity"`
		UnitPrice   int64  `json:"unitPrice"`
		ExternalID  int64  `json:"externalId,omitempty"` // 0 = unresolved
		IconRef     string `json:"iconRef,omitempty"`
		Observation string `json:"observation,omitempty"`
		Link        string `json:"link,omitempty"`
		IsLocal     bool   `json:"isLocal,omitempty"`
	}
)

var (
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// ParseTimeframe maps a query-string value to a Timeframe.
func ParseTimeframe(s string) (Timeframe, bool) {
	switch Timeframe(strings.ToLower(strings.TrimSpace(s))) {
	case TimeframeDay:
		return TimeframeDay, true
	case TimeframeWeek:
		return TimeframeWeek, true
	case TimeframeMonth:
		return TimeframeMonth, true
	case TimeframeYear:
		return TimeframeYear, true
	}
	return "", false
}

// Validate checks the fields a manual entry must provide. Feed rows go
// through the normalizer instead, which drops rather than rejects.
func (r LedgerRecord) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	if _, ok := NormalizeDate(r.Date); !ok {
		return ErrInvalidDate
	}
	if r.Quantity < 1 {
		return ErrInvalidQuantity
	}
	return nil
}

// NormalizeCategory lower-cases and trims a category tag, substituting the
// catch-all category when nothing remains.
func NormalizeCategory(raw string) string {
	c := strings.ToLower(strings.TrimSpace(raw))
	if c == "" {
		return DefaultCategory
	}
	return c
}

// SortRecords orders records by descending date, most recent first. The sort
// is stable so ties keep their original relative order. Canonical YYYY-MM-DD
// dates sort correctly as strings.
func SortRecords(records []LedgerRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date > records[j].Date
	})
}
