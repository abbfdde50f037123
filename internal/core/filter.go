package core

import "strings"

// DefaultItemsPerPage is the page size of the detail listing, counted in
// distinct dates rather than raw records.
const DefaultItemsPerPage = 7

// FilterState scopes the detail listing: inclusive date bounds (empty means
// unbounded), a free-text search, and the page cursor. Timeframe lives here
// too but only governs the trend bucket width.
type FilterState struct {
	DateFrom     string    `json:"dateFrom,omitempty"`
	DateTo       string    `json:"dateTo,omitempty"`
	Search       string    `json:"search,omitempty"`
	CurrentPage  int       `json:"currentPage"`
	ItemsPerPage int       `json:"itemsPerPage"`
	Timeframe    Timeframe `json:"timeframe"`
}

// NewFilterState returns the unbounded default state: everything visible,
// first page, day granularity.
func NewFilterState() FilterState {
	return FilterState{
		CurrentPage:  1,
		ItemsPerPage: DefaultItemsPerPage,
		Timeframe:    TimeframeDay,
	}
}

// Matches applies the filtering predicate to one record. The search term is
// a case-insensitive substring matched against name, category, and
// observation; any one field matching is enough.
func (f FilterState) Matches(r LedgerRecord) bool {
	if f.DateFrom != "" && r.Date < f.DateFrom {
		return false
	}
	if f.DateTo != "" && r.Date > f.DateTo {
		return false
	}
	if f.Search == "" {
		return true
	}
	needle := strings.ToLower(f.Search)
	for _, field := range []string{r.Name, r.Category, r.Observation} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// Filter returns the subset of records matching the state, preserving
// order. An unbounded, searchless state returns a copy of the input.
func Filter(records []LedgerRecord, f FilterState) []LedgerRecord {
	out := make([]LedgerRecord, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// DistinctDates lists the distinct dates of an already descending-sorted
// record set, most recent first.
func DistinctDates(records []LedgerRecord) []string {
	var dates []string
	for _, r := range records {
		if n := len(dates); n == 0 || dates[n-1] != r.Date {
			dates = append(dates, r.Date)
		}
	}
	return dates
}

// TotalPages is ceil(distinctDates / itemsPerPage); zero when nothing
// matched.
func (f FilterState) TotalPages(distinctDates int) int {
	per := f.ItemsPerPage
	if per < 1 {
		per = DefaultItemsPerPage
	}
	return (distinctDates + per - 1) / per
}

// PageDates slices the contiguous run of dates for the current page. A date
// is never split across pages: the detail view includes every record of
// every date returned here.
func (f FilterState) PageDates(dates []string) []string {
	per := f.ItemsPerPage
	if per < 1 {
		per = DefaultItemsPerPage
	}
	page := f.CurrentPage
	if page < 1 {
		page = 1
	}
	start := (page - 1) * per
	if start >= len(dates) {
		return nil
	}
	end := start + per
	if end > len(dates) {
		end = len(dates)
	}
	return dates[start:end]
}
