package core

import (
	"time"
)

// CanonicalDate is the layout every record date is normalized to.
const CanonicalDate = "2006-01-02"

// Source dates arrive either canonical or in the day-first forms the sheet's
// locale produces. Canonical is tried first so round-trips are exact.
var sourceDateLayouts = []string{
	CanonicalDate,
	"02-01-2006",
	"02/01/2006",
	"2006/01/02",
	"2-1-2006",
	"2/1/2006",
}

// NormalizeDate parses a source date and re-renders it as YYYY-MM-DD using
// local calendar components. Parsing in the local zone keeps the calendar
// day stable; going through UTC shifts it for anyone west of Greenwich.
func NormalizeDate(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	for _, layout := range sourceDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t.Format(CanonicalDate), true
		}
	}
	return "", false
}

// DayBucket keys a canonical date to itself: one bucket per calendar day.
func DayBucket(date string) string {
	return date
}

// MonthBucket keys a canonical date to its calendar month (YYYY-MM).
func MonthBucket(date string) string {
	if len(date) >= 7 {
		return date[:7]
	}
	return date
}

// BucketForTimeframe maps a timeframe to its grouping policy: day buckets
// for day/week/month trends, month buckets for the year trend.
func BucketForTimeframe(tf Timeframe) BucketFunc {
	if tf == TimeframeYear {
		return MonthBucket
	}
	return DayBucket
}
