package core

import "sort"

type (
	// BucketFunc maps a canonical record date to its period key. Callers
	// inject the policy, so bucket width is never hard-coded here.
	BucketFunc func(date string) string

	// PeriodBucket is one time-grouped aggregate of the trend series.
	PeriodBucket struct {
		Period          string `json:"period"`
		PeriodTotal     int64  `json:"periodTotal"`
		CumulativeTotal int64  `json:"cumulativeTotal"`
		TopName         string `json:"topName"`
		TopValue        int64  `json:"topValue"`
	}

	// PeriodSeries is a trend series in ascending chronological order.
	PeriodSeries []PeriodBucket
)

// Aggregate groups records into period buckets and computes per-period
// totals, the running cumulative total, and the top record name per period.
// Sums are exact: totals are whole gold and nothing is rounded here.
// An empty input yields an empty (nil) series.
func Aggregate(records []LedgerRecord, bucket BucketFunc) PeriodSeries {
	if len(records) == 0 {
		return nil
	}

	type acc struct {
		total int64
		names map[string]int64
		order []string
	}
	buckets := map[string]*acc{}
	var keys []string

	for _, r := range records {
		key := bucket(r.Date)
		a, ok := buckets[key]
		if !ok {
			a = &acc{names: map[string]int64{}}
			buckets[key] = a
			keys = append(keys, key)
		}
		a.total += r.Total
		if _, seen := a.names[r.Name]; !seen {
			a.order = append(a.order, r.Name)
		}
		a.names[r.Name] += r.Total
	}

	// Period keys are canonical date prefixes, so lexicographic order is
	// chronological order.
	sort.Strings(keys)

	series := make(PeriodSeries, 0, len(keys))
	var running int64
	for _, key := range keys {
		a := buckets[key]
		running += a.total

		var topName string
		var topValue int64
		for i, name := range a.order {
			// Strict comparison: the first name encountered wins ties.
			if i == 0 || a.names[name] > topValue {
				topName = name
				topValue = a.names[name]
			}
		}

		series = append(series, PeriodBucket{
			Period:          key,
			PeriodTotal:     a.total,
			CumulativeTotal: running,
			TopName:         topName,
			TopValue:        topValue,
		})
	}
	return series
}

// Total sums the period totals of the series.
func (s PeriodSeries) Total() int64 {
	var sum int64
	for _, b := range s {
		sum += b.PeriodTotal
	}
	return sum
}
