package core

import "sort"

type (
	// Summary is the KPI block: total income over the visible set, the
	// highest-earning item, and the best single day.
	Summary struct {
		TotalIncome  int64  `json:"totalIncome"`
		Records      int    `json:"records"`
		TopItemName  string `json:"topItemName,omitempty"`
		TopItemValue int64  `json:"topItemValue,omitempty"`
		TopItemIcon  string `json:"topItemIcon,omitempty"`
		BestDay      string `json:"bestDay,omitempty"`
		BestDayValue int64  `json:"bestDayValue,omitempty"`
	}

	// CategoryShare is one slice of the category breakdown.
	CategoryShare struct {
		Category string  `json:"category"`
		Total    int64   `json:"total"`
		Share    float64 `json:"share"` // percent of the grand total
	}

	// DetailRow is a per-day, per-name collapsed line of the detail table.
	// Repeated sales of the same item on one day fold into a single row.
	DetailRow struct {
		Name       string `json:"name"`
		Category   string `json:"category"`
		IconRef    string `json:"iconRef,omitempty"`
		ExternalID int64  `json:"externalId,omitempty"`
		Quantity   int64  `json:"quantity"`
		Total      int64  `json:"total"`
		AvgUnit    int64  `json:"avgUnit"`
		Sales      int    `json:"sales"`
		IsLocal    bool   `json:"isLocal,omitempty"`
	}

	// DayGroup holds every detail row of one calendar day.
	DayGroup struct {
		Date  string      `json:"date"`
		Total int64       `json:"total"`
		Rows  []DetailRow `json:"rows"`
	}

	// PricePoint is one observation of an item's historical series.
	PricePoint struct {
		Date      string `json:"date"`
		UnitPrice int64  `json:"unitPrice"`
		Quantity  int64  `json:"quantity"`
		Total     int64  `json:"total"`
	}
)

// Summarize derives the KPI block from a record set. Empty input yields the
// zero summary.
func Summarize(records []LedgerRecord) Summary {
	s := Summary{Records: len(records)}
	if len(records) == 0 {
		return s
	}

	byName := map[string]int64{}
	byDay := map[string]int64{}
	var nameOrder, dayOrder []string
	icons := map[string]string{}

	for _, r := range records {
		s.TotalIncome += r.Total
		if _, ok := byName[r.Name]; !ok {
			nameOrder = append(nameOrder, r.Name)
		}
		byName[r.Name] += r.Total
		if _, ok := byDay[r.Date]; !ok {
			dayOrder = append(dayOrder, r.Date)
		}
		byDay[r.Date] += r.Total
		if r.IconRef != "" {
			if _, ok := icons[r.Name]; !ok {
				icons[r.Name] = r.IconRef
			}
		}
	}

	for i, name := range nameOrder {
		if i == 0 || byName[name] > s.TopItemValue {
			s.TopItemName = name
			s.TopItemValue = byName[name]
		}
	}
	s.TopItemIcon = icons[s.TopItemName]

	for i, day := range dayOrder {
		if i == 0 || byDay[day] > s.BestDayValue {
			s.BestDay = day
			s.BestDayValue = byDay[day]
		}
	}
	return s
}

// Categories breaks the record set down by normalized category, largest
// first, truncated to the top n (n <= 0 keeps all). Shares are percentages
// of the grand total.
func Categories(records []LedgerRecord, n int) []CategoryShare {
	totals := map[string]int64{}
	var order []string
	var grand int64
	for _, r := range records {
		key := NormalizeCategory(r.Category)
		if _, ok := totals[key]; !ok {
			order = append(order, key)
		}
		totals[key] += r.Total
		grand += r.Total
	}

	out := make([]CategoryShare, 0, len(order))
	for _, key := range order {
		cs := CategoryShare{Category: key, Total: totals[key]}
		if grand != 0 {
			cs.Share = float64(totals[key]) / float64(grand) * 100
		}
		out = append(out, cs)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// GroupByDay builds the detail view for the given page of dates, in the
// order the dates are supplied (descending for display). Rows within a day
// are sorted by summed total, largest first.
func GroupByDay(records []LedgerRecord, dates []string) []DayGroup {
	byDate := map[string][]LedgerRecord{}
	for _, r := range records {
		byDate[r.Date] = append(byDate[r.Date], r)
	}

	groups := make([]DayGroup, 0, len(dates))
	for _, date := range dates {
		recs := byDate[date]
		if len(recs) == 0 {
			continue
		}

		rows := map[string]*DetailRow{}
		var order []string
		for _, r := range recs {
			row, ok := rows[r.Name]
			if !ok {
				row = &DetailRow{
					Name:       r.Name,
					Category:   NormalizeCategory(r.Category),
					IconRef:    r.IconRef,
					ExternalID: r.ExternalID,
					IsLocal:    r.IsLocal,
				}
				rows[r.Name] = row
				order = append(order, r.Name)
			}
			row.Sales++
			row.Quantity += r.Quantity
			row.Total += r.Total
		}

		g := DayGroup{Date: date}
		for _, name := range order {
			row := rows[name]
			if row.Quantity > 0 {
				row.AvgUnit = row.Total / row.Quantity
			}
			g.Total += row.Total
			g.Rows = append(g.Rows, *row)
		}
		sort.SliceStable(g.Rows, func(i, j int) bool { return g.Rows[i].Total > g.Rows[j].Total })
		groups = append(groups, g)
	}
	return groups
}

// History returns the chronological price series for one item name,
// ascending by date.
func History(records []LedgerRecord, name string) []PricePoint {
	var points []PricePoint
	for _, r := range records {
		if r.Name != name {
			continue
		}
		points = append(points, PricePoint{
			Date:      r.Date,
			UnitPrice: r.UnitPrice,
			Quantity:  r.Quantity,
			Total:     r.Total,
		})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}
