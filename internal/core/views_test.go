package core

import "testing"

func TestSummarize(t *testing.T) {
	records := []LedgerRecord{
		{Name: "Urditela", Date: "2026-01-15", Total: 4511, IconRef: "icons/urditela.jpg"},
		{Name: "Urditela", Date: "2026-01-14", Total: 3638},
		{Name: "Sombra primigenia", Date: "2026-01-14", Total: 514},
	}
	s := Summarize(records)
	if s.TotalIncome != 8663 {
		t.Fatalf("total income = %d", s.TotalIncome)
	}
	if s.TopItemName != "Urditela" || s.TopItemValue != 8149 {
		t.Fatalf("top item = %s/%d", s.TopItemName, s.TopItemValue)
	}
	if s.TopItemIcon != "icons/urditela.jpg" {
		t.Fatalf("top item icon = %q", s.TopItemIcon)
	}
	if s.BestDay != "2026-01-15" || s.BestDayValue != 4511 {
		t.Fatalf("best day = %s/%d", s.BestDay, s.BestDayValue)
	}
	if got := Summarize(nil); got.TotalIncome != 0 || got.Records != 0 {
		t.Fatalf("empty summarize = %+v", got)
	}
}

func TestCategories(t *testing.T) {
	records := []LedgerRecord{
		{Name: "a", Date: "2026-01-01", Category: "Mat", Total: 60},
		{Name: "b", Date: "2026-01-01", Category: "mat", Total: 20},
		{Name: "c", Date: "2026-01-01", Category: "boe", Total: 20},
	}
	shares := Categories(records, 5)
	if len(shares) != 2 {
		t.Fatalf("got %d categories, want 2 (case-insensitive grouping)", len(shares))
	}
	if shares[0].Category != "mat" || shares[0].Total != 80 {
		t.Fatalf("first share = %+v", shares[0])
	}
	if shares[0].Share != 80 || shares[1].Share != 20 {
		t.Fatalf("shares = %v / %v", shares[0].Share, shares[1].Share)
	}
	if got := Categories(records, 1); len(got) != 1 {
		t.Fatalf("top-1 returned %d", len(got))
	}
}

func TestGroupByDayCollapsesDuplicates(t *testing.T) {
	records := []LedgerRecord{
		{Name: "Urditela", Date: "2026-01-15", Category: "mat", Quantity: 100, Total: 1000},
		{Name: "Urditela", Date: "2026-01-15", Category: "mat", Quantity: 50, Total: 700},
		{Name: "Sombra", Date: "2026-01-15", Category: "boe", Quantity: 1, Total: 2000},
	}
	groups := GroupByDay(records, []string{"2026-01-15"})
	if len(groups) != 1 {
		t.Fatalf("got %d groups", len(groups))
	}
	g := groups[0]
	if g.Total != 3700 {
		t.Fatalf("day total = %d", g.Total)
	}
	if len(g.Rows) != 2 {
		t.Fatalf("got %d rows, want duplicates collapsed into 2", len(g.Rows))
	}
	// Sorted by summed total, largest first.
	if g.Rows[0].Name != "Sombra" {
		t.Fatalf("first row = %s", g.Rows[0].Name)
	}
	urd := g.Rows[1]
	if urd.Quantity != 150 || urd.Total != 1700 || urd.Sales != 2 {
		t.Fatalf("collapsed row = %+v", urd)
	}
	if urd.AvgUnit != 1700/150 {
		t.Fatalf("avg unit = %d", urd.AvgUnit)
	}
}

func TestHistoryAscending(t *testing.T) {
	records := []LedgerRecord{
		{Name: "Urditela", Date: "2026-01-15", UnitPrice: 11, Quantity: 396, Total: 4511},
		{Name: "Urditela", Date: "2026-01-10", UnitPrice: 9, Quantity: 100, Total: 900},
		{Name: "Other", Date: "2026-01-12", UnitPrice: 5, Quantity: 1, Total: 5},
	}
	points := History(records, "Urditela")
	if len(points) != 2 {
		t.Fatalf("got %d points", len(points))
	}
	if points[0].Date != "2026-01-10" || points[1].Date != "2026-01-15" {
		t.Fatalf("points not ascending: %v", points)
	}
}

func TestValidateManualEntry(t *testing.T) {
	good := LedgerRecord{Name: "Urditela", Date: "2026-01-15", Quantity: 1, Total: 10}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []LedgerRecord{
		{Name: "", Date: "2026-01-15", Quantity: 1},
		{Name: "x", Date: "not a date", Quantity: 1},
		{Name: "x", Date: "2026-01-15", Quantity: 0},
	}
	for i, r := range bads {
		if err := r.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
