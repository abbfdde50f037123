package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/luphoeux/dantaes/internal/core"
)

func newTestKV(t *testing.T) *KV {
	t.Helper()
	kv, err := NewKV(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewKV: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	return kv
}

func TestKVSetGetDelete(t *testing.T) {
	kv := newTestKV(t)
	ctx := context.Background()

	if _, err := kv.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing key: got %v, want ErrNotFound", err)
	}

	if err := kv.Set(ctx, "k", `{"a":1}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := kv.Get(ctx, "k")
	if err != nil || got != `{"a":1}` {
		t.Fatalf("Get = %q, %v", got, err)
	}

	// Overwrite replaces the value.
	if err := kv.Set(ctx, "k", `{"a":2}`); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, _ = kv.Get(ctx, "k")
	if got != `{"a":2}` {
		t.Fatalf("after overwrite = %q", got)
	}

	if err := kv.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := kv.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after delete: got %v, want ErrNotFound", err)
	}
	// Deleting a missing key is fine.
	if err := kv.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}

func TestKVGetWithTime(t *testing.T) {
	kv := newTestKV(t)
	ctx := context.Background()

	if err := kv.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	_, updated, err := kv.GetWithTime(ctx, "k")
	if err != nil {
		t.Fatalf("GetWithTime: %v", err)
	}
	if updated.IsZero() {
		t.Fatalf("updated_at is zero")
	}
}

func TestOverrideStoreRoundTrip(t *testing.T) {
	kv := newTestKV(t)
	ctx := context.Background()
	overrides := NewOverrideStore(kv)

	// Empty store loads as an empty list.
	records, err := overrides.Load(ctx)
	if err != nil || len(records) != 0 {
		t.Fatalf("empty load = %v, %v", records, err)
	}

	entry := core.LedgerRecord{
		Name:     "Urditela",
		Date:     "2026-01-15",
		Quantity: 10,
		Total:    113,
	}
	if err := overrides.Append(ctx, entry); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := overrides.Append(ctx, core.LedgerRecord{
		Name: "Sombra primigenia", Date: "2026-01-16", Quantity: 1, Total: 500,
	}); err != nil {
		t.Fatalf("Append second: %v", err)
	}

	records, err = overrides.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Name != "Urditela" || !records[0].IsLocal {
		t.Fatalf("first record: %+v", records[0])
	}
	if records[0].Category != core.DefaultCategory {
		t.Fatalf("category default = %q", records[0].Category)
	}
}

func TestOverrideStoreRejectsInvalid(t *testing.T) {
	kv := newTestKV(t)
	ctx := context.Background()
	overrides := NewOverrideStore(kv)

	cases := []struct {
		name  string
		entry core.LedgerRecord
	}{
		{"empty name", core.LedgerRecord{Date: "2026-01-15", Quantity: 1}},
		{"bad date", core.LedgerRecord{Name: "x", Date: "yesterday", Quantity: 1}},
		{"zero quantity", core.LedgerRecord{Name: "x", Date: "2026-01-15"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := overrides.Append(ctx, tc.entry); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	records, _ := overrides.Load(ctx)
	if len(records) != 0 {
		t.Fatalf("invalid entries must not be stored, got %d", len(records))
	}
}

func TestSourceCacheRoundTrip(t *testing.T) {
	kv := newTestKV(t)
	cache := NewSourceCache(kv)
	ctx := context.Background()

	// Cold cache yields nothing without error.
	grid, err := cache.LoadGrid(ctx)
	if err != nil {
		t.Fatalf("cold load: %v", err)
	}
	if grid != nil {
		t.Fatalf("cold cache grid = %+v, want nil", grid)
	}

	saved := [][]string{
		{"Item", "Cantidad", "Total Oro", "Fecha"},
		{"Urditela", "10", "113", "2026-01-15"},
	}
	if err := cache.SaveGrid(ctx, saved); err != nil {
		t.Fatalf("SaveGrid: %v", err)
	}

	grid, err = cache.LoadGrid(ctx)
	if err != nil {
		t.Fatalf("LoadGrid: %v", err)
	}
	if len(grid) != 2 || grid[1][0] != "Urditela" {
		t.Fatalf("grid = %+v", grid)
	}

	// A newer fetch replaces the cached grid wholesale.
	if err := cache.SaveGrid(ctx, saved[:1]); err != nil {
		t.Fatalf("SaveGrid: %v", err)
	}
	grid, _ = cache.LoadGrid(ctx)
	if len(grid) != 1 {
		t.Fatalf("grid rows after overwrite = %d, want 1", len(grid))
	}
}
