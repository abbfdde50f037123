package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/luphoeux/dantaes/internal/store"
)

type fakeQuoter struct {
	mu         sync.Mutex
	down       bool
	itemCalls  int
	priceCalls int
	tokenCalls int
}

func (f *fakeQuoter) ItemMetadata(ctx context.Context, itemID int64) (ItemMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.itemCalls++
	if f.down {
		return ItemMetadata{}, fmt.Errorf("proxy down")
	}
	return ItemMetadata{ID: itemID, Name: fmt.Sprintf("Item %d", itemID), Quality: "rare"}, nil
}

func (f *fakeQuoter) AuctionPrice(ctx context.Context, itemID int64) (AuctionPrice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.priceCalls++
	if f.down {
		return AuctionPrice{}, fmt.Errorf("proxy down")
	}
	return AuctionPrice{ItemID: itemID, Gold: itemID * 10, Quantity: 100, FetchedAt: time.Now()}, nil
}

func (f *fakeQuoter) TokenPrice(ctx context.Context) (TokenPrice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenCalls++
	if f.down {
		return TokenPrice{}, fmt.Errorf("proxy down")
	}
	return TokenPrice{Gold: 330000, FetchedAt: time.Now()}, nil
}

func (f *fakeQuoter) setDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

func (f *fakeQuoter) calls() (int, int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.itemCalls, f.priceCalls, f.tokenCalls
}

type memKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemKV() *memKV { return &memKV{data: map[string]string{}} }

func (m *memKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (m *memKV) GetWithTime(ctx context.Context, key string) (string, time.Time, error) {
	v, err := m.Get(ctx, key)
	return v, time.Now(), err
}

func (m *memKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memKV) seed(t *testing.T, key string, doc any) {
	t.Helper()
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("seed %s: %v", key, err)
	}
	if err := m.Set(context.Background(), key, string(raw)); err != nil {
		t.Fatalf("seed %s: %v", key, err)
	}
}

func TestItemMetadataCachedAndPersisted(t *testing.T) {
	quoter := &fakeQuoter{}
	kv := newMemKV()
	svc := NewService(quoter, kv)
	ctx := context.Background()

	meta, err := svc.ItemMetadata(ctx, 212462)
	if err != nil {
		t.Fatalf("ItemMetadata: %v", err)
	}
	if meta.Name != "Item 212462" {
		t.Fatalf("meta = %+v", meta)
	}

	// Second read hits memory, not the proxy.
	if _, err := svc.ItemMetadata(ctx, 212462); err != nil {
		t.Fatalf("second read: %v", err)
	}
	if calls, _, _ := quoter.calls(); calls != 1 {
		t.Fatalf("proxy calls = %d, want 1", calls)
	}

	// A fresh service with the same KV never hits the proxy.
	svc2 := NewService(&fakeQuoter{down: true}, kv)
	meta, err = svc2.ItemMetadata(ctx, 212462)
	if err != nil || meta.Name != "Item 212462" {
		t.Fatalf("restored read = %+v, %v", meta, err)
	}
}

func TestItemMetadataAgedEntryRefetched(t *testing.T) {
	quoter := &fakeQuoter{}
	kv := newMemKV()
	kv.seed(t, metadataKey, map[string]ItemMetadata{
		"7": {ID: 7, Name: "Old name", FetchedAt: time.Now().Add(-25 * time.Hour)},
	})
	svc := NewService(quoter, kv)
	ctx := context.Background()

	// The stored entry outlived its validity window; the proxy wins.
	meta, err := svc.ItemMetadata(ctx, 7)
	if err != nil || meta.Name != "Item 7" {
		t.Fatalf("refetched meta = %+v, %v", meta, err)
	}
	if calls, _, _ := quoter.calls(); calls != 1 {
		t.Fatalf("proxy calls = %d, want 1", calls)
	}

	// A description does not spoil: with the proxy down, even an aged
	// stored entry is better than nothing.
	kv2 := newMemKV()
	kv2.seed(t, metadataKey, map[string]ItemMetadata{
		"7": {ID: 7, Name: "Old name", FetchedAt: time.Now().Add(-25 * time.Hour)},
	})
	svc2 := NewService(&fakeQuoter{down: true}, kv2)
	meta, err = svc2.ItemMetadata(ctx, 7)
	if err != nil || meta.Name != "Old name" {
		t.Fatalf("aged fallback = %+v, %v", meta, err)
	}
}

func TestAuctionPriceFallsBackWhenProxyDown(t *testing.T) {
	quoter := &fakeQuoter{}
	kv := newMemKV()
	svc := NewService(quoter, kv)
	ctx := context.Background()

	price, err := svc.AuctionPrice(ctx, 7)
	if err != nil || price.Gold != 70 || price.Stale {
		t.Fatalf("fresh price = %+v, %v", price, err)
	}

	// Cached: no extra proxy call.
	svc.AuctionPrice(ctx, 7)
	if _, calls, _ := quoter.calls(); calls != 1 {
		t.Fatalf("proxy calls = %d, want 1", calls)
	}

	// New service, quote still inside the stored validity window: the
	// persisted value is served as is, no proxy call at all.
	down := &fakeQuoter{down: true}
	svc2 := NewService(down, kv)
	price, err = svc2.AuctionPrice(ctx, 7)
	if err != nil {
		t.Fatalf("stored read should not error: %v", err)
	}
	if price.Stale || price.Gold != 70 {
		t.Fatalf("stored price = %+v", price)
	}
	if _, calls, _ := down.calls(); calls != 0 {
		t.Fatalf("proxy calls = %d, want 0", calls)
	}

	// Unknown item with the proxy down surfaces the error.
	if _, err := svc2.AuctionPrice(ctx, 99); err == nil {
		t.Fatalf("expected error for unknown item")
	}
}

func TestAuctionPriceExpiredQuoteServedStale(t *testing.T) {
	kv := newMemKV()
	kv.seed(t, farmPricesKey, map[string]AuctionPrice{
		"7": {ItemID: 7, Gold: 70, Quantity: 100, FetchedAt: time.Now().Add(-7 * time.Hour)},
	})
	svc := NewService(&fakeQuoter{down: true}, kv)

	// The stored quote expired, so the proxy is consulted; only once
	// that fails does the old quote come back, flagged stale.
	price, err := svc.AuctionPrice(context.Background(), 7)
	if err != nil {
		t.Fatalf("fallback should not error: %v", err)
	}
	if !price.Stale || price.Gold != 70 {
		t.Fatalf("fallback price = %+v", price)
	}
}

func TestTokenPriceFallback(t *testing.T) {
	quoter := &fakeQuoter{}
	kv := newMemKV()
	svc := NewService(quoter, kv)
	ctx := context.Background()

	quote, err := svc.TokenPrice(ctx)
	if err != nil || quote.Gold != 330000 {
		t.Fatalf("quote = %+v, %v", quote, err)
	}

	// The persisted quote is fresh, so a new service serves it without
	// the proxy and without the stale flag.
	down := &fakeQuoter{down: true}
	svc2 := NewService(down, kv)
	quote, err = svc2.TokenPrice(ctx)
	if err != nil {
		t.Fatalf("stored read should not error: %v", err)
	}
	if quote.Stale || quote.Gold != 330000 {
		t.Fatalf("stored quote = %+v", quote)
	}
	if _, _, calls := down.calls(); calls != 0 {
		t.Fatalf("proxy calls = %d, want 0", calls)
	}

	// An expired quote with the proxy down is served stale.
	kv2 := newMemKV()
	kv2.seed(t, tokenKey, TokenPrice{Gold: 310000, FetchedAt: time.Now().Add(-2 * time.Hour)})
	svc3 := NewService(&fakeQuoter{down: true}, kv2)
	quote, err = svc3.TokenPrice(ctx)
	if err != nil {
		t.Fatalf("fallback should not error: %v", err)
	}
	if !quote.Stale || quote.Gold != 310000 {
		t.Fatalf("fallback quote = %+v", quote)
	}
}

func TestRefreshPricesSkipsFailures(t *testing.T) {
	quoter := &fakeQuoter{}
	kv := newMemKV()
	svc := NewService(quoter, kv)
	ctx := context.Background()

	ids := []int64{1, 2, 3, 4, 5}
	if err := svc.RefreshPrices(ctx, ids); err != nil {
		t.Fatalf("RefreshPrices: %v", err)
	}
	for _, id := range ids {
		price, err := svc.AuctionPrice(ctx, id)
		if err != nil || price.Gold != id*10 {
			t.Fatalf("price %d = %+v, %v", id, price, err)
		}
	}
	// All quotes came from the refresh; per-item reads hit the cache.
	if _, calls, _ := quoter.calls(); calls != len(ids) {
		t.Fatalf("proxy calls = %d, want %d", calls, len(ids))
	}

	// A refresh against a dead proxy reports success but keeps old data.
	quoter.setDown(true)
	if err := svc.RefreshPrices(ctx, ids); err != nil {
		t.Fatalf("refresh with proxy down: %v", err)
	}
}
