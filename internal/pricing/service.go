package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/luphoeux/dantaes/internal/cache"
	"github.com/luphoeux/dantaes/internal/store"
)

// Persisted documents and cache windows. Memory TTLs bound how long a
// value is served without consulting the store; document TTLs bound
// how long a persisted value counts as fresh on a cold read.
const (
	metadataKey   = "wow_item_metadata"
	farmPricesKey = "farm_prices"
	tokenKey      = "wow_token_cache"

	MetadataTTL = 24 * time.Hour
	PriceTTL    = time.Hour
	PriceDocTTL = 6 * time.Hour
	TokenTTL    = time.Hour
)

// concurrentFetches bounds parallel proxy calls during a batch refresh.
const concurrentFetches = 3

// Quoter is the upstream side of the service. *Client implements it.
type Quoter interface {
	ItemMetadata(ctx context.Context, itemID int64) (ItemMetadata, error)
	AuctionPrice(ctx context.Context, itemID int64) (AuctionPrice, error)
	TokenPrice(ctx context.Context) (TokenPrice, error)
}

// Persister is the durable side. *store.KV implements it.
type Persister interface {
	Get(ctx context.Context, key string) (string, error)
	GetWithTime(ctx context.Context, key string) (string, time.Time, error)
	Set(ctx context.Context, key, value string) error
}

// Service layers an in-memory TTL cache and KV persistence over the
// proxy client. Reads prefer memory, then a still-fresh stored value,
// then the proxy; when the proxy fails, the last known value is served
// marked stale.
type Service struct {
	quoter Quoter
	kv     Persister
	meta   *cache.TTLCache[ItemMetadata]
	prices *cache.TTLCache[AuctionPrice]
	token  *cache.TTLCache[TokenPrice]

	// persistMu serializes read-merge-write cycles on the stored documents.
	persistMu sync.Mutex
}

func NewService(quoter Quoter, kv Persister) *Service {
	return &Service{
		quoter: quoter,
		kv:     kv,
		meta:   cache.New[ItemMetadata](512, MetadataTTL),
		prices: cache.New[AuctionPrice](512, PriceTTL),
		token:  cache.New[TokenPrice](1, TokenTTL),
	}
}

// Caches exposes the sweepable caches for manager registration.
func (s *Service) Caches() []cache.Sweeper {
	return []cache.Sweeper{s.meta, s.prices, s.token}
}

// ItemMetadata resolves an item's static description. Stored entries
// older than MetadataTTL are re-fetched, but a description does not
// spoil: when the proxy is down any known value is still served.
func (s *Service) ItemMetadata(ctx context.Context, itemID int64) (ItemMetadata, error) {
	key := strconv.FormatInt(itemID, 10)
	if meta, ok := s.meta.Get(key); ok {
		return meta, nil
	}
	if meta, ok := s.storedMetadata(ctx, itemID); ok && time.Since(meta.FetchedAt) < MetadataTTL {
		s.meta.Set(key, meta)
		return meta, nil
	}

	meta, err := s.quoter.ItemMetadata(ctx, itemID)
	if err == nil {
		if meta.FetchedAt.IsZero() {
			meta.FetchedAt = time.Now()
		}
		s.meta.Set(key, meta)
		s.persistMetadata(ctx, meta)
		return meta, nil
	}
	slog.WarnContext(ctx, "Item metadata fetch failed, falling back",
		"item_id", itemID, "error", err)

	if meta, ok, _ := s.meta.GetStale(key); ok {
		return meta, nil
	}
	if meta, ok := s.storedMetadata(ctx, itemID); ok {
		s.meta.Set(key, meta)
		return meta, nil
	}
	return ItemMetadata{}, err
}

// persistMetadata merges one description into the stored metadata
// document. Newer observations win per item.
func (s *Service) persistMetadata(ctx context.Context, meta ItemMetadata) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	doc := s.loadMetaDoc(ctx)
	key := strconv.FormatInt(meta.ID, 10)
	if prev, ok := doc[key]; ok && prev.FetchedAt.After(meta.FetchedAt) {
		return
	}
	doc[key] = meta

	raw, err := json.Marshal(doc)
	if err != nil {
		slog.WarnContext(ctx, "Metadata document encode failed", "error", err)
		return
	}
	if err := s.kv.Set(ctx, metadataKey, string(raw)); err != nil {
		slog.WarnContext(ctx, "Metadata document persist failed", "error", err)
	}
}

func (s *Service) loadMetaDoc(ctx context.Context) map[string]ItemMetadata {
	doc := map[string]ItemMetadata{}
	raw, err := s.kv.Get(ctx, metadataKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.WarnContext(ctx, "Metadata document unreadable", "error", err)
		}
		return doc
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		slog.WarnContext(ctx, "Metadata document decode failed",
			"error", fmt.Errorf("decode metadata document: %w", err))
		return map[string]ItemMetadata{}
	}
	return doc
}

func (s *Service) storedMetadata(ctx context.Context, itemID int64) (ItemMetadata, bool) {
	doc := s.loadMetaDoc(ctx)
	meta, ok := doc[strconv.FormatInt(itemID, 10)]
	return meta, ok
}

// AuctionPrice returns the current quote for one item. A stored quote
// younger than PriceDocTTL is served without touching the proxy; a
// proxy failure falls back to the freshest known value, flagged stale.
func (s *Service) AuctionPrice(ctx context.Context, itemID int64) (AuctionPrice, error) {
	key := strconv.FormatInt(itemID, 10)
	if price, ok := s.prices.Get(key); ok {
		return price, nil
	}
	if price, ok := s.storedPrice(ctx, itemID); ok && time.Since(price.FetchedAt) < PriceDocTTL {
		s.prices.Set(key, price)
		return price, nil
	}

	price, err := s.quoter.AuctionPrice(ctx, itemID)
	if err == nil {
		s.prices.Set(key, price)
		s.persistPrice(ctx, price)
		return price, nil
	}
	slog.WarnContext(ctx, "Auction price fetch failed, falling back",
		"item_id", itemID, "error", err)

	if price, ok, _ := s.prices.GetStale(key); ok {
		price.Stale = true
		return price, nil
	}
	if price, ok := s.storedPrice(ctx, itemID); ok {
		price.Stale = true
		s.prices.Set(key, price)
		return price, nil
	}
	return AuctionPrice{}, err
}

// persistPrice merges one quote into the stored price document. Newer
// observations win per item; other items are left untouched.
func (s *Service) persistPrice(ctx context.Context, price AuctionPrice) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	doc := s.loadPriceDoc(ctx)
	key := strconv.FormatInt(price.ItemID, 10)
	if prev, ok := doc[key]; ok && prev.FetchedAt.After(price.FetchedAt) {
		return
	}
	price.Stale = false
	doc[key] = price

	raw, err := json.Marshal(doc)
	if err != nil {
		slog.WarnContext(ctx, "Price document encode failed", "error", err)
		return
	}
	if err := s.kv.Set(ctx, farmPricesKey, string(raw)); err != nil {
		slog.WarnContext(ctx, "Price document persist failed", "error", err)
	}
}

func (s *Service) loadPriceDoc(ctx context.Context) map[string]AuctionPrice {
	doc := map[string]AuctionPrice{}
	raw, err := s.kv.Get(ctx, farmPricesKey)
	if err != nil {
		return doc
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		slog.WarnContext(ctx, "Price document decode failed", "error", err)
		return map[string]AuctionPrice{}
	}
	return doc
}

func (s *Service) storedPrice(ctx context.Context, itemID int64) (AuctionPrice, bool) {
	doc := s.loadPriceDoc(ctx)
	price, ok := doc[strconv.FormatInt(itemID, 10)]
	return price, ok
}

// TokenPrice returns the current token quote in whole gold. A stored
// quote younger than TokenTTL is served as is; beyond that the proxy
// is consulted, and only when it fails is the old quote served stale.
func (s *Service) TokenPrice(ctx context.Context) (TokenPrice, error) {
	if quote, ok := s.token.Get(tokenKey); ok {
		return quote, nil
	}
	if quote, ok := s.storedToken(ctx); ok && time.Since(quote.FetchedAt) < TokenTTL {
		s.token.Set(tokenKey, quote)
		return quote, nil
	}

	quote, err := s.quoter.TokenPrice(ctx)
	if err == nil {
		s.token.Set(tokenKey, quote)
		if raw, merr := json.Marshal(quote); merr == nil {
			if serr := s.kv.Set(ctx, tokenKey, string(raw)); serr != nil {
				slog.WarnContext(ctx, "Token quote persist failed", "error", serr)
			}
		}
		return quote, nil
	}
	slog.WarnContext(ctx, "Token price fetch failed, falling back", "error", err)

	if quote, ok, _ := s.token.GetStale(tokenKey); ok {
		quote.Stale = true
		return quote, nil
	}
	if quote, ok := s.storedToken(ctx); ok {
		quote.Stale = true
		return quote, nil
	}
	return TokenPrice{}, err
}

func (s *Service) storedToken(ctx context.Context) (TokenPrice, bool) {
	raw, _, err := s.kv.GetWithTime(ctx, tokenKey)
	if err != nil {
		return TokenPrice{}, false
	}
	var quote TokenPrice
	if err := json.Unmarshal([]byte(raw), &quote); err != nil {
		slog.WarnContext(ctx, "Token quote decode failed", "error", err)
		return TokenPrice{}, false
	}
	return quote, true
}

// RefreshPrices fetches fresh quotes for the given items, a few at a
// time. Individual failures are logged and skipped; the refresh itself
// only fails when the context does.
func (s *Service) RefreshPrices(ctx context.Context, itemIDs []int64) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrentFetches)

	for _, itemID := range itemIDs {
		g.Go(func() error {
			price, err := s.quoter.AuctionPrice(ctx, itemID)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.WarnContext(ctx, "Price refresh skipped item",
					"item_id", itemID, "error", err)
				return nil
			}
			s.prices.Set(strconv.FormatInt(itemID, 10), price)
			s.persistPrice(ctx, price)
			return nil
		})
	}
	return g.Wait()
}
