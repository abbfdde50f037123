// Package farms serves the farming catalogue: the list of farmable
// items from the catalogue sheet joined with their current auction
// quotes.
package farms

import (
	"context"
	"sync"

	"github.com/luphoeux/dantaes/internal/pricing"
	"github.com/luphoeux/dantaes/internal/sheet"
)

// Pricer supplies auction quotes. *pricing.Service implements it.
type Pricer interface {
	AuctionPrice(ctx context.Context, itemID int64) (pricing.AuctionPrice, error)
}

// View is one catalogue entry with its quote attached. Price is nil
// while no quote has ever been obtained for the item.
type View struct {
	Name        string                `json:"name"`
	ItemID      int64                 `json:"itemId"`
	IconRef     string                `json:"iconRef,omitempty"`
	TutorialURL string                `json:"tutorialUrl,omitempty"`
	Price       *pricing.AuctionPrice `json:"price,omitempty"`
}

// Catalog holds the current farm list and joins it with prices on read.
type Catalog struct {
	mu     sync.RWMutex
	rows   []sheet.FarmRow
	pricer Pricer
}

func NewCatalog(pricer Pricer) *Catalog {
	return &Catalog{pricer: pricer}
}

// Replace swaps in a freshly parsed catalogue.
func (c *Catalog) Replace(rows []sheet.FarmRow) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = rows
}

// ItemIDs lists the catalogue's item ids, in sheet order. The refresh
// worker feeds these to the price service.
func (c *Catalog) ItemIDs() []int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]int64, 0, len(c.rows))
	for _, row := range c.rows {
		ids = append(ids, row.ItemID)
	}
	return ids
}

// Views returns the catalogue joined with whatever quotes are known.
// Items without a quote are still listed.
func (c *Catalog) Views(ctx context.Context) []View {
	c.mu.RLock()
	rows := c.rows
	c.mu.RUnlock()

	out := make([]View, 0, len(rows))
	for _, row := range rows {
		v := View{
			Name:        row.Name,
			ItemID:      row.ItemID,
			IconRef:     row.IconRef,
			TutorialURL: row.TutorialURL,
		}
		if price, err := c.pricer.AuctionPrice(ctx, row.ItemID); err == nil {
			v.Price = &price
		}
		out = append(out, v)
	}
	return out
}
