// Package pricing talks to the Blizzard API proxy for item metadata,
// auction house prices, and the game-time token quote. Results are held
// in memory with a TTL and persisted to the key/value store so a
// restart or a proxy outage degrades to the last known values.
package pricing

import "time"

// ItemMetadata is the static description of a tradable item.
type ItemMetadata struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	Quality   string    `json:"quality,omitempty"`
	FetchedAt time.Time `json:"fetchedAt,omitempty"`
}

// AuctionPrice is one observed auction house quote for an item. Gold is
// the whole-gold part; Silver the fractional remainder in hundredths.
type AuctionPrice struct {
	ItemID    int64     `json:"itemId"`
	Gold      int64     `json:"price"`
	Silver    int64     `json:"silver,omitempty"`
	Quantity  int64     `json:"quantity"`
	FetchedAt time.Time `json:"fetchedAt"`
	Stale     bool      `json:"stale,omitempty"`
}

// TokenPrice is the current token quote in whole gold.
type TokenPrice struct {
	Gold      int64     `json:"gold"`
	FetchedAt time.Time `json:"fetchedAt"`
	Stale     bool      `json:"stale,omitempty"`
}
