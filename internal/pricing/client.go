package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// copperPerGold converts the token endpoint's copper-denominated price
// to whole gold.
const copperPerGold = 10000

const maxResponseBytes = 1 << 20

// Client fetches quotes from the proxy that fronts the Blizzard API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %d", path, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// ItemMetadata fetches the static description of one item.
func (c *Client) ItemMetadata(ctx context.Context, itemID int64) (ItemMetadata, error) {
	var payload struct {
		ID      int64  `json:"id"`
		Name    string `json:"name"`
		Icon    string `json:"icon"`
		Quality string `json:"quality"`
		Error   string `json:"error"`
	}
	if err := c.getJSON(ctx, "/api/item?id="+strconv.FormatInt(itemID, 10), &payload); err != nil {
		return ItemMetadata{}, err
	}
	if payload.Error != "" {
		return ItemMetadata{}, fmt.Errorf("item %d: upstream error: %s", itemID, payload.Error)
	}
	meta := ItemMetadata{ID: payload.ID, Name: payload.Name, Icon: payload.Icon, Quality: payload.Quality}
	if meta.ID == 0 {
		meta.ID = itemID
	}
	return meta, nil
}

// AuctionPrice fetches the current lowest auction quote for one item.
func (c *Client) AuctionPrice(ctx context.Context, itemID int64) (AuctionPrice, error) {
	var payload struct {
		Price    *int64 `json:"price"`
		Silver   int64  `json:"silver"`
		Quantity int64  `json:"quantity"`
		Error    string `json:"error"`
	}
	if err := c.getJSON(ctx, "/api/auction-price?id="+strconv.FormatInt(itemID, 10), &payload); err != nil {
		return AuctionPrice{}, err
	}
	if payload.Error != "" {
		return AuctionPrice{}, fmt.Errorf("auction price %d: upstream error: %s", itemID, payload.Error)
	}
	if payload.Price == nil {
		return AuctionPrice{}, fmt.Errorf("auction price %d: no listing", itemID)
	}
	return AuctionPrice{
		ItemID:    itemID,
		Gold:      *payload.Price,
		Silver:    payload.Silver,
		Quantity:  payload.Quantity,
		FetchedAt: time.Now(),
	}, nil
}

// TokenPrice fetches the token quote. The endpoint reports copper; the
// returned value is whole gold.
func (c *Client) TokenPrice(ctx context.Context) (TokenPrice, error) {
	var payload struct {
		Price int64  `json:"price"`
		Error string `json:"error"`
	}
	if err := c.getJSON(ctx, "/api/wow-token", &payload); err != nil {
		return TokenPrice{}, err
	}
	if payload.Error != "" {
		return TokenPrice{}, fmt.Errorf("token price: upstream error: %s", payload.Error)
	}
	if payload.Price <= 0 {
		return TokenPrice{}, fmt.Errorf("token price: missing price in response")
	}
	return TokenPrice{
		Gold:      payload.Price / copperPerGold,
		FetchedAt: time.Now(),
	}, nil
}
