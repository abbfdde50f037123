package sheet

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Source is the port for anything that can produce the raw ledger grid:
// the published TSV export, the Sheets API backend, or a test fixture.
type Source interface {
	Fetch(ctx context.Context) ([][]string, error)
}

// Fetcher retrieves a published TSV export over HTTP.
type Fetcher struct {
	URL    string
	Client *http.Client
}

// NewFetcher returns a Fetcher with a bounded default client.
func NewFetcher(url string) *Fetcher {
	return &Fetcher{
		URL:    url,
		Client: &http.Client{Timeout: 20 * time.Second},
	}
}

// Fetch downloads the export and splits it into a grid. Any transport or
// status failure is an error; callers keep their previous record set.
func (f *Fetcher) Fetch(ctx context.Context) ([][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}
	return SplitGrid(string(body)), nil
}

// StaticSource serves a fixed grid; used for seeding and tests.
type StaticSource [][]string

func (s StaticSource) Fetch(context.Context) ([][]string, error) {
	return s, nil
}
