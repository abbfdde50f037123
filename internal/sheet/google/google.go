// Package google reads and writes the ledger spreadsheet through the
// Sheets API. It is an alternative to the published-TSV fetcher for
// deployments that own the spreadsheet directly.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/luphoeux/dantaes/internal/core"
	"github.com/luphoeux/dantaes/internal/sheet"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	ledgerSheet   string
	farmsSheet    string
}

var _ sheet.Source = (*Client)(nil)

// NewFromEnv builds a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID plus service account credentials via
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS. Optional sheet names:
// GOOGLE_LEDGER_SHEET_NAME (default "Registro") and
// GOOGLE_FARMS_SHEET_NAME (default "Farmeos").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	ledgerSheet := strings.TrimSpace(os.Getenv("GOOGLE_LEDGER_SHEET_NAME"))
	if ledgerSheet == "" {
		ledgerSheet = "Registro"
	}
	farmsSheet := strings.TrimSpace(os.Getenv("GOOGLE_FARMS_SHEET_NAME"))
	if farmsSheet == "" {
		farmsSheet = "Farmeos"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		ledgerSheet:   ledgerSheet,
		farmsSheet:    farmsSheet,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created")
	return service, nil
}

// Fetch returns the ledger sheet as a raw string grid, header row included,
// in the same shape the TSV fetcher produces.
func (c *Client) Fetch(ctx context.Context) ([][]string, error) {
	return c.readGrid(ctx, c.ledgerSheet)
}

// FetchFarms returns the farm catalogue sheet as a raw string grid.
func (c *Client) FetchFarms(ctx context.Context) ([][]string, error) {
	return c.readGrid(ctx, c.farmsSheet)
}

func (c *Client) readGrid(ctx context.Context, sheetName string) ([][]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:I", sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	grid := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		grid = append(grid, toStrings(row))
	}
	return grid, nil
}

// AppendEntry writes a manual ledger entry as a new row at the bottom of
// the ledger sheet and returns the written range.
func (c *Client) AppendEntry(ctx context.Context, r core.LedgerRecord) (string, error) {
	if err := r.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:A", c.ledgerSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get sheet dimensions for %s: %w", c.ledgerSheet, err)
	}
	nextRow := len(resp.Values) + 1

	dataRange := fmt.Sprintf("%s!A%d:H%d", c.ledgerSheet, nextRow, nextRow)
	vr := &gsheet.ValueRange{Values: [][]any{{
		r.Name, r.Quantity, r.UnitPrice, r.Total, r.Category, r.Date, r.ExternalID, r.IconRef,
	}}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append row to %s: %w", c.ledgerSheet, err)
	}
	return dataRange, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// FarmsSource adapts the farms tab to the sheet.Source port so the refresh
// worker can treat both tabs uniformly.
func (c *Client) FarmsSource() sheet.Source {
	return farmsSource{c}
}

type farmsSource struct{ c *Client }

func (s farmsSource) Fetch(ctx context.Context) ([][]string, error) {
	return s.c.FetchFarms(ctx)
}
