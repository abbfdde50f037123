package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/luphoeux/dantaes/internal/core"
)

// localEntriesKey holds the manual ledger entries as a JSON array. The
// whole document is rewritten on every append; the lists stay small.
const localEntriesKey = "ledger_local_entries"

// OverrideStore keeps manually entered ledger records that the source
// spreadsheet does not know about.
type OverrideStore struct {
	kv *KV
}

func NewOverrideStore(kv *KV) *OverrideStore {
	return &OverrideStore{kv: kv}
}

// Load returns all local entries, oldest first. A missing document is an
// empty list, not an error.
func (s *OverrideStore) Load(ctx context.Context) ([]core.LedgerRecord, error) {
	raw, err := s.kv.Get(ctx, localEntriesKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var records []core.LedgerRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("decode local entries: %w", err)
	}
	for i := range records {
		records[i].IsLocal = true
	}
	return records, nil
}

// Append validates and persists a new local entry. The write completes
// before Append returns so a crash cannot drop an acknowledged entry.
func (s *OverrideStore) Append(ctx context.Context, r core.LedgerRecord) error {
	if err := r.Validate(); err != nil {
		return err
	}
	r.IsLocal = true
	r.Category = core.NormalizeCategory(r.Category)

	records, err := s.Load(ctx)
	if err != nil {
		return err
	}
	records = append(records, r)

	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode local entries: %w", err)
	}
	if err := s.kv.Set(ctx, localEntriesKey, string(raw)); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Local entry saved",
		"name", r.Name,
		"date", r.Date,
		"total", r.Total,
		"count", len(records))
	return nil
}

// Clear deletes every local entry.
func (s *OverrideStore) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, localEntriesKey)
}
