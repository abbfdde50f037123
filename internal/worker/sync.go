package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/luphoeux/dantaes/internal/amqp"
	"github.com/luphoeux/dantaes/internal/core"
)

// EntryAppender writes a ledger record back to the source spreadsheet.
// The Google Sheets client implements it.
type EntryAppender interface {
	AppendEntry(ctx context.Context, r core.LedgerRecord) (string, error)
}

// SyncWorker mirrors manual entries from the queue into the source
// spreadsheet so the published feed eventually includes them too.
type SyncWorker struct {
	appender EntryAppender
}

func NewSyncWorker(appender EntryAppender) *SyncWorker {
	return &SyncWorker{appender: appender}
}

// HandleEntrySync appends one queued entry to the spreadsheet. Errors
// propagate so the delivery is requeued.
func (w *SyncWorker) HandleEntrySync(ctx context.Context, msg *amqp.EntrySyncMessage) error {
	ref, err := w.appender.AppendEntry(ctx, msg.Record)
	if err != nil {
		return fmt.Errorf("append entry to sheet: %w", err)
	}
	slog.InfoContext(ctx, "Entry written back to sheet",
		"name", msg.Record.Name,
		"date", msg.Record.Date,
		"ref", ref)
	return nil
}
