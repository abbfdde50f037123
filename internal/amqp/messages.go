package amqp

import (
	"encoding/json"
	"time"

	"github.com/luphoeux/dantaes/internal/core"
)

// EntrySyncMessage asks the worker to write a manual ledger entry back
// to the source spreadsheet. The record travels in full because local
// entries have no server-side id to look up.
type EntrySyncMessage struct {
	Record    core.LedgerRecord `json:"record"`
	Timestamp time.Time         `json:"timestamp"`
}

func NewEntrySyncMessage(r core.LedgerRecord) *EntrySyncMessage {
	return &EntrySyncMessage{Record: r, Timestamp: time.Now()}
}

func (m *EntrySyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EntrySyncMessageFromJSON(data []byte) (*EntrySyncMessage, error) {
	var msg EntrySyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
