package types

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/mateoherrera/threadline-backend/pkg/enums"
)

// StatusHistoryEntry is one append-only audit record of an order status
// change.
type StatusHistoryEntry struct {
	Status enums.OrderStatus `json:"status"`
	At     time.Time         `json:"at"`
	Actor  string            `json:"actor"`
	Note   string            `json:"note,omitempty"`
}

// StatusHistory is the ordered audit log marshaled as JSONB.
type StatusHistory []StatusHistoryEntry

// Append returns the history with a new entry added; existing entries are
// never modified or removed.
func (h StatusHistory) Append(status enums.OrderStatus, at time.Time, actor, note string) StatusHistory {
	return append(h, StatusHistoryEntry{Status: status, At: at, Actor: actor, Note: note})
}

// Value serializes the history to JSON.
func (h StatusHistory) Value() (driver.Value, error) {
	if h == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(h)
}

// Scan decodes JSONB into the history slice.
func (h *StatusHistory) Scan(value interface{}) error {
	if value == nil {
		*h = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var decoded StatusHistory
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*h = decoded
	return nil
}
