package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var ErrDataKeyNotFound = errors.New("data key not found in session")

// SessionDataEntry is one row of the append-mostly session data bus. A key is
// written once by the node that produced it and only read thereafter.
type SessionDataEntry struct {
	SessionID string    `json:"session_id"`
	DataKey   string    `json:"data_key"`
	DataValue Payload   `json:"data_value"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Payload is an opaque JSON-encoded value travelling through the bus.
type Payload []byte

func NewPayload(value any) (Payload, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	return Payload(data), nil
}

func (p Payload) Decode() (any, error) {
	if len(p) == 0 {
		return nil, nil
	}

	var value any

	if err := json.Unmarshal(p, &value); err != nil {
		return nil, err
	}

	return value, nil
}

// DataBus is the durable key-value store nodes within one session exchange
// data through. Rows are keyed by (sessionID, dataKey); engine-written keys
// follow the "<nodeID>_output" convention, callers may seed arbitrary keys
// such as DATE and TIME.
type DataBus interface {
	Put(ctx context.Context, entry SessionDataEntry) error
	Get(ctx context.Context, sessionID, dataKey string) (SessionDataEntry, error)
	List(ctx context.Context, sessionID string) ([]SessionDataEntry, error)
}

// NodeOutputKey returns the bus key a node's output map is stored under.
func NodeOutputKey(nodeID string) string {
	return nodeID + "_output"
}
