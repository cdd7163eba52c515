package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SnapshotWrittenMessage announces that a snapshot was persisted. It carries
// the asset id and period key only; consumers fetch the full record from the
// primary store, so a stale value in flight is harmless.
type SnapshotWrittenMessage struct {
	EventID   string    `json:"eventId"`
	AssetID   string    `json:"assetId"`
	PeriodKey string    `json:"periodKey"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSnapshotWrittenMessage(assetID, periodKey string, value float64) *SnapshotWrittenMessage {
	return &SnapshotWrittenMessage{
		EventID:   uuid.NewString(),
		AssetID:   assetID,
		PeriodKey: periodKey,
		Value:     value,
		Timestamp: time.Now(),
	}
}

func (m *SnapshotWrittenMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SnapshotWrittenMessageFromJSON(data []byte) (*SnapshotWrittenMessage, error) {
	var msg SnapshotWrittenMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
