package amqp

import (
	"testing"
	"time"
)

func TestNewSnapshotWrittenMessage(t *testing.T) {
	msg := NewSnapshotWrittenMessage("1755012345678", "2025_08", 180000)

	if msg.EventID == "" {
		t.Error("EventID should be assigned")
	}
	if msg.AssetID != "1755012345678" || msg.PeriodKey != "2025_08" || msg.Value != 180000 {
		t.Errorf("unexpected payload: %+v", msg)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}

	other := NewSnapshotWrittenMessage("1755012345678", "2025_08", 180000)
	if other.EventID == msg.EventID {
		t.Error("EventID should be unique per message")
	}
}

func TestSnapshotWrittenMessage_JSON(t *testing.T) {
	msg := &SnapshotWrittenMessage{
		EventID:   "5f0c6b52-0000-0000-0000-000000000000",
		AssetID:   "42",
		PeriodKey: "2025_08",
		Value:     1234.56,
		Timestamp: time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC),
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := SnapshotWrittenMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("SnapshotWrittenMessageFromJSON() error = %v", err)
	}
	if parsed.EventID != msg.EventID || parsed.AssetID != msg.AssetID {
		t.Errorf("parsed %+v, want %+v", parsed, msg)
	}
	if parsed.Value != msg.Value || !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("parsed %+v, want %+v", parsed, msg)
	}
}

func TestSnapshotWrittenMessage_InvalidJSON(t *testing.T) {
	if _, err := SnapshotWrittenMessageFromJSON([]byte(`{"value": "not_a_number"}`)); err == nil {
		t.Error("SnapshotWrittenMessageFromJSON() should fail with invalid JSON")
	}
}
