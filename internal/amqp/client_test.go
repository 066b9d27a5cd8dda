package amqp

import (
	"testing"
	"time"
)

func TestNewImportCompletedMessage(t *testing.T) {
	msg := NewImportCompletedMessage("3f9c2a6e", 120)

	if msg.SessionID != "3f9c2a6e" {
		t.Errorf("NewImportCompletedMessage() SessionID = %v, want 3f9c2a6e", msg.SessionID)
	}
	if msg.Count != 120 {
		t.Errorf("NewImportCompletedMessage() Count = %v, want 120", msg.Count)
	}
	if msg.Timestamp.IsZero() {
		t.Error("NewImportCompletedMessage() Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("NewImportCompletedMessage() Timestamp should be recent")
	}
}

func TestImportCompletedMessage_JSON(t *testing.T) {
	timestamp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := &ImportCompletedMessage{
		SessionID: "3f9c2a6e",
		Count:     50,
		Timestamp: timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsedMsg, err := ImportCompletedMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("ImportCompletedMessageFromJSON() error = %v", err)
	}

	if parsedMsg.SessionID != msg.SessionID {
		t.Errorf("Parsed SessionID = %v, want %v", parsedMsg.SessionID, msg.SessionID)
	}
	if parsedMsg.Count != msg.Count {
		t.Errorf("Parsed Count = %v, want %v", parsedMsg.Count, msg.Count)
	}
	if !parsedMsg.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsedMsg.Timestamp, msg.Timestamp)
	}
}

func TestImportCompletedMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"session_id": 42, "count": "not_a_number"}`)

	_, err := ImportCompletedMessageFromJSON(invalidJSON)
	if err == nil {
		t.Error("ImportCompletedMessageFromJSON() should fail with invalid JSON")
	}
}
