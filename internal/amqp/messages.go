package amqp

import (
	"encoding/json"
	"time"
)

// ImportCompletedMessage announces that an ingestion session finished
// committing rows. It carries only the session id and row count; the worker
// re-reads transactions from the store before recomputing fixed costs.
type ImportCompletedMessage struct {
	SessionID string    `json:"session_id"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// NewImportCompletedMessage creates a message for a finished import
func NewImportCompletedMessage(sessionID string, count int) *ImportCompletedMessage {
	return &ImportCompletedMessage{
		SessionID: sessionID,
		Count:     count,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ImportCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ImportCompletedMessageFromJSON creates a message from JSON bytes
func ImportCompletedMessageFromJSON(data []byte) (*ImportCompletedMessage, error) {
	var msg ImportCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
