package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Transaction change actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TransactionChangedMessage tells the report worker which owner and month
// need their cash-flow report regenerated. The worker reloads transactions
// from the store; the message carries no amounts.
type TransactionChangedMessage struct {
	OwnerID       string    `json:"ownerId"`
	TransactionID string    `json:"transactionId"`
	Action        string    `json:"action"`
	Year          int       `json:"year"`
	Month         int       `json:"month"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionChangedMessage(ownerID, transactionID, action string, year, month int) *TransactionChangedMessage {
	return &TransactionChangedMessage{
		OwnerID:       ownerID,
		TransactionID: transactionID,
		Action:        action,
		Year:          year,
		Month:         month,
		Timestamp:     time.Now().UTC(),
	}
}

func (m *TransactionChangedMessage) Validate() error {
	if m.OwnerID == "" {
		return errors.New("missing owner id")
	}
	switch m.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return fmt.Errorf("unknown action %q", m.Action)
	}
	if m.Month < 1 || m.Month > 12 {
		return fmt.Errorf("invalid month %d", m.Month)
	}
	if m.Year < 1 {
		return fmt.Errorf("invalid year %d", m.Year)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *TransactionChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionChangedMessageFromJSON decodes and validates a message body.
func TransactionChangedMessageFromJSON(data []byte) (*TransactionChangedMessage, error) {
	var msg TransactionChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
