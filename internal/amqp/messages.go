package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entity names carried by change events.
const (
	EntityTransaction = "transaction"
	EntityBudget      = "budget"
)

// Actions carried by change events.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ChangeEvent announces a committed write. It carries only the key of the
// record; consumers fetch the current state from storage.
type ChangeEvent struct {
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	ID        string    `json:"id,omitempty"`
	Category  string    `json:"category,omitempty"`
	Month     string    `json:"month,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionEvent creates an event for a transaction write.
func NewTransactionEvent(action, id string) *ChangeEvent {
	return &ChangeEvent{
		Entity:    EntityTransaction,
		Action:    action,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// NewBudgetEvent creates an event for a budget upsert.
func NewBudgetEvent(category, month string) *ChangeEvent {
	return &ChangeEvent{
		Entity:    EntityBudget,
		Action:    ActionUpdated,
		Category:  category,
		Month:     month,
		Timestamp: time.Now(),
	}
}

// Validate rejects events a consumer cannot act on.
func (e *ChangeEvent) Validate() error {
	switch e.Entity {
	case EntityTransaction:
		if e.ID == "" {
			return fmt.Errorf("transaction event without id")
		}
		switch e.Action {
		case ActionCreated, ActionUpdated, ActionDeleted:
		default:
			return fmt.Errorf("unknown action %q", e.Action)
		}
	case EntityBudget:
		if e.Category == "" || e.Month == "" {
			return fmt.Errorf("budget event without category or month")
		}
	default:
		return fmt.Errorf("unknown entity %q", e.Entity)
	}
	return nil
}

// ToJSON converts the event to JSON bytes
func (e *ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ChangeEventFromJSON decodes and validates an event.
func ChangeEventFromJSON(data []byte) (*ChangeEvent, error) {
	var evt ChangeEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, err
	}
	if err := evt.Validate(); err != nil {
		return nil, err
	}
	return &evt, nil
}
