package amqp

import (
	"encoding/json"
	"time"

	"budgetwise/internal/core"

	"github.com/google/uuid"
)

// Event kinds carried on the notification stream.
const (
	KindTransactionCreated = "transaction.created"
	KindBudgetExceeded     = "budget.exceeded"
)

// TransactionEvent announces a new ledger entry. It carries the full entry
// so consumers never need database access.
type TransactionEvent struct {
	EventID     string    `json:"event_id"`
	Kind        string    `json:"kind"`
	Timestamp   time.Time `json:"timestamp"`
	ID          int64     `json:"id"`
	Amount      string    `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Type        string    `json:"type"`
}

// NewTransactionEvent builds an event for a committed transaction.
func NewTransactionEvent(t core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		EventID:     uuid.NewString(),
		Kind:        KindTransactionCreated,
		Timestamp:   time.Now(),
		ID:          t.ID,
		Amount:      t.Amount.String(),
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date,
		Type:        string(t.Type),
	}
}

// BudgetAlertEvent announces that a category's month spend passed its limit.
// Advisory only; the transaction that tripped it is already committed.
type BudgetAlertEvent struct {
	EventID   string    `json:"event_id"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category"`
	Limit     string    `json:"limit"`
	Spent     string    `json:"spent"`
}

// NewBudgetAlertEvent builds an alert event from an exceedance check result.
func NewBudgetAlertEvent(r core.ExceedanceResult) *BudgetAlertEvent {
	return &BudgetAlertEvent{
		EventID:   uuid.NewString(),
		Kind:      KindBudgetExceeded,
		Timestamp: time.Now(),
		Category:  r.Category,
		Limit:     r.Limit.String(),
		Spent:     r.Spent.String(),
	}
}

// Envelope is the minimal shape shared by every event, enough to route a
// delivery to its typed decoder.
type Envelope struct {
	EventID string `json:"event_id"`
	Kind    string `json:"kind"`
}

func (e *TransactionEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

func (e *BudgetAlertEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func BudgetAlertEventFromJSON(data []byte) (*BudgetAlertEvent, error) {
	var e BudgetAlertEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
