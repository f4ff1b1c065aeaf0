// Package worker consumes the notification stream and turns events into
// user-facing alerts. It runs as its own process so a wedged broker or a
// slow notification sink never stalls the main binary.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"budgetwise/internal/amqp"
	"budgetwise/internal/core"
)

// LedgerMirror receives a copy of each committed ledger entry. The Google
// Sheets sink satisfies it.
type LedgerMirror interface {
	Append(ctx context.Context, t core.Transaction) (string, error)
}

// AlertWorker handles events from the notification queue. Budget alerts are
// appended to a plain-text notification feed the shell tails; transaction
// events are mirrored to the configured ledger mirror, if any.
type AlertWorker struct {
	mu       sync.Mutex
	feedPath string
	mirror   LedgerMirror

	handled  uint64
	alerted  uint64
	mirrored uint64
}

// NewAlertWorker creates a worker. mirror may be nil, in which case
// transaction events only feed the activity log.
func NewAlertWorker(feedPath string, mirror LedgerMirror) *AlertWorker {
	return &AlertWorker{feedPath: feedPath, mirror: mirror}
}

// HandleTransactionCreated logs ledger activity and mirrors the entry when a
// mirror is configured. A mirror failure is returned so the delivery is
// requeued and retried.
func (w *AlertWorker) HandleTransactionCreated(e *amqp.TransactionEvent) error {
	if w.mirror != nil {
		amount, err := core.ParseAmount(e.Amount)
		if err != nil {
			// A malformed amount will never parse on retry; drop it.
			slog.Error("Unparseable amount in transaction event, skipping mirror",
				"event_id", e.EventID, "amount", e.Amount)
		} else {
			t := core.Transaction{
				ID:          e.ID,
				Amount:      amount,
				Category:    e.Category,
				Description: e.Description,
				Date:        e.Date,
				Type:        core.TransactionType(e.Type),
			}
			if _, err := w.mirror.Append(context.Background(), t); err != nil {
				return fmt.Errorf("mirror transaction %d: %w", e.ID, err)
			}
			w.mu.Lock()
			w.mirrored++
			w.mu.Unlock()
		}
	}

	w.mu.Lock()
	w.handled++
	w.mu.Unlock()

	slog.Info("Transaction recorded",
		"event_id", e.EventID,
		"transaction_id", e.ID,
		"category", e.Category,
		"amount", e.Amount,
		"type", e.Type)
	return nil
}

// HandleBudgetAlert appends a notification line for an exceeded budget.
func (w *AlertWorker) HandleBudgetAlert(e *amqp.BudgetAlertEvent) error {
	line := fmt.Sprintf("%s\tBudget exceeded: %s spent %s of %s this month\n",
		e.Timestamp.Format(time.RFC3339), e.Category, e.Spent, e.Limit)

	if err := w.appendToFeed(line); err != nil {
		return fmt.Errorf("write notification: %w", err)
	}

	w.mu.Lock()
	w.handled++
	w.alerted++
	w.mu.Unlock()

	slog.Info("Budget alert delivered",
		"event_id", e.EventID,
		"category", e.Category,
		"spent", e.Spent,
		"limit", e.Limit)
	return nil
}

func (w *AlertWorker) appendToFeed(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.feedPath), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.feedPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(line)
	return err
}

// Stats reports how many events the worker has handled, how many produced
// an alert, and how many entries were mirrored.
func (w *AlertWorker) Stats() (handled, alerted, mirrored uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.handled, w.alerted, w.mirrored
}
