// Package worker applies change events to the spreadsheet mirror.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// Source is the read side of storage the worker needs.
type Source interface {
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	FindTransactions(ctx context.Context, f storage.TransactionFilter) ([]core.Transaction, error)
	FindBudgets(ctx context.Context, month core.Month) ([]core.Budget, error)
}

// MirrorWorker loads the current state of a changed record and writes it to
// the mirror. Events carry keys only, so replays and reordering converge on
// whatever storage holds now.
type MirrorWorker struct {
	source Source
	mirror sheets.Mirror
}

func NewMirrorWorker(source Source, mirror sheets.Mirror) *MirrorWorker {
	return &MirrorWorker{source: source, mirror: mirror}
}

// HandleEvent is the AMQP consumer callback. A returned error requeues the message.
func (w *MirrorWorker) HandleEvent(ctx context.Context, evt *amqp.ChangeEvent) error {
	slog.InfoContext(ctx, "Processing change event",
		"entity", evt.Entity,
		"action", evt.Action,
		"id", evt.ID)

	switch evt.Entity {
	case amqp.EntityTransaction:
		return w.syncTransaction(ctx, evt)
	case amqp.EntityBudget:
		return w.syncBudget(ctx, evt)
	default:
		// Unknown entities are dropped rather than requeued forever.
		slog.WarnContext(ctx, "Ignoring event for unknown entity", "entity", evt.Entity)
		return nil
	}
}

func (w *MirrorWorker) syncTransaction(ctx context.Context, evt *amqp.ChangeEvent) error {
	if evt.Action == amqp.ActionDeleted {
		return w.deleteTransaction(ctx, evt.ID)
	}

	t, err := w.source.GetTransaction(ctx, evt.ID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted after the event was published; the delete event may be lost.
		slog.InfoContext(ctx, "Transaction no longer stored, clearing mirror row", "id", evt.ID)
		return w.deleteTransaction(ctx, evt.ID)
	}
	if err != nil {
		return fmt.Errorf("get transaction %s: %w", evt.ID, err)
	}

	if err := w.mirror.UpsertTransaction(ctx, t.WithDefaults()); err != nil {
		return fmt.Errorf("mirror transaction %s: %w", evt.ID, err)
	}
	slog.InfoContext(ctx, "Mirrored transaction", "id", evt.ID, "action", evt.Action)
	return nil
}

func (w *MirrorWorker) deleteTransaction(ctx context.Context, id string) error {
	if err := w.mirror.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("clear mirrored transaction %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Cleared mirrored transaction", "id", id)
	return nil
}

func (w *MirrorWorker) syncBudget(ctx context.Context, evt *amqp.ChangeEvent) error {
	month, err := core.ParseMonth(evt.Month)
	if err != nil {
		slog.WarnContext(ctx, "Ignoring budget event with invalid month", "month", evt.Month, "error", err)
		return nil
	}

	budgets, err := w.source.FindBudgets(ctx, month)
	if err != nil {
		return fmt.Errorf("find budgets for %s: %w", evt.Month, err)
	}
	for _, b := range budgets {
		if b.Category != evt.Category {
			continue
		}
		if err := w.mirror.UpsertBudget(ctx, b); err != nil {
			return fmt.Errorf("mirror budget %s/%s: %w", b.Category, evt.Month, err)
		}
		slog.InfoContext(ctx, "Mirrored budget", "category", b.Category, "month", evt.Month)
		return nil
	}

	slog.WarnContext(ctx, "Budget not found in storage, skipping", "category", evt.Category, "month", evt.Month)
	return nil
}

// StartupSync pushes every stored record to the mirror, recovering from
// events lost while the worker was down. Individual failures are logged and
// counted; the sync carries on.
func (w *MirrorWorker) StartupSync(ctx context.Context) (synced, failed int, err error) {
	txs, err := w.source.FindTransactions(ctx, storage.TransactionFilter{})
	if err != nil {
		return 0, 0, fmt.Errorf("list transactions for startup sync: %w", err)
	}
	budgets, err := w.source.FindBudgets(ctx, core.Month{})
	if err != nil {
		return 0, 0, fmt.Errorf("list budgets for startup sync: %w", err)
	}

	for _, t := range txs {
		if err := ctx.Err(); err != nil {
			return synced, failed, err
		}
		if err := w.mirror.UpsertTransaction(ctx, t.WithDefaults()); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror transaction during startup sync", "id", t.ID, "error", err)
			failed++
			continue
		}
		synced++
	}
	for _, b := range budgets {
		if err := ctx.Err(); err != nil {
			return synced, failed, err
		}
		if err := w.mirror.UpsertBudget(ctx, b); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror budget during startup sync",
				"category", b.Category, "month", b.Month.String(), "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync complete", "synced", synced, "failed", failed)
	return synced, failed, nil
}
