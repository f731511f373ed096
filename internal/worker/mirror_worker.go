package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"moneytracker/internal/amqp"
	"moneytracker/internal/core"
	"moneytracker/internal/records"
)

// Mirror is the spreadsheet side of the worker.
type Mirror interface {
	AppendIncome(ctx context.Context, e core.IncomeEntry) error
	AppendExpense(ctx context.Context, e core.ExpenseEntry) error
	ClearEntry(ctx context.Context, c records.Collection, id string) error
}

// Consumer delivers entry events until ctx is cancelled.
type Consumer interface {
	Consume(ctx context.Context, handler func(context.Context, *amqp.EntryEvent) error) error
}

// MirrorWorker copies entries into the mirror as entry events arrive.
type MirrorWorker struct {
	entries records.EntryGetter
	mirror  Mirror
}

func NewMirrorWorker(entries records.EntryGetter, mirror Mirror) *MirrorWorker {
	return &MirrorWorker{entries: entries, mirror: mirror}
}

// Run blocks consuming events from consumer.
func (w *MirrorWorker) Run(ctx context.Context, consumer Consumer) error {
	return consumer.Consume(ctx, w.HandleEvent)
}

// HandleEvent processes a single entry event. A returned error makes the
// consumer requeue the message.
func (w *MirrorWorker) HandleEvent(ctx context.Context, evt *amqp.EntryEvent) error {
	switch evt.Kind {
	case amqp.EntryCreated:
		return w.handleCreated(ctx, evt)
	case amqp.EntryDeleted:
		if err := w.mirror.ClearEntry(ctx, evt.Collection, evt.ID); err != nil {
			return fmt.Errorf("clear %s %s: %w", evt.Collection, evt.ID, err)
		}
		slog.InfoContext(ctx, "Entry removed from mirror", "collection", evt.Collection, "id", evt.ID)
		return nil
	}
	return fmt.Errorf("unknown event kind %q", evt.Kind)
}

func (w *MirrorWorker) handleCreated(ctx context.Context, evt *amqp.EntryEvent) error {
	var err error
	switch evt.Collection {
	case records.Income:
		var e core.IncomeEntry
		if e, err = w.entries.GetIncome(ctx, evt.ID); err == nil {
			err = w.mirror.AppendIncome(ctx, e)
		}
	case records.Expenses:
		var e core.ExpenseEntry
		if e, err = w.entries.GetExpense(ctx, evt.ID); err == nil {
			err = w.mirror.AppendExpense(ctx, e)
		}
	default:
		return records.ErrUnknownCollection
	}

	// Deleted before we got to it; the delete event clears nothing either.
	if errors.Is(err, records.ErrNotFound) {
		slog.WarnContext(ctx, "Entry no longer in store, skipping mirror",
			"collection", evt.Collection,
			"id", evt.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("mirror %s %s: %w", evt.Collection, evt.ID, err)
	}

	slog.InfoContext(ctx, "Entry mirrored", "collection", evt.Collection, "id", evt.ID)
	return nil
}
