// Package services holds the entry gateway: every read and write of
// income and expense entries goes through it.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"moneytracker/internal/amqp"
	"moneytracker/internal/core"
	"moneytracker/internal/records"
)

// DefaultTimeout bounds a single store round trip.
const DefaultTimeout = 7 * time.Second

// EventPublisher announces entry changes to other processes.
type EventPublisher interface {
	Publish(ctx context.Context, evt *amqp.EntryEvent) error
	Close() error
}

// EntryService orchestrates entry operations across the record store and AMQP
type EntryService struct {
	store   records.Store
	events  EventPublisher
	timeout time.Duration
}

// NewEntryService wires the gateway. events may be nil when no broker is
// configured; timeout <= 0 selects DefaultTimeout.
func NewEntryService(store records.Store, events EventPublisher, timeout time.Duration) *EntryService {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &EntryService{
		store:   store,
		events:  events,
		timeout: timeout,
	}
}

// FetchAll loads both collections for userID, newest first. Without a user
// there is nothing to load and the store is not contacted.
func (s *EntryService) FetchAll(ctx context.Context, userID string) ([]core.IncomeEntry, []core.ExpenseEntry, error) {
	if userID == "" {
		return []core.IncomeEntry{}, []core.ExpenseEntry{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		income   []core.IncomeEntry
		expenses []core.ExpenseEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		income, err = s.store.ListIncome(gctx, userID)
		if err != nil {
			return fmt.Errorf("fetch income: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		expenses, err = s.store.ListExpenses(gctx, userID)
		if err != nil {
			return fmt.Errorf("fetch expenses: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if income == nil {
		income = []core.IncomeEntry{}
	}
	if expenses == nil {
		expenses = []core.ExpenseEntry{}
	}
	return income, expenses, nil
}

// InsertIncome validates and stores the entry, then announces it.
func (s *EntryService) InsertIncome(ctx context.Context, e core.IncomeEntry) (core.IncomeEntry, error) {
	if err := e.Validate(); err != nil {
		return core.IncomeEntry{}, err
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	saved, err := s.store.InsertIncome(storeCtx, e)
	if err != nil {
		return core.IncomeEntry{}, fmt.Errorf("save income: %w", err)
	}

	s.publish(ctx, amqp.NewEntryEvent(amqp.EntryCreated, records.Income, saved.ID, saved.UserID))
	return saved, nil
}

func (s *EntryService) InsertExpense(ctx context.Context, e core.ExpenseEntry) (core.ExpenseEntry, error) {
	if err := e.Validate(); err != nil {
		return core.ExpenseEntry{}, err
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	saved, err := s.store.InsertExpense(storeCtx, e)
	if err != nil {
		return core.ExpenseEntry{}, fmt.Errorf("save expense: %w", err)
	}

	s.publish(ctx, amqp.NewEntryEvent(amqp.EntryCreated, records.Expenses, saved.ID, saved.UserID))
	return saved, nil
}

// Delete permanently removes one of the user's entries.
func (s *EntryService) Delete(ctx context.Context, userID string, c records.Collection, id string) error {
	if id == "" {
		return records.ErrNotFound
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.store.Delete(storeCtx, userID, c, id); err != nil {
		return fmt.Errorf("delete %s: %w", c, err)
	}

	s.publish(ctx, amqp.NewEntryEvent(amqp.EntryDeleted, c, id, userID))
	return nil
}

// publish never fails the caller: the write already happened.
func (s *EntryService) publish(ctx context.Context, evt *amqp.EntryEvent) {
	if s.events == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping entry event", "id", evt.ID)
		return
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		slog.ErrorContext(ctx, "Failed to publish entry event",
			"kind", evt.Kind,
			"collection", evt.Collection,
			"id", evt.ID,
			"error", err)
	}
}

// Close closes the store (when it holds resources) and the publisher.
func (s *EntryService) Close() error {
	var errs []error

	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.events != nil {
		if err := s.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close entry service: %w", errors.Join(errs...))
	}

	return nil
}
