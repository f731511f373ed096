package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"moneytracker/internal/amqp"
	"moneytracker/internal/core"
	"moneytracker/internal/records"
	"moneytracker/internal/records/memory"
)

type fakeMirror struct {
	income   []string
	expenses []string
	cleared  []string
	err      error
}

func (m *fakeMirror) AppendIncome(_ context.Context, e core.IncomeEntry) error {
	if m.err != nil {
		return m.err
	}
	m.income = append(m.income, e.ID)
	return nil
}

func (m *fakeMirror) AppendExpense(_ context.Context, e core.ExpenseEntry) error {
	if m.err != nil {
		return m.err
	}
	m.expenses = append(m.expenses, e.ID)
	return nil
}

func (m *fakeMirror) ClearEntry(_ context.Context, c records.Collection, id string) error {
	if m.err != nil {
		return m.err
	}
	m.cleared = append(m.cleared, string(c)+":"+id)
	return nil
}

type fakeConsumer struct {
	events []*amqp.EntryEvent
	errs   []error
}

func (c *fakeConsumer) Consume(ctx context.Context, handler func(context.Context, *amqp.EntryEvent) error) error {
	for _, evt := range c.events {
		c.errs = append(c.errs, handler(ctx, evt))
	}
	return nil
}

func seed(t *testing.T) (*memory.Store, core.IncomeEntry, core.ExpenseEntry) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	inc, err := core.NewIncomeEntry("user-1", core.NewDate(2024, 1, 15),
		decimal.RequireFromString("1000"), core.Regular, core.SavingsInvestment)
	if err != nil {
		t.Fatalf("NewIncomeEntry() error = %v", err)
	}
	if inc, err = store.InsertIncome(ctx, inc); err != nil {
		t.Fatalf("InsertIncome() error = %v", err)
	}

	exp, err := core.NewExpenseEntry("user-1", core.NewDate(2024, 1, 16), "Coffee",
		decimal.RequireFromString("3.50"), core.CategoryFood)
	if err != nil {
		t.Fatalf("NewExpenseEntry() error = %v", err)
	}
	if exp, err = store.InsertExpense(ctx, exp); err != nil {
		t.Fatalf("InsertExpense() error = %v", err)
	}
	return store, inc, exp
}

func TestMirrorWorker_HandleEvent(t *testing.T) {
	store, inc, exp := seed(t)

	tests := []struct {
		name        string
		evt         *amqp.EntryEvent
		mirrorErr   error
		wantErr     bool
		wantIncome  int
		wantExpense int
		wantCleared []string
	}{
		{
			name:       "created income is appended",
			evt:        amqp.NewEntryEvent(amqp.EntryCreated, records.Income, inc.ID, "user-1"),
			wantIncome: 1,
		},
		{
			name:        "created expense is appended",
			evt:         amqp.NewEntryEvent(amqp.EntryCreated, records.Expenses, exp.ID, "user-1"),
			wantExpense: 1,
		},
		{
			name: "created but already deleted is skipped",
			evt:  amqp.NewEntryEvent(amqp.EntryCreated, records.Expenses, "gone", "user-1"),
		},
		{
			name:        "deleted clears the row",
			evt:         amqp.NewEntryEvent(amqp.EntryDeleted, records.Income, "inc-x", "user-1"),
			wantCleared: []string{"income:inc-x"},
		},
		{
			name:      "mirror failure is returned for requeue",
			evt:       amqp.NewEntryEvent(amqp.EntryCreated, records.Income, inc.ID, "user-1"),
			mirrorErr: errors.New("quota exceeded"),
			wantErr:   true,
		},
		{
			name:    "unknown kind",
			evt:     &amqp.EntryEvent{Kind: "updated", Collection: records.Income, ID: inc.ID},
			wantErr: true,
		},
		{
			name:    "unknown collection",
			evt:     &amqp.EntryEvent{Kind: amqp.EntryCreated, Collection: "other", ID: inc.ID},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mirror := &fakeMirror{err: tt.mirrorErr}
			w := NewMirrorWorker(store, mirror)

			err := w.HandleEvent(context.Background(), tt.evt)
			if (err != nil) != tt.wantErr {
				t.Fatalf("HandleEvent() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(mirror.income) != tt.wantIncome {
				t.Errorf("income appends = %d, want %d", len(mirror.income), tt.wantIncome)
			}
			if len(mirror.expenses) != tt.wantExpense {
				t.Errorf("expense appends = %d, want %d", len(mirror.expenses), tt.wantExpense)
			}
			if len(mirror.cleared) != len(tt.wantCleared) {
				t.Fatalf("cleared = %v, want %v", mirror.cleared, tt.wantCleared)
			}
			for i := range tt.wantCleared {
				if mirror.cleared[i] != tt.wantCleared[i] {
					t.Errorf("cleared[%d] = %q, want %q", i, mirror.cleared[i], tt.wantCleared[i])
				}
			}
		})
	}
}

func TestMirrorWorker_Run(t *testing.T) {
	store, inc, exp := seed(t)
	mirror := &fakeMirror{}
	consumer := &fakeConsumer{events: []*amqp.EntryEvent{
		amqp.NewEntryEvent(amqp.EntryCreated, records.Income, inc.ID, "user-1"),
		amqp.NewEntryEvent(amqp.EntryCreated, records.Expenses, exp.ID, "user-1"),
		amqp.NewEntryEvent(amqp.EntryDeleted, records.Expenses, exp.ID, "user-1"),
	}}

	if err := NewMirrorWorker(store, mirror).Run(context.Background(), consumer); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for i, err := range consumer.errs {
		if err != nil {
			t.Errorf("event %d error = %v", i, err)
		}
	}
	if len(mirror.income) != 1 || mirror.income[0] != inc.ID {
		t.Errorf("income = %v, want [%s]", mirror.income, inc.ID)
	}
	if len(mirror.cleared) != 1 || mirror.cleared[0] != "expense:"+exp.ID {
		t.Errorf("cleared = %v, want [expense:%s]", mirror.cleared, exp.ID)
	}
}
