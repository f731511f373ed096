package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAllocateRegular(t *testing.T) {
	cases := []struct {
		amount, tithe, wants, savings string
	}{
		{"1000", "100", "450", "450"},
		{"500", "50", "225", "225"},
		{"33.33", "3.33", "15", "15"},
		{"12.34", "1.23", "5.55", "5.55"},
		{"0.03", "0", "0.01", "0.01"},
	}
	for _, tc := range cases {
		a := Allocate(dec(tc.amount), Regular)
		if !a.Tithe.Equal(dec(tc.tithe)) || !a.Wants.Equal(dec(tc.wants)) || !a.Savings.Equal(dec(tc.savings)) {
			t.Errorf("Allocate(%s) = %s/%s/%s, want %s/%s/%s", tc.amount,
				a.Tithe, a.Wants, a.Savings, tc.tithe, tc.wants, tc.savings)
		}
		residue := a.Tithe.Add(a.Wants).Add(a.Savings).Sub(dec(tc.amount)).Abs()
		if residue.GreaterThan(allocationTolerance) {
			t.Errorf("Allocate(%s) residue %s exceeds one cent", tc.amount, residue)
		}
	}
}

func TestAllocateRegularMatchesRates(t *testing.T) {
	for cents := int64(1); cents <= 5000; cents += 37 {
		amount := decimal.New(cents, -2)
		a := Allocate(amount, Regular)
		if !a.Tithe.Equal(amount.Mul(dec("0.1")).Round(2)) {
			t.Fatalf("tithe for %s = %s", amount, a.Tithe)
		}
		want := amount.Mul(dec("0.45")).Round(2)
		if !a.Wants.Equal(want) || !a.Savings.Equal(want) {
			t.Fatalf("wants/savings for %s = %s/%s, want %s", amount, a.Wants, a.Savings, want)
		}
	}
}

func TestAllocateSupplemental(t *testing.T) {
	for _, s := range []string{"200", "0.01", "1234.56"} {
		a := Allocate(dec(s), Supplemental)
		if !a.Tithe.IsZero() || !a.Savings.IsZero() || !a.Wants.Equal(dec(s)) {
			t.Errorf("Allocate(%s, Supplemental) = %+v", s, a)
		}
	}
}

func TestAllocatePanicsOnMisuse(t *testing.T) {
	cases := []struct {
		name   string
		amount decimal.Decimal
		c      Classification
	}{
		{"zero", decimal.Zero, Regular},
		{"negative", dec("-5"), Supplemental},
		{"unknown classification", dec("5"), Classification("Bonus")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected panic")
				}
			}()
			Allocate(tc.amount, tc.c)
		})
	}
}

func TestPreview(t *testing.T) {
	if _, ok := Preview("", Regular); ok {
		t.Fatal("empty amount should not preview")
	}
	if _, ok := Preview("10", Classification("nope")); ok {
		t.Fatal("unknown classification should not preview")
	}
	a, ok := Preview("100", Regular)
	if !ok || !a.Tithe.Equal(dec("10")) || !a.Wants.Equal(dec("45")) {
		t.Fatalf("unexpected preview %+v ok=%v", a, ok)
	}
}
