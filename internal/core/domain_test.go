package core

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-02-08")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.Year() != 2026 || d.Month() != time.February || d.Day() != 8 {
		t.Fatalf("unexpected date %v", d)
	}
	if d.String() != "2026-02-08" {
		t.Fatalf("expected 2026-02-08, got %s", d.String())
	}

	for _, bad := range []string{"", "2026-2-8", "08/02/2026", "not-a-date"} {
		if _, err := ParseDate(bad); err == nil {
			t.Fatalf("%q expected error", bad)
		}
	}
}

func TestDateBefore(t *testing.T) {
	a := NewDate(2026, 2, 7)
	b := NewDate(2026, 2, 8)
	if !a.Before(b) {
		t.Fatal("expected 02-07 before 02-08")
	}
	if b.Before(a) || b.Before(b) {
		t.Fatal("Before must be strict")
	}
}

func TestSettlementValidatePeriod(t *testing.T) {
	good := Settlement{
		WeekStartDate: NewDate(2026, 2, 9),
		WeekEndDate:   NewDate(2026, 2, 15),
		GrossIncome:   Money{Cents: 150000},
		PaypalFees:    Money{Cents: 1500},
	}
	if err := good.ValidatePeriod(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Settlement{
		{WeekStartDate: Date{}, WeekEndDate: NewDate(2026, 2, 15)},
		{WeekStartDate: NewDate(2026, 2, 9), WeekEndDate: Date{}},
		{WeekStartDate: NewDate(2026, 2, 16), WeekEndDate: NewDate(2026, 2, 15)}, // inverted period
		{WeekStartDate: NewDate(2026, 2, 9), WeekEndDate: NewDate(2026, 2, 15), GrossIncome: Money{Cents: -1}},
	}
	for i, s := range bads {
		if err := s.ValidatePeriod(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}

	// start == end is a valid single-day period
	sameDay := good
	sameDay.WeekStartDate = sameDay.WeekEndDate
	if err := sameDay.ValidatePeriod(); err != nil {
		t.Fatalf("same-day period expected ok, got %v", err)
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{Description: "Hosting", Amount: Money{Cents: 5000}, PayeeEmail: "host@example.com"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Description: "", Amount: Money{Cents: 100}},
		{Description: "   ", Amount: Money{Cents: 100}},
		{Description: "a", Amount: Money{Cents: 0}},
		{Description: "a", Amount: Money{Cents: -50}},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDirectPaymentValidate(t *testing.T) {
	good := DirectPayment{
		Amount:        Money{Cents: 2500},
		Currency:      DefaultCurrency,
		PaymentMethod: MethodPaypal,
		ReceivedBy:    PartyB,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []DirectPayment{
		{Amount: Money{Cents: 0}, PaymentMethod: MethodPaypal, ReceivedBy: PartyA},
		{Amount: Money{Cents: 100}, PaymentMethod: "wire", ReceivedBy: PartyA},
		{Amount: Money{Cents: 100}, PaymentMethod: MethodCrypto, ReceivedBy: "partyD"},
	}
	for i, p := range bads {
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestEnums(t *testing.T) {
	for _, p := range Parties() {
		if !p.Valid() {
			t.Fatalf("party %s should be valid", p)
		}
	}
	if PartyID("partyD").Valid() {
		t.Fatal("unknown party must be invalid")
	}
	if !MethodCrypto.Valid() || PaymentMethod("cash").Valid() {
		t.Fatal("payment method validity broken")
	}
}
