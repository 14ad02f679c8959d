package core

import (
	"errors"
	"strings"
	"time"
)

const (
	PartyA PartyID = "partyA"
	PartyB PartyID = "partyB"
	PartyC PartyID = "partyC"

	MethodPaypal PaymentMethod = "paypal"
	MethodCrypto PaymentMethod = "crypto"

	// DefaultCurrency is the single supported unit for direct payments.
	DefaultCurrency = "USD"
)

type (
	// PartyID identifies one of the three beneficiaries of net income.
	PartyID string

	// PaymentMethod is the channel a direct payment arrived through.
	PaymentMethod string

	// Date is a calendar date pinned to UTC midnight.
	Date struct {
		time.Time
	}

	// Settlement is the aggregate root for one weekly financial record.
	// Every field below the raw block is derived by the calculator; the
	// repository never accepts caller-supplied derived values.
	Settlement struct {
		ID            int64
		WeekStartDate Date
		WeekEndDate   Date

		// Raw inputs. GrossIncome already includes direct-payment revenue;
		// direct payments only offset payouts, never net income.
		GrossIncome  Money
		PaypalFees   Money
		FeePercentBP int64 // display aid, basis points; 0 means unset
		Notes        string

		// Derived by the calculator.
		TotalExpenses       Money
		DirectPaymentsTotal Money
		NetIncome           Money
		PartyAShare         Money
		PartyBShare         Money
		PartyCShare         Money
		PartyAPayout        Money
		PartyBPayout        Money
		PartyCPayout        Money

		Expenses       []Expense
		DirectPayments []DirectPayment

		CreatedAt time.Time
	}

	// Expense is a cost row owned by exactly one settlement and
	// cascade-deleted with it.
	Expense struct {
		ID           int64
		SettlementID int64
		Description  string
		Amount       Money
		PayeeEmail   string
		Notes        string
		CreatedAt    time.Time
	}

	// DirectPayment is revenue a party received outside the main channel,
	// offset against that party's payout.
	DirectPayment struct {
		ID            int64
		SettlementID  int64
		Amount        Money
		Currency      string
		PaymentMethod PaymentMethod
		ReceivedBy    PartyID
		Reference     string
		Notes         string
		CreatedAt     time.Time
	}
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidFraction      = errors.New("invalid fraction")
	ErrInvalidDate          = errors.New("invalid date")
	ErrInvalidPeriod        = errors.New("week start date must not be after week end date")
	ErrEmptyDescription     = errors.New("empty description")
	ErrInvalidParty         = errors.New("invalid party")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)

// Parties lists the three beneficiaries in canonical order.
func Parties() [3]PartyID {
	return [3]PartyID{PartyA, PartyB, PartyC}
}

// Valid reports whether p is one of the three known parties.
func (p PartyID) Valid() bool {
	switch p {
	case PartyA, PartyB, PartyC:
		return true
	}
	return false
}

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodPaypal, MethodCrypto:
		return true
	}
	return false
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t.UTC()}, nil
}

// String renders the date as ISO YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// Before reports whether d falls strictly before other, comparing dates only.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d falls strictly after other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// ValidatePeriod checks the settlement's raw fields: a well-formed week
// period and non-negative monetary inputs. Derived fields are not checked
// here; the calculator owns them.
func (s Settlement) ValidatePeriod() error {
	if err := s.WeekStartDate.Validate(); err != nil {
		return errors.New("invalid week start date")
	}
	if err := s.WeekEndDate.Validate(); err != nil {
		return errors.New("invalid week end date")
	}
	if s.WeekEndDate.Before(s.WeekStartDate) {
		return ErrInvalidPeriod
	}
	if s.GrossIncome.IsNegative() || s.PaypalFees.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return nil
}

func (p DirectPayment) Validate() error {
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if !p.PaymentMethod.Valid() {
		return ErrInvalidPaymentMethod
	}
	if !p.ReceivedBy.Valid() {
		return ErrInvalidParty
	}
	return nil
}
