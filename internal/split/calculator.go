package split

import (
	"fmt"

	"splitbook/internal/core"
)

// Input carries the raw fields the calculation needs. Amount validation
// happens here so every caller gets identical, field-addressed errors.
type Input struct {
	GrossIncome    core.Money
	PaypalFees     core.Money
	Expenses       []core.Expense
	DirectPayments []core.DirectPayment
	WeekEndDate    core.Date
}

// Result holds every derived settlement figure.
type Result struct {
	TotalExpenses       core.Money
	DirectPaymentsTotal core.Money
	NetIncome           core.Money
	Shares              map[core.PartyID]core.Money
	Payouts             map[core.PartyID]core.Money
}

// FieldError reports a validation failure on a specific input field, e.g.
// "grossIncome" or "expenses[2].amount".
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Calculate derives all settlement figures from raw inputs. It is pure and
// deterministic: same inputs, bit-identical outputs, no I/O.
//
// Net income is grossIncome - paypalFees - totalExpenses. Direct payments are
// pre-received revenue already contained in gross income, so they never touch
// net income; they only offset the receiving party's payout, which may go
// negative when a party received more than their share.
//
// Rounding: party A and B shares are rounded half away from zero at cent
// precision; party C's share is assigned as the remainder so the three shares
// always sum to net income exactly.
func Calculate(policy *Policy, in Input) (*Result, error) {
	if in.GrossIncome.IsNegative() {
		return nil, &FieldError{Field: "grossIncome", Err: core.ErrInvalidAmount}
	}
	if in.PaypalFees.IsNegative() {
		return nil, &FieldError{Field: "paypalFees", Err: core.ErrInvalidAmount}
	}
	if err := in.WeekEndDate.Validate(); err != nil {
		return nil, &FieldError{Field: "weekEndDate", Err: err}
	}

	var totalExpenses core.Money
	for i, e := range in.Expenses {
		if err := e.Amount.Validate(); err != nil {
			return nil, &FieldError{Field: fmt.Sprintf("expenses[%d].amount", i), Err: err}
		}
		if err := e.Validate(); err != nil {
			return nil, &FieldError{Field: fmt.Sprintf("expenses[%d].description", i), Err: err}
		}
		totalExpenses = totalExpenses.Add(e.Amount)
	}

	var directTotal core.Money
	perPartyDirect := make(map[core.PartyID]core.Money, 3)
	for i, dp := range in.DirectPayments {
		if err := dp.Amount.Validate(); err != nil {
			return nil, &FieldError{Field: fmt.Sprintf("directPayments[%d].amount", i), Err: err}
		}
		if !dp.ReceivedBy.Valid() {
			return nil, &FieldError{Field: fmt.Sprintf("directPayments[%d].receivedBy", i), Err: core.ErrInvalidParty}
		}
		if !dp.PaymentMethod.Valid() {
			return nil, &FieldError{Field: fmt.Sprintf("directPayments[%d].paymentMethod", i), Err: core.ErrInvalidPaymentMethod}
		}
		directTotal = directTotal.Add(dp.Amount)
		perPartyDirect[dp.ReceivedBy] = perPartyDirect[dp.ReceivedBy].Add(dp.Amount)
	}

	net := in.GrossIncome.Sub(in.PaypalFees).Sub(totalExpenses)
	rules := policy.Resolve(in.WeekEndDate)

	shareA := applyFraction(net, rules.PartyA)
	shareB := applyFraction(net, rules.PartyB)
	shareC := net.Sub(shareA).Sub(shareB) // remainder keeps the sum exact

	shares := map[core.PartyID]core.Money{
		core.PartyA: shareA,
		core.PartyB: shareB,
		core.PartyC: shareC,
	}
	payouts := make(map[core.PartyID]core.Money, 3)
	for _, p := range core.Parties() {
		payouts[p] = shares[p].Sub(perPartyDirect[p])
	}

	return &Result{
		TotalExpenses:       totalExpenses,
		DirectPaymentsTotal: directTotal,
		NetIncome:           net,
		Shares:              shares,
		Payouts:             payouts,
	}, nil
}

// applyFraction multiplies an amount by a basis-point fraction, rounding
// half away from zero at cent precision.
func applyFraction(m core.Money, bp int64) core.Money {
	n := m.Cents * bp
	q := n / 10000
	r := n % 10000
	if r >= 5000 {
		q++
	} else if r <= -5000 {
		q--
	}
	return core.Money{Cents: q}
}

// DeriveFees computes PayPal fees from a percentage when no explicit fee
// amount is supplied, rounding half away from zero at cent precision.
func DeriveFees(gross core.Money, feeBP int64) core.Money {
	return applyFraction(gross, feeBP)
}
