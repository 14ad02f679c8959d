package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"splitbook/internal/core"
)

// CSVGenerator renders a settlement as a CSV statement: one summary section
// followed by the expense and direct payment line items.
type CSVGenerator struct{}

func NewCSVGenerator() *CSVGenerator { return &CSVGenerator{} }

var _ Generator = (*CSVGenerator)(nil)

func (g *CSVGenerator) Generate(ctx context.Context, s *core.Settlement) (*Document, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{
		{"Week Start", "Week End", "Gross Income", "PayPal Fees", "Total Expenses", "Direct Payments", "Net Income"},
		{
			s.WeekStartDate.String(), s.WeekEndDate.String(),
			s.GrossIncome.String(), s.PaypalFees.String(),
			s.TotalExpenses.String(), s.DirectPaymentsTotal.String(),
			s.NetIncome.String(),
		},
		{},
		{"Party", "Share", "Payout"},
		{string(core.PartyA), s.PartyAShare.String(), s.PartyAPayout.String()},
		{string(core.PartyB), s.PartyBShare.String(), s.PartyBPayout.String()},
		{string(core.PartyC), s.PartyCShare.String(), s.PartyCPayout.String()},
	}

	if len(s.Expenses) > 0 {
		records = append(records, []string{}, []string{"Expense", "Amount", "Payee", "Notes"})
		for _, e := range s.Expenses {
			records = append(records, []string{e.Description, e.Amount.String(), e.PayeeEmail, e.Notes})
		}
	}

	if len(s.DirectPayments) > 0 {
		records = append(records, []string{}, []string{"Direct Payment", "Currency", "Method", "Received By", "Reference"})
		for _, p := range s.DirectPayments {
			records = append(records, []string{p.Amount.String(), p.Currency, string(p.PaymentMethod), string(p.ReceivedBy), p.Reference})
		}
	}

	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	return &Document{
		Filename:    fmt.Sprintf("settlement-%s.csv", s.WeekEndDate.String()),
		ContentType: "text/csv",
		Content:     buf.Bytes(),
	}, nil
}
