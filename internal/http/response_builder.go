package http

import (
	"time"

	"splitbook/internal/core"
)

// Monetary values go out as decimal strings, mirroring the request format.
type settlementResponse struct {
	ID                  int64                   `json:"id"`
	WeekStartDate       string                  `json:"weekStartDate"`
	WeekEndDate         string                  `json:"weekEndDate"`
	GrossIncome         string                  `json:"grossIncome"`
	PaypalFees          string                  `json:"paypalFees"`
	FeePercentage       string                  `json:"feePercentage,omitempty"`
	TotalExpenses       string                  `json:"totalExpenses"`
	DirectPaymentsTotal string                  `json:"directPaymentsTotal"`
	NetIncome           string                  `json:"netIncome"`
	PartyAShare         string                  `json:"partyAShare"`
	PartyBShare         string                  `json:"partyBShare"`
	PartyCShare         string                  `json:"partyCShare"`
	PartyAPayout        string                  `json:"partyAPayout"`
	PartyBPayout        string                  `json:"partyBPayout"`
	PartyCPayout        string                  `json:"partyCPayout"`
	Notes               string                  `json:"notes,omitempty"`
	Expenses            []expenseResponse       `json:"expenses,omitempty"`
	DirectPayments      []directPaymentResponse `json:"directPayments,omitempty"`
	CreatedAt           time.Time               `json:"createdAt"`
}

type expenseResponse struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	PayeeEmail  string `json:"payeeEmail,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type directPaymentResponse struct {
	ID            int64  `json:"id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	PaymentMethod string `json:"paymentMethod"`
	ReceivedBy    string `json:"receivedBy"`
	Reference     string `json:"reference,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func toSettlementResponse(s *core.Settlement) settlementResponse {
	resp := settlementResponse{
		ID:                  s.ID,
		WeekStartDate:       s.WeekStartDate.String(),
		WeekEndDate:         s.WeekEndDate.String(),
		GrossIncome:         s.GrossIncome.String(),
		PaypalFees:          s.PaypalFees.String(),
		TotalExpenses:       s.TotalExpenses.String(),
		DirectPaymentsTotal: s.DirectPaymentsTotal.String(),
		NetIncome:           s.NetIncome.String(),
		PartyAShare:         s.PartyAShare.String(),
		PartyBShare:         s.PartyBShare.String(),
		PartyCShare:         s.PartyCShare.String(),
		PartyAPayout:        s.PartyAPayout.String(),
		PartyBPayout:        s.PartyBPayout.String(),
		PartyCPayout:        s.PartyCPayout.String(),
		Notes:               s.Notes,
		CreatedAt:           s.CreatedAt,
	}
	if s.FeePercentBP > 0 {
		resp.FeePercentage = core.FormatPercent(s.FeePercentBP)
	}
	for _, e := range s.Expenses {
		resp.Expenses = append(resp.Expenses, expenseResponse{
			ID:          e.ID,
			Description: e.Description,
			Amount:      e.Amount.String(),
			PayeeEmail:  e.PayeeEmail,
			Notes:       e.Notes,
		})
	}
	for _, p := range s.DirectPayments {
		resp.DirectPayments = append(resp.DirectPayments, directPaymentResponse{
			ID:            p.ID,
			Amount:        p.Amount.String(),
			Currency:      p.Currency,
			PaymentMethod: string(p.PaymentMethod),
			ReceivedBy:    string(p.ReceivedBy),
			Reference:     p.Reference,
			Notes:         p.Notes,
		})
	}
	return resp
}
