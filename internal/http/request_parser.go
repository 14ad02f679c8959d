package http

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"splitbook/internal/core"
)

// requestError is a parse-level problem the client can fix.
type requestError struct {
	Field   string
	Message string
}

type settlementRequest struct {
	WeekStartDate string                 `json:"weekStartDate"`
	WeekEndDate   string                 `json:"weekEndDate"`
	GrossIncome   string                 `json:"grossIncome"`
	PaypalFees    string                 `json:"paypalFees"`
	FeePercentage string                 `json:"feePercentage"`
	Notes         string                 `json:"notes"`
	Expenses      []expenseRequest       `json:"expenses"`
	DirectPayment []directPaymentRequest `json:"directPayments"`
}

type expenseRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	PayeeEmail  string `json:"payeeEmail"`
	Notes       string `json:"notes"`
}

type directPaymentRequest struct {
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	PaymentMethod string `json:"paymentMethod"`
	ReceivedBy    string `json:"receivedBy"`
	Reference     string `json:"reference"`
	Notes         string `json:"notes"`
}

// parseSettlementRequest decodes the JSON body into a settlement draft.
// Monetary amounts arrive as decimal strings so the client never does float
// arithmetic. Semantic validation happens in the service; this only converts.
func parseSettlementRequest(body io.Reader) (*core.Settlement, *requestError) {
	var req settlementRequest
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, &requestError{Message: "invalid JSON body: " + err.Error()}
	}

	s := &core.Settlement{
		Notes: strings.TrimSpace(req.Notes),
	}

	var err error
	if s.WeekStartDate, err = core.ParseDate(req.WeekStartDate); err != nil {
		return nil, &requestError{Field: "weekStartDate", Message: "must be YYYY-MM-DD"}
	}
	if s.WeekEndDate, err = core.ParseDate(req.WeekEndDate); err != nil {
		return nil, &requestError{Field: "weekEndDate", Message: "must be YYYY-MM-DD"}
	}

	if s.GrossIncome, err = core.ParseAmount(req.GrossIncome); err != nil {
		return nil, &requestError{Field: "grossIncome", Message: err.Error()}
	}
	if req.PaypalFees != "" {
		if s.PaypalFees, err = core.ParseAmount(req.PaypalFees); err != nil {
			return nil, &requestError{Field: "paypalFees", Message: err.Error()}
		}
	}
	if req.FeePercentage != "" {
		if s.FeePercentBP, err = core.ParsePercent(req.FeePercentage); err != nil {
			return nil, &requestError{Field: "feePercentage", Message: err.Error()}
		}
	}

	for i, e := range req.Expenses {
		amount, err := core.ParseAmount(e.Amount)
		if err != nil {
			return nil, &requestError{
				Field:   fmt.Sprintf("expenses[%d].amount", i),
				Message: err.Error(),
			}
		}
		s.Expenses = append(s.Expenses, core.Expense{
			Description: strings.TrimSpace(e.Description),
			Amount:      amount,
			PayeeEmail:  strings.TrimSpace(e.PayeeEmail),
			Notes:       strings.TrimSpace(e.Notes),
		})
	}

	for i, p := range req.DirectPayment {
		amount, err := core.ParseAmount(p.Amount)
		if err != nil {
			return nil, &requestError{
				Field:   fmt.Sprintf("directPayments[%d].amount", i),
				Message: err.Error(),
			}
		}
		currency := strings.ToUpper(strings.TrimSpace(p.Currency))
		if currency == "" {
			currency = core.DefaultCurrency
		}
		s.DirectPayments = append(s.DirectPayments, core.DirectPayment{
			Amount:        amount,
			Currency:      currency,
			PaymentMethod: core.PaymentMethod(strings.TrimSpace(p.PaymentMethod)),
			ReceivedBy:    core.PartyID(strings.TrimSpace(p.ReceivedBy)),
			Reference:     strings.TrimSpace(p.Reference),
			Notes:         strings.TrimSpace(p.Notes),
		})
	}

	return s, nil
}
