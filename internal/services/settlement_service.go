// Package services orchestrates settlement operations across SQLite, the
// split calculator and AMQP.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"splitbook/internal/amqp"
	"splitbook/internal/core"
	"splitbook/internal/split"
	"splitbook/internal/storage"
)

// ValidationError marks input the caller can fix, as opposed to a storage or
// broker failure. Field uses the request's JSON naming, e.g.
// "expenses[1].amount".
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// SettlementStore is the persistence surface the service needs.
type SettlementStore interface {
	CreateSettlement(ctx context.Context, s *core.Settlement) error
	UpdateSettlement(ctx context.Context, id int64, s *core.Settlement) error
	GetSettlement(ctx context.Context, id int64) (*core.Settlement, error)
	ListSettlements(ctx context.Context) ([]core.Settlement, error)
	DeleteSettlement(ctx context.Context, id int64) error
	Close() error
}

// SyncPublisher pushes mirror notifications. May be absent in dev setups.
type SyncPublisher interface {
	PublishSettlementSync(ctx context.Context, id int64, weekEndDate string) error
	Close() error
}

// SettlementService recomputes every derived figure from raw inputs on each
// create and update, persists the result, and notifies the mirror worker.
// Stored derived fields are never trusted as inputs.
type SettlementService struct {
	storage   SettlementStore
	publisher SyncPublisher
	policy    *split.Policy
}

func NewSettlementService(store SettlementStore, publisher SyncPublisher, policy *split.Policy) *SettlementService {
	return &SettlementService{
		storage:   store,
		publisher: publisher,
		policy:    policy,
	}
}

// CreateSettlement validates and computes the settlement, saves it, then
// publishes a sync message. Publish failures are logged, not returned: the
// settlement is already durable locally and the worker's pending scan will
// pick it up.
func (s *SettlementService) CreateSettlement(ctx context.Context, settlement *core.Settlement) error {
	if err := s.compute(settlement); err != nil {
		return err
	}

	if err := s.storage.CreateSettlement(ctx, settlement); err != nil {
		return fmt.Errorf("save settlement: %w", err)
	}

	s.publishSyncMessage(ctx, settlement.ID, settlement.WeekEndDate.String())
	return nil
}

// UpdateSettlement recomputes everything from the submitted raw fields and
// replaces the stored settlement, children included.
func (s *SettlementService) UpdateSettlement(ctx context.Context, id int64, settlement *core.Settlement) error {
	if err := s.compute(settlement); err != nil {
		return err
	}

	if err := s.storage.UpdateSettlement(ctx, id, settlement); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return fmt.Errorf("update settlement: %w", err)
	}

	s.publishSyncMessage(ctx, id, settlement.WeekEndDate.String())
	return nil
}

func (s *SettlementService) GetSettlement(ctx context.Context, id int64) (*core.Settlement, error) {
	return s.storage.GetSettlement(ctx, id)
}

func (s *SettlementService) ListSettlements(ctx context.Context) ([]core.Settlement, error) {
	return s.storage.ListSettlements(ctx)
}

func (s *SettlementService) DeleteSettlement(ctx context.Context, id int64) error {
	return s.storage.DeleteSettlement(ctx, id)
}

// compute validates the raw fields and fills in every derived field.
func (s *SettlementService) compute(settlement *core.Settlement) error {
	if err := settlement.ValidatePeriod(); err != nil {
		return &ValidationError{Field: "weekEndDate", Err: err}
	}

	if settlement.GrossIncome.IsNegative() {
		return &ValidationError{Field: "grossIncome", Err: core.ErrInvalidAmount}
	}
	if settlement.FeePercentBP < 0 || settlement.FeePercentBP > 10000 {
		return &ValidationError{Field: "feePercentage", Err: core.ErrInvalidFraction}
	}

	// Explicit fees win; the percentage only derives fees when none were
	// entered.
	if settlement.PaypalFees.Cents == 0 && settlement.FeePercentBP > 0 {
		settlement.PaypalFees = split.DeriveFees(settlement.GrossIncome, settlement.FeePercentBP)
	}

	result, err := split.Calculate(s.policy, split.Input{
		GrossIncome:    settlement.GrossIncome,
		PaypalFees:     settlement.PaypalFees,
		Expenses:       settlement.Expenses,
		DirectPayments: settlement.DirectPayments,
		WeekEndDate:    settlement.WeekEndDate,
	})
	if err != nil {
		var fieldErr *split.FieldError
		if errors.As(err, &fieldErr) {
			return &ValidationError{Field: fieldErr.Field, Err: fieldErr.Err}
		}
		return &ValidationError{Err: err}
	}

	settlement.TotalExpenses = result.TotalExpenses
	settlement.DirectPaymentsTotal = result.DirectPaymentsTotal
	settlement.NetIncome = result.NetIncome
	settlement.PartyAShare = result.Shares[core.PartyA]
	settlement.PartyBShare = result.Shares[core.PartyB]
	settlement.PartyCShare = result.Shares[core.PartyC]
	settlement.PartyAPayout = result.Payouts[core.PartyA]
	settlement.PartyBPayout = result.Payouts[core.PartyB]
	settlement.PartyCPayout = result.Payouts[core.PartyC]

	return nil
}

func (s *SettlementService) publishSyncMessage(ctx context.Context, id int64, weekEndDate string) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message", "id", id)
		return
	}
	if err := s.publisher.PublishSettlementSync(ctx, id, weekEndDate); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", id, "error", err)
		// Don't fail the request - the settlement is saved locally and the
		// pending scan will sync it.
	}
}

// Close closes both storage and AMQP connections.
func (s *SettlementService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close settlement service: %v", errs)
	}

	return nil
}

var _ SettlementStore = (*storage.SQLiteRepository)(nil)
var _ SyncPublisher = (*amqp.Client)(nil)
