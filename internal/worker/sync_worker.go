// Package worker mirrors settlements from SQLite to the external spreadsheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"splitbook/internal/amqp"
	"splitbook/internal/core"
	"splitbook/internal/reports"
	"splitbook/internal/storage"
)

// SettlementFetcher is the storage surface the worker needs.
type SettlementFetcher interface {
	GetSettlement(ctx context.Context, id int64) (*core.Settlement, error)
	PendingSyncSettlements(ctx context.Context, limit int) ([]storage.PendingSettlement, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// SyncWorker pushes settlements to the row mirror. AMQP messages drive the
// happy path; the pending scan is the backup for lost messages.
type SyncWorker struct {
	storage   SettlementFetcher
	mirror    reports.RowMirror
	batchSize int
}

func NewSyncWorker(store SettlementFetcher, mirror reports.RowMirror, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   store,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single settlement sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SettlementSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"week_end_date", msg.WeekEndDate)

	settlement, err := w.storage.GetSettlement(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get settlement from storage: %w", err)
	}

	if err := w.mirrorSettlement(ctx, settlement); err != nil {
		return fmt.Errorf("mirror settlement: %w", err)
	}

	return nil
}

// ProcessPendingSettlements mirrors any settlements that haven't been synced
// yet. This is a backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPendingSettlements(ctx context.Context) error {
	pending, err := w.storage.PendingSyncSettlements(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending settlements: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending settlements", "count", len(pending))

	for _, p := range pending {
		settlement, err := w.storage.GetSettlement(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get settlement", "id", p.ID, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			continue
		}

		if err := w.mirrorSettlement(ctx, settlement); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror settlement", "id", p.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck mirrors any pending settlements at worker startup. This
// recovers from missed AMQP messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	// Larger batch for the startup pass
	pending, err := w.storage.PendingSyncSettlements(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending settlements for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending settlements found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending settlements on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, p := range pending {
		settlement, err := w.storage.GetSettlement(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get settlement for startup sync",
				"id", p.ID, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			errorCount++
			continue
		}

		if err := w.mirrorSettlement(ctx, settlement); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror settlement during startup",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}

		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

func (w *SyncWorker) mirrorSettlement(ctx context.Context, s *core.Settlement) error {
	ref, err := w.mirror.AppendSettlement(ctx, s)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, s.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", s.ID, "error", markErr)
		}
		return fmt.Errorf("append to mirror: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, s.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", s.ID, "error", err)
		// Don't return error here - the mirror write actually worked
	}

	slog.InfoContext(ctx, "Successfully mirrored settlement",
		"id", s.ID,
		"mirror_ref", ref,
		"week_end_date", s.WeekEndDate.String(),
		"net_income_cents", s.NetIncome.Cents)

	return nil
}
