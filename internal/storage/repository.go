// Package storage provides the SQLite-backed settlement repository.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"splitbook/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound signals an unknown settlement id, as distinct from a storage
// failure. Callers map it to their own not-found representation.
var ErrNotFound = errors.New("settlement not found")

// Sync status values for the mirror pipeline.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

// PendingSettlement is the minimal row the mirror worker needs to queue work.
type PendingSettlement struct {
	ID        int64
	CreatedAt time.Time
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateSettlement persists the settlement and both child collections as one
// atomic unit. On any failure the whole write is rolled back; no partial rows
// survive. The settlement's ID and CreatedAt are populated on success.
func (r *SQLiteRepository) CreateSettlement(ctx context.Context, s *core.Settlement) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO settlements (
			week_start_date, week_end_date,
			gross_income_cents, paypal_fees_cents, fee_percentage_bp,
			total_expenses_cents, direct_payments_total_cents, net_income_cents,
			party_a_share_cents, party_b_share_cents, party_c_share_cents,
			party_a_payout_cents, party_b_payout_cents, party_c_payout_cents,
			notes, sync_status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.WeekStartDate.String(), s.WeekEndDate.String(),
		s.GrossIncome.Cents, s.PaypalFees.Cents, s.FeePercentBP,
		s.TotalExpenses.Cents, s.DirectPaymentsTotal.Cents, s.NetIncome.Cents,
		s.PartyAShare.Cents, s.PartyBShare.Cents, s.PartyCShare.Cents,
		s.PartyAPayout.Cents, s.PartyBPayout.Cents, s.PartyCPayout.Cents,
		nullableText(s.Notes), SyncPending, now,
	)
	if err != nil {
		return fmt.Errorf("insert settlement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("settlement id: %w", err)
	}

	if err := insertChildren(ctx, tx, id, s.Expenses, s.DirectPayments, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.ID = id
	s.CreatedAt = now
	for i := range s.Expenses {
		s.Expenses[i].SettlementID = id
	}
	for i := range s.DirectPayments {
		s.DirectPayments[i].SettlementID = id
	}

	slog.InfoContext(ctx, "Settlement saved",
		"id", id,
		"week_end_date", s.WeekEndDate.String(),
		"net_income_cents", s.NetIncome.Cents,
		"expenses", len(s.Expenses),
		"direct_payments", len(s.DirectPayments))

	return nil
}

// UpdateSettlement replaces the parent fields and entirely replaces both
// child collections (delete-all then insert-all) in one transaction.
// Child ids and created-at timestamps are not preserved across edits.
func (r *SQLiteRepository) UpdateSettlement(ctx context.Context, id int64, s *core.Settlement) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE settlements SET
			week_start_date = ?, week_end_date = ?,
			gross_income_cents = ?, paypal_fees_cents = ?, fee_percentage_bp = ?,
			total_expenses_cents = ?, direct_payments_total_cents = ?, net_income_cents = ?,
			party_a_share_cents = ?, party_b_share_cents = ?, party_c_share_cents = ?,
			party_a_payout_cents = ?, party_b_payout_cents = ?, party_c_payout_cents = ?,
			notes = ?, sync_status = ?
		WHERE id = ?`,
		s.WeekStartDate.String(), s.WeekEndDate.String(),
		s.GrossIncome.Cents, s.PaypalFees.Cents, s.FeePercentBP,
		s.TotalExpenses.Cents, s.DirectPaymentsTotal.Cents, s.NetIncome.Cents,
		s.PartyAShare.Cents, s.PartyBShare.Cents, s.PartyCShare.Cents,
		s.PartyAPayout.Cents, s.PartyBPayout.Cents, s.PartyCPayout.Cents,
		nullableText(s.Notes), SyncPending, id,
	)
	if err != nil {
		return fmt.Errorf("update settlement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE settlement_id = ?", id); err != nil {
		return fmt.Errorf("clear expenses: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM direct_payments WHERE settlement_id = ?", id); err != nil {
		return fmt.Errorf("clear direct payments: %w", err)
	}

	now := time.Now().UTC()
	if err := insertChildren(ctx, tx, id, s.Expenses, s.DirectPayments, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.ID = id
	for i := range s.Expenses {
		s.Expenses[i].SettlementID = id
	}
	for i := range s.DirectPayments {
		s.DirectPayments[i].SettlementID = id
	}

	slog.InfoContext(ctx, "Settlement updated",
		"id", id,
		"week_end_date", s.WeekEndDate.String(),
		"expenses", len(s.Expenses),
		"direct_payments", len(s.DirectPayments))

	return nil
}

func insertChildren(ctx context.Context, tx *sql.Tx, settlementID int64, expenses []core.Expense, payments []core.DirectPayment, now time.Time) error {
	for i := range expenses {
		e := &expenses[i]
		res, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (settlement_id, description, amount_cents, payee_email, notes, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			settlementID, e.Description, e.Amount.Cents,
			nullableText(e.PayeeEmail), nullableText(e.Notes), now,
		)
		if err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}
		if e.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("expense id: %w", err)
		}
		e.CreatedAt = now
	}

	for i := range payments {
		p := &payments[i]
		currency := p.Currency
		if currency == "" {
			currency = core.DefaultCurrency
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO direct_payments (settlement_id, amount_cents, currency, payment_method, received_by, reference, notes, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			settlementID, p.Amount.Cents, currency, string(p.PaymentMethod), string(p.ReceivedBy),
			nullableText(p.Reference), nullableText(p.Notes), now,
		)
		if err != nil {
			return fmt.Errorf("insert direct payment: %w", err)
		}
		if p.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("direct payment id: %w", err)
		}
		p.Currency = currency
		p.CreatedAt = now
	}

	return nil
}

const settlementColumns = `id, week_start_date, week_end_date,
	gross_income_cents, paypal_fees_cents, fee_percentage_bp,
	total_expenses_cents, direct_payments_total_cents, net_income_cents,
	party_a_share_cents, party_b_share_cents, party_c_share_cents,
	party_a_payout_cents, party_b_payout_cents, party_c_payout_cents,
	notes, created_at`

// GetSettlement retrieves a settlement with both child collections hydrated.
func (r *SQLiteRepository) GetSettlement(ctx context.Context, id int64) (*core.Settlement, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+settlementColumns+" FROM settlements WHERE id = ?", id)
	s, err := scanSettlement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get settlement: %w", err)
	}

	if s.Expenses, err = r.listExpenses(ctx, id); err != nil {
		return nil, err
	}
	if s.DirectPayments, err = r.listDirectPayments(ctx, id); err != nil {
		return nil, err
	}

	return s, nil
}

// ListSettlements returns all settlements (parents only, children not
// hydrated) ordered by week end date descending.
func (r *SQLiteRepository) ListSettlements(ctx context.Context) ([]core.Settlement, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+settlementColumns+" FROM settlements ORDER BY week_end_date DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []core.Settlement
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan settlement: %w", err)
		}
		settlements = append(settlements, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settlements: %w", err)
	}

	return settlements, nil
}

// DeleteSettlement removes the settlement; child rows go with it via
// cascade. Unknown ids report ErrNotFound rather than silent success.
func (r *SQLiteRepository) DeleteSettlement(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM settlements WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete settlement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Settlement deleted", "id", id)
	return nil
}

// PendingSyncSettlements returns settlements the mirror has not picked up yet.
func (r *SQLiteRepository) PendingSyncSettlements(ctx context.Context, limit int) ([]PendingSettlement, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, created_at FROM settlements WHERE sync_status = ? ORDER BY id LIMIT ?",
		SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending settlements: %w", err)
	}
	defer rows.Close()

	var pending []PendingSettlement
	for rows.Next() {
		var p PendingSettlement
		if err := rows.Scan(&p.ID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending settlement: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending settlements: %w", err)
	}

	return pending, nil
}

// MarkSynced records a successful mirror of the settlement.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	return r.setSyncStatus(ctx, id, SyncDone)
}

// MarkSyncError records a failed mirror attempt.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	return r.setSyncStatus(ctx, id, SyncError)
}

func (r *SQLiteRepository) setSyncStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE settlements SET sync_status = ? WHERE id = ?", status, id)
	if err != nil {
		return fmt.Errorf("set sync status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SyncStatus returns the mirror status for a settlement.
func (r *SQLiteRepository) SyncStatus(ctx context.Context, id int64) (string, error) {
	var status string
	err := r.db.QueryRowContext(ctx, "SELECT sync_status FROM settlements WHERE id = ?", id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get sync status: %w", err)
	}
	return status, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSettlement(row rowScanner) (*core.Settlement, error) {
	var (
		s          core.Settlement
		start, end string
		notes      sql.NullString
	)
	err := row.Scan(
		&s.ID, &start, &end,
		&s.GrossIncome.Cents, &s.PaypalFees.Cents, &s.FeePercentBP,
		&s.TotalExpenses.Cents, &s.DirectPaymentsTotal.Cents, &s.NetIncome.Cents,
		&s.PartyAShare.Cents, &s.PartyBShare.Cents, &s.PartyCShare.Cents,
		&s.PartyAPayout.Cents, &s.PartyBPayout.Cents, &s.PartyCPayout.Cents,
		&notes, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if s.WeekStartDate, err = core.ParseDate(start); err != nil {
		return nil, fmt.Errorf("stored week start date %q: %w", start, err)
	}
	if s.WeekEndDate, err = core.ParseDate(end); err != nil {
		return nil, fmt.Errorf("stored week end date %q: %w", end, err)
	}
	if notes.Valid {
		s.Notes = notes.String
	}
	return &s, nil
}

func (r *SQLiteRepository) listExpenses(ctx context.Context, settlementID int64) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, settlement_id, description, amount_cents, payee_email, notes, created_at
		 FROM expenses WHERE settlement_id = ? ORDER BY id`, settlementID)
	if err != nil {
		return nil, fmt.Errorf("get expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var (
			e            core.Expense
			payee, notes sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.SettlementID, &e.Description, &e.Amount.Cents, &payee, &notes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if payee.Valid {
			e.PayeeEmail = payee.String
		}
		if notes.Valid {
			e.Notes = notes.String
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

func (r *SQLiteRepository) listDirectPayments(ctx context.Context, settlementID int64) ([]core.DirectPayment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, settlement_id, amount_cents, currency, payment_method, received_by, reference, notes, created_at
		 FROM direct_payments WHERE settlement_id = ? ORDER BY id`, settlementID)
	if err != nil {
		return nil, fmt.Errorf("get direct payments: %w", err)
	}
	defer rows.Close()

	var payments []core.DirectPayment
	for rows.Next() {
		var (
			p                core.DirectPayment
			method, party    string
			reference, notes sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.SettlementID, &p.Amount.Cents, &p.Currency, &method, &party, &reference, &notes, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan direct payment: %w", err)
		}
		p.PaymentMethod = core.PaymentMethod(method)
		p.ReceivedBy = core.PartyID(party)
		if reference.Valid {
			p.Reference = reference.String
		}
		if notes.Valid {
			p.Notes = notes.String
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate direct payments: %w", err)
	}
	return payments, nil
}

func nullableText(s string) any {
	if s == "" {
		return nil
	}
	return s
}
