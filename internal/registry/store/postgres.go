package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"registrar/internal/registry/models"
	id "registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/sentinel"
	txctx "registrar/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// PostgreSQL error codes the store translates into sentinels.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// PostgresStore persists the registry in PostgreSQL.
//
// Every transaction starts by locking the single registry_state row, which
// serializes registrations, fee changes and withdrawals the same way the
// in-memory store's mutex does. Reads outside a transaction see only committed
// data.
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgres constructs a PostgreSQL-backed registry store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, timeout: defaultTxTimeout}
}

// EnsureState seeds the registry_state row on first start. An existing row
// keeps its fee, balance and epoch.
func (s *PostgresStore) EnsureState(ctx context.Context, initialFee decimal.Decimal) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO registry_state (id, registration_fee, balance, epoch) VALUES (1, $1, 0, $2) ON CONFLICT (id) DO NOTHING`,
		initialFee, uuid.NewString())
	if err != nil {
		return fmt.Errorf("ensure registry state: %w", err)
	}
	return nil
}

// Epoch identifies the database the registry lives in. A restored or
// re-created database carries a different epoch than the one caches were
// filled from.
func (s *PostgresStore) Epoch(ctx context.Context) (string, error) {
	var epoch string
	if err := s.db.QueryRowContext(ctx, `SELECT epoch FROM registry_state WHERE id = 1`).Scan(&epoch); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("read epoch: %w", sentinel.ErrNotFound)
		}
		return "", fmt.Errorf("read epoch: %w", err)
	}
	return epoch, nil
}

// RunInTx runs fn inside a serializing database transaction. Nested calls
// reuse the outer transaction.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if _, ok := txctx.From(ctx); ok {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registry tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var one int
	if err := tx.QueryRowContext(ctx, `SELECT id FROM registry_state WHERE id = 1 FOR UPDATE`).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("lock registry state: %w", sentinel.ErrNotFound)
		}
		return fmt.Errorf("lock registry state: %w", err)
	}

	if err := fn(txctx.WithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registry tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) exec(ctx context.Context) txctx.DBTX {
	return txctx.Executor(ctx, s.db)
}

// -----------------------------------------------------------------------------
// Namespace
// -----------------------------------------------------------------------------

func (s *PostgresStore) CreateDomainIfAvailable(ctx context.Context, d *models.DomainRecord) error {
	_, err := s.exec(ctx).ExecContext(ctx,
		`INSERT INTO domains (name, controller, registered_at, fee_paid) VALUES ($1, $2, $3, $4)`,
		d.Name, d.Controller.String(), d.RegisteredAt, d.FeePaid)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert domain: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateSubdomainIfAvailable(ctx context.Context, sub *models.SubdomainRecord) error {
	_, err := s.exec(ctx).ExecContext(ctx,
		`INSERT INTO subdomains (parent, name, controller, registered_at, fee_paid) VALUES ($1, $2, $3, $4, $5)`,
		sub.Parent, sub.Name, sub.Controller.String(), sub.RegisteredAt, sub.FeePaid)
	if err != nil {
		switch pqCode(err) {
		case pqUniqueViolation:
			return sentinel.ErrAlreadyUsed
		case pqForeignKeyViolation:
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("insert subdomain: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindDomain(ctx context.Context, name string) (*models.DomainRecord, error) {
	row := s.exec(ctx).QueryRowContext(ctx,
		`SELECT name, controller, registered_at, fee_paid FROM domains WHERE name = $1`, name)
	rec, err := scanDomain(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find domain: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) FindSubdomain(ctx context.Context, parent, name string) (*models.SubdomainRecord, error) {
	row := s.exec(ctx).QueryRowContext(ctx,
		`SELECT parent, name, controller, registered_at, fee_paid FROM subdomains WHERE parent = $1 AND name = $2`,
		parent, name)
	rec, err := scanSubdomain(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find subdomain: %w", err)
	}
	return rec, nil
}

// ListDomains returns domain names in registration order.
func (s *PostgresStore) ListDomains(ctx context.Context) ([]string, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, `SELECT name FROM domains ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan domain name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	return names, nil
}

// ListSubdomains returns a domain's subdomains in registration order.
func (s *PostgresStore) ListSubdomains(ctx context.Context, parent string) ([]*models.SubdomainRecord, error) {
	q := s.exec(ctx)
	var exists bool
	if err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM domains WHERE name = $1)`, parent).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check parent domain: %w", err)
	}
	if !exists {
		return nil, sentinel.ErrNotFound
	}

	rows, err := q.QueryContext(ctx,
		`SELECT parent, name, controller, registered_at, fee_paid FROM subdomains WHERE parent = $1 ORDER BY seq`, parent)
	if err != nil {
		return nil, fmt.Errorf("list subdomains: %w", err)
	}
	defer rows.Close()

	out := []*models.SubdomainRecord{}
	for rows.Next() {
		rec, err := scanSubdomain(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subdomain: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list subdomains: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountDomains(ctx context.Context) (int, error) {
	var n int
	if err := s.exec(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM domains`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count domains: %w", err)
	}
	return n, nil
}

// -----------------------------------------------------------------------------
// Event log
// -----------------------------------------------------------------------------

// AppendEvent inserts the event and reports the assigned sequence number back
// through e.Seq.
func (s *PostgresStore) AppendEvent(ctx context.Context, e *models.RegistrationEvent) error {
	err := s.exec(ctx).QueryRowContext(ctx,
		`INSERT INTO registration_events (kind, name, parent, controller, occurred_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING seq`,
		string(e.Kind), e.Name, e.Parent, e.Controller.String(), e.Timestamp).Scan(&e.Seq)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// FilterEvents returns matching events in emission order.
func (s *PostgresStore) FilterEvents(ctx context.Context, filter models.EventFilter) ([]models.RegistrationEvent, error) {
	query := `SELECT seq, kind, name, parent, controller, occurred_at FROM registration_events`
	var (
		where []string
		args  []any
	)
	if filter.Kind != nil {
		args = append(args, string(*filter.Kind))
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}
	if filter.Controller != nil {
		args = append(args, filter.Controller.String())
		where = append(where, fmt.Sprintf("controller = $%d", len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq"

	rows, err := s.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("filter events: %w", err)
	}
	defer rows.Close()

	out := []models.RegistrationEvent{}
	for rows.Next() {
		var (
			e          models.RegistrationEvent
			kind       string
			controller string
		)
		if err := rows.Scan(&e.Seq, &kind, &e.Name, &e.Parent, &controller, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Kind = models.EventKind(kind)
		e.Controller = id.Identity(controller)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("filter events: %w", err)
	}
	return out, nil
}

// LatestEventTime returns the timestamp of the last event, or the zero time.
func (s *PostgresStore) LatestEventTime(ctx context.Context) (time.Time, error) {
	var ts time.Time
	err := s.exec(ctx).QueryRowContext(ctx,
		`SELECT occurred_at FROM registration_events ORDER BY seq DESC LIMIT 1`).Scan(&ts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("latest event time: %w", err)
	}
	return ts, nil
}

// -----------------------------------------------------------------------------
// Fee and treasury
// -----------------------------------------------------------------------------

func (s *PostgresStore) Fee(ctx context.Context) (decimal.Decimal, error) {
	var fee decimal.Decimal
	if err := s.exec(ctx).QueryRowContext(ctx, `SELECT registration_fee FROM registry_state WHERE id = 1`).Scan(&fee); err != nil {
		return decimal.Zero, fmt.Errorf("read fee: %w", err)
	}
	return fee, nil
}

func (s *PostgresStore) SetFee(ctx context.Context, fee decimal.Decimal) error {
	if _, err := s.exec(ctx).ExecContext(ctx, `UPDATE registry_state SET registration_fee = $1 WHERE id = 1`, fee); err != nil {
		return fmt.Errorf("set fee: %w", err)
	}
	return nil
}

func (s *PostgresStore) Balance(ctx context.Context) (decimal.Decimal, error) {
	var balance decimal.Decimal
	if err := s.exec(ctx).QueryRowContext(ctx, `SELECT balance FROM registry_state WHERE id = 1`).Scan(&balance); err != nil {
		return decimal.Zero, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}

func (s *PostgresStore) Credit(ctx context.Context, amount decimal.Decimal) error {
	if _, err := s.exec(ctx).ExecContext(ctx, `UPDATE registry_state SET balance = balance + $1 WHERE id = 1`, amount); err != nil {
		return fmt.Errorf("credit treasury: %w", err)
	}
	return nil
}

// Debit returns sentinel.ErrUnavailable if the balance does not cover amount.
func (s *PostgresStore) Debit(ctx context.Context, amount decimal.Decimal) error {
	res, err := s.exec(ctx).ExecContext(ctx,
		`UPDATE registry_state SET balance = balance - $1 WHERE id = 1 AND balance >= $1`, amount)
	if err != nil {
		return fmt.Errorf("debit treasury: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit treasury rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrUnavailable
	}
	return nil
}

func (s *PostgresStore) RecordWithdrawal(ctx context.Context, w *models.Withdrawal) error {
	_, err := s.exec(ctx).ExecContext(ctx,
		`INSERT INTO withdrawals (id, recipient, amount, reference, requested_by, withdrawn_at, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		w.ID, w.Recipient.String(), w.Amount, w.Reference, w.RequestedBy.String(), w.WithdrawnAt, string(w.Status))
	if err != nil {
		return fmt.Errorf("record withdrawal: %w", err)
	}
	return nil
}

// UpdateWithdrawalStatus returns sentinel.ErrNotFound for an unknown ID.
func (s *PostgresStore) UpdateWithdrawalStatus(ctx context.Context, withdrawalID string, status models.WithdrawalStatus) error {
	res, err := s.exec(ctx).ExecContext(ctx,
		`UPDATE withdrawals SET status = $2 WHERE id = $1`, withdrawalID, string(status))
	if err != nil {
		return fmt.Errorf("update withdrawal status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update withdrawal status rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// ListWithdrawals returns withdrawals oldest first.
func (s *PostgresStore) ListWithdrawals(ctx context.Context) ([]models.Withdrawal, error) {
	rows, err := s.exec(ctx).QueryContext(ctx,
		`SELECT id, recipient, amount, reference, requested_by, withdrawn_at, status FROM withdrawals ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	defer rows.Close()

	out := []models.Withdrawal{}
	for rows.Next() {
		var (
			w           models.Withdrawal
			recipient   string
			requestedBy string
			status      string
		)
		if err := rows.Scan(&w.ID, &recipient, &w.Amount, &w.Reference, &requestedBy, &w.WithdrawnAt, &status); err != nil {
			return nil, fmt.Errorf("scan withdrawal: %w", err)
		}
		w.Recipient = id.Identity(recipient)
		w.RequestedBy = id.Identity(requestedBy)
		w.Status = models.WithdrawalStatus(status)
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDomain(row rowScanner) (*models.DomainRecord, error) {
	var (
		rec        models.DomainRecord
		controller string
	)
	if err := row.Scan(&rec.Name, &controller, &rec.RegisteredAt, &rec.FeePaid); err != nil {
		return nil, err
	}
	rec.Controller = id.Identity(controller)
	return &rec, nil
}

func scanSubdomain(row rowScanner) (*models.SubdomainRecord, error) {
	var (
		rec        models.SubdomainRecord
		controller string
	)
	if err := row.Scan(&rec.Parent, &rec.Name, &controller, &rec.RegisteredAt, &rec.FeePaid); err != nil {
		return nil, err
	}
	rec.Controller = id.Identity(controller)
	return &rec, nil
}

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}
