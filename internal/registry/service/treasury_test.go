package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registrar/internal/registry/models"
	"registrar/internal/registry/payout"
	"registrar/internal/registry/store"
)

// These run the withdrawal flow against the postgres store so each commit can
// be failed on its own.

func newPostgresService(t *testing.T) (*Service, *payout.Ledger, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ledger := payout.NewLedger()
	svc, err := New(store.NewPostgres(db), admin,
		WithTransferer(ledger),
		WithLogger(slog.New(slog.DiscardHandler)),
	)
	require.NoError(t, err)
	return svc, ledger, mock
}

func expectReservation(mock sqlmock.Sqlmock, balance string) {
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM registry_state WHERE id = 1 FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`SELECT balance FROM registry_state`).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(balance))
	mock.ExpectExec(`UPDATE registry_state SET balance = balance - \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO withdrawals`).
		WithArgs(sqlmock.AnyArg(), recipient.String(), sqlmock.AnyArg(), sqlmock.AnyArg(), admin.String(), sqlmock.AnyArg(), "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestWithdraw_Postgres(t *testing.T) {
	ctx := context.Background()

	t.Run("failed reservation commit transfers nothing", func(t *testing.T) {
		svc, ledger, mock := newPostgresService(t)
		expectReservation(mock, "5")
		mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

		_, err := svc.Withdraw(ctx, recipient, admin)
		require.Error(t, err)
		assert.Empty(t, ledger.Transfers(), "no payout without a committed debit")
		assert.True(t, ledger.BalanceOf(recipient).IsZero())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("completes after the transfer", func(t *testing.T) {
		svc, ledger, mock := newPostgresService(t)
		expectReservation(mock, "5")
		mock.ExpectCommit()
		mock.ExpectExec(`UPDATE withdrawals SET status = \$2 WHERE id = \$1`).
			WithArgs(sqlmock.AnyArg(), "completed").
			WillReturnResult(sqlmock.NewResult(0, 1))

		w, err := svc.Withdraw(ctx, recipient, admin)
		require.NoError(t, err)
		assert.Equal(t, models.WithdrawalCompleted, w.Status)
		assert.Equal(t, "5", ledger.BalanceOf(recipient).String())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed completion update keeps the payout", func(t *testing.T) {
		svc, ledger, mock := newPostgresService(t)
		expectReservation(mock, "5")
		mock.ExpectCommit()
		mock.ExpectExec(`UPDATE withdrawals SET status`).
			WillReturnError(errors.New("connection reset"))

		w, err := svc.Withdraw(ctx, recipient, admin)
		require.NoError(t, err, "the funds have left, so the withdrawal succeeded")
		assert.Equal(t, models.WithdrawalPending, w.Status)
		assert.Len(t, ledger.Transfers(), 1)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("refused transfer re-credits in a second transaction", func(t *testing.T) {
		svc, ledger, mock := newPostgresService(t)
		ledger.FailNext(nil)
		expectReservation(mock, "5")
		mock.ExpectCommit()
		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectExec(`UPDATE registry_state SET balance = balance \+ \$1`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE withdrawals SET status = \$2 WHERE id = \$1`).
			WithArgs(sqlmock.AnyArg(), "failed").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		_, err := svc.Withdraw(ctx, recipient, admin)
		assert.ErrorIs(t, err, models.ErrTransferFailed)
		assert.Empty(t, ledger.Transfers())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed compensation leaves the withdrawal pending and debited", func(t *testing.T) {
		svc, ledger, mock := newPostgresService(t)
		ledger.FailNext(nil)
		expectReservation(mock, "5")
		mock.ExpectCommit()
		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectExec(`UPDATE registry_state SET balance = balance \+ \$1`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE withdrawals SET status`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

		_, err := svc.Withdraw(ctx, recipient, admin)
		assert.ErrorIs(t, err, models.ErrTransferFailed)
		assert.Empty(t, ledger.Transfers(), "nothing was paid")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
