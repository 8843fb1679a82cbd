package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"registrar/internal/registry/models"
	"registrar/internal/registry/payout"
	id "registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/requestcontext"
)

// Withdraw transfers the entire treasury balance to recipient. Only the
// administrator may call it. An empty treasury yields a zero-amount withdrawal
// without a transfer.
//
// The balance is debited and a pending withdrawal recorded in one committed
// transaction before the transfer starts, so a retry after any failure can
// never pay the same funds twice. A refused transfer re-credits the balance
// and marks the withdrawal failed. A transfer with an unknown outcome leaves it
// pending, still debited, for reconciliation by reference.
func (s *Service) Withdraw(ctx context.Context, recipient, caller id.Identity) (withdrawal *models.Withdrawal, err error) {
	ctx, finish := s.span(ctx, "withdraw")
	defer finish(&err)

	if err := s.requireAdmin(caller); err != nil {
		s.countWithdrawal("unauthorized")
		return nil, err
	}
	if recipient.IsNil() || recipient.IsZero() {
		return nil, kindError(models.ErrInvalidIdentity, "recipient must be a non-zero address")
	}

	withdrawal, err = s.reserveWithdrawal(ctx, recipient, caller)
	if err != nil {
		s.countWithdrawal("failed")
		s.logger.ErrorContext(ctx, "withdrawal could not be reserved",
			"recipient", recipient.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, internal(err, "failed to withdraw")
	}
	if withdrawal.Amount.IsZero() {
		s.countWithdrawal("empty")
		return withdrawal, nil
	}

	transferErr := s.transfer(ctx, withdrawal)

	// Settlement must land even if the caller has gone away.
	settleCtx := context.WithoutCancel(ctx)
	defer s.refreshBalance(settleCtx)

	if transferErr == nil {
		s.completeWithdrawal(settleCtx, withdrawal)
		return withdrawal, nil
	}
	if payout.OutcomeUnknown(transferErr) {
		s.countWithdrawal("unknown")
		s.logger.ErrorContext(ctx, "withdrawal left pending, transfer outcome unknown",
			"withdrawal_id", withdrawal.ID,
			"reference", withdrawal.Reference,
			"amount", withdrawal.Amount.String(),
			"error", transferErr,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, kindError(models.ErrTransferFailed,
			fmt.Sprintf("transfer outcome unknown, withdrawal %s is pending reconciliation", withdrawal.ID))
	}
	s.failWithdrawal(settleCtx, withdrawal, transferErr)
	return nil, kindError(models.ErrTransferFailed, "transfer to recipient failed")
}

// reserveWithdrawal debits the whole balance and records a pending withdrawal.
func (s *Service) reserveWithdrawal(ctx context.Context, recipient, caller id.Identity) (*models.Withdrawal, error) {
	var reserved *models.Withdrawal
	err := s.store.RunInTx(ctx, func(txCtx context.Context) error {
		balance, err := s.store.Balance(txCtx)
		if err != nil {
			return err
		}
		now := requestcontext.Now(txCtx).UTC()
		if balance.IsZero() {
			reserved = &models.Withdrawal{
				Recipient:   recipient,
				Amount:      decimal.Zero,
				RequestedBy: caller,
				WithdrawnAt: now,
				Status:      models.WithdrawalCompleted,
			}
			return nil
		}

		w := &models.Withdrawal{
			ID:          uuid.NewString(),
			Recipient:   recipient,
			Amount:      balance,
			RequestedBy: caller,
			WithdrawnAt: now,
			Status:      models.WithdrawalPending,
		}
		w.Reference = w.ID
		if err := s.store.Debit(txCtx, balance); err != nil {
			if errors.Is(err, sentinel.ErrUnavailable) {
				return kindError(models.ErrTransferFailed, "treasury balance changed during withdrawal")
			}
			return err
		}
		if err := s.store.RecordWithdrawal(txCtx, w); err != nil {
			return err
		}
		reserved = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reserved, nil
}

func (s *Service) transfer(ctx context.Context, w *models.Withdrawal) error {
	ctx, cancel := context.WithTimeout(ctx, s.transferTimeout)
	defer cancel()
	return s.transferer.Transfer(ctx, payout.Instruction{
		Reference:   w.Reference,
		Recipient:   w.Recipient,
		Amount:      w.Amount,
		RequestedBy: w.RequestedBy,
		RequestedAt: w.WithdrawnAt,
	})
}

// completeWithdrawal marks a delivered withdrawal completed. The funds have
// left either way, so a failed status update is logged, not returned.
func (s *Service) completeWithdrawal(ctx context.Context, w *models.Withdrawal) {
	s.countWithdrawal("succeeded")
	if err := s.store.UpdateWithdrawalStatus(ctx, w.ID, models.WithdrawalCompleted); err != nil {
		s.logger.ErrorContext(ctx, "withdrawal delivered but still marked pending",
			"withdrawal_id", w.ID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	} else {
		w.Status = models.WithdrawalCompleted
	}
	s.logger.InfoContext(ctx, "treasury withdrawn",
		"withdrawal_id", w.ID,
		"recipient", w.Recipient.String(),
		"amount", w.Amount.String(),
		"status", string(w.Status),
		"request_id", requestcontext.RequestID(ctx),
	)
}

// failWithdrawal re-credits a refused transfer and marks it failed. If that
// transaction fails the withdrawal stays pending and debited.
func (s *Service) failWithdrawal(ctx context.Context, w *models.Withdrawal, transferErr error) {
	s.countWithdrawal("failed")
	err := s.store.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.Credit(txCtx, w.Amount); err != nil {
			return err
		}
		return s.store.UpdateWithdrawalStatus(txCtx, w.ID, models.WithdrawalFailed)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "refused withdrawal could not be re-credited, left pending",
			"withdrawal_id", w.ID,
			"amount", w.Amount.String(),
			"transfer_error", transferErr,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return
	}
	s.logger.WarnContext(ctx, "withdrawal refused, balance restored",
		"withdrawal_id", w.ID,
		"recipient", w.Recipient.String(),
		"amount", w.Amount.String(),
		"transfer_error", transferErr,
		"request_id", requestcontext.RequestID(ctx),
	)
}

func (s *Service) refreshBalance(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	if balance, err := s.store.Balance(ctx); err == nil {
		s.metrics.SetBalance(balance)
	}
}

// Balance returns the treasury balance. Administrator only.
func (s *Service) Balance(ctx context.Context, caller id.Identity) (decimal.Decimal, error) {
	if err := s.requireAdmin(caller); err != nil {
		return decimal.Zero, err
	}
	balance, err := s.store.Balance(ctx)
	if err != nil {
		return decimal.Zero, internal(err, "failed to read balance")
	}
	return balance, nil
}

// ListWithdrawals returns past withdrawals oldest first, including pending and
// failed attempts. Administrator only.
func (s *Service) ListWithdrawals(ctx context.Context, caller id.Identity) ([]models.Withdrawal, error) {
	if err := s.requireAdmin(caller); err != nil {
		return nil, err
	}
	withdrawals, err := s.store.ListWithdrawals(ctx)
	if err != nil {
		return nil, internal(err, "failed to list withdrawals")
	}
	return withdrawals, nil
}

func (s *Service) countWithdrawal(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementWithdrawal(outcome)
	}
}
