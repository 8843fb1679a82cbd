package payout

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	id "registrar/pkg/domain"
)

// ErrRejected is returned by a Ledger configured to refuse a transfer.
var ErrRejected = errors.New("payout rejected")

// Ledger is an in-process Transferer that credits recipient accounts in memory.
// It backs development runs and tests; FailNext injects a failure.
type Ledger struct {
	mu       sync.Mutex
	accounts map[id.Identity]decimal.Decimal
	history  []Instruction
	failNext error
}

func NewLedger() *Ledger {
	return &Ledger{accounts: make(map[id.Identity]decimal.Decimal)}
}

// Transfer credits the recipient, unless a failure was injected.
func (l *Ledger) Transfer(ctx context.Context, in Instruction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.failNext; err != nil {
		l.failNext = nil
		return err
	}
	l.accounts[in.Recipient] = l.accounts[in.Recipient].Add(in.Amount)
	l.history = append(l.history, in)
	return nil
}

// FailNext makes the next Transfer return err. A nil err means ErrRejected.
func (l *Ledger) FailNext(err error) {
	if err == nil {
		err = ErrRejected
	}
	l.mu.Lock()
	l.failNext = err
	l.mu.Unlock()
}

// BalanceOf returns what recipient has received so far.
func (l *Ledger) BalanceOf(recipient id.Identity) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.accounts[recipient]
}

// Transfers returns completed instructions oldest first.
func (l *Ledger) Transfers() []Instruction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Instruction{}, l.history...)
}
