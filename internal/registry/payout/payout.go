// Package payout moves treasury funds to a recipient.
//
// A Transferer reports success only once the value has been handed off. A
// failure wrapping ErrOutcomeUnknown means the value may have been handed off
// anyway; any other failure means it was not. Instruction.Reference is unique
// per withdrawal, so downstream settlement can drop redeliveries.
package payout

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	id "registrar/pkg/domain"
)

// Instruction describes one outbound transfer.
type Instruction struct {
	Reference   string          `json:"reference"`
	Recipient   id.Identity     `json:"recipient"`
	Amount      decimal.Decimal `json:"amount"`
	RequestedBy id.Identity     `json:"requested_by"`
	RequestedAt time.Time       `json:"requested_at"`
}

// ErrOutcomeUnknown marks a transfer that may have been delivered before it
// failed, such as a produce that timed out waiting for the broker ack.
var ErrOutcomeUnknown = errors.New("payout outcome unknown")

// OutcomeUnknown reports whether err leaves the delivery of a transfer open.
func OutcomeUnknown(err error) bool {
	return errors.Is(err, ErrOutcomeUnknown)
}
