package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "registrar/pkg/domain"
)

// DomainRecord is a registered top-level name.
//
// Invariants:
//   - Name is a normalized single label, unique among domains
//   - Controller and RegisteredAt never change after creation
//   - FeePaid defaults to zero for records created before it was tracked
type DomainRecord struct {
	Name         string          `json:"name"`
	Controller   id.Identity     `json:"controller"`
	RegisteredAt time.Time       `json:"registered_at"`
	FeePaid      decimal.Decimal `json:"fee_paid"`
}

// SubdomainRecord is a registered second-level name. Name is unique only
// within Parent's subdomain set.
type SubdomainRecord struct {
	Name         string          `json:"name"`
	Parent       string          `json:"parent"`
	Controller   id.Identity     `json:"controller"`
	RegisteredAt time.Time       `json:"registered_at"`
	FeePaid      decimal.Decimal `json:"fee_paid"`
}

// FQDN returns the qualified form, e.g. "test.com".
func (s *SubdomainRecord) FQDN() string {
	return FQDN(s.Name, s.Parent)
}

// WithdrawalStatus tracks a payout through debit, transfer and settlement.
type WithdrawalStatus string

const (
	// WithdrawalPending is debited from the treasury, with the transfer not yet
	// confirmed. A pending withdrawal whose transfer outcome is unknown stays
	// pending until an operator reconciles it against the payout reference.
	WithdrawalPending WithdrawalStatus = "pending"
	// WithdrawalCompleted was handed off to the recipient.
	WithdrawalCompleted WithdrawalStatus = "completed"
	// WithdrawalFailed was refused by the payout backend and re-credited.
	WithdrawalFailed WithdrawalStatus = "failed"
)

// Valid reports whether s is a known status.
func (s WithdrawalStatus) Valid() bool {
	switch s {
	case WithdrawalPending, WithdrawalCompleted, WithdrawalFailed:
		return true
	}
	return false
}

// Withdrawal records one treasury payout attempt.
type Withdrawal struct {
	ID          string           `json:"id"`
	Recipient   id.Identity      `json:"recipient"`
	Amount      decimal.Decimal  `json:"amount"`
	Reference   string           `json:"reference,omitempty"`
	RequestedBy id.Identity      `json:"requested_by"`
	WithdrawnAt time.Time        `json:"withdrawn_at"`
	Status      WithdrawalStatus `json:"status,omitempty"`
}
