package models

import (
	"strings"

	"github.com/shopspring/decimal"

	dErrors "registrar/pkg/domain-errors"
)

// ParseAmount parses a non-negative decimal amount in native units.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, dErrors.Wrap(ErrInvalidAmount, dErrors.CodeValidation, "amount is required")
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, dErrors.Wrap(ErrInvalidAmount, dErrors.CodeValidation, "amount must be a decimal number")
	}
	if err := CheckAmount(amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// CheckAmount rejects negative amounts.
func CheckAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return dErrors.Wrap(ErrInvalidAmount, dErrors.CodeValidation, "amount must not be negative")
	}
	return nil
}
