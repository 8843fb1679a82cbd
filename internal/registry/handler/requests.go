package handler

import (
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"registrar/internal/registry/models"
	id "registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
)

// maxNameLength bounds a raw name before normalization: two labels and a
// separator.
const maxNameLength = 2*63 + 1

// RegisterRequest is the body of POST /domains and POST /domains/{name}/subdomains.
// payment accepts a JSON number or a decimal string.
type RegisterRequest struct {
	Name    string              `json:"name"`
	Payment decimal.NullDecimal `json:"payment"`
}

// Validate implements httputil.Validatable. Name rules are enforced by the
// service so both transports and tests see the same errors.
func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	if len(r.Name) > maxNameLength {
		return dErrors.Wrap(models.ErrInvalidName, dErrors.CodeValidation, "name is too long")
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if !r.Payment.Valid {
		return dErrors.New(dErrors.CodeValidation, "payment is required")
	}
	return models.CheckAmount(r.Payment.Decimal)
}

func (r *RegisterRequest) ParsedPayment() decimal.Decimal {
	return r.Payment.Decimal
}

// SetFeeRequest is the body of PUT /fee.
type SetFeeRequest struct {
	Fee decimal.NullDecimal `json:"fee"`
}

func (r *SetFeeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if !r.Fee.Valid {
		return dErrors.New(dErrors.CodeValidation, "fee is required")
	}
	return models.CheckAmount(r.Fee.Decimal)
}

func (r *SetFeeRequest) ParsedFee() decimal.Decimal {
	return r.Fee.Decimal
}

// WithdrawRequest is the optional body of POST /withdraw.
type WithdrawRequest struct {
	Recipient string `json:"recipient"`

	parsedRecipient id.Identity
}

func (r *WithdrawRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Recipient = strings.TrimSpace(r.Recipient)
	if r.Recipient == "" {
		return nil
	}
	recipient, err := parseIdentity("recipient", r.Recipient)
	if err != nil {
		return err
	}
	r.parsedRecipient = recipient
	return nil
}

// ParsedRecipient returns the validated recipient, or the empty identity when
// none was given.
func (r *WithdrawRequest) ParsedRecipient() id.Identity {
	return r.parsedRecipient
}

// ParseEventFilter reads the kind and controller query parameters.
func ParseEventFilter(q url.Values) (models.EventFilter, error) {
	var filter models.EventFilter
	if raw := strings.TrimSpace(q.Get("kind")); raw != "" {
		kind, err := models.ParseEventKind(raw)
		if err != nil {
			return models.EventFilter{}, err
		}
		filter.Kind = &kind
	}
	if raw := strings.TrimSpace(q.Get("controller")); raw != "" {
		controller, err := parseIdentity("controller", raw)
		if err != nil {
			return models.EventFilter{}, err
		}
		filter.Controller = &controller
	}
	return filter, nil
}

func parseIdentity(field, raw string) (id.Identity, error) {
	identity, err := id.ParseIdentity(raw)
	if err != nil {
		return "", dErrors.Wrap(models.ErrInvalidIdentity, dErrors.CodeValidation, field+" must be a 0x-prefixed 20-byte hex address")
	}
	return identity, nil
}
