package models

import (
	dErrors "registrar/pkg/domain-errors"
)

// Registry error kinds. Services return these (possibly wrapped) so callers can
// test with errors.Is; transports render them through their codes.
var (
	ErrAlreadyRegistered   = dErrors.New(dErrors.CodeConflict, "name already registered")
	ErrUnknownParent       = dErrors.New(dErrors.CodeUnprocessable, "parent domain is not registered")
	ErrInsufficientPayment = dErrors.New(dErrors.CodePaymentRequired, "payment is below the registration fee")
	ErrUnauthorized        = dErrors.New(dErrors.CodeForbidden, "caller is not the administrator")
	ErrNotFound            = dErrors.New(dErrors.CodeNotFound, "name not found")
	ErrTransferFailed      = dErrors.New(dErrors.CodeBadGateway, "transfer to recipient failed")
	ErrInvalidName         = dErrors.New(dErrors.CodeValidation, "invalid name")
	ErrInvalidAmount       = dErrors.New(dErrors.CodeValidation, "invalid amount")
	ErrInvalidIdentity     = dErrors.New(dErrors.CodeValidation, "invalid identity")
)

// invalidName keeps ErrInvalidName in the chain while reporting the exact rule.
func invalidName(message string) error {
	return dErrors.Wrap(ErrInvalidName, dErrors.CodeValidation, message)
}
