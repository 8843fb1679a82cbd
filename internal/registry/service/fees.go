package service

import (
	"context"

	"github.com/shopspring/decimal"

	"registrar/internal/registry/models"
	id "registrar/pkg/domain"
	"registrar/pkg/requestcontext"
)

// SetFee replaces the registration fee. Only the administrator may call it and
// the new fee applies to registrations that start after it commits.
func (s *Service) SetFee(ctx context.Context, fee decimal.Decimal, caller id.Identity) (err error) {
	ctx, finish := s.span(ctx, "set_fee")
	defer finish(&err)

	if err := s.requireAdmin(caller); err != nil {
		return err
	}
	if err := models.CheckAmount(fee); err != nil {
		return err
	}

	var previous decimal.Decimal
	err = s.store.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		if previous, err = s.store.Fee(txCtx); err != nil {
			return err
		}
		return s.store.SetFee(txCtx, fee)
	})
	if err != nil {
		return internal(err, "failed to set fee")
	}

	if s.metrics != nil {
		s.metrics.SetFee(fee)
	}
	s.logger.InfoContext(ctx, "registration fee changed",
		"previous_fee", previous.String(),
		"fee", fee.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// CurrentFee returns the registration fee.
func (s *Service) CurrentFee(ctx context.Context) (decimal.Decimal, error) {
	fee, err := s.store.Fee(ctx)
	if err != nil {
		return decimal.Zero, internal(err, "failed to read fee")
	}
	return fee, nil
}
