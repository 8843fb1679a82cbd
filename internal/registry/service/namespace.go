package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"registrar/internal/registry/models"
	id "registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/requestcontext"
)

const (
	kindDomain    = "domain"
	kindSubdomain = "subdomain"
)

// RegisterDomain claims a top-level name for caller. The whole payment is
// credited to the treasury when it covers the current fee.
func (s *Service) RegisterDomain(ctx context.Context, name string, caller id.Identity, payment decimal.Decimal) (record *models.DomainRecord, err error) {
	ctx, finish := s.span(ctx, "register_domain")
	defer finish(&err)
	defer s.countRejection(kindDomain, &err)

	normalized, err := models.NormalizeDomainName(name)
	if err != nil {
		return nil, err
	}
	if err := checkRegistrant(caller, payment); err != nil {
		return nil, err
	}

	var balance decimal.Decimal
	err = s.store.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.checkPayment(txCtx, payment); err != nil {
			return err
		}
		registeredAt, err := registrationTime(txCtx, s.store)
		if err != nil {
			return err
		}
		d := &models.DomainRecord{
			Name:         normalized,
			Controller:   caller,
			RegisteredAt: registeredAt,
			FeePaid:      payment,
		}
		if err := s.store.CreateDomainIfAvailable(txCtx, d); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return kindError(models.ErrAlreadyRegistered, fmt.Sprintf("domain %q is already registered", normalized))
			}
			return err
		}
		event := models.NewDomainEvent(d)
		if err := s.store.AppendEvent(txCtx, &event); err != nil {
			return err
		}
		if err := s.store.Credit(txCtx, payment); err != nil {
			return err
		}
		if balance, err = s.store.Balance(txCtx); err != nil {
			return err
		}
		record = d
		return nil
	})
	if err != nil {
		return nil, internal(err, "failed to register domain")
	}

	s.logger.InfoContext(ctx, "domain registered",
		"name", record.Name,
		"controller", record.Controller.String(),
		"fee_paid", record.FeePaid.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.afterRegistration(ctx, kindDomain, record.Name, record.Controller, balance)
	return record, nil
}

// RegisterSubdomain claims name under an existing parent domain. name may be a
// bare label or qualified by the parent ("test" or "test.com" under "com").
func (s *Service) RegisterSubdomain(ctx context.Context, parent, name string, caller id.Identity, payment decimal.Decimal) (record *models.SubdomainRecord, err error) {
	ctx, finish := s.span(ctx, "register_subdomain")
	defer finish(&err)
	defer s.countRejection(kindSubdomain, &err)

	parentName, err := models.NormalizeDomainName(parent)
	if err != nil {
		return nil, err
	}
	label, err := models.NormalizeSubdomainName(parentName, name)
	if err != nil {
		return nil, err
	}
	if err := checkRegistrant(caller, payment); err != nil {
		return nil, err
	}

	var balance decimal.Decimal
	err = s.store.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.checkPayment(txCtx, payment); err != nil {
			return err
		}
		if _, err := s.store.FindDomain(txCtx, parentName); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return kindError(models.ErrUnknownParent, fmt.Sprintf("parent domain %q is not registered", parentName))
			}
			return err
		}
		registeredAt, err := registrationTime(txCtx, s.store)
		if err != nil {
			return err
		}
		sub := &models.SubdomainRecord{
			Name:         label,
			Parent:       parentName,
			Controller:   caller,
			RegisteredAt: registeredAt,
			FeePaid:      payment,
		}
		if err := s.store.CreateSubdomainIfAvailable(txCtx, sub); err != nil {
			switch {
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				return kindError(models.ErrAlreadyRegistered, fmt.Sprintf("subdomain %q is already registered", sub.FQDN()))
			case errors.Is(err, sentinel.ErrNotFound):
				return kindError(models.ErrUnknownParent, fmt.Sprintf("parent domain %q is not registered", parentName))
			}
			return err
		}
		event := models.NewSubdomainEvent(sub)
		if err := s.store.AppendEvent(txCtx, &event); err != nil {
			return err
		}
		if err := s.store.Credit(txCtx, payment); err != nil {
			return err
		}
		if balance, err = s.store.Balance(txCtx); err != nil {
			return err
		}
		record = sub
		return nil
	})
	if err != nil {
		return nil, internal(err, "failed to register subdomain")
	}

	s.logger.InfoContext(ctx, "subdomain registered",
		"name", record.FQDN(),
		"parent", record.Parent,
		"controller", record.Controller.String(),
		"fee_paid", record.FeePaid.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.afterRegistration(ctx, kindSubdomain, record.FQDN(), record.Controller, balance)
	return record, nil
}

// GetController returns the controller of a registered domain.
func (s *Service) GetController(ctx context.Context, name string) (controller id.Identity, err error) {
	ctx, finish := s.span(ctx, "get_controller")
	defer finish(&err)

	normalized, err := models.NormalizeDomainName(name)
	if err != nil {
		return "", kindError(models.ErrNotFound, fmt.Sprintf("domain %q not found", name))
	}
	return s.lookupController(ctx, normalized, func() (id.Identity, error) {
		d, err := s.store.FindDomain(ctx, normalized)
		if err != nil {
			return "", err
		}
		return d.Controller, nil
	})
}

// GetSubdomainController returns the controller of a registered subdomain.
func (s *Service) GetSubdomainController(ctx context.Context, parent, name string) (controller id.Identity, err error) {
	ctx, finish := s.span(ctx, "get_subdomain_controller")
	defer finish(&err)

	parentName, err := models.NormalizeDomainName(parent)
	if err != nil {
		return "", kindError(models.ErrNotFound, fmt.Sprintf("domain %q not found", parent))
	}
	label, err := models.NormalizeSubdomainName(parentName, name)
	if err != nil {
		return "", kindError(models.ErrNotFound, fmt.Sprintf("subdomain %q not found", name))
	}
	return s.lookupController(ctx, models.FQDN(label, parentName), func() (id.Identity, error) {
		sub, err := s.store.FindSubdomain(ctx, parentName, label)
		if err != nil {
			return "", err
		}
		return sub.Controller, nil
	})
}

// lookupController serves fqdn from the cache when possible. Cache failures
// fall back to the store.
func (s *Service) lookupController(ctx context.Context, fqdn string, load func() (id.Identity, error)) (id.Identity, error) {
	if s.cache != nil {
		controller, ok, err := s.cache.GetController(ctx, fqdn)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "controller cache read failed",
				"name", fqdn,
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		case ok:
			s.countLookup("hit")
			return controller, nil
		}
		s.countLookup("miss")
	} else {
		s.countLookup("bypass")
	}

	controller, err := load()
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", kindError(models.ErrNotFound, fmt.Sprintf("%q not found", fqdn))
		}
		return "", internal(err, "failed to look up controller")
	}
	s.cacheController(ctx, fqdn, controller)
	return controller, nil
}

// GetDomain returns the full domain record.
func (s *Service) GetDomain(ctx context.Context, name string) (*models.DomainRecord, error) {
	normalized, err := models.NormalizeDomainName(name)
	if err != nil {
		return nil, kindError(models.ErrNotFound, fmt.Sprintf("domain %q not found", name))
	}
	d, err := s.store.FindDomain(ctx, normalized)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, kindError(models.ErrNotFound, fmt.Sprintf("domain %q not found", normalized))
		}
		return nil, internal(err, "failed to load domain")
	}
	return d, nil
}

// ListDomains returns every domain name in registration order.
func (s *Service) ListDomains(ctx context.Context) ([]string, error) {
	names, err := s.store.ListDomains(ctx)
	if err != nil {
		return nil, internal(err, "failed to list domains")
	}
	return names, nil
}

// ListSubdomains returns parent's subdomains in registration order.
func (s *Service) ListSubdomains(ctx context.Context, parent string) ([]*models.SubdomainRecord, error) {
	parentName, err := models.NormalizeDomainName(parent)
	if err != nil {
		return nil, kindError(models.ErrNotFound, fmt.Sprintf("domain %q not found", parent))
	}
	subs, err := s.store.ListSubdomains(ctx, parentName)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, kindError(models.ErrNotFound, fmt.Sprintf("domain %q not found", parentName))
		}
		return nil, internal(err, "failed to list subdomains")
	}
	return subs, nil
}

func checkRegistrant(caller id.Identity, payment decimal.Decimal) error {
	if caller.IsNil() || caller.IsZero() {
		return kindError(models.ErrInvalidIdentity, "caller identity is required")
	}
	return models.CheckAmount(payment)
}

func (s *Service) checkPayment(ctx context.Context, payment decimal.Decimal) error {
	fee, err := s.store.Fee(ctx)
	if err != nil {
		return err
	}
	if payment.LessThan(fee) {
		return kindError(models.ErrInsufficientPayment,
			fmt.Sprintf("payment %s is below the registration fee %s", payment.String(), fee.String()))
	}
	return nil
}

func (s *Service) afterRegistration(ctx context.Context, kind, fqdn string, controller id.Identity, balance decimal.Decimal) {
	if s.metrics != nil {
		s.metrics.IncrementRegistered(kind)
		s.metrics.SetBalance(balance)
	}
	s.cacheController(ctx, fqdn, controller)
}

func (s *Service) cacheController(ctx context.Context, fqdn string, controller id.Identity) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetController(ctx, fqdn, controller); err != nil {
		s.logger.WarnContext(ctx, "controller cache write failed",
			"name", fqdn,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func (s *Service) countRejection(kind string, err *error) {
	if s.metrics == nil || *err == nil {
		return
	}
	s.metrics.IncrementRejected(kind, errorCode(*err))
}

func (s *Service) countLookup(result string) {
	if s.metrics != nil {
		s.metrics.IncrementLookup(result)
	}
}
