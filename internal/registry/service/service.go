// Package service is the registry core: registration, fee policy, access
// control and treasury custody.
//
// Registrations and fee changes run inside one RegistryTx transaction, so
// state changes, the event they emit and the treasury credit either all land
// or none do. Withdrawals never hold a transaction across the external
// transfer: the debit commits with a pending record first, and the outcome is
// settled in a second transaction.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	registrymetrics "registrar/internal/registry/metrics"
	"registrar/internal/registry/models"
	"registrar/internal/registry/payout"
	id "registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/requestcontext"
)

const (
	tracerName             = "registrar/internal/registry/service"
	defaultTransferTimeout = 10 * time.Second
)

// NamespaceStore is the two-level name container.
type NamespaceStore interface {
	CreateDomainIfAvailable(ctx context.Context, d *models.DomainRecord) error
	CreateSubdomainIfAvailable(ctx context.Context, sub *models.SubdomainRecord) error
	FindDomain(ctx context.Context, name string) (*models.DomainRecord, error)
	FindSubdomain(ctx context.Context, parent, name string) (*models.SubdomainRecord, error)
	ListDomains(ctx context.Context) ([]string, error)
	ListSubdomains(ctx context.Context, parent string) ([]*models.SubdomainRecord, error)
}

// EventLog is the append-only registration log.
type EventLog interface {
	AppendEvent(ctx context.Context, e *models.RegistrationEvent) error
	FilterEvents(ctx context.Context, filter models.EventFilter) ([]models.RegistrationEvent, error)
	LatestEventTime(ctx context.Context) (time.Time, error)
}

// LedgerState holds the fee and the treasury.
type LedgerState interface {
	Fee(ctx context.Context) (decimal.Decimal, error)
	SetFee(ctx context.Context, fee decimal.Decimal) error
	Balance(ctx context.Context) (decimal.Decimal, error)
	Credit(ctx context.Context, amount decimal.Decimal) error
	Debit(ctx context.Context, amount decimal.Decimal) error
	RecordWithdrawal(ctx context.Context, w *models.Withdrawal) error
	UpdateWithdrawalStatus(ctx context.Context, withdrawalID string, status models.WithdrawalStatus) error
	ListWithdrawals(ctx context.Context) ([]models.Withdrawal, error)
}

// RegistryTx provides the transactional boundary. Store calls made with txCtx
// take part in the transaction; an error from fn discards all of them.
type RegistryTx interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// Store is everything the core needs from a backend.
type Store interface {
	NamespaceStore
	EventLog
	LedgerState
	RegistryTx
}

// Transferer moves value out of the treasury.
type Transferer interface {
	Transfer(ctx context.Context, in payout.Instruction) error
}

// ControllerCache is an optional read-through cache for controller lookups.
type ControllerCache interface {
	GetController(ctx context.Context, name string) (id.Identity, bool, error)
	SetController(ctx context.Context, name string, controller id.Identity) error
}

// Service orchestrates the registry.
type Service struct {
	store      Store
	admin      id.Identity
	transferer Transferer
	cache      ControllerCache
	logger     *slog.Logger
	metrics    *registrymetrics.Metrics
	tracer     trace.Tracer

	transferTimeout time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *registrymetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTransferer sets the payout backend. Defaults to an in-memory ledger.
func WithTransferer(t Transferer) Option {
	return func(s *Service) {
		s.transferer = t
	}
}

// WithTransferTimeout bounds a single payout transfer. Defaults to 10s.
func WithTransferTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.transferTimeout = d
	}
}

func WithControllerCache(c ControllerCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// New constructs a Service. admin is fixed for the lifetime of the service.
func New(store Store, admin id.Identity, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("registry store is required")
	}
	if admin.IsNil() || admin.IsZero() {
		return nil, errors.New("administrator identity is required")
	}
	s := &Service{store: store, admin: admin, transferTimeout: defaultTransferTimeout}
	for _, opt := range opts {
		opt(s)
	}
	if s.transferer == nil {
		s.transferer = payout.NewLedger()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	if s.transferTimeout <= 0 {
		s.transferTimeout = defaultTransferTimeout
	}
	return s, nil
}

// Admin returns the administrator identity.
func (s *Service) Admin() id.Identity {
	return s.admin
}

func (s *Service) requireAdmin(caller id.Identity) error {
	if caller != s.admin {
		return models.ErrUnauthorized
	}
	return nil
}

// span starts a span for operation and returns a finish func that records the
// outcome and the duration metric.
func (s *Service) span(ctx context.Context, operation string) (context.Context, func(err *error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registry."+operation)
	return ctx, func(err *error) {
		if err != nil && *err != nil {
			span.RecordError(*err)
			span.SetStatus(codes.Error, errorCode(*err))
		}
		span.End()
		if s.metrics != nil {
			s.metrics.ObserveOperation(operation, start)
		}
	}
}

// registrationTime keeps registration timestamps monotonic across events even
// if the wall clock steps back.
func registrationTime(ctx context.Context, events EventLog) (time.Time, error) {
	now := requestcontext.Now(ctx).UTC()
	latest, err := events.LatestEventTime(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if latest.After(now) {
		return latest, nil
	}
	return now, nil
}

// kindError keeps kind in the chain while giving the caller a specific message.
func kindError(kind *dErrors.Error, message string) error {
	return dErrors.Wrap(kind, kind.Code, message)
}

// internal wraps infrastructure failures; coded errors pass through.
func internal(err error, message string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, message)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, message)
}

func errorCode(err error) string {
	if de, ok := dErrors.As(err); ok {
		return string(de.Code)
	}
	return string(dErrors.CodeInternal)
}
