package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"registrar/internal/registry/models"
	"registrar/pkg/platform/sentinel"
)

// InMemory holds the whole registry state behind a single RWMutex.
//
// Domains live in an outer map keyed by name; each entry owns its subdomain map
// so the parent check and the scoped uniqueness check are separate lookups.
// Mutations made inside RunInTx are journaled and undone if the transaction
// function fails, so a failed operation leaves no partial writes.
//
// Every instance gets a fresh epoch, including one restored from a snapshot:
// registrations made after the last snapshot are lost on a crash, so nothing
// keyed by an earlier epoch may be trusted.
type InMemory struct {
	mu          sync.RWMutex
	epoch       string
	domains     map[string]*domainEntry
	order       []string
	events      []models.RegistrationEvent
	fee         decimal.Decimal
	balance     decimal.Decimal
	withdrawals []models.Withdrawal
}

type domainEntry struct {
	record     models.DomainRecord
	subdomains map[string]*models.SubdomainRecord
	subOrder   []string
}

// NewInMemory creates an empty registry with the given registration fee.
func NewInMemory(initialFee decimal.Decimal) *InMemory {
	return &InMemory{
		epoch:   uuid.NewString(),
		domains: make(map[string]*domainEntry),
		fee:     initialFee,
		balance: decimal.Zero,
	}
}

// Epoch identifies this store instance's state lineage.
func (s *InMemory) Epoch() string {
	return s.epoch
}

// RunInTx serializes fn against every other transaction and reader.
func (s *InMemory) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	j := &journal{owner: s}
	if err := fn(context.WithValue(ctx, journalKey{}, j)); err != nil {
		j.rollback()
		return err
	}
	return nil
}

type journalKey struct{}

type journal struct {
	owner *InMemory
	undo  []func()
}

func (j *journal) record(undo func()) {
	j.undo = append(j.undo, undo)
}

func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

// txFrom returns this store's journal when ctx is inside one of its transactions.
func (s *InMemory) txFrom(ctx context.Context) (*journal, bool) {
	j, ok := ctx.Value(journalKey{}).(*journal)
	if !ok || j.owner != s {
		return nil, false
	}
	return j, true
}

// lockRead takes the read lock unless the caller already holds the write lock
// through RunInTx.
func (s *InMemory) lockRead(ctx context.Context) func() {
	if _, ok := s.txFrom(ctx); ok {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

// lockWrite returns the journal to record undo steps in. Outside a transaction
// the write lock is taken for the single call and nothing is journaled.
func (s *InMemory) lockWrite(ctx context.Context) (*journal, func()) {
	if j, ok := s.txFrom(ctx); ok {
		return j, func() {}
	}
	s.mu.Lock()
	return &journal{owner: s}, s.mu.Unlock
}

// -----------------------------------------------------------------------------
// Namespace
// -----------------------------------------------------------------------------

// CreateDomainIfAvailable inserts a domain, or returns sentinel.ErrAlreadyUsed.
func (s *InMemory) CreateDomainIfAvailable(ctx context.Context, d *models.DomainRecord) error {
	j, unlock := s.lockWrite(ctx)
	defer unlock()

	if _, exists := s.domains[d.Name]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.domains[d.Name] = &domainEntry{
		record:     *d,
		subdomains: make(map[string]*models.SubdomainRecord),
	}
	s.order = append(s.order, d.Name)

	name := d.Name
	j.record(func() {
		delete(s.domains, name)
		s.order = s.order[:len(s.order)-1]
	})
	return nil
}

// CreateSubdomainIfAvailable inserts a subdomain under an existing parent.
// Returns sentinel.ErrNotFound for a missing parent and sentinel.ErrAlreadyUsed
// for a taken (parent, name) pair.
func (s *InMemory) CreateSubdomainIfAvailable(ctx context.Context, sub *models.SubdomainRecord) error {
	j, unlock := s.lockWrite(ctx)
	defer unlock()

	entry, ok := s.domains[sub.Parent]
	if !ok {
		return sentinel.ErrNotFound
	}
	if _, exists := entry.subdomains[sub.Name]; exists {
		return sentinel.ErrAlreadyUsed
	}
	rec := *sub
	entry.subdomains[sub.Name] = &rec
	entry.subOrder = append(entry.subOrder, sub.Name)

	name := sub.Name
	j.record(func() {
		delete(entry.subdomains, name)
		entry.subOrder = entry.subOrder[:len(entry.subOrder)-1]
	})
	return nil
}

func (s *InMemory) FindDomain(ctx context.Context, name string) (*models.DomainRecord, error) {
	defer s.lockRead(ctx)()

	entry, ok := s.domains[name]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	rec := entry.record
	return &rec, nil
}

func (s *InMemory) FindSubdomain(ctx context.Context, parent, name string) (*models.SubdomainRecord, error) {
	defer s.lockRead(ctx)()

	entry, ok := s.domains[parent]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	sub, ok := entry.subdomains[name]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	rec := *sub
	return &rec, nil
}

// ListDomains returns domain names in registration order.
func (s *InMemory) ListDomains(ctx context.Context) ([]string, error) {
	defer s.lockRead(ctx)()
	return append([]string{}, s.order...), nil
}

// ListSubdomains returns a domain's subdomains in registration order.
func (s *InMemory) ListSubdomains(ctx context.Context, parent string) ([]*models.SubdomainRecord, error) {
	defer s.lockRead(ctx)()

	entry, ok := s.domains[parent]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := make([]*models.SubdomainRecord, 0, len(entry.subOrder))
	for _, name := range entry.subOrder {
		rec := *entry.subdomains[name]
		out = append(out, &rec)
	}
	return out, nil
}

func (s *InMemory) CountDomains(ctx context.Context) (int, error) {
	defer s.lockRead(ctx)()
	return len(s.order), nil
}

// -----------------------------------------------------------------------------
// Event log
// -----------------------------------------------------------------------------

// AppendEvent assigns the next sequence number and appends the event.
func (s *InMemory) AppendEvent(ctx context.Context, e *models.RegistrationEvent) error {
	j, unlock := s.lockWrite(ctx)
	defer unlock()

	e.Seq = int64(len(s.events)) + 1
	s.events = append(s.events, *e)
	j.record(func() {
		s.events = s.events[:len(s.events)-1]
	})
	return nil
}

// FilterEvents returns matching events in emission order.
func (s *InMemory) FilterEvents(ctx context.Context, filter models.EventFilter) ([]models.RegistrationEvent, error) {
	defer s.lockRead(ctx)()

	out := make([]models.RegistrationEvent, 0, len(s.events))
	for _, e := range s.events {
		if filter.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// LatestEventTime returns the timestamp of the last event, or the zero time.
func (s *InMemory) LatestEventTime(ctx context.Context) (time.Time, error) {
	defer s.lockRead(ctx)()

	if len(s.events) == 0 {
		return time.Time{}, nil
	}
	return s.events[len(s.events)-1].Timestamp, nil
}

// -----------------------------------------------------------------------------
// Fee and treasury
// -----------------------------------------------------------------------------

func (s *InMemory) Fee(ctx context.Context) (decimal.Decimal, error) {
	defer s.lockRead(ctx)()
	return s.fee, nil
}

func (s *InMemory) SetFee(ctx context.Context, fee decimal.Decimal) error {
	j, unlock := s.lockWrite(ctx)
	defer unlock()

	prev := s.fee
	s.fee = fee
	j.record(func() { s.fee = prev })
	return nil
}

func (s *InMemory) Balance(ctx context.Context) (decimal.Decimal, error) {
	defer s.lockRead(ctx)()
	return s.balance, nil
}

// Credit adds amount to the treasury balance.
func (s *InMemory) Credit(ctx context.Context, amount decimal.Decimal) error {
	j, unlock := s.lockWrite(ctx)
	defer unlock()

	prev := s.balance
	s.balance = s.balance.Add(amount)
	j.record(func() { s.balance = prev })
	return nil
}

// Debit removes amount from the treasury balance. Returns
// sentinel.ErrUnavailable if the balance does not cover it.
func (s *InMemory) Debit(ctx context.Context, amount decimal.Decimal) error {
	j, unlock := s.lockWrite(ctx)
	defer unlock()

	if s.balance.LessThan(amount) {
		return sentinel.ErrUnavailable
	}
	prev := s.balance
	s.balance = s.balance.Sub(amount)
	j.record(func() { s.balance = prev })
	return nil
}

func (s *InMemory) RecordWithdrawal(ctx context.Context, w *models.Withdrawal) error {
	j, unlock := s.lockWrite(ctx)
	defer unlock()

	s.withdrawals = append(s.withdrawals, *w)
	j.record(func() {
		s.withdrawals = s.withdrawals[:len(s.withdrawals)-1]
	})
	return nil
}

// ListWithdrawals returns withdrawals oldest first.
func (s *InMemory) ListWithdrawals(ctx context.Context) ([]models.Withdrawal, error) {
	defer s.lockRead(ctx)()
	return append([]models.Withdrawal{}, s.withdrawals...), nil
}

// UpdateWithdrawalStatus sets the status of withdrawal withdrawalID, or returns
// sentinel.ErrNotFound.
func (s *InMemory) UpdateWithdrawalStatus(ctx context.Context, withdrawalID string, status models.WithdrawalStatus) error {
	j, unlock := s.lockWrite(ctx)
	defer unlock()

	for i := range s.withdrawals {
		if s.withdrawals[i].ID != withdrawalID {
			continue
		}
		prev := s.withdrawals[i].Status
		s.withdrawals[i].Status = status
		j.record(func() { s.withdrawals[i].Status = prev })
		return nil
	}
	return sentinel.ErrNotFound
}
