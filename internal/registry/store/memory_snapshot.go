package store

import (
	"fmt"

	"registrar/internal/registry/models"
	"registrar/internal/registry/snapshot"
)

// Export captures the committed state as a snapshot document.
func (s *InMemory) Export() *snapshot.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := &snapshot.Document{
		Version:     snapshot.CurrentVersion,
		Fee:         s.fee,
		Balance:     s.balance,
		Domains:     make([]snapshot.Domain, 0, len(s.order)),
		Events:      append([]models.RegistrationEvent{}, s.events...),
		Withdrawals: append([]models.Withdrawal{}, s.withdrawals...),
	}
	for _, name := range s.order {
		entry := s.domains[name]
		d := snapshot.Domain{DomainRecord: entry.record}
		for _, label := range entry.subOrder {
			d.Subdomains = append(d.Subdomains, *entry.subdomains[label])
		}
		doc.Domains = append(doc.Domains, d)
	}
	return doc
}

// NewInMemoryFromSnapshot rebuilds a store from a decoded document, checking
// the uniqueness and hierarchy invariants on the way in.
func NewInMemoryFromSnapshot(doc *snapshot.Document) (*InMemory, error) {
	s := NewInMemory(doc.Fee)
	s.balance = doc.Balance

	for _, d := range doc.Domains {
		if _, exists := s.domains[d.Name]; exists {
			return nil, fmt.Errorf("snapshot: duplicate domain %q", d.Name)
		}
		entry := &domainEntry{
			record:     d.DomainRecord,
			subdomains: make(map[string]*models.SubdomainRecord, len(d.Subdomains)),
		}
		for _, sub := range d.Subdomains {
			if sub.Parent != d.Name {
				return nil, fmt.Errorf("snapshot: subdomain %q listed under %q but names parent %q", sub.Name, d.Name, sub.Parent)
			}
			if _, exists := entry.subdomains[sub.Name]; exists {
				return nil, fmt.Errorf("snapshot: duplicate subdomain %q", sub.FQDN())
			}
			rec := sub
			entry.subdomains[sub.Name] = &rec
			entry.subOrder = append(entry.subOrder, sub.Name)
		}
		s.domains[d.Name] = entry
		s.order = append(s.order, d.Name)
	}

	for i, e := range doc.Events {
		if e.Seq != int64(i)+1 {
			return nil, fmt.Errorf("snapshot: event %d has sequence %d", i+1, e.Seq)
		}
	}
	s.events = append(s.events, doc.Events...)

	for _, w := range doc.Withdrawals {
		if !w.Status.Valid() {
			return nil, fmt.Errorf("snapshot: withdrawal %q has status %q", w.ID, w.Status)
		}
	}
	s.withdrawals = append(s.withdrawals, doc.Withdrawals...)
	return s, nil
}
