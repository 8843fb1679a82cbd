package models

import (
	"fmt"
	"time"

	id "registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
)

// EventKind identifies what a registration event records.
type EventKind string

const (
	EventDomainRegistered    EventKind = "domain_registered"
	EventSubdomainRegistered EventKind = "subdomain_registered"
)

// ParseEventKind validates a kind received from a client.
func ParseEventKind(s string) (EventKind, error) {
	switch k := EventKind(s); k {
	case EventDomainRegistered, EventSubdomainRegistered:
		return k, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown event kind %q", s))
	}
}

// RegistrationEvent is an immutable log entry emitted once per successful
// registration. Seq is the 1-based emission order. For subdomains Name is the
// qualified name and Parent the owning domain.
type RegistrationEvent struct {
	Seq        int64       `json:"seq"`
	Kind       EventKind   `json:"kind"`
	Name       string      `json:"name"`
	Parent     string      `json:"parent,omitempty"`
	Controller id.Identity `json:"controller"`
	Timestamp  time.Time   `json:"timestamp"`
}

// EventFilter selects events; nil fields match everything.
type EventFilter struct {
	Kind       *EventKind
	Controller *id.Identity
}

// Matches reports whether e satisfies the filter.
func (f EventFilter) Matches(e RegistrationEvent) bool {
	if f.Kind != nil && e.Kind != *f.Kind {
		return false
	}
	if f.Controller != nil && e.Controller != *f.Controller {
		return false
	}
	return true
}

// NewDomainEvent builds the event for a freshly registered domain.
func NewDomainEvent(d *DomainRecord) RegistrationEvent {
	return RegistrationEvent{
		Kind:       EventDomainRegistered,
		Name:       d.Name,
		Controller: d.Controller,
		Timestamp:  d.RegisteredAt,
	}
}

// NewSubdomainEvent builds the event for a freshly registered subdomain.
func NewSubdomainEvent(s *SubdomainRecord) RegistrationEvent {
	return RegistrationEvent{
		Kind:       EventSubdomainRegistered,
		Name:       s.FQDN(),
		Parent:     s.Parent,
		Controller: s.Controller,
		Timestamp:  s.RegisteredAt,
	}
}
