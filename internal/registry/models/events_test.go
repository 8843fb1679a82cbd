package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "registrar/pkg/domain"
)

func TestEventFilterMatches(t *testing.T) {
	alice := id.Identity("0x00000000000000000000000000000000000000a1")
	bob := id.Identity("0x00000000000000000000000000000000000000b2")
	now := time.Now()

	domainEvent := NewDomainEvent(&DomainRecord{Name: "com", Controller: alice, RegisteredAt: now})
	subEvent := NewSubdomainEvent(&SubdomainRecord{Name: "shop", Parent: "com", Controller: bob, RegisteredAt: now})

	assert.Equal(t, "shop.com", subEvent.Name)
	assert.Equal(t, "com", subEvent.Parent)

	all := EventFilter{}
	assert.True(t, all.Matches(domainEvent))
	assert.True(t, all.Matches(subEvent))

	kind := EventDomainRegistered
	byKind := EventFilter{Kind: &kind}
	assert.True(t, byKind.Matches(domainEvent))
	assert.False(t, byKind.Matches(subEvent))

	byController := EventFilter{Controller: &bob}
	assert.False(t, byController.Matches(domainEvent))
	assert.True(t, byController.Matches(subEvent))

	both := EventFilter{Kind: &kind, Controller: &bob}
	assert.False(t, both.Matches(subEvent))
}

func TestParseEventKind(t *testing.T) {
	kind, err := ParseEventKind("subdomain_registered")
	require.NoError(t, err)
	assert.Equal(t, EventSubdomainRegistered, kind)

	_, err = ParseEventKind("domain_released")
	require.Error(t, err)
}
