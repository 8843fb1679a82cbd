package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registrar/internal/registry/models"
	id "registrar/pkg/domain"
)

const versionOneDocument = `{
  "version": 1,
  "fee": "1",
  "balance": "3",
  "domains": [
    {
      "name": "com",
      "controller": "0x00000000000000000000000000000000000000a1",
      "registered_at": "2024-01-02T03:04:05Z",
      "subdomains": [
        {"name": "test", "controller": "0x00000000000000000000000000000000000000b2", "registered_at": "2024-01-02T04:00:00Z"}
      ]
    }
  ],
  "events": [
    {"seq": 1, "kind": "domain_registered", "name": "com", "controller": "0x00000000000000000000000000000000000000a1", "timestamp": "2024-01-02T03:04:05Z"}
  ]
}`

const versionTwoDocument = `{
  "version": 2,
  "fee": "1",
  "balance": "0",
  "domains": [],
  "events": [],
  "withdrawals": [
    {"id": "w-1", "recipient": "0x00000000000000000000000000000000000000c3", "amount": "3", "requested_by": "0x00000000000000000000000000000000000000a1", "withdrawn_at": "2024-02-01T00:00:00Z"}
  ]
}`

func TestDecodeUpgradesVersionOne(t *testing.T) {
	doc, err := Decode([]byte(versionOneDocument))
	require.NoError(t, err)

	assert.Equal(t, CurrentVersion, doc.Version)
	assert.True(t, doc.Fee.Equal(decimal.NewFromInt(1)))
	assert.True(t, doc.Balance.Equal(decimal.NewFromInt(3)))
	require.Len(t, doc.Domains, 1)

	com := doc.Domains[0]
	assert.Equal(t, "com", com.Name)
	assert.Equal(t, id.Identity("0x00000000000000000000000000000000000000a1"), com.Controller)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), com.RegisteredAt.UTC())
	assert.True(t, com.FeePaid.IsZero(), "fields added in v2 default to zero")

	require.Len(t, com.Subdomains, 1)
	assert.Equal(t, "com", com.Subdomains[0].Parent)
	assert.Empty(t, doc.Withdrawals)
	require.Len(t, doc.Events, 1)
	assert.Equal(t, models.EventDomainRegistered, doc.Events[0].Kind)
}

func TestDecodeMarksVersionTwoWithdrawalsCompleted(t *testing.T) {
	doc, err := Decode([]byte(versionTwoDocument))
	require.NoError(t, err)

	require.Len(t, doc.Withdrawals, 1)
	assert.Equal(t, models.WithdrawalCompleted, doc.Withdrawals[0].Status)
	assert.True(t, doc.Withdrawals[0].Amount.Equal(decimal.NewFromInt(3)))
}

func TestDecodeRejectsFutureVersion(t *testing.T) {
	_, err := Decode([]byte(`{"version": 99}`))
	require.Error(t, err)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")

	missing, err := Load(path)
	require.NoError(t, err)
	assert.Nil(t, missing)

	doc := &Document{
		Fee:     decimal.NewFromInt(2),
		Balance: decimal.RequireFromString("4.5"),
		Domains: []Domain{{
			DomainRecord: models.DomainRecord{
				Name:         "net",
				Controller:   "0x00000000000000000000000000000000000000c3",
				RegisteredAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
				FeePaid:      decimal.NewFromInt(2),
			},
		}},
		Withdrawals: []models.Withdrawal{{ID: "w-1", Amount: decimal.NewFromInt(1), Status: models.WithdrawalPending}},
	}
	require.NoError(t, Save(path, doc))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, loaded.Version)
	assert.True(t, loaded.Balance.Equal(doc.Balance))
	require.Len(t, loaded.Domains, 1)
	assert.True(t, loaded.Domains[0].FeePaid.Equal(decimal.NewFromInt(2)))
	require.Len(t, loaded.Withdrawals, 1)
	assert.Equal(t, models.WithdrawalPending, loaded.Withdrawals[0].Status)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}
