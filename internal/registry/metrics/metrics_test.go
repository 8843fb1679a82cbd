package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementRegistered("domain")
	m.IncrementRegistered("domain")
	m.IncrementRejected("subdomain", "conflict")
	m.SetFee(decimal.RequireFromString("2.5"))
	m.SetBalance(decimal.NewFromInt(4))
	m.ObserveOperation("register_domain", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Registrations.WithLabelValues("domain")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RejectedRegistrations.WithLabelValues("subdomain", "conflict")))
	assert.Equal(t, 2.5, testutil.ToFloat64(m.RegistrationFee))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.TreasuryBalance))
	assert.Equal(t, 1, testutil.CollectAndCount(m.OperationDuration))
}
