package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Metrics provides observability for the registry core.
type Metrics struct {
	Registrations         *prometheus.CounterVec
	RejectedRegistrations *prometheus.CounterVec
	Withdrawals           *prometheus.CounterVec
	ControllerLookups     *prometheus.CounterVec
	RegistrationFee       prometheus.Gauge
	TreasuryBalance       prometheus.Gauge
	OperationDuration     *prometheus.HistogramVec
}

// New registers the registry metrics with reg. A nil reg means the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_registrations_total",
			Help: "Successful registrations by kind (domain, subdomain)",
		}, []string{"kind"}),
		RejectedRegistrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_registrations_rejected_total",
			Help: "Rejected registrations by kind and error code",
		}, []string{"kind", "reason"}),
		Withdrawals: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_withdrawals_total",
			Help: "Withdrawal attempts by outcome (succeeded, failed, unknown, empty, unauthorized)",
		}, []string{"outcome"}),
		ControllerLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_controller_lookups_total",
			Help: "Controller lookups by cache result (hit, miss, bypass)",
		}, []string{"cache"}),
		RegistrationFee: f.NewGauge(prometheus.GaugeOpts{
			Name: "registrar_registration_fee",
			Help: "Current registration fee in native units",
		}),
		TreasuryBalance: f.NewGauge(prometheus.GaugeOpts{
			Name: "registrar_treasury_balance",
			Help: "Treasury balance in native units as of the last change",
		}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registrar_operation_duration_seconds",
			Help:    "Duration of registry core operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementRegistered(kind string) {
	m.Registrations.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementRejected(kind, reason string) {
	m.RejectedRegistrations.WithLabelValues(kind, reason).Inc()
}

func (m *Metrics) IncrementWithdrawal(outcome string) {
	m.Withdrawals.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementLookup(cacheResult string) {
	m.ControllerLookups.WithLabelValues(cacheResult).Inc()
}

// SetFee and SetBalance export decimals as floats; precision loss is
// acceptable for dashboards.
func (m *Metrics) SetFee(fee decimal.Decimal) {
	m.RegistrationFee.Set(fee.InexactFloat64())
}

func (m *Metrics) SetBalance(balance decimal.Decimal) {
	m.TreasuryBalance.Set(balance.InexactFloat64())
}

// ObserveOperation records the duration of an operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
