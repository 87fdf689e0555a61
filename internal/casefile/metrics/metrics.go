package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for victim and case bookkeeping.
type Metrics struct {
	VictimsCreated    prometheus.Counter
	VictimsDeleted    prometheus.Counter
	CasesCreated      prometheus.Counter
	CasesDeleted      prometheus.Counter
	LinkChanges       *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

// New creates a new Metrics instance with all casefile metrics registered.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers against reg, so tests can use a private registry.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		VictimsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "casefile_victims_created_total",
			Help: "Total number of victims created",
		}),
		VictimsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "casefile_victims_deleted_total",
			Help: "Total number of victims deleted",
		}),
		CasesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "casefile_cases_created_total",
			Help: "Total number of cases created",
		}),
		CasesDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "casefile_cases_deleted_total",
			Help: "Total number of cases deleted",
		}),
		LinkChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casefile_link_changes_total",
			Help: "Victim/case reference changes by kind (attach, detach, claim, release)",
		}, []string{"kind"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "casefile_operation_duration_seconds",
			Help:    "Duration of victim and case operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementVictimsCreated() {
	if m != nil {
		m.VictimsCreated.Inc()
	}
}

func (m *Metrics) IncrementVictimsDeleted() {
	if m != nil {
		m.VictimsDeleted.Inc()
	}
}

func (m *Metrics) IncrementCasesCreated() {
	if m != nil {
		m.CasesCreated.Inc()
	}
}

func (m *Metrics) IncrementCasesDeleted() {
	if m != nil {
		m.CasesDeleted.Inc()
	}
}

// IncrementLinkChange records one reference change of the given kind.
func (m *Metrics) IncrementLinkChange(kind string) {
	m.AddLinkChanges(kind, 1)
}

// AddLinkChanges records n reference changes from one bulk write.
func (m *Metrics) AddLinkChanges(kind string, n int) {
	if m != nil && n > 0 {
		m.LinkChanges.WithLabelValues(kind).Add(float64(n))
	}
}

// ObserveOperation records the duration of an operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	if m != nil {
		m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
