package portfolio

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the clause exchange and solve activity to prometheus.
type Metrics struct {
	exported      *prometheus.CounterVec
	imported      *prometheus.CounterVec
	filtered      prometheus.Counter
	dropped       prometheus.Counter
	solveDuration *prometheus.HistogramVec
}

// NewMetrics creates the metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// Labels: worker
		exported: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "satshare",
			Name:      "clauses_exported_total",
			Help:      "Learnt clauses published by each worker",
		}, []string{"worker"}),
		// Labels: worker
		imported: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "satshare",
			Name:      "clauses_imported_total",
			Help:      "Shared clauses delivered to each worker",
		}, []string{"worker"}),
		filtered: f.NewCounter(prometheus.CounterOpts{
			Namespace: "satshare",
			Name:      "clauses_filtered_total",
			Help:      "Published clauses rejected by the clause database",
		}),
		dropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: "satshare",
			Name:      "clauses_dropped_total",
			Help:      "Shared clauses lost because an inbox was full",
		}),
		// Labels: engine, result (sat, unsat, interrupted)
		solveDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "satshare",
			Name:      "solve_duration_seconds",
			Help:      "Duration of worker solves",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"engine", "result"}),
	}
}

// The methods below accept a nil receiver so that metrics are optional.

func (m *Metrics) clauseExported(worker int) {
	if m != nil {
		m.exported.WithLabelValues(strconv.Itoa(worker)).Inc()
	}
}

func (m *Metrics) clausesImported(worker int, n int) {
	if m != nil && n > 0 {
		m.imported.WithLabelValues(strconv.Itoa(worker)).Add(float64(n))
	}
}

func (m *Metrics) clauseFiltered() {
	if m != nil {
		m.filtered.Inc()
	}
}

func (m *Metrics) clauseDropped() {
	if m != nil {
		m.dropped.Inc()
	}
}

func (m *Metrics) solveDone(engine, result string, elapsed time.Duration) {
	if m != nil {
		m.solveDuration.WithLabelValues(engine, result).Observe(elapsed.Seconds())
	}
}
