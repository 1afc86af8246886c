// Package metrics exposes Prometheus counters and gauges for the block
// indexer and transaction-processor hosts. The validator platform
// declares prometheus/client_golang in go.mod without a call site; this
// wires it in for real.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the counters and gauges both hosts register. Construct
// one with New and register it against a prometheus.Registerer (both
// hosts use a fresh prometheus.NewRegistry()).
type Metrics struct {
	BlocksApplied      prometheus.Counter
	BlocksDuplicate    prometheus.Counter
	ForksDetected      prometheus.Counter
	RowsClosed         prometheus.Counter
	RowsInserted       prometheus.Counter
	TransactionsOK     prometheus.Counter
	TransactionsRejected *prometheus.CounterVec
	HeadBlockNum       prometheus.Gauge
}

// New constructs a Metrics bundle. Call Register to attach it to a
// registry before use.
func New() *Metrics {
	return &Metrics{
		BlocksApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cert_registry",
			Subsystem: "indexer",
			Name:      "blocks_applied_total",
			Help:      "Number of blocks successfully applied to the read model.",
		}),
		BlocksDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cert_registry",
			Subsystem: "indexer",
			Name:      "blocks_duplicate_total",
			Help:      "Number of blocks skipped as duplicates of an already-applied block.",
		}),
		ForksDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cert_registry",
			Subsystem: "indexer",
			Name:      "forks_detected_total",
			Help:      "Number of forks detected and rewound.",
		}),
		RowsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cert_registry",
			Subsystem: "indexer",
			Name:      "rows_closed_total",
			Help:      "Number of versioned rows closed (end_block_num set) across all tables.",
		}),
		RowsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cert_registry",
			Subsystem: "indexer",
			Name:      "rows_inserted_total",
			Help:      "Number of versioned rows inserted across all tables.",
		}),
		TransactionsOK: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cert_registry",
			Subsystem: "processor",
			Name:      "transactions_applied_total",
			Help:      "Number of actions that passed validation and were applied.",
		}),
		TransactionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cert_registry",
			Subsystem: "processor",
			Name:      "transactions_rejected_total",
			Help:      "Number of actions rejected, labeled by error kind.",
		}, []string{"kind"}),
		HeadBlockNum: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cert_registry",
			Subsystem: "indexer",
			Name:      "head_block_num",
			Help:      "The highest block_num applied to the read model.",
		}),
	}
}

// Register attaches every metric to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.BlocksApplied, m.BlocksDuplicate, m.ForksDetected,
		m.RowsClosed, m.RowsInserted, m.TransactionsOK,
		m.TransactionsRejected, m.HeadBlockNum,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
