package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments the engine. All collectors are registered against the
// registerer passed to New, so tests can use their own registry.
type Metrics struct {
	PoolsCreated prometheus.Counter
	Mints        prometheus.Counter
	Burns        prometheus.Counter
	Collects     prometheus.Counter
	Swaps        *prometheus.CounterVec
	SwapSteps    prometheus.Histogram
	FailedCalls  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PoolsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tickdex",
			Name:      "pools_created_total",
			Help:      "Pools created since start.",
		}),
		Mints: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tickdex",
			Name:      "mints_total",
			Help:      "Successful mint calls.",
		}),
		Burns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tickdex",
			Name:      "burns_total",
			Help:      "Successful burn calls.",
		}),
		Collects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tickdex",
			Name:      "collects_total",
			Help:      "Successful collect calls.",
		}),
		Swaps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tickdex",
			Name:      "swaps_total",
			Help:      "Successful swap calls by direction.",
		}, []string{"direction"}),
		SwapSteps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tickdex",
			Name:      "swap_steps",
			Help:      "Tick-loop iterations per swap.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		FailedCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tickdex",
			Name:      "failed_calls_total",
			Help:      "Rejected calls by operation.",
		}, []string{"op"}),
	}

	if reg != nil {
		reg.MustRegister(m.PoolsCreated, m.Mints, m.Burns, m.Collects, m.Swaps, m.SwapSteps, m.FailedCalls)
	}
	return m
}
