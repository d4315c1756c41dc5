package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Renewal batch metrics. Registered on the default registry so the
// /metrics endpoint picks them up without extra wiring.
var (
	RenewalsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "subtrack_renewals_processed_total",
		Help: "Subscriptions successfully renewed (invoice generated, billing date advanced).",
	})

	RenewalsClosed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "subtrack_renewals_closed_total",
		Help: "Subscriptions closed by the renewal batch after passing their end date.",
	})

	RenewalsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "subtrack_renewals_failed_total",
		Help: "Per-subscription renewal failures recorded by the batch.",
	})

	RenewalBatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "subtrack_renewal_batch_duration_seconds",
		Help:    "Wall-clock duration of a renewal batch run.",
		Buckets: prometheus.DefBuckets,
	})
)
