package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RPCRequests counts JSON-RPC calls by method and outcome.
	RPCRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "comments_rpc_requests_total",
		Help: "Total number of JSON-RPC calls by method and outcome",
	}, []string{"method", "outcome"})

	// RPCLatency records JSON-RPC method latency.
	RPCLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "comments_rpc_latency_seconds",
		Help:    "JSON-RPC method latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	// WriterJobs counts single-writer jobs by name and outcome.
	WriterJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "comments_writer_jobs_total",
		Help: "Total number of writer jobs by name and outcome",
	}, []string{"job", "outcome"})

	// WriterQueueWait records how long jobs wait before the writer picks them up.
	WriterQueueWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "comments_writer_queue_wait_seconds",
		Help:    "Time between job submission and execution",
		Buckets: prometheus.DefBuckets,
	})

	// WriterQueueDepth is the number of accepted jobs not yet run.
	WriterQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "comments_writer_queue_depth",
		Help: "Number of writer jobs waiting to run",
	})

	// SignatureChecks counts signature verifications by result reason.
	SignatureChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "comments_signature_checks_total",
		Help: "Total number of signature verifications by result",
	}, []string{"result"})

	// ResolverCalls counts claim resolver lookups by source.
	ResolverCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "comments_resolver_calls_total",
		Help: "Total number of claim lookups by source",
	}, []string{"source"})

	// Notifications counts notification deliveries by outcome.
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "comments_notifications_total",
		Help: "Total number of notification deliveries by outcome",
	}, []string{"outcome"})

	// Backups counts backup runs by outcome.
	Backups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "comments_backups_total",
		Help: "Total number of database backups by outcome",
	}, []string{"outcome"})
)

// Outcome label values
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// ObserveRPC records a finished JSON-RPC call.
func ObserveRPC(method string, start time.Time, err error) {
	RPCLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
	RPCRequests.WithLabelValues(method, Outcome(err)).Inc()
}

// Outcome returns the outcome label for err.
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
