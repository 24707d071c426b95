package telemetry

// QueryBuckets covers the latency range of single-statement executions
// against a local or same-datacenter server.
var QueryBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

var (
	// QueriesTotal counts statement executions by connection type and result
	QueriesTotal CounterVec = noopCounterVec{}

	// QueryDurationSeconds measures per-statement latency
	QueryDurationSeconds Histogram = NoopStat{}

	// TransactionsTotal counts real driver-level transaction operations
	// (begin, commit, rollback) by result
	TransactionsTotal CounterVec = noopCounterVec{}

	// OpenHandles tracks the number of live connection handles
	OpenHandles Gauge = NoopStat{}
)

// InitMetrics initializes all Prometheus metrics.
// Called by InitializeTelemetry.
func InitMetrics() {
	QueriesTotal = NewCounterVec(
		"queries_total",
		"Statement executions by connection type and result",
		[]string{"type", "result"},
	)
	QueryDurationSeconds = NewHistogramWithBuckets(
		"query_duration_seconds",
		"Statement execution duration in seconds",
		QueryBuckets,
	)
	TransactionsTotal = NewCounterVec(
		"transactions_total",
		"Driver-level transaction operations by result",
		[]string{"op", "result"},
	)
	OpenHandles = NewGauge(
		"open_handles",
		"Number of live connection handles",
	)
}
