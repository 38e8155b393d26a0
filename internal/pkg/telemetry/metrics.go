package telemetry

// BatchBuckets covers one transaction against a local or remote relational store.
var BatchBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

var (
	// RecordsWrittenTotal counts records committed to the target, by kind.
	RecordsWrittenTotal CounterVec = noopCounterVec{}

	// RecordsNotAttemptedTotal counts records left unwritten because their writer stopped.
	RecordsNotAttemptedTotal CounterVec = noopCounterVec{}

	// BatchesTotal counts batch transactions by kind and result (committed, decode_failed, tx_failed).
	BatchesTotal CounterVec = noopCounterVec{}

	// BatchDurationSeconds measures one batch transaction, by kind.
	BatchDurationSeconds HistogramVec = noopHistogramVec{}

	// ManagersCreatedTotal counts transaction managers built by writers, by kind.
	ManagersCreatedTotal CounterVec = noopCounterVec{}

	// ActiveWriters tracks writers currently running, by kind.
	ActiveWriters GaugeVec = noopGaugeVec{}

	// KindRunsTotal counts finished kinds by result (success, failed).
	KindRunsTotal CounterVec = noopCounterVec{}
)

// InitMetrics initializes all Prometheus metrics.
// Must be called after InitializeTelemetry().
func InitMetrics() {
	RecordsWrittenTotal = NewCounterVec(
		"records_written_total",
		"Records committed to the target store",
		[]string{"kind"},
	)
	RecordsNotAttemptedTotal = NewCounterVec(
		"records_not_attempted_total",
		"Records not written because their writer stopped early",
		[]string{"kind"},
	)
	BatchesTotal = NewCounterVec(
		"batches_total",
		"Batch transactions by kind and result",
		[]string{"kind", "result"},
	)
	BatchDurationSeconds = NewHistogramVec(
		"batch_duration_seconds",
		"Batch transaction duration in seconds",
		[]string{"kind"},
		BatchBuckets,
	)
	ManagersCreatedTotal = NewCounterVec(
		"managers_created_total",
		"Transaction managers created by writers",
		[]string{"kind"},
	)
	ActiveWriters = NewGaugeVec(
		"active_writers",
		"Writers currently running",
		[]string{"kind"},
	)
	KindRunsTotal = NewCounterVec(
		"kind_runs_total",
		"Finished kinds by result",
		[]string{"result"},
	)
}
