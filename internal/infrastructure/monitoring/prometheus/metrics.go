package prometheus

// AppMetrics holds every metric the engine emits, grouped by layer.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Query facade
	QueriesTotal      CounterVec
	QueryDuration     HistogramVec
	CellSetSize       HistogramVec
	IntersectionCells HistogramVec

	// Cell-set cache
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec

	// Feature store
	StoreQueryDuration HistogramVec

	// Audit stream
	AuditPublishTotal CounterVec
}

var (
	DefaultHTTPDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultQueryDurationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
	DefaultSetSizeBuckets       = []float64{0, 1, 10, 100, 1000, 10000, 100000, 1000000}
)

// NewAppMetrics registers all metrics on the collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method", "path")

	m.QueriesTotal = collector.RegisterCounter("queries_total", "Topology queries by operation and outcome", "operation", "outcome")
	m.QueryDuration = collector.RegisterHistogram("query_duration_seconds", "End to end topology query duration", DefaultQueryDurationBuckets, "operation")
	m.CellSetSize = collector.RegisterHistogram("cellset_size_cells", "Materialized cell set size", DefaultSetSizeBuckets, "side")
	m.IntersectionCells = collector.RegisterHistogram("intersection_result_cells", "Cells in intersection results", DefaultSetSizeBuckets)

	m.CacheHitsTotal = collector.RegisterCounter("cellset_cache_hits_total", "Cell set cache hits")
	m.CacheMissesTotal = collector.RegisterCounter("cellset_cache_misses_total", "Cell set cache misses")

	m.StoreQueryDuration = collector.RegisterHistogram("store_query_duration_seconds", "Feature store predicate query duration", DefaultQueryDurationBuckets)

	m.AuditPublishTotal = collector.RegisterCounter("audit_publish_total", "Audit events by publish outcome", "outcome")

	return m
}
