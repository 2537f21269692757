package prometheus

import (
	"strconv"
	"time"
)

var (
	DefaultHTTPDurationBuckets    = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultRebuildDurationBuckets = []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1}
	DefaultLoadDurationBuckets    = []float64{.001, .01, .05, .1, .5, 1, 2.5, 5, 10, 30}
	DefaultRecordCountBuckets     = []float64{0, 1, 5, 10, 25, 50, 100, 250, 1000}
)

// AppMetrics is the set of metrics exported by the viewer process. It
// satisfies the viewer service's Metrics port as well as the loader's.
type AppMetrics struct {
	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPResponseSize    HistogramVec
	HTTPActiveRequests  GaugeVec

	// gRPC
	GRPCRequestsTotal   CounterVec
	GRPCRequestDuration HistogramVec

	// Scene
	SceneRebuildsTotal    CounterVec
	SceneRebuildDuration  HistogramVec
	SceneDrawRecords      HistogramVec
	BackendFailuresTotal  CounterVec
	InteractionEdgesTotal CounterVec
	StructuresLoaded      GaugeVec

	// Structure loading
	StructureLoadsTotal   CounterVec
	StructureLoadDuration HistogramVec
	StructureCacheHits    CounterVec
	StructureCacheMisses  CounterVec

	ErrorsTotal CounterVec
}

// NewAppMetrics registers every metric on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "route", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "route")
	m.HTTPResponseSize = collector.RegisterHistogram("http_response_size_bytes", "HTTP response size", []float64{100, 1000, 10000, 100000, 1000000, 10000000}, "method", "route")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "In-flight HTTP requests")

	m.GRPCRequestsTotal = collector.RegisterCounter("grpc_requests_total", "Total gRPC requests", "method", "code")
	m.GRPCRequestDuration = collector.RegisterHistogram("grpc_request_duration_seconds", "gRPC request duration", DefaultHTTPDurationBuckets, "method")

	m.SceneRebuildsTotal = collector.RegisterCounter("scene_rebuilds_total", "Scene rebuilds applied to a backend")
	m.SceneRebuildDuration = collector.RegisterHistogram("scene_rebuild_duration_seconds", "Scene rebuild duration", DefaultRebuildDurationBuckets)
	m.SceneDrawRecords = collector.RegisterHistogram("scene_draw_records", "Draw records per layer and rebuild", DefaultRecordCountBuckets, "layer")
	m.BackendFailuresTotal = collector.RegisterCounter("backend_failures_total", "Rendering backend calls that failed", "op")
	m.InteractionEdgesTotal = collector.RegisterCounter("interaction_edges_total", "Interaction edges drawn", "kind")
	m.StructuresLoaded = collector.RegisterGauge("structures_loaded", "Structures currently held by the viewer")

	m.StructureLoadsTotal = collector.RegisterCounter("structure_loads_total", "Structure loads", "source", "status")
	m.StructureLoadDuration = collector.RegisterHistogram("structure_load_duration_seconds", "Structure load duration", DefaultLoadDurationBuckets, "source")
	m.StructureCacheHits = collector.RegisterCounter("structure_cache_hits_total", "Parsed structure cache hits", "source")
	m.StructureCacheMisses = collector.RegisterCounter("structure_cache_misses_total", "Parsed structure cache misses", "source")

	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Errors by component and code", "component", "code")

	return m
}

// ─────────────────────────────────────────────────────────────────────────────
// Viewer service
// ─────────────────────────────────────────────────────────────────────────────

func (m *AppMetrics) ObserveRebuild(d time.Duration, recordsByLayer map[string]int) {
	m.SceneRebuildsTotal.WithLabelValues().Inc()
	m.SceneRebuildDuration.WithLabelValues().Observe(d.Seconds())
	for layer, n := range recordsByLayer {
		m.SceneDrawRecords.WithLabelValues(layer).Observe(float64(n))
	}
}

func (m *AppMetrics) BackendFailures(op string, n int) {
	if n > 0 {
		m.BackendFailuresTotal.WithLabelValues(op).Add(float64(n))
	}
}

func (m *AppMetrics) InteractionEdges(kind string, n int) {
	if n > 0 {
		m.InteractionEdgesTotal.WithLabelValues(kind).Add(float64(n))
	}
}

func (m *AppMetrics) SetStructures(n int) {
	m.StructuresLoaded.WithLabelValues().Set(float64(n))
}

// ─────────────────────────────────────────────────────────────────────────────
// Loader
// ─────────────────────────────────────────────────────────────────────────────

func (m *AppMetrics) CacheAccess(source string, hit bool) {
	if hit {
		m.StructureCacheHits.WithLabelValues(source).Inc()
		return
	}
	m.StructureCacheMisses.WithLabelValues(source).Inc()
}

func (m *AppMetrics) ObserveLoad(source string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.StructureLoadsTotal.WithLabelValues(source, status).Inc()
	m.StructureLoadDuration.WithLabelValues(source).Observe(d.Seconds())
}

// ─────────────────────────────────────────────────────────────────────────────
// Transport helpers
// ─────────────────────────────────────────────────────────────────────────────

func RecordHTTPRequest(m *AppMetrics, method, route string, statusCode int, d time.Duration, respSize int64) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
	m.HTTPResponseSize.WithLabelValues(method, route).Observe(float64(respSize))
}

func RecordGRPCRequest(m *AppMetrics, method, code string, d time.Duration) {
	m.GRPCRequestsTotal.WithLabelValues(method, code).Inc()
	m.GRPCRequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

func RecordError(m *AppMetrics, component, code string) {
	m.ErrorsTotal.WithLabelValues(component, code).Inc()
}
