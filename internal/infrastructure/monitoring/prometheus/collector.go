package prometheus

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/irisuniflora/VF/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/irisuniflora/VF/pkg/errors"
)

// MetricsCollector owns a private registry and hands out label-vector
// wrappers. Registration of an existing name returns the existing vector.
type MetricsCollector interface {
	RegisterCounter(name, help string, labels ...string) CounterVec
	RegisterGauge(name, help string, labels ...string) GaugeVec
	RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec
	Handler() http.Handler
	MustRegister(cs ...prometheus.Collector)
	Unregister(c prometheus.Collector) bool
}

type CounterVec interface {
	WithLabelValues(lvs ...string) Counter
}

type Counter interface {
	Inc()
	Add(delta float64)
}

type GaugeVec interface {
	WithLabelValues(lvs ...string) Gauge
}

type Gauge interface {
	Set(value float64)
	Inc()
	Dec()
}

type HistogramVec interface {
	WithLabelValues(lvs ...string) Histogram
}

type Histogram interface {
	Observe(value float64)
}

// CollectorConfig configures the registry.
type CollectorConfig struct {
	Namespace               string
	Subsystem               string
	EnableProcessMetrics    bool
	EnableGoMetrics         bool
	DefaultHistogramBuckets []float64
	ConstLabels             map[string]string
}

type collector struct {
	mu       sync.Mutex
	registry *prometheus.Registry
	cfg      CollectorConfig
	byName   map[string]prometheus.Collector
	logger   logging.Logger
}

// NewMetricsCollector builds a collector on a fresh registry.
func NewMetricsCollector(cfg CollectorConfig, logger logging.Logger) (MetricsCollector, error) {
	if cfg.Namespace == "" {
		return nil, pkgerrors.InvalidParam("metrics namespace is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	reg := prometheus.NewRegistry()
	if cfg.EnableProcessMetrics {
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: cfg.Namespace}))
	}
	if cfg.EnableGoMetrics {
		reg.MustRegister(collectors.NewGoCollector())
	}
	if len(cfg.DefaultHistogramBuckets) == 0 {
		cfg.DefaultHistogramBuckets = prometheus.DefBuckets
	}
	return &collector{
		registry: reg,
		cfg:      cfg,
		byName:   make(map[string]prometheus.Collector),
		logger:   logger,
	}, nil
}

func (c *collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (c *collector) MustRegister(cs ...prometheus.Collector) { c.registry.MustRegister(cs...) }

func (c *collector) Unregister(pc prometheus.Collector) bool { return c.registry.Unregister(pc) }

// register stores v under its fully qualified name or returns what is
// already stored there.
func (c *collector) register(name string, v prometheus.Collector) (prometheus.Collector, error) {
	fq := prometheus.BuildFQName(c.cfg.Namespace, c.cfg.Subsystem, name)

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.byName[fq]; ok {
		return existing, nil
	}
	if err := c.registry.Register(v); err != nil {
		return nil, err
	}
	c.byName[fq] = v
	return v, nil
}

func (c *collector) rejected(kind, name string, err error) {
	if err != nil {
		c.logger.Error("metric registration failed", logging.String("kind", kind), logging.String("name", name), logging.Err(err))
		return
	}
	c.logger.Warn("metric registered under another type", logging.String("kind", kind), logging.String("name", name))
}

func (c *collector) RegisterCounter(name, help string, labels ...string) CounterVec {
	got, err := c.register(name, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   c.cfg.Namespace,
		Subsystem:   c.cfg.Subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: c.cfg.ConstLabels,
	}, labels))
	if vec, ok := got.(*prometheus.CounterVec); ok && err == nil {
		return counterVec{vec}
	}
	c.rejected("counter", name, err)
	return nopCounterVec{}
}

func (c *collector) RegisterGauge(name, help string, labels ...string) GaugeVec {
	got, err := c.register(name, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   c.cfg.Namespace,
		Subsystem:   c.cfg.Subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: c.cfg.ConstLabels,
	}, labels))
	if vec, ok := got.(*prometheus.GaugeVec); ok && err == nil {
		return gaugeVec{vec}
	}
	c.rejected("gauge", name, err)
	return nopGaugeVec{}
}

func (c *collector) RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec {
	if len(buckets) == 0 {
		buckets = c.cfg.DefaultHistogramBuckets
	}
	got, err := c.register(name, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   c.cfg.Namespace,
		Subsystem:   c.cfg.Subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: c.cfg.ConstLabels,
		Buckets:     buckets,
	}, labels))
	if vec, ok := got.(*prometheus.HistogramVec); ok && err == nil {
		return histogramVec{vec}
	}
	c.rejected("histogram", name, err)
	return nopHistogramVec{}
}

// ─────────────────────────────────────────────────────────────────────────────
// Wrappers
// ─────────────────────────────────────────────────────────────────────────────

type counterVec struct{ v *prometheus.CounterVec }

func (w counterVec) WithLabelValues(lvs ...string) Counter { return w.v.WithLabelValues(lvs...) }

type gaugeVec struct{ v *prometheus.GaugeVec }

func (w gaugeVec) WithLabelValues(lvs ...string) Gauge { return w.v.WithLabelValues(lvs...) }

type histogramVec struct{ v *prometheus.HistogramVec }

func (w histogramVec) WithLabelValues(lvs ...string) Histogram { return w.v.WithLabelValues(lvs...) }

// The nop vectors stand in for any vector whose registration failed.
type (
	nopCounterVec   struct{}
	nopGaugeVec     struct{}
	nopHistogramVec struct{}
)

func (nopCounterVec) WithLabelValues(...string) Counter     { return nop{} }
func (nopGaugeVec) WithLabelValues(...string) Gauge         { return nop{} }
func (nopHistogramVec) WithLabelValues(...string) Histogram { return nop{} }

type nop struct{}

func (nop) Inc()            {}
func (nop) Dec()            {}
func (nop) Add(float64)     {}
func (nop) Set(float64)     {}
func (nop) Observe(float64) {}

// ─────────────────────────────────────────────────────────────────────────────
// Timer
// ─────────────────────────────────────────────────────────────────────────────

type Timer struct {
	h     Histogram
	start time.Time
}

func NewTimer(h Histogram) *Timer { return &Timer{h: h, start: time.Now()} }

// ObserveDuration records the elapsed seconds and returns the duration.
func (t *Timer) ObserveDuration() time.Duration {
	d := time.Since(t.start)
	if t.h != nil {
		t.h.Observe(d.Seconds())
	}
	return d
}
