package metrics

import (
	stderrors "errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "glideformat"

// Cache lookup results.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Collector records engine cache and render metrics. A nil *Collector is
// valid and records nothing.
type Collector struct {
	cacheLookups   *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	renderedBytes  *prometheus.CounterVec
	errors         *prometheus.CounterVec
}

// NewCollector creates the metric vectors and registers them with reg.
// Vectors that are already registered (e.g. on reload) are reused.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Rendered-image cache lookups by result.",
		}, []string{"result"}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "duration_seconds",
			Help:      "Time spent decoding, manipulating and encoding an image.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"format"}),
		renderedBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "bytes_total",
			Help:      "Bytes written to the cache by rendering.",
		}, []string{"format"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Engine operation failures.",
		}, []string{"op"}),
	}
	if reg == nil {
		return c, nil
	}

	var err error
	if c.cacheLookups, err = register(reg, c.cacheLookups); err != nil {
		return nil, err
	}
	if c.renderDuration, err = register(reg, c.renderDuration); err != nil {
		return nil, err
	}
	if c.renderedBytes, err = register(reg, c.renderedBytes); err != nil {
		return nil, err
	}
	if c.errors, err = register(reg, c.errors); err != nil {
		return nil, err
	}
	return c, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, col T) (T, error) {
	if err := reg.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if stderrors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return col, err
	}
	return col, nil
}

// CacheLookup counts a cache hit or miss.
func (c *Collector) CacheLookup(hit bool) {
	if c == nil {
		return
	}
	result := CacheMiss
	if hit {
		result = CacheHit
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}

// Rendered records one completed render.
func (c *Collector) Rendered(format string, took time.Duration, size int) {
	if c == nil {
		return
	}
	c.renderDuration.WithLabelValues(format).Observe(took.Seconds())
	c.renderedBytes.WithLabelValues(format).Add(float64(size))
}

// Failed counts a failed engine operation.
func (c *Collector) Failed(op string) {
	if c == nil {
		return
	}
	c.errors.WithLabelValues(op).Inc()
}
