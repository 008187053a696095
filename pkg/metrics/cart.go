package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records cart persistence activity.
type CartMetrics struct {
	saveDuration   *prometheus.HistogramVec
	remoteFailures *prometheus.CounterVec
	localFallbacks *prometheus.CounterVec
	staleLoads     prometheus.Counter
	evictions      *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	saveDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_save_duration_seconds",
		Help:    "Duration of cart saves in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"target"})
	remoteFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_remote_failures_total",
		Help: "Failed remote cart operations.",
	}, []string{"op"})
	localFallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_local_fallbacks_total",
		Help: "Cart operations served by local storage after a remote failure.",
	}, []string{"op"})
	staleLoads := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_stale_loads_total",
		Help: "Cart load results discarded because a newer load was requested.",
	})
	evictions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_sessions_evicted_total",
		Help: "Cart sessions closed by the registry, by reason.",
	}, []string{"reason"})
	reg.MustRegister(saveDuration, remoteFailures, localFallbacks, staleLoads, evictions)
	return &CartMetrics{
		saveDuration:   saveDuration,
		remoteFailures: remoteFailures,
		localFallbacks: localFallbacks,
		staleLoads:     staleLoads,
		evictions:      evictions,
	}
}

// ObserveSave records how long a save against target took.
func (c *CartMetrics) ObserveSave(target string, duration time.Duration) {
	if c == nil || c.saveDuration == nil {
		return
	}
	c.saveDuration.WithLabelValues(normalizeLabel(target)).Observe(duration.Seconds())
}

// IncRemoteFailure counts a failed remote load or save.
func (c *CartMetrics) IncRemoteFailure(op string) {
	if c == nil || c.remoteFailures == nil {
		return
	}
	c.remoteFailures.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncLocalFallback counts an operation rerouted to local storage.
func (c *CartMetrics) IncLocalFallback(op string) {
	if c == nil || c.localFallbacks == nil {
		return
	}
	c.localFallbacks.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncStaleLoad counts a discarded load result.
func (c *CartMetrics) IncStaleLoad() {
	if c == nil || c.staleLoads == nil {
		return
	}
	c.staleLoads.Inc()
}

// AddSessionEvictions counts sessions closed for reason.
func (c *CartMetrics) AddSessionEvictions(reason string, n int) {
	if c == nil || c.evictions == nil || n <= 0 {
		return
	}
	c.evictions.WithLabelValues(normalizeLabel(reason)).Add(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
