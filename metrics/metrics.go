package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/lguibr/ballguard/validator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ballguard"

// Collector exposes validator activity as Prometheus metrics. It implements
// validator.Recorder.
type Collector struct {
	gatherer prometheus.Gatherer

	TickDuration prometheus.Histogram
	QueueDepth   prometheus.Gauge
	LogSize      prometheus.Gauge
	Events       *prometheus.CounterVec
	Subscribers  prometheus.Gauge
}

var _ validator.Recorder = (*Collector)(nil)

// NewCollector registers validator metrics against reg, or the default
// registerer when reg is nil. Registering twice on the same registry reuses the
// existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	tickDuration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tick_duration_seconds",
		Help:      "Wall time spent in one validation tick.",
		Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	}), "tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	queueDepth, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "collision_queue_depth",
		Help:      "Collision events left queued after the last tick.",
	}), "collision_queue_depth")
	if err != nil {
		return nil, err
	}

	logSize, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "event_log_entries",
		Help:      "Validation events currently retained in the log.",
	}), "event_log_entries")
	if err != nil {
		return nil, err
	}

	events, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "validation_events_total",
		Help:      "Validation events emitted, by kind.",
	}, []string{"kind"}), "validation_events_total")
	if err != nil {
		return nil, err
	}

	subscribers, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stream_subscribers",
		Help:      "Connected diagnostics stream subscribers.",
	}), "stream_subscribers")
	if err != nil {
		return nil, err
	}

	c := &Collector{
		gatherer:     gatherer,
		TickDuration: tickDuration,
		QueueDepth:   queueDepth,
		LogSize:      logSize,
		Events:       events,
		Subscribers:  subscribers,
	}
	// Pre-create every kind so dashboards see zeros instead of gaps.
	for _, k := range validator.Kinds() {
		c.Events.WithLabelValues(k.String())
	}
	return c, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *Collector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler serves the collector's gatherer in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.Gatherer(), promhttp.HandlerOpts{})
}

func (c *Collector) ObserveTick(d time.Duration, queueDepth, logSize int) {
	if c == nil {
		return
	}
	c.TickDuration.Observe(d.Seconds())
	c.QueueDepth.Set(float64(queueDepth))
	c.LogSize.Set(float64(logSize))
}

func (c *Collector) ObserveEvent(kind validator.Kind) {
	if c == nil {
		return
	}
	c.Events.WithLabelValues(kind.String()).Inc()
}

// SetSubscribers updates the connected subscriber gauge.
func (c *Collector) SetSubscribers(n int) {
	if c == nil {
		return
	}
	c.Subscribers.Set(float64(n))
}

func register[T prometheus.Collector](reg prometheus.Registerer, collector T, name string) (T, error) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return collector, nil
}
